package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("SELECT `id` FROM `iztro_astro` WHERE solar_date = ?"))
	assert.Equal(t, "INSERT", operationFromSQL("INSERT INTO iztro_horoscope (id) VALUES (?)"))
	assert.Equal(t, "UPDATE", operationFromSQL("  update iztro_astro set payload = ?"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "iztro_astro", tableFromSQL("SELECT `id` FROM `iztro_astro` WHERE solar_date = ?"))
	assert.Equal(t, "iztro_horoscope", tableFromSQL(`INSERT INTO "iztro_horoscope" ("id") VALUES ($1)`))
	assert.Equal(t, "iztro_astro", tableFromSQL("UPDATE iztro_astro SET payload = ?"))
	assert.Equal(t, "", tableFromSQL("PRAGMA busy_timeout = 5000"))
}
