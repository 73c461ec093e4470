package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChartKeyNormalizes(t *testing.T) {
	key, err := NewChartKey("2000-8-16", 2, "女")
	require.NoError(t, err)
	assert.Equal(t, ChartKey{SolarDate: "20000816", TimeIndex: 2, Gender: GenderFemale}, key)
	assert.Equal(t, map[string]any{"solar_date": "20000816", "time_index": 2, "gender": "female"}, key.Conditions())
}

func TestNewChartKeyRejects(t *testing.T) {
	cases := []struct {
		date   string
		index  int
		gender string
	}{
		{"2000-02-30", 2, "male"},
		{"2000-08-16", -1, "male"},
		{"2000-08-16", 13, "male"},
		{"2000-08-16", 2, "other"},
	}
	for _, tc := range cases {
		_, err := NewChartKey(tc.date, tc.index, tc.gender)
		assert.ErrorIs(t, err, ErrInvalidKey)
	}
}

func TestHoroscopeKeyConditions(t *testing.T) {
	chart, err := NewChartKey("2000-08-16", 2, "male")
	require.NoError(t, err)
	key, err := NewHoroscopeKey(chart, "2024-3-9", 5)
	require.NoError(t, err)

	conditions := key.Conditions()
	assert.Equal(t, "20240309", conditions["target_date"])
	assert.Equal(t, 5, conditions["target_time_index"])
	assert.Equal(t, "20000816", conditions["solar_date"])
}

func TestChartChangesColumns(t *testing.T) {
	assert.Empty(t, ChartChanges{}.Columns())

	off := false
	lang := "zh-TW"
	columns := ChartChanges{FixLeap: &off, Language: &lang}.Columns()
	assert.Equal(t, map[string]any{"fix_leap": 0, "language": "zh-TW"}, columns)
}
