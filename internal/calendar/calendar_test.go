package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthDaysLeapFebruary(t *testing.T) {
	got, err := MonthDays("2024-2")
	require.NoError(t, err)

	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, 2, got.Month)
	assert.Equal(t, 29, got.Count)
	assert.Len(t, got.Days, 29)
	assert.Equal(t, "2024-02-01", got.Days[0])
	assert.Equal(t, "2024-02-29", got.Days[28])
}

func TestMonthDaysMonthLengths(t *testing.T) {
	cases := map[string]int{
		"2023-02": 28,
		"1900-02": 28,
		"2000-02": 29,
		"2025-04": 30,
		"2025-12": 31,
		"2100-1":  31,
	}
	for date, want := range cases {
		got, err := MonthDays(date)
		require.NoError(t, err, date)
		assert.Equal(t, want, got.Count, date)
	}
}

func TestMonthDaysRejectsInvalidInput(t *testing.T) {
	for _, date := range []string{"", "2024", "2024-02-01", "abcd-02", "2024-xx", "1899-12", "2101-01", "2024-0", "2024-13"} {
		_, err := MonthDays(date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}
}
