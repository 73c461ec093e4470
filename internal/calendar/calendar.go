// Package calendar answers Gregorian month queries.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinYear = 1900
	MaxYear = 2100
)

var ErrInvalidDate = errors.New("invalid_month")

type Month struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Days  []string `json:"days"`
	Count int      `json:"count"`
}

// MonthDays lists every day of the month given as YYYY-MM or YYYY-M.
func MonthDays(date string) (Month, error) {
	parts := strings.Split(strings.TrimSpace(date), "-")
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("%w: expected YYYY-MM or YYYY-M, got %q", ErrInvalidDate, date)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("%w: year %q is not a number", ErrInvalidDate, parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("%w: month %q is not a number", ErrInvalidDate, parts[1])
	}
	if year < MinYear || year > MaxYear {
		return Month{}, fmt.Errorf("%w: year out of range (%d-%d)", ErrInvalidDate, MinYear, MaxYear)
	}
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: month out of range (1-12)", ErrInvalidDate)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	count := first.AddDate(0, 1, -1).Day()

	days := make([]string, 0, count)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(time.DateOnly))
	}

	return Month{Year: year, Month: month, Days: days, Count: len(days)}, nil
}
