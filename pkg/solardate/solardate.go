// Package solardate parses the Gregorian dates accepted by the chart endpoints.
package solardate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid_solar_date")

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Parse accepts YYYY-M-D and YYYY-MM-DD and rejects days that do not exist.
func Parse(value string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		if part == "" || len(part) > 4 {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
		}
		nums[i] = n
	}
	if len(parts[0]) != 4 || len(parts[1]) > 2 || len(parts[2]) > 2 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	return d, nil
}

// Compact renders the zero padded yyyyMMdd form used by identity columns.
func (d Date) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// String renders YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compact parses value and returns its yyyyMMdd form.
func Compact(value string) (string, error) {
	d, err := Parse(value)
	if err != nil {
		return "", err
	}
	return d.Compact(), nil
}

// Year returns the year component of value.
func Year(value string) (int, error) {
	d, err := Parse(value)
	if err != nil {
		return 0, err
	}
	return d.Year, nil
}
