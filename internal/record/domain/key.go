package domain

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/astrolabe/pkg/solardate"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	MinTimeIndex = 0
	MaxTimeIndex = 12
)

// Key yields the identity columns of a record.
type Key interface {
	Conditions() map[string]any
}

// Changes yields the non-identity columns a write supplies.
type Changes interface {
	Columns() map[string]any
}

// ChartKey identifies a natal chart. SolarDate is held in compact yyyyMMdd form.
type ChartKey struct {
	SolarDate string
	TimeIndex int
	Gender    string
}

// NewChartKey validates and normalizes the identity of a chart.
func NewChartKey(solarDate string, timeIndex int, gender string) (ChartKey, error) {
	compact, err := solardate.Compact(solarDate)
	if err != nil {
		return ChartKey{}, fmt.Errorf("%w: solar_date: %v", ErrInvalidKey, err)
	}
	if timeIndex < MinTimeIndex || timeIndex > MaxTimeIndex {
		return ChartKey{}, fmt.Errorf("%w: time_index %d out of range", ErrInvalidKey, timeIndex)
	}
	gender, err = NormalizeGender(gender)
	if err != nil {
		return ChartKey{}, err
	}
	return ChartKey{SolarDate: compact, TimeIndex: timeIndex, Gender: gender}, nil
}

func (k ChartKey) Conditions() map[string]any {
	return map[string]any{
		"solar_date": k.SolarDate,
		"time_index": k.TimeIndex,
		"gender":     k.Gender,
	}
}

// HoroscopeKey identifies a horoscope projection of a chart.
type HoroscopeKey struct {
	ChartKey
	TargetDate      string
	TargetTimeIndex int
}

// NewHoroscopeKey validates and normalizes the identity of a horoscope.
func NewHoroscopeKey(chart ChartKey, targetDate string, targetTimeIndex int) (HoroscopeKey, error) {
	compact, err := solardate.Compact(targetDate)
	if err != nil {
		return HoroscopeKey{}, fmt.Errorf("%w: target_date: %v", ErrInvalidKey, err)
	}
	if targetTimeIndex < MinTimeIndex || targetTimeIndex > MaxTimeIndex {
		return HoroscopeKey{}, fmt.Errorf("%w: target_time_index %d out of range", ErrInvalidKey, targetTimeIndex)
	}
	return HoroscopeKey{ChartKey: chart, TargetDate: compact, TargetTimeIndex: targetTimeIndex}, nil
}

func (k HoroscopeKey) Conditions() map[string]any {
	conditions := k.ChartKey.Conditions()
	conditions["target_date"] = k.TargetDate
	conditions["target_time_index"] = k.TargetTimeIndex
	return conditions
}

// NormalizeGender maps accepted spellings onto male or female.
func NormalizeGender(gender string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case GenderMale, "男":
		return GenderMale, nil
	case GenderFemale, "女":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("%w: gender %q", ErrInvalidKey, gender)
	}
}
