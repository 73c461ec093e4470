package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Chart data keys read when projecting a horoscope.
const (
	FieldSolarDate = "solarDate"
	FieldTime      = "time"
	FieldGender    = "gender"
	FieldFixLeap   = "fixLeap"
	FieldLanguage  = "language"
)

// ChartData is an opaque natal chart as returned by an engine.
type ChartData map[string]any

// HoroscopeData is an opaque horoscope projection as returned by an engine.
type HoroscopeData map[string]any

var timeNames = map[string]int{
	"子时": 0, "丑时": 1, "寅时": 2, "卯时": 3, "辰时": 4,
	"巳时": 5, "午时": 6, "未时": 7, "申时": 8, "酉时": 9,
	"戌时": 10, "亥时": 11, "夜子时": 12,
	"早子时": 0, "晚子时": 12,
}

func (c ChartData) SolarDate() (string, bool) {
	value, ok := c[FieldSolarDate].(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (c ChartData) Gender() (string, bool) {
	value, ok := c[FieldGender].(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// TimeIndex reads the birth hour index. Engines report it as a number or as an hour name.
func (c ChartData) TimeIndex() (int, bool) {
	switch value := c[FieldTime].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	case json.Number:
		n, err := value.Int64()
		return int(n), err == nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n, true
		}
		n, ok := timeNames[strings.TrimSpace(value)]
		return n, ok
	default:
		return 0, false
	}
}

// HasTime reports whether c carries a birth hour at all, parseable or not.
func (c ChartData) HasTime() bool {
	switch value := c[FieldTime].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	default:
		return true
	}
}

// FixLeap reads the leap month flag, which defaults to true.
func (c ChartData) FixLeap() bool {
	if value, ok := c[FieldFixLeap].(bool); ok {
		return value
	}
	return true
}

func (c ChartData) Language() string {
	value, _ := c[FieldLanguage].(string)
	return strings.TrimSpace(value)
}

// WithInputs returns a copy of c stamped with the birth inputs a horoscope
// needs. An hour the engine reported under a name TimeIndex cannot read is
// replaced by params.TimeIndex. c itself is left untouched.
func (c ChartData) WithInputs(params NatalParams) ChartData {
	out := make(ChartData, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	out[FieldFixLeap] = params.FixLeap
	if language := strings.TrimSpace(params.Language); language != "" {
		out[FieldLanguage] = language
	}
	if _, ok := c.TimeIndex(); !ok && c.HasTime() {
		out[FieldTime] = params.TimeIndex
	}
	return out
}

// MissingFields lists the required keys absent from c. A present hour that
// does not parse is not missing; it reads as index 0.
func (c ChartData) MissingFields() []string {
	var missing []string
	if _, ok := c.SolarDate(); !ok {
		missing = append(missing, FieldSolarDate)
	}
	if !c.HasTime() {
		missing = append(missing, FieldTime)
	}
	if _, ok := c.Gender(); !ok {
		missing = append(missing, FieldGender)
	}
	return missing
}
