// Package domain defines the chart computation contract and its outcomes.
package domain

import (
	"github.com/bwmarrin/snowflake"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
)

// NatalParams are the birth inputs of a chart.
type NatalParams = enginedomain.NatalParams

// HoroscopeParams project a chart onto a target date.
type HoroscopeParams struct {
	Natal           NatalParams
	TargetDate      string
	TargetTimeIndex int
}

// Horoscope is the result of a horoscope computation. Degraded marks data
// derived without the real engine; Detail says why.
type Horoscope struct {
	Data     enginedomain.HoroscopeData
	Degraded bool
	Detail   string
}

// Status is the tag of an Outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Outcome is the result of a full computation flow.
type Outcome struct {
	Status    Status
	Natal     enginedomain.ChartData
	Horoscope enginedomain.HoroscopeData
	// Complete is set when a horoscope was requested alongside the chart.
	Complete bool
	Detail   string
	Err      error
	Variant  enginedomain.Variant

	ChartID     snowflake.ID
	HoroscopeID snowflake.ID
}

// OK is a fully successful outcome.
func OK(natal enginedomain.ChartData, horoscope enginedomain.HoroscopeData) Outcome {
	return Outcome{Status: StatusOK, Natal: natal, Horoscope: horoscope}
}

// Partial carries an intact chart next to a fallback horoscope.
func Partial(natal enginedomain.ChartData, horoscope enginedomain.HoroscopeData, detail string) Outcome {
	return Outcome{Status: StatusPartial, Natal: natal, Horoscope: horoscope, Detail: detail}
}

// Failed carries no artifacts.
func Failed(err error) Outcome {
	out := Outcome{Status: StatusError, Err: err}
	if err != nil {
		out.Detail = err.Error()
	}
	return out
}

// EngineStatus describes the engine resolved for this process.
type EngineStatus struct {
	Variant           enginedomain.Variant `json:"variant"`
	UsingRealEngine   bool                 `json:"using_real_engine"`
	SupportsHoroscope bool                 `json:"supports_horoscope"`
}
