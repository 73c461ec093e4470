// Package domain defines the calculation engine contract shared by the real and degraded variants.
package domain

import (
	"context"
	"errors"
)

// Variant names which engine implementation produced an artifact.
type Variant string

const (
	VariantReal     Variant = "real"
	VariantDegraded Variant = "degraded"
)

var (
	ErrEngineUnavailable    = errors.New("engine_unavailable")
	ErrComputation          = errors.New("engine_computation_failed")
	ErrHoroscopeUnsupported = errors.New("horoscope_unsupported")
)

// Engine computes natal charts and horoscope projections. Implementations are
// immutable once constructed and safe for concurrent use.
type Engine interface {
	Variant() Variant
	SupportsHoroscope() bool
	ComputeNatal(ctx context.Context, params NatalParams) (ChartData, error)
	ComputeHoroscope(ctx context.Context, chart ChartData, targetDate string, targetTimeIndex int) (HoroscopeData, error)
}

// Factory constructs the real engine. A returned error means the process runs degraded.
type Factory interface {
	New(ctx context.Context) (Engine, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Engine, error)

func (f FactoryFunc) New(ctx context.Context) (Engine, error) {
	return f(ctx)
}

// NatalParams are the birth inputs of a chart.
type NatalParams struct {
	SolarDate string `json:"solar_date"`
	TimeIndex int    `json:"time_index"`
	Gender    string `json:"gender"`
	FixLeap   bool   `json:"fix_leap"`
	Language  string `json:"language"`
}
