package domain

import (
	"context"
	"errors"

	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
)

var ErrMissingField = errors.New("chart_missing_field")

type Service interface {
	// ComputeNatal computes a chart. Engine faults come back as errors, never panics.
	ComputeNatal(ctx context.Context, params NatalParams) (enginedomain.ChartData, error)
	// ComputeHoroscope projects chart onto the target date. Engine failures
	// degrade to derived data instead of an error.
	ComputeHoroscope(ctx context.Context, chart enginedomain.ChartData, targetDate string, targetTimeIndex int) (Horoscope, error)
	ComputeComplete(ctx context.Context, params HoroscopeParams) Outcome

	// Natal and Complete run the computation and persist the artifacts.
	Natal(ctx context.Context, params NatalParams, actor string) Outcome
	Complete(ctx context.Context, params HoroscopeParams, actor string) Outcome

	EngineStatus(ctx context.Context) EngineStatus
}
