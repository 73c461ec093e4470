// Package remote implements the real calculation engine as a client of the
// engine sidecar over HTTP.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/astrolabe/internal/engine/domain"
)

type natalRequest struct {
	SolarDate string `json:"solar_date"`
	TimeIndex int    `json:"time_index"`
	Gender    string `json:"gender"`
	FixLeap   bool   `json:"fix_leap"`
	Language  string `json:"language"`
}

type horoscopeRequest struct {
	natalRequest
	TargetDate      string `json:"target_date"`
	TargetTimeIndex int    `json:"target_time_index"`
}

// Config locates the engine sidecar.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Engine is the real variant. Its capabilities are fixed at construction.
type Engine struct {
	client *Client
	caps   Capabilities
}

// NewFactory returns a Factory that performs the capabilities handshake once per call.
func NewFactory(cfg Config) domain.Factory {
	return domain.FactoryFunc(func(ctx context.Context) (domain.Engine, error) {
		return Connect(ctx, cfg)
	})
}

// Connect performs the handshake and returns the engine. Any failure wraps
// domain.ErrEngineUnavailable.
func Connect(ctx context.Context, cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", domain.ErrEngineUnavailable)
	}

	client := NewClient(cfg.Endpoint, cfg.Timeout)
	caps, err := client.Capabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: capabilities: %v", domain.ErrEngineUnavailable, err)
	}
	if !caps.Natal {
		return nil, fmt.Errorf("%w: engine does not compute natal charts", domain.ErrEngineUnavailable)
	}

	return &Engine{client: client, caps: caps}, nil
}

func (e *Engine) Variant() domain.Variant { return domain.VariantReal }

func (e *Engine) SupportsHoroscope() bool { return e.caps.Horoscope }

func (e *Engine) Capabilities() Capabilities { return e.caps }

func (e *Engine) ComputeNatal(ctx context.Context, params domain.NatalParams) (domain.ChartData, error) {
	out, err := e.client.Natal(ctx, natalRequest{
		SolarDate: params.SolarDate,
		TimeIndex: params.TimeIndex,
		Gender:    params.Gender,
		FixLeap:   params.FixLeap,
		Language:  params.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: natal: %v", domain.ErrComputation, err)
	}
	return domain.ChartData(out), nil
}

func (e *Engine) ComputeHoroscope(ctx context.Context, chart domain.ChartData, targetDate string, targetTimeIndex int) (domain.HoroscopeData, error) {
	if !e.caps.Horoscope {
		return nil, domain.ErrHoroscopeUnsupported
	}

	solarDate, _ := chart.SolarDate()
	timeIndex, _ := chart.TimeIndex()
	gender, _ := chart.Gender()
	if missing := chart.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: chart lacks %s", domain.ErrComputation, strings.Join(missing, ", "))
	}

	out, err := e.client.Horoscope(ctx, horoscopeRequest{
		natalRequest: natalRequest{
			SolarDate: solarDate,
			TimeIndex: timeIndex,
			Gender:    gender,
			FixLeap:   chart.FixLeap(),
			Language:  chart.Language(),
		},
		TargetDate:      targetDate,
		TargetTimeIndex: targetTimeIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: horoscope: %v", domain.ErrComputation, err)
	}
	return domain.HoroscopeData(out), nil
}
