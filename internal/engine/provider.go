// Package engine resolves the calculation engine once per process.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine/degraded"
	"github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"go.uber.org/zap"
)

// Provider memoizes the engine chosen on first use. A failed real engine
// construction is never retried.
type Provider struct {
	factory domain.Factory
	mode    string
	clock   clock.Clock
	log     *zap.Logger
	gauge   *metrics.EngineGauge

	once   sync.Once
	engine domain.Engine
	isReal bool
}

// Options configure a Provider.
type Options struct {
	Factory domain.Factory
	Mode    string
	Clock   clock.Clock
	Log     *zap.Logger
	Gauge   *metrics.EngineGauge
}

func New(opts Options) *Provider {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	mode := opts.Mode
	if mode == "" {
		mode = config.EngineModeAuto
	}
	return &Provider{
		factory: opts.Factory,
		mode:    mode,
		clock:   opts.Clock,
		log:     log.Named("engine.provider"),
		gauge:   opts.Gauge,
	}
}

// Resolve returns the process engine and whether it is the real variant.
func (p *Provider) Resolve(ctx context.Context) (domain.Engine, bool) {
	p.once.Do(func() {
		p.engine, p.isReal = p.construct(ctx)
		p.gauge.Set(p.isReal)
	})
	return p.engine, p.isReal
}

func (p *Provider) construct(ctx context.Context) (domain.Engine, bool) {
	if p.mode == config.EngineModeDegraded || p.factory == nil {
		p.log.Warn("using degraded calculation engine", zap.String("mode", p.mode))
		return degraded.New(p.clock), false
	}

	eng, err := p.build(ctx)
	if err == nil {
		p.log.Info("real calculation engine ready",
			zap.Bool("horoscope", eng.SupportsHoroscope()),
		)
		return eng, true
	}

	fields := []zap.Field{zap.String("mode", p.mode), zap.Error(err)}
	if p.mode == config.EngineModeRemote {
		p.log.Error("real calculation engine unavailable, falling back to degraded engine", fields...)
	} else {
		p.log.Warn("real calculation engine unavailable, using degraded engine", fields...)
	}
	return degraded.New(p.clock), false
}

func (p *Provider) build(ctx context.Context) (engine domain.Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("%w: construction panicked: %v", domain.ErrEngineUnavailable, r)
		}
	}()

	engine, err = p.factory.New(ctx)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: factory returned no engine", domain.ErrEngineUnavailable)
	}
	return engine, nil
}
