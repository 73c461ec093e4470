package engine

import (
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/internal/engine/remote"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("engine",
	fx.Provide(provideFactory),
	fx.Provide(NewProvider),
)

type ProviderParams struct {
	fx.In

	Config  config.Config
	Factory domain.Factory
	Clock   clock.Clock
	Log     *zap.Logger
	Gauge   *metrics.EngineGauge `optional:"true"`
}

func NewProvider(p ProviderParams) *Provider {
	return New(Options{
		Factory: p.Factory,
		Mode:    p.Config.Engine.Mode,
		Clock:   p.Clock,
		Log:     p.Log,
		Gauge:   p.Gauge,
	})
}

func provideFactory(cfg config.Config) domain.Factory {
	return remote.NewFactory(remote.Config{
		Endpoint: cfg.Engine.Endpoint,
		Timeout:  cfg.Engine.Timeout,
	})
}
