package chart

import (
	"github.com/smallbiznis/astrolabe/internal/chart/service"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine"
	"go.uber.org/fx"
)

var Module = fx.Module("chart.service",
	fx.Provide(
		fx.Annotate(
			func(p *engine.Provider) *engine.Provider { return p },
			fx.As(new(service.EngineResolver)),
		),
		fx.Annotate(
			func(h *config.ComputePolicyHolder) *config.ComputePolicyHolder { return h },
			fx.As(new(service.PolicySource)),
		),
		service.NewService,
	),
)
