package record

import (
	"github.com/smallbiznis/astrolabe/internal/record/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("record.store",
	fx.Provide(repository.ProvideChartStore),
	fx.Provide(repository.ProvideHoroscopeStore),
)
