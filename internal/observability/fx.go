package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/astrolabe/internal/observability/logger"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"github.com/smallbiznis/astrolabe/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the logger, tracer provider, OTel meter and Prometheus
// instruments. Prometheus collectors register on the default registry served at /metrics.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		provideRegisterer,
		metrics.NewHTTPMetrics,
		metrics.NewEngineGauge,
	),
	fx.Invoke(ensureTracingProvider),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.Service.Name,
		Environment:         cfg.Service.Environment,
		Version:             cfg.Service.Version,
		Level:               cfg.Log.Level,
		Format:              cfg.Log.Format,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OTLP.Enabled,
		ServiceName:      cfg.Service.Name,
		ServiceVersion:   cfg.Service.Version,
		Environment:      cfg.Service.Environment,
		ExporterEndpoint: cfg.OTLP.Endpoint,
		ExporterProtocol: cfg.OTLP.TracesProtocol,
		SamplingRatio:    cfg.OTLP.SamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OTLP.Enabled,
		ExporterEndpoint: cfg.OTLP.Endpoint,
		ExporterProtocol: cfg.OTLP.MetricsProtocol,
		ServiceName:      cfg.Service.Name,
		Environment:      cfg.Service.Environment,
	}
}
