package observability

import (
	"testing"

	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/stretchr/testify/assert"
)

func lookupOf(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadConfigDefaultsFromAppConfig(t *testing.T) {
	cfg := LoadConfigFrom(config.Config{
		AppName:      "astrolabe",
		AppVersion:   "1.0.0",
		Environment:  "production",
		OTLPEndpoint: "collector:4317",
	}, lookupOf(nil))

	assert.Equal(t, ServiceInfo{Name: "astrolabe", Environment: "production", Version: "1.0.0"}, cfg.Service)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "collector:4317", cfg.OTLP.Endpoint)
	assert.Equal(t, "grpc", cfg.OTLP.TracesProtocol)
	assert.Equal(t, "grpc", cfg.OTLP.MetricsProtocol)
	assert.InDelta(t, 0.1, cfg.OTLP.SamplingRatio, 1e-9)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	cfg := LoadConfigFrom(config.Config{Environment: "production"}, lookupOf(map[string]string{
		"OTEL_ENABLED":                        "yes",
		"OTEL_EXPORTER_OTLP_PROTOCOL":         "HTTP",
		"OTEL_EXPORTER_OTLP_METRICS_PROTOCOL": "grpc",
		"OTEL_SAMPLING_RATIO":                 "4",
		"LOG_LEVEL":                           "DEBUG",
		"LOG_PROBES":                          "on",
	}))

	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, "http", cfg.OTLP.TracesProtocol)
	assert.Equal(t, "grpc", cfg.OTLP.MetricsProtocol)
	assert.Equal(t, 1.0, cfg.OTLP.SamplingRatio)
	assert.True(t, cfg.Log.Probes)
	assert.True(t, cfg.Debug())
}

func TestDebugInDevelopmentEnvironments(t *testing.T) {
	for _, env := range []string{"dev", "Development", "local", "test"} {
		cfg := LoadConfigFrom(config.Config{Environment: env}, lookupOf(nil))
		assert.True(t, cfg.Debug(), env)
	}
}
