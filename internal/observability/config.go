package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/astrolabe/internal/config"
)

// Config is the observability view of the process configuration.
type Config struct {
	Service ServiceInfo
	Log     LogConfig
	OTLP    OTLPConfig
}

type ServiceInfo struct {
	Name        string
	Environment string
	Version     string
}

type LogConfig struct {
	Level  string
	Format string
	// Probes logs /health and /metrics at info instead of debug.
	Probes bool
}

// OTLPConfig drives both exporters. Trace and metric protocols may differ.
type OTLPConfig struct {
	Enabled         bool
	Endpoint        string
	TracesProtocol  string
	MetricsProtocol string
	SamplingRatio   float64
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

func LoadConfig(cfg config.Config) Config {
	return LoadConfigFrom(cfg, os.LookupEnv)
}

// LoadConfigFrom layers OTEL_* and LOG_* variables over the application config.
func LoadConfigFrom(cfg config.Config, lookup LookupFunc) Config {
	env := envReader{lookup: lookup}

	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "astrolabe"
	}

	protocol := strings.ToLower(env.str("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))
	return Config{
		Service: ServiceInfo{
			Name:        env.str("OTEL_SERVICE_NAME", name),
			Environment: env.str("DEPLOYMENT_ENV", strings.TrimSpace(cfg.Environment)),
			Version:     env.str("SERVICE_VERSION", strings.TrimSpace(cfg.AppVersion)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(env.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(env.str("LOG_FORMAT", "json")),
			Probes: env.boolean("LOG_PROBES", false),
		},
		OTLP: OTLPConfig{
			Enabled:         env.boolean("OTEL_ENABLED", false),
			Endpoint:        env.str("OTEL_EXPORTER_OTLP_ENDPOINT", strings.TrimSpace(cfg.OTLPEndpoint)),
			TracesProtocol:  strings.ToLower(env.str("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol)),
			MetricsProtocol: strings.ToLower(env.str("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL", protocol)),
			SamplingRatio:   env.ratio("OTEL_SAMPLING_RATIO", 0.1),
		},
	}
}

func (c Config) Debug() bool {
	if c.Log.Level == "debug" {
		return true
	}
	switch strings.ToLower(c.Service.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

type envReader struct {
	lookup LookupFunc
}

func (r envReader) str(key, def string) string {
	if r.lookup == nil {
		return def
	}
	if value, ok := r.lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return def
}

func (r envReader) boolean(key string, def bool) bool {
	switch strings.ToLower(r.str(key, "")) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// ratio clamps to [0,1]; unparsable values fall back to def.
func (r envReader) ratio(key string, def float64) float64 {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	switch {
	case parsed < 0:
		return 0
	case parsed > 1:
		return 1
	default:
		return parsed
	}
}
