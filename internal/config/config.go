package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewComputePolicyHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBCharset         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Engine EngineConfig
	Cache  CacheConfig

	// StoreDegradedArtifacts persists placeholder charts and fallback horoscopes too.
	StoreDegradedArtifacts bool
	DefaultActor           string
}

type EngineConfig struct {
	Mode           string
	Endpoint       string
	Timeout        time.Duration
	SlowThreshold  time.Duration
	RetryHoroscope bool
}

type CacheConfig struct {
	Enabled       bool
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

const (
	EngineModeAuto     = "auto"
	EngineModeRemote   = "remote"
	EngineModeDegraded = "degraded"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "astrolabe"),
		AppVersion:        getenv("APP_VERSION", "1.0.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8000"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "mysql"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "13306"),
		DBName:            getenv("DATABASE_NAME", "py_iztro"),
		DBUser:            getenv("DATABASE_USER", "root"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBCharset:         getenv("DATABASE_CHARSET", "utf8mb4"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Engine: EngineConfig{
			Mode:           normalizeEngineMode(getenv("ENGINE_MODE", EngineModeAuto)),
			Endpoint:       strings.TrimSpace(getenv("ENGINE_ENDPOINT", "")),
			Timeout:        getenvDuration("ENGINE_TIMEOUT", 30*time.Second),
			SlowThreshold:  getenvDuration("ENGINE_SLOW_THRESHOLD", 10*time.Second),
			RetryHoroscope: getenvBool("HOROSCOPE_RETRY", true),
		},
		Cache: CacheConfig{
			Enabled:       getenvBool("CACHE_ENABLED", false),
			Backend:       normalizeCacheBackend(getenv("CACHE_BACKEND", CacheBackendMemory)),
			TTL:           getenvDuration("CACHE_TTL", 24*time.Hour),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
		},
		StoreDegradedArtifacts: getenvBool("STORE_DEGRADED_ARTIFACTS", false),
		DefaultActor:           getenv("DEFAULT_ACTOR", "system"),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeEngineMode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case EngineModeRemote, EngineModeDegraded:
		return value
	default:
		return EngineModeAuto
	}
}

func normalizeCacheBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == CacheBackendRedis {
		return CacheBackendRedis
	}
	return CacheBackendMemory
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("1500ms") or plain seconds ("10").
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
