package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/astrolabe/internal/observability/context"
	"github.com/smallbiznis/astrolabe/pkg/correlation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextKeyEnvelopeStatus is set by handlers that answer with an envelope.
const ContextKeyEnvelopeStatus = "envelope_status"

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// LogProbes logs health and metrics scrapes at info.
	LogProbes bool
	// ActorHeader names the header that identifies the writer of records.
	ActorHeader     string
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware logs each request with correlation identifiers and safe fields.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx, correlationID := correlation.Ensure(ctx, c.GetHeader(correlation.Header))
		ctx = obscontext.WithCorrelationID(ctx, correlationID)
		if cfg.ActorHeader != "" {
			ctx = obscontext.WithActor(ctx, strings.TrimSpace(c.GetHeader(cfg.ActorHeader)))
		}
		c.Header(correlation.Header, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", normalizeBytes(c.Request.ContentLength)),
			zap.Int("bytes_out", normalizeSize(c.Writer.Size())),
		}

		envelopeStatus := strings.TrimSpace(c.GetString(ContextKeyEnvelopeStatus))
		if envelopeStatus != "" {
			fields = append(fields, zap.String("envelope_status", envelopeStatus))
		}

		var errorType, errorCode string
		if lastErr := c.Errors.Last(); lastErr != nil {
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(lastErr.Err)
			}
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		log := FromContext(c.Request.Context())
		logRequest(log, requestLevel(route, status, errorType, envelopeStatus, cfg.LogProbes), fields)
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetString("request_id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set("request_id", requestID)
	c.Header("X-Request-Id", requestID)
	return requestID
}

// requestLevel picks the log level. Envelope routes always answer 200, so a
// failed calculation is raised to warn from its envelope status.
func requestLevel(route string, status int, errorType, envelopeStatus string, logProbes bool) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case status >= http.StatusBadRequest && errorType == "validation_error":
		return zap.DebugLevel
	case isProbe(route) && !logProbes:
		return zap.DebugLevel
	case envelopeStatus == "error":
		return zap.WarnLevel
	default:
		return zap.InfoLevel
	}
}

func logRequest(log *zap.Logger, level zapcore.Level, fields []zap.Field) {
	if log == nil {
		return
	}
	if ce := log.Check(level, "http_request"); ce != nil {
		ce.Write(fields...)
	}
}

func isProbe(route string) bool {
	switch strings.ToLower(strings.TrimSpace(route)) {
	case "/metrics", "/health":
		return true
	default:
		return false
	}
}

func normalizeBytes(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}

func normalizeSize(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
