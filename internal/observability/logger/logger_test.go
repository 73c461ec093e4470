package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	obscontext "github.com/smallbiznis/astrolabe/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildWritesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := Build(Config{
		ServiceName: "astrolabe",
		Environment: "test",
		Version:     "1.2.3",
		Level:       "info",
		Output:      zapcore.AddSync(&buf),
	})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("kept", zap.String("solar_date", "2000-8-16"))
	require.NoError(t, log.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "astrolabe", line["service"])
	assert.Equal(t, "test", line["env"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "2000-8-16", line["solar_date"])
}

func TestBuildRejectsUnknownLevel(t *testing.T) {
	_, err := Build(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := Build(Config{Output: zapcore.AddSync(&buf), DisableSampling: true})
	require.NoError(t, err)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithCorrelationID(ctx, "corr-1")
	ctx = obscontext.WithActor(ctx, "alice")
	WithChartKey(WithContext(ctx, base), "2000-8-16", 2, "female").Info("saved")
	require.NoError(t, base.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "alice", line["actor"])
	assert.Equal(t, float64(2), line["time_index"])
}
