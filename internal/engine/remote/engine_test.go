package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/pkg/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSidecar struct {
	caps          Capabilities
	natalStatus   int
	lastHoroscope horoscopeRequest
	lastHeader    http.Header
	capsCalls     int
}

func (f *fakeSidecar) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/capabilities", func(w http.ResponseWriter, r *http.Request) {
		f.capsCalls++
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(f.caps)
	})
	mux.HandleFunc("/natal", func(w http.ResponseWriter, r *http.Request) {
		f.lastHeader = r.Header.Clone()
		if f.natalStatus != 0 {
			w.WriteHeader(f.natalStatus)
			_, _ = w.Write([]byte(`{"error":"invalid solar date"}`))
			return
		}
		var req natalRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"solarDate": req.SolarDate,
			"time":      "卯时",
			"gender":    "女",
			"palaces":   []any{map[string]any{"name": "命宫"}},
		})
	})
	mux.HandleFunc("/horoscope", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastHoroscope))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"target_date": f.lastHoroscope.TargetDate,
			"decadal":     map[string]any{"index": 2},
		})
	})
	return mux
}

func TestConnectHandshake(t *testing.T) {
	sidecar := &fakeSidecar{caps: Capabilities{Natal: true, Horoscope: true, Version: "1.2.0"}}
	srv := httptest.NewServer(sidecar.handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL + "/", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, domain.VariantReal, engine.Variant())
	assert.True(t, engine.SupportsHoroscope())
	assert.Equal(t, "1.2.0", engine.Capabilities().Version)
	assert.Equal(t, 1, sidecar.capsCalls)
}

func TestConnectFailures(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	noNatal := httptest.NewServer((&fakeSidecar{caps: Capabilities{Horoscope: true}}).handler(t))
	defer noNatal.Close()
	_, err = Connect(context.Background(), Config{Endpoint: noNatal.URL})
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()
	_, err = Connect(context.Background(), Config{Endpoint: broken.URL})
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = NewFactory(Config{Endpoint: closed.URL, Timeout: 200 * time.Millisecond}).New(context.Background())
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestComputeNatalAndHoroscope(t *testing.T) {
	sidecar := &fakeSidecar{caps: Capabilities{Natal: true, Horoscope: true}}
	srv := httptest.NewServer(sidecar.handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL})
	require.NoError(t, err)

	ctx := correlation.WithID(context.Background(), "01HZXCORRELATION")
	chart, err := engine.ComputeNatal(ctx, domain.NatalParams{SolarDate: "2000-8-16", TimeIndex: 2, Gender: "female", FixLeap: true, Language: "zh-CN"})
	require.NoError(t, err)
	assert.Equal(t, "2000-8-16", chart["solarDate"])
	assert.Equal(t, "01HZXCORRELATION", sidecar.lastHeader.Get(correlation.Header))

	horoscope, err := engine.ComputeHoroscope(ctx, chart, "2024-1-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-1-1", horoscope["target_date"])
	assert.Equal(t, 3, sidecar.lastHoroscope.TimeIndex)
	assert.Equal(t, "女", sidecar.lastHoroscope.Gender)
	assert.Equal(t, 5, sidecar.lastHoroscope.TargetTimeIndex)
	assert.True(t, sidecar.lastHoroscope.FixLeap)
}

func TestComputeNatalSurfacesEngineError(t *testing.T) {
	sidecar := &fakeSidecar{caps: Capabilities{Natal: true}, natalStatus: http.StatusUnprocessableEntity}
	srv := httptest.NewServer(sidecar.handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = engine.ComputeNatal(context.Background(), domain.NatalParams{SolarDate: "2000-8-16"})
	require.ErrorIs(t, err, domain.ErrComputation)
	assert.Contains(t, err.Error(), "invalid solar date")
}

func TestComputeHoroscopeUnsupported(t *testing.T) {
	srv := httptest.NewServer((&fakeSidecar{caps: Capabilities{Natal: true}}).handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL})
	require.NoError(t, err)
	assert.False(t, engine.SupportsHoroscope())

	_, err = engine.ComputeHoroscope(context.Background(), domain.ChartData{"solarDate": "2000-8-16", "time": 2, "gender": "female"}, "2024-1-1", 0)
	assert.ErrorIs(t, err, domain.ErrHoroscopeUnsupported)
}

func TestComputeHoroscopeRequiresChartFields(t *testing.T) {
	srv := httptest.NewServer((&fakeSidecar{caps: Capabilities{Natal: true, Horoscope: true}}).handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = engine.ComputeHoroscope(context.Background(), domain.ChartData{"solarDate": "2000-8-16"}, "2024-1-1", 0)
	assert.ErrorIs(t, err, domain.ErrComputation)
}

func TestComputeHoroscopeForwardsBirthInputs(t *testing.T) {
	sidecar := &fakeSidecar{caps: Capabilities{Natal: true, Horoscope: true}}
	srv := httptest.NewServer(sidecar.handler(t))
	defer srv.Close()

	engine, err := Connect(context.Background(), Config{Endpoint: srv.URL})
	require.NoError(t, err)

	params := domain.NatalParams{SolarDate: "2000-8-16", TimeIndex: 0, Gender: "female", FixLeap: false, Language: "en-US"}
	chart := domain.ChartData{"solarDate": "2000-8-16", "time": "early Rat hour", "gender": "female"}

	_, err = engine.ComputeHoroscope(context.Background(), chart.WithInputs(params), "2024-1-1", 1)
	require.NoError(t, err)
	assert.False(t, sidecar.lastHoroscope.FixLeap)
	assert.Equal(t, "en-US", sidecar.lastHoroscope.Language)
	assert.Equal(t, 0, sidecar.lastHoroscope.TimeIndex)
}
