package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"github.com/smallbiznis/astrolabe/internal/record/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeChartService struct {
	natalParams   chartdomain.NatalParams
	horoscopeReq  chartdomain.HoroscopeParams
	lastActor     string
	natalOut      chartdomain.Outcome
	completeOut   chartdomain.Outcome
	natalCalls    int
	completeCalls int
}

func (f *fakeChartService) ComputeNatal(ctx context.Context, params chartdomain.NatalParams) (enginedomain.ChartData, error) {
	_ = ctx
	return f.natalOut.Natal, f.natalOut.Err
}

func (f *fakeChartService) ComputeHoroscope(ctx context.Context, chart enginedomain.ChartData, targetDate string, targetTimeIndex int) (chartdomain.Horoscope, error) {
	_ = ctx
	return chartdomain.Horoscope{Data: f.completeOut.Horoscope}, nil
}

func (f *fakeChartService) ComputeComplete(ctx context.Context, params chartdomain.HoroscopeParams) chartdomain.Outcome {
	_ = ctx
	return f.completeOut
}

func (f *fakeChartService) Natal(ctx context.Context, params chartdomain.NatalParams, actor string) chartdomain.Outcome {
	_ = ctx
	f.natalCalls++
	f.natalParams = params
	f.lastActor = actor
	return f.natalOut
}

func (f *fakeChartService) Complete(ctx context.Context, params chartdomain.HoroscopeParams, actor string) chartdomain.Outcome {
	_ = ctx
	f.completeCalls++
	f.horoscopeReq = params
	f.lastActor = actor
	return f.completeOut
}

func (f *fakeChartService) EngineStatus(ctx context.Context) chartdomain.EngineStatus {
	_ = ctx
	return chartdomain.EngineStatus{Variant: enginedomain.VariantDegraded, SupportsHoroscope: true}
}

func newTestServer(t *testing.T, chartSvc *fakeChartService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&recorddomain.ChartRecord{}, &recorddomain.HoroscopeRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(testNow)
	deps := repository.Deps{DB: db, Node: node, Clock: clk, Log: zap.NewNop()}

	router := gin.New()
	router.Use(CORS())
	router.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:        router,
		Cfg:        config.Config{DefaultActor: "system"},
		Log:        zap.NewNop(),
		Clock:      clk,
		ChartSvc:   chartSvc,
		Charts:     repository.NewChartStore(deps),
		Horoscopes: repository.NewHoroscopeStore(deps),
	})
	return router
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestNatalByQueryNormalizesInputs(t *testing.T) {
	svc := &fakeChartService{natalOut: chartdomain.OK(enginedomain.ChartData{"solarDate": "2000-8-16"}, nil)}
	router := newTestServer(t, svc)

	resp := do(t, router, http.MethodGet, "/api/astro/by_solar?solar_date=2000-8-16&time_index=2&gender=%E5%A5%B3", "")
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, chartdomain.NatalParams{
		SolarDate: "2000-8-16",
		TimeIndex: 2,
		Gender:    recorddomain.GenderFemale,
		FixLeap:   true,
		Language:  "zh-CN",
	}, svc.natalParams)

	body := decode(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2025-06-01T12:00:00Z", body["timestamp"])
	assert.Equal(t, "2000-8-16", body["result"].(map[string]any)["solarDate"])
}

func TestNatalByBodyPassesActorAndFlags(t *testing.T) {
	svc := &fakeChartService{natalOut: chartdomain.OK(enginedomain.ChartData{}, nil)}
	router := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/astro/by_solar", bytes.NewBufferString(`{"solar_date":"1990-01-05","time_index":12,"gender":"male","fix_leap":false,"language":"en-US"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderActor, "alice")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, svc.natalParams.FixLeap)
	assert.Equal(t, "en-US", svc.natalParams.Language)
	assert.Equal(t, "alice", svc.lastActor)
}

func TestNatalValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing time_index": `{"solar_date":"2000-8-16","gender":"female"}`,
		"time_index range":   `{"solar_date":"2000-8-16","time_index":13,"gender":"female"}`,
		"gender":             `{"solar_date":"2000-8-16","time_index":2,"gender":"other"}`,
		"language":           `{"solar_date":"2000-8-16","time_index":2,"gender":"female","language":"fr-FR"}`,
		"solar_date":         `{"solar_date":"2000-13-45","time_index":2,"gender":"female"}`,
		"malformed":          `{"solar_date":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeChartService{}
			router := newTestServer(t, svc)

			resp := do(t, router, http.MethodPost, "/api/astro/by_solar", body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			payload := decode(t, resp)["error"].(map[string]any)
			assert.Equal(t, "validation_error", payload["type"])
			assert.Zero(t, svc.natalCalls)
		})
	}
}

func TestHoroscopePartialStillAnswers200(t *testing.T) {
	out := chartdomain.Partial(enginedomain.ChartData{"solarDate": "2000-8-16"}, enginedomain.HoroscopeData{"age": 24}, "engine timeout")
	out.Complete = true
	svc := &fakeChartService{completeOut: out}
	router := newTestServer(t, svc)

	resp := do(t, router, http.MethodPost, "/api/astro/horoscope", `{"solar_date":"2000-8-16","time_index":2,"gender":"female","target_date":"2024-1-1"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode(t, resp)
	assert.Equal(t, "partial", body["status"])
	assert.Equal(t, "engine timeout", body["error"])
	result := body["result"].(map[string]any)
	assert.Contains(t, result, "natal_chart")
	assert.Contains(t, result, "horoscope")
	assert.Equal(t, "2024-1-1", svc.horoscopeReq.TargetDate)
	assert.Equal(t, 0, svc.horoscopeReq.TargetTimeIndex)
}

func TestHoroscopeByQueryErrorEnvelope(t *testing.T) {
	svc := &fakeChartService{completeOut: chartdomain.Failed(errors.New("engine exploded"))}
	router := newTestServer(t, svc)

	resp := do(t, router, http.MethodGet, "/api/astro/horoscope?solar_date=2000-8-16&time_index=2&gender=male&target_date=2024-1-1&target_time_index=5", "")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode(t, resp)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "calculation failed: engine exploded", body["message"])
	assert.Equal(t, 5, svc.horoscopeReq.TargetTimeIndex)
}

func TestHoroscopeRequiresTargetDate(t *testing.T) {
	svc := &fakeChartService{}
	router := newTestServer(t, svc)

	resp := do(t, router, http.MethodGet, "/api/astro/horoscope?solar_date=2000-8-16&time_index=2&gender=male", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, svc.completeCalls)
}

func TestChartRecordLifecycle(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	resp := do(t, router, http.MethodGet, "/api/astro/records/charts?solar_date=2000-8-16&time_index=2&gender=female", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, decode(t, resp)["data"].(map[string]any)["exists"])

	resp = do(t, router, http.MethodPut, "/api/astro/records/charts", `{"solar_date":"2000-08-16","time_index":2,"gender":"女","fix_leap":false,"payload":{"palaces":[]}}`)
	require.Equal(t, http.StatusOK, resp.Code)
	id := decode(t, resp)["data"].(map[string]any)["id"].(string)
	require.NotEmpty(t, id)

	resp = do(t, router, http.MethodGet, "/api/astro/records/charts?solar_date=2000-8-16&time_index=2&gender=female", "")
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, true, data["exists"])
	assert.Equal(t, id, data["id"])

	resp = do(t, router, http.MethodGet, "/api/astro/records/charts/"+id, "")
	require.Equal(t, http.StatusOK, resp.Code)
	row := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "20000816", row["solar_date"])
	assert.Equal(t, float64(0), row["fix_leap"])
	assert.Equal(t, "zh-CN", row["language"])
	assert.Equal(t, "system", row["create_user"])
}

func TestHoroscopeRecordLifecycle(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	req := httptest.NewRequest(http.MethodPut, "/api/astro/records/horoscopes", bytes.NewBufferString(`{"solar_date":"2000-8-16","time_index":2,"gender":"female","target_date":"2024-1-1","target_time_index":3,"payload":{"age":24}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderActor, "editor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	id := decode(t, resp)["data"].(map[string]any)["id"].(string)

	resp = do(t, router, http.MethodGet, "/api/astro/records/horoscopes?solar_date=2000-8-16&time_index=2&gender=female&target_date=2024-01-01&target_time_index=3", "")
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, true, data["exists"])
	assert.Equal(t, id, data["id"])

	resp = do(t, router, http.MethodGet, "/api/astro/records/horoscopes/"+id, "")
	require.Equal(t, http.StatusOK, resp.Code)
	row := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "20240101", row["target_date"])
	assert.Equal(t, "editor", row["update_user"])
}

func TestRecordErrors(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	resp := do(t, router, http.MethodGet, "/api/astro/records/charts/12345", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, router, http.MethodGet, "/api/astro/records/charts/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, router, http.MethodPut, "/api/astro/records/charts", `{"solar_date":"2000-8-16","time_index":2,"gender":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMonthDays(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	resp := do(t, router, http.MethodGet, "/api/calendar/month_days?date=2024-02", "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, float64(29), body["count"])
	assert.Len(t, body["days"], 29)

	resp = do(t, router, http.MethodPost, "/api/calendar/month_days", `{"date":"2024-13"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decode(t, resp)["error"].(map[string]any)
	errs := payload["errors"].([]any)
	assert.Equal(t, "date", errs[0].(map[string]any)["field"])
}

func TestEngineStatusRoute(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	resp := do(t, router, http.MethodGet, "/api/test", "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, false, body["using_real_engine"])
	assert.Equal(t, "degraded", body["engine"].(map[string]any)["variant"])
}

func TestCORSPreflightAndFallback(t *testing.T) {
	router := newTestServer(t, &fakeChartService{})

	resp := do(t, router, http.MethodOptions, "/api/astro/by_solar", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = do(t, router, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_found", decode(t, resp)["error"].(map[string]any)["type"])
}
