package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/smallbiznis/astrolabe/internal/clock"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubEngine struct{}

func (stubEngine) Variant() enginedomain.Variant { return enginedomain.VariantReal }

func (stubEngine) SupportsHoroscope() bool { return false }

func (stubEngine) ComputeNatal(_ context.Context, params enginedomain.NatalParams) (enginedomain.ChartData, error) {
	if params.SolarDate == "1999-1-1" {
		return nil, errors.New("engine rejected input")
	}
	return enginedomain.ChartData{"solarDate": params.SolarDate, "time": params.TimeIndex, "gender": params.Gender}, nil
}

func (stubEngine) ComputeHoroscope(context.Context, enginedomain.ChartData, string, int) (enginedomain.HoroscopeData, error) {
	return nil, enginedomain.ErrHoroscopeUnsupported
}

func execute(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = clock.NewFakeClock(testNow)
	}

	cmd := newRootCommand(deps)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestChartJSONGolden(t *testing.T) {
	out, err := execute(t, Deps{}, "chart", "--solar-date", "2000-8-16", "--time-index", "2", "--gender", "女", "--format", "json")
	require.NoError(t, err)
	golden(t).Assert(t, "chart_json", []byte(out))
}

func TestHoroscopeTextGolden(t *testing.T) {
	out, err := execute(t, Deps{}, "horoscope", "--solar-date", "2000-8-16", "--time-index", "2", "--gender", "female", "--target-date", "2024-1-1")
	require.NoError(t, err)
	golden(t).Assert(t, "horoscope_text", []byte(out))
}

func TestMonthDaysTextGolden(t *testing.T) {
	out, err := execute(t, Deps{}, "month-days", "2023-02")
	require.NoError(t, err)
	golden(t).Assert(t, "month_days_text", []byte(out))
}

func TestChartUsesInjectedEngine(t *testing.T) {
	deps := Deps{Factory: enginedomain.FactoryFunc(func(context.Context) (enginedomain.Engine, error) {
		return stubEngine{}, nil
	})}

	out, err := execute(t, deps, "chart", "--solar-date", "2000-8-16", "--gender", "male", "--format", "json")
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "ok", env["status"])
	assert.Equal(t, "male", env["result"].(map[string]any)["gender"])
}

func TestChartEngineFailurePrintsErrorEnvelope(t *testing.T) {
	deps := Deps{Factory: enginedomain.FactoryFunc(func(context.Context) (enginedomain.Engine, error) {
		return stubEngine{}, nil
	})}

	out, err := execute(t, deps, "chart", "--solar-date", "1999-1-1", "--gender", "male")
	require.ErrorIs(t, err, ErrCalculationFailed)
	assert.Contains(t, out, "status: error")
	assert.Contains(t, out, "engine rejected input")
}

func TestHoroscopeUnsupportedEngineIsPartial(t *testing.T) {
	deps := Deps{Factory: enginedomain.FactoryFunc(func(context.Context) (enginedomain.Engine, error) {
		return stubEngine{}, nil
	})}

	out, err := execute(t, deps, "horoscope", "--solar-date", "2000-8-16", "--gender", "male", "--target-date", "2030-1-1", "--format", "json")
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "partial", env["status"])
	horoscope := env["result"].(map[string]any)["horoscope"].(map[string]any)
	assert.Equal(t, float64(30), horoscope["age"])
}

func TestInvalidInputs(t *testing.T) {
	cases := [][]string{
		{"chart", "--solar-date", "2000-02-30", "--gender", "male"},
		{"chart", "--solar-date", "2000-8-16", "--gender", "unknown"},
		{"chart", "--solar-date", "2000-8-16", "--gender", "male", "--time-index", "13"},
		{"chart", "--solar-date", "2000-8-16", "--gender", "male", "--language", "fr-FR"},
		{"chart", "--solar-date", "2000-8-16", "--gender", "male", "--format", "yaml"},
		{"horoscope", "--solar-date", "2000-8-16", "--gender", "male"},
		{"month-days", "2024-13"},
	}
	for _, args := range cases {
		_, err := execute(t, Deps{}, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"chart", "horoscope", "month-days"} {
		subCmd, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, subCmd.Name())
	}

	require.NotNil(t, cmd.PersistentFlags().Lookup("engine-endpoint"))
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}
