package degraded

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNatalPlaceholder(t *testing.T) {
	engine := New(clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	chart, err := engine.ComputeNatal(context.Background(), domain.NatalParams{
		SolarDate: "2000-8-16",
		TimeIndex: 2,
		Gender:    "female",
		FixLeap:   true,
		Language:  "zh-CN",
	})
	require.NoError(t, err)

	assert.Equal(t, 26, chart["age"])
	assert.Contains(t, chart["lunarDate"], "2000-8-16")
	assert.Contains(t, chart["chineseDate"], "2000-8-16")
	assert.Equal(t, "2000-8-16", chart["solarDate"])
	assert.Equal(t, 2, chart["time"])
	assert.Empty(t, chart.MissingFields())
}

func TestComputeNatalIsDeterministic(t *testing.T) {
	engine := New(clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	params := domain.NatalParams{SolarDate: "1990-1-1", TimeIndex: 0, Gender: "male", Language: "en-US"}

	first, err := engine.ComputeNatal(context.Background(), params)
	require.NoError(t, err)
	second, err := engine.ComputeNatal(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first["lunarDate"], "simulated lunar date-")
}

func TestComputeNatalRejectsBadDate(t *testing.T) {
	_, err := New(nil).ComputeNatal(context.Background(), domain.NatalParams{SolarDate: "not-a-date"})
	assert.ErrorIs(t, err, domain.ErrComputation)
}

func TestComputeHoroscopeAge(t *testing.T) {
	engine := New(nil)
	chart := domain.ChartData{"solarDate": "2000-8-16", "time": 2, "gender": "female"}

	horoscope, err := engine.ComputeHoroscope(context.Background(), chart, "2024-01-01", 3)
	require.NoError(t, err)
	assert.Equal(t, 24, horoscope["age"])
	assert.Equal(t, "2024-01-01", horoscope["target_date"])
	assert.Equal(t, 3, horoscope["target_time_index"])
	assert.NotEmpty(t, horoscope["message"])
}

func TestHoroscopeCarriesMessage(t *testing.T) {
	chart := domain.ChartData{"solarDate": "2000-8-16"}
	horoscope, err := Horoscope(chart, "2030-6-1", 0, "engine timeout")
	require.NoError(t, err)
	assert.Equal(t, "engine timeout", horoscope["message"])
	assert.Equal(t, 30, horoscope["age"])
}

func TestHoroscopeNoticeFollowsChartLanguage(t *testing.T) {
	params := domain.NatalParams{SolarDate: "2000-8-16", TimeIndex: 2, Gender: "female", FixLeap: true, Language: "en-US"}
	chart, err := New(clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))).ComputeNatal(context.Background(), params)
	require.NoError(t, err)

	horoscope, err := Horoscope(chart.WithInputs(params), "2024-1-1", 0, "")
	require.NoError(t, err)
	assert.Equal(t, localized["en-US"].horoscope, horoscope["message"])

	horoscope, err = Horoscope(domain.ChartData{"solarDate": "2000-8-16"}, "2024-1-1", 0, "")
	require.NoError(t, err)
	assert.Equal(t, localized["zh-CN"].horoscope, horoscope["message"])
}
