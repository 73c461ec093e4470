// Package degraded provides the deterministic placeholder engine used when the
// real calculation engine cannot be constructed.
package degraded

import (
	"context"
	"fmt"

	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/pkg/solardate"
)

type labels struct {
	lunarDate   string
	chineseDate string
	timeRange   string
	natal       string
	horoscope   string
}

var localized = map[string]labels{
	"zh-CN": {
		lunarDate:   "模拟农历日期-",
		chineseDate: "模拟中文日期-",
		timeRange:   "模拟时辰范围-",
		natal:       "注意：这是模拟数据，计算引擎不可用",
		horoscope:   "注意：这是模拟数据，无法获取完整大限流年信息",
	},
	"zh-TW": {
		lunarDate:   "模擬農曆日期-",
		chineseDate: "模擬中文日期-",
		timeRange:   "模擬時辰範圍-",
		natal:       "注意：這是模擬資料，計算引擎不可用",
		horoscope:   "注意：這是模擬資料，無法取得完整大限流年資訊",
	},
	"en-US": {
		lunarDate:   "simulated lunar date-",
		chineseDate: "simulated chinese date-",
		timeRange:   "simulated time range-",
		natal:       "note: placeholder data, the calculation engine is unavailable",
		horoscope:   "note: placeholder data, the full horoscope is unavailable",
	},
}

func labelsFor(language string) labels {
	if l, ok := localized[language]; ok {
		return l
	}
	return localized["zh-CN"]
}

// Engine answers every request with placeholder data derived from its inputs.
type Engine struct {
	clock clock.Clock
}

func New(clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Engine{clock: clk}
}

func (e *Engine) Variant() domain.Variant { return domain.VariantDegraded }

func (e *Engine) SupportsHoroscope() bool { return true }

func (e *Engine) ComputeNatal(_ context.Context, params domain.NatalParams) (domain.ChartData, error) {
	birth, err := solardate.Parse(params.SolarDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrComputation, err)
	}

	l := labelsFor(params.Language)
	return domain.ChartData{
		"gender":      params.Gender,
		"solarDate":   params.SolarDate,
		"lunarDate":   l.lunarDate + params.SolarDate,
		"chineseDate": l.chineseDate + params.SolarDate,
		"time":        params.TimeIndex,
		"timeRange":   fmt.Sprintf("%s%d", l.timeRange, params.TimeIndex),
		"age":         e.clock.Now().Year() - birth.Year,
		"message":     l.natal,
		"palaces":     []any{},
	}, nil
}

func (e *Engine) ComputeHoroscope(_ context.Context, chart domain.ChartData, targetDate string, targetTimeIndex int) (domain.HoroscopeData, error) {
	return Horoscope(chart, targetDate, targetTimeIndex, "")
}

// Horoscope derives the placeholder projection of chart for the target date.
// An empty message selects the default notice.
func Horoscope(chart domain.ChartData, targetDate string, targetTimeIndex int, message string) (domain.HoroscopeData, error) {
	age, err := Age(chart, targetDate)
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = labelsFor(chart.Language()).horoscope
	}

	return domain.HoroscopeData{
		"target_date":       targetDate,
		"target_time_index": targetTimeIndex,
		"age":               age,
		"message":           message,
		"horoscope_data":    []any{},
	}, nil
}

// Age is the target year minus the birth year of chart.
func Age(chart domain.ChartData, targetDate string) (int, error) {
	solar, ok := chart.SolarDate()
	if !ok {
		return 0, fmt.Errorf("%w: chart has no %s", domain.ErrComputation, domain.FieldSolarDate)
	}
	birth, err := solardate.Parse(solar)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrComputation, err)
	}
	target, err := solardate.Parse(targetDate)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrComputation, err)
	}
	return target.Year - birth.Year, nil
}
