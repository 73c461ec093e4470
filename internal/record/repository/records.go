package repository

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"github.com/smallbiznis/astrolabe/internal/record/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultLanguage = "zh-CN"

type (
	ChartStore     = Store[domain.ChartRecord, domain.ChartKey, domain.ChartChanges]
	HoroscopeStore = Store[domain.HoroscopeRecord, domain.HoroscopeKey, domain.HoroscopeChanges]
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Node    *snowflake.Node
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

func (p Params) deps() Deps {
	return Deps{DB: p.DB, Node: p.Node, Clock: p.Clock, Log: p.Log, Metrics: p.Metrics}
}

func ProvideChartStore(p Params) domain.ChartStore {
	return NewChartStore(p.deps())
}

func ProvideHoroscopeStore(p Params) domain.HoroscopeStore {
	return NewHoroscopeStore(p.deps())
}

func NewChartStore(deps Deps) *ChartStore {
	return NewStore[domain.ChartRecord, domain.ChartKey, domain.ChartChanges]("chart", deps, buildChart)
}

func NewHoroscopeStore(deps Deps) *HoroscopeStore {
	return NewStore[domain.HoroscopeRecord, domain.HoroscopeKey, domain.HoroscopeChanges]("horoscope", deps, buildHoroscope)
}

func buildChart(id snowflake.ID, key domain.ChartKey, changes domain.ChartChanges, actor string, now time.Time) *domain.ChartRecord {
	fixLeap := true
	if changes.FixLeap != nil {
		fixLeap = *changes.FixLeap
	}
	language := defaultLanguage
	if changes.Language != nil && *changes.Language != "" {
		language = *changes.Language
	}

	return &domain.ChartRecord{
		ID:         id,
		SolarDate:  key.SolarDate,
		TimeIndex:  key.TimeIndex,
		Gender:     key.Gender,
		FixLeap:    domain.FixLeapFlag(fixLeap),
		Language:   language,
		Payload:    payloadOrEmpty(changes.Payload),
		CreateUser: actor,
		UpdateUser: actor,
		CreateTime: now,
		UpdateTime: now,
	}
}

func buildHoroscope(id snowflake.ID, key domain.HoroscopeKey, changes domain.HoroscopeChanges, actor string, now time.Time) *domain.HoroscopeRecord {
	return &domain.HoroscopeRecord{
		ID:              id,
		SolarDate:       key.SolarDate,
		TimeIndex:       key.TimeIndex,
		Gender:          key.Gender,
		TargetDate:      key.TargetDate,
		TargetTimeIndex: key.TargetTimeIndex,
		Payload:         payloadOrEmpty(changes.Payload),
		CreateUser:      actor,
		UpdateUser:      actor,
		CreateTime:      now,
		UpdateTime:      now,
	}
}

func payloadOrEmpty(payload datatypes.JSON) datatypes.JSON {
	if len(payload) == 0 {
		return datatypes.JSON("{}")
	}
	return payload
}
