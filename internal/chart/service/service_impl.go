package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/astrolabe/internal/cache"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine/degraded"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/internal/observability/logger"
	"github.com/smallbiznis/astrolabe/internal/observability/metrics"
	"github.com/smallbiznis/astrolabe/internal/observability/tracing"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"github.com/smallbiznis/astrolabe/pkg/solardate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	stageNatal     = "natal"
	stageHoroscope = "horoscope"
	stageComplete  = "complete"

	detailDegradedEngine = "degraded calculation engine in use"
	detailUnsupported    = "horoscope unsupported by the calculation engine"
)

// EngineResolver hands out the process engine.
type EngineResolver interface {
	Resolve(ctx context.Context) (enginedomain.Engine, bool)
}

// PolicySource yields the current compute policy.
type PolicySource interface {
	Get() config.ComputePolicy
}

type ServiceParam struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	Engines    EngineResolver
	Policy     PolicySource
	Charts     recorddomain.ChartStore
	Horoscopes recorddomain.HoroscopeStore
	Cache      cache.ChartCache `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	engines    EngineResolver
	policy     PolicySource
	charts     recorddomain.ChartStore
	horoscopes recorddomain.HoroscopeStore
	cache      cache.ChartCache
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	storeDegraded bool
	defaultActor  string

	// degradedKeys holds charts whose horoscope failed after a retry, keyed by
	// chart identity across every target date. Entries are never removed.
	degradedKeys sync.Map
}

func NewService(p ServiceParam) chartdomain.Service {
	return New(p)
}

func New(p ServiceParam) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	chartCache := p.Cache
	if chartCache == nil {
		chartCache = cache.NewNoopChartCache()
	}
	policy := p.Policy
	if policy == nil {
		policy = config.StaticComputePolicy(config.DefaultComputePolicy(p.Config))
	}
	actor := strings.TrimSpace(p.Config.DefaultActor)
	if actor == "" {
		actor = "system"
	}

	return &Service{
		log:           log.Named("chart.service"),
		engines:       p.Engines,
		policy:        policy,
		charts:        p.Charts,
		horoscopes:    p.Horoscopes,
		cache:         chartCache,
		metrics:       p.Metrics,
		tracer:        tracing.Tracer("astrolabe/chart"),
		storeDegraded: p.Config.StoreDegradedArtifacts,
		defaultActor:  actor,
	}
}

func (s *Service) EngineStatus(ctx context.Context) chartdomain.EngineStatus {
	engine, isReal := s.engines.Resolve(ctx)
	return chartdomain.EngineStatus{
		Variant:           engine.Variant(),
		UsingRealEngine:   isReal,
		SupportsHoroscope: engine.SupportsHoroscope(),
	}
}

func (s *Service) ComputeNatal(ctx context.Context, params chartdomain.NatalParams) (enginedomain.ChartData, error) {
	engine, _ := s.engines.Resolve(ctx)
	chart, err := s.computeNatal(ctx, engine, params)
	s.metrics.RecordComputation(ctx, stageNatal, string(engine.Variant()), statusOf(err))
	return chart, err
}

func (s *Service) ComputeHoroscope(ctx context.Context, chart enginedomain.ChartData, targetDate string, targetTimeIndex int) (chartdomain.Horoscope, error) {
	engine, _ := s.engines.Resolve(ctx)
	horoscope, err := s.computeHoroscope(ctx, engine, chart, targetDate, targetTimeIndex)
	status := statusOf(err)
	if err == nil && horoscope.Degraded {
		status = string(chartdomain.StatusPartial)
	}
	s.metrics.RecordComputation(ctx, stageHoroscope, string(engine.Variant()), status)
	return horoscope, err
}

func (s *Service) ComputeComplete(ctx context.Context, params chartdomain.HoroscopeParams) chartdomain.Outcome {
	engine, _ := s.engines.Resolve(ctx)
	out := s.computeComplete(ctx, engine, params)
	s.metrics.RecordComputation(ctx, stageComplete, string(engine.Variant()), string(out.Status))
	return out
}

func (s *Service) Natal(ctx context.Context, params chartdomain.NatalParams, actor string) chartdomain.Outcome {
	engine, isReal := s.engines.Resolve(ctx)

	chart, err := s.computeNatal(ctx, engine, params)
	if err != nil {
		out := chartdomain.Failed(err)
		out.Variant = engine.Variant()
		s.metrics.RecordComputation(ctx, stageNatal, string(out.Variant), string(out.Status))
		return out
	}

	out := chartdomain.OK(chart, nil)
	out.Variant = engine.Variant()
	if isReal || s.storeDegraded {
		out.ChartID = s.saveChart(ctx, params, chart, s.actor(actor))
	}
	s.metrics.RecordComputation(ctx, stageNatal, string(out.Variant), string(out.Status))
	return out
}

func (s *Service) Complete(ctx context.Context, params chartdomain.HoroscopeParams, actor string) chartdomain.Outcome {
	engine, isReal := s.engines.Resolve(ctx)

	out := s.computeComplete(ctx, engine, params)
	if out.Status != chartdomain.StatusError {
		actor = s.actor(actor)
		if isReal || s.storeDegraded {
			out.ChartID = s.saveChart(ctx, params.Natal, out.Natal, actor)
		}
		if (isReal && out.Status == chartdomain.StatusOK) || s.storeDegraded {
			out.HoroscopeID = s.saveHoroscope(ctx, params, out.Horoscope, actor)
		}
	}
	s.metrics.RecordComputation(ctx, stageComplete, string(out.Variant), string(out.Status))
	return out
}

func (s *Service) computeComplete(ctx context.Context, engine enginedomain.Engine, params chartdomain.HoroscopeParams) chartdomain.Outcome {
	chart, err := s.computeNatal(ctx, engine, params.Natal)
	if err != nil {
		out := chartdomain.Failed(err)
		out.Complete = true
		out.Variant = engine.Variant()
		return out
	}

	// The horoscope sees the request's birth inputs; the returned natal stays as the engine built it.
	stamped := chart.WithInputs(params.Natal)

	var out chartdomain.Outcome
	horoscope, err := s.computeHoroscope(ctx, engine, stamped, params.TargetDate, params.TargetTimeIndex)
	switch {
	case err != nil:
		out = chartdomain.Partial(chart, fallbackHoroscope(stamped, params.TargetDate, params.TargetTimeIndex, err), err.Error())
	case horoscope.Degraded:
		out = chartdomain.Partial(chart, horoscope.Data, horoscope.Detail)
	default:
		out = chartdomain.OK(chart, horoscope.Data)
	}
	out.Complete = true
	out.Variant = engine.Variant()
	return out
}

func (s *Service) computeNatal(ctx context.Context, engine enginedomain.Engine, params chartdomain.NatalParams) (enginedomain.ChartData, error) {
	key, cacheable := chartCacheKey(engine.Variant(), params)
	if cacheable {
		if chart, ok := s.cache.Get(ctx, key); ok {
			return chart, nil
		}
	}

	log := logger.WithChartKey(logger.WithContext(ctx, s.log), params.SolarDate, params.TimeIndex, params.Gender)

	var chart enginedomain.ChartData
	err := s.invoke(ctx, log, stageNatal, engine, func(ctx context.Context) error {
		var err error
		chart, err = engine.ComputeNatal(ctx, params)
		return err
	})
	if err == nil && chart == nil {
		err = fmt.Errorf("%w: engine returned no chart", enginedomain.ErrComputation)
	}
	if err != nil {
		log.Warn("natal computation failed", zap.String("variant", string(engine.Variant())), zap.Error(err))
		return nil, err
	}

	if cacheable {
		s.cache.Set(ctx, key, chart)
	}
	return chart, nil
}

func (s *Service) computeHoroscope(ctx context.Context, engine enginedomain.Engine, chart enginedomain.ChartData, targetDate string, targetTimeIndex int) (chartdomain.Horoscope, error) {
	if missing := chart.MissingFields(); len(missing) > 0 {
		return chartdomain.Horoscope{}, fmt.Errorf("%w: %s", chartdomain.ErrMissingField, strings.Join(missing, ", "))
	}

	solarDate, _ := chart.SolarDate()
	timeIndex, _ := chart.TimeIndex()
	gender, _ := chart.Gender()
	log := logger.WithChartKey(logger.WithContext(ctx, s.log), solarDate, timeIndex, gender)

	if engine.Variant() == enginedomain.VariantDegraded {
		var data enginedomain.HoroscopeData
		err := s.invoke(ctx, log, stageHoroscope, engine, func(ctx context.Context) error {
			var err error
			data, err = engine.ComputeHoroscope(ctx, chart, targetDate, targetTimeIndex)
			return err
		})
		if err != nil {
			return chartdomain.Horoscope{}, err
		}
		return chartdomain.Horoscope{Data: data, Degraded: true, Detail: detailDegradedEngine}, nil
	}

	if !engine.SupportsHoroscope() {
		return derivedHoroscope(chart, targetDate, targetTimeIndex, detailUnsupported)
	}

	memoKey := degradeKey(solarDate, timeIndex, gender)
	if detail, marked := s.degradedKeys.Load(memoKey); marked {
		return derivedHoroscope(chart, targetDate, targetTimeIndex, detail.(string))
	}

	attempts := 1
	if s.policy.Get().RetryHoroscope {
		attempts = 2
	}

	var (
		data enginedomain.HoroscopeData
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.invoke(ctx, log, stageHoroscope, engine, func(ctx context.Context) error {
			var callErr error
			data, callErr = engine.ComputeHoroscope(ctx, chart, targetDate, targetTimeIndex)
			return callErr
		})
		if err == nil && data != nil {
			return chartdomain.Horoscope{Data: data}, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: engine returned no horoscope", enginedomain.ErrComputation)
		}
		log.Warn("horoscope computation failed",
			zap.Int("attempt", attempt),
			zap.String("target_date", targetDate),
			zap.Error(err),
		)
	}

	stored, loaded := s.degradedKeys.LoadOrStore(memoKey, fmt.Sprintf("horoscope calculation failed: %v", err))
	if !loaded {
		log.Warn("horoscope degraded for chart until restart")
	}
	return derivedHoroscope(chart, targetDate, targetTimeIndex, stored.(string))
}

// invoke runs one engine call inside a span. Panics become ErrComputation and
// calls over the slow threshold are logged and counted.
func (s *Service) invoke(ctx context.Context, log *zap.Logger, stage string, engine enginedomain.Engine, call func(ctx context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "engine."+stage, trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("engine.variant", string(engine.Variant())),
	)...))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: engine panicked: %v", enginedomain.ErrComputation, r)
		}
		elapsed := time.Since(start)

		s.metrics.RecordEngineCall(ctx, stage, string(engine.Variant()), elapsed)
		if threshold := s.policy.Get().SlowThreshold; threshold > 0 && elapsed > threshold {
			s.metrics.RecordSlowCall(ctx, stage)
			log.Warn("slow engine call",
				zap.String("stage", stage),
				zap.Duration("elapsed", elapsed),
				zap.Duration("threshold", threshold),
			)
		}

		if err != nil {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, stage+" failed")
		}
		span.End()
	}()

	if err := call(ctx); err != nil {
		if errors.Is(err, enginedomain.ErrComputation) || errors.Is(err, enginedomain.ErrHoroscopeUnsupported) {
			return err
		}
		return fmt.Errorf("%w: %v", enginedomain.ErrComputation, err)
	}
	return nil
}

func (s *Service) saveChart(ctx context.Context, params chartdomain.NatalParams, chart enginedomain.ChartData, actor string) snowflake.ID {
	if s.charts == nil {
		return 0
	}
	log := logger.WithChartKey(logger.WithContext(ctx, s.log), params.SolarDate, params.TimeIndex, params.Gender)

	key, err := recorddomain.NewChartKey(params.SolarDate, params.TimeIndex, params.Gender)
	if err != nil {
		log.Warn("chart not persisted", zap.Error(err))
		return 0
	}
	payload, err := json.Marshal(chart)
	if err != nil {
		log.Warn("chart not persisted", zap.Error(err))
		return 0
	}

	fixLeap, language := params.FixLeap, params.Language
	id, err := s.charts.Upsert(ctx, key, recorddomain.ChartChanges{
		FixLeap:  &fixLeap,
		Language: &language,
		Payload:  datatypes.JSON(payload),
	}, actor)
	if err != nil {
		log.Error("persist chart failed", zap.Error(err))
		return 0
	}
	return id
}

func (s *Service) saveHoroscope(ctx context.Context, params chartdomain.HoroscopeParams, horoscope enginedomain.HoroscopeData, actor string) snowflake.ID {
	if s.horoscopes == nil {
		return 0
	}
	natal := params.Natal
	log := logger.WithChartKey(logger.WithContext(ctx, s.log), natal.SolarDate, natal.TimeIndex, natal.Gender)

	chartKey, err := recorddomain.NewChartKey(natal.SolarDate, natal.TimeIndex, natal.Gender)
	if err != nil {
		log.Warn("horoscope not persisted", zap.Error(err))
		return 0
	}
	key, err := recorddomain.NewHoroscopeKey(chartKey, params.TargetDate, params.TargetTimeIndex)
	if err != nil {
		log.Warn("horoscope not persisted", zap.Error(err))
		return 0
	}
	payload, err := json.Marshal(horoscope)
	if err != nil {
		log.Warn("horoscope not persisted", zap.Error(err))
		return 0
	}

	id, err := s.horoscopes.Upsert(ctx, key, recorddomain.HoroscopeChanges{Payload: datatypes.JSON(payload)}, actor)
	if err != nil {
		log.Error("persist horoscope failed", zap.Error(err))
		return 0
	}
	return id
}

func (s *Service) actor(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return s.defaultActor
}

func derivedHoroscope(chart enginedomain.ChartData, targetDate string, targetTimeIndex int, detail string) (chartdomain.Horoscope, error) {
	data, err := degraded.Horoscope(chart, targetDate, targetTimeIndex, detail)
	if err != nil {
		return chartdomain.Horoscope{}, err
	}
	return chartdomain.Horoscope{Data: data, Degraded: true, Detail: detail}, nil
}

// fallbackHoroscope is the minimal projection attached to a partial outcome.
func fallbackHoroscope(chart enginedomain.ChartData, targetDate string, targetTimeIndex int, cause error) enginedomain.HoroscopeData {
	data := enginedomain.HoroscopeData{
		"target_date":       targetDate,
		"target_time_index": targetTimeIndex,
		"error":             cause.Error(),
		"message":           "horoscope calculation failed, basic information only",
	}
	if age, err := degraded.Age(chart, targetDate); err == nil {
		data["age"] = age
	}
	return data
}

func chartCacheKey(variant enginedomain.Variant, params chartdomain.NatalParams) (cache.ChartKey, bool) {
	key, err := recorddomain.NewChartKey(params.SolarDate, params.TimeIndex, params.Gender)
	if err != nil {
		return cache.ChartKey{}, false
	}
	return cache.ChartKey{
		Variant:   variant,
		SolarDate: key.SolarDate,
		TimeIndex: key.TimeIndex,
		Gender:    key.Gender,
		FixLeap:   params.FixLeap,
		Language:  params.Language,
	}, true
}

func degradeKey(solarDate string, timeIndex int, gender string) string {
	if key, err := recorddomain.NewChartKey(solarDate, timeIndex, gender); err == nil {
		return fmt.Sprintf("%s|%d|%s", key.SolarDate, key.TimeIndex, key.Gender)
	}
	if compact, err := solardate.Compact(solarDate); err == nil {
		solarDate = compact
	}
	return fmt.Sprintf("%s|%d|%s", solarDate, timeIndex, strings.TrimSpace(gender))
}

func statusOf(err error) string {
	if err != nil {
		return string(chartdomain.StatusError)
	}
	return string(chartdomain.StatusOK)
}
