package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/observability"
	obslogger "github.com/smallbiznis/astrolabe/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/astrolabe/internal/observability/metrics"
	obstracing "github.com/smallbiznis/astrolabe/internal/observability/tracing"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

const welcomeMessage = "welcome to the astrolabe chart service"

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		LogProbes:       obsCfg.Log.Probes,
		ActorHeader:     HeaderActor,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	clock      clock.Clock
	chartSvc   chartdomain.Service
	charts     recorddomain.ChartStore
	horoscopes recorddomain.HoroscopeStore
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	ChartSvc   chartdomain.Service
	Charts     recorddomain.ChartStore
	Horoscopes recorddomain.HoroscopeStore
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http"),
		clock:      p.Clock,
		chartSvc:   p.ChartSvc,
		charts:     p.Charts,
		horoscopes: p.Horoscopes,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/test", s.EngineStatus)

	astro := api.Group("/astro")
	{
		astro.GET("/by_solar", s.NatalByQuery)
		astro.POST("/by_solar", s.NatalByBody)
		astro.GET("/horoscope", s.HoroscopeByQuery)
		astro.POST("/horoscope", s.HoroscopeByBody)
	}

	records := astro.Group("/records")
	{
		records.GET("/charts", s.ChartExists)
		records.PUT("/charts", s.UpsertChart)
		records.GET("/charts/:id", s.GetChart)
		records.GET("/horoscopes", s.HoroscopeExists)
		records.PUT("/horoscopes", s.UpsertHoroscope)
		records.GET("/horoscopes/:id", s.GetHoroscope)
	}

	calendar := api.Group("/calendar")
	{
		calendar.GET("/month_days", s.MonthDaysByQuery)
		calendar.POST("/month_days", s.MonthDaysByBody)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
