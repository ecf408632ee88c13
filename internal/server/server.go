// Package server exposes the HTTP surface: telemetry ingestion, the
// prediction delivery protocol, and the dashboard's read-only views.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/delivery"
	"github.com/Agrim06/TeraFarm/internal/observability/logger"
	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	"github.com/Agrim06/TeraFarm/internal/observability/tracing"
	predictiondomain "github.com/Agrim06/TeraFarm/internal/prediction/domain"
	telemetrydomain "github.com/Agrim06/TeraFarm/internal/telemetry/domain"
)

type ServerParam struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Engine  *gin.Engine
	Metrics *metrics.HTTPMetrics      `optional:"true"`
	Expose  metrics.ExpositionHandler `optional:"true"`

	TelemetrySvc  telemetrydomain.Service
	PredictionSvc predictiondomain.Service
	DeliverySvc   *delivery.Service
}

type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	engine      *gin.Engine
	httpMetrics *metrics.HTTPMetrics
	exposition  metrics.ExpositionHandler

	telemetrySvc  telemetrydomain.Service
	predictionSvc predictiondomain.Service
	deliverySvc   *delivery.Service
}

// NewEngine builds the gin engine with the ambient middleware stack.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(CORSMiddleware())
	engine.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}))
	engine.Use(tracing.GinMiddleware())
	return engine
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg: p.Config,
		log: p.Log.Named("server"),
		db:  p.DB,

		engine: p.Engine,

		httpMetrics: p.Metrics,
		exposition:  p.Expose,

		telemetrySvc:  p.TelemetrySvc,
		predictionSvc: p.PredictionSvc,
		deliverySvc:   p.DeliverySvc,
	}
}

// RegisterAPIRoutes attaches every route to the engine.
func (s *Server) RegisterAPIRoutes() {
	engine := s.engine

	if s.httpMetrics != nil {
		engine.Use(metrics.GinMiddleware(s.httpMetrics))
	}

	engine.GET("/health", s.Health)
	if s.exposition != nil {
		engine.GET("/metrics", gin.WrapH(s.exposition))
	}

	api := engine.Group("/api")
	{
		api.POST("/sensors/data", s.IngestReading)
		api.GET("/sensors/latest", s.LatestReading)
		api.GET("/sensors", s.ReadingHistory)

		api.POST("/prediction/:deviceId", s.IssuePrediction)
		api.GET("/prediction/:deviceId", s.FetchActivePrediction)
		api.POST("/prediction/mark-used/:deviceId", s.AcknowledgePrediction)

		api.GET("/predictions/latest", s.LatestPrediction)
		api.GET("/predictions", s.PredictionHistory)
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			s.log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
