// Package observability bundles logging, metrics, and tracing wiring.
package observability

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/observability/logger"
	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	"github.com/Agrim06/TeraFarm/internal/observability/tracing"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.LogLevel,
			Environment: cfg.Environment,
		})
	}),
	fx.Provide(metrics.NewMeterProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(func(cfg config.Config) *metrics.ProtocolMetrics {
		return metrics.ProtocolWithConfig(metrics.Config{
			ServiceName: "terafarm-api",
			Environment: cfg.Environment,
		})
	}),
	fx.Invoke(tracing.NewProvider),
)
