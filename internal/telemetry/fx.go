package telemetry

import (
	"go.uber.org/fx"

	"github.com/Agrim06/TeraFarm/internal/cache"
	"github.com/Agrim06/TeraFarm/internal/telemetry/domain"
	"github.com/Agrim06/TeraFarm/internal/telemetry/service"
)

var Module = fx.Module("telemetry.service",
	fx.Provide(func() cache.Cache[string, domain.SensorReading] {
		return cache.NewTTLCache[string, domain.SensorReading]()
	}),
	fx.Provide(service.NewService),
)
