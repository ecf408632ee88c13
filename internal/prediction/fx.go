package prediction

import (
	"go.uber.org/fx"

	"github.com/Agrim06/TeraFarm/internal/prediction/service"
)

var Module = fx.Module("prediction.service",
	fx.Provide(service.NewService),
)
