package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/clock"
	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/delivery"
	"github.com/Agrim06/TeraFarm/internal/delivery/backlog"
	"github.com/Agrim06/TeraFarm/internal/migration"
	"github.com/Agrim06/TeraFarm/internal/observability"
	"github.com/Agrim06/TeraFarm/internal/prediction"
	"github.com/Agrim06/TeraFarm/internal/server"
	"github.com/Agrim06/TeraFarm/internal/telemetry"
	"github.com/Agrim06/TeraFarm/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),

		telemetry.Module,
		prediction.Module,
		delivery.Module,
		backlog.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

// RegisterSnowflake builds the process-wide id generator. Each API replica
// must run with a distinct SNOWFLAKE_NODE_ID for ids to stay unique.
func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNodeID)
}
