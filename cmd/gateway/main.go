package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/brpag/gateway/internal/asaas"
	"github.com/brpag/gateway/internal/clock"
	"github.com/brpag/gateway/internal/config"
	"github.com/brpag/gateway/internal/customer"
	"github.com/brpag/gateway/internal/migration"
	"github.com/brpag/gateway/internal/observability/logger"
	"github.com/brpag/gateway/internal/observability/metrics"
	"github.com/brpag/gateway/internal/observability/tracing"
	"github.com/brpag/gateway/internal/payment"
	"github.com/brpag/gateway/internal/server"
	"github.com/brpag/gateway/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		clock.Module,
		customer.Module,
		asaas.Module,
		payment.Module,
		server.Module,
	)
	app.Run()
}
