package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/migration"
	"github.com/smallbiznis/cicilan/internal/observability"
	"github.com/smallbiznis/cicilan/internal/scheduler"
	"github.com/smallbiznis/cicilan/internal/server"
	"github.com/smallbiznis/cicilan/pkg/db"
	"go.uber.org/fx"
)

func main() {
	// Rupiah amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP API and every domain module behind it
		server.Module,

		// Background jobs
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
