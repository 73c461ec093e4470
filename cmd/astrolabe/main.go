package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/astrolabe/internal/cache"
	"github.com/smallbiznis/astrolabe/internal/chart"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine"
	"github.com/smallbiznis/astrolabe/internal/migration"
	"github.com/smallbiznis/astrolabe/internal/observability"
	"github.com/smallbiznis/astrolabe/internal/record"
	"github.com/smallbiznis/astrolabe/internal/server"
	"github.com/smallbiznis/astrolabe/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		engine.Module,
		cache.Module,
		record.Module,
		chart.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
