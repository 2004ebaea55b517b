package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/clock"
	"github.com/vanigatech/vaniga/internal/config"
	"github.com/vanigatech/vaniga/internal/logger"
	"github.com/vanigatech/vaniga/internal/migration"
	"github.com/vanigatech/vaniga/internal/server"
	"github.com/vanigatech/vaniga/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
