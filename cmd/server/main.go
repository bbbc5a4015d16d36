package main

import (
	"github.com/OFFIS-RIT/inventory-sync/internal/config"
	"github.com/OFFIS-RIT/inventory-sync/internal/server"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	server.Init(cfg)
}
