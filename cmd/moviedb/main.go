package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/config"
	"github.com/mantonx/moviedb/internal/database"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/modules/moviemodule"
	"github.com/mantonx/moviedb/internal/server"
)

func main() {
	configPath := os.Getenv("MOVIEDB_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("./moviedb.yaml"); err == nil {
			configPath = "./moviedb.yaml"
		}
	}

	if err := config.Load(configPath); err != nil {
		log.Fatalf("Failed to load configuration from %q: %v", configPath, err)
	}
	cfg := config.Get()

	logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	config.AddWatcher(func(oldConfig, newConfig *config.Config) {
		if oldConfig.Logging.Level != newConfig.Logging.Level {
			logger.SetLevel(newConfig.Logging.Level)
		}
	})
	if configPath != "" {
		logger.Info("Configuration loaded", "path", configPath)
	} else {
		logger.Info("Using default configuration")
	}

	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		if err := config.GetConfigManager().Watch(ctx); err != nil {
			logger.Warn("Config hot reload disabled", "error", err)
		}
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := moviemodule.NewModule(db, nil).Migrate(); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	router := server.SetupRouter(db, server.RouterOptions{})
	if err := server.New(cfg.Server, router).Run(ctx); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
