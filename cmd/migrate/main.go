package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/config"
	"github.com/shinyyama/order-progress-backend/internal/db"
	"github.com/shinyyama/order-progress-backend/internal/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zl := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = zl.Sync() }()

	if cfg.ProgressBackend == "pebble" {
		zl.Info("pebble backend needs no migration", zap.String("dir", cfg.PebbleDir))
		return nil
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	zl.Info("migration complete", zap.String("driver", cfg.DBDriver))
	return nil
}
