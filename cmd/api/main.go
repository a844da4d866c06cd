package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/config"
	"github.com/shinyyama/order-progress-backend/internal/db"
	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/metrics"
	"github.com/shinyyama/order-progress-backend/internal/repository"
	"github.com/shinyyama/order-progress-backend/internal/server"
	"github.com/shinyyama/order-progress-backend/internal/service"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
)

// Set with -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
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

	if !cfg.HasRemote() {
		zl.Warn("WooCommerce credentials are not configured; remote operations will fail",
			zap.Bool("base_url", cfg.WCBaseURL != ""),
			zap.Bool("consumer_key", cfg.WCConsumerKey != ""),
			zap.Bool("consumer_secret", cfg.WCConsumerSecret != ""))
	}

	m := metrics.NewRegistry()
	client := woocommerce.New(woocommerce.Config{
		BaseURL:        cfg.WCBaseURL,
		ConsumerKey:    cfg.WCConsumerKey,
		ConsumerSecret: cfg.WCConsumerSecret,
		Timeout:        cfg.RemoteTimeout,
		Metrics:        m,
	})

	repo, closeRepo, err := openProgress(cfg, zl)
	if err != nil {
		return err
	}
	defer closeRepo()

	srv := server.New(server.Deps{
		Logger:         zl,
		Metrics:        m,
		Orders:         service.NewOrderService(client, repo, m),
		Progress:       service.NewProgressService(client, repo, m),
		OperatorToken:  cfg.OperatorToken,
		AllowedOrigins: cfg.AllowedOrigins,
		GitSHA:         gitSHA,
		BuildTime:      buildTime,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// openProgress picks the progress store named by PROGRESS_BACKEND.
func openProgress(cfg *config.Config, zl *zap.Logger) (repository.ProgressRepository, func(), error) {
	switch cfg.ProgressBackend {
	case "pebble":
		repo, err := repository.NewPebbleProgressRepository(cfg.PebbleDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open pebble: %w", err)
		}
		zl.Info("progress store ready", zap.String("backend", "pebble"), zap.String("dir", cfg.PebbleDir))
		return repo, func() { _ = repo.Close() }, nil
	case "", "gorm":
		conn, err := db.Connect(cfg)
		if err != nil {
			// Serve anyway; progress calls report persistence_unavailable.
			zl.Error("db connect failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
			return repository.NewProgressRepository(nil), func() {}, nil
		}
		if err := db.Migrate(conn); err != nil {
			zl.Error("auto migrate failed", zap.Error(err))
		}
		zl.Info("progress store ready", zap.String("backend", "gorm"), zap.String("driver", cfg.DBDriver))
		closeDB := func() {
			if sqlDB, err := conn.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewProgressRepository(conn), closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unsupported PROGRESS_BACKEND %q", cfg.ProgressBackend)
	}
}
