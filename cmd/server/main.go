package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/config"
	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/server"
	"github.com/hongminglow/backoffice/internal/storage"
	"github.com/hongminglow/backoffice/internal/storage/memory"
	"github.com/hongminglow/backoffice/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init storage", zap.Error(err))
	}
	defer closeStore()

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("backoffice backend listening", zap.String("addr", cfg.HTTPAddress()), zap.String("storage", cfg.Storage))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Server) (storage.Store, func(), error) {
	var tenants []storage.Tenant
	if cfg.SeedDemo {
		var err error
		tenants, err = storage.DemoTenants(cfg.DemoPassword)
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.Storage == "memory" {
		return memory.New(tenants...), func() {}, nil
	}
	pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if len(tenants) > 0 {
		if err := pg.Seed(ctx, tenants); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return pg, pg.Close, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
