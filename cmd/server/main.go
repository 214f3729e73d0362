package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/config"
	"github.com/pizzanet/pizza-service/internal/factory"
	"github.com/pizzanet/pizza-service/internal/logging"
	"github.com/pizzanet/pizza-service/internal/server"
	"github.com/pizzanet/pizza-service/internal/storage"
	"github.com/pizzanet/pizza-service/internal/storage/memory"
	"github.com/pizzanet/pizza-service/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init store", zap.Error(err))
	}
	defer closeStore()

	sessions := auth.NewRedisSessions(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer sessions.Close()
	if err := sessions.Ping(ctx); err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}

	factoryClient := factory.NewClient(cfg.FactoryURL, cfg.FactoryAPIKey, cfg.FactoryTimeout, logger.Named("factory"))

	srv := server.New(cfg, logger, store, sessions, factoryClient)
	if err := srv.Auth().Bootstrap(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	go func() {
		logger.Info("pizza service listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		return memory.NewStore(), func() {}, nil
	}
	pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
