package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IlyasAtabaev731/banking-backend/internal/api"
	"github.com/IlyasAtabaev731/banking-backend/internal/config"
	"github.com/IlyasAtabaev731/banking-backend/internal/services/auth"
	"github.com/IlyasAtabaev731/banking-backend/internal/services/banking"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage/memory"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage/postgres"
	"github.com/shopspring/decimal"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type store interface {
	auth.Storage
	banking.Storage
	Stop() error
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
		slog.String("storage", cfg.Storage),
	)

	seedBalance, err := decimal.NewFromString(cfg.Bank.SeedBalance)
	if err != nil {
		log.Error("Invalid seed balance", "error", err)
		os.Exit(1)
	}

	storage, err := setupStorage(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Stop(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	authService := auth.New(log, storage, auth.Config{
		TokenTTL:    cfg.Auth.TokenTTL,
		RememberTTL: cfg.Auth.RememberTTL,
		BcryptCost:  cfg.Auth.BcryptCost,
		SeedBalance: seedBalance,
	})
	bankingService := banking.New(log, storage)

	apiServer := api.New(cfg, log, authService, bankingService)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
}

func setupStorage(cfg *config.Config) (store, error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New(), nil
	}
	return postgres.New(cfg.Postgres.DSN())
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
