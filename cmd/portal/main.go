package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetcrumb/bakery-portal/internal/api"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
	"github.com/sweetcrumb/bakery-portal/internal/core/service"
	"github.com/sweetcrumb/bakery-portal/internal/infrastructure/backend"
	"github.com/sweetcrumb/bakery-portal/internal/infrastructure/config"
	"github.com/sweetcrumb/bakery-portal/internal/infrastructure/storage"
	"github.com/sweetcrumb/bakery-portal/internal/notify"
	"github.com/sweetcrumb/bakery-portal/pkg/logger"
)

const restoreTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialising session store")
	}

	gateway := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, store, log)

	notices := notify.NewCenter(0, log)
	go notices.DrainToLog(ctx)

	sessions := service.NewSessionController(store, gateway, notices, log)
	gateway.OnUnauthorized(sessions.Invalidate)

	// Startup restoration: resolve the persisted session before traffic is
	// served, so the guard only ever defers during this window.
	restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
	state := sessions.Restore(restoreCtx)
	cancel()
	log.Info().Stringer("state", state).Msg("session restoration complete")

	e := api.NewRouter(sessions, gateway, log)

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("addr", cfg.ListenAddr).Str("backend", cfg.Backend.BaseURL).Msg("bakery portal listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.SessionStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		client, err := storage.Connect(ctx, storage.RedisConfig{
			Addr: cfg.Store.Redis.Addr,
			DB:   cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Store.Redis.Addr).Msg("using redis session store")
		return storage.NewRedisStore(client), nil
	default:
		log.Info().Str("dir", cfg.Store.StateDir).Msg("using file session store")
		return storage.NewFileStore(cfg.Store.StateDir)
	}
}
