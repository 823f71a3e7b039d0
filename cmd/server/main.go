package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/cache"
	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/db"
	"github.com/oggyb/imperfect/internal/logger"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/server"
	"github.com/oggyb/imperfect/internal/service/discovery"
	"github.com/oggyb/imperfect/internal/service/matching"
	"github.com/oggyb/imperfect/internal/service/profile"
	"github.com/oggyb/imperfect/internal/service/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	defer logger.Close()
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		session.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		var users int64
		if err := database.Model(&db.User{}).Count(&users).Error; err != nil {
			log.Error("failed to count users", "err", err)
		} else if users == 0 {
			if err := db.SeedTestData(database, 0); err != nil {
				log.Error("failed to seed", "err", err)
			}
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.StartGRPCServer(groupCtx, appCtx, registrars...)
	})

	if cfg.Metrics.Enabled {
		group.Go(func() error {
			log.Info("metrics listening", "addr", cfg.Metrics.Addr)
			return metrics.Serve(groupCtx, cfg.Metrics.Addr)
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
