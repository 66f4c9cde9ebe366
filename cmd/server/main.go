package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/votingroom/internal/api"
	"github.com/mcoot/votingroom/internal/api/middleware"
	"github.com/mcoot/votingroom/internal/config"
	"github.com/mcoot/votingroom/internal/factory"
	"github.com/mcoot/votingroom/internal/services/order"
	"github.com/mcoot/votingroom/internal/services/room"
	redisstorage "github.com/mcoot/votingroom/internal/storage/redis"
)

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, run).Execute())
}

func run(ctx context.Context, cfg *config.Config) error {
	// Set up logging with JSON output
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	mode, err := order.ParseMode(cfg.OrderMode)
	if err != nil {
		return err
	}

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		StoreConfig: room.StoreConfig{
			Shards:        cfg.Shards,
			RoomTTL:       cfg.RoomTTL,
			SweepInterval: cfg.SweepInterval,
		},
		MinPlayers:  cfg.MinPlayers,
		OrderMode:   mode,
		OrderSecret: []byte(cfg.OrderSecret),
	}

	// Configure Redis if storage type is redis
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.RoomTTL = cfg.RoomTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		Hubs:           app.Hubs,
		RateLimiter: middleware.NewLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.RateBurst,
		}, app.Clock),
		AllowedOrigin: cfg.CORSOrigin,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	server.OnShutdown(app.Hubs.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Evict idle rooms and unwatched event hubs in the background
	go app.RoomStore.Run(ctx)
	go app.Hubs.Run(ctx, app.Clock, cfg.SweepInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
		slog.String("order_mode", string(mode)),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
