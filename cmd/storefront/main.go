package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/api"
	"github.com/egcartridge/storefront/internal/config"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/localstore"
	"github.com/egcartridge/storefront/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open local store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer closeBackend()

	store := localstore.New(backend, logger)
	store.Subscribe(func(key string) {
		logger.Debug("Local state changed", zap.String("key", key))
	})

	svc := api.NewServices(cfg, store, logger)
	defer svc.Close()
	svc.Bus.Subscribe(events.SessionChanged, func() {
		logger.Info("Session changed", zap.Bool("authenticated", svc.Resolver.IsAuthenticated(ctx)))
	})
	svc.Catalog.Preload(ctx)

	router := api.NewRouter(cfg, svc, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting storefront",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("store_backend", cfg.Store.Backend),
			zap.Bool("merge_on_login", cfg.Cart.MergeOnLogin),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Environment != "production" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

// openBackend connects the configured local state backend. The returned
// func releases its connection.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (localstore.Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return localstore.NewRedis(client, cfg.Redis.Prefix), func() { client.Close() }, nil

	case config.StoreBackendPostgres:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewLocalStateRepository(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	default:
		f, err := localstore.NewFile(cfg.Store.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}
