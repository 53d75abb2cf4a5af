// Package main is the entry point for the regions API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/georegions/regions/internal/cache"
	"github.com/georegions/regions/internal/config"
	"github.com/georegions/regions/internal/database"
	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/handlers"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/repository"
	"github.com/georegions/regions/internal/server"
	"github.com/georegions/regions/internal/services"
	"github.com/georegions/regions/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// storage is an opened region backend.
type storage struct {
	repo    repository.RegionRepository
	closers []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel, logger.WithFormat(cfg.App.LogFormat))
	log.Info("starting regions api",
		"env", cfg.App.Env,
		"storage", cfg.Storage.Type,
		"redis", cfg.RedisEnabled(),
		"locale", cfg.Regions.Locale,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	messages, err := cfg.Messages()
	if err != nil {
		return err
	}
	svc := services.NewRegionService(store.repo, query.NewParser(cfg.Rules(), messages))

	srv := server.New(cfg, log)
	srv.SetRegionHandler(handlers.NewRegionHandler(svc, log))
	srv.HealthHandler().AddCheck("storage", store.repo.HealthCheck)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// openStorage opens the configured backend, applies migrations and seeds the
// reference dataset. When Redis is enabled the backend is wrapped in a page
// cache, which is flushed after seeding.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	store := &storage{}

	switch cfg.Storage.Type {
	case config.StoragePostgres:
		pool, err := database.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, pool.Close)

		migrations, err := database.PostgresMigrations()
		if err != nil {
			store.close()
			return nil, err
		}
		if err := migrate(ctx, database.NewMigrator(pool, migrations), log); err != nil {
			store.close()
			return nil, err
		}

		repo := repository.NewPostgresRegionRepository(pool)
		if err := seed(ctx, repo, log); err != nil {
			store.close()
			return nil, err
		}
		store.repo = repo

	case config.StorageSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, func() { _ = db.Close() })

		migrations, err := database.SQLiteMigrations()
		if err != nil {
			store.close()
			return nil, err
		}
		if err := migrate(ctx, database.NewSQLiteMigrator(db, migrations), log); err != nil {
			store.close()
			return nil, err
		}

		repo := repository.NewSQLiteRegionRepository(db)
		if err := seed(ctx, repo, log); err != nil {
			store.close()
			return nil, err
		}
		store.repo = repo

	default:
		regions, err := fixtures.Regions()
		if err != nil {
			return nil, err
		}
		store.repo = repository.NewMemoryRegionRepository(regions)
	}

	if !cfg.RedisEnabled() {
		return store, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, &cfg.Redis)
	if err != nil {
		store.close()
		return nil, err
	}
	store.closers = append(store.closers, func() { _ = redisCache.Close() })

	cached := repository.NewCachedRegionRepository(
		store.repo,
		cache.NewPageCache(redisCache, cache.DefaultPagePrefix, cfg.Regions.CacheTTL),
		log,
	)
	if err := cached.Invalidate(ctx); err != nil {
		log.Warn("failed to flush page cache", "error", err)
	}
	store.repo = cached

	return store, nil
}

func migrate(ctx context.Context, m *database.Migrator, log *logger.Logger) error {
	n, err := m.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("migrations applied", "count", n, "version", version)
	return nil
}

func seed(ctx context.Context, imp repository.Importer, log *logger.Logger) error {
	n, err := services.SeedRegions(ctx, imp)
	if err != nil {
		return err
	}
	log.Info("regions seeded", "inserted", n)
	return nil
}
