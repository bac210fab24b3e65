package entrypoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/database/importruns"
	"github.com/newtechs/backend/internal/feed"
	"github.com/newtechs/backend/internal/importers"
	"github.com/newtechs/backend/internal/lock"
)

// App holds the components shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database *database.Database
	Locker   lock.Locker
	Importer *importers.BloggerImporter

	redis *redis.Client
}

// NewApp opens the database and builds the Blogger importer. The import
// lock is held in Redis when REDIS_URL is set and in process otherwise.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Database: db}

	if cfg.Redis.URL != "" {
		client, err := lock.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			db.Close()
			return nil, err
		}
		app.redis = client
		app.Locker = lock.NewRedis(client, cfg.Redis.LockTTL)
		logger.Info("Import lock backed by Redis")
	} else {
		app.Locker = lock.NewLocal()
		logger.Info("Import lock held in process (set REDIS_URL to share it between instances)")
	}

	app.Importer = importers.NewBloggerImporter(
		importers.Begin(db),
		feed.NewResolver(cfg.Feed),
		app.Locker,
		logger,
		importers.WithRunRecorder(importruns.NewRepository(db.DB)),
		importers.WithFetchConcurrency(cfg.Feed.FetchConcurrency),
	)

	return app, nil
}

// Close releases the database and the Redis connection.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.Database.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
