package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/auth"
	"github.com/newtechs/backend/internal/config"
	http_controllers "github.com/newtechs/backend/internal/http"
	"github.com/newtechs/backend/internal/mailer"
	"github.com/newtechs/backend/internal/scheduler"
	"github.com/newtechs/backend/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server so no new imports start
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

// Run wires every component and serves the API.
func Run(cfg *config.Config, logger *zap.Logger, version string) error {
	logger.Info("Starting NewTechs backend", zap.String("version", version))

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error closing resources", zap.Error(err))
		}
	}()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("Error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(tasks.NewImportBloggerQueue(app.Importer, logger))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(ctx)
		go taskClient.Start(taskCtx)
	} else {
		logger.Info("Task queue disabled, POST /migrate/blogger/async will answer 503")
	}

	syncCtx, syncCancel := context.WithCancel(ctx)
	defer syncCancel()
	importSync := scheduler.NewImportSyncScheduler(app.Importer, cfg.ImportSync, logger)
	if err := importSync.Start(syncCtx); err != nil {
		if taskCtxCancel != nil {
			taskCtxCancel()
		}
		return fmt.Errorf("failed to start import sync: %w", err)
	}

	var adminGuard *auth.AdminGuard
	if cfg.Admin.TokenHash != "" {
		limiter := auth.NewRateLimiter(auth.DefaultRateLimitConfig())
		defer limiter.Stop()
		adminGuard = auth.NewAdminGuard(cfg.Admin.TokenHash, limiter, logger)
		logger.Info("Admin token required for mutating endpoints")
	} else {
		logger.Warn("ADMIN_TOKEN_HASH is not set, mutating endpoints are open")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       app.Database,
		Importer:       app.Importer,
		Logger:         logger,
		TaskClient:     taskClient,
		Mailer:         mailer.NewStatic(mailer.DefaultStats),
		AdminGuard:     adminGuard,
		Comments:       cfg.Comments,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		importSync.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			if !taskClient.Stop(ctx) {
				logger.Warn("Task workers did not finish before the shutdown deadline")
			}
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}
