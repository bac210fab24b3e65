package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/auth"
	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/database/comments"
	"github.com/newtechs/backend/internal/database/importruns"
	"github.com/newtechs/backend/internal/database/newsletter"
	"github.com/newtechs/backend/internal/database/posts"
	"github.com/newtechs/backend/internal/logging"
	"github.com/newtechs/backend/internal/mailer"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found")
	})
	router.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	guard := func(c *gin.Context) { c.Next() }
	if cfg.AdminGuard != nil {
		guard = cfg.AdminGuard.Handler()
	}

	stats := cfg.Mailer
	if stats == nil {
		stats = mailer.NewStatic(mailer.DefaultStats)
	}

	db := cfg.Database.DB
	blogStore := blogs.NewRepository(db)
	postStore := posts.NewRepository(db)

	health := NewHealthController(cfg.Database, cfg.Version)
	blogsController := NewBlogsController(blogStore, logger)
	postsController := NewPostsController(postStore, blogStore, logger)
	commentsController := NewCommentsController(comments.NewRepository(db), cfg.Comments, logger)
	newsletterController := NewNewsletterController(newsletter.NewRepository(db), stats, logger)
	rankingsController := NewRankingsController(postStore, blogStore, logger)

	var queue TaskEnqueuer
	if cfg.TaskClient != nil {
		queue = cfg.TaskClient
	}
	migrationController := NewMigrationController(cfg.Importer, queue, blogStore, importruns.NewRepository(db), logger)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Blogs and posts
	router.GET("/blogs", blogsController.List)
	router.POST("/blogs", guard, blogsController.Create)
	router.GET("/blogs/:slug", blogsController.Get)
	router.GET("/blogs/:slug/categories", blogsController.Categories)
	router.GET("/blogs/:slug/posts", postsController.List)
	router.GET("/blogs/:slug/posts/:post_slug", postsController.Get)
	router.POST("/posts", guard, postsController.Create)
	router.GET("/featured-posts", postsController.Featured)
	router.GET("/search", postsController.Search)

	// Engagement
	api := router.Group("/api")
	{
		api.GET("/comments/:post_id", commentsController.List)
		api.POST("/comments/:post_id", commentsController.Create)
		api.PATCH("/comments/:post_id/:comment_id", guard, commentsController.Moderate)

		api.POST("/newsletter/subscribe", newsletterController.Subscribe)
		api.POST("/newsletter/unsubscribe", newsletterController.Unsubscribe)

		api.GET("/trending-posts", rankingsController.Trending)
		api.GET("/popular-posts/:blog_slug", rankingsController.Popular)

		api.POST("/analytics/post-view", rankingsController.RecordView)
		api.GET("/analytics/newsletter-stats", newsletterController.Stats)

		if cfg.TaskClient != nil {
			tasksController := NewTasksController(cfg.TaskClient, logger)
			api.GET("/tasks/:id", tasksController.GetTaskStatus)
		}
	}

	// Content import
	migrate := router.Group("/migrate")
	{
		migrate.POST("/blogger", guard, migrationController.ImportBlogger)
		migrate.POST("/blogger/async", guard, migrationController.ImportBloggerAsync)
		migrate.POST("/setup-blogs", guard, migrationController.SetupBlogs)
		migrate.GET("/status", migrationController.Status)
		migrate.GET("/runs", migrationController.ListRuns)
		migrate.GET("/runs/:id", migrationController.GetRun)
	}

	return router
}

// corsConfig allows the listed origins, or any origin when none are
// listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
