package http

import (
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/auth"
	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/mailer"
	"github.com/newtechs/backend/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Importer Importer
	Logger   *zap.Logger

	// Background imports; nil disables the async endpoints
	TaskClient *tasks.Client

	// Newsletter delivery statistics; defaults to mailer.DefaultStats
	Mailer mailer.StatsProvider

	// Guards mutating endpoints; nil leaves them open
	AdminGuard *auth.AdminGuard

	// Comment moderation and threading
	Comments config.Comments

	// CORS origins; empty allows any origin
	AllowedOrigins []string

	// Application info
	Version string
}
