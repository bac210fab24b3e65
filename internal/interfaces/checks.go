package interfaces

// This file contains compile-time interface implementation checks.
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/database/comments"
	"github.com/newtechs/backend/internal/database/importruns"
	"github.com/newtechs/backend/internal/database/newsletter"
	"github.com/newtechs/backend/internal/database/posts"
	"github.com/newtechs/backend/internal/feed"
	"github.com/newtechs/backend/internal/http"
	"github.com/newtechs/backend/internal/importers"
	"github.com/newtechs/backend/internal/lock"
	"github.com/newtechs/backend/internal/mailer"
	"github.com/newtechs/backend/internal/scheduler"
	"github.com/newtechs/backend/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BlogStore = (*blogs.Repository)(nil)
var _ http.BlogFinder = (*blogs.Repository)(nil)
var _ http.BlogGetter = (*blogs.Repository)(nil)
var _ http.CatalogStore = (*blogs.Repository)(nil)
var _ http.PostStore = (*posts.Repository)(nil)
var _ http.RankingStore = (*posts.Repository)(nil)
var _ http.CommentStore = (*comments.Repository)(nil)
var _ http.SubscriberStore = (*newsletter.Repository)(nil)
var _ http.RunStore = (*importruns.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.Fetcher = (*feed.Resolver)(nil)
var _ importers.UnitOfWork = (*database.UnitOfWork)(nil)
var _ importers.RunRecorder = (*importruns.Repository)(nil)

var _ lock.Locker = (*lock.Local)(nil)
var _ lock.Locker = (*lock.Redis)(nil)

// Every trigger runs the same importer
var _ http.Importer = (*importers.BloggerImporter)(nil)
var _ tasks.Importer = (*importers.BloggerImporter)(nil)
var _ scheduler.Importer = (*importers.BloggerImporter)(nil)

// =============================================================================
// Background Work and External Services
// =============================================================================

var _ http.TaskEnqueuer = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)
var _ mailer.StatsProvider = (*mailer.Static)(nil)
