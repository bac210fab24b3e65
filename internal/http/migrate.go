package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/database/importruns"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/importers"
	"github.com/newtechs/backend/internal/tasks"
)

// Importer runs a Blogger import.
type Importer interface {
	Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*importers.Report, error)
}

// TaskEnqueuer saves background tasks.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// CatalogStore seeds the blog catalog and summarizes stored content.
type CatalogStore interface {
	SetupCatalog(ctx context.Context) ([]entities.Blog, error)
	Totals(ctx context.Context) (*blogs.Totals, error)
	PostCounts(ctx context.Context, blogIDs []uint) (map[uint]int64, error)
}

// RunStore reads the import history.
type RunStore interface {
	List(ctx context.Context, limit int) ([]entities.ImportRun, error)
	Get(ctx context.Context, id uint) (*entities.ImportRun, error)
}

// MigrationController handles the content import endpoints.
type MigrationController struct {
	importer Importer
	queue    TaskEnqueuer
	catalog  CatalogStore
	runs     RunStore
	logger   *zap.Logger
}

// NewMigrationController creates a MigrationController. queue may be nil
// when the task queue is disabled.
func NewMigrationController(importer Importer, queue TaskEnqueuer, catalog CatalogStore, runs RunStore, logger *zap.Logger) *MigrationController {
	return &MigrationController{importer: importer, queue: queue, catalog: catalog, runs: runs, logger: logger}
}

// BloggerImportRequest is the body of POST /migrate/blogger.
type BloggerImportRequest struct {
	BlogMapping map[string]string `json:"blog_mapping"`
}

// BlogTotalsResponse is one row of the per-blog breakdown.
type BlogTotalsResponse struct {
	Blog       BlogResponse `json:"blog"`
	Posts      int64        `json:"posts"`
	Categories int64        `json:"categories"`
}

// MigrationStatus is the body of GET /migrate/status.
type MigrationStatus struct {
	TotalBlogs      int                  `json:"total_blogs"`
	TotalPosts      int64                `json:"total_posts"`
	TotalCategories int64                `json:"total_categories"`
	TotalAuthors    int64                `json:"total_authors"`
	BlogBreakdown   []BlogTotalsResponse `json:"blog_breakdown"`
}

// ImportRunResponse is one recorded import run.
type ImportRunResponse struct {
	ID                uint              `json:"id"`
	Status            string            `json:"status"`
	Trigger           string            `json:"trigger"`
	Mapping           map[string]string `json:"mapping"`
	BlogsProcessed    int               `json:"blogs_processed"`
	PostsImported     int               `json:"posts_imported"`
	PostsSkipped      int               `json:"posts_skipped"`
	CategoriesCreated int               `json:"categories_created"`
	AuthorsCreated    int               `json:"authors_created"`
	Errors            []string          `json:"errors"`
	StartedAt         time.Time         `json:"started_at"`
	CompletedAt       *time.Time        `json:"completed_at"`
}

// ImportBlogger handles POST /migrate/blogger
// The import runs within the request.
func (mc *MigrationController) ImportBlogger(c *gin.Context) {
	var req BloggerImportRequest
	if !bindImportRequest(c, &req) {
		return
	}

	report, err := mc.importer.Import(c.Request.Context(), entities.ImportTriggerHTTP, req.BlogMapping)
	if err != nil {
		respondAppError(c, mc.logger, err, "blogger import")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": report,
	})
}

// ImportBloggerAsync handles POST /migrate/blogger/async
// The import is enqueued as a background task.
func (mc *MigrationController) ImportBloggerAsync(c *gin.Context) {
	if mc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "Task queue is disabled")
		return
	}

	var req BloggerImportRequest
	if !bindImportRequest(c, &req) {
		return
	}
	if len(req.BlogMapping) == 0 {
		respondBadRequest(c, "Blog mapping required")
		return
	}

	taskID, err := mc.queue.Enqueue(tasks.ImportBloggerTask{Mapping: req.BlogMapping})
	if err != nil {
		respondInternalError(c, mc.logger, err, "enqueue blogger import")
		return
	}

	mc.logger.Info("Blogger import enqueued", zap.String("task_id", taskID), zap.Int("sources", len(req.BlogMapping)))
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": taskID,
		"message": "Import enqueued",
	})
}

// bindImportRequest decodes the body into req. An empty body is an empty
// request; anything else that fails to decode is rejected.
func bindImportRequest(c *gin.Context, req *BloggerImportRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// SetupBlogs handles POST /migrate/setup-blogs
func (mc *MigrationController) SetupBlogs(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := mc.catalog.SetupCatalog(ctx)
	if err != nil {
		respondAppError(c, mc.logger, err, "setup blogs")
		return
	}

	counts, err := mc.catalog.PostCounts(ctx, blogIDs(list))
	if err != nil {
		respondInternalError(c, mc.logger, err, "count blog posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"blogs":   newBlogResponses(list, counts),
		"message": fmt.Sprintf("Successfully set up %d blogs", len(list)),
	})
}

// Status handles GET /migrate/status
func (mc *MigrationController) Status(c *gin.Context) {
	totals, err := mc.catalog.Totals(c.Request.Context())
	if err != nil {
		respondInternalError(c, mc.logger, err, "migration status")
		return
	}

	breakdown := make([]BlogTotalsResponse, 0, len(totals.Breakdown))
	for _, row := range totals.Breakdown {
		breakdown = append(breakdown, BlogTotalsResponse{
			Blog:       newBlogResponse(row.Blog, row.Posts),
			Posts:      row.Posts,
			Categories: row.Categories,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": MigrationStatus{
			TotalBlogs:      totals.Blogs,
			TotalPosts:      totals.Posts,
			TotalCategories: totals.Categories,
			TotalAuthors:    totals.Authors,
			BlogBreakdown:   breakdown,
		},
	})
}

// ListRuns handles GET /migrate/runs
func (mc *MigrationController) ListRuns(c *gin.Context) {
	runs, err := mc.runs.List(c.Request.Context(), queryLimit(c, importruns.DefaultListLimit, maxListLimit))
	if err != nil {
		respondInternalError(c, mc.logger, err, "list import runs")
		return
	}

	out := make([]ImportRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, newImportRunResponse(run))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    out,
	})
}

// GetRun handles GET /migrate/runs/:id
func (mc *MigrationController) GetRun(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Import run")
	if !ok {
		return
	}

	run, err := mc.runs.Get(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, mc.logger, err, "get import run")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run":     newImportRunResponse(*run),
	})
}

// newImportRunResponse decodes the stored mapping and errors. Undecodable
// values are reported empty.
func newImportRunResponse(run entities.ImportRun) ImportRunResponse {
	resp := ImportRunResponse{
		ID:                run.ID,
		Status:            string(run.Status),
		Trigger:           string(run.Trigger),
		Mapping:           map[string]string{},
		BlogsProcessed:    run.BlogsProcessed,
		PostsImported:     run.PostsImported,
		PostsSkipped:      run.PostsSkipped,
		CategoriesCreated: run.CategoriesCreated,
		AuthorsCreated:    run.AuthorsCreated,
		Errors:            []string{},
		StartedAt:         run.StartedAt,
		CompletedAt:       run.CompletedAt,
	}
	if run.Mapping != "" {
		_ = json.Unmarshal([]byte(run.Mapping), &resp.Mapping)
	}
	if run.Errors != "" {
		_ = json.Unmarshal([]byte(run.Errors), &resp.Errors)
	}
	if resp.Mapping == nil {
		resp.Mapping = map[string]string{}
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	return resp
}
