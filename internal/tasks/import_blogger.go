package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/importers"
)

// Importer runs a Blogger import for a source-to-blog mapping.
type Importer interface {
	Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*importers.Report, error)
}

// ImportBloggerTask imports Blogger feeds in the background.
type ImportBloggerTask struct {
	// Mapping is source identifier -> blog slug
	Mapping map[string]string `json:"mapping"`
}

// Config returns the queue configuration for import tasks. An import is
// never retried: a failed run has already rolled back and been recorded.
func (t ImportBloggerTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_blogger",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBloggerProcessor creates a processor function for ImportBloggerTask.
func ImportBloggerProcessor(importer Importer, logger *zap.Logger) backlite.QueueProcessor[ImportBloggerTask] {
	return func(ctx context.Context, task ImportBloggerTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		report, err := importer.Import(ctx, entities.ImportTriggerTask, task.Mapping)
		if err != nil {
			return fmt.Errorf("import blogger: %w", err)
		}

		logger.Info("Import task complete",
			zap.Int("blogs_processed", report.BlogsProcessed),
			zap.Int("posts_imported", report.PostsImported),
			zap.Int("posts_skipped", report.PostsSkipped),
			zap.Int("errors", len(report.Errors)),
		)
		return nil
	}
}

// NewImportBloggerQueue creates a backlite queue for import tasks.
func NewImportBloggerQueue(importer Importer, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ImportBloggerProcessor(importer, logger))
}
