// Package importruns records the history of content import runs.
//
// # Usage
//
//	repo := importruns.NewRepository(db)
//	run, err := repo.Start(ctx, entities.ImportTriggerHTTP, mapping)
//	err = repo.Finish(ctx, run)
package importruns

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/entities"
)

const DefaultListLimit = 20

// Repository handles import run database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new import runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Start records a running import for mapping.
func (r *Repository) Start(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*entities.ImportRun, error) {
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return nil, err
	}
	run := &entities.ImportRun{
		Status:    entities.ImportRunRunning,
		Trigger:   trigger,
		Mapping:   string(encoded),
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the final status, counters and errors of run.
func (r *Repository) Finish(ctx context.Context, run *entities.ImportRun, errs []string) error {
	encoded, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	run.Errors = string(encoded)
	run.CompletedAt = &now
	return r.db.WithContext(ctx).Model(run).Select(
		"status", "blogs_processed", "posts_imported", "posts_skipped",
		"categories_created", "authors_created", "errors", "completed_at",
	).Updates(run).Error
}

// List returns the most recent runs first.
func (r *Repository) List(ctx context.Context, limit int) ([]entities.ImportRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var runs []entities.ImportRun
	err := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.WithContext(ctx).First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Import run")
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
