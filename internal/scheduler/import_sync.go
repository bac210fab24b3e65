// Package scheduler runs the periodic Blogger import.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/importers"
)

// syncTimeout bounds one scheduled import.
const syncTimeout = 30 * time.Minute

// ErrNoMapping is returned by Start when sync is enabled without a mapping.
var ErrNoMapping = errors.New("import sync mapping not configured")

// Importer runs a Blogger import.
type Importer interface {
	Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*importers.Report, error)
}

// ImportSyncScheduler re-imports the configured Blogger sources on a cron
// schedule.
type ImportSyncScheduler struct {
	importer Importer
	cfg      config.ImportSync
	logger   *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
	lastReport *importers.Report
	lastErr    error
}

// NewImportSyncScheduler creates a new scheduler instance
func NewImportSyncScheduler(importer Importer, cfg config.ImportSync, logger *zap.Logger) *ImportSyncScheduler {
	return &ImportSyncScheduler{
		importer: importer,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if sync is enabled
func (s *ImportSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		s.logger.Info("Import sync scheduler disabled")
		return nil
	}

	if len(s.cfg.Mapping) == 0 {
		return ErrNoMapping
	}

	if err := ValidateCronSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, s.runSync)
	if err != nil {
		return fmt.Errorf("failed to schedule import job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.cfg.Schedule, time.Now())
	s.logger.Info("Import sync scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("description", CronDescription(s.cfg.Schedule)),
		zap.Int("sources", len(s.cfg.Mapping)),
		zap.Time("next_run", nextRun),
	)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running import and stops the scheduler.
func (s *ImportSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	entryID, cancel := s.entryID, s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// The running job takes mu when it finishes.
	<-s.cron.Stop().Done()
	s.cron.Remove(entryID)
	if cancel != nil {
		cancel()
	}

	s.logger.Info("Import sync scheduler stopped")
}

// RunNow triggers an immediate import
func (s *ImportSyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active
func (s *ImportSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether an import is in progress
func (s *ImportSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// NextRun returns when the next import will occur
func (s *ImportSyncScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}

// LastResult returns the outcome of the most recent scheduled import.
func (s *ImportSyncScheduler) LastResult() (*importers.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport, s.lastErr
}

func (s *ImportSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.logger.Info("Import sync skipped, already syncing")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	start := time.Now()
	report, err := s.importer.Import(ctx, entities.ImportTriggerSchedule, s.cfg.Mapping)

	s.mu.Lock()
	s.isSyncing = false
	s.lastReport, s.lastErr = report, err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Import sync failed", zap.Error(err))
		return
	}

	s.logger.Info("Import sync completed",
		zap.Int("blogs_processed", report.BlogsProcessed),
		zap.Int("posts_imported", report.PostsImported),
		zap.Int("posts_skipped", report.PostsSkipped),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
}
