package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/importers"
	"github.com/newtechs/backend/internal/lock"
)

type fakeImporter struct {
	mu      sync.Mutex
	calls   int
	trigger entities.ImportTrigger
	mapping map[string]string
	report  *importers.Report
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeImporter) Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*importers.Report, error) {
	f.mu.Lock()
	f.calls++
	f.trigger = trigger
	f.mapping = mapping
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.report, f.err
}

func (f *fakeImporter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func enabledConfig() config.ImportSync {
	return config.ImportSync{
		Enabled:  true,
		Schedule: "0 3 * * *",
		Mapping:  map[string]string{"newtechs": "newtechs"},
	}
}

func TestImportSyncScheduler_Start(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := NewImportSyncScheduler(&fakeImporter{}, config.ImportSync{Schedule: "0 3 * * *"}, zap.NewNop())
		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
		assert.Nil(t, s.NextRun())
	})

	t.Run("missing mapping", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.Mapping = nil
		s := NewImportSyncScheduler(&fakeImporter{}, cfg, zap.NewNop())
		assert.ErrorIs(t, s.Start(context.Background()), ErrNoMapping)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.Schedule = "every night"
		s := NewImportSyncScheduler(&fakeImporter{}, cfg, zap.NewNop())
		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid cron schedule")
	})

	t.Run("starts and stops", func(t *testing.T) {
		s := NewImportSyncScheduler(&fakeImporter{}, enabledConfig(), zap.NewNop())
		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.IsRunning())

		next := s.NextRun()
		require.NotNil(t, next)
		assert.Equal(t, 3, next.Hour())
		assert.Equal(t, 0, next.Minute())

		s.Stop()
		assert.False(t, s.IsRunning())
		assert.Nil(t, s.NextRun())
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := NewImportSyncScheduler(&fakeImporter{}, enabledConfig(), zap.NewNop())
		require.NoError(t, s.Start(ctx))

		cancel()
		assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
	})
}

func TestImportSyncScheduler_RunSync(t *testing.T) {
	t.Run("imports the configured mapping", func(t *testing.T) {
		importer := &fakeImporter{report: &importers.Report{BlogsProcessed: 1, PostsImported: 5, Errors: []string{}}}
		s := NewImportSyncScheduler(importer, enabledConfig(), zap.NewNop())

		s.runSync()

		assert.Equal(t, 1, importer.callCount())
		assert.Equal(t, entities.ImportTriggerSchedule, importer.trigger)
		assert.Equal(t, map[string]string{"newtechs": "newtechs"}, importer.mapping)

		report, err := s.LastResult()
		require.NoError(t, err)
		assert.Equal(t, 5, report.PostsImported)
		assert.False(t, s.IsSyncing())
	})

	t.Run("records failures", func(t *testing.T) {
		importer := &fakeImporter{err: errors.New("feed unavailable")}
		s := NewImportSyncScheduler(importer, enabledConfig(), zap.NewNop())

		s.runSync()

		_, err := s.LastResult()
		assert.EqualError(t, err, "feed unavailable")
	})

	t.Run("skips while an import is in progress", func(t *testing.T) {
		importer := &fakeImporter{
			report:  &importers.Report{Errors: []string{}},
			started: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		s := NewImportSyncScheduler(importer, enabledConfig(), zap.NewNop())

		s.RunNow()
		<-importer.started
		assert.True(t, s.IsSyncing())

		s.runSync()
		assert.Equal(t, 1, importer.callCount())

		close(importer.release)
		assert.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 10*time.Millisecond)
	})
}

func TestSyncTimeoutWithinLockTTL(t *testing.T) {
	assert.GreaterOrEqual(t, lock.DefaultTTL, syncTimeout)
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 3 * * *", true},
		{"*/15 * * * *", true},
		{"0 0 * * 0", true},
		{"invalid", false},
		{"* * * *", false},
		{"60 * * * *", false},
		{"0 25 * * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Daily at 03:00", CronDescription("0 3 * * *"))
	assert.Equal(t, "Every 6 hours", CronDescription("0 */6 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", CronDescription("5 4 * * *"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	next, err := NextRunTime("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC), next)

	_, err = NextRunTime("invalid", from)
	assert.Error(t, err)
}
