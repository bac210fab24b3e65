package entrypoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/lock"
)

const feedDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:blogger="http://schemas.google.com/blogger/2018">
<entry>
<id>tag:blogger.com,1999:blog-1.post-1</id>
<blogger:type>POST</blogger:type><blogger:status>LIVE</blogger:status>
<title>Hello Ice</title>
<content type="html">&lt;p&gt;First post&lt;/p&gt;</content>
<author><name>Jane Doe</name></author>
<published>2024-01-15T10:30:00.000-08:00</published>
<category term="Gadgets"/>
</entry>
</feed>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.Database{
			Driver:   config.DriverSQLite,
			Path:     filepath.Join(dir, "newtechs.db"),
			LogLevel: "silent",
		},
		Feed: config.Feed{RootDir: filepath.Join(dir, "feeds"), FetchConcurrency: 2},
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Feed.RootDir, "export-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Feed.RootDir, "export-1", "feed.atom"), []byte(feedDoc), 0o644))

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &lock.Local{}, app.Locker)

	_, err = blogs.NewRepository(app.Database.DB).SetupCatalog(ctx)
	require.NoError(t, err)

	report, err := app.Importer.Import(ctx, entities.ImportTriggerCLI, map[string]string{"export-1": "newtechs"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Equal(t, 1, report.PostsImported)
	assert.Empty(t, report.Errors)

	var runs []entities.ImportRun
	require.NoError(t, app.Database.DB.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.ImportTriggerCLI, runs[0].Trigger)
	assert.Equal(t, entities.ImportRunCompleted, runs[0].Status)
}

func TestNewApp_InvalidRedisURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.URL = "not-a-url"

	_, err := NewApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "invalid redis url")
}
