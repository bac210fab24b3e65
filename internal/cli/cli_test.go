package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/auth"
	"github.com/newtechs/backend/internal/config"
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
		Feed: config.Feed{RootDir: filepath.Join(dir, "feeds")},
	}
}

func TestMappingFlag(t *testing.T) {
	m := mappingFlag{}
	require.NoError(t, m.Set("a=newtechs"))
	require.NoError(t, m.Set("b=crypto-updates, c=newtechs"))
	assert.Error(t, m.Set("nonsense"))

	assert.Equal(t, mappingFlag{"a": "newtechs", "b": "crypto-updates", "c": "newtechs"}, m)
	assert.Equal(t, "a=newtechs,b=crypto-updates,c=newtechs", m.String())
}

func TestImportCommand_ParseFlags(t *testing.T) {
	t.Run("explicit mapping", func(t *testing.T) {
		cmd := NewImportCommand(testConfig(t), zap.NewNop())
		require.NoError(t, cmd.ParseFlags([]string{"-map", "a=newtechs", "-feeds", "/srv/exports"}))
		assert.Equal(t, "newtechs", cmd.Mapping["a"])
		assert.Equal(t, "/srv/exports", cmd.Feeds)
	})

	t.Run("falls back to the sync mapping", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.ImportSync.Mapping = map[string]string{"nightly": "newtechs"}
		cmd := NewImportCommand(cfg, zap.NewNop())
		require.NoError(t, cmd.ParseFlags(nil))
		assert.Equal(t, "newtechs", cmd.Mapping["nightly"])
		assert.Equal(t, cfg.Feed.RootDir, cmd.Feeds)
	})

	t.Run("mapping required", func(t *testing.T) {
		cmd := NewImportCommand(testConfig(t), zap.NewNop())
		assert.EqualError(t, cmd.ParseFlags(nil), "at least one -map source=blog is required")
	})
}

func TestImportCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	setup := NewSetupBlogsCommand(cfg, zap.NewNop())
	setup.out = &bytes.Buffer{}
	require.NoError(t, setup.Run(ctx))

	feeds := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(feeds, "export-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(feeds, "export-1", "feed.atom"), []byte(feedDoc), 0o644))

	var out bytes.Buffer
	cmd := NewImportCommand(cfg, zap.NewNop())
	cmd.out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-map", "export-1=newtechs,missing=nowhere", "-feeds", feeds}))
	require.NoError(t, cmd.Run(ctx))

	assert.Contains(t, out.String(), "Posts imported:     1")
	assert.Contains(t, out.String(), "Errors (1):")
	assert.Contains(t, out.String(), "Blog 'nowhere' not found")
}

func TestSetupBlogsCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	cmd := NewSetupBlogsCommand(cfg, zap.NewNop())
	cmd.out = &out

	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, cmd.Run(context.Background()))
	require.NoError(t, cmd.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "Successfully set up 7 blogs"))
	assert.Contains(t, out.String(), "newtechs")
}

func TestHashAdminTokenCommand_Run(t *testing.T) {
	t.Run("given token", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewHashAdminTokenCommand()
		cmd.out = &out
		require.NoError(t, cmd.ParseFlags([]string{"-token", "admin-token-0123456789", "-cost", "4"}))
		require.NoError(t, cmd.Run())

		hash, ok := strings.CutPrefix(strings.TrimSpace(out.String()), "ADMIN_TOKEN_HASH=")
		require.True(t, ok)
		assert.NoError(t, auth.CheckToken("admin-token-0123456789", hash))
	})

	t.Run("generated token", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewHashAdminTokenCommand()
		cmd.out = &out
		require.NoError(t, cmd.ParseFlags([]string{"-cost", "4"}))
		require.NoError(t, cmd.Run())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		token := strings.TrimPrefix(lines[0], "Token: ")
		hash := strings.TrimPrefix(lines[1], "ADMIN_TOKEN_HASH=")
		assert.NoError(t, auth.CheckToken(token, hash))
	})

	t.Run("short token", func(t *testing.T) {
		cmd := NewHashAdminTokenCommand()
		cmd.out = &bytes.Buffer{}
		require.NoError(t, cmd.ParseFlags([]string{"-token", "short"}))
		assert.ErrorIs(t, cmd.Run(), auth.ErrTokenTooShort)
	})
}
