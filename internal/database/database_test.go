package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createBlog(t *testing.T, db *gorm.DB, slug string) *entities.Blog {
	t.Helper()
	blog := &entities.Blog{Name: slug, Slug: slug, Title: slug}
	require.NoError(t, db.Create(blog).Error)
	return blog
}

func TestNewDatabase_AppliesDefaults(t *testing.T) {
	db := setupTestDB(t)

	blog := createBlog(t, db.DB, "newtechs")

	var loaded entities.Blog
	require.NoError(t, db.DB.First(&loaded, blog.ID).Error)
	assert.True(t, loaded.IsActive)
	assert.Equal(t, entities.DefaultPrimaryColor, loaded.PrimaryColor)
	assert.Equal(t, entities.DefaultSecondaryColor, loaded.SecondaryColor)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDatabase_UniqueConstraints(t *testing.T) {
	db := setupTestDB(t)
	blog := createBlog(t, db.DB, "newtechs")
	author := &entities.Author{Name: "Jane"}
	require.NoError(t, db.DB.Create(author).Error)

	t.Run("post slug per blog", func(t *testing.T) {
		first := &entities.Post{Title: "A", Slug: "a", Content: "x", BlogID: blog.ID, AuthorID: author.ID}
		require.NoError(t, db.DB.Create(first).Error)

		dup := &entities.Post{Title: "A", Slug: "a", Content: "y", BlogID: blog.ID, AuthorID: author.ID}
		err := db.DB.Create(dup).Error
		assert.True(t, apperr.IsUniqueViolation(err), "got %v", err)

		other := createBlog(t, db.DB, "crypto-updates")
		sameSlug := &entities.Post{Title: "A", Slug: "a", Content: "z", BlogID: other.ID, AuthorID: author.ID}
		assert.NoError(t, db.DB.Create(sameSlug).Error)
	})

	t.Run("category name per blog", func(t *testing.T) {
		require.NoError(t, db.DB.Create(&entities.Category{Name: "Tech", Slug: "tech", BlogID: blog.ID}).Error)
		err := db.DB.Create(&entities.Category{Name: "Tech", Slug: "tech", BlogID: blog.ID}).Error
		assert.True(t, apperr.IsUniqueViolation(err), "got %v", err)
	})

	t.Run("origin id is global", func(t *testing.T) {
		origin := "tag:blogger.com,1999:blog-1.post-1"
		other := createBlog(t, db.DB, "techspot365")
		require.NoError(t, db.DB.Create(&entities.Post{Title: "B", Slug: "b", Content: "x", BlogID: blog.ID, AuthorID: author.ID, OriginID: &origin}).Error)
		err := db.DB.Create(&entities.Post{Title: "B", Slug: "b", Content: "x", BlogID: other.ID, AuthorID: author.ID, OriginID: &origin}).Error
		assert.True(t, apperr.IsUniqueViolation(err), "got %v", err)
	})

	t.Run("null origin ids do not collide", func(t *testing.T) {
		require.NoError(t, db.DB.Create(&entities.Post{Title: "C", Slug: "c", Content: "x", BlogID: blog.ID, AuthorID: author.ID}).Error)
		require.NoError(t, db.DB.Create(&entities.Post{Title: "D", Slug: "d", Content: "x", BlogID: blog.ID, AuthorID: author.ID}).Error)
	})
}

func TestNewDatabase_CommentIDs(t *testing.T) {
	db := setupTestDB(t)
	blog := createBlog(t, db.DB, "newtechs")
	author := &entities.Author{Name: "Jane"}
	require.NoError(t, db.DB.Create(author).Error)
	post := &entities.Post{Title: "A", Slug: "a", Content: "x", BlogID: blog.ID, AuthorID: author.ID}
	require.NoError(t, db.DB.Create(post).Error)

	comment := &entities.Comment{PostID: post.ID, AuthorName: "Reader", Content: "Nice"}
	require.NoError(t, db.DB.Create(comment).Error)

	assert.Len(t, comment.ID, 36)
	assert.Equal(t, entities.CommentStatusPending, comment.Status)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: "oracle"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = NewDatabase(config.Database{Driver: config.DriverPostgres}, zap.NewNop())
	assert.ErrorContains(t, err, "DATABASE_DSN is required")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "./a.db?"+sqliteParams, sqliteDSN("./a.db"))
	assert.Contains(t, sqliteDSN("./a.db"), "_txlock=immediate")
	assert.Equal(t, config.DefaultDatabasePath+"?"+sqliteParams, sqliteDSN(""))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared", sqliteDSN("file:x.db?cache=shared"))
}

func TestUnitOfWork_CommitPersists(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Tx().Create(&entities.Blog{Name: "a", Slug: "a", Title: "A"}).Error)
	require.NoError(t, uow.Commit())

	// Rollback after commit is a no-op.
	assert.NoError(t, uow.Rollback())

	var count int64
	db.DB.Model(&entities.Blog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUnitOfWork_ConcurrentWriterWaits(t *testing.T) {
	db := setupTestDB(t)
	createBlog(t, db.DB, "other")

	uow, err := db.Begin(context.Background())
	require.NoError(t, err)

	var blogs []entities.Blog
	require.NoError(t, uow.Tx().Find(&blogs).Error)

	written := make(chan error, 1)
	go func() {
		written <- db.DB.Model(&entities.Blog{}).Where("slug = ?", "other").Update("tagline", "changed").Error
	}()
	time.Sleep(50 * time.Millisecond)

	// The open run still writes after the other connection queued its update
	require.NoError(t, uow.Tx().Create(&entities.Blog{Name: "a", Slug: "a", Title: "A"}).Error)
	require.NoError(t, uow.Commit())
	require.NoError(t, <-written)

	var other entities.Blog
	require.NoError(t, db.DB.Where("slug = ?", "other").First(&other).Error)
	assert.Equal(t, "changed", other.Tagline)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	db := setupTestDB(t)

	uow, err := db.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Tx().Create(&entities.Blog{Name: "a", Slug: "a", Title: "A"}).Error)
	require.NoError(t, uow.Rollback())
	assert.NoError(t, uow.Rollback())

	var count int64
	db.DB.Model(&entities.Blog{}).Count(&count)
	assert.Zero(t, count)
}

func TestUnitOfWork_StageRollsBackOnlyFailedStep(t *testing.T) {
	db := setupTestDB(t)

	uow, err := db.Begin(context.Background())
	require.NoError(t, err)

	err = uow.Stage(func(tx *gorm.DB) error {
		return tx.Create(&entities.Blog{Name: "kept", Slug: "kept", Title: "Kept"}).Error
	})
	require.NoError(t, err)

	stepErr := errors.New("step failed")
	err = uow.Stage(func(tx *gorm.DB) error {
		if err := tx.Create(&entities.Blog{Name: "dropped", Slug: "dropped", Title: "Dropped"}).Error; err != nil {
			return err
		}
		return stepErr
	})
	require.ErrorIs(t, err, stepErr)
	require.NoError(t, uow.Commit())

	var slugs []string
	db.DB.Model(&entities.Blog{}).Order("slug").Pluck("slug", &slugs)
	assert.Equal(t, []string{"kept"}, slugs)
}

func TestUnitOfWork_BeginFailsOnCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := db.Begin(ctx)
	assert.ErrorIs(t, err, apperr.ErrStorage)
}
