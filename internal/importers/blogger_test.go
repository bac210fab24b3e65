package importers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/database/importruns"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/feed"
	"github.com/newtechs/backend/internal/lock"
)

type post struct {
	id         string
	kind       string
	status     string
	title      string
	content    string
	author     string
	published  string
	categories []string
}

func livePost(id, title string, categories ...string) post {
	return post{
		id:         id,
		title:      title,
		content:    "<p>Body of " + title + "</p>",
		author:     "Jane Doe",
		published:  "2024-01-15T10:30:00.000-08:00",
		categories: categories,
	}
}

func atom(posts ...post) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:blogger="http://schemas.google.com/blogger/2018">
<title>Export</title>
`)
	for _, p := range posts {
		b.WriteString(p.xml())
	}
	b.WriteString("</feed>")
	return b.String()
}

func (p post) xml() string {
	kind, status := p.kind, p.status
	if kind == "" {
		kind = "POST"
	}
	if status == "" {
		status = "LIVE"
	}
	var b strings.Builder
	b.WriteString("<entry>")
	fmt.Fprintf(&b, "<id>%s</id>", p.id)
	fmt.Fprintf(&b, "<blogger:type>%s</blogger:type><blogger:status>%s</blogger:status>", kind, status)
	fmt.Fprintf(&b, "<blogger:filename>/%s.html</blogger:filename>", p.id)
	fmt.Fprintf(&b, "<title>%s</title>", p.title)
	fmt.Fprintf(&b, `<content type="html">%s</content>`, html.EscapeString(p.content))
	fmt.Fprintf(&b, "<author><name>%s</name></author>", p.author)
	fmt.Fprintf(&b, "<published>%s</published>", p.published)
	for _, term := range p.categories {
		fmt.Fprintf(&b, `<category term="%s"/>`, term)
	}
	b.WriteString("</entry>\n")
	return b.String()
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	doc, ok := f[source]
	if !ok {
		return nil, &feed.SourceUnavailableError{
			Source:   source,
			Location: filepath.Join("feeds", source, feed.FileName),
			Err:      fmt.Errorf("open: %w", fs.ErrNotExist),
		}
	}
	return []byte(doc), nil
}

// failingCommit discards the run at commit time.
type failingCommit struct {
	UnitOfWork
}

func (f failingCommit) Commit() error {
	f.UnitOfWork.Rollback()
	return errors.New("disk I/O error")
}

type fixture struct {
	db     *database.Database
	runs   *importruns.Repository
	locker *lock.Local
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Path:     filepath.Join(t.TempDir(), "import.db"),
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := blogs.NewRepository(db.DB)
	for _, name := range []string{"NewTechs", "Crypto Updates"} {
		_, err := repo.Create(context.Background(), blogs.NewBlog{Name: name})
		require.NoError(t, err)
	}
	return &fixture{db: db, runs: importruns.NewRepository(db.DB), locker: lock.NewLocal()}
}

func (f *fixture) importer(fetcher Fetcher, begin BeginFunc) *BloggerImporter {
	if begin == nil {
		begin = Begin(f.db)
	}
	return NewBloggerImporter(begin, fetcher, f.locker, zap.NewNop(), WithRunRecorder(f.runs))
}

func (f *fixture) posts(t *testing.T, blogSlug string) []entities.Post {
	t.Helper()
	var posts []entities.Post
	blogID := f.db.DB.Model(&entities.Blog{}).Select("id").Where("slug = ?", blogSlug)
	err := f.db.DB.Where("blog_id = (?)", blogID).
		Preload("Categories").Preload("Author").
		Order("id").Find(&posts).Error
	require.NoError(t, err)
	return posts
}

func TestBloggerImporter_ImportsLivePosts(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{
		"newtechs-export": atom(
			livePost("tag:blogger.com,1999:post-1", "Hello World", "Go", "Cloud"),
			livePost("tag:blogger.com,1999:post-2", "Second Post", "Go"),
			post{id: "tag:blogger.com,1999:comment-1", kind: "COMMENT", title: "Nice", author: "Bob", published: "2024-01-16T00:00:00Z"},
			post{id: "tag:blogger.com,1999:post-3", status: "DRAFT", title: "Draft", author: "Jane Doe", published: "2024-01-16T00:00:00Z"},
		),
	}

	report, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"newtechs-export": "newtechs"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Equal(t, 2, report.PostsImported)
	assert.Equal(t, 0, report.PostsSkipped)
	assert.Equal(t, 2, report.CategoriesCreated)
	assert.Equal(t, 1, report.AuthorsCreated)
	assert.Empty(t, report.Errors)

	posts := f.posts(t, "newtechs")
	require.Len(t, posts, 2)
	first := posts[0]
	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, entities.PostStatusPublished, first.Status)
	assert.Equal(t, "<p>Body of Hello World</p>", first.Content)
	assert.Equal(t, "Body of Hello World", first.Excerpt)
	assert.Equal(t, "Hello World", first.MetaTitle)
	assert.Equal(t, first.Excerpt, first.MetaDescription)
	assert.Equal(t, "/tag:blogger.com,1999:post-1.html", first.OriginURL)
	require.NotNil(t, first.OriginID)
	assert.Equal(t, "tag:blogger.com,1999:post-1", *first.OriginID)
	assert.Equal(t, "Jane Doe", first.Author.Name)
	assert.Equal(t, 18, first.PublishedAt.UTC().Hour())
	assert.Len(t, first.Categories, 2)
	assert.Len(t, posts[1].Categories, 1)
}

func TestBloggerImporter_ReimportSkipsKnownOrigins(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{
		"export": atom(livePost("post-1", "Hello World", "Go"), livePost("post-2", "Other", "Go")),
	}
	mapping := map[string]string{"export": "newtechs"}
	ctx := context.Background()

	_, err := f.importer(fetcher, nil).Import(ctx, entities.ImportTriggerCLI, mapping)
	require.NoError(t, err)

	report, err := f.importer(fetcher, nil).Import(ctx, entities.ImportTriggerCLI, mapping)
	require.NoError(t, err)

	assert.Equal(t, 0, report.PostsImported)
	assert.Equal(t, 2, report.PostsSkipped)
	assert.Equal(t, 0, report.CategoriesCreated)
	assert.Equal(t, 0, report.AuthorsCreated)
	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Len(t, f.posts(t, "newtechs"), 2)
}

func TestBloggerImporter_NonPostEntriesImportNothing(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{
		"export": atom(post{id: "c-1", kind: "COMMENT", title: "Reply", author: "Bob", published: "2024-01-16T00:00:00Z"}),
	}

	report, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"export": "newtechs"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Zero(t, report.PostsImported)
	assert.Zero(t, report.AuthorsCreated)
	assert.Empty(t, report.Errors)
}

func TestBloggerImporter_SlugSuffixes(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{
		"export": atom(
			livePost("p-1", "Hello World"),
			livePost("p-2", "Hello World"),
			livePost("p-3", "Hello, World!"),
		),
		"crypto": atom(livePost("p-4", "Hello World")),
	}

	_, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"export": "newtechs", "crypto": "crypto-updates"})
	require.NoError(t, err)

	var slugs []string
	for _, p := range f.posts(t, "newtechs") {
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"hello-world", "hello-world-1", "hello-world-2"}, slugs)

	crypto := f.posts(t, "crypto-updates")
	require.Len(t, crypto, 1)
	assert.Equal(t, "hello-world", crypto[0].Slug)
}

func TestBloggerImporter_SourceErrors(t *testing.T) {
	f := setupTestDB(t)
	broken := strings.TrimSuffix(atom(livePost("p-9", "Lost")), "</feed>") + "<entry><id>cut"
	fetcher := fakeFetcher{
		"b-export": atom(livePost("p-1", "Kept")),
		"d-broken": broken,
	}

	report, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP, map[string]string{
		"a-missing-blog": "no-such-blog",
		"b-export":       "newtechs",
		"c-no-feed":      "newtechs",
		"d-broken":       "crypto-updates",
	})
	require.NoError(t, err)

	require.Len(t, report.Errors, 3)
	assert.Equal(t, "Blog 'no-such-blog' not found", report.Errors[0])
	assert.Equal(t, "Feed file not found: "+filepath.Join("feeds", "c-no-feed", feed.FileName), report.Errors[1])
	assert.True(t, strings.HasPrefix(report.Errors[2], "Error processing blog d-broken: malformed feed"), report.Errors[2])

	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Equal(t, 1, report.PostsImported)
	assert.Len(t, f.posts(t, "newtechs"), 1)
	assert.Empty(t, f.posts(t, "crypto-updates"))
}

func TestBloggerImporter_EntryErrorsDoNotStopTheSource(t *testing.T) {
	f := setupTestDB(t)
	bad := livePost("p-bad", "Bad Date")
	bad.published = "yesterday"
	fetcher := fakeFetcher{
		"export": atom(livePost("p-1", "Before"), bad, livePost("p-2", "After")),
	}

	report, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"export": "newtechs"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.PostsImported)
	assert.Equal(t, 1, report.BlogsProcessed)
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Error processing post in export: "), report.Errors[0])
}

// writingFetcher commits an unrelated change while the feed downloads.
type writingFetcher struct {
	fakeFetcher
	db *database.Database
}

func (w writingFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	err := w.db.DB.Model(&entities.Blog{}).Where("slug = ?", "crypto-updates").Update("tagline", "changed").Error
	if err != nil {
		return nil, err
	}
	return w.fakeFetcher.Fetch(ctx, source)
}

func TestBloggerImporter_ConcurrentWriteDuringFetch(t *testing.T) {
	f := setupTestDB(t)
	fetcher := writingFetcher{
		fakeFetcher: fakeFetcher{"export": atom(livePost("p-1", "Hello", "Go"))},
		db:          f.db,
	}

	report, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"export": "newtechs"})
	require.NoError(t, err)

	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.BlogsProcessed)
	assert.Equal(t, 1, report.PostsImported)
	assert.Len(t, f.posts(t, "newtechs"), 1)
}

func TestBloggerImporter_CommitFailureRollsBack(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{"export": atom(livePost("p-1", "Hello"))}
	begin := func(ctx context.Context) (UnitOfWork, error) {
		uow, err := Begin(f.db)(ctx)
		if err != nil {
			return nil, err
		}
		return failingCommit{uow}, nil
	}

	report, err := f.importer(fetcher, begin).Import(context.Background(), entities.ImportTriggerHTTP,
		map[string]string{"export": "newtechs"})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.Empty(t, f.posts(t, "newtechs"))

	var authors int64
	require.NoError(t, f.db.DB.Model(&entities.Author{}).Count(&authors).Error)
	assert.Zero(t, authors)

	runs, err := f.runs.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.ImportRunAborted, runs[0].Status)
}

func TestBloggerImporter_RecordsRun(t *testing.T) {
	f := setupTestDB(t)
	fetcher := fakeFetcher{"export": atom(livePost("p-1", "Hello", "Go"))}

	_, err := f.importer(fetcher, nil).Import(context.Background(), entities.ImportTriggerSchedule,
		map[string]string{"export": "newtechs", "gone": "missing"})
	require.NoError(t, err)

	runs, err := f.runs.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, entities.ImportRunCompleted, run.Status)
	assert.Equal(t, entities.ImportTriggerSchedule, run.Trigger)
	assert.Equal(t, 1, run.PostsImported)
	assert.Equal(t, 1, run.CategoriesCreated)
	assert.JSONEq(t, `["Blog 'missing' not found"]`, run.Errors)
	assert.NotNil(t, run.CompletedAt)
}

func TestBloggerImporter_Rejections(t *testing.T) {
	f := setupTestDB(t)
	importer := f.importer(fakeFetcher{}, nil)
	ctx := context.Background()

	t.Run("empty mapping", func(t *testing.T) {
		_, err := importer.Import(ctx, entities.ImportTriggerHTTP, nil)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "Blog mapping required", apperr.Message(err))
	})

	t.Run("run already in progress", func(t *testing.T) {
		release, err := f.locker.Acquire(ctx, LockKey)
		require.NoError(t, err)
		defer release(ctx)

		_, err = importer.Import(ctx, entities.ImportTriggerHTTP, map[string]string{"export": "newtechs"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("lock is released after a run", func(t *testing.T) {
		_, err := importer.Import(ctx, entities.ImportTriggerHTTP, map[string]string{"export": "newtechs"})
		require.NoError(t, err)

		release, err := f.locker.Acquire(ctx, LockKey)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	})
}
