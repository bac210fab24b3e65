package importers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/database/identity"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/feed"
	"github.com/newtechs/backend/internal/lock"
	"github.com/newtechs/backend/internal/textnorm"
)

const (
	instrumentationName = "github.com/newtechs/backend/internal/importers"

	// LockKey serializes Blogger import runs.
	LockKey = "blogger-import"

	DefaultFetchConcurrency = 4
)

// Fetcher loads the raw feed document for a source identifier.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// UnitOfWork is the transaction an import run writes through.
type UnitOfWork interface {
	Tx() *gorm.DB
	Stage(fn func(tx *gorm.DB) error) error
	Commit() error
	Rollback() error
}

// BeginFunc opens the unit of work for one run.
type BeginFunc func(ctx context.Context) (UnitOfWork, error)

// RunRecorder persists the history of import runs.
type RunRecorder interface {
	Start(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*entities.ImportRun, error)
	Finish(ctx context.Context, run *entities.ImportRun, errs []string) error
}

// Begin adapts a database to a BeginFunc.
func Begin(db *database.Database) BeginFunc {
	return func(ctx context.Context) (UnitOfWork, error) {
		uow, err := db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return uow, nil
	}
}

type Option func(*BloggerImporter)

// WithRunRecorder stores a history row for every run.
func WithRunRecorder(runs RunRecorder) Option {
	return func(i *BloggerImporter) { i.runs = runs }
}

// WithFetchConcurrency bounds how many feeds are downloaded at once.
func WithFetchConcurrency(n int) Option {
	return func(i *BloggerImporter) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *BloggerImporter) { i.tracer = tracer }
}

// WithMeter overrides the global meter.
func WithMeter(meter metric.Meter) Option {
	return func(i *BloggerImporter) { i.posts = newPostCounter(meter) }
}

// BloggerImporter migrates Blogger Atom exports into blogs. A run writes
// through a single transaction: each source and each entry get their own
// savepoint, and nothing is visible until the final commit.
type BloggerImporter struct {
	begin       BeginFunc
	fetcher     Fetcher
	locker      lock.Locker
	runs        RunRecorder
	logger      *zap.Logger
	concurrency int
	tracer      trace.Tracer
	posts       metric.Int64Counter
}

func NewBloggerImporter(begin BeginFunc, fetcher Fetcher, locker lock.Locker, logger *zap.Logger, opts ...Option) *BloggerImporter {
	i := &BloggerImporter{
		begin:       begin,
		fetcher:     fetcher,
		locker:      locker,
		logger:      logger,
		concurrency: DefaultFetchConcurrency,
		tracer:      otel.Tracer(instrumentationName),
		posts:       newPostCounter(otel.Meter(instrumentationName)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func newPostCounter(meter metric.Meter) metric.Int64Counter {
	counter, _ := meter.Int64Counter("newtechs.import.posts",
		metric.WithDescription("Imported feed entries by outcome"),
		metric.WithUnit("{post}"),
	)
	return counter
}

// source is one mapping entry with its resolved blog and loaded feed.
type source struct {
	id         string
	slug       string
	blog       *entities.Blog
	unresolved string // report line when the blog could not be resolved
	data       []byte
	err        error
}

// Import runs the migration for mapping (source identifier to blog slug).
// Per-source and per-entry failures are recorded in the report. An error is
// returned only when the run as a whole cannot start or commit, in which
// case nothing is persisted.
func (i *BloggerImporter) Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*Report, error) {
	if len(mapping) == 0 {
		return nil, apperr.Validation("Blog mapping required")
	}

	release, err := i.locker.Acquire(ctx, LockKey)
	if errors.Is(err, lock.ErrHeld) {
		return nil, apperr.Conflict("An import is already running")
	}
	if err != nil {
		return nil, apperr.Storage("failed to acquire import lock", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			i.logger.Warn("Failed to release import lock", zap.Error(err))
		}
	}()

	ctx, span := i.tracer.Start(ctx, "blogger.import",
		trace.WithAttributes(
			attribute.String("import.trigger", string(trigger)),
			attribute.Int("import.sources", len(mapping)),
		))
	defer span.End()

	var run *entities.ImportRun
	if i.runs != nil {
		run, err = i.runs.Start(ctx, trigger, mapping)
		if err != nil {
			return nil, apperr.Storage("failed to record import run", err)
		}
	}

	report, err := i.execute(ctx, mapping)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.finish(ctx, run, entities.ImportRunAborted, newReport(), []string{err.Error()})
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("import.posts_imported", report.PostsImported),
		attribute.Int("import.posts_skipped", report.PostsSkipped),
		attribute.Int("import.errors", len(report.Errors)),
	)
	i.finish(ctx, run, entities.ImportRunCompleted, report, report.Errors)
	i.logger.Info("Blogger import completed",
		zap.String("trigger", string(trigger)),
		zap.Int("blogs_processed", report.BlogsProcessed),
		zap.Int("posts_imported", report.PostsImported),
		zap.Int("posts_skipped", report.PostsSkipped),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (i *BloggerImporter) execute(ctx context.Context, mapping map[string]string) (*Report, error) {
	sources := newSources(mapping)
	// No network I/O while the transaction holds the write lock.
	i.fetchAll(ctx, sources)

	uow, err := i.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	report := newReport()
	i.resolveBlogs(ctx, uow.Tx(), sources)

	for _, src := range sources {
		if src.blog == nil {
			report.Errors = append(report.Errors, src.unresolved)
			continue
		}
		i.importSource(ctx, uow, src, report)
	}

	if err := uow.Commit(); err != nil {
		i.logger.Error("Failed to commit import run", zap.Error(err))
		if !errors.Is(err, apperr.ErrStorage) {
			err = apperr.Storage("failed to commit import run", err)
		}
		return nil, err
	}
	return report, nil
}

// newSources lists the sources of mapping sorted by id so that errors come
// out in a stable order.
func newSources(mapping map[string]string) []*source {
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources := make([]*source, 0, len(ids))
	for _, id := range ids {
		sources = append(sources, &source{id: id, slug: strings.TrimSpace(mapping[id])})
	}
	return sources
}

// resolveBlogs looks up the target blog of every source.
func (i *BloggerImporter) resolveBlogs(ctx context.Context, tx *gorm.DB, sources []*source) {
	repo := blogs.NewRepository(tx)
	for _, src := range sources {
		blog, err := repo.GetBySlug(ctx, src.slug)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			src.unresolved = fmt.Sprintf("Blog '%s' not found", src.slug)
		case err != nil:
			src.unresolved = fmt.Sprintf("Error processing blog %s: %v", src.id, err)
		default:
			src.blog = blog
		}
	}
}

// fetchAll downloads the feeds of all sources concurrently. Failures are
// kept on the source rather than cancelling the others.
func (i *BloggerImporter) fetchAll(ctx context.Context, sources []*source) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for _, src := range sources {
		g.Go(func() error {
			src.data, src.err = i.fetcher.Fetch(gctx, src.id)
			return nil
		})
	}
	_ = g.Wait()
}

func (i *BloggerImporter) importSource(ctx context.Context, uow UnitOfWork, src *source, report *Report) {
	ctx, span := i.tracer.Start(ctx, "blogger.import.source",
		trace.WithAttributes(
			attribute.String("import.source", src.id),
			attribute.String("import.blog", src.blog.Slug),
		))
	defer span.End()

	if src.err != nil {
		span.RecordError(src.err)
		var unavailable *feed.SourceUnavailableError
		if errors.As(src.err, &unavailable) {
			report.addError("%s", unavailable.Error())
		} else {
			report.addError("Error processing blog %s: %v", src.id, src.err)
		}
		return
	}

	var counts tally
	err := uow.Stage(func(tx *gorm.DB) error {
		return i.importEntries(ctx, tx, src, &counts)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Warn("Import source rolled back", zap.String("source", src.id), zap.Error(err))
		report.Errors = append(report.Errors, counts.errors...)
		report.addError("Error processing blog %s: %v", src.id, err)
		return
	}

	report.merge(counts)
	report.BlogsProcessed++
}

// importEntries walks the feed of one source. Entry failures are recorded
// and skipped; an unreadable document aborts the source.
func (i *BloggerImporter) importEntries(ctx context.Context, tx *gorm.DB, src *source, counts *tally) error {
	reader := feed.NewReader(bytes.NewReader(src.data))
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var entryErr *feed.EntryError
		if errors.As(err, &entryErr) {
			i.fail(ctx, counts, src.id, err)
			continue
		}
		if err != nil {
			return err
		}

		var delta tally
		err = tx.Transaction(func(etx *gorm.DB) error {
			return i.importEntry(ctx, etx, src.blog, entry, &delta)
		})
		if err != nil {
			i.fail(ctx, counts, src.id, err)
			continue
		}
		counts.add(delta)
		outcome := "imported"
		if delta.skipped > 0 {
			outcome = "skipped"
		}
		i.posts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (i *BloggerImporter) fail(ctx context.Context, counts *tally, sourceID string, err error) {
	counts.errors = append(counts.errors, "Error processing post in "+sourceID+": "+err.Error())
	i.posts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
}

func (i *BloggerImporter) importEntry(ctx context.Context, tx *gorm.DB, blog *entities.Blog, entry feed.Entry, delta *tally) error {
	ids := identity.NewRepository(tx)

	exists, err := ids.OriginExists(ctx, entry.OriginID)
	if err != nil {
		return err
	}
	if exists {
		delta.skipped++
		return nil
	}

	content := textnorm.SanitizeMarkup(entry.Content)
	excerpt := textnorm.Excerpt(content)

	author, created, err := ids.ResolveAuthor(ctx, entry.AuthorName, entry.AuthorEmail)
	if err != nil {
		return err
	}
	if created {
		delta.authors++
	}

	post := &entities.Post{
		Title:           entry.Title,
		Content:         content,
		Excerpt:         excerpt,
		Status:          entities.PostStatusPublished,
		BlogID:          blog.ID,
		AuthorID:        author.ID,
		MetaTitle:       entry.Title,
		MetaDescription: excerpt,
		OriginURL:       entry.OriginURL,
		PublishedAt:     entry.Published,
	}
	if entry.OriginID != "" {
		originID := entry.OriginID
		post.OriginID = &originID
	}
	if err := ids.InsertPost(ctx, post, textnorm.Slugify(entry.Title)); err != nil {
		if errors.Is(err, identity.ErrOriginExists) {
			delta.skipped++
			return nil
		}
		return err
	}

	categories := make([]*entities.Category, 0, len(entry.Categories))
	for _, term := range entry.Categories {
		category, created, err := ids.ResolveCategory(ctx, blog.ID, term)
		if err != nil {
			return err
		}
		if created {
			delta.categories++
		}
		categories = append(categories, category)
	}
	if err := ids.LinkCategories(ctx, post, categories); err != nil {
		return err
	}

	delta.imported++
	return nil
}

func (i *BloggerImporter) finish(ctx context.Context, run *entities.ImportRun, status entities.ImportRunStatus, report *Report, errs []string) {
	if run == nil {
		return
	}
	run.Status = status
	run.BlogsProcessed = report.BlogsProcessed
	run.PostsImported = report.PostsImported
	run.PostsSkipped = report.PostsSkipped
	run.CategoriesCreated = report.CategoriesCreated
	run.AuthorsCreated = report.AuthorsCreated
	if err := i.runs.Finish(context.WithoutCancel(ctx), run, errs); err != nil {
		i.logger.Error("Failed to record import run result", zap.Uint("run_id", run.ID), zap.Error(err))
	}
}
