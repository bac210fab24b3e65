// Package interfaces documents the core abstractions used throughout the application.
//
// Interfaces are declared by their consumers; checks.go pins the concrete
// implementations at compile time.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BlogStore, BlogFinder, BlogGetter, CatalogStore: blogs and the catalog (internal/http)
//   - PostStore, RankingStore: posts, views and rankings (internal/http)
//   - CommentStore: threaded comments and moderation (internal/http/comments.go)
//   - SubscriberStore: newsletter subscriptions (internal/http/newsletter.go)
//   - RunStore, importers.RunRecorder: import run history
//
// ## Import Pipeline Interfaces
//
//   - importers.Fetcher: loads a feed document (feed.Resolver reads files, http(s) and s3://)
//   - importers.UnitOfWork: the transaction a run writes through (database.UnitOfWork)
//   - lock.Locker: serializes runs (lock.Local in process, lock.Redis across instances)
//   - Importer: declared by internal/http, internal/tasks and internal/scheduler,
//     all satisfied by importers.BloggerImporter
//
// ## Background Work
//
//   - TaskEnqueuer, TaskStatusReader: the backlite task queue (tasks.Client)
//   - mailer.StatsProvider: newsletter delivery statistics
//
// # Adding a New Import Trigger
//
//  1. Declare the Importer interface in the consuming package
//
//     type Importer interface {
//         Import(ctx context.Context, trigger entities.ImportTrigger, mapping map[string]string) (*importers.Report, error)
//     }
//
//  2. Add an entities.ImportTrigger value so runs record where they came from
//
//  3. Pass the shared entrypoint.App.Importer in and add a check to checks.go
package interfaces
