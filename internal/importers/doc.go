// Package importers migrates Blogger Atom exports into the blog store.
//
// # Architecture
//
// An import run follows a simple flow:
//
//	mapping → resolve blogs → fetch feeds → feed.Reader → identity → UnitOfWork.Commit
//
// The caller supplies a mapping from source identifier to blog slug. Feeds
// are fetched concurrently, then imported one source at a time in source
// id order. Each source and each entry run in their own savepoint:
//
//   - a missing blog or unavailable feed is recorded and the source skipped
//   - a malformed document rolls back everything the source wrote
//   - a failing entry rolls back only that entry
//
// Entries whose origin id is already stored are skipped, which makes
// re-running an import safe. The run commits once at the end; a failed
// commit leaves nothing behind and is returned as a storage error.
//
// Runs are serialized by a lock.Locker and recorded as entities.ImportRun
// rows when a RunRecorder is configured.
//
// # Example Usage
//
//	importer := importers.NewBloggerImporter(
//		importers.Begin(db),
//		feed.NewResolver(cfg.Feed),
//		lock.NewLocal(),
//		logger,
//		importers.WithRunRecorder(importruns.NewRepository(db.DB)),
//	)
//
//	report, err := importer.Import(ctx, entities.ImportTriggerCLI, map[string]string{
//		"newtechs-export": "newtechs",
//	})
package importers
