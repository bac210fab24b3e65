// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite, postgres, mysql), migrations
//	├── unit_of_work.go  # Explicit transactions with savepoint staging
//	├── identity/        # Author, category and post slug resolution
//	├── blogs/           # Blogs, the blog catalog seed and content totals
//	├── posts/           # Post listing, search, rankings and view counters
//	├── comments/        # Threaded comments and moderation
//	├── newsletter/      # Newsletter subscriptions and statistics
//	└── importruns/      # Import run history
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(cfg.Database, logger)
//
//	blogsRepo := blogs.NewRepository(db.DB)
//	postsRepo := posts.NewRepository(db.DB)
//
//	blog, err := blogsRepo.GetActiveBySlug(ctx, "newtechs")
//	page, err := postsRepo.ListForBlog(ctx, blog.ID, posts.ListFilter{Page: 1, PerPage: 10})
//
// # Transactions
//
// Writes that must land together go through a UnitOfWork:
//
//	uow, err := db.Begin(ctx)
//	defer uow.Rollback()
//	err = uow.Stage(func(tx *gorm.DB) error { ... })
//	err = uow.Commit()
//
// Repositories accept the transaction handle from Tx or Stage where an
// operation has to join the caller's transaction.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the store interface the HTTP layer declares
//  5. Add a compile-time check in internal/interfaces
package database
