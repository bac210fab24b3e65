// Package identity resolves the natural keys shared by post, author and
// category creation: authors by name, categories by (blog, name) and post
// slugs unique within a blog.
//
// Lookups run first; inserts that lose a race against a concurrent writer
// hit a unique index, and the winner is re-read.
//
// # Usage
//
// The repository is usually bound to a transaction:
//
//	repo := identity.NewRepository(tx)
//	author, created, err := repo.ResolveAuthor(ctx, "Jane Doe", "jane@example.com")
//	slug, err := repo.UniquePostSlug(ctx, blogID, "hello-world")
package identity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/textnorm"
)

// FallbackSlug is used when a title has no sluggable characters.
const FallbackSlug = "post"

// maxInsertAttempts bounds slug retries after unique violations.
const maxInsertAttempts = 5

// ErrOriginExists means a post with the same origin id is already stored.
var ErrOriginExists = errors.New("origin id already imported")

// Repository handles author, category and slug resolution.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new identity repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ResolveAuthor returns the author with exactly this name, lowest id first,
// creating one when none exists. An email already owned by another author
// is not reassigned; the new author is stored without one.
func (r *Repository) ResolveAuthor(ctx context.Context, name, email string) (*entities.Author, bool, error) {
	db := r.db.WithContext(ctx)

	author, err := r.authorByName(db, name)
	if err != nil || author != nil {
		return author, false, err
	}

	created := &entities.Author{Name: name}
	if email != "" {
		var owners int64
		if err := db.Model(&entities.Author{}).Where("email = ?", email).Count(&owners).Error; err != nil {
			return nil, false, err
		}
		if owners == 0 {
			created.Email = &email
		}
	}

	err = insert(db, created)
	if err == nil {
		return created, true, nil
	}
	if !apperr.IsUniqueViolation(err) {
		return nil, false, err
	}

	// Lost a race: either the name was created meanwhile or the email was taken.
	if author, err := r.authorByName(db, name); err != nil || author != nil {
		return author, false, err
	}
	created = &entities.Author{Name: name}
	if err := insert(db, created); err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *Repository) authorByName(db *gorm.DB, name string) (*entities.Author, error) {
	var author entities.Author
	err := db.Where("name = ?", name).Order("id").First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// ResolveCategory returns the blog's category with exactly this name,
// creating it with a slug derived from the name when absent.
func (r *Repository) ResolveCategory(ctx context.Context, blogID uint, name string) (*entities.Category, bool, error) {
	db := r.db.WithContext(ctx)

	category, err := r.categoryByName(db, blogID, name)
	if err != nil || category != nil {
		return category, false, err
	}

	created := &entities.Category{Name: name, Slug: textnorm.Slugify(name), BlogID: blogID}
	err = insert(db, created)
	if err == nil {
		return created, true, nil
	}
	if !apperr.IsUniqueViolation(err) {
		return nil, false, err
	}

	category, err = r.categoryByName(db, blogID, name)
	if err != nil {
		return nil, false, err
	}
	if category == nil {
		return nil, false, fmt.Errorf("category %q vanished after unique violation", name)
	}
	return category, false, nil
}

func (r *Repository) categoryByName(db *gorm.DB, blogID uint, name string) (*entities.Category, error) {
	var category entities.Category
	err := db.Where("blog_id = ? AND name = ?", blogID, name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// UniquePostSlug returns the first of base, base-1, base-2, ... that no
// post in the blog uses.
func (r *Repository) UniquePostSlug(ctx context.Context, blogID uint, base string) (string, error) {
	if base == "" {
		base = FallbackSlug
	}
	db := r.db.WithContext(ctx)

	slug := base
	for counter := 1; ; counter++ {
		var taken int64
		err := db.Model(&entities.Post{}).
			Where("blog_id = ? AND slug = ?", blogID, slug).
			Count(&taken).Error
		if err != nil {
			return "", err
		}
		if taken == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// OriginExists reports whether any post was imported from originID.
func (r *Repository) OriginExists(ctx context.Context, originID string) (bool, error) {
	if originID == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Post{}).Where("origin_id = ?", originID).Count(&count).Error
	return count > 0, err
}

// InsertPost stores post under the first free slug derived from base. A
// slug collision with a concurrent writer moves on to the next suffix; an
// origin id collision returns ErrOriginExists.
func (r *Repository) InsertPost(ctx context.Context, post *entities.Post, base string) error {
	db := r.db.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		slug, err := r.UniquePostSlug(ctx, post.BlogID, base)
		if err != nil {
			return err
		}
		post.Slug = slug

		lastErr = insert(db, post)
		if lastErr == nil {
			return nil
		}
		if !apperr.IsUniqueViolation(lastErr) {
			return lastErr
		}
		if post.OriginID != nil {
			exists, err := r.OriginExists(ctx, *post.OriginID)
			if err != nil {
				return err
			}
			if exists {
				return ErrOriginExists
			}
		}
	}
	return fmt.Errorf("no free slug for %q after %d attempts: %w", base, maxInsertAttempts, lastErr)
}

// LinkCategories attaches categories to post, ignoring links that exist.
func (r *Repository) LinkCategories(ctx context.Context, post *entities.Post, categories []*entities.Category) error {
	if len(categories) == 0 {
		return nil
	}
	links := make([]entities.PostCategory, 0, len(categories))
	for _, category := range categories {
		links = append(links, entities.PostCategory{PostID: post.ID, CategoryID: category.ID})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// insert creates value inside a savepoint so a constraint failure leaves
// the surrounding transaction usable.
func insert(db *gorm.DB, value any) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(value).Error
	})
}
