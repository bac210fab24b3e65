// Package blogs provides database operations for blogs and their
// categories, the fixed blog catalog and content totals.
//
// # Usage
//
//	repo := blogs.NewRepository(db)
//	blog, err := repo.GetActiveBySlug(ctx, "newtechs")
//	blogs, err := repo.SetupCatalog(ctx)
package blogs

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/textnorm"
)

// NewBlog holds the fields accepted when creating a blog.
type NewBlog struct {
	Name           string
	Title          string
	Description    string
	Tagline        string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
}

// Repository handles all blog and category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new blogs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the active blogs in id order.
func (r *Repository) ListActive(ctx context.Context) ([]entities.Blog, error) {
	var blogs []entities.Blog
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&blogs).Error
	return blogs, err
}

// GetActiveBySlug returns an active blog or a not-found error.
func (r *Repository) GetActiveBySlug(ctx context.Context, slug string) (*entities.Blog, error) {
	return r.first(ctx, "slug = ? AND is_active = ?", slug, true)
}

// GetBySlug returns a blog regardless of its active flag.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*entities.Blog, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Blog, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*entities.Blog, error) {
	var blog entities.Blog
	err := r.db.WithContext(ctx).Where(query, args...).First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Blog")
	}
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// Create stores a blog whose slug is derived from its name. A taken slug
// or name is a conflict.
func (r *Repository) Create(ctx context.Context, input NewBlog) (*entities.Blog, error) {
	name := strings.TrimSpace(input.Name)
	slug := textnorm.Slugify(name)
	if slug == "" {
		return nil, apperr.Validation("Blog name is required")
	}

	db := r.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&entities.Blog{}).Where("slug = ?", slug).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperr.Conflict("Blog with this name already exists")
	}

	blog := &entities.Blog{
		Name:           name,
		Slug:           slug,
		Title:          input.Title,
		Description:    input.Description,
		Tagline:        input.Tagline,
		LogoURL:        input.LogoURL,
		PrimaryColor:   input.PrimaryColor,
		SecondaryColor: input.SecondaryColor,
		IsActive:       true,
	}
	if blog.Title == "" {
		blog.Title = name
	}
	if err := db.Create(blog).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Blog with this name already exists")
		}
		return nil, err
	}
	return blog, nil
}

// PostCounts returns the number of posts of any status per blog id.
func (r *Repository) PostCounts(ctx context.Context, blogIDs []uint) (map[uint]int64, error) {
	return countBy(r.db.WithContext(ctx).Model(&entities.Post{}), "blog_id", blogIDs)
}

// Categories returns a blog's categories in id order.
func (r *Repository) Categories(ctx context.Context, blogID uint) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Where("blog_id = ?", blogID).Order("id").Find(&categories).Error
	return categories, err
}

// CategoryPostCounts returns the number of linked posts per category id.
func (r *Repository) CategoryPostCounts(ctx context.Context, categoryIDs []uint) (map[uint]int64, error) {
	return countBy(r.db.WithContext(ctx).Table("post_categories"), "category_id", categoryIDs)
}

// countBy groups rows of q by column, restricted to ids.
func countBy(q *gorm.DB, column string, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		GroupKey uint
		Count    int64
	}
	err := q.Select(column+" AS group_key, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.GroupKey] = row.Count
	}
	return counts, nil
}
