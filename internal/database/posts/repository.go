// Package posts provides database operations for posts: paginated
// listing and search, rankings, view counters and post creation.
//
// # Usage
//
//	repo := posts.NewRepository(db)
//	page, err := repo.ListForBlog(ctx, blog.ID, posts.ListFilter{Page: 1, PerPage: 10})
//	views, err := repo.RecordView(ctx, postID)
package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/database/identity"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/textnorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListFilter narrows a blog's post listing. Status defaults to published.
type ListFilter struct {
	Page         int
	PerPage      int
	Status       entities.PostStatus
	CategorySlug string
}

// SearchFilter is a substring search over published posts. BlogID 0
// searches every blog.
type SearchFilter struct {
	Query   string
	BlogID  uint
	Page    int
	PerPage int
}

// Page is one page of posts with its pagination figures.
type Page struct {
	Posts   []entities.Post
	Page    int
	PerPage int
	Total   int64
}

func (p *Page) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *Page) HasNext() bool { return p.Page < p.Pages() }

func (p *Page) HasPrev() bool { return p.Page > 1 }

// Repository handles all post database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new posts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Blog").Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("categories.id")
	})
}

// ListForBlog pages through a blog's posts, newest first.
func (r *Repository) ListForBlog(ctx context.Context, blogID uint, filter ListFilter) (*Page, error) {
	status := filter.Status
	if status == "" {
		status = entities.PostStatusPublished
	}

	db := r.db.WithContext(ctx)
	q := db.Model(&entities.Post{}).Where("posts.blog_id = ? AND posts.status = ?", blogID, status)
	if filter.CategorySlug != "" {
		tagged := db.Table("post_categories").
			Select("post_categories.post_id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.blog_id = ? AND categories.slug = ?", blogID, filter.CategorySlug)
		q = q.Where("posts.id IN (?)", tagged)
	}
	return r.paginate(q, filter.Page, filter.PerPage)
}

// Search pages through published posts whose title, content or excerpt
// contains the query.
func (r *Repository) Search(ctx context.Context, filter SearchFilter) (*Page, error) {
	pattern := "%" + escapeLike(filter.Query) + "%"

	q := r.db.WithContext(ctx).Model(&entities.Post{}).
		Where("posts.status = ?", entities.PostStatusPublished).
		Where("(posts.title LIKE ? ESCAPE '!' OR posts.content LIKE ? ESCAPE '!' OR posts.excerpt LIKE ? ESCAPE '!')", pattern, pattern, pattern)
	if filter.BlogID != 0 {
		q = q.Where("posts.blog_id = ?", filter.BlogID)
	}
	return r.paginate(q, filter.Page, filter.PerPage)
}

func (r *Repository) paginate(q *gorm.DB, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	base := q.Session(&gorm.Session{})
	result := &Page{Page: page, PerPage: perPage}
	if err := base.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	err := r.withRelations(base).
		Order("posts.published_at DESC, posts.id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&result.Posts).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPublished returns a published post of the blog by slug.
func (r *Repository) GetPublished(ctx context.Context, blogID uint, slug string) (*entities.Post, error) {
	var post entities.Post
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("blog_id = ? AND slug = ? AND status = ?", blogID, slug, entities.PostStatusPublished).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Post")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Post, error) {
	var post entities.Post
	err := r.withRelations(r.db.WithContext(ctx)).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Post")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// RecordView increments the view counter in a single statement and
// returns the new count.
func (r *Repository) RecordView(ctx context.Context, postID uint) (int, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&entities.Post{}).Where("id = ?", postID).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, apperr.NotFound("Post")
	}

	var views int
	if err := db.Model(&entities.Post{}).Where("id = ?", postID).Select("views").Scan(&views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// Featured returns featured published posts, newest first.
func (r *Repository) Featured(ctx context.Context, limit int) ([]entities.Post, error) {
	var posts []entities.Post
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("status = ? AND is_featured = ?", entities.PostStatusPublished, true).
		Order("published_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Popular returns a blog's published posts with the most views.
func (r *Repository) Popular(ctx context.Context, blogID uint, limit int) ([]entities.Post, error) {
	var posts []entities.Post
	err := r.db.WithContext(ctx).
		Where("blog_id = ? AND status = ?", blogID, entities.PostStatusPublished).
		Order("views DESC, id").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// RelatedCounts holds post totals for the authors, blogs and categories
// referenced by a set of posts.
type RelatedCounts struct {
	Authors    map[uint]int64
	Blogs      map[uint]int64
	Categories map[uint]int64
}

// RelatedCounts counts posts per author, blog and category referenced by
// posts.
func (r *Repository) RelatedCounts(ctx context.Context, posts []entities.Post) (*RelatedCounts, error) {
	authorIDs := make(map[uint]struct{})
	blogIDs := make(map[uint]struct{})
	categoryIDs := make(map[uint]struct{})
	for _, post := range posts {
		authorIDs[post.AuthorID] = struct{}{}
		blogIDs[post.BlogID] = struct{}{}
		for _, category := range post.Categories {
			categoryIDs[category.ID] = struct{}{}
		}
	}

	db := r.db.WithContext(ctx)
	var counts RelatedCounts
	var err error
	if counts.Authors, err = countBy(db.Model(&entities.Post{}), "author_id", keys(authorIDs)); err != nil {
		return nil, err
	}
	if counts.Blogs, err = countBy(db.Model(&entities.Post{}), "blog_id", keys(blogIDs)); err != nil {
		return nil, err
	}
	if counts.Categories, err = countBy(db.Table("post_categories"), "category_id", keys(categoryIDs)); err != nil {
		return nil, err
	}
	return &counts, nil
}

// NewPost holds the fields accepted when creating a post through the API.
type NewPost struct {
	BlogID          uint
	Title           string
	Content         string
	Excerpt         string
	FeaturedImage   string
	AuthorName      string
	AuthorEmail     string
	Status          entities.PostStatus
	IsFeatured      bool
	MetaTitle       string
	MetaDescription string
	OriginURL       string
	OriginID        string
	PublishedAt     *time.Time
	Categories      []string
}

// DefaultAuthorName is used when a new post names no author.
const DefaultAuthorName = "Admin"

// Create stores a post, resolving its author and categories and giving it
// a slug unique within the blog. Everything is written in one transaction.
func (r *Repository) Create(ctx context.Context, input NewPost) (*entities.Post, error) {
	if strings.TrimSpace(input.Title) == "" || input.Content == "" {
		return nil, apperr.Validation("Title and content are required")
	}
	status := input.Status
	if status == "" {
		status = entities.PostStatusPublished
	}
	switch status {
	case entities.PostStatusDraft, entities.PostStatusPublished, entities.PostStatusArchived:
	default:
		return nil, apperr.Validation("Invalid post status")
	}
	authorName := strings.TrimSpace(input.AuthorName)
	if authorName == "" {
		authorName = DefaultAuthorName
	}
	publishedAt := time.Now().UTC()
	if input.PublishedAt != nil {
		publishedAt = input.PublishedAt.UTC()
	}

	var postID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blogs int64
		if err := tx.Model(&entities.Blog{}).Where("id = ?", input.BlogID).Count(&blogs).Error; err != nil {
			return err
		}
		if blogs == 0 {
			return apperr.NotFound("Blog")
		}

		ids := identity.NewRepository(tx)
		author, _, err := ids.ResolveAuthor(ctx, authorName, strings.TrimSpace(input.AuthorEmail))
		if err != nil {
			return err
		}

		post := &entities.Post{
			Title:           input.Title,
			Content:         input.Content,
			Excerpt:         input.Excerpt,
			FeaturedImage:   input.FeaturedImage,
			Status:          status,
			BlogID:          input.BlogID,
			AuthorID:        author.ID,
			IsFeatured:      input.IsFeatured,
			MetaTitle:       input.MetaTitle,
			MetaDescription: input.MetaDescription,
			OriginURL:       input.OriginURL,
			PublishedAt:     publishedAt,
		}
		if input.OriginID != "" {
			originID := input.OriginID
			post.OriginID = &originID
		}
		if err := ids.InsertPost(ctx, post, textnorm.Slugify(input.Title)); err != nil {
			if errors.Is(err, identity.ErrOriginExists) {
				return apperr.Conflict("Post with this origin id already exists")
			}
			return err
		}

		categories := make([]*entities.Category, 0, len(input.Categories))
		for _, name := range input.Categories {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			category, _, err := ids.ResolveCategory(ctx, input.BlogID, name)
			if err != nil {
				return err
			}
			categories = append(categories, category)
		}
		if err := ids.LinkCategories(ctx, post, categories); err != nil {
			return err
		}
		postID = post.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, postID)
}

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

func keys(set map[uint]struct{}) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
