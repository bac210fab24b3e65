package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/database/posts"
	"github.com/newtechs/backend/internal/entities"
)

const (
	defaultFeaturedLimit = 6
	maxListLimit         = 100
)

// PostStore provides post access for the post endpoints.
type PostStore interface {
	ListForBlog(ctx context.Context, blogID uint, filter posts.ListFilter) (*posts.Page, error)
	Search(ctx context.Context, filter posts.SearchFilter) (*posts.Page, error)
	GetPublished(ctx context.Context, blogID uint, slug string) (*entities.Post, error)
	RecordView(ctx context.Context, postID uint) (int, error)
	Featured(ctx context.Context, limit int) ([]entities.Post, error)
	RelatedCounts(ctx context.Context, list []entities.Post) (*posts.RelatedCounts, error)
	Create(ctx context.Context, input posts.NewPost) (*entities.Post, error)
}

// BlogFinder looks blogs up by slug.
type BlogFinder interface {
	GetActiveBySlug(ctx context.Context, slug string) (*entities.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*entities.Blog, error)
}

type PostsController struct {
	posts  PostStore
	blogs  BlogFinder
	logger *zap.Logger
}

func NewPostsController(posts PostStore, blogs BlogFinder, logger *zap.Logger) *PostsController {
	return &PostsController{posts: posts, blogs: blogs, logger: logger}
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	BlogID          uint     `json:"blog_id" binding:"required"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	FeaturedImage   string   `json:"featured_image"`
	AuthorName      string   `json:"author_name"`
	AuthorEmail     string   `json:"author_email"`
	Status          string   `json:"status"`
	IsFeatured      bool     `json:"is_featured"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	OriginalURL     string   `json:"original_url"`
	OriginalID      string   `json:"original_id"`
	PublishedAt     string   `json:"published_at"`
	Categories      []string `json:"categories"`
}

// List handles GET /blogs/:slug/posts
func (pc *PostsController) List(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := pc.blogs.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondAppError(c, pc.logger, err, "get blog")
		return
	}

	page, err := pc.posts.ListForBlog(ctx, blog.ID, posts.ListFilter{
		Page:         queryInt(c, "page", 1),
		PerPage:      queryInt(c, "per_page", posts.DefaultPerPage),
		Status:       entities.PostStatus(c.DefaultQuery("status", string(entities.PostStatusPublished))),
		CategorySlug: c.Query("category"),
	})
	if err != nil {
		respondInternalError(c, pc.logger, err, "list posts")
		return
	}

	pc.respondPage(c, page, nil)
}

// Get handles GET /blogs/:slug/posts/:post_slug
// Each successful read counts as a view.
func (pc *PostsController) Get(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := pc.blogs.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondAppError(c, pc.logger, err, "get blog")
		return
	}

	post, err := pc.posts.GetPublished(ctx, blog.ID, c.Param("post_slug"))
	if err != nil {
		respondAppError(c, pc.logger, err, "get post")
		return
	}

	views, err := pc.posts.RecordView(ctx, post.ID)
	if err != nil {
		respondAppError(c, pc.logger, err, "record view")
		return
	}
	post.Views = views

	counts, err := pc.posts.RelatedCounts(ctx, []entities.Post{*post})
	if err != nil {
		respondInternalError(c, pc.logger, err, "count related posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"post":    newPostResponse(*post, counts, true),
	})
}

// Create handles POST /posts
func (pc *PostsController) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "blog_id is required")
		return
	}

	var publishedAt *time.Time
	if req.PublishedAt != "" {
		parsed, err := parseTimestamp(req.PublishedAt)
		if err != nil {
			respondBadRequest(c, "Invalid published_at")
			return
		}
		publishedAt = &parsed
	}

	ctx := c.Request.Context()
	post, err := pc.posts.Create(ctx, posts.NewPost{
		BlogID:          req.BlogID,
		Title:           req.Title,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		FeaturedImage:   req.FeaturedImage,
		AuthorName:      req.AuthorName,
		AuthorEmail:     req.AuthorEmail,
		Status:          entities.PostStatus(req.Status),
		IsFeatured:      req.IsFeatured,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		OriginURL:       req.OriginalURL,
		OriginID:        req.OriginalID,
		PublishedAt:     publishedAt,
		Categories:      req.Categories,
	})
	if err != nil {
		respondAppError(c, pc.logger, err, "create post")
		return
	}

	counts, err := pc.posts.RelatedCounts(ctx, []entities.Post{*post})
	if err != nil {
		respondInternalError(c, pc.logger, err, "count related posts")
		return
	}

	pc.logger.Info("Post created", zap.Uint("blog_id", post.BlogID), zap.String("slug", post.Slug))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"post":    newPostResponse(*post, counts, false),
	})
}

// Featured handles GET /featured-posts
func (pc *PostsController) Featured(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := pc.posts.Featured(ctx, queryLimit(c, defaultFeaturedLimit, maxListLimit))
	if err != nil {
		respondInternalError(c, pc.logger, err, "list featured posts")
		return
	}

	counts, err := pc.posts.RelatedCounts(ctx, list)
	if err != nil {
		respondInternalError(c, pc.logger, err, "count related posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"posts":   newPostResponses(list, counts),
	})
}

// Search handles GET /search
// An unknown blog filter is ignored.
func (pc *PostsController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "Search query required")
		return
	}

	ctx := c.Request.Context()
	filter := posts.SearchFilter{
		Query:   query,
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", posts.DefaultPerPage),
	}
	if slug := c.Query("blog"); slug != "" {
		blog, err := pc.blogs.GetBySlug(ctx, slug)
		switch {
		case err == nil:
			filter.BlogID = blog.ID
		case !errors.Is(err, apperr.ErrNotFound):
			respondInternalError(c, pc.logger, err, "get blog")
			return
		}
	}

	page, err := pc.posts.Search(ctx, filter)
	if err != nil {
		respondInternalError(c, pc.logger, err, "search posts")
		return
	}

	pc.respondPage(c, page, gin.H{"query": query})
}

func (pc *PostsController) respondPage(c *gin.Context, page *posts.Page, extra gin.H) {
	counts, err := pc.posts.RelatedCounts(c.Request.Context(), page.Posts)
	if err != nil {
		respondInternalError(c, pc.logger, err, "count related posts")
		return
	}

	body := gin.H{
		"success":    true,
		"posts":      newPostResponses(page.Posts, counts),
		"pagination": newPagination(page),
	}
	for key, value := range extra {
		body[key] = value
	}
	c.JSON(http.StatusOK, body)
}

// timestampLayouts are the accepted forms of published_at. Values without
// an offset are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
