package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/database/blogs"
	"github.com/newtechs/backend/internal/entities"
)

// BlogStore provides blog and category access for the blog endpoints.
type BlogStore interface {
	ListActive(ctx context.Context) ([]entities.Blog, error)
	GetActiveBySlug(ctx context.Context, slug string) (*entities.Blog, error)
	Create(ctx context.Context, input blogs.NewBlog) (*entities.Blog, error)
	PostCounts(ctx context.Context, blogIDs []uint) (map[uint]int64, error)
	Categories(ctx context.Context, blogID uint) ([]entities.Category, error)
	CategoryPostCounts(ctx context.Context, categoryIDs []uint) (map[uint]int64, error)
}

type BlogsController struct {
	store  BlogStore
	logger *zap.Logger
}

func NewBlogsController(store BlogStore, logger *zap.Logger) *BlogsController {
	return &BlogsController{store: store, logger: logger}
}

// CreateBlogRequest is the body of POST /blogs.
type CreateBlogRequest struct {
	Name           string `json:"name" binding:"required"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Tagline        string `json:"tagline"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

// List handles GET /blogs
func (bc *BlogsController) List(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := bc.store.ListActive(ctx)
	if err != nil {
		respondInternalError(c, bc.logger, err, "list blogs")
		return
	}

	counts, err := bc.store.PostCounts(ctx, blogIDs(list))
	if err != nil {
		respondInternalError(c, bc.logger, err, "count blog posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"blogs":   newBlogResponses(list, counts),
	})
}

// Get handles GET /blogs/:slug
func (bc *BlogsController) Get(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := bc.store.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondAppError(c, bc.logger, err, "get blog")
		return
	}

	counts, err := bc.store.PostCounts(ctx, []uint{blog.ID})
	if err != nil {
		respondInternalError(c, bc.logger, err, "count blog posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"blog":    newBlogResponse(*blog, counts[blog.ID]),
	})
}

// Create handles POST /blogs
func (bc *BlogsController) Create(c *gin.Context) {
	var req CreateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Blog name is required")
		return
	}

	blog, err := bc.store.Create(c.Request.Context(), blogs.NewBlog{
		Name:           req.Name,
		Title:          req.Title,
		Description:    req.Description,
		Tagline:        req.Tagline,
		LogoURL:        req.LogoURL,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
	})
	if err != nil {
		respondAppError(c, bc.logger, err, "create blog")
		return
	}

	bc.logger.Info("Blog created", zap.String("slug", blog.Slug))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"blog":    newBlogResponse(*blog, 0),
	})
}

// Categories handles GET /blogs/:slug/categories
func (bc *BlogsController) Categories(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := bc.store.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondAppError(c, bc.logger, err, "get blog")
		return
	}

	categories, err := bc.store.Categories(ctx, blog.ID)
	if err != nil {
		respondInternalError(c, bc.logger, err, "list categories")
		return
	}

	ids := make([]uint, len(categories))
	for i, category := range categories {
		ids[i] = category.ID
	}
	counts, err := bc.store.CategoryPostCounts(ctx, ids)
	if err != nil {
		respondInternalError(c, bc.logger, err, "count category posts")
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, newCategoryResponse(category, counts[category.ID]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": out,
	})
}

func blogIDs(list []entities.Blog) []uint {
	ids := make([]uint, len(list))
	for i, blog := range list {
		ids[i] = blog.ID
	}
	return ids
}
