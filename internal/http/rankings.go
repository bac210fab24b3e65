package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/database/posts"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/textnorm"
)

const (
	defaultPopularLimit   = 5
	defaultTimeframe      = "week"
	trendingExcerptLength = 200
	popularExcerptLength  = 150
)

// RankingStore provides the ranking queries and the view counter.
type RankingStore interface {
	Trending(ctx context.Context, filter posts.TrendingFilter) ([]posts.Ranked, error)
	Popular(ctx context.Context, blogID uint, limit int) ([]entities.Post, error)
	RecordView(ctx context.Context, postID uint) (int, error)
}

// BlogGetter looks a blog up by slug regardless of its active flag.
type BlogGetter interface {
	GetBySlug(ctx context.Context, slug string) (*entities.Blog, error)
}

// RankingsController serves trending and popular posts and records views.
type RankingsController struct {
	posts  RankingStore
	blogs  BlogGetter
	logger *zap.Logger
	now    func() time.Time
}

func NewRankingsController(posts RankingStore, blogs BlogGetter, logger *zap.Logger) *RankingsController {
	return &RankingsController{posts: posts, blogs: blogs, logger: logger, now: time.Now}
}

// RankedBlog is the blog summary embedded in ranked posts.
type RankedBlog struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

// TrendingPost is one entry of GET /api/trending-posts.
type TrendingPost struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Blog          RankedBlog `json:"blog"`
	Author        string     `json:"author"`
	PublishedAt   *time.Time `json:"publishedAt"`
	ReadTime      int        `json:"readTime"`
	Views         int        `json:"views"`
	FeaturedImage string     `json:"featuredImage"`
	TrendingScore int64      `json:"trending_score"`
}

// PopularPost is one entry of GET /api/popular-posts/:blog_slug.
type PopularPost struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Views         int        `json:"views"`
	PublishedAt   *time.Time `json:"publishedAt"`
	ReadTime      int        `json:"readTime"`
	FeaturedImage string     `json:"featuredImage"`
}

// PostViewRequest is the body of POST /api/analytics/post-view. post_id
// may be sent as a number or a string.
type PostViewRequest struct {
	PostID json.RawMessage `json:"post_id"`
}

// timeframeStart returns the start of the ranking window. "all" and
// unknown timeframes cover all time.
func timeframeStart(timeframe string, now time.Time) time.Time {
	switch timeframe {
	case "day":
		return now.Add(-24 * time.Hour)
	case "week":
		return now.Add(-7 * 24 * time.Hour)
	case "month":
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// Trending handles GET /api/trending-posts
func (rc *RankingsController) Trending(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", defaultTimeframe)

	ranked, err := rc.posts.Trending(c.Request.Context(), posts.TrendingFilter{
		Limit:    queryLimit(c, posts.DefaultTrendingSize, maxListLimit),
		Since:    timeframeStart(timeframe, rc.now().UTC()),
		BlogSlug: c.Query("blog"),
	})
	if err != nil {
		respondInternalError(c, rc.logger, err, "trending posts")
		return
	}

	out := make([]TrendingPost, 0, len(ranked))
	for _, item := range ranked {
		post := item.Post
		out = append(out, TrendingPost{
			ID:      post.ID,
			Title:   post.Title,
			Slug:    post.Slug,
			Excerpt: fallbackExcerpt(post, trendingExcerptLength),
			Blog: RankedBlog{
				Name:  post.Blog.Title,
				Slug:  post.Blog.Slug,
				Color: post.Blog.PrimaryColor,
			},
			Author:        post.Author.Name,
			PublishedAt:   isoTimePtr(post.PublishedAt),
			ReadTime:      textnorm.EstimateReadMinutes(post.Content),
			Views:         post.Views,
			FeaturedImage: post.FeaturedImage,
			TrendingScore: item.Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"posts":     out,
		"timeframe": timeframe,
		"total":     len(out),
	})
}

// Popular handles GET /api/popular-posts/:blog_slug
func (rc *RankingsController) Popular(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := rc.blogs.GetBySlug(ctx, c.Param("blog_slug"))
	if err != nil {
		respondAppError(c, rc.logger, err, "get blog")
		return
	}

	list, err := rc.posts.Popular(ctx, blog.ID, queryLimit(c, defaultPopularLimit, maxListLimit))
	if err != nil {
		respondInternalError(c, rc.logger, err, "popular posts")
		return
	}

	out := make([]PopularPost, 0, len(list))
	for _, post := range list {
		out = append(out, PopularPost{
			ID:            post.ID,
			Title:         post.Title,
			Slug:          post.Slug,
			Excerpt:       fallbackExcerpt(post, popularExcerptLength),
			Views:         post.Views,
			PublishedAt:   isoTimePtr(post.PublishedAt),
			ReadTime:      textnorm.EstimateReadMinutes(post.Content),
			FeaturedImage: post.FeaturedImage,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"posts":   out,
		"blog":    RankedBlog{Name: blog.Title, Slug: blog.Slug},
	})
}

// RecordView handles POST /api/analytics/post-view
func (rc *RankingsController) RecordView(c *gin.Context) {
	var req PostViewRequest
	_ = c.ShouldBindJSON(&req)

	postID, ok := parsePostID(req.PostID)
	if !ok {
		respondBadRequest(c, "Post ID is required")
		return
	}

	views, err := rc.posts.RecordView(c.Request.Context(), postID)
	if err != nil {
		respondAppError(c, rc.logger, err, "record view")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"views":   views,
	})
}

// parsePostID accepts 42 or "42". Zero and anything else is rejected.
func parsePostID(raw json.RawMessage) (uint, bool) {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
