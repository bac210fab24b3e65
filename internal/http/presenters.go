package http

import (
	"time"

	"github.com/newtechs/backend/internal/database/posts"
	"github.com/newtechs/backend/internal/entities"
)

// BlogResponse is the public representation of a blog.
type BlogResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Tagline        string    `json:"tagline"`
	LogoURL        string    `json:"logo_url"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	PostCount      int64     `json:"post_count"`
}

// CategoryResponse is the public representation of a category.
type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	BlogID      uint      `json:"blog_id"`
	CreatedAt   time.Time `json:"created_at"`
	PostCount   int64     `json:"post_count"`
}

// AuthorResponse is the public representation of an author.
type AuthorResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	PostCount int64     `json:"post_count"`
}

// PostResponse is the public representation of a post. Content is only
// set on the detail endpoint.
type PostResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Slug            string             `json:"slug"`
	Excerpt         string             `json:"excerpt"`
	FeaturedImage   string             `json:"featured_image"`
	Status          string             `json:"status"`
	BlogID          uint               `json:"blog_id"`
	AuthorID        uint               `json:"author_id"`
	Views           int                `json:"views"`
	IsFeatured      bool               `json:"is_featured"`
	MetaTitle       string             `json:"meta_title"`
	MetaDescription string             `json:"meta_description"`
	PublishedAt     time.Time          `json:"published_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Author          *AuthorResponse    `json:"author"`
	Blog            *BlogResponse      `json:"blog"`
	Categories      []CategoryResponse `json:"categories"`
	Content         *string            `json:"content,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

func newBlogResponse(blog entities.Blog, postCount int64) BlogResponse {
	return BlogResponse{
		ID:             blog.ID,
		Name:           blog.Name,
		Slug:           blog.Slug,
		Title:          blog.Title,
		Description:    blog.Description,
		Tagline:        blog.Tagline,
		LogoURL:        blog.LogoURL,
		PrimaryColor:   blog.PrimaryColor,
		SecondaryColor: blog.SecondaryColor,
		IsActive:       blog.IsActive,
		CreatedAt:      blog.CreatedAt,
		UpdatedAt:      blog.UpdatedAt,
		PostCount:      postCount,
	}
}

func newBlogResponses(list []entities.Blog, postCounts map[uint]int64) []BlogResponse {
	out := make([]BlogResponse, 0, len(list))
	for _, blog := range list {
		out = append(out, newBlogResponse(blog, postCounts[blog.ID]))
	}
	return out
}

func newCategoryResponse(category entities.Category, postCount int64) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		BlogID:      category.BlogID,
		CreatedAt:   category.CreatedAt,
		PostCount:   postCount,
	}
}

func newAuthorResponse(author entities.Author, postCount int64) AuthorResponse {
	return AuthorResponse{
		ID:        author.ID,
		Name:      author.Name,
		Email:     author.Email,
		Bio:       author.Bio,
		AvatarURL: author.AvatarURL,
		CreatedAt: author.CreatedAt,
		PostCount: postCount,
	}
}

// newPostResponse expects post to be loaded with its author, blog and
// categories. counts may be nil.
func newPostResponse(post entities.Post, counts *posts.RelatedCounts, includeContent bool) PostResponse {
	if counts == nil {
		counts = &posts.RelatedCounts{}
	}
	resp := PostResponse{
		ID:              post.ID,
		Title:           post.Title,
		Slug:            post.Slug,
		Excerpt:         post.Excerpt,
		FeaturedImage:   post.FeaturedImage,
		Status:          string(post.Status),
		BlogID:          post.BlogID,
		AuthorID:        post.AuthorID,
		Views:           post.Views,
		IsFeatured:      post.IsFeatured,
		MetaTitle:       post.MetaTitle,
		MetaDescription: post.MetaDescription,
		PublishedAt:     post.PublishedAt,
		CreatedAt:       post.CreatedAt,
		UpdatedAt:       post.UpdatedAt,
		Categories:      make([]CategoryResponse, 0, len(post.Categories)),
	}
	if post.Author.ID != 0 {
		author := newAuthorResponse(post.Author, counts.Authors[post.Author.ID])
		resp.Author = &author
	}
	if post.Blog.ID != 0 {
		blog := newBlogResponse(post.Blog, counts.Blogs[post.Blog.ID])
		resp.Blog = &blog
	}
	for _, category := range post.Categories {
		resp.Categories = append(resp.Categories, newCategoryResponse(category, counts.Categories[category.ID]))
	}
	if includeContent {
		content := post.Content
		resp.Content = &content
	}
	return resp
}

func newPostResponses(list []entities.Post, counts *posts.RelatedCounts) []PostResponse {
	out := make([]PostResponse, 0, len(list))
	for _, post := range list {
		out = append(out, newPostResponse(post, counts, false))
	}
	return out
}

func newPagination(page *posts.Page) Pagination {
	return Pagination{
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
		Pages:   page.Pages(),
		HasNext: page.HasNext(),
		HasPrev: page.HasPrev(),
	}
}

// fallbackExcerpt is the stored excerpt, or the first n characters of the
// content followed by "...".
func fallbackExcerpt(post entities.Post, n int) string {
	if post.Excerpt != "" {
		return post.Excerpt
	}
	runes := []rune(post.Content)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

// isoTimePtr is nil for the zero time.
func isoTimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
