package posts

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/newtechs/backend/internal/entities"
)

const (
	maxTrendingScore    = 100
	viewsPerScorePoint  = 10
	scorePerComment     = 5
	DefaultTrendingSize = 10
)

// TrendingFilter selects published posts for the trending ranking. A zero
// Since covers all time; an empty BlogSlug covers every blog.
type TrendingFilter struct {
	Limit    int
	Since    time.Time
	BlogSlug string
}

// Ranked is a post with its approved comment count and trending score.
type Ranked struct {
	Post         entities.Post
	CommentCount int64
	Score        int64
}

// TrendingScore is views/10 plus five points per approved comment, capped
// at 100.
func TrendingScore(views int, comments int64) int64 {
	score := int64(views/viewsPerScorePoint) + comments*scorePerComment
	if score > maxTrendingScore {
		return maxTrendingScore
	}
	return score
}

// Trending returns the most viewed published posts in the window, with
// their approved comment counts.
func (r *Repository) Trending(ctx context.Context, filter TrendingFilter) ([]Ranked, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTrendingSize
	}

	// Placeholders stay "?"; gorm rebinds them for the active dialect.
	builder := sq.Select("posts.id AS post_id", "COUNT(comments.id) AS comment_count").
		From("posts").
		Join("blogs ON blogs.id = posts.blog_id").
		LeftJoin("comments ON comments.post_id = posts.id AND comments.status = ?", entities.CommentStatusApproved).
		Where(sq.Eq{"posts.status": entities.PostStatusPublished}).
		GroupBy("posts.id", "posts.views").
		OrderBy("posts.views DESC", "posts.id").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Question)
	if filter.BlogSlug != "" {
		builder = builder.Where(sq.Eq{"blogs.slug": filter.BlogSlug})
	}
	if !filter.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"posts.published_at": filter.Since.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		PostID       uint
		CommentCount int64
	}
	db := r.db.WithContext(ctx)
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Ranked{}, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.PostID
	}
	var loaded []entities.Post
	if err := db.Preload("Author").Preload("Blog").Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]entities.Post, len(loaded))
	for _, post := range loaded {
		byID[post.ID] = post
	}

	ranked := make([]Ranked, 0, len(rows))
	for _, row := range rows {
		post, ok := byID[row.PostID]
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked{
			Post:         post,
			CommentCount: row.CommentCount,
			Score:        TrendingScore(post.Views, row.CommentCount),
		})
	}
	return ranked, nil
}
