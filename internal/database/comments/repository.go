// Package comments provides database operations for post comments and
// their moderation.
//
// # Usage
//
//	repo := comments.NewRepository(db)
//	list, err := repo.ListForPost(ctx, postID, entities.CommentStatusApproved)
//	comment, err := repo.Create(ctx, comments.NewComment{PostID: postID, ...})
package comments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/entities"
)

// NewComment holds a validated comment submission.
type NewComment struct {
	PostID      uint
	ParentID    string
	AuthorName  string
	AuthorEmail string
	Content     string
	Status      entities.CommentStatus
	IPAddress   string
	UserAgent   string
}

// Repository handles all comment database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comments repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForPost returns every comment of a post with the given status,
// oldest first. The caller arranges them into threads.
func (r *Repository) ListForPost(ctx context.Context, postID uint, status entities.CommentStatus) ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, status).
		Order("created_at, id").
		Find(&comments).Error
	return comments, err
}

// Create stores a comment on an existing post. A reply must point at a
// comment of the same post.
func (r *Repository) Create(ctx context.Context, input NewComment) (*entities.Comment, error) {
	db := r.db.WithContext(ctx)

	var posts int64
	if err := db.Model(&entities.Post{}).Where("id = ?", input.PostID).Count(&posts).Error; err != nil {
		return nil, err
	}
	if posts == 0 {
		return nil, apperr.NotFound("Post")
	}

	comment := &entities.Comment{
		PostID:      input.PostID,
		AuthorName:  input.AuthorName,
		AuthorEmail: input.AuthorEmail,
		Content:     input.Content,
		Status:      input.Status,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
	}

	if input.ParentID != "" {
		var parents int64
		err := db.Model(&entities.Comment{}).
			Where("id = ? AND post_id = ?", input.ParentID, input.PostID).
			Count(&parents).Error
		if err != nil {
			return nil, err
		}
		if parents == 0 {
			return nil, apperr.Validation("Reply target not found")
		}
		parentID := input.ParentID
		comment.ParentID = &parentID
	}

	if err := db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// SetStatus moves a comment of the post to a new moderation status.
func (r *Repository) SetStatus(ctx context.Context, postID uint, commentID string, status entities.CommentStatus) (*entities.Comment, error) {
	switch status {
	case entities.CommentStatusPending, entities.CommentStatusApproved, entities.CommentStatusSpam, entities.CommentStatusDeleted:
	default:
		return nil, apperr.Validation("Invalid comment status")
	}

	db := r.db.WithContext(ctx)
	var comment entities.Comment
	err := db.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Comment")
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&comment).Update("status", status).Error; err != nil {
		return nil, err
	}
	comment.Status = status
	return &comment, nil
}
