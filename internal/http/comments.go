package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/comments"
	"github.com/newtechs/backend/internal/config"
	dbcomments "github.com/newtechs/backend/internal/database/comments"
	"github.com/newtechs/backend/internal/entities"
)

// CommentStore provides comment access for the comment endpoints.
type CommentStore interface {
	ListForPost(ctx context.Context, postID uint, status entities.CommentStatus) ([]entities.Comment, error)
	Create(ctx context.Context, input dbcomments.NewComment) (*entities.Comment, error)
	SetStatus(ctx context.Context, postID uint, commentID string, status entities.CommentStatus) (*entities.Comment, error)
}

type CommentsController struct {
	store  CommentStore
	policy config.Comments
	logger *zap.Logger
}

func NewCommentsController(store CommentStore, policy config.Comments, logger *zap.Logger) *CommentsController {
	return &CommentsController{store: store, policy: policy, logger: logger}
}

// CommentResponse is one comment of a thread.
type CommentResponse struct {
	ID        string            `json:"id"`
	Author    string            `json:"author"`
	Email     string            `json:"email"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Avatar    string            `json:"avatar"`
	Replies   []CommentResponse `json:"replies"`
}

// CreateCommentRequest is the body of POST /api/comments/:post_id.
type CreateCommentRequest struct {
	Author  string `json:"author"`
	Email   string `json:"email"`
	Content string `json:"content"`
	ReplyTo string `json:"replyTo"`
}

// ModerateCommentRequest is the body of PATCH /api/comments/:post_id/:comment_id.
type ModerateCommentRequest struct {
	Status string `json:"status" binding:"required"`
}

// List handles GET /api/comments/:post_id
// Only approved comments are returned, as reply threads.
func (cc *CommentsController) List(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id", "Post")
	if !ok {
		return
	}

	list, err := cc.store.ListForPost(c.Request.Context(), postID, entities.CommentStatusApproved)
	if err != nil {
		respondInternalError(c, cc.logger, err, "list comments")
		return
	}

	threads := comments.BuildThreads(list, cc.policy.MaxDepth)
	out := make([]CommentResponse, 0, len(threads))
	for _, thread := range threads {
		out = append(out, newCommentResponse(thread))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"comments": out,
	})
}

// Create handles POST /api/comments/:post_id
func (cc *CommentsController) Create(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id", "Post")
	if !ok {
		return
	}

	var req CreateCommentRequest
	_ = c.ShouldBindJSON(&req)
	req.Author = strings.TrimSpace(req.Author)
	req.Email = strings.TrimSpace(req.Email)
	if req.Author == "" || strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "Author and content are required")
		return
	}
	if req.Email != "" && !validEmail(req.Email) {
		respondBadRequest(c, "Invalid email format")
		return
	}

	comment, err := cc.store.Create(c.Request.Context(), dbcomments.NewComment{
		PostID:      postID,
		ParentID:    req.ReplyTo,
		AuthorName:  req.Author,
		AuthorEmail: req.Email,
		Content:     req.Content,
		Status:      cc.initialStatus(),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		respondAppError(c, cc.logger, err, "create comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": gin.H{
			"id":        comment.ID,
			"author":    comment.AuthorName,
			"content":   comment.Content,
			"timestamp": comment.CreatedAt,
			"status":    comment.Status,
		},
	})
}

// Moderate handles PATCH /api/comments/:post_id/:comment_id
func (cc *CommentsController) Moderate(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id", "Post")
	if !ok {
		return
	}

	var req ModerateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Status is required")
		return
	}

	comment, err := cc.store.SetStatus(c.Request.Context(), postID, c.Param("comment_id"), entities.CommentStatus(req.Status))
	if err != nil {
		respondAppError(c, cc.logger, err, "moderate comment")
		return
	}

	cc.logger.Info("Comment moderated",
		zap.String("comment_id", comment.ID),
		zap.String("status", string(comment.Status)),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"comment": gin.H{
			"id":     comment.ID,
			"status": comment.Status,
		},
	})
}

func (cc *CommentsController) initialStatus() entities.CommentStatus {
	if cc.policy.Moderation == config.ModerationManual {
		return entities.CommentStatusPending
	}
	return entities.CommentStatusApproved
}

func newCommentResponse(thread *comments.Thread) CommentResponse {
	resp := CommentResponse{
		ID:        thread.Comment.ID,
		Author:    thread.Comment.AuthorName,
		Email:     thread.Comment.AuthorEmail,
		Content:   thread.Comment.Content,
		Timestamp: thread.Comment.CreatedAt,
		Avatar:    thread.Comment.AvatarURL,
		Replies:   make([]CommentResponse, 0, len(thread.Replies)),
	}
	for _, reply := range thread.Replies {
		resp.Replies = append(resp.Replies, newCommentResponse(reply))
	}
	return resp
}
