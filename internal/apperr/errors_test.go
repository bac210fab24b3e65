package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", Validation("Search query required"), http.StatusBadRequest},
		{"conflict", Conflict("Blog with this name already exists"), http.StatusBadRequest},
		{"not found", NotFound("Blog"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load post: %w", NotFound("Post")), http.StatusNotFound},
		{"storage", Storage("commit import run", errors.New("disk I/O error")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Blog not found", Message(NotFound("Blog")))
	assert.Equal(t, "Email already subscribed", Message(fmt.Errorf("subscribe: %w", Conflict("Email already subscribed"))))
	assert.Equal(t, "internal server error", Message(Storage("commit", errors.New("database is locked"))))
	assert.Equal(t, "internal server error", Message(errors.New("raw driver error")))
}

func TestStorageError_KeepsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Storage("commit import run", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "commit import run: database is locked", err.Error())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create post: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: posts.blog_id, posts.slug")))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_posts_origin_id"`)))
	assert.True(t, IsUniqueViolation(errors.New("Error 1062: Duplicate entry 'x' for key 'idx'")))
	assert.False(t, IsUniqueViolation(errors.New("no such table: posts")))
	assert.False(t, IsUniqueViolation(nil))
}
