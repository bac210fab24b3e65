package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
)

func TestCommentsController_Create(t *testing.T) {
	env := setupTestDB(t)
	post := env.post(t, env.blog(t, "newtechs"), env.author(t, "Jane"), "hello")
	path := fmt.Sprintf("/api/comments/%d", post.ID)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name    string
			path    string
			body    map[string]any
			status  int
			message string
		}{
			{"missing author", path, map[string]any{"content": "Hi"}, http.StatusBadRequest, "Author and content are required"},
			{"missing content", path, map[string]any{"author": "Ann"}, http.StatusBadRequest, "Author and content are required"},
			{"bad email", path, map[string]any{"author": "Ann", "content": "Hi", "email": "ann@"}, http.StatusBadRequest, "Invalid email format"},
			{"unknown post", "/api/comments/999", map[string]any{"author": "Ann", "content": "Hi"}, http.StatusNotFound, "Post not found"},
			{"non-numeric post", "/api/comments/abc", map[string]any{"author": "Ann", "content": "Hi"}, http.StatusNotFound, "Post not found"},
			{"reply to unknown comment", path, map[string]any{"author": "Ann", "content": "Hi", "replyTo": "nope"}, http.StatusBadRequest, "Reply target not found"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do(t, http.MethodPost, tt.path, tt.body)
				assert.Equal(t, tt.status, w.Code)
				assert.Equal(t, tt.message, decode(t, w)["error"])
			})
		}
	})

	t.Run("stores request metadata", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, map[string]any{
			"author": "Ann", "email": "ann@example.com", "content": "Nice post",
		}, "User-Agent", "comment-test/1.0")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		comment := decode(t, w)["comment"].(map[string]any)
		assert.Equal(t, "Ann", comment["author"])
		assert.Equal(t, "approved", comment["status"])
		assert.NotEmpty(t, comment["timestamp"])

		var stored entities.Comment
		require.NoError(t, env.db.DB.First(&stored, "id = ?", comment["id"]).Error)
		assert.Equal(t, "comment-test/1.0", stored.UserAgent)
		assert.NotEmpty(t, stored.IPAddress)
	})
}

func TestCommentsController_List(t *testing.T) {
	env := setupTestDB(t)
	post := env.post(t, env.blog(t, "newtechs"), env.author(t, "Jane"), "hello")
	path := fmt.Sprintf("/api/comments/%d", post.ID)

	create := func(body map[string]any) string {
		w := env.do(t, http.MethodPost, path, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode(t, w)["comment"].(map[string]any)["id"].(string)
	}

	root := create(map[string]any{"author": "Ann", "content": "First"})
	reply := create(map[string]any{"author": "Bob", "content": "Reply", "replyTo": root})
	create(map[string]any{"author": "Cy", "content": "Nested", "replyTo": reply})
	spam := create(map[string]any{"author": "Spammer", "content": "Buy now"})
	require.NoError(t, env.db.DB.Model(&entities.Comment{}).Where("id = ?", spam).Update("status", entities.CommentStatusSpam).Error)

	w := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode(t, w)["comments"].([]any)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, "Ann", first["author"])
	assert.Contains(t, first, "email")
	assert.Contains(t, first, "avatar")

	replies := first["replies"].([]any)
	require.Len(t, replies, 1)
	assert.Equal(t, "Bob", replies[0].(map[string]any)["author"])
	nested := replies[0].(map[string]any)["replies"].([]any)
	require.Len(t, nested, 1)
	assert.Equal(t, "Nested", nested[0].(map[string]any)["content"])
	assert.Empty(t, nested[0].(map[string]any)["replies"])

	t.Run("post without comments", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/comments/999", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode(t, w)["comments"])
	})
}

func TestCommentsController_ManualModeration(t *testing.T) {
	env := setupTestDB(t, func(cfg *RouterConfig) {
		cfg.Comments.Moderation = config.ModerationManual
	})
	post := env.post(t, env.blog(t, "newtechs"), env.author(t, "Jane"), "hello")
	path := fmt.Sprintf("/api/comments/%d", post.ID)

	w := env.do(t, http.MethodPost, path, map[string]any{"author": "Ann", "content": "Pending"})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode(t, w)["comment"].(map[string]any)
	assert.Equal(t, "pending", comment["status"])

	assert.Empty(t, decode(t, env.do(t, http.MethodGet, path, nil))["comments"])

	moderate := fmt.Sprintf("%s/%s", path, comment["id"])
	w = env.do(t, http.MethodPatch, moderate, map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid comment status", decode(t, w)["error"])

	w = env.do(t, http.MethodPatch, path+"/unknown", map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPatch, moderate, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", decode(t, w)["comment"].(map[string]any)["status"])

	assert.Len(t, decode(t, env.do(t, http.MethodGet, path, nil))["comments"], 1)
}
