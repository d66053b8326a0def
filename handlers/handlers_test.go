package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/auth"
	"blogapi/config"
	"blogapi/store"
)

func init() {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, GinMode: "debug"}
	Init(cfg, nil, auth.NewManager(cfg, nil))
}

func TestTagListUnmarshal(t *testing.T) {
	var body struct {
		Tags TagList `json:"tags"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"tags":["a","b"]}`), &body))
	assert.Equal(t, TagList{"a", "b"}, body.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags":"a, b"}`), &body))
	assert.Equal(t, TagList{"a, b"}, body.Tags)

	assert.Error(t, json.Unmarshal([]byte(`{"tags":42}`), &body))
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: store.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("post: %w", store.ErrNotFound), want: http.StatusNotFound},
		{name: "forbidden", err: store.ErrForbidden, want: http.StatusForbidden},
		{name: "conflict", err: fmt.Errorf("slug taken: %w", store.ErrConflict), want: http.StatusConflict},
		{name: "validation", err: &store.ValidationError{Field: "text", Message: "too short"}, want: http.StatusBadRequest},
		{name: "internal", err: fmt.Errorf("socket closed"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { writeError(c, tt.err) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equalf(t, tt.want, w.Code, "%s: body %s", tt.name, w.Body.String())
	}
}

func TestWriteErrorIncludesDetailInDebugMode(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { writeError(c, fmt.Errorf("connection reset")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, w.Body.String(), "connection reset")
}

func TestRegisterRejectsBadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"fullname":"Alice","email":"nope","password":"longenough"}`},
		{name: "short password", body: `{"fullname":"Alice","email":"a@b.co","password":"short"}`},
		{name: "short fullname", body: `{"fullname":"Al","email":"a@b.co","password":"longenough"}`},
		{name: "not json", body: `plain text`},
	}

	for _, tt := range tests {
		r := gin.New()
		r.POST("/auth/register", Register)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equalf(t, http.StatusBadRequest, w.Code, "%s: body %s", tt.name, w.Body.String())
	}
}

func TestAddCommentWithoutAuthenticatedUser(t *testing.T) {
	// Without the JWT middleware no user id is in the context, so the
	// handler must refuse before touching storage.
	r := gin.New()
	r.POST("/posts/:slug/comments", AddComment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts/hello/comments", strings.NewReader(`{"text":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostRequestBinding(t *testing.T) {
	r := gin.New()
	// Stub an authenticated user so binding is the failing step.
	r.POST("/posts", func(c *gin.Context) {
		c.Set("userId", "64f0c2a9e13a5b0001020304")
		CreatePost(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"tiny","description":"long enough"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePostRejectsBadID(t *testing.T) {
	r := gin.New()
	r.PATCH("/posts/:id", func(c *gin.Context) {
		c.Set("userId", "64f0c2a9e13a5b0001020304")
		UpdatePost(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/posts/not-a-hex-id", strings.NewReader(`{"title":"A valid title","description":"A valid description"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
