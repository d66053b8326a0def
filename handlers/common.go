package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blogapi/auth"
	"blogapi/config"
	"blogapi/logger"
	"blogapi/middleware"
	"blogapi/store"
)

// Package-level dependencies, wired once at boot via Init.
var (
	cfg    *config.Config
	st     *store.Store
	tokens *auth.Manager
)

// Init hands the handlers their dependencies. Must run before any route is
// served.
func Init(c *config.Config, s *store.Store, t *auth.Manager) {
	cfg = c
	st = s
	tokens = t
}

// currentUserID reads the authenticated user id placed in the context by the
// JWT middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeError maps a store failure onto an HTTP response. Internal failures
// stay generic in release mode; debug mode includes the underlying message.
func writeError(c *gin.Context, err error) {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Message, "field": ve.Field})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Forbidden"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	default:
		logger.S.Errorw("request failed", "path", c.FullPath(), "err", err)
		resp := gin.H{"success": false, "error": "Something went wrong"}
		if !cfg.Release() {
			resp["detail"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// TagList accepts either a JSON array of strings or a single comma-separated
// string, the two shapes clients send tags in.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = []string{s}
	return nil
}
