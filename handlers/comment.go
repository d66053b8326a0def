package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blogapi/models"
)

type CommentRequest struct {
	Text      string `json:"text" binding:"required"`
	Anonymous bool   `json:"anonymous"`
}

type commentCreated struct {
	*models.CommentWithRefs
	Success bool `json:"success"`
}

func AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comment, err := st.AddComment(ctx, c.Param("slug"), req.Text, userID, req.Anonymous)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentCreated{CommentWithRefs: comment, Success: true})
}

func GetComments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comments, err := st.ListComments(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func EditComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comment, err := st.EditComment(ctx, commentID, userID, req.Text, req.Anonymous)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := st.DeleteComment(ctx, commentID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment removed"})
}

func GetAllComments(c *gin.Context) {
	page := queryInt64(c, "page", 1)
	limit := queryInt64(c, "limit", 20)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comments, err := st.ListAllComments(ctx, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func GetLatestComments(c *gin.Context) {
	limit := queryInt64(c, "limit", 5)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comments, err := st.LatestComments(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func queryInt64(c *gin.Context, key string, def int64) int64 {
	if v := c.Query(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
