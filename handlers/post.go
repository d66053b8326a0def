package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blogapi/store"
)

type PostRequest struct {
	Title       string   `json:"title" binding:"required,min=6,max=255"`
	Description string   `json:"description" binding:"required,min=6"`
	Photo       []string `json:"photo"`
	Tags        TagList  `json:"tags"`
	IsPublished bool     `json:"isPublished"`
	Anonymous   bool     `json:"anonymous"`
}

func (r *PostRequest) input() store.PostInput {
	return store.PostInput{
		Title:       r.Title,
		Description: r.Description,
		Photo:       r.Photo,
		Tags:        r.Tags,
		IsPublished: r.IsPublished,
		Anonymous:   r.Anonymous,
	}
}

func ListPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, err := st.ListPosts(ctx, c.Query("sortBy"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost resolves a post by slug or id and bumps its view counter.
func GetPost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := st.GetPost(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := st.CreatePost(ctx, userID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func UpdatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := st.UpdatePost(ctx, postID, userID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := st.DeletePost(ctx, postID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post removed"})
}

// ToggleLike flips the caller's like on a post; the response says which way
// it went, since the outcome depends on the state the toggle found.
func ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	state, err := st.ToggleLike(ctx, c.Param("slug"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func LastTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	tags, err := st.LastTags(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
