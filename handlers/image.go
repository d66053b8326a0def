package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxImageSize = 10 << 20 // 10 MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadImage stores a multipart image in the images collection and returns
// the URL it will be served from.
func UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds 10 MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		writeError(c, err)
		return
	}
	if int64(len(data)) > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds 10 MB"})
		return
	}

	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
		return
	}

	// Stored name keeps the original extension but cannot collide.
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	filename := uuid.NewString() + ext

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	img, err := st.SaveImage(ctx, filename, contentType, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": "/uploads/" + img.ID.Hex()})
}

// ServeImage streams a stored image back with its content type.
func ServeImage(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	img, err := st.GetImage(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}
