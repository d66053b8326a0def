package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"blogapi/middleware"
	"blogapi/models"
	"blogapi/store"
)

type RegisterRequest struct {
	Fullname  string `json:"fullname" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	AvatarURL string `json:"avatarUrl" binding:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateMeRequest struct {
	Fullname *string `json:"fullname" binding:"omitempty,min=3"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Avatar   *string `json:"avatar" binding:"omitempty,url"`
}

type authResponse struct {
	models.User
	Token string `json:"token"`
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := st.CreateUser(ctx, req.Fullname, req.Email, string(hash), req.AvatarURL)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := tokens.GenerateToken(user.ID.Hex())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{User: *user, Token: token})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := st.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		writeError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := tokens.GenerateToken(user.ID.Hex())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{User: *user, Token: token})
}

// Logout revokes the presented token until it would have expired naturally.
func Logout(c *gin.Context) {
	if tokenStr := middleware.BearerToken(c); tokenStr != "" {
		tokens.Revoke(tokenStr)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := st.FindUserByID(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := store.UserUpdate{
		Fullname: req.Fullname,
		Email:    req.Email,
		Avatar:   req.Avatar,
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(c, err)
			return
		}
		hashed := string(hash)
		upd.Password = &hashed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := st.UpdateUser(ctx, userID, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe runs the account deletion cascade: content is anonymized, likes
// are stripped, then the account is removed.
func DeleteMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := st.DeleteUser(ctx, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account and related data removed"})
}
