package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blogapi/auth"
)

// ContextUserIDKey is the gin context key holding the authenticated user id.
const ContextUserIDKey = "userId"

// JWTAuth verifies the bearer token and stores the user id in the context.
// The user id is trusted downstream; handlers never re-validate credentials.
func JWTAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
