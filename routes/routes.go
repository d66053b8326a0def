package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"blogapi/auth"
	"blogapi/config"
	"blogapi/handlers"
	"blogapi/middleware"
)

// SetupRouter wires middleware and every route group.
func SetupRouter(cfg *config.Config, tokens *auth.Manager) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	rateLimit := middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware()

	// Public routes
	router.POST("/auth/register", rateLimit, handlers.Register)
	router.POST("/auth/login", rateLimit, handlers.Login)

	router.GET("/tags", handlers.LastTags)
	router.GET("/posts", handlers.ListPosts)
	router.GET("/posts/:slug", handlers.GetPost)
	router.GET("/posts/:slug/comments", handlers.GetComments)
	router.GET("/comments", handlers.GetAllComments)
	router.GET("/comments/latest", handlers.GetLatestComments)
	router.GET("/uploads/:id", handlers.ServeImage)

	// Authenticated routes
	protected := router.Group("/")
	protected.Use(middleware.JWTAuth(tokens))

	protected.GET("/auth/me", handlers.GetMe)
	protected.PATCH("/auth/me", handlers.UpdateMe)
	protected.DELETE("/auth/me", handlers.DeleteMe)
	protected.POST("/auth/logout", handlers.Logout)

	protected.POST("/posts", handlers.CreatePost)
	protected.PATCH("/posts/:id", handlers.UpdatePost)
	protected.DELETE("/posts/:id", handlers.DeletePost)
	protected.POST("/posts/:slug/like", handlers.ToggleLike)
	protected.POST("/posts/:slug/comments", handlers.AddComment)
	protected.PATCH("/comments/:id", handlers.EditComment)
	protected.DELETE("/comments/:id", handlers.DeleteComment)

	protected.POST("/upload", handlers.UploadImage)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "path": c.Request.URL.Path})
	})

	return router
}
