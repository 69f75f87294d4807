package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"vecindario/handlers"
	"vecindario/middleware"
)

// Handlers bundles everything the router binds.
type Handlers struct {
	Auth *handlers.AuthHandler
	Post *handlers.PostHandler
	Home *handlers.HomeHandler
	Push *handlers.PushHandler
}

// SetupRouter wires middleware, public routes and the token-protected
// groups.
func SetupRouter(h Handlers, jwtSecret string, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Login endpoints get a tighter limiter than the rest of the API.
	authLimiter := middleware.NewIPRateLimiter(10, time.Minute)

	auth := router.Group("/api/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)

	// Public content.
	router.GET("/api/posts", h.Post.GetAllPosts)
	router.GET("/api/posts/category/:category", h.Post.GetPostsByCategory)
	router.GET("/api/posts/public/:id", h.Post.GetPublicPost)
	router.GET("/api/posts/:id", h.Post.GetPost)
	router.GET("/api/home/content", h.Home.GetContent)
	router.GET("/api/push/vapid-public-key", h.Push.GetVapidPublicKey)

	// Everything below requires a valid token.
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(jwtSecret))

	protected.POST("/posts", h.Post.CreatePost)
	protected.PATCH("/posts/:id", h.Post.UpdatePost)
	protected.DELETE("/posts/:id", h.Post.DeletePost)

	admin := protected.Group("/home/admin")
	admin.GET("/content", h.Home.GetContent)
	admin.POST("/content", h.Home.SaveContent)
	admin.GET("/history", h.Home.GetHistory)
	admin.GET("/stats", h.Home.GetStats)
	admin.POST("/restore/:id", h.Home.Restore)
	admin.DELETE("/content/:id", h.Home.DeleteVersion)
	admin.PUT("/downloads/item", h.Home.UpdateDownloadItem)
	admin.PUT("/gallery/image", h.Home.UpdateGalleryImage)
	admin.PUT("/info/main-image", h.Home.UpdateInfoMainImage)

	protected.POST("/push/subscribe", h.Push.Subscribe)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"body": gin.H{
					"error": "Endpoint no encontrado",
					"path":  c.Request.URL.Path,
				},
			})
			return
		}
		c.Next()
	})

	return router
}
