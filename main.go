package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vecindario/cache"
	"vecindario/config"
	"vecindario/database"
	"vecindario/handlers"
	"vecindario/notifications"
	"vecindario/repository"
	"vecindario/routes"
	"vecindario/services"
	"vecindario/uploads"
)

func main() {
	log.Println("Starting Vecindario backend...")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	log.Println("Connecting to MongoDB...")
	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}

	cache.Init(cfg.RedisURL)

	media, err := uploads.New(cfg.CloudinaryURL)
	if err != nil {
		log.Fatal("Cloudinary configuration error: ", err)
	}
	if !media.Enabled() {
		log.Println("CLOUDINARY_URL not set: post attachments are disabled")
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	postRepo := repository.NewPostRepository(database.Posts)
	homeRepo := repository.NewHomeContentRepository(database.HomeContents, database.HomeItems, database.HomePointer)
	userRepo := repository.NewUserRepository(database.Users)
	pushRepo := repository.NewPushRepository(database.PushSubs)

	broadcaster := notifications.NewBroadcaster(pushRepo, cfg.VAPIDPublic, cfg.VAPIDPrivate, cfg.VAPIDContact)
	if !broadcaster.Enabled() {
		log.Println("VAPID keys not set: push notifications are disabled")
	}

	postService := services.NewPostService(postRepo, media, broadcaster)
	homeService := services.NewHomeContentService(homeRepo)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)

	router := routes.SetupRouter(routes.Handlers{
		Auth: handlers.NewAuthHandler(authService),
		Post: handlers.NewPostHandler(postService),
		Home: handlers.NewHomeHandler(homeService),
		Push: handlers.NewPushHandler(pushRepo, broadcaster),
	}, cfg.JWTSecret, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}
	if err := database.Disconnect(); err != nil {
		log.Println("MongoDB disconnect error: ", err)
	}

	log.Println("Server stopped gracefully")
}
