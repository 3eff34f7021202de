package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/config"
	"github.com/sarashino/voice-diary-api/internal/database"
	"github.com/sarashino/voice-diary-api/internal/handlers"
	"github.com/sarashino/voice-diary-api/internal/middleware"
	"github.com/sarashino/voice-diary-api/internal/repository"
	"github.com/sarashino/voice-diary-api/internal/services"
	"github.com/sarashino/voice-diary-api/internal/storage"
)

const sweepInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Select the storage backend once; it is shared read-only afterwards
	backend, err := storage.FromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	if backend.Remote() {
		log.Println("Storage backend: remote object store")
	} else {
		log.Printf("Storage backend: local disk (%s)", cfg.UploadsDir)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.GetDB())
	sessionRepo := repository.NewSessionRepository(database.GetDB())
	projectRepo := repository.NewProjectRepository(database.GetDB())

	// Promote the configured admin account if it already exists
	if cfg.AdminUsername != "" {
		if err := userRepo.PromoteToAdmin(services.NormalizeUsername(cfg.AdminUsername)); err != nil {
			log.Printf("Admin promotion skipped: %v", err)
		}
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, cfg.SessionTTL)
	projectService := services.NewProjectService(projectRepo, backend, aiService)

	// Sweep expired sessions at startup and periodically; never on the
	// request path
	if removed, err := sessionService.Sweep(); err != nil {
		log.Printf("Session sweep failed: %v", err)
	} else if removed > 0 {
		log.Printf("Swept %d expired sessions", removed)
	}
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := sessionService.Sweep(); err != nil {
				log.Printf("Session sweep failed: %v", err)
			}
		}
	}()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessionService)
	projectHandler := handlers.NewProjectHandler(projectService, cfg.DebugErrors)

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.Authenticate(sessionService))

	// Local uploads are served statically; with the object store active the
	// public base URL points elsewhere
	if !backend.Remote() {
		r.Static(cfg.UploadsPublicPath, cfg.UploadsDir)
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Voice Diary API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Project routes; reads are public, writes require ownership
		projects := api.Group("/projects")
		{
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("", middleware.RequireAuth(), projectHandler.CreateProject)
			projects.PATCH("/:id", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.RenameProject)
			projects.POST("/:id/analyze", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.AnalyzeProject)
			projects.POST("/:id/cover", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.GenerateCover)
			projects.DELETE("/:id", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.DeleteProject)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
