package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytscript-backend/internal/config"
	"ytscript-backend/internal/database"
	"ytscript-backend/internal/handlers"
	"ytscript-backend/internal/middleware"
	"ytscript-backend/internal/repository"
	"ytscript-backend/internal/router"
	"ytscript-backend/internal/services"
	"ytscript-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting YTScript Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(context.Background(), pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	transcriptRepo := repository.NewTranscriptRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)

	// ──── Step 5: Initialize Extraction Pipeline ────
	pipeline, err := services.NewPipeline(
		cfg.Pipeline,
		transcriptRepo,
		usageRepo,
		services.NewRedisNotifier(redisClients.Publisher),
	)
	if err != nil {
		log.Fatalf("✗ Extraction pipeline initialization failed: %v", err)
	}
	defer pipeline.Close()

	versionCtx, cancelVersion := context.WithTimeout(context.Background(), 10*time.Second)
	version, err := pipeline.YtDlp.Version(versionCtx)
	cancelVersion()
	if err != nil {
		log.Printf("⚠ yt-dlp not usable at %q: %v", cfg.Pipeline.YtDlpPath, err)
	} else {
		log.Printf("✓ yt-dlp %s found", version)
	}
	if pipeline.SummariesEnabled() {
		log.Println("✓ Gemini Flash client initialized")
	}
	log.Printf("✓ Metadata source: %s", cfg.Pipeline.MetadataSource)

	// ──── Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	extractionHandler := handlers.NewExtractionHandler(pipeline.Orchestrator)
	transcriptHandler := handlers.NewTranscriptHandler(transcriptRepo, usageRepo, pipeline.Orchestrator)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.Subscriber, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		extractionHandler,
		transcriptHandler,
		wsHub,
		cfg.RateLimitPerMinute,
		cfg.FrontendURL,
	)

	// Extraction can run the caption and metadata timeouts back to back,
	// plus rendering.
	writeTimeout := cfg.Pipeline.CaptionTimeout + cfg.Pipeline.MetadataTimeout + 45*time.Second

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		wsHub.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ YTScript Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
