package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ytscript-backend/internal/handlers"
	"ytscript-backend/internal/middleware"
	"ytscript-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	extractionHandler *handlers.ExtractionHandler,
	transcriptHandler *handlers.TranscriptHandler,
	wsHub *websocket.Hub,
	rateLimitPerMinute int,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Extraction spawns yt-dlp, so it gets a per-IP budget
	extractLimiter := middleware.NewRateLimiter(rateLimitPerMinute, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Extraction Routes ────
		r.Get("/formats", extractionHandler.Formats) // Public

		r.Group(func(r chi.Router) {
			r.Use(extractLimiter.Middleware)
			r.Use(jwtAuth.Optional)
			r.Post("/extract", extractionHandler.Extract)
		})

		// ──── Transcript History Routes ────
		r.Route("/transcripts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", transcriptHandler.List)
			r.Get("/{id}", transcriptHandler.Get)
			r.Delete("/{id}", transcriptHandler.Delete)
			r.With(extractLimiter.Middleware).Get("/{id}/export/{format}", transcriptHandler.Export)
		})

		r.With(jwtAuth.Middleware).Get("/usage", transcriptHandler.Usage)

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
