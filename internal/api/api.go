package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"portfolioai/pkg/portfolioai"
)

// Options configures NewRouter.
type Options struct {
	Logger *slog.Logger
	// CORSOrigins defaults to all origins.
	CORSOrigins []string
	// Limiter throttles the analysis routes. Nil disables throttling.
	Limiter *rate.Limiter
}

// NewRateLimiter allows perMinute analysis requests with the given burst.
// It returns nil when perMinute is not positive.
func NewRateLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// NewRouter builds the HTTP API router.
func NewRouter(core *portfolioai.Core, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = core.Logger()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	h := &handler{core: core, logger: logger}

	r.Get("/api/health", h.health)

	// AI settings
	r.Get("/api/ai-settings", h.getAISettings)
	r.Put("/api/ai-settings", h.setAISettings)

	// Analysis
	r.Route("/api/analysis", func(r chi.Router) {
		r.Use(rateLimitMiddleware(opts.Limiter))
		r.Post("/", h.analyze)
		r.Post("/stream", h.analyzeStream)
		r.Post("/prompt", h.renderPrompt)
	})

	return r
}

type handler struct {
	core   *portfolioai.Core
	logger *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
