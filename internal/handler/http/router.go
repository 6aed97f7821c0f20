package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perkhive/recognition-gateway/internal/service"
	"github.com/perkhive/recognition-gateway/pkg/health"
	"github.com/perkhive/recognition-gateway/pkg/middleware"
)

// RouterConfig holds the cross-cutting settings the router needs.
type RouterConfig struct {
	JWTSecret     string
	AllowedOrigin string
	RateLimit     middleware.RateLimitConfig
}

// NewRouter creates a chi router with all gateway routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics)

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Review API endpoints
	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit))
		r.Use(middleware.JWTAuth(cfg.JWTSecret, logger))

		r.Post("/", reviewHandler.SubmitReview)
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/quota", reviewHandler.GetQuota)
		r.Get("/{id}", reviewHandler.GetReview)
		r.Put("/{id}", reviewHandler.UpdateReview)
	})

	return r
}
