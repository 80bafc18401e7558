package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shopcomplex/recommendation-service/internal/handler"
)

func Setup(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recommendations/user/{userID}", h.GetUserRecommendations)
		r.Get("/recommendations/similar/{productID}", h.GetSimilarProducts)
		r.Get("/recommendations/trending", h.GetTrendingProducts)
		r.Get("/recommendations/batch", h.GetBatchRecommendations)

		r.Get("/products", h.ListProducts)
		r.Post("/interactions", h.AddInteraction)
		r.Post("/retrain", h.Retrain)
	})

	return r
}
