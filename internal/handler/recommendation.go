package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopcomplex/recommendation-service/internal/domain"
	"github.com/shopcomplex/recommendation-service/internal/service"
)

// Parses an optional positive-int query parameter. Returns ok=false after
// writing a 400 when the value is present but invalid.
func parseIntParam(w http.ResponseWriter, r *http.Request, name string, fallback, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < min || parsed > max {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid "+name+" parameter")
		return 0, false
	}
	return parsed, true
}

func parseFloatParam(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid "+name+" parameter")
		return 0, false
	}
	return parsed, true
}

// GET /api/recommendations/user/{userID}
func (h *Handler) GetUserRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	limit, ok := parseIntParam(w, r, "limit", 10, 1, 50)
	if !ok {
		return
	}
	minPrice, ok := parseFloatParam(w, r, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := parseFloatParam(w, r, "max_price")
	if !ok {
		return
	}
	minRating, ok := parseFloatParam(w, r, "min_rating")
	if !ok {
		return
	}
	diversity, ok := parseFloatParam(w, r, "diversity")
	if !ok {
		return
	}

	result, err := h.service.GetUserRecommendations(r.Context(), userID, service.RecommendOptions{
		Limit:           limit,
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		MinRating:       minRating,
		DiversityFactor: diversity,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Metadata: domain.RecommendationMeta{
			CacheHit:    result.CacheHit,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(result.Recommendations),
		},
	})
}

// GET /api/recommendations/similar/{productID}
func (h *Handler) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid product_id parameter")
		return
	}

	limit, ok := parseIntParam(w, r, "limit", 10, 1, 50)
	if !ok {
		return
	}

	method := r.URL.Query().Get("method")
	switch method {
	case "":
		method = "hybrid"
	case "hybrid", "collaborative", "content":
	default:
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid method parameter")
		return
	}

	recs, err := h.service.GetSimilarProducts(r.Context(), productID, limit, method)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		ProductID:       productID,
		Method:          method,
		Recommendations: recs,
	})
}

// GET /api/recommendations/trending
func (h *Handler) GetTrendingProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseIntParam(w, r, "limit", 10, 1, 50)
	if !ok {
		return
	}
	days, ok := parseIntParam(w, r, "days", 7, 1, 365)
	if !ok {
		return
	}
	category := r.URL.Query().Get("category")

	recs, err := h.service.GetTrendingProducts(r.Context(), days, limit, category)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TrendingResponse{
		WindowDays:      days,
		Category:        category,
		Recommendations: recs,
	})
}
