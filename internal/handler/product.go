package handler

import (
	"net/http"

	"github.com/shopcomplex/recommendation-service/internal/repository"
)

// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
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

	products, err := h.service.ListProducts(r.Context(), repository.ProductFilter{
		Category:  r.URL.Query().Get("category"),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		MinRating: minRating,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}
