package handler

import (
	"net/http"
)

// GET /api/recommendations/batch
func (h *Handler) GetBatchRecommendations(w http.ResponseWriter, r *http.Request) {
	page, ok := parseIntParam(w, r, "page", 1, 1, 10000)
	if !ok {
		return
	}
	limit, ok := parseIntParam(w, r, "limit", 20, 1, 100)
	if !ok {
		return
	}

	result, err := h.service.GetBatchRecommendations(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
