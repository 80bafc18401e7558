package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

type addInteractionRequest struct {
	UserID    string  `json:"user_id" validate:"required"`
	ProductID string  `json:"product_id" validate:"required"`
	Kind      string  `json:"interaction_type" validate:"required,oneof=view cart purchase rating wishlist"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=5"`
}

// POST /api/interactions
func (h *Handler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	var req addInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	if req.Kind == string(domain.KindRating) && req.Rating == 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter",
			"A rating interaction requires a rating value")
		return
	}

	err := h.service.AddInteraction(r.Context(), domain.Interaction{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Kind:      domain.InteractionKind(req.Kind),
		Rating:    req.Rating,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// POST /api/retrain
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Retrain(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retrained"})
}
