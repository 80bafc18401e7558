package handler

import (
	"github.com/shopcomplex/recommendation-service/internal/domain"
	"github.com/shopcomplex/recommendation-service/internal/service"
)

type RecommendationResponse struct {
	UserID          string                    `json:"user_id"`
	Recommendations []domain.ScoredProduct    `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type SimilarResponse struct {
	ProductID       string                 `json:"product_id"`
	Method          string                 `json:"method"`
	Recommendations []domain.ScoredProduct `json:"recommendations"`
}

type TrendingResponse struct {
	WindowDays      int                    `json:"window_days"`
	Category        string                 `json:"category,omitempty"`
	Recommendations []domain.ScoredProduct `json:"recommendations"`
}

type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

type HealthResponse struct {
	Status string        `json:"status"`
	Stats  service.Stats `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
