package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopcomplex/recommendation-service/internal/cache"
	"github.com/shopcomplex/recommendation-service/internal/domain"
	"github.com/shopcomplex/recommendation-service/internal/recommender"
	"github.com/shopcomplex/recommendation-service/internal/repository"
)

const (
	defaultLimit     = 10
	maxLimit         = 50
	batchConcurrency = 10
	batchRecLimit    = 10

	defaultTrendingDays = 7
)

// RecommendOptions carries the per-request knobs for personalized
// recommendations. Zero values leave the corresponding step inactive.
type RecommendOptions struct {
	Limit           int
	MinPrice        float64
	MaxPrice        float64
	MinRating       float64
	DiversityFactor float64
}

type Service struct {
	repo   *repository.Repository
	cache  *cache.Cache
	engine *recommender.Engine
	log    zerolog.Logger

	cacheEnabled bool
	retrainEvery int
}

func NewService(repo *repository.Repository, c *cache.Cache, engine *recommender.Engine, log zerolog.Logger, cacheEnabled bool, retrainEvery int) *Service {
	return &Service{
		repo:         repo,
		cache:        c,
		engine:       engine,
		log:          log,
		cacheEnabled: cacheEnabled,
		retrainEvery: retrainEvery,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (s *Service) GetUserRecommendations(ctx context.Context, userID string, opts RecommendOptions) (*domain.RecommendationResult, error) {
	limit := clampLimit(opts.Limit)

	key := cache.UserRecsKey(userID, limit,
		fmt.Sprintf("price:%g-%g", opts.MinPrice, opts.MaxPrice),
		fmt.Sprintf("rating:%g", opts.MinRating),
		fmt.Sprintf("div:%g", opts.DiversityFactor),
	)

	// Check cache
	if s.cacheEnabled {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cache get failed")
		}
		if found {
			return &domain.RecommendationResult{Recommendations: cached, CacheHit: true}, nil
		}
	}

	recs, err := s.generateRecommendations(ctx, userID, limit, opts)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled {
		if cacheErr := s.cache.Set(ctx, key, recs); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Str("user_id", userID).Msg("cache set failed")
		}
	}

	return &domain.RecommendationResult{Recommendations: recs, CacheHit: false}, nil
}

func (s *Service) generateRecommendations(ctx context.Context, userID string, limit int, opts RecommendOptions) ([]domain.ScoredProduct, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	interactions, err := s.repo.ListUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch interactions: %w", err)
	}

	// Oversample so the filters below still leave a full page.
	scored, err := s.engine.Recommend(userID, user.Preferences, interactions, 2*limit, true)
	if err != nil {
		return nil, err
	}

	products, err := s.productsFor(ctx, scored)
	if err != nil {
		return nil, err
	}

	scored = recommender.FilterByPriceRange(scored, products, opts.MinPrice, opts.MaxPrice)
	if opts.MinRating > 0 {
		scored = recommender.FilterByRating(scored, products, opts.MinRating)
	}
	if opts.DiversityFactor > 0 {
		scored = recommender.DiversityRerank(scored, products, opts.DiversityFactor, nil)
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	// Cold user fallback: nothing survived scoring and filtering, so serve
	// the top-rated products from the user's preferred categories instead.
	if len(scored) == 0 && len(user.Preferences) > 0 {
		scored = s.preferenceFallback(user.Preferences, limit, opts.MinRating)
		var err error
		if products, err = s.productsFor(ctx, scored); err != nil {
			return nil, err
		}
	}

	scored = recommender.NormalizeScores(scored, 0, 1)

	return s.hydrate(scored, products), nil
}

func (s *Service) preferenceFallback(preferences []string, limit int, minRating float64) []recommender.Scored {
	var scored []recommender.Scored
	seen := make(map[string]bool)
	for _, category := range preferences {
		for _, id := range s.engine.TopInCategory(category, limit, minRating) {
			if seen[id] {
				continue
			}
			seen[id] = true
			scored = append(scored, recommender.Scored{ProductID: id, Score: 1})
		}
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// GetSimilarProducts returns products similar to the given one. Method is
// "collaborative", "content" or "hybrid" (the default).
func (s *Service) GetSimilarProducts(ctx context.Context, productID string, limit int, method string) ([]domain.ScoredProduct, error) {
	limit = clampLimit(limit)

	key := cache.SimilarKey(productID, limit, method)
	if s.cacheEnabled {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("product_id", productID).Msg("cache get failed")
		}
		if found {
			return cached, nil
		}
	}

	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	useCollaborative, useContent := true, true
	switch method {
	case "collaborative":
		useContent = false
	case "content":
		useCollaborative = false
	}

	scored, err := s.engine.RecommendSimilar(productID, limit, useCollaborative, useContent)
	if err != nil {
		return nil, err
	}

	products, err := s.productsFor(ctx, scored)
	if err != nil {
		return nil, err
	}
	recs := s.hydrate(scored, products)

	if s.cacheEnabled {
		if cacheErr := s.cache.Set(ctx, key, recs); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Str("product_id", productID).Msg("cache set failed")
		}
	}
	return recs, nil
}

// GetTrendingProducts aggregates recent interaction volume, optionally
// restricted to one category.
func (s *Service) GetTrendingProducts(ctx context.Context, windowDays, limit int, category string) ([]domain.ScoredProduct, error) {
	if windowDays <= 0 {
		windowDays = defaultTrendingDays
	}
	limit = clampLimit(limit)

	key := cache.TrendingKey(windowDays, limit, strings.ToLower(category))
	if s.cacheEnabled {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("cache get failed")
		}
		if found {
			return cached, nil
		}
	}

	interactions, err := s.repo.ListInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch interactions: %w", err)
	}

	// Oversample before the category filter trims the list.
	scored, err := s.engine.RecommendTrending(interactions, windowDays, 2*limit)
	if err != nil {
		return nil, err
	}

	products, err := s.productsFor(ctx, scored)
	if err != nil {
		return nil, err
	}

	if category != "" {
		filtered := scored[:0]
		for _, r := range scored {
			if p, ok := products[r.ProductID]; ok && strings.EqualFold(p.Category, category) {
				filtered = append(filtered, r)
			}
		}
		scored = filtered
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recs := s.hydrate(scored, products)
	if s.cacheEnabled {
		if cacheErr := s.cache.Set(ctx, key, recs); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("cache set failed")
		}
	}
	return recs, nil
}

// AddInteraction records an event, invalidates the user's cached
// recommendations, and refits the model every retrainEvery interactions.
func (s *Service) AddInteraction(ctx context.Context, in domain.Interaction) error {
	if _, err := s.repo.GetUserByID(ctx, in.UserID); err != nil {
		return err
	}
	if _, err := s.repo.GetProductByID(ctx, in.ProductID); err != nil {
		return err
	}

	if err := s.repo.AddInteraction(ctx, in); err != nil {
		return err
	}

	if s.cacheEnabled {
		if err := s.cache.ClearUserCache(ctx, in.UserID); err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("cache invalidation failed")
		}
	}

	if s.retrainEvery > 0 {
		total, err := s.repo.CountInteractions(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("interaction count failed, skipping retrain check")
			return nil
		}
		if total%s.retrainEvery == 0 {
			if err := s.Retrain(ctx); err != nil {
				// A rejected or failed background refit never fails ingestion.
				s.log.Warn().Err(err).Msg("automatic retrain failed")
			}
		}
	}

	return nil
}

// Retrain refits the engine from the full interaction log and catalog, then
// flushes the recommendation cache.
func (s *Service) Retrain(ctx context.Context) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	interactions, err := s.repo.ListInteractions(ctx)
	if err != nil {
		return fmt.Errorf("fetch interactions: %w", err)
	}

	start := time.Now()
	stats, err := s.engine.Fit(ctx, products, interactions)
	if err != nil {
		return err
	}

	s.log.Info().
		Int("products", stats.Products).
		Int("interactions", stats.Interactions).
		Int("skipped", stats.SkippedInteractions).
		Dur("elapsed", time.Since(start)).
		Msg("model refitted")

	if s.cacheEnabled {
		if err := s.cache.Flush(ctx); err != nil {
			s.log.Warn().Err(err).Msg("cache flush after refit failed")
		}
	}
	return nil
}

func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()

	userIDs, err := s.repo.GetUserIDsPaginated(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch user ids: %w", err)
	}

	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	// Process users concurrently with bounded worker pool
	results := make([]domain.BatchUserResult, len(userIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i, userID := range userIDs {
		wg.Add(1)
		go func(idx int, uid string) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[idx] = s.processUserForBatch(ctx, uid)
		}(i, userID)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	elapsed := time.Since(start).Milliseconds()

	return &domain.BatchResponse{
		Page:       page,
		Limit:      limit,
		TotalUsers: totalUsers,
		Results:    results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: elapsed,
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Generates recommendations for a single user, capturing errors.
func (s *Service) processUserForBatch(ctx context.Context, userID string) domain.BatchUserResult {
	result, err := s.GetUserRecommendations(ctx, userID, RecommendOptions{Limit: batchRecLimit})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("batch generation failed")
		code, msg := categorizeError(err)
		return domain.BatchUserResult{
			UserID:  userID,
			Status:  domain.StatusFailed,
			Error:   code,
			Message: msg,
		}
	}

	return domain.BatchUserResult{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Status:          domain.StatusSuccess,
	}
}

func (s *Service) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.repo.ListProductsFiltered(ctx, f)
}

// Stats feeds the health endpoint.
type Stats struct {
	Products     int  `json:"products"`
	Users        int  `json:"users"`
	Interactions int  `json:"interactions"`
	ModelFitted  bool `json:"model_fitted"`
	CacheOK      bool `json:"cache_ok"`
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	products, err := s.repo.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	interactions, err := s.repo.CountInteractions(ctx)
	if err != nil {
		return nil, err
	}

	cacheOK := false
	if s.cacheEnabled {
		cacheOK = s.cache.Ping(ctx) == nil
	}

	return &Stats{
		Products:     products,
		Users:        users,
		Interactions: interactions,
		ModelFitted:  s.engine.Fitted(),
		CacheOK:      cacheOK,
	}, nil
}

func (s *Service) productsFor(ctx context.Context, scored []recommender.Scored) (map[string]domain.Product, error) {
	ids := make([]string, 0, len(scored))
	for _, r := range scored {
		ids = append(ids, r.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products for recommendations: %w", err)
	}
	return products, nil
}

func (s *Service) hydrate(scored []recommender.Scored, products map[string]domain.Product) []domain.ScoredProduct {
	out := make([]domain.ScoredProduct, 0, len(scored))
	for _, r := range scored {
		sp := domain.ScoredProduct{ProductID: r.ProductID, Score: r.Score}
		if p, ok := products[r.ProductID]; ok {
			product := p
			sp.Product = &product
		}
		out = append(out, sp)
	}
	return out
}

// Handle response error
func categorizeError(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found", "user not found"
	case errors.Is(err, domain.ErrModelNotFitted):
		return "model_not_fitted", "recommendation model has not been trained yet"
	case errors.Is(err, domain.ErrFitInProgress):
		return "fit_in_progress", "a model training run is already in progress"
	}
	return "internal_error", "an unexpected error occurred"
}
