package recommender

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

// Trending weights are additive, not max-collapsed: every recent interaction
// compounds, so the score reflects volume of activity rather than per-user
// intent strength.
func trendingWeight(kind domain.InteractionKind) float64 {
	switch kind {
	case domain.KindPurchase:
		return 5.0
	case domain.KindCart:
		return 3.0
	case domain.KindWishlist:
		return 2.0
	}
	return 1.0
}

// FitStats summarizes a fit cycle for observability.
type FitStats struct {
	Products            int `json:"products"`
	Interactions        int `json:"interactions"`
	SkippedInteractions int `json:"skipped_interactions"`
}

// Engine blends collaborative and content-based filtering. The two sub-models
// are fitted independently: an empty input list leaves that sub-model's prior
// state in place, so the engine tracks readiness per sub-model rather than a
// single fitted flag. Queries fail with ErrModelNotFitted until at least one
// sub-model has been trained.
type Engine struct {
	collaborativeWeight float64
	contentWeight       float64

	collaborative *CollaborativeFilter
	content       *ContentFilter

	mu                 sync.RWMutex
	collaborativeReady bool
	contentReady       bool

	// now is swappable for tests of the trending window.
	now func() time.Time
}

// NewEngine builds an engine with the given raw blend weights, normalized so
// they sum to 1. Non-positive totals fall back to the 0.6/0.4 default split.
func NewEngine(collaborativeWeight, contentWeight float64) *Engine {
	total := collaborativeWeight + contentWeight
	if total <= 0 {
		collaborativeWeight, contentWeight, total = 0.6, 0.4, 1.0
	}
	return &Engine{
		collaborativeWeight: collaborativeWeight / total,
		contentWeight:       contentWeight / total,
		collaborative:       NewCollaborativeFilter(),
		content:             NewContentFilter(),
		now:                 time.Now,
	}
}

// Weights returns the normalized (collaborative, content) blend weights.
func (e *Engine) Weights() (float64, float64) {
	return e.collaborativeWeight, e.contentWeight
}

// Fitted reports whether at least one sub-model has been trained.
func (e *Engine) Fitted() bool {
	return e.fitted()
}

func (e *Engine) fitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.collaborativeReady || e.contentReady
}

// Fit trains both sub-models concurrently. A failed fit leaves the previous
// snapshots intact and is safe to retry; a fit overlapping another fit of the
// same sub-model is rejected with ErrFitInProgress.
func (e *Engine) Fit(ctx context.Context, products []domain.Product, interactions []domain.Interaction) (FitStats, error) {
	stats := FitStats{Products: len(products), Interactions: len(interactions)}

	var skipped int
	g, _ := errgroup.WithContext(ctx)

	if len(interactions) > 0 {
		g.Go(func() error {
			n, err := e.collaborative.Fit(interactions)
			skipped = n
			return err
		})
	}
	if len(products) > 0 {
		g.Go(func() error {
			return e.content.Fit(products)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	e.mu.Lock()
	e.collaborativeReady = e.collaborativeReady || e.collaborative.Fitted()
	e.contentReady = e.contentReady || e.content.Fitted()
	e.mu.Unlock()

	stats.SkippedInteractions = skipped
	return stats, nil
}

// Recommend produces personalized recommendations by additively blending
// item-based collaborative scores with content scores. Both sub-models are
// oversampled at 2n so post-filtering downstream still has enough candidates.
// The content model is only consulted when the caller supplies preferences or
// an interaction history.
func (e *Engine) Recommend(userID string, preferences []string, interactions []domain.Interaction, n int, excludeInteracted bool) ([]Scored, error) {
	if !e.fitted() {
		return nil, domain.ErrModelNotFitted
	}

	collabRecs := e.collaborative.RecommendItemBased(userID, 2*n, excludeInteracted)

	var contentRecs []Scored
	if len(preferences) > 0 || len(interactions) > 0 {
		contentRecs = e.content.RecommendForUser(preferences, interactions, 2*n, excludeInteracted)
	}

	merged := MergeRecommendations(
		[][]Scored{collabRecs, contentRecs},
		[]float64{e.collaborativeWeight, e.contentWeight},
		n,
	)
	return merged, nil
}

// RecommendSimilar blends similar-item lists from the two sub-models, gated
// by the caller's flags so collaborative-only, content-only, and hybrid modes
// all share one code path.
func (e *Engine) RecommendSimilar(productID string, n int, useCollaborative, useContent bool) ([]Scored, error) {
	if !e.fitted() {
		return nil, domain.ErrModelNotFitted
	}

	var collabRecs, contentRecs []Scored
	if useCollaborative {
		collabRecs = e.collaborative.SimilarProducts(productID, 2*n)
	}
	if useContent {
		contentRecs = e.content.SimilarProducts(productID, 2*n)
	}

	merged := MergeRecommendations(
		[][]Scored{collabRecs, contentRecs},
		[]float64{e.collaborativeWeight, e.contentWeight},
		n,
	)
	return merged, nil
}

// TopInCategory returns the best-rated product ids in a category, for cold
// user fallbacks. Empty until the content model has been fitted.
func (e *Engine) TopInCategory(category string, n int, minRating float64) []string {
	return e.content.RecommendByCategory(category, n, minRating)
}

// RecommendTrending aggregates interaction weights over the trailing window.
// Interactions without a timestamp are always counted: legacy untimestamped
// records are treated as current by policy, not by accident.
func (e *Engine) RecommendTrending(interactions []domain.Interaction, windowDays, n int) ([]Scored, error) {
	if !e.fitted() {
		return nil, domain.ErrModelNotFitted
	}

	cutoff := e.now().AddDate(0, 0, -windowDays)
	scores := make(map[string]float64)
	for _, in := range interactions {
		if in.Malformed() {
			continue
		}
		if !in.Timestamp.IsZero() && in.Timestamp.Before(cutoff) {
			continue
		}
		scores[in.ProductID] += trendingWeight(in.Kind)
	}

	out := make([]Scored, 0, len(scores))
	for id, score := range scores {
		out = append(out, Scored{ProductID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
