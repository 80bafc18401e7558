package recommender

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

func TestEngineWeightNormalization(t *testing.T) {
	tests := []struct {
		collab, content         float64
		wantCollab, wantContent float64
	}{
		{0.6, 0.4, 0.6, 0.4},
		{3, 1, 0.75, 0.25},
		{1, 1, 0.5, 0.5},
		{0, 0, 0.6, 0.4}, // default split
	}
	for _, tt := range tests {
		e := NewEngine(tt.collab, tt.content)
		gotCollab, gotContent := e.Weights()
		if !almostEqual(gotCollab, tt.wantCollab) || !almostEqual(gotContent, tt.wantContent) {
			t.Errorf("NewEngine(%v, %v) weights = (%v, %v), want (%v, %v)",
				tt.collab, tt.content, gotCollab, gotContent, tt.wantCollab, tt.wantContent)
		}
		if !almostEqual(gotCollab+gotContent, 1) {
			t.Errorf("weights sum = %v, want 1", gotCollab+gotContent)
		}
	}
}

func TestEngineUnfitted(t *testing.T) {
	e := NewEngine(0.6, 0.4)

	if _, err := e.Recommend("u1", nil, nil, 5, true); !errors.Is(err, domain.ErrModelNotFitted) {
		t.Errorf("Recommend error = %v, want ErrModelNotFitted", err)
	}
	if _, err := e.RecommendSimilar("p1", 5, true, true); !errors.Is(err, domain.ErrModelNotFitted) {
		t.Errorf("RecommendSimilar error = %v, want ErrModelNotFitted", err)
	}
	if _, err := e.RecommendTrending(nil, 7, 5); !errors.Is(err, domain.ErrModelNotFitted) {
		t.Errorf("RecommendTrending error = %v, want ErrModelNotFitted", err)
	}
}

// With a single purchase in the log the collaborative model has nothing left
// after exclusion, so the shared category text must carry the recommendation.
func TestEngineContentCarriesColdCollaborative(t *testing.T) {
	e := NewEngine(0.6, 0.4)

	products := []domain.Product{
		{ID: "p1", Name: "Trail Runner", Category: "shoes"},
		{ID: "p2", Name: "Road Runner", Category: "shoes"},
	}
	interactions := []domain.Interaction{
		{UserID: "u1", ProductID: "p1", Kind: domain.KindPurchase},
	}

	if _, err := e.Fit(context.Background(), products, interactions); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	recs, err := e.Recommend("u1", nil, interactions, 1, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].ProductID != "p2" {
		t.Errorf("recommended %s, want p2", recs[0].ProductID)
	}
	if recs[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", recs[0].Score)
	}
}

func TestEnginePartialFit(t *testing.T) {
	e := NewEngine(0.6, 0.4)

	products := []domain.Product{
		{ID: "p1", Name: "Trail Runner", Category: "shoes", Tags: []string{"running"}},
		{ID: "p2", Name: "Road Runner", Category: "shoes", Tags: []string{"running"}},
	}

	// Content only: no interactions yet.
	if _, err := e.Fit(context.Background(), products, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !e.fitted() {
		t.Fatal("engine not fitted after content-only fit")
	}
	if e.collaborativeReady {
		t.Error("collaborative marked ready without interactions")
	}

	recs, err := e.Recommend("stranger", []string{"running", "shoes"}, nil, 5, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) == 0 {
		t.Error("preference-driven recommendations empty after content-only fit")
	}

	// Second fit with interactions only: content snapshot persists.
	if _, err := e.Fit(context.Background(), nil, []domain.Interaction{
		{UserID: "u1", ProductID: "p1", Kind: domain.KindPurchase},
	}); err != nil {
		t.Fatalf("refit: %v", err)
	}
	if !e.collaborativeReady || !e.contentReady {
		t.Error("both sub-models should be ready after the second fit")
	}
	if !e.content.Fitted() {
		t.Error("content snapshot lost by interactions-only refit")
	}
}

func TestEngineFitReportsSkipped(t *testing.T) {
	e := NewEngine(0.6, 0.4)
	stats, err := e.Fit(context.Background(),
		[]domain.Product{{ID: "p1", Name: "Thing", Category: "stuff"}},
		[]domain.Interaction{
			{UserID: "u1", ProductID: "p1", Kind: domain.KindView},
			{UserID: "", ProductID: "p1", Kind: domain.KindView},
		})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if stats.SkippedInteractions != 1 {
		t.Errorf("SkippedInteractions = %d, want 1", stats.SkippedInteractions)
	}
	if stats.Products != 1 || stats.Interactions != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEngineSimilarGates(t *testing.T) {
	e := NewEngine(0.6, 0.4)
	products := []domain.Product{
		{ID: "p1", Name: "Trail Runner", Category: "shoes"},
		{ID: "p2", Name: "Road Runner", Category: "shoes"},
		{ID: "p3", Name: "UltraBook", Category: "electronics"},
	}
	interactions := []domain.Interaction{
		{UserID: "u1", ProductID: "p1", Kind: domain.KindPurchase},
		{UserID: "u1", ProductID: "p3", Kind: domain.KindPurchase},
		{UserID: "u2", ProductID: "p1", Kind: domain.KindPurchase},
		{UserID: "u2", ProductID: "p2", Kind: domain.KindPurchase},
	}
	if _, err := e.Fit(context.Background(), products, interactions); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	content, err := e.RecommendSimilar("p1", 5, false, true)
	if err != nil {
		t.Fatalf("content-only: %v", err)
	}
	for _, r := range content {
		if r.ProductID == "p3" {
			t.Error("content-only results include a collaborative-only neighbor")
		}
	}

	both, err := e.RecommendSimilar("p1", 5, true, true)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	found := map[string]bool{}
	for _, r := range both {
		found[r.ProductID] = true
	}
	if !found["p2"] || !found["p3"] {
		t.Errorf("hybrid similar = %v, want both p2 and p3", both)
	}

	none, err := e.RecommendSimilar("p1", 5, false, false)
	if err != nil {
		t.Fatalf("no gates: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("with both gates off got %v", none)
	}
}

func TestRecommendTrendingWindow(t *testing.T) {
	e := NewEngine(0.6, 0.4)
	if _, err := e.Fit(context.Background(),
		[]domain.Product{{ID: "p1", Name: "Thing", Category: "stuff"}}, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	interactions := []domain.Interaction{
		{UserID: "u1", ProductID: "fresh", Kind: domain.KindPurchase, Timestamp: now},
		{UserID: "u2", ProductID: "stale", Kind: domain.KindPurchase, Timestamp: now.AddDate(0, 0, -30)},
		{UserID: "u3", ProductID: "legacy", Kind: domain.KindCart}, // no timestamp
	}

	recs, err := e.RecommendTrending(interactions, 0, 10)
	if err != nil {
		t.Fatalf("RecommendTrending: %v", err)
	}
	got := map[string]float64{}
	for _, r := range recs {
		got[r.ProductID] = r.Score
	}
	if _, ok := got["fresh"]; !ok {
		t.Error("interaction timestamped now excluded from zero-day window")
	}
	if _, ok := got["stale"]; ok {
		t.Error("interaction outside the window included")
	}
	// Untimestamped records are always counted.
	if _, ok := got["legacy"]; !ok {
		t.Error("untimestamped interaction excluded")
	}
}

func TestRecommendTrendingWeightsCompound(t *testing.T) {
	e := NewEngine(0.6, 0.4)
	if _, err := e.Fit(context.Background(),
		[]domain.Product{{ID: "p1", Name: "Thing", Category: "stuff"}}, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	recs, err := e.RecommendTrending([]domain.Interaction{
		{UserID: "u1", ProductID: "hot", Kind: domain.KindPurchase},
		{UserID: "u2", ProductID: "hot", Kind: domain.KindCart},
		{UserID: "u3", ProductID: "hot", Kind: domain.KindWishlist},
		{UserID: "u4", ProductID: "hot", Kind: domain.KindView},
		{UserID: "u5", ProductID: "warm", Kind: domain.KindPurchase},
	}, 7, 10)
	if err != nil {
		t.Fatalf("RecommendTrending: %v", err)
	}

	if recs[0].ProductID != "hot" {
		t.Fatalf("top trending = %s, want hot", recs[0].ProductID)
	}
	// 5 + 3 + 2 + 1: additive, no max-collapsing.
	if !almostEqual(recs[0].Score, 11) {
		t.Errorf("hot score = %v, want 11", recs[0].Score)
	}
	if !almostEqual(recs[1].Score, 5) {
		t.Errorf("warm score = %v, want 5", recs[1].Score)
	}
}

func TestRecommendTrendingTruncates(t *testing.T) {
	e := NewEngine(0.6, 0.4)
	if _, err := e.Fit(context.Background(),
		[]domain.Product{{ID: "p1", Name: "Thing", Category: "stuff"}}, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	recs, err := e.RecommendTrending([]domain.Interaction{
		{UserID: "u1", ProductID: "a", Kind: domain.KindPurchase},
		{UserID: "u1", ProductID: "b", Kind: domain.KindCart},
		{UserID: "u1", ProductID: "c", Kind: domain.KindView},
	}, 7, 2)
	if err != nil {
		t.Fatalf("RecommendTrending: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("len = %d, want 2", len(recs))
	}
}
