package recommender

import (
	"testing"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

func contentFixture(t *testing.T) *ContentFilter {
	t.Helper()
	cb := NewContentFilter()
	err := cb.Fit([]domain.Product{
		{
			ID: "shoe-1", Name: "Trail Runner", Category: "shoes", Brand: "Stride",
			Description: "lightweight running shoes with breathable mesh",
			Tags:        []string{"running", "outdoor"},
			Rating:      4.5, NumRatings: 120,
		},
		{
			ID: "shoe-2", Name: "Road Runner", Category: "shoes", Brand: "Stride",
			Description: "cushioned running shoes for pavement",
			Tags:        []string{"running"},
			Rating:      4.5, NumRatings: 900,
		},
		{
			ID: "laptop-1", Name: "UltraBook Pro", Category: "electronics", Brand: "Voltix",
			Description: "thin laptop with long battery life",
			Tags:        []string{"computer"},
			Rating:      4.8, NumRatings: 40,
		},
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return cb
}

func TestContentSimilarProducts(t *testing.T) {
	cb := contentFixture(t)

	recs := cb.SimilarProducts("shoe-1", 10)
	if len(recs) == 0 {
		t.Fatal("no similar products for shoe-1")
	}
	if recs[0].ProductID != "shoe-2" {
		t.Errorf("most similar to shoe-1 = %s, want shoe-2", recs[0].ProductID)
	}
	for _, r := range recs {
		if r.ProductID == "shoe-1" {
			t.Error("similar products include the query product")
		}
		if r.Score <= 0 {
			t.Errorf("non-positive similarity %v", r.Score)
		}
	}
}

func TestContentSimilarUnknownProduct(t *testing.T) {
	cb := contentFixture(t)
	if recs := cb.SimilarProducts("missing", 10); len(recs) != 0 {
		t.Errorf("unknown product got %d similar products", len(recs))
	}
}

func TestRecommendForUserFromHistory(t *testing.T) {
	cb := contentFixture(t)

	recs := cb.RecommendForUser(nil, []domain.Interaction{
		{UserID: "u1", ProductID: "shoe-1", Kind: domain.KindPurchase},
	}, 10, true)

	if len(recs) == 0 {
		t.Fatal("no recommendations from purchase history")
	}
	if recs[0].ProductID != "shoe-2" {
		t.Errorf("top recommendation = %s, want shoe-2", recs[0].ProductID)
	}
	for _, r := range recs {
		if r.ProductID == "shoe-1" {
			t.Error("interacted product not excluded")
		}
	}
}

func TestRecommendForUserPreferencesOnly(t *testing.T) {
	cb := contentFixture(t)

	recs := cb.RecommendForUser([]string{"laptop", "computer"}, nil, 10, true)
	if len(recs) == 0 {
		t.Fatal("no recommendations from preferences alone")
	}
	if recs[0].ProductID != "laptop-1" {
		t.Errorf("top recommendation = %s, want laptop-1", recs[0].ProductID)
	}
}

// A cold user has a zero profile, all-zero similarities, and therefore an
// empty result. Callers fall back to trending.
func TestRecommendForUserColdUser(t *testing.T) {
	cb := contentFixture(t)
	if recs := cb.RecommendForUser(nil, nil, 10, true); len(recs) != 0 {
		t.Errorf("cold user got %d recommendations, want 0", len(recs))
	}
}

func TestRecommendByCategory(t *testing.T) {
	cb := contentFixture(t)

	// Case-insensitive match; equal ratings break ties by rating count.
	ids := cb.RecommendByCategory("Shoes", 10, 0)
	if len(ids) != 2 {
		t.Fatalf("category shoes returned %d products, want 2", len(ids))
	}
	if ids[0] != "shoe-2" || ids[1] != "shoe-1" {
		t.Errorf("order = %v, want [shoe-2 shoe-1] (tie broken by rating count)", ids)
	}
}

func TestRecommendByCategoryMinRating(t *testing.T) {
	cb := contentFixture(t)
	if ids := cb.RecommendByCategory("shoes", 10, 4.6); len(ids) != 0 {
		t.Errorf("min rating 4.6 returned %v", ids)
	}
	if ids := cb.RecommendByCategory("electronics", 10, 4.6); len(ids) != 1 {
		t.Errorf("electronics above 4.6 = %v, want [laptop-1]", ids)
	}
}

func TestContentFitEmptyIsNoOp(t *testing.T) {
	cb := NewContentFilter()
	if err := cb.Fit(nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if cb.Fitted() {
		t.Error("model fitted after empty catalog")
	}
	if recs := cb.RecommendForUser([]string{"shoes"}, nil, 5, true); len(recs) != 0 {
		t.Errorf("unfitted model returned %d results", len(recs))
	}
}

func TestProductText(t *testing.T) {
	text := productText(domain.Product{
		Name: "Trail Runner", Category: "shoes", Brand: "Stride",
		Description: "breathable mesh", Tags: []string{"running", "outdoor"},
	})
	want := "Trail Runner Trail Runner Trail Runner shoes shoes Stride Stride breathable mesh running outdoor"
	if text != want {
		t.Errorf("productText = %q, want %q", text, want)
	}
}
