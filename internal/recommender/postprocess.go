package recommender

import (
	"sort"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

// Post-processors: pure functions over scored lists, applied by callers after
// the engine returns. None of them mutate their input.

// NormalizeScores rescales scores linearly into [minScore, maxScore]. When
// every input score is equal there is no spread to map, so every item gets
// maxScore rather than collapsing a uniformly confident result to a midpoint.
func NormalizeScores(recs []Scored, minScore, maxScore float64) []Scored {
	if len(recs) == 0 {
		return nil
	}
	lo, hi := recs[0].Score, recs[0].Score
	for _, r := range recs[1:] {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}

	out := make([]Scored, len(recs))
	if hi == lo {
		for i, r := range recs {
			out[i] = Scored{ProductID: r.ProductID, Score: maxScore}
		}
		return out
	}
	for i, r := range recs {
		out[i] = Scored{
			ProductID: r.ProductID,
			Score:     minScore + (r.Score-lo)*(maxScore-minScore)/(hi-lo),
		}
	}
	return out
}

// DiversityRerank penalizes repeated categories in a single pass over an
// already score-sorted list. The k-th item seen in a category is multiplied
// by (1 - diversityFactor*0.1*k), then the list is re-sorted by adjusted
// score. Later same-category items are suppressed, not interleaved; only a
// penalty large enough to flip ranks changes the order.
//
// keyFn picks the diversity dimension; nil means product category.
func DiversityRerank(recs []Scored, products map[string]domain.Product, diversityFactor float64, keyFn func(domain.Product) string) []Scored {
	if len(recs) == 0 {
		return nil
	}
	if keyFn == nil {
		keyFn = func(p domain.Product) string { return p.Category }
	}

	seen := make(map[string]float64)
	out := make([]Scored, 0, len(recs))
	for _, r := range recs {
		key := "unknown"
		if p, ok := products[r.ProductID]; ok {
			key = keyFn(p)
		}
		score := r.Score
		if count, ok := seen[key]; ok {
			score *= 1 - diversityFactor*count
		}
		out = append(out, Scored{ProductID: r.ProductID, Score: score})
		seen[key] += 0.1
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// FilterByPriceRange drops recommendations whose product falls outside
// [minPrice, maxPrice]. A bound <= 0 is treated as unset. Recommendations
// without a matching product are dropped.
func FilterByPriceRange(recs []Scored, products map[string]domain.Product, minPrice, maxPrice float64) []Scored {
	out := make([]Scored, 0, len(recs))
	for _, r := range recs {
		p, ok := products[r.ProductID]
		if !ok {
			continue
		}
		if minPrice > 0 && p.Price < minPrice {
			continue
		}
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByRating drops recommendations whose product rating is below
// minRating. Recommendations without a matching product are dropped.
func FilterByRating(recs []Scored, products map[string]domain.Product, minRating float64) []Scored {
	out := make([]Scored, 0, len(recs))
	for _, r := range recs {
		p, ok := products[r.ProductID]
		if !ok {
			continue
		}
		if p.Rating < minRating {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MergeRecommendations unions scored lists additively after normalizing the
// weights to sum to 1. A product present in only one list carries only that
// list's weighted contribution; absence is not a penalty. Nil weights mean
// equal weighting. Results are sorted descending with the product identifier
// breaking score ties, truncated to n.
func MergeRecommendations(lists [][]Scored, weights []float64, n int) []Scored {
	if len(lists) == 0 {
		return nil
	}
	if weights == nil {
		weights = make([]float64, len(lists))
		for i := range weights {
			weights[i] = 1
		}
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil
	}

	merged := make(map[string]float64)
	for i, list := range lists {
		w := weights[i] / total
		for _, r := range list {
			merged[r.ProductID] += r.Score * w
		}
	}

	out := make([]Scored, 0, len(merged))
	for id, score := range merged {
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
	return out
}
