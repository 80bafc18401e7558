package recommender

import (
	"math"
	"sort"
	"sync"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

// Scored pairs a product identifier with a recommendation score.
type Scored struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// Interaction weights for the collaborative model. When the same (user,
// product) pair appears multiple times the maximum weight wins, so repeated
// weak signals never outweigh one strong signal.
func collaborativeWeight(in domain.Interaction) float64 {
	switch in.Kind {
	case domain.KindPurchase:
		return 5.0
	case domain.KindCart:
		return 4.0
	case domain.KindWishlist:
		return 3.5
	case domain.KindView:
		return 2.0
	}
	if in.Rating > 0 {
		return in.Rating
	}
	return 1.0
}

// cfSnapshot is an immutable fitted state: identifier lists fix the matrix
// index space, and every matrix is sized to those lists. Queries hold one
// snapshot pointer for their whole computation.
type cfSnapshot struct {
	userIDs      []string
	productIDs   []string
	userIndex    map[string]int
	productIndex map[string]int

	// ratings is users x products, zero-filled for unobserved pairs.
	ratings [][]float64
	userSim [][]float64
	itemSim [][]float64
}

// CollaborativeFilter recommends products from user-item interaction history
// using user-user and item-item cosine similarity.
//
// Fit builds a complete new snapshot and swaps it in atomically; in-flight
// queries keep reading the snapshot they started with. Fits are serialized:
// a Fit issued while another is running is rejected with ErrFitInProgress.
type CollaborativeFilter struct {
	mu    sync.RWMutex
	fitMu sync.Mutex
	snap  *cfSnapshot
}

func NewCollaborativeFilter() *CollaborativeFilter {
	return &CollaborativeFilter{}
}

func (cf *CollaborativeFilter) snapshot() *cfSnapshot {
	cf.mu.RLock()
	defer cf.mu.RUnlock()
	return cf.snap
}

// Fitted reports whether at least one Fit has completed successfully.
func (cf *CollaborativeFilter) Fitted() bool {
	return cf.snapshot() != nil
}

// Fit trains the model on an interaction log. Malformed interactions are
// skipped and counted, not fatal. An empty (or entirely malformed) input is a
// no-op: the prior snapshot, if any, stays in place and queries against a
// never-fitted model return empty results.
func (cf *CollaborativeFilter) Fit(interactions []domain.Interaction) (skipped int, err error) {
	if !cf.fitMu.TryLock() {
		return 0, domain.ErrFitInProgress
	}
	defer cf.fitMu.Unlock()

	weights := make(map[string]map[string]float64)
	for _, in := range interactions {
		if in.Malformed() {
			skipped++
			continue
		}
		w := collaborativeWeight(in)
		row := weights[in.UserID]
		if row == nil {
			row = make(map[string]float64)
			weights[in.UserID] = row
		}
		if w > row[in.ProductID] {
			row[in.ProductID] = w
		}
	}
	if len(weights) == 0 {
		return skipped, nil
	}

	snap := &cfSnapshot{
		userIDs:      make([]string, 0, len(weights)),
		userIndex:    make(map[string]int, len(weights)),
		productIndex: make(map[string]int),
	}

	productSet := make(map[string]struct{})
	for userID, row := range weights {
		snap.userIDs = append(snap.userIDs, userID)
		for productID := range row {
			productSet[productID] = struct{}{}
		}
	}
	sort.Strings(snap.userIDs)

	snap.productIDs = make([]string, 0, len(productSet))
	for productID := range productSet {
		snap.productIDs = append(snap.productIDs, productID)
	}
	sort.Strings(snap.productIDs)

	for i, id := range snap.userIDs {
		snap.userIndex[id] = i
	}
	for j, id := range snap.productIDs {
		snap.productIndex[id] = j
	}

	snap.ratings = make([][]float64, len(snap.userIDs))
	for i, userID := range snap.userIDs {
		row := make([]float64, len(snap.productIDs))
		for productID, w := range weights[userID] {
			row[snap.productIndex[productID]] = w
		}
		snap.ratings[i] = row
	}

	snap.userSim = cosineSimilarityMatrix(snap.ratings)
	snap.itemSim = cosineSimilarityMatrix(transpose(snap.ratings, len(snap.productIDs)))

	cf.mu.Lock()
	cf.snap = snap
	cf.mu.Unlock()
	return skipped, nil
}

// RecommendUserBased predicts scores from the ratings of similar users.
// For each candidate product the score is a similarity-weighted average of
// the observed ratings; products nobody rated stay at zero and are dropped.
func (cf *CollaborativeFilter) RecommendUserBased(userID string, n int, excludeInteracted bool) []Scored {
	snap := cf.snapshot()
	if snap == nil {
		return nil
	}
	userIdx, ok := snap.userIndex[userID]
	if !ok {
		return nil
	}
	userSims := snap.userSim[userIdx]

	recs := make([]Scored, 0, len(snap.productIDs))
	for j, productID := range snap.productIDs {
		if excludeInteracted && snap.ratings[userIdx][j] > 0 {
			continue
		}
		var num, den float64
		for i := range snap.userIDs {
			r := snap.ratings[i][j]
			num += userSims[i] * r
			if r > 0 {
				den += math.Abs(userSims[i])
			}
		}
		if den == 0 {
			continue
		}
		if score := num / den; score > 0 {
			recs = append(recs, Scored{ProductID: productID, Score: score})
		}
	}
	return topN(recs, n)
}

// RecommendItemBased predicts via the dot product of the user's rating row
// with the item similarity matrix, normalized per column by the similarity
// mass of the user's positively rated items.
func (cf *CollaborativeFilter) RecommendItemBased(userID string, n int, excludeInteracted bool) []Scored {
	snap := cf.snapshot()
	if snap == nil {
		return nil
	}
	userIdx, ok := snap.userIndex[userID]
	if !ok {
		return nil
	}
	userRatings := snap.ratings[userIdx]

	recs := make([]Scored, 0, len(snap.productIDs))
	for j, productID := range snap.productIDs {
		if excludeInteracted && userRatings[j] > 0 {
			continue
		}
		var pred, simSum float64
		for i := range snap.productIDs {
			if userRatings[i] > 0 {
				pred += userRatings[i] * snap.itemSim[i][j]
				simSum += snap.itemSim[i][j]
			}
		}
		if simSum == 0 {
			simSum = 1 // pred is zero too; keeps the column out of the results
		}
		if score := pred / simSum; score > 0 {
			recs = append(recs, Scored{ProductID: productID, Score: score})
		}
	}
	return topN(recs, n)
}

// SimilarProducts ranks products by item-item similarity to the given
// product, excluding the product itself and zero-similarity entries. An
// unknown product yields an empty result.
func (cf *CollaborativeFilter) SimilarProducts(productID string, n int) []Scored {
	snap := cf.snapshot()
	if snap == nil {
		return nil
	}
	idx, ok := snap.productIndex[productID]
	if !ok {
		return nil
	}
	recs := make([]Scored, 0, len(snap.productIDs))
	for j, id := range snap.productIDs {
		if j == idx {
			continue
		}
		if sim := snap.itemSim[idx][j]; sim > 0 {
			recs = append(recs, Scored{ProductID: id, Score: sim})
		}
	}
	return topN(recs, n)
}

// topN sorts descending by score and truncates. The sort is stable so equal
// scores keep their original (index) order.
func topN(recs []Scored, n int) []Scored {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if n >= 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs
}
