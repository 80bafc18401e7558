package recommender

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

const maxVocabulary = 1000

// Interaction weights for the content-based user profile. Independent of the
// collaborative policy: views carry no extra weight here, the profile leans
// on deliberate signals. Max-per-product collapsing applies as usual.
func contentWeight(in domain.Interaction) float64 {
	switch in.Kind {
	case domain.KindPurchase:
		return 5.0
	case domain.KindCart:
		return 3.0
	case domain.KindWishlist:
		return 2.5
	}
	if in.Rating > 0 {
		return in.Rating
	}
	return 1.0
}

// preferenceBoost scales the TF-IDF vector of the user's preference tags
// before it is added to the interaction-history profile. Additive, not
// averaged: preferences steer the profile but never dominate history.
const preferenceBoost = 0.3

type contentSnapshot struct {
	productIDs   []string
	productIndex map[string]int
	products     map[string]domain.Product

	vectorizer *tfidfVectorizer
	features   [][]float64
	productSim [][]float64
}

// ContentFilter recommends products by TF-IDF similarity over product text
// (name, category, brand, description, tags). Snapshot replacement follows
// the same copy-on-write discipline as the collaborative model.
type ContentFilter struct {
	mu    sync.RWMutex
	fitMu sync.Mutex
	snap  *contentSnapshot
}

func NewContentFilter() *ContentFilter {
	return &ContentFilter{}
}

func (cb *ContentFilter) snapshot() *contentSnapshot {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.snap
}

// Fitted reports whether at least one Fit has completed successfully.
func (cb *ContentFilter) Fitted() bool {
	return cb.snapshot() != nil
}

// Fit builds the TF-IDF feature matrix and product similarity matrix over the
// catalog. An empty catalog is a no-op that leaves any prior snapshot intact.
func (cb *ContentFilter) Fit(products []domain.Product) error {
	if !cb.fitMu.TryLock() {
		return domain.ErrFitInProgress
	}
	defer cb.fitMu.Unlock()

	if len(products) == 0 {
		return nil
	}

	snap := &contentSnapshot{
		productIDs:   make([]string, 0, len(products)),
		productIndex: make(map[string]int, len(products)),
		products:     make(map[string]domain.Product, len(products)),
		vectorizer:   newTFIDFVectorizer(maxVocabulary),
	}

	docs := make([]string, 0, len(products))
	for _, p := range products {
		snap.productIndex[p.ID] = len(snap.productIDs)
		snap.productIDs = append(snap.productIDs, p.ID)
		snap.products[p.ID] = p
		docs = append(docs, productText(p))
	}

	snap.features = snap.vectorizer.fitTransform(docs)
	snap.productSim = cosineSimilarityMatrix(snap.features)

	cb.mu.Lock()
	cb.snap = snap
	cb.mu.Unlock()
	return nil
}

// productText builds the synthetic document fed to TF-IDF. Name, category and
// brand are repeated so their terms get proportionally higher term frequency
// than description and tag terms.
func productText(p domain.Product) string {
	var b strings.Builder
	appendRepeated(&b, p.Name, 3)
	appendRepeated(&b, p.Category, 2)
	appendRepeated(&b, p.Brand, 2)
	appendRepeated(&b, p.Description, 1)
	appendRepeated(&b, strings.Join(p.Tags, " "), 1)
	return strings.TrimSpace(b.String())
}

func appendRepeated(b *strings.Builder, s string, times int) {
	if s == "" {
		return
	}
	for range times {
		b.WriteString(s)
		b.WriteByte(' ')
	}
}

// SimilarProducts ranks products by content similarity to the given product,
// excluding the product itself and zero-similarity entries.
func (cb *ContentFilter) SimilarProducts(productID string, n int) []Scored {
	snap := cb.snapshot()
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
		if sim := snap.productSim[idx][j]; sim > 0 {
			recs = append(recs, Scored{ProductID: id, Score: sim})
		}
	}
	return topN(recs, n)
}

// RecommendForUser scores the catalog against a synthesized user profile: the
// weighted average of the feature vectors of interacted products, plus a
// small boost from the user's preference tags. A user with no usable history
// and no preferences has a zero profile and gets an empty result; callers
// fall back to trending for cold users.
func (cb *ContentFilter) RecommendForUser(preferences []string, interactions []domain.Interaction, n int, excludeInteracted bool) []Scored {
	snap := cb.snapshot()
	if snap == nil {
		return nil
	}

	weights := make(map[string]float64)
	for _, in := range interactions {
		if in.Malformed() {
			continue
		}
		if w := contentWeight(in); w > weights[in.ProductID] {
			weights[in.ProductID] = w
		}
	}

	profile := make([]float64, snap.vectorizer.dims())
	var totalWeight float64
	for productID, w := range weights {
		idx, ok := snap.productIndex[productID]
		if !ok {
			continue
		}
		for d, x := range snap.features[idx] {
			profile[d] += x * w
		}
		totalWeight += w
	}
	if totalWeight > 0 {
		for d := range profile {
			profile[d] /= totalWeight
		}
	}

	if len(preferences) > 0 {
		prefVec := snap.vectorizer.transform(strings.Join(preferences, " "))
		for d, x := range prefVec {
			profile[d] += x * preferenceBoost
		}
	}

	recs := make([]Scored, 0, len(snap.productIDs))
	for j, productID := range snap.productIDs {
		if excludeInteracted {
			if _, interacted := weights[productID]; interacted {
				continue
			}
		}
		if score := cosineSimilarity(profile, snap.features[j]); score > 0 {
			recs = append(recs, Scored{ProductID: productID, Score: score})
		}
	}
	return topN(recs, n)
}

// RecommendByCategory returns the top products of a category (case-insensitive
// exact match) with at least minRating, ordered by rating with rating count
// breaking ties. Identifiers only; there is no similarity score here.
func (cb *ContentFilter) RecommendByCategory(category string, n int, minRating float64) []string {
	snap := cb.snapshot()
	if snap == nil {
		return nil
	}

	type ranked struct {
		id         string
		rating     float64
		numRatings int
	}
	matches := make([]ranked, 0)
	for _, id := range snap.productIDs {
		p := snap.products[id]
		if !strings.EqualFold(p.Category, category) || p.Rating < minRating {
			continue
		}
		matches = append(matches, ranked{id: id, rating: p.Rating, numRatings: p.NumRatings})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rating != matches[j].rating {
			return matches[i].rating > matches[j].rating
		}
		return matches[i].numRatings > matches[j].numRatings
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	return ids
}
