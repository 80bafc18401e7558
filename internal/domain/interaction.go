package domain

import "time"

type InteractionKind string

const (
	KindView     InteractionKind = "view"
	KindCart     InteractionKind = "cart"
	KindPurchase InteractionKind = "purchase"
	KindRating   InteractionKind = "rating"
	KindWishlist InteractionKind = "wishlist"
)

func (k InteractionKind) Valid() bool {
	switch k {
	case KindView, KindCart, KindPurchase, KindRating, KindWishlist:
		return true
	}
	return false
}

// Interaction is a single user-product event from the append-only log.
// Rating is only meaningful for explicit rating events; 0 means absent.
// A zero Timestamp means the record predates timestamping.
type Interaction struct {
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Kind      InteractionKind `json:"interaction_type"`
	Rating    float64         `json:"rating,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Malformed reports whether the interaction must be rejected at ingestion:
// missing identifiers or an unrecognized kind.
func (i Interaction) Malformed() bool {
	return i.UserID == "" || i.ProductID == "" || !i.Kind.Valid()
}
