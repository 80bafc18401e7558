package domain

import "time"

type Product struct {
	ID          string    `json:"product_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Rating      float64   `json:"rating"`
	NumRatings  int       `json:"num_ratings"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}
