package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

func scanInteraction(row pgx.Row) (domain.Interaction, error) {
	var (
		in        domain.Interaction
		rating    *float64
		createdAt *time.Time
	)
	if err := row.Scan(&in.UserID, &in.ProductID, &in.Kind, &rating, &createdAt); err != nil {
		return in, err
	}
	if rating != nil {
		in.Rating = *rating
	}
	if createdAt != nil {
		in.Timestamp = *createdAt
	}
	return in, nil
}

// List every interaction, oldest first. Feeds model fitting and trending.
func (r *Repository) ListInteractions(ctx context.Context) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, product_id, interaction_type, rating, created_at
		 FROM user_interactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	return collectInteractions(rows)
}

// List one user's interactions, oldest first.
func (r *Repository) ListUserInteractions(ctx context.Context, userID string) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, product_id, interaction_type, rating, created_at
		 FROM user_interactions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query interactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectInteractions(rows)
}

// Record interaction
func (r *Repository) AddInteraction(ctx context.Context, in domain.Interaction) error {
	var rating *float64
	if in.Kind == domain.KindRating {
		rating = &in.Rating
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_interactions (user_id, product_id, interaction_type, rating, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		in.UserID, in.ProductID, string(in.Kind), rating, ts)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Count total interactions
func (r *Repository) CountInteractions(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_interactions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return total, nil
}

func collectInteractions(rows pgx.Rows) ([]domain.Interaction, error) {
	var items []domain.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return items, nil
}
