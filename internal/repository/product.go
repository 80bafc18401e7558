package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

const productColumns = `id, name, category, price, description, brand, tags,
	image_url, rating, num_ratings, stock, created_at`

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
type ProductFilter struct {
	Category  string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Description,
		&p.Brand, &p.Tags, &p.ImageURL, &p.Rating, &p.NumRatings, &p.Stock, &p.CreatedAt)
	return p, err
}

// Get single product
func (r *Repository) GetProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("query product id=%s: %w", productID, err)
	}
	return &p, nil
}

// List the whole catalog, in stable id order. Used for model fitting.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// List products matching a filter.
func (r *Repository) ListProductsFiltered(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		query += fmt.Sprintf(" AND price >= $%d", len(args))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		query += fmt.Sprintf(" AND price <= $%d", len(args))
	}
	if f.MinRating > 0 {
		args = append(args, f.MinRating)
		query += fmt.Sprintf(" AND rating >= $%d", len(args))
	}
	query += " ORDER BY rating DESC, num_ratings DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query filtered products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Fetch a set of products keyed by id, for hydrating recommendation lists.
func (r *Repository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Count total products
func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	var items []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}
