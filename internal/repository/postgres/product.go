package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

const productColumns = `id, store_id, name, url_slug, category, price, color, tags, sizes, is_active, rating_sum, rating_count, created_at, updated_at`

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID retrieves an active product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND is_active`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug retrieves an active product by its URL slug
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product,
		`SELECT `+productColumns+` FROM products WHERE url_slug = $1 AND is_active`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// List retrieves active products matching the filter. Predicates are built
// by walking the filter fields in a fixed order, so identical filters always
// produce identical SQL.
func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter, p domain.ListParams) ([]*domain.Product, int, error) {
	where, args := buildProductPredicates(f)

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		productColumns, where, p.SortBy, sortDirection(p.SortOrder), p.Limit, p.Offset())

	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetStore retrieves a store by ID
func (r *ProductRepository) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	var store domain.Store
	err := r.db.GetContext(ctx, &store,
		`SELECT id, owner_id, name, slug, contact_email, created_at, updated_at FROM stores WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &store, nil
}

func buildProductPredicates(f domain.ProductFilter) (string, []interface{}) {
	predicates := []string{"is_active"}
	args := []interface{}{}

	next := func() int { return len(args) + 1 }

	if f.Search != nil {
		predicates = append(predicates, fmt.Sprintf("name ILIKE $%d", next()))
		args = append(args, "%"+*f.Search+"%")
	}
	if f.Category != nil {
		predicates = append(predicates, fmt.Sprintf("category = $%d", next()))
		args = append(args, *f.Category)
	}
	if f.PriceMin != nil {
		predicates = append(predicates, fmt.Sprintf("price >= $%d", next()))
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		predicates = append(predicates, fmt.Sprintf("price <= $%d", next()))
		args = append(args, *f.PriceMax)
	}
	if len(f.Tags) > 0 {
		predicates = append(predicates, fmt.Sprintf("tags && $%d", next()))
		args = append(args, pq.Array(f.Tags))
	}
	if len(f.Sizes) > 0 {
		predicates = append(predicates, fmt.Sprintf("sizes && $%d", next()))
		args = append(args, pq.Array(f.Sizes))
	}
	if len(f.Colors) > 0 {
		predicates = append(predicates, fmt.Sprintf("color = ANY($%d)", next()))
		args = append(args, pq.Array(f.Colors))
	}

	return strings.Join(predicates, " AND "), args
}
