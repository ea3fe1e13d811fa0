package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a sellable item. The rating aggregate is denormalized
// into rating_sum/rating_count and mutated only through atomic deltas in the
// review repository, never written directly by handlers.
type Product struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	StoreID     uuid.UUID      `json:"store_id" db:"store_id"`
	Name        string         `json:"name" db:"name" validate:"required,min=1,max=255"`
	URLSlug     string         `json:"url_slug" db:"url_slug" validate:"required,min=1,max=255"`
	Category    string         `json:"category" db:"category"`
	Price       float64        `json:"price" db:"price" validate:"gte=0"`
	Color       string         `json:"color" db:"color"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Sizes       pq.StringArray `json:"sizes" db:"sizes"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	RatingSum   int64          `json:"-" db:"rating_sum"`
	RatingCount int            `json:"rating_count" db:"rating_count"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Rating returns the mean of all review ratings, or 0 with no reviews.
// The stored aggregate keeps full precision; rounding is presentation-only.
func (p *Product) Rating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}

// Store is the seller entity owning products
type Store struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	ContactEmail string    `json:"-" db:"contact_email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ProductRepository defines the interface for product read access
type ProductRepository interface {
	// GetByID retrieves an active product by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// GetBySlug retrieves an active product by its URL slug
	GetBySlug(ctx context.Context, slug string) (*Product, error)

	// List retrieves active products matching the filter, plus total count
	List(ctx context.Context, f ProductFilter, p ListParams) ([]*Product, int, error)

	// GetStore retrieves a store by ID
	GetStore(ctx context.Context, id uuid.UUID) (*Store, error)
}
