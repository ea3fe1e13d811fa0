package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review represents a buyer's review of a purchased product.
// At most one review exists per (user, order, product) triple.
type Review struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id" validate:"required"`
	ProductID  uuid.UUID      `json:"product_id" db:"product_id" validate:"required"`
	OrderID    uuid.UUID      `json:"order_id" db:"order_id" validate:"required"`
	Rating     int            `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Title      *string        `json:"title,omitempty" db:"title" validate:"omitempty,max=255"`
	Comment    *string        `json:"comment,omitempty" db:"comment" validate:"omitempty,max=5000"`
	Media      pq.StringArray `json:"media" db:"media"`
	IsVerified bool           `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// ReviewResponse is the seller's single reply to a review
type ReviewResponse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ReviewID  uuid.UUID `json:"review_id" db:"review_id" validate:"required"`
	SellerID  uuid.UUID `json:"seller_id" db:"seller_id" validate:"required"`
	Response  string    `json:"response" db:"response" validate:"required,min=1,max=5000"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewReport flags a review for moderation.
// A user may hold at most one open report per review.
type ReviewReport struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id" validate:"required"`
	ReviewID    uuid.UUID `json:"review_id" db:"review_id" validate:"required"`
	Reason      string    `json:"reason" db:"reason" validate:"required,min=1,max=100"`
	Description *string   `json:"description,omitempty" db:"description" validate:"omitempty,max=2000"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ReviewUpdate carries the mutable fields of a review
type ReviewUpdate struct {
	Rating  int     `validate:"required,min=1,max=5"`
	Title   *string `validate:"omitempty,max=255"`
	Comment *string `validate:"omitempty,max=5000"`
}

// RatingSummary is the per-product read model for rating displays
type RatingSummary struct {
	ProductID uuid.UUID   `json:"product_id"`
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Histogram map[int]int `json:"histogram"`
}

// ReviewRepository defines the interface for review data access.
//
// The mutating operations keep the product aggregate columns
// (rating_sum, rating_count) consistent with the review set by applying
// atomic deltas inside the same transaction as the review mutation.
type ReviewRepository interface {
	// CreateVerified inserts a review after re-checking eligibility inside
	// the transaction: the order belongs to the user, is DELIVERED or
	// COMPLETED with a successful payment, contains the product, the product
	// is active, and no review exists yet for the triple. Returns
	// ErrNotEligible when a precondition fails and ErrConflict on a
	// duplicate triple.
	CreateVerified(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// UpdateOwned updates a review owned by userID and applies the rating
	// delta to the product aggregate in the same transaction
	UpdateOwned(ctx context.Context, id, userID uuid.UUID, upd ReviewUpdate) (*Review, error)

	// DeleteOwned removes a review owned by userID and decrements the
	// product aggregate in the same transaction. Returns the deleted review.
	DeleteOwned(ctx context.Context, id, userID uuid.UUID) (*Review, error)

	// ListByProduct retrieves reviews for a product with pagination,
	// sorting and an optional star filter, plus the total count
	ListByProduct(ctx context.Context, productID uuid.UUID, f ReviewFilter, p ListParams) ([]*Review, int, error)

	// ListByUser retrieves a user's reviews, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, p ListParams) ([]*Review, int, error)

	// ListByStore retrieves reviews across all products of a store
	ListByStore(ctx context.Context, storeID uuid.UUID, p ListParams) ([]*Review, int, error)

	// Summary returns count, average and per-star histogram for a product
	Summary(ctx context.Context, productID uuid.UUID) (*RatingSummary, error)

	// CreateResponse inserts the seller's reply. The seller must own the
	// store of the reviewed product (ErrForbidden otherwise); a second
	// reply yields ErrConflict.
	CreateResponse(ctx context.Context, resp *ReviewResponse) error

	// UpdateResponse updates the seller's own reply
	UpdateResponse(ctx context.Context, reviewID, sellerID uuid.UUID, text string) (*ReviewResponse, error)

	// DeleteResponse removes the seller's own reply
	DeleteResponse(ctx context.Context, reviewID, sellerID uuid.UUID) error

	// GetResponse retrieves the reply for a review, if any
	GetResponse(ctx context.Context, reviewID uuid.UUID) (*ReviewResponse, error)

	// CreateReport files a report; at most one open report per
	// (user, review) pair, enforced at creation time
	CreateReport(ctx context.Context, report *ReviewReport) error
}
