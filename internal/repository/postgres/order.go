package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

// OrderRepository implements domain.OrderReader against the order tables.
// Read-only: the order subsystem owns the rows.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new order reader
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindEligibleOrder returns the order only if it belongs to the user, is in
// a reviewable state with a successful payment, and contains the product.
// Any unmet condition collapses to ErrNotEligible; callers never learn which
// check failed, matching the narrow eligibility contract.
func (r *OrderRepository) FindEligibleOrder(ctx context.Context, userID, orderID, productID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT o.id, o.buyer_id, o.status, o.payment_status, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.id = $1
		  AND o.buyer_id = $2
		  AND o.status IN ($3, $4)
		  AND o.payment_status = $5
		  AND oi.product_id = $6`,
		orderID, userID,
		domain.OrderStatusDelivered, domain.OrderStatusCompleted,
		domain.PaymentStatusSuccess, productID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotEligible
		}
		return nil, err
	}
	return &order, nil
}
