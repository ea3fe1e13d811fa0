package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order statuses that permit reviewing
const (
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCompleted = "COMPLETED"

	PaymentStatusSuccess = "SUCCESS"
)

// Order is the read-only eligibility oracle supplied by the order subsystem
type Order struct {
	ID            uuid.UUID `json:"id" db:"id"`
	BuyerID       uuid.UUID `json:"buyer_id" db:"buyer_id"`
	Status        string    `json:"status" db:"status"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Reviewable reports whether the order's state permits a review
func (o *Order) Reviewable() bool {
	return (o.Status == OrderStatusDelivered || o.Status == OrderStatusCompleted) &&
		o.PaymentStatus == PaymentStatusSuccess
}

// OrderReader exposes the narrow order contract this core consumes
type OrderReader interface {
	// FindEligibleOrder returns the order only if it belongs to the user,
	// is reviewable, and contains the product; ErrNotEligible otherwise
	FindEligibleOrder(ctx context.Context, userID, orderID, productID uuid.UUID) (*Order, error)
}
