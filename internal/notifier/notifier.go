package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
)

// Event is the review lifecycle event as published on the stream
type Event struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
}

// StoreReader resolves the store a reviewed product belongs to
type StoreReader interface {
	GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error)
}

// Mailer delivers seller notifications
type Mailer interface {
	SendReviewNotification(to, storeName string, rating int) error
}

// Notifier consumes review events and applies the side effects that do
// not belong in the review write path: loyalty points for the reviewer
// and an email to the seller.
type Notifier struct {
	stores      StoreReader
	points      domain.PointsLedger
	mailer      Mailer
	reviewAward int64
	logger      *logger.Logger
}

// New creates a new notifier
func New(stores StoreReader, points domain.PointsLedger, mailer Mailer, reviewAward int64, log *logger.Logger) *Notifier {
	return &Notifier{
		stores:      stores,
		points:      points,
		mailer:      mailer,
		reviewAward: reviewAward,
		logger:      log,
	}
}

// HandleEvent processes a single review event. Only review.created carries
// side effects; updates and deletes are logged and acked.
//
// A points failure returns an error so the message is redelivered; the
// ledger increment is not idempotent per event, but a rare double award
// is preferable to a silently dropped one. A mail failure is only logged -
// a lost notification is a tolerated degradation.
func (n *Notifier) HandleEvent(data []byte) error {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		n.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	n.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"review_id":  event.ReviewID.String(),
		"product_id": event.ProductID.String(),
	}).Info("Received review event")

	if event.EventType != "review.created" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balance, err := n.points.Increment(ctx, event.UserID, n.reviewAward)
	if err != nil {
		n.logger.WithFields(map[string]any{
			"user_id": event.UserID.String(),
			"error":   err.Error(),
		}).Error("Failed to award review points", err)
		return fmt.Errorf("failed to award review points: %w", err)
	}

	n.logger.WithFields(map[string]any{
		"user_id": event.UserID.String(),
		"award":   n.reviewAward,
		"balance": balance,
	}).Info("Awarded review points")

	n.notifySeller(ctx, event)

	return nil
}

func (n *Notifier) notifySeller(ctx context.Context, event Event) {
	store, err := n.stores.GetStore(ctx, event.StoreID)
	if err != nil {
		n.logger.WithFields(map[string]any{
			"store_id": event.StoreID.String(),
			"error":    err.Error(),
		}).Warn("Failed to resolve store for seller notification")
		return
	}

	if store.ContactEmail == "" {
		n.logger.WithFields(map[string]any{
			"store_id": store.ID.String(),
		}).Debug("Store has no contact email, skipping notification")
		return
	}

	if err := n.mailer.SendReviewNotification(store.ContactEmail, store.Name, event.Rating); err != nil {
		n.logger.WithFields(map[string]any{
			"store_id": store.ID.String(),
			"error":    err.Error(),
		}).Warn("Failed to send seller notification")
		return
	}

	n.logger.WithFields(map[string]any{
		"store_id": store.ID.String(),
	}).Info("Sent seller notification")
}
