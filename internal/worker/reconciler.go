package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
)

// Reconciler repairs the denormalized rating aggregate on a product from
// the review rows themselves. The API keeps the aggregate current with
// incremental deltas inside each review transaction; this full rescan is
// the repair path that corrects any drift those deltas could accumulate.
type Reconciler struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewReconciler creates a new rating reconciler
func NewReconciler(db *sqlx.DB, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		db:     db,
		logger: logger,
	}
}

// Reconcile recomputes rating_sum and rating_count for a product from its
// reviews and writes the result. Idempotent - safe to run on redelivery.
func (r *Reconciler) Reconcile(ctx context.Context, productID uuid.UUID) error {
	query := `
		UPDATE products
		SET
			rating_sum = COALESCE(
				(SELECT SUM(rating) FROM reviews WHERE product_id = $1),
				0
			),
			rating_count = COALESCE(
				(SELECT COUNT(*) FROM reviews WHERE product_id = $1),
				0
			),
			updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, productID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reconcile product rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Product not found - not an error, just log
	if rowsAffected == 0 {
		r.logger.WithFields(map[string]any{
			"product_id": productID.String(),
		}).Info("Product not found, skipping rating reconciliation")
		return nil
	}

	r.logger.WithFields(map[string]any{
		"product_id": productID.String(),
	}).Info("Reconciled product rating aggregate")

	return nil
}

// GetAggregate retrieves the stored aggregate for verification (used in tests)
func (r *Reconciler) GetAggregate(ctx context.Context, productID uuid.UUID) (sum int64, count int, err error) {
	var row struct {
		RatingSum   int64 `db:"rating_sum"`
		RatingCount int   `db:"rating_count"`
	}

	query := `SELECT rating_sum, rating_count FROM products WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, productID); err != nil {
		return 0, 0, fmt.Errorf("failed to get rating aggregate: %w", err)
	}

	return row.RatingSum, row.RatingCount, nil
}
