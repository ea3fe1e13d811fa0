package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PointsRepository implements domain.PointsLedger with a single atomic
// upsert per award; the balance is never read-modified in application code.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository creates a new points ledger repository
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Increment adds amount to the user's balance and returns the new balance
func (r *PointsRepository) Increment(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO user_points (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET balance = user_points.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance`,
		userID, amount,
	).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return balance, nil
}
