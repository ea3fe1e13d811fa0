package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

const reviewColumns = `id, user_id, product_id, order_id, rating, title, comment, media, is_verified, created_at, updated_at`

// ReviewRepository implements domain.ReviewRepository for PostgreSQL.
// Every mutation runs in a single transaction together with the product
// aggregate delta, so concurrent writers serialize instead of racing.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateVerified inserts a review with the eligibility check and the
// aggregate increment in one transaction
func (r *ReviewRepository) CreateVerified(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-check eligibility inside the transaction to close the
	// check-then-insert race between concurrent requests.
	var eligible bool
	err = tx.GetContext(ctx, &eligible, `
		SELECT EXISTS(
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.id = $1
			  AND o.buyer_id = $2
			  AND o.status IN ($3, $4)
			  AND o.payment_status = $5
			  AND oi.product_id = $6
		)`,
		review.OrderID, review.UserID,
		domain.OrderStatusDelivered, domain.OrderStatusCompleted,
		domain.PaymentStatusSuccess, review.ProductID,
	)
	if err != nil {
		return err
	}
	if !eligible {
		return domain.ErrNotEligible
	}

	var productActive bool
	err = tx.GetContext(ctx, &productActive,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND is_active)`, review.ProductID)
	if err != nil {
		return err
	}
	if !productActive {
		return domain.ErrNotEligible
	}

	review.IsVerified = true
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO reviews (user_id, product_id, order_id, rating, title, comment, media, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		review.UserID, review.ProductID, review.OrderID,
		review.Rating, review.Title, review.Comment, review.Media, review.IsVerified,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET rating_sum = rating_sum + $1, rating_count = rating_count + 1, updated_at = now()
		WHERE id = $2`,
		review.Rating, review.ProductID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.GetContext(ctx, &review,
		fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// UpdateOwned updates a review owned by userID; a rating change applies the
// (new − old) delta to the product aggregate in the same transaction
func (r *ReviewRepository) UpdateOwned(ctx context.Context, id, userID uuid.UUID, upd domain.ReviewUpdate) (*domain.Review, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing domain.Review
	err = tx.GetContext(ctx, &existing,
		fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1 AND user_id = $2 FOR UPDATE`, reviewColumns),
		id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var updated domain.Review
	err = tx.QueryRowxContext(ctx, `
		UPDATE reviews
		SET rating = $1, title = $2, comment = $3, updated_at = $4
		WHERE id = $5
		RETURNING `+reviewColumns,
		upd.Rating, upd.Title, upd.Comment, time.Now(), id,
	).StructScan(&updated)
	if err != nil {
		return nil, err
	}

	if delta := upd.Rating - existing.Rating; delta != 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET rating_sum = rating_sum + $1, updated_at = now()
			WHERE id = $2`,
			delta, existing.ProductID,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOwned removes a review owned by userID and decrements the product
// aggregate in the same transaction
func (r *ReviewRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) (*domain.Review, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing domain.Review
	err = tx.GetContext(ctx, &existing,
		fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1 AND user_id = $2 FOR UPDATE`, reviewColumns),
		id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET rating_sum = rating_sum - $1, rating_count = rating_count - 1, updated_at = now()
		WHERE id = $2`,
		existing.Rating, existing.ProductID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &existing, nil
}

// ListByProduct retrieves reviews for a product with pagination, sorting and
// an optional star filter
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) ([]*domain.Review, int, error) {
	where := `product_id = $1`
	args := []interface{}{productID}
	if f.Rating != nil {
		where += ` AND rating = $2`
		args = append(args, *f.Rating)
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM reviews WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	// SortBy is whitelisted by ListParams.Normalize, safe to interpolate
	query := fmt.Sprintf(
		`SELECT %s FROM reviews WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		reviewColumns, where, p.SortBy, sortDirection(p.SortOrder), p.Limit, p.Offset())

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByUser retrieves a user's reviews, newest first
func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Review, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	reviews := []*domain.Review{}
	query := fmt.Sprintf(
		`SELECT %s FROM reviews WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		reviewColumns, p.Limit, p.Offset())
	if err := r.db.SelectContext(ctx, &reviews, query, userID); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByStore retrieves reviews across all products of a store
func (r *ReviewRepository) ListByStore(ctx context.Context, storeID uuid.UUID, p domain.ListParams) ([]*domain.Review, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*)
		FROM reviews r
		JOIN products pr ON pr.id = r.product_id
		WHERE pr.store_id = $1`, storeID); err != nil {
		return nil, 0, err
	}

	reviews := []*domain.Review{}
	query := fmt.Sprintf(`
		SELECT r.id, r.user_id, r.product_id, r.order_id, r.rating, r.title, r.comment,
		       r.media, r.is_verified, r.created_at, r.updated_at
		FROM reviews r
		JOIN products pr ON pr.id = r.product_id
		WHERE pr.store_id = $1
		ORDER BY r.created_at DESC
		LIMIT %d OFFSET %d`, p.Limit, p.Offset())
	if err := r.db.SelectContext(ctx, &reviews, query, storeID); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Summary computes count, average and per-star histogram from the review
// set itself, not the denormalized columns
func (r *ReviewRepository) Summary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, error) {
	summary := &domain.RatingSummary{
		ProductID: productID,
		Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT rating, COUNT(*) AS n
		FROM reviews
		WHERE product_id = $1
		GROUP BY rating`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := 0
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		summary.Histogram[rating] = n
		summary.Count += n
		sum += rating * n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if summary.Count > 0 {
		summary.Average = float64(sum) / float64(summary.Count)
	}
	return summary, nil
}

func sortDirection(order string) string {
	if order == domain.SortAsc {
		return "ASC"
	}
	return "DESC"
}
