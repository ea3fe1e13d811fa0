package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

const responseColumns = `id, review_id, seller_id, response, created_at, updated_at`

// CreateResponse inserts the seller's single reply to a review.
// Only the owner of the store selling the reviewed product may respond.
func (r *ReviewRepository) CreateResponse(ctx context.Context, resp *domain.ReviewResponse) error {
	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `
		SELECT s.owner_id
		FROM reviews rv
		JOIN products p ON p.id = rv.product_id
		JOIN stores s ON s.id = p.store_id
		WHERE rv.id = $1`, resp.ReviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if ownerID != resp.SellerID {
		return domain.ErrForbidden
	}

	err = r.db.QueryRowxContext(ctx, `
		INSERT INTO review_responses (review_id, seller_id, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		resp.ReviewID, resp.SellerID, resp.Response,
	).Scan(&resp.ID, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// UpdateResponse updates the seller's own reply
func (r *ReviewRepository) UpdateResponse(ctx context.Context, reviewID, sellerID uuid.UUID, text string) (*domain.ReviewResponse, error) {
	existing, err := r.GetResponse(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}

	var updated domain.ReviewResponse
	err = r.db.QueryRowxContext(ctx, `
		UPDATE review_responses
		SET response = $1, updated_at = $2
		WHERE review_id = $3
		RETURNING `+responseColumns,
		text, time.Now(), reviewID,
	).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// DeleteResponse removes the seller's own reply
func (r *ReviewRepository) DeleteResponse(ctx context.Context, reviewID, sellerID uuid.UUID) error {
	existing, err := r.GetResponse(ctx, reviewID)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return domain.ErrForbidden
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM review_responses WHERE review_id = $1`, reviewID)
	return err
}

// GetResponse retrieves the reply for a review, if any
func (r *ReviewRepository) GetResponse(ctx context.Context, reviewID uuid.UUID) (*domain.ReviewResponse, error) {
	var resp domain.ReviewResponse
	err := r.db.GetContext(ctx, &resp,
		`SELECT `+responseColumns+` FROM review_responses WHERE review_id = $1`, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// CreateReport files a moderation report. A user holds at most one open
// report per review; the check runs at creation time, not as a schema
// constraint.
func (r *ReviewRepository) CreateReport(ctx context.Context, report *domain.ReviewReport) error {
	var reviewExists bool
	err := r.db.GetContext(ctx, &reviewExists,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, report.ReviewID)
	if err != nil {
		return err
	}
	if !reviewExists {
		return domain.ErrNotFound
	}

	var openExists bool
	err = r.db.GetContext(ctx, &openExists, `
		SELECT EXISTS(
			SELECT 1 FROM review_reports
			WHERE user_id = $1 AND review_id = $2 AND status = 'OPEN'
		)`, report.UserID, report.ReviewID)
	if err != nil {
		return err
	}
	if openExists {
		return domain.ErrConflict
	}

	report.Status = "OPEN"
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO review_reports (user_id, review_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		report.UserID, report.ReviewID, report.Reason, report.Description, report.Status,
	).Scan(&report.ID, &report.CreatedAt)
}
