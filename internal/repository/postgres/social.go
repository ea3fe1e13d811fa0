package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

// SocialRepository implements domain.SocialRepository for PostgreSQL.
// All three interaction families share the same composite-unique shape, so
// the methods funnel through generic pair helpers.
type SocialRepository struct {
	db *sqlx.DB
}

// NewSocialRepository creates a new PostgreSQL social repository
func NewSocialRepository(db *sqlx.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

func (r *SocialRepository) insertPair(ctx context.Context, table, actorCol, targetCol string, actor, target uuid.UUID) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, table, actorCol, targetCol)
	if _, err := r.db.ExecContext(ctx, query, actor, target); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *SocialRepository) deletePair(ctx context.Context, table, actorCol, targetCol string, actor, target uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table, actorCol, targetCol)
	result, err := r.db.ExecContext(ctx, query, actor, target)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SocialRepository) countPairs(ctx context.Context, table, targetCol string, target uuid.UUID) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table, targetCol)
	if err := r.db.GetContext(ctx, &count, query, target); err != nil {
		return 0, err
	}
	return count, nil
}

// LikeReview records a like; the (user, review) pair is unique
func (r *SocialRepository) LikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	return r.insertPair(ctx, "review_likes", "user_id", "review_id", userID, reviewID)
}

// UnlikeReview removes a like; missing pair is ErrNotFound
func (r *SocialRepository) UnlikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	return r.deletePair(ctx, "review_likes", "user_id", "review_id", userID, reviewID)
}

// CountReviewLikes returns the like count for a review
func (r *SocialRepository) CountReviewLikes(ctx context.Context, reviewID uuid.UUID) (int, error) {
	return r.countPairs(ctx, "review_likes", "review_id", reviewID)
}

// LikeProduct records a product like
func (r *SocialRepository) LikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return r.insertPair(ctx, "product_likes", "user_id", "product_id", userID, productID)
}

// UnlikeProduct removes a product like
func (r *SocialRepository) UnlikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return r.deletePair(ctx, "product_likes", "user_id", "product_id", userID, productID)
}

// CountProductLikes returns the like count for a product
func (r *SocialRepository) CountProductLikes(ctx context.Context, productID uuid.UUID) (int, error) {
	return r.countPairs(ctx, "product_likes", "product_id", productID)
}

// FollowStore records a store follow
func (r *SocialRepository) FollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return r.insertPair(ctx, "store_follows", "user_id", "store_id", userID, storeID)
}

// UnfollowStore removes a store follow
func (r *SocialRepository) UnfollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return r.deletePair(ctx, "store_follows", "user_id", "store_id", userID, storeID)
}

// CountStoreFollowers returns the follower count for a store
func (r *SocialRepository) CountStoreFollowers(ctx context.Context, storeID uuid.UUID) (int, error) {
	return r.countPairs(ctx, "store_follows", "store_id", storeID)
}

// ListLikedProducts retrieves products the user liked, newest like first
func (r *SocialRepository) ListLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Product, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM product_likes WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	products := []*domain.Product{}
	query := fmt.Sprintf(`
		SELECT p.id, p.store_id, p.name, p.url_slug, p.category, p.price, p.color,
		       p.tags, p.sizes, p.is_active, p.rating_sum, p.rating_count,
		       p.created_at, p.updated_at
		FROM product_likes pl
		JOIN products p ON p.id = pl.product_id
		WHERE pl.user_id = $1 AND p.is_active
		ORDER BY pl.created_at DESC
		LIMIT %d OFFSET %d`, p.Limit, p.Offset())
	if err := r.db.SelectContext(ctx, &products, query, userID); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListFollowedStores retrieves stores the user follows, newest follow first
func (r *SocialRepository) ListFollowedStores(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Store, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM store_follows WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	stores := []*domain.Store{}
	query := fmt.Sprintf(`
		SELECT s.id, s.owner_id, s.name, s.slug, s.created_at, s.updated_at
		FROM store_follows sf
		JOIN stores s ON s.id = sf.store_id
		WHERE sf.user_id = $1
		ORDER BY sf.created_at DESC
		LIMIT %d OFFSET %d`, p.Limit, p.Offset())
	if err := r.db.SelectContext(ctx, &stores, query, userID); err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}
