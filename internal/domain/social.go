package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewLike is the (user, review) join entity; one like per pair
type ReviewLike struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ReviewID  uuid.UUID `json:"review_id" db:"review_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductLike is the (user, product) join entity
type ProductLike struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoreFollow is the (user, store) join entity
type StoreFollow struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	StoreID   uuid.UUID `json:"store_id" db:"store_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SocialRepository covers the composite-unique interaction pattern shared by
// review likes, product likes and store follows: create of an existing pair
// is ErrConflict, delete of a missing pair is ErrNotFound.
type SocialRepository interface {
	LikeReview(ctx context.Context, userID, reviewID uuid.UUID) error
	UnlikeReview(ctx context.Context, userID, reviewID uuid.UUID) error
	CountReviewLikes(ctx context.Context, reviewID uuid.UUID) (int, error)

	LikeProduct(ctx context.Context, userID, productID uuid.UUID) error
	UnlikeProduct(ctx context.Context, userID, productID uuid.UUID) error
	CountProductLikes(ctx context.Context, productID uuid.UUID) (int, error)

	FollowStore(ctx context.Context, userID, storeID uuid.UUID) error
	UnfollowStore(ctx context.Context, userID, storeID uuid.UUID) error
	CountStoreFollowers(ctx context.Context, storeID uuid.UUID) (int, error)

	// ListLikedProducts retrieves products the user liked, newest like first
	ListLikedProducts(ctx context.Context, userID uuid.UUID, p ListParams) ([]*Product, int, error)

	// ListFollowedStores retrieves stores the user follows
	ListFollowedStores(ctx context.Context, userID uuid.UUID, p ListParams) ([]*Store, int, error)
}

// PointsLedger is the consumed points contract: a single atomic increment,
// never a read-modify-write of a balance
type PointsLedger interface {
	Increment(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
}
