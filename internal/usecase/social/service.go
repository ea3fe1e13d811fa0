package social

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
)

// SocialCache is the cache seam for interaction counts and user collections
type SocialCache interface {
	GetReviewLikeCount(ctx context.Context, reviewID uuid.UUID) (int, bool)
	SetReviewLikeCount(ctx context.Context, reviewID uuid.UUID, n int) error
	GetProductLikeCount(ctx context.Context, productID uuid.UUID) (int, bool)
	SetProductLikeCount(ctx context.Context, productID uuid.UUID, n int) error
	GetStoreFollowerCount(ctx context.Context, storeID uuid.UUID) (int, bool)
	SetStoreFollowerCount(ctx context.Context, storeID uuid.UUID, n int) error
	GetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ProductList, bool)
	SetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.ProductList) error
	GetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.StoreList, bool)
	SetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.StoreList) error
	InvalidateReviewLike(ctx context.Context, reviewID uuid.UUID) error
	InvalidateProductLike(ctx context.Context, productID, userID uuid.UUID) error
	InvalidateStoreFollow(ctx context.Context, storeID, userID uuid.UUID) error
}

// Service implements the shared interaction pattern for review likes,
// product likes and store follows. There is deliberately no atomic toggle:
// like and unlike are separate calls, and near-simultaneous duplicate likes
// race with the unique constraint turning the loser into a conflict.
type Service struct {
	repo   domain.SocialRepository
	cache  SocialCache
	logger *logger.Logger
}

// NewService creates a new social interaction service
func NewService(repo domain.SocialRepository, socialCache SocialCache, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  socialCache,
		logger: log,
	}
}

// LikeReview records a like; a duplicate pair is a conflict
func (s *Service) LikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	if err := s.repo.LikeReview(ctx, userID, reviewID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateReviewLike(ctx, reviewID) })
	return nil
}

// UnlikeReview removes a like; a missing pair is not found
func (s *Service) UnlikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	if err := s.repo.UnlikeReview(ctx, userID, reviewID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateReviewLike(ctx, reviewID) })
	return nil
}

// ReviewLikeCount serves the like count cache-aside
func (s *Service) ReviewLikeCount(ctx context.Context, reviewID uuid.UUID) (int, bool, error) {
	if n, ok := s.cache.GetReviewLikeCount(ctx, reviewID); ok {
		return n, true, nil
	}
	n, err := s.repo.CountReviewLikes(ctx, reviewID)
	if err != nil {
		return 0, false, err
	}
	if err := s.cache.SetReviewLikeCount(ctx, reviewID, n); err != nil {
		s.logger.Warnf("Failed to cache like count for review %s: %v", reviewID, err)
	}
	return n, false, nil
}

// LikeProduct records a product like
func (s *Service) LikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.LikeProduct(ctx, userID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateProductLike(ctx, productID, userID) })
	return nil
}

// UnlikeProduct removes a product like
func (s *Service) UnlikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.UnlikeProduct(ctx, userID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateProductLike(ctx, productID, userID) })
	return nil
}

// ProductLikeCount serves the like count cache-aside
func (s *Service) ProductLikeCount(ctx context.Context, productID uuid.UUID) (int, bool, error) {
	if n, ok := s.cache.GetProductLikeCount(ctx, productID); ok {
		return n, true, nil
	}
	n, err := s.repo.CountProductLikes(ctx, productID)
	if err != nil {
		return 0, false, err
	}
	if err := s.cache.SetProductLikeCount(ctx, productID, n); err != nil {
		s.logger.Warnf("Failed to cache like count for product %s: %v", productID, err)
	}
	return n, false, nil
}

// FollowStore records a store follow
func (s *Service) FollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	if err := s.repo.FollowStore(ctx, userID, storeID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateStoreFollow(ctx, storeID, userID) })
	return nil
}

// UnfollowStore removes a store follow
func (s *Service) UnfollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	if err := s.repo.UnfollowStore(ctx, userID, storeID); err != nil {
		return err
	}
	s.invalidate(ctx, func() error { return s.cache.InvalidateStoreFollow(ctx, storeID, userID) })
	return nil
}

// StoreFollowerCount serves the follower count cache-aside
func (s *Service) StoreFollowerCount(ctx context.Context, storeID uuid.UUID) (int, bool, error) {
	if n, ok := s.cache.GetStoreFollowerCount(ctx, storeID); ok {
		return n, true, nil
	}
	n, err := s.repo.CountStoreFollowers(ctx, storeID)
	if err != nil {
		return 0, false, err
	}
	if err := s.cache.SetStoreFollowerCount(ctx, storeID, n); err != nil {
		s.logger.Warnf("Failed to cache follower count for store %s: %v", storeID, err)
	}
	return n, false, nil
}

// LikedProducts serves the user's liked products cache-aside
func (s *Service) LikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ProductList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt)

	if list, ok := s.cache.GetLikedProducts(ctx, userID, p); ok {
		return list, true, nil
	}

	products, total, err := s.repo.ListLikedProducts(ctx, userID, p)
	if err != nil {
		return nil, false, err
	}

	list := &cache.ProductList{Products: products, Total: total}
	if err := s.cache.SetLikedProducts(ctx, userID, p, list); err != nil {
		s.logger.Warnf("Failed to cache liked products for user %s: %v", userID, err)
	}
	return list, false, nil
}

// Following serves the stores the user follows cache-aside
func (s *Service) Following(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.StoreList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt)

	if list, ok := s.cache.GetFollowing(ctx, userID, p); ok {
		return list, true, nil
	}

	stores, total, err := s.repo.ListFollowedStores(ctx, userID, p)
	if err != nil {
		return nil, false, err
	}

	list := &cache.StoreList{Stores: stores, Total: total}
	if err := s.cache.SetFollowing(ctx, userID, p, list); err != nil {
		s.logger.Warnf("Failed to cache following for user %s: %v", userID, err)
	}
	return list, false, nil
}

// invalidate runs a purge after a committed mutation; failures leave
// bounded staleness and are only logged
func (s *Service) invalidate(ctx context.Context, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warnf("Cache invalidation failed: %v", err)
	}
}
