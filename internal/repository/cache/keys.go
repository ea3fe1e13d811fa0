package cache

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

// Key derivation lives in one place so every read and every invalidation
// agree on the exact strings.
//
// Two key classes exist:
//
//   - Exact keys (detail views, summaries, counts) are deleted explicitly on
//     mutation.
//   - Parameterized list keys embed a per-entity version counter. A mutation
//     bumps the counter, orphaning every page/sort/filter variant in O(1)
//     without enumerating them; the TTL bounds the orphans' lifetime.

func productByIDKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

func productBySlugKey(slug string) string {
	return fmt.Sprintf("product:slug:%s", slug)
}

func productSummaryKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s:summary", id)
}

func reviewLikeCountKey(reviewID uuid.UUID) string {
	return fmt.Sprintf("review:%s:likes", reviewID)
}

func productLikeCountKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:likes", productID)
}

func storeFollowerCountKey(storeID uuid.UUID) string {
	return fmt.Sprintf("store:%s:followers", storeID)
}

func productVersionKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s:ver", id)
}

func userVersionKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s:ver", id)
}

func storeVersionKey(id uuid.UUID) string {
	return fmt.Sprintf("store:%s:ver", id)
}

func productReviewListKey(productID uuid.UUID, ver int64, f domain.ReviewFilter, p domain.ListParams) string {
	return fmt.Sprintf("product:%s:v%d:reviews:%s:%s", productID, ver, f.CacheKey(), p.CacheKey())
}

func userReviewListKey(userID uuid.UUID, ver int64, p domain.ListParams) string {
	return fmt.Sprintf("user:%s:v%d:reviews:%s", userID, ver, p.CacheKey())
}

func storeReviewListKey(storeID uuid.UUID, ver int64, p domain.ListParams) string {
	return fmt.Sprintf("store:%s:v%d:reviews:%s", storeID, ver, p.CacheKey())
}

func userLikedProductsKey(userID uuid.UUID, ver int64, p domain.ListParams) string {
	return fmt.Sprintf("user:%s:v%d:liked-products:%s", userID, ver, p.CacheKey())
}

func userFollowingKey(userID uuid.UUID, ver int64, p domain.ListParams) string {
	return fmt.Sprintf("user:%s:v%d:following:%s", userID, ver, p.CacheKey())
}

func productListKey(f domain.ProductFilter, p domain.ListParams) string {
	return fmt.Sprintf("products:list:%s:%s", f.CacheKey(), p.CacheKey())
}
