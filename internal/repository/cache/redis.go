package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/metrics"
)

// Cache implements the cache-aside layer over Redis. Values are opaque JSON
// snapshots: they are returned whole on a hit or recomputed whole on a miss,
// never patched in place.
type Cache struct {
	client  *redis.Client
	ttl     config.CacheConfig
	metrics *metrics.Metrics
}

// ReviewList is the cached snapshot of a paginated review view
type ReviewList struct {
	Reviews []*domain.Review `json:"reviews"`
	Total   int              `json:"total"`
}

// ProductList is the cached snapshot of a paginated product view
type ProductList struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

// StoreList is the cached snapshot of a followed-stores view
type StoreList struct {
	Stores []*domain.Store `json:"stores"`
	Total  int             `json:"total"`
}

// New creates a new cache layer. metrics may be nil in tests.
func New(client *redis.Client, ttl config.CacheConfig, m *metrics.Metrics) *Cache {
	return &Cache{client: client, ttl: ttl, metrics: m}
}

func (c *Cache) observe(view string, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues(view).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(view).Inc()
	}
}

func (c *Cache) observeInvalidation(family string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheInvalidations.WithLabelValues(family).Inc()
}

// getJSON loads a snapshot. The bool reports a hit; decode failures count as
// misses so a corrupt entry is recomputed rather than served.
func (c *Cache) getJSON(ctx context.Context, view, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		c.observe(view, false)
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.observe(view, false)
		return false
	}
	c.observe(view, true)
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// version reads an entity's namespace version; a missing counter is 0
func (c *Cache) version(ctx context.Context, key string) int64 {
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// Product detail / summary

// GetProductByID retrieves the cached product detail
func (c *Cache) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, bool) {
	var p domain.Product
	if !c.getJSON(ctx, "product_detail", productByIDKey(id), &p) {
		return nil, false
	}
	return &p, true
}

// SetProductByID caches the product detail
func (c *Cache) SetProductByID(ctx context.Context, p *domain.Product) error {
	return c.setJSON(ctx, productByIDKey(p.ID), p, c.ttl.DetailTTL)
}

// GetProductBySlug retrieves the cached product detail by URL slug
func (c *Cache) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, bool) {
	var p domain.Product
	if !c.getJSON(ctx, "product_detail", productBySlugKey(slug), &p) {
		return nil, false
	}
	return &p, true
}

// SetProductBySlug caches the product detail under its slug
func (c *Cache) SetProductBySlug(ctx context.Context, p *domain.Product) error {
	return c.setJSON(ctx, productBySlugKey(p.URLSlug), p, c.ttl.DetailTTL)
}

// GetSummary retrieves the cached rating summary
func (c *Cache) GetSummary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, bool) {
	var s domain.RatingSummary
	if !c.getJSON(ctx, "rating_summary", productSummaryKey(productID), &s) {
		return nil, false
	}
	return &s, true
}

// SetSummary caches the rating summary
func (c *Cache) SetSummary(ctx context.Context, s *domain.RatingSummary) error {
	return c.setJSON(ctx, productSummaryKey(s.ProductID), s, c.ttl.SummaryTTL)
}

// Paginated lists (versioned namespaces)

// GetProductReviews retrieves a cached review page for a product
func (c *Cache) GetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) (*ReviewList, bool) {
	ver := c.version(ctx, productVersionKey(productID))
	var list ReviewList
	if !c.getJSON(ctx, "product_reviews", productReviewListKey(productID, ver, f, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetProductReviews caches a review page under the product's current version
func (c *Cache) SetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams, list *ReviewList) error {
	ver := c.version(ctx, productVersionKey(productID))
	return c.setJSON(ctx, productReviewListKey(productID, ver, f, p), list, c.ttl.ListTTL)
}

// GetUserReviews retrieves a cached page of the user's own reviews
func (c *Cache) GetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*ReviewList, bool) {
	ver := c.version(ctx, userVersionKey(userID))
	var list ReviewList
	if !c.getJSON(ctx, "user_reviews", userReviewListKey(userID, ver, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetUserReviews caches a page of the user's own reviews
func (c *Cache) SetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *ReviewList) error {
	ver := c.version(ctx, userVersionKey(userID))
	return c.setJSON(ctx, userReviewListKey(userID, ver, p), list, c.ttl.UserTTL)
}

// GetStoreReviews retrieves a cached page of a store's reviews
func (c *Cache) GetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams) (*ReviewList, bool) {
	ver := c.version(ctx, storeVersionKey(storeID))
	var list ReviewList
	if !c.getJSON(ctx, "store_reviews", storeReviewListKey(storeID, ver, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetStoreReviews caches a page of a store's reviews
func (c *Cache) SetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams, list *ReviewList) error {
	ver := c.version(ctx, storeVersionKey(storeID))
	return c.setJSON(ctx, storeReviewListKey(storeID, ver, p), list, c.ttl.ListTTL)
}

// GetLikedProducts retrieves a cached page of the user's liked products
func (c *Cache) GetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*ProductList, bool) {
	ver := c.version(ctx, userVersionKey(userID))
	var list ProductList
	if !c.getJSON(ctx, "liked_products", userLikedProductsKey(userID, ver, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetLikedProducts caches a page of the user's liked products
func (c *Cache) SetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *ProductList) error {
	ver := c.version(ctx, userVersionKey(userID))
	return c.setJSON(ctx, userLikedProductsKey(userID, ver, p), list, c.ttl.UserTTL)
}

// GetFollowing retrieves a cached page of stores the user follows
func (c *Cache) GetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*StoreList, bool) {
	ver := c.version(ctx, userVersionKey(userID))
	var list StoreList
	if !c.getJSON(ctx, "following", userFollowingKey(userID, ver, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetFollowing caches a page of stores the user follows
func (c *Cache) SetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *StoreList) error {
	ver := c.version(ctx, userVersionKey(userID))
	return c.setJSON(ctx, userFollowingKey(userID, ver, p), list, c.ttl.UserTTL)
}

// GetProductList retrieves a cached catalog page. Catalog pages are not
// version-namespaced; their rating/count columns may lag a review mutation
// by at most the list TTL, an accepted bounded staleness.
func (c *Cache) GetProductList(ctx context.Context, f domain.ProductFilter, p domain.ListParams) (*ProductList, bool) {
	var list ProductList
	if !c.getJSON(ctx, "product_list", productListKey(f, p), &list) {
		return nil, false
	}
	return &list, true
}

// SetProductList caches a catalog page
func (c *Cache) SetProductList(ctx context.Context, f domain.ProductFilter, p domain.ListParams, list *ProductList) error {
	return c.setJSON(ctx, productListKey(f, p), list, c.ttl.ListTTL)
}

// Counts

// GetCount retrieves a cached interaction count; found is false on miss
func (c *Cache) getCount(ctx context.Context, view, key string) (int, bool) {
	n, err := c.client.Get(ctx, key).Int()
	if err != nil {
		c.observe(view, false)
		return 0, false
	}
	c.observe(view, true)
	return n, true
}

// GetReviewLikeCount retrieves the cached like count for a review
func (c *Cache) GetReviewLikeCount(ctx context.Context, reviewID uuid.UUID) (int, bool) {
	return c.getCount(ctx, "review_likes", reviewLikeCountKey(reviewID))
}

// SetReviewLikeCount caches the like count for a review
func (c *Cache) SetReviewLikeCount(ctx context.Context, reviewID uuid.UUID, n int) error {
	return c.client.Set(ctx, reviewLikeCountKey(reviewID), n, c.ttl.SummaryTTL).Err()
}

// GetProductLikeCount retrieves the cached like count for a product
func (c *Cache) GetProductLikeCount(ctx context.Context, productID uuid.UUID) (int, bool) {
	return c.getCount(ctx, "product_likes", productLikeCountKey(productID))
}

// SetProductLikeCount caches the like count for a product
func (c *Cache) SetProductLikeCount(ctx context.Context, productID uuid.UUID, n int) error {
	return c.client.Set(ctx, productLikeCountKey(productID), n, c.ttl.SummaryTTL).Err()
}

// GetStoreFollowerCount retrieves the cached follower count for a store
func (c *Cache) GetStoreFollowerCount(ctx context.Context, storeID uuid.UUID) (int, bool) {
	return c.getCount(ctx, "store_followers", storeFollowerCountKey(storeID))
}

// SetStoreFollowerCount caches the follower count for a store
func (c *Cache) SetStoreFollowerCount(ctx context.Context, storeID uuid.UUID, n int) error {
	return c.client.Set(ctx, storeFollowerCountKey(storeID), n, c.ttl.SummaryTTL).Err()
}

// Invalidation fan-out. Each mutation family deletes its fixed set of exact
// keys and bumps the version counters namespacing its parameterized lists.
// Runs strictly after the database transaction commits.

// InvalidateReviewMutation purges the views stale after a review
// create/update/delete on product P (slug known) of store S by user U
func (c *Cache) InvalidateReviewMutation(ctx context.Context, productID uuid.UUID, slug string, storeID, userID uuid.UUID) error {
	c.observeInvalidation("review")
	pipe := c.client.Pipeline()
	pipe.Del(ctx,
		productByIDKey(productID),
		productBySlugKey(slug),
		productSummaryKey(productID),
	)
	pipe.Incr(ctx, productVersionKey(productID))
	pipe.Incr(ctx, userVersionKey(userID))
	pipe.Incr(ctx, storeVersionKey(storeID))
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateResponseMutation purges review list views embedding the
// seller's reply after it changes
func (c *Cache) InvalidateResponseMutation(ctx context.Context, productID, storeID uuid.UUID) error {
	c.observeInvalidation("response")
	pipe := c.client.Pipeline()
	pipe.Incr(ctx, productVersionKey(productID))
	pipe.Incr(ctx, storeVersionKey(storeID))
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateReviewLike purges the like count after a like/unlike
func (c *Cache) InvalidateReviewLike(ctx context.Context, reviewID uuid.UUID) error {
	c.observeInvalidation("review_like")
	return c.client.Del(ctx, reviewLikeCountKey(reviewID)).Err()
}

// InvalidateProductLike purges the count and the actor's liked-products lists
func (c *Cache) InvalidateProductLike(ctx context.Context, productID, userID uuid.UUID) error {
	c.observeInvalidation("product_like")
	pipe := c.client.Pipeline()
	pipe.Del(ctx, productLikeCountKey(productID))
	pipe.Incr(ctx, userVersionKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateStoreFollow purges the count and the actor's following lists
func (c *Cache) InvalidateStoreFollow(ctx context.Context, storeID, userID uuid.UUID) error {
	c.observeInvalidation("store_follow")
	pipe := c.client.Pipeline()
	pipe.Del(ctx, storeFollowerCountKey(storeID))
	pipe.Incr(ctx, userVersionKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

// Healthy reports whether the cache store answers a ping
func (c *Cache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}
