package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/media"
	pkgvalidator "github.com/Pesokrava/marketplace_reviews/internal/pkg/validator"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
)

// EventSubject is the JetStream subject carrying review lifecycle events
const EventSubject = "reviews.events"

// ReviewCache is the cache seam the service depends on; injected so the
// invalidation fan-out stays unit-testable with a fake
type ReviewCache interface {
	GetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) (*cache.ReviewList, bool)
	SetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams, list *cache.ReviewList) error
	GetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool)
	SetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.ReviewList) error
	GetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool)
	SetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams, list *cache.ReviewList) error
	GetSummary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, bool)
	SetSummary(ctx context.Context, s *domain.RatingSummary) error
	InvalidateReviewMutation(ctx context.Context, productID uuid.UUID, slug string, storeID, userID uuid.UUID) error
	InvalidateResponseMutation(ctx context.Context, productID, storeID uuid.UUID) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// MediaUploader stores review media; a failed upload aborts creation
type MediaUploader interface {
	UploadMany(ctx context.Context, uploads []media.Upload) ([]string, error)
}

// Event is the payload published after a committed review mutation. It
// carries everything the notifier needs so consumers avoid a read back.
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

// CreateInput carries everything needed to create a review
type CreateInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Rating    int
	Title     *string
	Comment   *string
	Media     []media.Upload
}

// Service handles the review lifecycle: eligibility gating, the transactional
// write with aggregate maintenance, cache invalidation after commit, and
// best-effort side-effect dispatch.
type Service struct {
	reviews   domain.ReviewRepository
	products  domain.ProductRepository
	orders    domain.OrderReader
	cache     ReviewCache
	publisher EventPublisher
	uploader  MediaUploader
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	reviews domain.ReviewRepository,
	products domain.ProductRepository,
	orders domain.OrderReader,
	reviewCache ReviewCache,
	publisher EventPublisher,
	uploader MediaUploader,
	log *logger.Logger,
) *Service {
	return &Service{
		reviews:   reviews,
		products:  products,
		orders:    orders,
		cache:     reviewCache,
		publisher: publisher,
		uploader:  uploader,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// Create runs the full creation pipeline. Eligibility is pre-checked here
// for a fast failure and re-checked inside the repository transaction, which
// is the authoritative gate against concurrent duplicates.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Review, error) {
	review := &domain.Review{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
		Media:     []string{},
	}
	if err := s.validate.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.orders.FindEligibleOrder(ctx, in.UserID, in.OrderID, in.ProductID); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotEligible
		}
		return nil, err
	}

	// Media failures abort creation, unlike the ancillary side effects below
	if len(in.Media) > 0 {
		urls, err := s.uploader.UploadMany(ctx, in.Media)
		if err != nil {
			s.logger.Error("Review media upload failed", err)
			return nil, err
		}
		review.Media = urls
	}

	if err := s.reviews.CreateVerified(ctx, review); err != nil {
		if err != domain.ErrConflict && err != domain.ErrNotEligible {
			s.logger.Error("Failed to create review", err)
		}
		return nil, err
	}

	s.invalidateAfterMutation(ctx, product, in.UserID)
	s.publishEvent("review.created", review, product)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return review, nil
}

// Update updates the caller's own review; a rating change flows into the
// product aggregate inside the repository transaction
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, upd domain.ReviewUpdate) (*domain.Review, error) {
	if err := s.validate.Struct(upd); err != nil {
		s.logger.Error("Review update validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	review, err := s.reviews.UpdateOwned(ctx, id, userID, upd)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, review.ProductID)
	if err != nil {
		s.logger.Error("Failed to load product after review update", err)
		return review, nil
	}

	s.invalidateAfterMutation(ctx, product, userID)
	s.publishEvent("review.updated", review, product)
	return review, nil
}

// Delete removes the caller's own review
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	review, err := s.reviews.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	product, err := s.products.GetByID(ctx, review.ProductID)
	if err != nil {
		s.logger.Error("Failed to load product after review delete", err)
		return nil
	}

	s.invalidateAfterMutation(ctx, product, userID)
	s.publishEvent("review.deleted", review, product)
	return nil
}

// ListByProduct serves a review page cache-aside; the bool reports whether
// the snapshot came from cache
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) (*cache.ReviewList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt, domain.SortByRating)

	if list, ok := s.cache.GetProductReviews(ctx, productID, f, p); ok {
		return list, true, nil
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, f, p)
	if err != nil {
		s.logger.Error("Failed to list reviews by product", err)
		return nil, false, err
	}

	list := &cache.ReviewList{Reviews: reviews, Total: total}
	if err := s.cache.SetProductReviews(ctx, productID, f, p, list); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s: %v", productID, err)
	}
	return list, false, nil
}

// ListByUser serves the caller's reviews cache-aside
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt)

	if list, ok := s.cache.GetUserReviews(ctx, userID, p); ok {
		return list, true, nil
	}

	reviews, total, err := s.reviews.ListByUser(ctx, userID, p)
	if err != nil {
		s.logger.Error("Failed to list reviews by user", err)
		return nil, false, err
	}

	list := &cache.ReviewList{Reviews: reviews, Total: total}
	if err := s.cache.SetUserReviews(ctx, userID, p, list); err != nil {
		s.logger.Warnf("Failed to cache reviews for user %s: %v", userID, err)
	}
	return list, false, nil
}

// ListByStore serves a store's reviews cache-aside
func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt)

	if list, ok := s.cache.GetStoreReviews(ctx, storeID, p); ok {
		return list, true, nil
	}

	reviews, total, err := s.reviews.ListByStore(ctx, storeID, p)
	if err != nil {
		s.logger.Error("Failed to list reviews by store", err)
		return nil, false, err
	}

	list := &cache.ReviewList{Reviews: reviews, Total: total}
	if err := s.cache.SetStoreReviews(ctx, storeID, p, list); err != nil {
		s.logger.Warnf("Failed to cache reviews for store %s: %v", storeID, err)
	}
	return list, false, nil
}

// Summary serves the per-product rating summary cache-aside. Empty summaries
// (zero reviews) are cached like any other snapshot.
func (s *Service) Summary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, bool, error) {
	if summary, ok := s.cache.GetSummary(ctx, productID); ok {
		return summary, true, nil
	}

	summary, err := s.reviews.Summary(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to compute rating summary", err)
		return nil, false, err
	}

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		s.logger.Warnf("Failed to cache summary for product %s: %v", productID, err)
	}
	return summary, false, nil
}

// AddResponse files the seller's single reply to a review
func (s *Service) AddResponse(ctx context.Context, reviewID, sellerID uuid.UUID, text string) (*domain.ReviewResponse, error) {
	resp := &domain.ReviewResponse{
		ReviewID: reviewID,
		SellerID: sellerID,
		Response: text,
	}
	if err := s.validate.Struct(resp); err != nil {
		return nil, domain.ErrInvalidInput
	}

	if err := s.reviews.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}

	s.invalidateAfterResponse(ctx, reviewID)
	return resp, nil
}

// UpdateResponse updates the seller's own reply
func (s *Service) UpdateResponse(ctx context.Context, reviewID, sellerID uuid.UUID, text string) (*domain.ReviewResponse, error) {
	if text == "" || len(text) > 5000 {
		return nil, domain.ErrInvalidInput
	}

	resp, err := s.reviews.UpdateResponse(ctx, reviewID, sellerID, text)
	if err != nil {
		return nil, err
	}

	s.invalidateAfterResponse(ctx, reviewID)
	return resp, nil
}

// DeleteResponse removes the seller's own reply
func (s *Service) DeleteResponse(ctx context.Context, reviewID, sellerID uuid.UUID) error {
	if err := s.reviews.DeleteResponse(ctx, reviewID, sellerID); err != nil {
		return err
	}

	s.invalidateAfterResponse(ctx, reviewID)
	return nil
}

// GetResponse retrieves the reply for a review
func (s *Service) GetResponse(ctx context.Context, reviewID uuid.UUID) (*domain.ReviewResponse, error) {
	return s.reviews.GetResponse(ctx, reviewID)
}

// Report files a moderation report against a review
func (s *Service) Report(ctx context.Context, userID, reviewID uuid.UUID, reason string, description *string) (*domain.ReviewReport, error) {
	report := &domain.ReviewReport{
		UserID:      userID,
		ReviewID:    reviewID,
		Reason:      reason,
		Description: description,
	}
	if err := s.validate.Struct(report); err != nil {
		return nil, domain.ErrInvalidInput
	}

	if err := s.reviews.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// invalidateAfterMutation purges the fixed key set for a review mutation.
// Runs after commit only; a failed purge is bounded staleness, not an error.
func (s *Service) invalidateAfterMutation(ctx context.Context, product *domain.Product, userID uuid.UUID) {
	if err := s.cache.InvalidateReviewMutation(ctx, product.ID, product.URLSlug, product.StoreID, userID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", product.ID, err)
	}
}

func (s *Service) invalidateAfterResponse(ctx context.Context, reviewID uuid.UUID) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		s.logger.Warnf("Failed to load review %s for invalidation: %v", reviewID, err)
		return
	}
	product, err := s.products.GetByID(ctx, review.ProductID)
	if err != nil {
		s.logger.Warnf("Failed to load product %s for invalidation: %v", review.ProductID, err)
		return
	}
	if err := s.cache.InvalidateResponseMutation(ctx, product.ID, product.StoreID); err != nil {
		s.logger.Warnf("Failed to invalidate response cache for product %s: %v", product.ID, err)
	}
}

// publishEvent dispatches a review event in the background. Side effects
// downstream (points, notifications) are best-effort: a publish failure is
// logged and dropped, never surfaced to the caller.
func (s *Service) publishEvent(eventType string, review *domain.Review, product *domain.Product) {
	event := Event{
		EventType: eventType,
		Timestamp: time.Now(),
		ReviewID:  review.ID,
		ProductID: product.ID,
		StoreID:   product.StoreID,
		UserID:    review.UserID,
		Rating:    review.Rating,
	}
	if store, err := s.products.GetStore(context.Background(), product.StoreID); err == nil {
		event.SellerID = store.OwnerID
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), EventSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
