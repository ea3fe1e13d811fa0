package review

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/media"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) CreateVerified(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) UpdateOwned(ctx context.Context, id, userID uuid.UUID, upd domain.ReviewUpdate) (*domain.Review, error) {
	args := m.Called(ctx, id, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) ([]*domain.Review, int, error) {
	args := m.Called(ctx, productID, f, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Review, int, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) ListByStore(ctx context.Context, storeID uuid.UUID, p domain.ListParams) ([]*domain.Review, int, error) {
	args := m.Called(ctx, storeID, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) Summary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

func (m *MockReviewRepository) CreateResponse(ctx context.Context, resp *domain.ReviewResponse) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}

func (m *MockReviewRepository) UpdateResponse(ctx context.Context, reviewID, sellerID uuid.UUID, text string) (*domain.ReviewResponse, error) {
	args := m.Called(ctx, reviewID, sellerID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewResponse), args.Error(1)
}

func (m *MockReviewRepository) DeleteResponse(ctx context.Context, reviewID, sellerID uuid.UUID) error {
	args := m.Called(ctx, reviewID, sellerID)
	return args.Error(0)
}

func (m *MockReviewRepository) GetResponse(ctx context.Context, reviewID uuid.UUID) (*domain.ReviewResponse, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewResponse), args.Error(1)
}

func (m *MockReviewRepository) CreateReport(ctx context.Context, report *domain.ReviewReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, f domain.ProductFilter, p domain.ListParams) ([]*domain.Product, int, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

// MockOrderReader is a mock implementation of domain.OrderReader
type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) FindEligibleOrder(ctx context.Context, userID, orderID, productID uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, userID, orderID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// MockReviewCache is a mock implementation of ReviewCache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams) (*cache.ReviewList, bool) {
	args := m.Called(ctx, productID, f, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.ReviewList), args.Bool(1)
}

func (m *MockReviewCache) SetProductReviews(ctx context.Context, productID uuid.UUID, f domain.ReviewFilter, p domain.ListParams, list *cache.ReviewList) error {
	args := m.Called(ctx, productID, f, p, list)
	return args.Error(0)
}

func (m *MockReviewCache) GetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.ReviewList), args.Bool(1)
}

func (m *MockReviewCache) SetUserReviews(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.ReviewList) error {
	args := m.Called(ctx, userID, p, list)
	return args.Error(0)
}

func (m *MockReviewCache) GetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams) (*cache.ReviewList, bool) {
	args := m.Called(ctx, storeID, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.ReviewList), args.Bool(1)
}

func (m *MockReviewCache) SetStoreReviews(ctx context.Context, storeID uuid.UUID, p domain.ListParams, list *cache.ReviewList) error {
	args := m.Called(ctx, storeID, p, list)
	return args.Error(0)
}

func (m *MockReviewCache) GetSummary(ctx context.Context, productID uuid.UUID) (*domain.RatingSummary, bool) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Bool(1)
}

func (m *MockReviewCache) SetSummary(ctx context.Context, s *domain.RatingSummary) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateReviewMutation(ctx context.Context, productID uuid.UUID, slug string, storeID, userID uuid.UUID) error {
	args := m.Called(ctx, productID, slug, storeID, userID)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateResponseMutation(ctx context.Context, productID, storeID uuid.UUID) error {
	args := m.Called(ctx, productID, storeID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// MockMediaUploader is a mock implementation of MediaUploader
type MockMediaUploader struct {
	mock.Mock
}

func (m *MockMediaUploader) UploadMany(ctx context.Context, uploads []media.Upload) ([]string, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type serviceMocks struct {
	reviews   *MockReviewRepository
	products  *MockProductRepository
	orders    *MockOrderReader
	cache     *MockReviewCache
	publisher *MockEventPublisher
	uploader  *MockMediaUploader
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		reviews:   new(MockReviewRepository),
		products:  new(MockProductRepository),
		orders:    new(MockOrderReader),
		cache:     new(MockReviewCache),
		publisher: new(MockEventPublisher),
		uploader:  new(MockMediaUploader),
	}
	log := logger.New("test")
	svc := NewService(m.reviews, m.products, m.orders, m.cache, m.publisher, m.uploader, log)
	return svc, m
}

func validCreateInput() CreateInput {
	return CreateInput{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    5,
	}
}

func TestService_Create_Success(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	product := &domain.Product{ID: in.ProductID, StoreID: uuid.New(), URLSlug: "blue-shirt", IsActive: true}
	store := &domain.Store{ID: product.StoreID, OwnerID: uuid.New()}

	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(&domain.Order{ID: in.OrderID, BuyerID: in.UserID}, nil)
	m.products.On("GetByID", mock.Anything, in.ProductID).Return(product, nil)
	m.reviews.On("CreateVerified", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	m.cache.On("InvalidateReviewMutation", mock.Anything, product.ID, product.URLSlug, product.StoreID, in.UserID).Return(nil)
	m.products.On("GetStore", mock.Anything, product.StoreID).Return(store, nil)
	// publish runs in a background goroutine, so it may not land before assertions
	m.publisher.On("Publish", mock.Anything, EventSubject, mock.Anything).Return(nil).Maybe()

	review, err := svc.Create(context.Background(), in)

	assert.NoError(t, err)
	assert.Equal(t, in.ProductID, review.ProductID)
	assert.Equal(t, in.Rating, review.Rating)
	m.reviews.AssertExpectations(t)
	m.cache.AssertExpectations(t)
	m.uploader.AssertNotCalled(t, "UploadMany")
}

func TestService_Create_InvalidRating(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	in.Rating = 6

	_, err := svc.Create(context.Background(), in)

	assert.Equal(t, domain.ErrInvalidInput, err)
	m.orders.AssertNotCalled(t, "FindEligibleOrder")
	m.reviews.AssertNotCalled(t, "CreateVerified")
}

func TestService_Create_NotEligible(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(nil, domain.ErrNotEligible)

	_, err := svc.Create(context.Background(), in)

	assert.Equal(t, domain.ErrNotEligible, err)
	m.reviews.AssertNotCalled(t, "CreateVerified")
	m.cache.AssertNotCalled(t, "InvalidateReviewMutation")
}

func TestService_Create_InactiveProductMapsToNotEligible(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(&domain.Order{ID: in.OrderID}, nil)
	m.products.On("GetByID", mock.Anything, in.ProductID).Return(nil, domain.ErrNotFound)

	_, err := svc.Create(context.Background(), in)

	assert.Equal(t, domain.ErrNotEligible, err)
	m.reviews.AssertNotCalled(t, "CreateVerified")
}

func TestService_Create_DuplicateConflict(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	product := &domain.Product{ID: in.ProductID, StoreID: uuid.New(), URLSlug: "blue-shirt"}

	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(&domain.Order{ID: in.OrderID}, nil)
	m.products.On("GetByID", mock.Anything, in.ProductID).Return(product, nil)
	m.reviews.On("CreateVerified", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := svc.Create(context.Background(), in)

	assert.Equal(t, domain.ErrConflict, err)
	m.cache.AssertNotCalled(t, "InvalidateReviewMutation")
}

func TestService_Create_MediaUploadFailureAborts(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	in.Media = []media.Upload{{Data: []byte("fake"), ContentType: "image/jpeg"}}
	product := &domain.Product{ID: in.ProductID, StoreID: uuid.New(), URLSlug: "blue-shirt"}

	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(&domain.Order{ID: in.OrderID}, nil)
	m.products.On("GetByID", mock.Anything, in.ProductID).Return(product, nil)
	m.uploader.On("UploadMany", mock.Anything, in.Media).Return(nil, assert.AnError)

	_, err := svc.Create(context.Background(), in)

	assert.Error(t, err)
	m.reviews.AssertNotCalled(t, "CreateVerified")
	m.cache.AssertNotCalled(t, "InvalidateReviewMutation")
}

func TestService_Create_CacheInvalidationFailure(t *testing.T) {
	svc, m := newTestService()

	in := validCreateInput()
	product := &domain.Product{ID: in.ProductID, StoreID: uuid.New(), URLSlug: "blue-shirt"}

	m.orders.On("FindEligibleOrder", mock.Anything, in.UserID, in.OrderID, in.ProductID).
		Return(&domain.Order{ID: in.OrderID}, nil)
	m.products.On("GetByID", mock.Anything, in.ProductID).Return(product, nil)
	m.reviews.On("CreateVerified", mock.Anything, mock.Anything).Return(nil)
	m.cache.On("InvalidateReviewMutation", mock.Anything, product.ID, product.URLSlug, product.StoreID, in.UserID).
		Return(assert.AnError)
	m.products.On("GetStore", mock.Anything, product.StoreID).Return(nil, domain.ErrNotFound)
	m.publisher.On("Publish", mock.Anything, EventSubject, mock.Anything).Return(nil).Maybe()

	// Cache failure should not prevent operation from succeeding
	review, err := svc.Create(context.Background(), in)

	assert.NoError(t, err, "Operation should succeed even when cache fails")
	assert.NotNil(t, review)
	m.cache.AssertExpectations(t)
}

func TestService_Update_Success(t *testing.T) {
	svc, m := newTestService()

	reviewID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	upd := domain.ReviewUpdate{Rating: 3}
	updated := &domain.Review{ID: reviewID, UserID: userID, ProductID: productID, Rating: 3}
	product := &domain.Product{ID: productID, StoreID: uuid.New(), URLSlug: "blue-shirt"}

	m.reviews.On("UpdateOwned", mock.Anything, reviewID, userID, upd).Return(updated, nil)
	m.products.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.cache.On("InvalidateReviewMutation", mock.Anything, productID, product.URLSlug, product.StoreID, userID).Return(nil)
	m.products.On("GetStore", mock.Anything, product.StoreID).Return(nil, domain.ErrNotFound)
	m.publisher.On("Publish", mock.Anything, EventSubject, mock.Anything).Return(nil).Maybe()

	review, err := svc.Update(context.Background(), reviewID, userID, upd)

	assert.NoError(t, err)
	assert.Equal(t, updated, review)
	m.reviews.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func TestService_Update_NotOwnerNotFound(t *testing.T) {
	svc, m := newTestService()

	reviewID := uuid.New()
	userID := uuid.New()
	upd := domain.ReviewUpdate{Rating: 2}

	m.reviews.On("UpdateOwned", mock.Anything, reviewID, userID, upd).Return(nil, domain.ErrNotFound)

	_, err := svc.Update(context.Background(), reviewID, userID, upd)

	assert.Equal(t, domain.ErrNotFound, err)
	m.cache.AssertNotCalled(t, "InvalidateReviewMutation")
}

func TestService_Delete_Success(t *testing.T) {
	svc, m := newTestService()

	reviewID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	deleted := &domain.Review{ID: reviewID, UserID: userID, ProductID: productID, Rating: 4}
	product := &domain.Product{ID: productID, StoreID: uuid.New(), URLSlug: "blue-shirt"}

	m.reviews.On("DeleteOwned", mock.Anything, reviewID, userID).Return(deleted, nil)
	m.products.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.cache.On("InvalidateReviewMutation", mock.Anything, productID, product.URLSlug, product.StoreID, userID).Return(nil)
	m.products.On("GetStore", mock.Anything, product.StoreID).Return(nil, domain.ErrNotFound)
	m.publisher.On("Publish", mock.Anything, EventSubject, mock.Anything).Return(nil).Maybe()

	err := svc.Delete(context.Background(), reviewID, userID)

	assert.NoError(t, err)
	m.reviews.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func TestService_ListByProduct_CacheHit(t *testing.T) {
	svc, m := newTestService()

	productID := uuid.New()
	f := domain.ReviewFilter{}
	p := domain.ListParams{Page: 1, Limit: 20}.Normalize(domain.SortByCreatedAt, domain.SortByRating)
	cached := &cache.ReviewList{
		Reviews: []*domain.Review{{ID: uuid.New(), ProductID: productID, Rating: 5}},
		Total:   1,
	}

	m.cache.On("GetProductReviews", mock.Anything, productID, f, p).Return(cached, true)

	list, fromCache, err := svc.ListByProduct(context.Background(), productID, f, domain.ListParams{Page: 1, Limit: 20})

	assert.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, cached, list)
	m.reviews.AssertNotCalled(t, "ListByProduct")
}

func TestService_ListByProduct_CacheMiss(t *testing.T) {
	svc, m := newTestService()

	productID := uuid.New()
	f := domain.ReviewFilter{}
	p := domain.ListParams{Page: 1, Limit: 20}.Normalize(domain.SortByCreatedAt, domain.SortByRating)
	reviews := []*domain.Review{{ID: uuid.New(), ProductID: productID, Rating: 4}}

	m.cache.On("GetProductReviews", mock.Anything, productID, f, p).Return(nil, false)
	m.reviews.On("ListByProduct", mock.Anything, productID, f, p).Return(reviews, 1, nil)
	m.cache.On("SetProductReviews", mock.Anything, productID, f, p, &cache.ReviewList{Reviews: reviews, Total: 1}).Return(nil)

	list, fromCache, err := svc.ListByProduct(context.Background(), productID, f, domain.ListParams{Page: 1, Limit: 20})

	assert.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, reviews, list.Reviews)
	assert.Equal(t, 1, list.Total)
	m.cache.AssertExpectations(t)
	m.reviews.AssertExpectations(t)
}

func TestService_Summary_CacheMiss_CachesEmptySummary(t *testing.T) {
	svc, m := newTestService()

	productID := uuid.New()
	empty := &domain.RatingSummary{ProductID: productID, Average: 0, Count: 0, Histogram: map[int]int{}}

	m.cache.On("GetSummary", mock.Anything, productID).Return(nil, false)
	m.reviews.On("Summary", mock.Anything, productID).Return(empty, nil)
	m.cache.On("SetSummary", mock.Anything, empty).Return(nil)

	summary, fromCache, err := svc.Summary(context.Background(), productID)

	assert.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 0, summary.Count)
	m.cache.AssertExpectations(t)
}

func TestService_AddResponse_Success(t *testing.T) {
	svc, m := newTestService()

	reviewID := uuid.New()
	sellerID := uuid.New()
	productID := uuid.New()
	storeID := uuid.New()

	m.reviews.On("CreateResponse", mock.Anything, mock.AnythingOfType("*domain.ReviewResponse")).Return(nil)
	m.reviews.On("GetByID", mock.Anything, reviewID).Return(&domain.Review{ID: reviewID, ProductID: productID}, nil)
	m.products.On("GetByID", mock.Anything, productID).Return(&domain.Product{ID: productID, StoreID: storeID}, nil)
	m.cache.On("InvalidateResponseMutation", mock.Anything, productID, storeID).Return(nil)

	resp, err := svc.AddResponse(context.Background(), reviewID, sellerID, "Thanks for the feedback!")

	assert.NoError(t, err)
	assert.Equal(t, sellerID, resp.SellerID)
	m.reviews.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func TestService_AddResponse_SecondReplyConflict(t *testing.T) {
	svc, m := newTestService()

	reviewID := uuid.New()
	sellerID := uuid.New()

	m.reviews.On("CreateResponse", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := svc.AddResponse(context.Background(), reviewID, sellerID, "Another reply")

	assert.Equal(t, domain.ErrConflict, err)
	m.cache.AssertNotCalled(t, "InvalidateResponseMutation")
}

func TestService_AddResponse_NotStoreOwnerForbidden(t *testing.T) {
	svc, m := newTestService()

	m.reviews.On("CreateResponse", mock.Anything, mock.Anything).Return(domain.ErrForbidden)

	_, err := svc.AddResponse(context.Background(), uuid.New(), uuid.New(), "I do not own this store")

	assert.Equal(t, domain.ErrForbidden, err)
}

func TestService_Report_Success(t *testing.T) {
	svc, m := newTestService()

	userID := uuid.New()
	reviewID := uuid.New()

	m.reviews.On("CreateReport", mock.Anything, mock.AnythingOfType("*domain.ReviewReport")).Return(nil)

	report, err := svc.Report(context.Background(), userID, reviewID, "spam", nil)

	assert.NoError(t, err)
	assert.Equal(t, reviewID, report.ReviewID)
	m.reviews.AssertExpectations(t)
}

func TestService_Report_MissingReason(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.Report(context.Background(), uuid.New(), uuid.New(), "", nil)

	assert.Equal(t, domain.ErrInvalidInput, err)
	m.reviews.AssertNotCalled(t, "CreateReport")
}
