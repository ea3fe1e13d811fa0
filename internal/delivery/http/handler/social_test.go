package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/social"
)

// MockSocialRepository is a mock implementation of domain.SocialRepository
type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) LikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	args := m.Called(ctx, userID, reviewID)
	return args.Error(0)
}

func (m *MockSocialRepository) UnlikeReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	args := m.Called(ctx, userID, reviewID)
	return args.Error(0)
}

func (m *MockSocialRepository) CountReviewLikes(ctx context.Context, reviewID uuid.UUID) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialRepository) LikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockSocialRepository) UnlikeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockSocialRepository) CountProductLikes(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialRepository) FollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	args := m.Called(ctx, userID, storeID)
	return args.Error(0)
}

func (m *MockSocialRepository) UnfollowStore(ctx context.Context, userID, storeID uuid.UUID) error {
	args := m.Called(ctx, userID, storeID)
	return args.Error(0)
}

func (m *MockSocialRepository) CountStoreFollowers(ctx context.Context, storeID uuid.UUID) (int, error) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialRepository) ListLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Product, int, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *MockSocialRepository) ListFollowedStores(ctx context.Context, userID uuid.UUID, p domain.ListParams) ([]*domain.Store, int, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Store), args.Int(1), args.Error(2)
}

// MockSocialCache is a mock implementation of social.SocialCache
type MockSocialCache struct {
	mock.Mock
}

func (m *MockSocialCache) GetReviewLikeCount(ctx context.Context, reviewID uuid.UUID) (int, bool) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Bool(1)
}

func (m *MockSocialCache) SetReviewLikeCount(ctx context.Context, reviewID uuid.UUID, n int) error {
	args := m.Called(ctx, reviewID, n)
	return args.Error(0)
}

func (m *MockSocialCache) GetProductLikeCount(ctx context.Context, productID uuid.UUID) (int, bool) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Bool(1)
}

func (m *MockSocialCache) SetProductLikeCount(ctx context.Context, productID uuid.UUID, n int) error {
	args := m.Called(ctx, productID, n)
	return args.Error(0)
}

func (m *MockSocialCache) GetStoreFollowerCount(ctx context.Context, storeID uuid.UUID) (int, bool) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Bool(1)
}

func (m *MockSocialCache) SetStoreFollowerCount(ctx context.Context, storeID uuid.UUID, n int) error {
	args := m.Called(ctx, storeID, n)
	return args.Error(0)
}

func (m *MockSocialCache) GetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.ProductList, bool) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.ProductList), args.Bool(1)
}

func (m *MockSocialCache) SetLikedProducts(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.ProductList) error {
	args := m.Called(ctx, userID, p, list)
	return args.Error(0)
}

func (m *MockSocialCache) GetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams) (*cache.StoreList, bool) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.StoreList), args.Bool(1)
}

func (m *MockSocialCache) SetFollowing(ctx context.Context, userID uuid.UUID, p domain.ListParams, list *cache.StoreList) error {
	args := m.Called(ctx, userID, p, list)
	return args.Error(0)
}

func (m *MockSocialCache) InvalidateReviewLike(ctx context.Context, reviewID uuid.UUID) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

func (m *MockSocialCache) InvalidateProductLike(ctx context.Context, productID, userID uuid.UUID) error {
	args := m.Called(ctx, productID, userID)
	return args.Error(0)
}

func (m *MockSocialCache) InvalidateStoreFollow(ctx context.Context, storeID, userID uuid.UUID) error {
	args := m.Called(ctx, storeID, userID)
	return args.Error(0)
}

func newSocialHandler() (*SocialHandler, *MockSocialRepository, *MockSocialCache) {
	mockRepo := new(MockSocialRepository)
	mockCache := new(MockSocialCache)
	log := logger.New("test")
	service := social.NewService(mockRepo, mockCache, log)
	return NewSocialHandler(service, log), mockRepo, mockCache
}

func TestSocialHandler_LikeReview_Success(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	userID := uuid.New()
	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/"+reviewID.String()+"/likes", nil)
	req.Header.Set("X-User-ID", userID.String())
	req = withURLParam(req, "id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("LikeReview", mock.Anything, userID, reviewID).Return(nil)
	mockCache.On("InvalidateReviewLike", mock.Anything, reviewID).Return(nil)

	handler.LikeReview(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestSocialHandler_LikeReview_AlreadyLiked(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	userID := uuid.New()
	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/"+reviewID.String()+"/likes", nil)
	req.Header.Set("X-User-ID", userID.String())
	req = withURLParam(req, "id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("LikeReview", mock.Anything, userID, reviewID).Return(domain.ErrConflict)

	handler.LikeReview(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockCache.AssertNotCalled(t, "InvalidateReviewLike")
}

func TestSocialHandler_LikeReview_MissingActor(t *testing.T) {
	handler, mockRepo, _ := newSocialHandler()

	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/"+reviewID.String()+"/likes", nil)
	req = withURLParam(req, "id", reviewID.String())
	w := httptest.NewRecorder()

	handler.LikeReview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockRepo.AssertNotCalled(t, "LikeReview")
}

func TestSocialHandler_UnlikeReview_NotLiked(t *testing.T) {
	handler, mockRepo, _ := newSocialHandler()

	userID := uuid.New()
	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+reviewID.String()+"/likes", nil)
	req.Header.Set("X-User-ID", userID.String())
	req = withURLParam(req, "id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("UnlikeReview", mock.Anything, userID, reviewID).Return(domain.ErrNotFound)

	handler.UnlikeReview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocialHandler_ReviewLikeCount_CacheHit(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/"+reviewID.String()+"/likes", nil)
	req = withURLParam(req, "id", reviewID.String())
	w := httptest.NewRecorder()

	mockCache.On("GetReviewLikeCount", mock.Anything, reviewID).Return(42, true)

	handler.ReviewLikeCount(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertNotCalled(t, "CountReviewLikes")

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["cached"])
	data := response["data"].(map[string]any)
	assert.Equal(t, float64(42), data["count"])
}

func TestSocialHandler_FollowStore_Success(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	userID := uuid.New()
	storeID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID.String()+"/follow", nil)
	req.Header.Set("X-User-ID", userID.String())
	req = withURLParam(req, "id", storeID.String())
	w := httptest.NewRecorder()

	mockRepo.On("FollowStore", mock.Anything, userID, storeID).Return(nil)
	mockCache.On("InvalidateStoreFollow", mock.Anything, storeID, userID).Return(nil)

	handler.FollowStore(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestSocialHandler_StoreFollowerCount_CacheMiss(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	storeID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID.String()+"/followers", nil)
	req = withURLParam(req, "id", storeID.String())
	w := httptest.NewRecorder()

	mockCache.On("GetStoreFollowerCount", mock.Anything, storeID).Return(0, false)
	mockRepo.On("CountStoreFollowers", mock.Anything, storeID).Return(8, nil)
	mockCache.On("SetStoreFollowerCount", mock.Anything, storeID, 8).Return(nil)

	handler.StoreFollowerCount(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, false, response["cached"])
	data := response["data"].(map[string]any)
	assert.Equal(t, float64(8), data["count"])
}

func TestSocialHandler_LikedProducts_Success(t *testing.T) {
	handler, mockRepo, mockCache := newSocialHandler()

	userID := uuid.New()
	products := []*domain.Product{{ID: uuid.New(), Name: "Blue Shirt"}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/liked-products?page=1&limit=20", nil)
	req.Header.Set("X-User-ID", userID.String())
	w := httptest.NewRecorder()

	p := domain.ListParams{Page: 1, Limit: 20}.Normalize(domain.SortByCreatedAt)
	mockCache.On("GetLikedProducts", mock.Anything, userID, p).Return(nil, false)
	mockRepo.On("ListLikedProducts", mock.Anything, userID, p).Return(products, 1, nil)
	mockCache.On("SetLikedProducts", mock.Anything, userID, p, mock.Anything).Return(nil)

	handler.LikedProducts(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	pagination := response["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["total"])
}

func TestSocialHandler_Following_MissingActor(t *testing.T) {
	handler, mockRepo, _ := newSocialHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/following", nil)
	w := httptest.NewRecorder()

	handler.Following(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockRepo.AssertNotCalled(t, "ListFollowedStores")
}
