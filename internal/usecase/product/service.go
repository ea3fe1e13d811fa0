package product

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
)

// ProductCache is the cache seam for product read views
type ProductCache interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, bool)
	SetProductByID(ctx context.Context, p *domain.Product) error
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, bool)
	SetProductBySlug(ctx context.Context, p *domain.Product) error
	GetProductList(ctx context.Context, f domain.ProductFilter, p domain.ListParams) (*cache.ProductList, bool)
	SetProductList(ctx context.Context, f domain.ProductFilter, p domain.ListParams, list *cache.ProductList) error
}

// Service serves product read views cache-aside
type Service struct {
	repo   domain.ProductRepository
	cache  ProductCache
	logger *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, productCache ProductCache, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  productCache,
		logger: log,
	}
}

// GetByID retrieves a product detail view; the bool reports a cache hit
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, bool, error) {
	if product, ok := s.cache.GetProductByID(ctx, id); ok {
		return product, true, nil
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, false, err
	}

	if err := s.cache.SetProductByID(ctx, product); err != nil {
		s.logger.Warnf("Failed to cache product %s: %v", id, err)
	}
	return product, false, nil
}

// GetBySlug retrieves a product detail view by URL slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Product, bool, error) {
	if product, ok := s.cache.GetProductBySlug(ctx, slug); ok {
		return product, true, nil
	}

	product, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found by slug: %s", slug)
		} else {
			s.logger.Error("Failed to get product by slug", err)
		}
		return nil, false, err
	}

	if err := s.cache.SetProductBySlug(ctx, product); err != nil {
		s.logger.Warnf("Failed to cache product %s: %v", slug, err)
	}
	return product, false, nil
}

// List serves a filtered catalog page cache-aside. Empty pages are cached
// the same as populated ones.
func (s *Service) List(ctx context.Context, f domain.ProductFilter, p domain.ListParams) (*cache.ProductList, bool, error) {
	p = p.Normalize(domain.SortByCreatedAt, domain.SortByPrice, domain.SortByName)

	if list, ok := s.cache.GetProductList(ctx, f, p); ok {
		return list, true, nil
	}

	products, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, false, err
	}

	list := &cache.ProductList{Products: products, Total: total}
	if err := s.cache.SetProductList(ctx, f, p, list); err != nil {
		s.logger.Warnf("Failed to cache product list: %v", err)
	}
	return list, false, nil
}

// GetStore retrieves a store
func (s *Service) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.repo.GetStore(ctx, id)
}
