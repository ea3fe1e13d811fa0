package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/request"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/response"
	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/product"
)

// ProductHandler handles HTTP requests for product read views
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// productView decorates a product with its derived rating for responses
type productView struct {
	*domain.Product
	Rating float64 `json:"rating"`
}

func newProductView(p *domain.Product) productView {
	return productView{Product: p, Rating: p.Rating()}
}

// GetByID handles GET /api/v1/products/{id}
// @Summary Get product by ID
// @Tags Products
// @Param id path string true "Product ID (UUID)"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, cached, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.Cached(w, newProductView(p), cached)
}

// GetBySlug handles GET /api/v1/products/slug/{slug}
// @Summary Get product by URL slug
// @Description Single-entity detail view, cached with the long detail TTL.
// @Tags Products
// @Param slug path string true "Product URL slug"
// @Router /products/slug/{slug} [get]
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		response.Error(w, http.StatusBadRequest, "Missing product slug")
		return
	}

	p, cached, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.Cached(w, newProductView(p), cached)
}

// List handles GET /api/v1/products
// @Summary List products
// @Description Paginated catalog with search, category, price range, tags, sizes and color filters.
// @Tags Products
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param sortBy query string false "created_at, price or name"
// @Param sortOrder query string false "asc or desc"
// @Param search query string false "Name search"
// @Param category query string false "Category"
// @Param priceMin query number false "Minimum price"
// @Param priceMax query number false "Maximum price"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p := request.GetListParams(r)
	f := request.GetProductFilter(r)

	list, cached, err := h.service.List(r.Context(), f, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	views := make([]productView, 0, len(list.Products))
	for _, pr := range list.Products {
		views = append(views, newProductView(pr))
	}

	p = p.Normalize(domain.SortByCreatedAt, domain.SortByPrice, domain.SortByName)
	response.Paginated(w, views, list.Total, p.Page, p.Limit, cached)
}
