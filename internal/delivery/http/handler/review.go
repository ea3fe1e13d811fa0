package handler

import (
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/request"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/response"
	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/media"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// MediaUpload is one media buffer in a create request; data is base64 JSON
type MediaUpload struct {
	ContentType string `json:"content_type" validate:"required"`
	Data        []byte `json:"data" validate:"required"`
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID string        `json:"product_id" validate:"required"`
	OrderID   string        `json:"order_id" validate:"required"`
	Rating    int           `json:"rating" validate:"required,min=1,max=5"`
	Title     *string       `json:"title,omitempty"`
	Comment   *string       `json:"comment,omitempty"`
	Media     []MediaUpload `json:"media,omitempty"`
}

// UpdateReviewRequest represents the request body for updating a review
type UpdateReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Title   *string `json:"title,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// ResponseRequest is the body for seller response endpoints
type ResponseRequest struct {
	Response string `json:"response" validate:"required,min=1,max=5000"`
}

// ReportRequest is the body for review report endpoints
type ReportRequest struct {
	Reason      string  `json:"reason" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// Create handles POST /api/v1/reviews
// @Summary Create a review for a purchased product
// @Description Creates a review after verifying the caller's order is delivered/completed and paid. Updates the product rating aggregate in the same transaction and invalidates dependent cache keys.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created"
// @Failure 400 {object} map[string]string "Invalid input or not eligible"
// @Failure 409 {object} map[string]string "Review already exists for this order and product"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}

	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := parseUUID(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	orderID, err := parseUUID(req.OrderID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	uploads := make([]media.Upload, 0, len(req.Media))
	for _, m := range req.Media {
		uploads = append(uploads, media.Upload{ContentType: m.ContentType, Data: m.Data})
	}

	created, err := h.service.Create(r.Context(), review.CreateInput{
		UserID:    actorID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Media:     uploads,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	response.Created(w, created)
}

// Update handles PUT /api/v1/reviews/{id}
// @Summary Update own review
// @Tags Reviews
// @Param id path string true "Review ID (UUID)"
// @Param review body UpdateReviewRequest true "Updated fields"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, actorID, domain.ReviewUpdate{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete own review
// @Tags Reviews
// @Param id path string true "Review ID (UUID)"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

// ListByProduct handles GET /api/v1/products/{id}/reviews
// @Summary List reviews for a product
// @Description Paginated and sortable review list with optional star filter. Served cache-aside; the response marks cache provenance.
// @Tags Reviews
// @Param id path string true "Product ID (UUID)"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param sortBy query string false "created_at or rating"
// @Param sortOrder query string false "asc or desc"
// @Param rating query int false "Filter by star rating"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p := request.GetListParams(r)
	f := request.GetReviewFilter(r)

	list, cached, err := h.service.ListByProduct(r.Context(), productID, f, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	p = p.Normalize(domain.SortByCreatedAt, domain.SortByRating)
	response.Paginated(w, list.Reviews, list.Total, p.Page, p.Limit, cached)
}

// Summary handles GET /api/v1/products/{id}/reviews/summary
// @Summary Rating summary for a product
// @Description Count, average (rounded to two decimals) and per-star histogram.
// @Tags Reviews
// @Param id path string true "Product ID (UUID)"
// @Router /products/{id}/reviews/summary [get]
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	summary, cached, err := h.service.Summary(r.Context(), productID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	// The stored aggregate keeps full precision; rounding is presentation-only
	response.Cached(w, map[string]interface{}{
		"product_id": summary.ProductID,
		"average":    math.Round(summary.Average*100) / 100,
		"count":      summary.Count,
		"histogram":  summary.Histogram,
	}, cached)
}

// ListMine handles GET /api/v1/users/me/reviews
func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}

	p := request.GetListParams(r)
	list, cached, err := h.service.ListByUser(r.Context(), actorID, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	p = p.Normalize(domain.SortByCreatedAt)
	response.Paginated(w, list.Reviews, list.Total, p.Page, p.Limit, cached)
}

// ListByStore handles GET /api/v1/stores/{id}/reviews
func (h *ReviewHandler) ListByStore(w http.ResponseWriter, r *http.Request) {
	storeID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid store ID")
		return
	}

	p := request.GetListParams(r)
	list, cached, err := h.service.ListByStore(r.Context(), storeID, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	p = p.Normalize(domain.SortByCreatedAt)
	response.Paginated(w, list.Reviews, list.Total, p.Page, p.Limit, cached)
}

// AddResponse handles POST /api/v1/reviews/{id}/response
// @Summary Add the seller's reply to a review
// @Description Only the owner of the store selling the reviewed product may reply, and only once.
// @Tags Responses
// @Param id path string true "Review ID (UUID)"
// @Param response body ResponseRequest true "Reply text"
// @Failure 403 {object} map[string]string "Actor does not own the store"
// @Failure 409 {object} map[string]string "Reply already exists"
// @Router /reviews/{id}/response [post]
func (h *ReviewHandler) AddResponse(w http.ResponseWriter, r *http.Request) {
	h.withResponseRequest(w, r, func(reviewID, actorID uuid.UUID, text string) (interface{}, error) {
		return h.service.AddResponse(r.Context(), reviewID, actorID, text)
	}, http.StatusCreated)
}

// UpdateResponse handles PUT /api/v1/reviews/{id}/response
func (h *ReviewHandler) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	h.withResponseRequest(w, r, func(reviewID, actorID uuid.UUID, text string) (interface{}, error) {
		return h.service.UpdateResponse(r.Context(), reviewID, actorID, text)
	}, http.StatusOK)
}

// DeleteResponse handles DELETE /api/v1/reviews/{id}/response
func (h *ReviewHandler) DeleteResponse(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.DeleteResponse(r.Context(), reviewID, actorID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}

// GetResponse handles GET /api/v1/reviews/{id}/response
func (h *ReviewHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	resp, err := h.service.GetResponse(r.Context(), reviewID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.Success(w, resp)
}

// Report handles POST /api/v1/reviews/{id}/report
func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ReportRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.Report(r.Context(), actorID, reviewID, req.Reason, req.Description)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.Created(w, report)
}

func (h *ReviewHandler) withResponseRequest(w http.ResponseWriter, r *http.Request, fn func(reviewID, actorID uuid.UUID, text string) (interface{}, error), okStatus int) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ResponseRequest
	if err := request.DecodeJSON(r, &req); err != nil || req.Response == "" {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := fn(reviewID, actorID, req.Response)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if okStatus == http.StatusCreated {
		response.Created(w, result)
		return
	}
	response.Success(w, result)
}
