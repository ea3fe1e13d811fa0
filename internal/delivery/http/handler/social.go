package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/request"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/response"
	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/social"
)

// SocialHandler handles likes and follows. All three families share the
// same contract: duplicate create is 409, delete of a missing pair is 404.
type SocialHandler struct {
	service *social.Service
	logger  *logger.Logger
}

// NewSocialHandler creates a new social interaction handler
func NewSocialHandler(service *social.Service, log *logger.Logger) *SocialHandler {
	return &SocialHandler{
		service: service,
		logger:  log,
	}
}

func (h *SocialHandler) pairMutation(w http.ResponseWriter, r *http.Request, param string, fn func(actorID, targetID uuid.UUID) error) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}
	targetID, err := request.GetUUIDParam(r, param)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := fn(actorID, targetID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}

func (h *SocialHandler) count(w http.ResponseWriter, r *http.Request, param string, fn func(targetID uuid.UUID) (int, bool, error)) {
	targetID, err := request.GetUUIDParam(r, param)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	n, cached, err := fn(targetID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	response.Cached(w, map[string]int{"count": n}, cached)
}

// LikeReview handles POST /api/v1/reviews/{id}/likes
// @Summary Like a review
// @Tags Social
// @Param id path string true "Review ID (UUID)"
// @Failure 409 {object} map[string]string "Already liked"
// @Router /reviews/{id}/likes [post]
func (h *SocialHandler) LikeReview(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.LikeReview(r.Context(), actor, target)
	})
}

// UnlikeReview handles DELETE /api/v1/reviews/{id}/likes
func (h *SocialHandler) UnlikeReview(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.UnlikeReview(r.Context(), actor, target)
	})
}

// ReviewLikeCount handles GET /api/v1/reviews/{id}/likes
func (h *SocialHandler) ReviewLikeCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "id", func(target uuid.UUID) (int, bool, error) {
		return h.service.ReviewLikeCount(r.Context(), target)
	})
}

// LikeProduct handles POST /api/v1/products/{id}/likes
func (h *SocialHandler) LikeProduct(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.LikeProduct(r.Context(), actor, target)
	})
}

// UnlikeProduct handles DELETE /api/v1/products/{id}/likes
func (h *SocialHandler) UnlikeProduct(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.UnlikeProduct(r.Context(), actor, target)
	})
}

// ProductLikeCount handles GET /api/v1/products/{id}/likes
func (h *SocialHandler) ProductLikeCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "id", func(target uuid.UUID) (int, bool, error) {
		return h.service.ProductLikeCount(r.Context(), target)
	})
}

// FollowStore handles POST /api/v1/stores/{id}/follow
func (h *SocialHandler) FollowStore(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.FollowStore(r.Context(), actor, target)
	})
}

// UnfollowStore handles DELETE /api/v1/stores/{id}/follow
func (h *SocialHandler) UnfollowStore(w http.ResponseWriter, r *http.Request) {
	h.pairMutation(w, r, "id", func(actor, target uuid.UUID) error {
		return h.service.UnfollowStore(r.Context(), actor, target)
	})
}

// StoreFollowerCount handles GET /api/v1/stores/{id}/followers
func (h *SocialHandler) StoreFollowerCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "id", func(target uuid.UUID) (int, bool, error) {
		return h.service.StoreFollowerCount(r.Context(), target)
	})
}

// LikedProducts handles GET /api/v1/users/me/liked-products
func (h *SocialHandler) LikedProducts(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}

	p := request.GetListParams(r)
	list, cached, err := h.service.LikedProducts(r.Context(), actorID, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	p = p.Normalize(domain.SortByCreatedAt)
	response.Paginated(w, list.Products, list.Total, p.Page, p.Limit, cached)
}

// Following handles GET /api/v1/users/me/following
func (h *SocialHandler) Following(w http.ResponseWriter, r *http.Request) {
	actorID, err := request.GetActorID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing or invalid actor")
		return
	}

	p := request.GetListParams(r)
	list, cached, err := h.service.Following(r.Context(), actorID, p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	p = p.Normalize(domain.SortByCreatedAt)
	response.Paginated(w, list.Stores, list.Total, p.Page, p.Limit, cached)
}
