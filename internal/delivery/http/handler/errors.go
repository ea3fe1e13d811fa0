package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/response"
	"github.com/Pesokrava/marketplace_reviews/internal/domain"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
)

// writeDomainError maps domain sentinels to stable status codes. Internal
// causes are logged, never surfaced.
func writeDomainError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrNotEligible):
		response.Error(w, http.StatusBadRequest, "Not eligible to review this product")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Resource already exists")
	default:
		log.Error("Internal error in handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
