package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ActorHeader carries the authenticated user id, set by the upstream
// gateway after authentication. Auth itself is outside this service.
const ActorHeader = "X-User-ID"

// DecodeJSON decodes JSON request body into the provided struct with size limit
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()

	limitedReader := io.LimitReader(r.Body, maxRequestBodySize)

	if err := json.NewDecoder(limitedReader).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// GetActorID extracts the authenticated user from the gateway header
func GetActorID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s header", ActorHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s header: %w", ActorHeader, err)
	}
	return id, nil
}

// GetUUIDParam extracts a UUID parameter from the URL
func GetUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return uuid.Nil, fmt.Errorf("missing parameter: %s", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID: %w", err)
	}

	return id, nil
}

// GetIntQuery extracts an integer query parameter with a default value
func GetIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// GetListParams extracts pagination and sorting query parameters.
// Clamping and sort whitelisting happen in ListParams.Normalize.
func GetListParams(r *http.Request) domain.ListParams {
	return domain.ListParams{
		Page:      GetIntQuery(r, "page", 1),
		Limit:     GetIntQuery(r, "limit", 20),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}
}

// GetReviewFilter extracts the optional star filter
func GetReviewFilter(r *http.Request) domain.ReviewFilter {
	var f domain.ReviewFilter
	if raw := r.URL.Query().Get("rating"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 5 {
			f.Rating = &n
		}
	}
	return f
}

// GetProductFilter extracts the fixed set of optional catalog filters with
// explicit presence, keeping predicate order and cache keys deterministic
func GetProductFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	var f domain.ProductFilter

	if v := q.Get("search"); v != "" {
		f.Search = &v
	}
	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	if v := q.Get("priceMin"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMin = &n
		}
	}
	if v := q.Get("priceMax"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMax = &n
		}
	}
	if vs, ok := q["tags"]; ok {
		f.Tags = vs
	}
	if vs, ok := q["sizes"]; ok {
		f.Sizes = vs
	}
	if vs, ok := q["colors"]; ok {
		f.Colors = vs
	}
	return f
}
