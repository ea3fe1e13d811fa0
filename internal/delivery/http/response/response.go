package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// Success writes a success response with data
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// Cached writes a success response annotated with whether the payload was
// served from the cache-aside layer
func Cached(w http.ResponseWriter, data interface{}, cached bool) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cached":  cached,
		"data":    data,
	})
}

// Created writes a created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// NoContent writes a no content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Paginated writes a paginated response, annotated with cache provenance
func Paginated(w http.ResponseWriter, data interface{}, total, page, limit int, cached bool) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cached":  cached,
		"data":    data,
		"pagination": map[string]int{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
