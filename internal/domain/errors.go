package domain

import "errors"

var (
	// ErrNotFound is returned when a resource is absent or not owned by the actor
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned on uniqueness violations (duplicate review, like, response, follow)
	ErrConflict = errors.New("conflict occurred")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotEligible is returned when the order/product preconditions for a review are unmet
	ErrNotEligible = errors.New("not eligible to review")

	// ErrForbidden is returned when the actor does not own the resource
	ErrForbidden = errors.New("forbidden")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
