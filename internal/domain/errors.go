package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a space, page, or index that does not exist
	// or is not accessible. Fatal for the operation that needed it.
	ErrNotFound = errors.New("resource not found")

	// ErrAuth indicates rejected credentials. Fatal, surfaced verbatim.
	ErrAuth = errors.New("authentication failed")

	// ErrDataShape indicates a missing required column or field.
	// Fatal for the whole batch operation it occurs in.
	ErrDataShape = errors.New("unexpected data shape")

	// ErrNoEmbedding indicates a document for which every chunk
	// embedding failed. The document is dropped, the pipeline continues.
	ErrNoEmbedding = errors.New("no chunk embedded")
)

// APIError is a non-2xx response from an external HTTP service.
// Callers treat it as "this unit failed" unless Is* says otherwise.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s (URL: %s)", e.StatusCode, e.Body, e.URL)
}

// IsNotFound reports whether err represents an absent resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return errors.Is(err, ErrNotFound)
}

// IsAuth reports whether err represents an authentication or
// permission failure.
func IsAuth(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return errors.Is(err, ErrAuth)
}
