package domain

import "errors"

var (
	// ErrInvalidURL is returned when a target URL is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnauthorized is returned when the API key is missing or does not match.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLinkNotFound is returned when a short identifier resolves to nothing.
	ErrLinkNotFound = errors.New("link not found")

	// ErrTimeout is returned when a data store call exceeds its deadline.
	ErrTimeout = errors.New("timeout error")

	// ErrDataStore is returned when a data store call completes with a failure.
	ErrDataStore = errors.New("data store error")
)

// ErrorClass names the kind of failure for metrics labels.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDataStore):
		return "datastore"
	default:
		return "internal"
	}
}
