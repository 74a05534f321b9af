package datasource

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a key does not exist
	ErrNotFound = errors.New("record not found")
	// ErrUnsupported is returned when a capability is called that the entity lacks
	ErrUnsupported = errors.New("operation not supported")
)

// HTTPError is a non-2xx response from a remote data source
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote returned %d: %s", e.StatusCode, e.Body)
}

// Is maps well-known statuses onto the package sentinels
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnsupported:
		return e.StatusCode == http.StatusMethodNotAllowed
	}
	return false
}
