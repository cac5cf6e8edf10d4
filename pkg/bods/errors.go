package bods

import (
	"errors"
	"fmt"
)

// APIError is returned for any response other than 200 OK.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bods api returned %d: %s", e.StatusCode, e.Reason)
}

var ErrConflictingStartTime = errors.New("only one of StartTimeAfter or StartTimeBefore may be set")

// ErrForeignNextLink is returned when a paginated response points at a host
// other than the configured API.
var ErrForeignNextLink = errors.New("next link points outside the bods api")
