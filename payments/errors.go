package payments

import (
	"errors"
	"strings"
)

var ErrSessionNotFound = errors.New("session not found")

// ValidationError reports required request fields that are missing. It is
// raised before any network call is made, so callers can map it straight to
// a 400 without worrying about partially created upstream state.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
