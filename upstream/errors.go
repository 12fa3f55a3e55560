package upstream

import "fmt"

// Error is an API-level rejection: a response was received but carried a
// non-success status. The status code and raw body are preserved so callers
// can tell a caller-fixable 4xx (unsupported country, unknown bank) from an
// upstream outage.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream API error: status %d: %s", e.StatusCode, e.Body)
}

// IsClientError reports whether the upstream rejected the request as
// caller-fixable rather than failing internally.
func (e *Error) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// NetworkError is a transport-level failure: no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream API unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
