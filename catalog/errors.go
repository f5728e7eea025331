package catalog

import (
	"errors"
	"fmt"
)

// AuthError reports a failed login exchange, or a page that stayed
// unauthorized after the re-login budget was spent.
type AuthError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog auth: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a page request that failed for a reason other than
// authorization. The whole synchronization pass is abandoned.
type FetchError struct {
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch: page %d: status %d: %v", e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog fetch: page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// errUndecodableToken marks a token whose expiry claim could not be read.
// It never leaves the package: the session falls back to a fixed lifetime.
var errUndecodableToken = errors.New("token expiry claim undecodable")

// maxErrorBodySize caps how much of an error response is kept for messages.
const maxErrorBodySize = 4 * 1024

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodySize {
		return string(body[:maxErrorBodySize]) + "... (truncated)"
	}
	return string(body)
}
