package clash

import (
	"errors"
	"fmt"
	"time"
)

// ForbiddenError means the API rejected our credentials (HTTP 403).
// There is no point retrying or continuing with other players.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clash API returned 403 Forbidden: %s", e.Message)
	}
	return "clash API returned 403 Forbidden - check CR_API_TOKEN and the IP allowlist"
}

// RateLimitedError means the API throttled us (HTTP 429). Recoverable
// after backing off.
type RateLimitedError struct {
	RetryAfter time.Duration // zero if the API did not say
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("clash API rate limited (429), retry after %s", e.RetryAfter)
	}
	return "clash API rate limited (429)"
}

// ScopeUnavailableError means the rankings endpoint has no data for the
// requested location (404 with a "not found" reason). Trying a different
// scope can help; retrying the same call cannot.
type ScopeUnavailableError struct {
	Scope  string
	Reason string
}

func (e *ScopeUnavailableError) Error() string {
	return fmt.Sprintf("rankings unavailable for scope %q: %s", e.Scope, e.Reason)
}

// UpstreamError covers every other non-2xx response or transport failure.
type UpstreamError struct {
	StatusCode int // zero for network/timeout errors
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("clash API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clash API request failed: %s", e.Message)
}

// IsForbidden reports whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitedError.
func IsRateLimited(err error) bool {
	var re *RateLimitedError
	return errors.As(err, &re)
}

// IsScopeUnavailable reports whether err is (or wraps) a ScopeUnavailableError.
func IsScopeUnavailable(err error) bool {
	var se *ScopeUnavailableError
	return errors.As(err, &se)
}
