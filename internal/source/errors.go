package source

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRepoNotFound indicates the repository reference could not be resolved.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrUpstreamUnavailable indicates a network failure or upstream 5xx.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidRepoURL indicates a repository URL that cannot be parsed.
	ErrInvalidRepoURL = errors.New("invalid repository URL")
)

// RateLimitedError indicates upstream throttling with a retry hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// IsRecoverable reports whether an adapter error may succeed on retry.
// Resolution failures and malformed references are not recoverable.
func IsRecoverable(err error) bool {
	var rl *RateLimitedError
	return errors.Is(err, ErrUpstreamUnavailable) || errors.As(err, &rl)
}
