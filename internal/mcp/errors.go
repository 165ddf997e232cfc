package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
)

// APIError represents a business-rule failure reported through the tool
// result channel, distinct from a transport-level fault.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to structured API errors. A nil return
// means the error is not a business failure and should surface on the
// transport channel instead.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var rl *source.RateLimitedError
	switch {
	case errors.Is(err, contexts.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "context not found", RecoveryHint: "Check the context id"}
	case errors.Is(err, contexts.ErrFileNotFound):
		return &APIError{Code: "FILE_NOT_FOUND", Message: "file not found", RecoveryHint: "Check the filename"}
	case errors.Is(err, contexts.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: "a context with that name already exists", RecoveryHint: "Pick a different name"}
	case errors.Is(err, contexts.ErrNotAuthorized):
		return &APIError{Code: "NOT_AUTHORIZED", Message: "only the owner may do that"}
	case errors.Is(err, contexts.ErrDefaultFileProtected):
		return &APIError{Code: "DEFAULT_FILE_PROTECTED", Message: "default files cannot be deleted", RecoveryHint: "Edit or regenerate the file instead"}
	case errors.Is(err, contexts.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, contexts.ErrResolutionFailure):
		return &APIError{Code: "RESOLUTION_FAILURE", Message: "the repository could not be resolved", RecoveryHint: "Check the repository URL and your access to it"}
	case errors.As(err, &rl):
		return &APIError{
			Code:         "RATE_LIMITED",
			Message:      "the source platform is throttling requests",
			Details:      map[string]any{"retry_after_seconds": int(rl.RetryAfter / time.Second)},
			RecoveryHint: "Retry after the indicated delay",
		}
	default:
		return nil
	}
}
