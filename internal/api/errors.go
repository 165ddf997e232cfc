package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
)

// writeError translates domain errors into JSON error responses using
// the same error codes the MCP surface reports.
func writeError(c *gin.Context, err error) {
	var rl *source.RateLimitedError
	switch {
	case errors.Is(err, contexts.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "context not found")
	case errors.Is(err, contexts.ErrFileNotFound):
		errorJSON(c, http.StatusNotFound, "FILE_NOT_FOUND", "file not found")
	case errors.Is(err, contexts.ErrDuplicateName):
		errorJSON(c, http.StatusConflict, "DUPLICATE_NAME", "a context with that name already exists")
	case errors.Is(err, contexts.ErrNotAuthorized):
		errorJSON(c, http.StatusForbidden, "NOT_AUTHORIZED", "only the owner may do that")
	case errors.Is(err, contexts.ErrDefaultFileProtected):
		errorJSON(c, http.StatusForbidden, "DEFAULT_FILE_PROTECTED", "default files cannot be deleted")
	case errors.Is(err, contexts.ErrInvalidInput):
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, contexts.ErrResolutionFailure):
		errorJSON(c, http.StatusUnprocessableEntity, "RESOLUTION_FAILURE", "the repository could not be resolved")
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(int(rl.RetryAfter/time.Second)))
		errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", "the source platform is throttling requests")
	default:
		errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
