package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const userContextKey = "ctxmarket.user"

// UserResolver resolves a user login from a bearer token.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// identity resolves the caller from the Authorization header and stores
// the login on the request. Requests without a token stay anonymous; a
// token that fails to resolve is rejected outright.
func identity(resolver UserResolver, localUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolver == nil {
			c.Set(userContextKey, localUser)
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		login, err := resolver.ResolveUser(c.Request.Context(), token)
		if err != nil || login == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "invalid bearer token"},
			})
			return
		}
		c.Set(userContextKey, login)
		c.Next()
	}
}

// currentUser returns the resolved login, empty for anonymous callers.
func currentUser(c *gin.Context) string {
	v, _ := c.Get(userContextKey)
	login, _ := v.(string)
	return login
}

// requireUser returns the login or writes 401 and reports false.
func requireUser(c *gin.Context) (string, bool) {
	login := currentUser(c)
	if login == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "UNAUTHORIZED", "message": "authentication required"},
		})
		return "", false
	}
	return login, true
}

func requestLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
