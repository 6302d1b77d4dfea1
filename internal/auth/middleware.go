package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boxfleet/boxfleet/internal/store"
)

const (
	ContextKeyUser = "auth_user"
)

// Middleware authenticates requests with a Basic credential of the form
// owner:token, checked against the api_keys table. Failures are 403 before
// any core call; handlers only ever see the authenticated owner.
func Middleware(keys *store.APIKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, token, ok := c.Request.BasicAuth()
		// Usernames are case-insensitive; one canonical form everywhere so
		// Alice and alice own the same fleet.
		user = strings.ToLower(user)
		if !ok || user == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "authentication required",
			})
			return
		}

		valid, err := keys.Verify(c.Request.Context(), user, token)
		if err != nil || !valid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid credentials",
			})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// User returns the authenticated owner set by Middleware.
func User(c *gin.Context) string {
	return c.GetString(ContextKeyUser)
}

// ReaperTokenMiddleware guards the reap trigger with a shared token carried
// in the X-Reaper-Token header. An empty configured token disables the
// endpoint entirely.
func ReaperTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Reaper-Token") != token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid reaper token",
			})
			return
		}
		c.Next()
	}
}
