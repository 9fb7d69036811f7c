package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for the caller identity extracted from request headers.
// Authentication policy lives upstream; this layer only carries the
// already-authenticated identity through to the handlers.
const (
	UserIDKey         = "inquiryfiles_user_id"
	DelegateUserIDKey = "inquiryfiles_delegate_user_id"
)

const (
	userIDHeader         = "X-User-Id"
	delegateUserIDHeader = "X-Delegate-User-Id"
)

// Identity copies the identity headers into the gin context for every
// request that carries them.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(userIDHeader)); userID != "" {
			c.Set(UserIDKey, userID)
		}
		if delegateID := strings.TrimSpace(c.GetHeader(delegateUserIDHeader)); delegateID != "" {
			c.Set(DelegateUserIDKey, delegateID)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when the request carries no user identity.
// Mounted on the mutating attachment routes.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-Id header required"})
			return
		}
		c.Next()
	}
}
