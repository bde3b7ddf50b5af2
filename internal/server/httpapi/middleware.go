package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"corebank/internal/server/models"
)

const (
	identityKey = "caller_identity"
	tokenKey    = "bearer_token"
)

// Auth resolves the caller identity from the Authorization header and stores
// it in the request context. Requests without a valid, unrevoked token are
// rejected with 401.
func Auth(users UserProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := users.CurrentIdentity(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// callerIdentity returns the identity stored by Auth. Routes using it must
// be registered behind the Auth middleware.
func callerIdentity(c *gin.Context) models.Identity {
	return c.MustGet(identityKey).(models.Identity)
}

// bearerToken returns the raw token stored by Auth.
func bearerToken(c *gin.Context) string {
	return c.MustGet(tokenKey).(string)
}

// RateLimit applies a process-wide token bucket to the API surface.
func RateLimit(rps, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
