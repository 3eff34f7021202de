package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/constants"
	apierrors "github.com/sarashino/voice-diary-api/internal/errors"
	"github.com/sarashino/voice-diary-api/internal/services"
)

// Authenticate resolves an optional bearer token to a principal. Requests
// without a token, or with one that no longer resolves, continue as
// anonymous; protected routes reject them via RequireAuth. Missing and
// expired tokens are indistinguishable downstream.
func Authenticate(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if ok {
			principal, err := sessionService.Resolve(token)
			if err == nil {
				c.Set(constants.ContextKeyPrincipal, principal)
			} else if !errors.Is(err, services.ErrInvalidSession) {
				apierrors.InternalError(c, "")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 unless a principal was resolved.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetPrincipal(c); !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(c *gin.Context) (*services.Principal, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*services.Principal)
	return principal, ok
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
