package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jh-platform/auth-api/internal/models"
	"github.com/jh-platform/auth-api/internal/token"
	appErrors "github.com/jh-platform/auth-api/pkg/errors"
	"github.com/jh-platform/auth-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the resolved identity.
const ContextIdentityKey = "currentIdentity"

// AccessTokenCookie is the HttpOnly cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// Authenticate resolves a bearer access token from the accessToken cookie or
// the Authorization header into an Identity. Resolution never blocks the
// request: on any failure the chain continues without an identity, and
// enforcement is left to RequireUser on protected routes.
func Authenticate(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerValue(c)
		if raw == "" {
			c.Next()
			return
		}

		parsed, err := codec.Parse(raw)
		if err != nil || parsed.Kind != token.KindAccess {
			c.Next()
			return
		}

		c.Set(ContextIdentityKey, &models.Identity{Username: parsed.Subject, Role: models.RoleUser})
		c.Next()
	}
}

// RequireUser aborts with 401 when no identity was resolved.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFromContext(c) == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the resolved identity, or nil when the request
// is anonymous.
func IdentityFromContext(c *gin.Context) *models.Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerValue(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
