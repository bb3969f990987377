package middleware

import (
	"net/http"
	"strings"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/farellandr/eventshots/internal/helpers"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	userKey           = "user"
	SessionCookieName = "session"
)

// TokenFromRequest prefers an Authorization bearer token and falls back to
// the session cookie.
func TokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// JWTAuthMiddleware rejects requests without a valid token.
func JWTAuthMiddleware() gin.HandlerFunc {
	return authenticate(true)
}

// OptionalAuthMiddleware resolves the user when a token is present but lets
// anonymous requests through.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return authenticate(false)
}

func authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)
		if svc == nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
			c.Abort()
			return
		}

		token := TokenFromRequest(c)
		if token == "" {
			if required {
				helpers.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		user, err := svc.Auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if required || !apperr.Is(err, apperr.KindUnauthorized) {
				helpers.RespondWithAppError(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	user, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	return user.(*models.User)
}
