package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmap/api/internal/repository"
	"farmap/api/internal/service"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "session"

const (
	ctxUserID       = "user_id"
	ctxSessionToken = "session_token"
)

// Auth resolves the session cookie to a user id and injects it into
// the handler context. Requests with a missing, unknown, or expired
// session are rejected before the handler runs.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		userID, err := auth.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrSessionNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			case errors.Is(err, service.ErrSessionExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			}
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxSessionToken, token)

		c.Next()
	}
}

// UserID returns the authenticated user injected by Auth.
func UserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok
}

// SessionToken returns the raw session token injected by Auth.
func SessionToken(c *gin.Context) (string, bool) {
	val, exists := c.Get(ctxSessionToken)
	if !exists {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}
