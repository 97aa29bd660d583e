package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-web/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	userRoleKey  = "userRole"
	sessionIDKey = "sessionId"
	tokenKey     = "backendToken"
)

// Identity is what a valid session resolves to.
type Identity struct {
	SessionID string
	UserID    string
	Email     string
	Name      string
	Role      string
	Token     string
}

// SessionResolver turns a session id into the identity it was issued for.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (Identity, error)
}

// Auth requires a live portal session, read from the session cookie or a bearer header.
func Auth(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		sessionID := SessionIDFromRequest(c, cookieName)
		if sessionID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing session", nil)
			return
		}

		ident, err := resolver.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "session expired or invalid", nil)
			return
		}

		c.Set(sessionIDKey, ident.SessionID)
		c.Set(userIDKey, ident.UserID)
		c.Set(tokenKey, ident.Token)
		if ident.Email != "" {
			c.Set(userEmailKey, ident.Email)
		}
		if ident.Name != "" {
			c.Set(userNameKey, ident.Name)
		}
		if ident.Role != "" {
			c.Set(userRoleKey, ident.Role)
		}
		c.Next()
	}
}

// RequireRole rejects identities whose role is not one of roles. It must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[contextString(c, userRoleKey)]; !ok {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

// SessionIDFromRequest reads the session id from the cookie, falling back to a bearer header.
func SessionIDFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

func UserNameFromContext(c *gin.Context) string {
	return contextString(c, userNameKey)
}

func UserRoleFromContext(c *gin.Context) string {
	return contextString(c, userRoleKey)
}

// SessionIDFromContext fetches the resolved session id.
func SessionIDFromContext(c *gin.Context) string {
	return contextString(c, sessionIDKey)
}

// TokenFromContext fetches the backend bearer token of the current session.
func TokenFromContext(c *gin.Context) string {
	return contextString(c, tokenKey)
}
