package session

import (
	"time"

	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
)

// Session is the portal's record of one signed-in browser.
type Session struct {
	ID        string       `json:"id"`
	Token     string       `json:"-"`
	User      backend.User `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is the view of the session handed to request handlers.
func (s Session) Identity() middleware.Identity {
	return middleware.Identity{
		SessionID: s.ID,
		UserID:    s.User.ID.String(),
		Email:     s.User.Email,
		Name:      s.User.Name,
		Role:      s.User.Role,
		Token:     s.Token,
	}
}
