package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Claims represents the identity contained in a backend-issued JWT.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
	Iat   int64  `json:"iat,omitempty"`
}

var ErrInvalidToken = errors.New("invalid token")

// ExpiresAt returns the exp claim, or the zero time when the token carries none.
func (c Claims) ExpiresAt() time.Time {
	if c.Exp <= 0 {
		return time.Time{}
	}
	return time.Unix(c.Exp, 0).UTC()
}

// Expired reports whether the token had expired at now.
func (c Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// ParseUnverified decodes the payload of a token without checking its signature.
// The backend owns the signing key; callers only use the claims for bookkeeping.
func ParseUnverified(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payloadBytes, &raw); err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		// sub is sometimes numeric.
		var alt struct {
			Sub json.Number `json:"sub"`
			Exp int64       `json:"exp"`
			Iat int64       `json:"iat"`
		}
		if err := json.Unmarshal(payloadBytes, &alt); err != nil {
			return Claims{}, ErrInvalidToken
		}
		claims = Claims{Sub: alt.Sub.String(), Exp: alt.Exp, Iat: alt.Iat}
		_ = json.Unmarshal(raw["email"], &claims.Email)
		_ = json.Unmarshal(raw["name"], &claims.Name)
		_ = json.Unmarshal(raw["role"], &claims.Role)
	}
	return claims, nil
}
