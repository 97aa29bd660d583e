package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// MyMembership returns the caller's membership record as the backend serves it.
func (c *Client) MyMembership(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/memberships/me", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckMembership forwards an eligibility check.
func (c *Client) CheckMembership(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/memberships/check", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PageView is one analytics hit.
type PageView struct {
	Path      string `json:"path"`
	Referrer  string `json:"referrer,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

func (c *Client) PageView(ctx context.Context, view PageView) error {
	return c.doJSON(ctx, http.MethodPost, "/analytics/page-view", view, nil)
}
