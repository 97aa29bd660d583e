package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Profile is a user record as the backend serves it. Fields are passed through untouched.
type Profile map[string]json.RawMessage

// Text returns a text field, or "" when it is absent or not a string.
func (p Profile) Text(field string) string {
	var s string
	if raw, ok := p[field]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// GetProfile loads a user profile.
func (c *Client) GetProfile(ctx context.Context, id string) (Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, http.MethodGet, userPath(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile sends the changed fields and returns the profile as stored.
func (c *Client) UpdateProfile(ctx context.Context, id string, fields Profile) (Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, http.MethodPut, userPath(id), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}
