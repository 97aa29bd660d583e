package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Record is a CMS record. Only the identifier and the active flag are interpreted;
// every other attribute is passed through untouched.
type Record struct {
	ID         string
	IsActive   bool
	Attributes map[string]json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	var id ID
	if raw, ok := attrs["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
	}
	active := false
	if raw, ok := attrs["is_active"]; ok {
		if err := json.Unmarshal(raw, &active); err != nil {
			var n int
			if json.Unmarshal(raw, &n) != nil {
				return fmt.Errorf("record %s: is_active: %w", id, err)
			}
			active = n != 0
		}
	}
	r.ID = id.String()
	r.IsActive = active
	r.Attributes = attrs
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Attributes)+2)
	for k, v := range r.Attributes {
		out[k] = v
	}
	out["id"] = r.ID
	out["is_active"] = r.IsActive
	return json.Marshal(out)
}

func collectionPath(collection string) string {
	return "/cms/" + url.PathEscape(collection)
}

// ListCollection returns every record of a CMS collection in backend order.
func (c *Client) ListCollection(ctx context.Context, collection string) ([]Record, error) {
	var out []Record
	if err := c.doJSON(ctx, http.MethodGet, collectionPath(collection), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive toggles the is_active flag of one record.
func (c *Client) SetActive(ctx context.Context, collection, id string, active bool) error {
	return c.doJSON(ctx, http.MethodPut, recordPath(collection, id), map[string]bool{"is_active": active}, nil)
}

// SaveOrder sends the full ordered id list of a collection.
func (c *Client) SaveOrder(ctx context.Context, collection string, ids []string) error {
	return c.doJSON(ctx, http.MethodPut, collectionPath(collection)+"/order", map[string][]string{"ids": ids}, nil)
}

func recordPath(collection, id string) string {
	return collectionPath(collection) + "/" + url.PathEscape(id)
}

// CreateRecord adds a record to a collection and returns it as stored.
func (c *Client) CreateRecord(ctx context.Context, collection string, attrs map[string]json.RawMessage) (Record, error) {
	var out Record
	err := c.doJSON(ctx, http.MethodPost, collectionPath(collection), attrs, &out)
	return out, err
}

// UpdateRecord replaces the given attributes of one record. Attributes not sent are left alone.
func (c *Client) UpdateRecord(ctx context.Context, collection, id string, attrs map[string]json.RawMessage) (Record, error) {
	var out Record
	err := c.doJSON(ctx, http.MethodPut, recordPath(collection, id), attrs, &out)
	return out, err
}

func (c *Client) DeleteRecord(ctx context.Context, collection, id string) error {
	return c.doJSON(ctx, http.MethodDelete, recordPath(collection, id), nil, nil)
}

const aboutPagePath = "/cms/about-page"

// GetAboutPage returns the singleton about page as the backend serves it.
func (c *Client) GetAboutPage(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, aboutPagePath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAboutPage(ctx context.Context, page json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, aboutPagePath, page, &out); err != nil {
		return nil, err
	}
	return out, nil
}
