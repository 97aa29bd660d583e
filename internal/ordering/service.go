package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portal-web/internal/backend"
	"portal-web/internal/content"
	"portal-web/internal/shared/telemetry"
)

var (
	ErrNotReorderable = errors.New("collection cannot be reordered")
	ErrNoPending      = errors.New("no reorder in progress")
	ErrInvalidMove    = errors.New("move index out of range")
)

// Gateway is the slice of the backend CMS API the reorder protocol needs.
type Gateway interface {
	ListCollection(ctx context.Context, collection string) ([]backend.Record, error)
	SaveOrder(ctx context.Context, collection string, ids []string) error
}

type GatewayFactory func(token string) Gateway

// Admin identifies the back-office user doing the reorder.
type Admin struct {
	UserID string
	Token  string
}

// Pending is an uncommitted permutation of a collection.
type Pending struct {
	Collection string           `json:"collection"`
	Original   []string         `json:"original"`
	Order      []string         `json:"order"`
	Items      []backend.Record `json:"items"`
	Dirty      bool             `json:"dirty"`
	StartedAt  time.Time        `json:"startedAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type key struct {
	admin      string
	collection string
}

type state struct {
	original []string
	order    []string
	records  map[string]backend.Record
	started  time.Time
	updated  time.Time
}

func (s *state) view(collection string) Pending {
	items := make([]backend.Record, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.records[id])
	}
	return Pending{
		Collection: collection,
		Original:   append([]string(nil), s.original...),
		Order:      append([]string(nil), s.order...),
		Items:      items,
		Dirty:      !equal(s.original, s.order),
		StartedAt:  s.started,
		UpdatedAt:  s.updated,
	}
}

// Service runs the two-phase reorder protocol. Moves only touch the in-memory permutation;
// Commit sends the whole ordered id list. Concurrent admins are not reconciled: the last
// commit wins.
type Service struct {
	Gateways GatewayFactory
	Now      func() time.Time

	mu      sync.Mutex
	pending map[key]*state
}

func NewService(gateways GatewayFactory) *Service {
	return &Service{Gateways: gateways, Now: time.Now, pending: make(map[key]*state)}
}

// Begin snapshots the collection's current order, replacing any earlier pending reorder.
func (s *Service) Begin(ctx context.Context, admin Admin, collection string) (Pending, error) {
	if !content.Reorderable(collection) {
		return Pending{}, fmt.Errorf("%w: %s", ErrNotReorderable, collection)
	}
	records, err := s.Gateways(admin.Token).ListCollection(ctx, collection)
	if err != nil {
		return Pending{}, fmt.Errorf("list %s: %w", collection, err)
	}
	now := s.Now()
	st := &state{records: make(map[string]backend.Record, len(records)), started: now, updated: now}
	for _, rec := range records {
		if _, dup := st.records[rec.ID]; dup {
			continue
		}
		st.original = append(st.original, rec.ID)
		st.records[rec.ID] = rec
	}
	st.order = append([]string(nil), st.original...)

	s.mu.Lock()
	s.pending[key{admin.UserID, collection}] = st
	view := st.view(collection)
	s.mu.Unlock()
	return view, nil
}

// Move relocates the item at index from to index to.
func (s *Service) Move(admin Admin, collection string, from, to int) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.pending[key{admin.UserID, collection}]
	if !ok {
		return Pending{}, ErrNoPending
	}
	n := len(st.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		return Pending{}, fmt.Errorf("%w: from=%d to=%d len=%d", ErrInvalidMove, from, to, n)
	}
	st.order = move(st.order, from, to)
	st.updated = s.Now()
	return st.view(collection), nil
}

// Pending returns the in-progress reorder, if any.
func (s *Service) Pending(admin Admin, collection string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.pending[key{admin.UserID, collection}]
	if !ok {
		return Pending{}, ErrNoPending
	}
	return st.view(collection), nil
}

// Commit persists the pending order. The pending state survives a failed commit so the
// admin can retry, and is cleared only when the backend accepted exactly what was sent.
func (s *Service) Commit(ctx context.Context, admin Admin, collection string) (Pending, error) {
	k := key{admin.UserID, collection}
	s.mu.Lock()
	st, ok := s.pending[k]
	if !ok {
		s.mu.Unlock()
		return Pending{}, ErrNoPending
	}
	sent := append([]string(nil), st.order...)
	view := st.view(collection)
	s.mu.Unlock()

	if err := s.Gateways(admin.Token).SaveOrder(ctx, collection, sent); err != nil {
		telemetry.Error("ordering.commit_failed", map[string]any{
			"collection": collection,
			"user_id":    admin.UserID,
			"error":      err.Error(),
		})
		return Pending{}, fmt.Errorf("save order: %w", err)
	}

	s.mu.Lock()
	if cur, ok := s.pending[k]; ok && cur == st && equal(cur.order, sent) {
		delete(s.pending, k)
	}
	s.mu.Unlock()

	telemetry.Info("ordering.committed", map[string]any{
		"collection": collection,
		"user_id":    admin.UserID,
		"count":      len(sent),
	})
	return view, nil
}

// Discard drops the pending reorder without contacting the backend.
func (s *Service) Discard(admin Admin, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key{admin.UserID, collection})
}

func move(order []string, from, to int) []string {
	out := make([]string, 0, len(order))
	item := order[from]
	for i, id := range order {
		if i == from {
			continue
		}
		out = append(out, id)
	}
	out = append(out, "")
	copy(out[to+1:], out[to:])
	out[to] = item
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
