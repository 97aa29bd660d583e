package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrExpired          = errors.New("session expired")
	ErrNoToken          = errors.New("backend issued no token")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Repo persists sessions.
type Repo interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
