package storage

import (
	"context"

	"banditd/internal/model"
)

// Store is an append-only journal of accepted instance writes. It is read
// back for inspection only; registries are never rebuilt from it.
type Store interface {
	Init(ctx context.Context) error
	// AppendEvent assigns the event its sequence number and returns it.
	AppendEvent(ctx context.Context, event model.Event) (model.Event, error)
	// Events returns the newest limit events for instanceID, oldest first.
	// A non-positive limit returns all of them.
	Events(ctx context.Context, instanceID string, limit int) ([]model.Event, error)
}
