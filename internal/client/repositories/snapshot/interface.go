// Package snapshot persists the durable subset of session state across
// process restarts. Exactly one snapshot exists at a time, stored under
// a fixed key; absence at boot means an unauthenticated start.
package snapshot

import (
	"context"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
)

// Key is the fixed name the durable session snapshot is stored under.
const Key = "auth-storage"

// Snapshot is the persisted subset of session state. Transient fields
// (status, last error) are never part of it.
type Snapshot struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

type Repository interface {
	// Load returns the stored snapshot, or (nil, nil) when none exists.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Clear(ctx context.Context) error
}
