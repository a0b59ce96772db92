// Package snapshot provides repository interfaces and types for persisting
// whole-world snapshots.
package snapshot

import (
	"context"

	"github.com/driftlands/worldsim/internal/worldstate"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=snapshotmock github.com/driftlands/worldsim/internal/repositories/snapshot Repository

// SaveInput contains parameters for persisting a snapshot
type SaveInput struct {
	Snapshot *worldstate.Snapshot
}

// SaveOutput contains the result of persisting a snapshot
type SaveOutput struct {
	// Tick the persisted snapshot was taken at
	Tick uint64
}

// LoadInput contains parameters for loading the current snapshot
type LoadInput struct{}

// LoadOutput contains the loaded snapshot
type LoadOutput struct {
	Snapshot *worldstate.Snapshot
}

// Repository defines the interface for snapshot storage operations
type Repository interface {
	// Save persists the snapshot as the current world state
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// Load retrieves the current world snapshot. A store with no snapshot
	// returns a NotFound error.
	Load(ctx context.Context, input LoadInput) (*LoadOutput, error)
}
