package worldstate

import (
	"sync"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
)

// Config holds the dependencies for the store
type Config struct {
	Clock              clock.Clock
	IDGenerator        idgen.Generator
	SpawnRoomID        string
	WildFallbackRoomID string
}

// Validate ensures all required dependencies are present
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.SpawnRoomID == "" {
		vb.RequiredField("SpawnRoomID")
	}
	if c.WildFallbackRoomID == "" {
		vb.RequiredField("WildFallbackRoomID")
	}

	return vb.Build()
}

// Store serializes all access to the world. Every mutation runs inside
// Update, which holds the write lock for the whole closure, so a multi-step
// action resolves atomically: no other reader or writer observes its
// intermediate state.
type Store struct {
	mu    sync.RWMutex
	world *World
}

// New creates a new world store
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Store{
		world: newWorld(cfg.Clock, cfg.IDGenerator, cfg.SpawnRoomID, cfg.WildFallbackRoomID),
	}, nil
}

// Update runs fn with exclusive access to the world. The world must not be
// retained past the closure.
func (s *Store) Update(fn func(w *World) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.world)
}

// View runs fn with shared read access to the world. The closure must not
// mutate the world or retain it past the call.
func (s *Store) View(fn func(w *World) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.world)
}

// EnsurePlayer creates the player with defaults if absent and returns a
// detached copy.
func (s *Store) EnsurePlayer(id string) (*entities.Player, error) {
	if id == "" {
		return nil, errors.InvalidArgument("player id is required")
	}
	var out *entities.Player
	err := s.Update(func(w *World) error {
		out = w.EnsurePlayer(id).Clone()
		return nil
	})
	return out, err
}

// PlayerSnapshot returns a detached copy of a player.
func (s *Store) PlayerSnapshot(id string) (*entities.Player, error) {
	var out *entities.Player
	err := s.View(func(w *World) error {
		p, ok := w.Player(id)
		if !ok {
			return errors.NotFoundf("player %q not found", id)
		}
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PushEvent appends to the world event log under the write lock.
func (s *Store) PushEvent(ev entities.WorldEvent) (entities.WorldEvent, error) {
	var out entities.WorldEvent
	err := s.Update(func(w *World) error {
		out = w.PushEvent(ev)
		return nil
	})
	return out, err
}

// PushBugReport appends to the bug-report log under the write lock.
func (s *Store) PushBugReport(r entities.BugReport) (entities.BugReport, error) {
	var out entities.BugReport
	err := s.Update(func(w *World) error {
		out = w.PushBugReport(r)
		return nil
	})
	return out, err
}

// UpsertNPC merges NPC fields under the write lock.
func (s *Store) UpsertNPC(npc *entities.NPC) error {
	return s.Update(func(w *World) error {
		return w.UpsertNPC(npc)
	})
}

// RemoveNPC deletes an NPC under the write lock.
func (s *Store) RemoveNPC(id string) error {
	return s.Update(func(w *World) error {
		w.RemoveNPC(id)
		return nil
	})
}

// CurrentTick reads the simulation tick.
func (s *Store) CurrentTick() uint64 {
	var t uint64
	_ = s.View(func(w *World) error {
		t = w.Tick()
		return nil
	})
	return t
}

// Snapshot captures a consistent copy of the whole world.
func (s *Store) Snapshot() *Snapshot {
	var snap *Snapshot
	_ = s.View(func(w *World) error {
		snap = w.snapshot()
		return nil
	})
	return snap
}

// Restore replaces the world with the snapshot contents. Missing snapshot
// collections load as empty, and log caps are re-applied.
func (s *Store) Restore(snap *Snapshot) error {
	if snap == nil {
		return errors.InvalidArgument("snapshot is required")
	}
	return s.Update(func(w *World) error {
		return w.restore(snap)
	})
}
