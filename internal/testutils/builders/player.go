// Package builders provides test data builders for creating test fixtures
package builders

import (
	"time"

	"github.com/driftlands/worldsim/internal/entities"
)

// PlayerBuilder provides a fluent interface for building test Player instances
type PlayerBuilder struct {
	player *entities.Player
}

// NewPlayerBuilder creates a new builder with fresh-spawn defaults
func NewPlayerBuilder() *PlayerBuilder {
	return &PlayerBuilder{
		player: &entities.Player{
			ID:         "player-test-123",
			Location:   "haven_square",
			Credits:    100,
			Health:     100,
			Hunger:     100,
			Status:     entities.StatusOK,
			Discovered: []string{"haven_square"},
		},
	}
}

// WithID sets the player ID
func (b *PlayerBuilder) WithID(id string) *PlayerBuilder {
	b.player.ID = id
	return b
}

// WithLocation moves the player and records the room as discovered
func (b *PlayerBuilder) WithLocation(roomID string) *PlayerBuilder {
	b.player.Location = roomID
	b.player.DiscoverRoom(roomID)
	return b
}

// WithCredits sets the credit balance
func (b *PlayerBuilder) WithCredits(credits int) *PlayerBuilder {
	b.player.Credits = credits
	return b
}

// WithHealth sets the health stat
func (b *PlayerBuilder) WithHealth(health int) *PlayerBuilder {
	b.player.Health = health
	return b
}

// WithHunger sets the hunger stat
func (b *PlayerBuilder) WithHunger(hunger int) *PlayerBuilder {
	b.player.Hunger = hunger
	return b
}

// WithHeat sets the heat stat
func (b *PlayerBuilder) WithHeat(heat int) *PlayerBuilder {
	b.player.Heat = heat
	return b
}

// WithStatus sets the life state
func (b *PlayerBuilder) WithStatus(status entities.PlayerStatus) *PlayerBuilder {
	b.player.Status = status
	return b
}

// WithInventory replaces the inventory
func (b *PlayerBuilder) WithInventory(items ...string) *PlayerBuilder {
	b.player.Inventory = items
	return b
}

// WithDiscovered replaces the discovered-room history
func (b *PlayerBuilder) WithDiscovered(roomIDs ...string) *PlayerBuilder {
	b.player.Discovered = roomIDs
	return b
}

// WithReputation sets the standing with one faction
func (b *PlayerBuilder) WithReputation(factionID string, value int) *PlayerBuilder {
	if b.player.Reputation == nil {
		b.player.Reputation = make(map[string]int)
	}
	b.player.Reputation[factionID] = value
	return b
}

// WithJobCooldown records a job as last run at the given time
func (b *PlayerBuilder) WithJobCooldown(jobID string, lastRun time.Time) *PlayerBuilder {
	if b.player.JobCooldowns == nil {
		b.player.JobCooldowns = make(map[string]time.Time)
	}
	b.player.JobCooldowns[jobID] = lastRun
	return b
}

// AsWanted builds a hot player the guards are hunting
func (b *PlayerBuilder) AsWanted() *PlayerBuilder {
	b.player.Heat = 85
	b.player.WantedLevel = 5
	return b
}

// Build returns the constructed Player
func (b *PlayerBuilder) Build() *entities.Player {
	return b.player
}
