package testutils

import (
	"github.com/driftlands/worldsim/internal/entities"
)

// Canonical fixture ids shared across suites.
const (
	TestSpawnRoom  = "haven_square"
	TestMarketRoom = "haven_market"
	TestWildRoom   = "the_drifts"

	// TestMerchantName is the default merchant name for test fixtures
	TestMerchantName = "Vex"
)

// CreateTestPlayer returns a player with the defaults a first touch of the
// store would mint: spawn location, full stats, starting credits.
func CreateTestPlayer(id string) *entities.Player {
	return &entities.Player{
		ID:         id,
		Location:   TestSpawnRoom,
		Credits:    100,
		Health:     100,
		Hunger:     100,
		Status:     entities.StatusOK,
		Discovered: []string{TestSpawnRoom},
	}
}

// CreateTestMerchant returns a merchant NPC with a default dialogue line,
// placed in the market room.
func CreateTestMerchant(id string) *entities.NPC {
	return &entities.NPC{
		ID:       id,
		Name:     TestMerchantName,
		Role:     entities.RoleMerchant,
		Location: TestMarketRoom,
		Dialogues: map[string]string{
			"default": "Buying or selling?",
		},
	}
}

// CreateTestGuard returns a guard NPC posted at the spawn square.
func CreateTestGuard(id string) *entities.NPC {
	return &entities.NPC{
		ID:       id,
		Name:     "Brick",
		Role:     entities.RoleGuard,
		Location: TestSpawnRoom,
	}
}
