package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/testutils"
	"github.com/driftlands/worldsim/internal/testutils/builders"
)

type PlayerTestSuite struct {
	suite.Suite
}

func (s *PlayerTestSuite) TestFixtureMatchesMintDefaults() {
	p := testutils.CreateTestPlayer("drifter_1")

	s.Equal("drifter_1", p.ID)
	s.Equal(testutils.TestSpawnRoom, p.Location)
	s.Equal(100, p.Credits)
	s.Equal(100, p.Health)
	s.Equal(100, p.Hunger)
	s.Equal(entities.StatusOK, p.Status)
	s.Equal([]string{testutils.TestSpawnRoom}, p.Discovered)
	s.Zero(p.Heat)
}

func (s *PlayerTestSuite) TestCreditsFloorAtZero() {
	p := builders.NewPlayerBuilder().WithCredits(30).Build()

	p.AdjustCredits(-50)
	s.Equal(0, p.Credits, "overdraw floors instead of going negative")

	p.AdjustCredits(75)
	s.Equal(75, p.Credits)
}

func (s *PlayerTestSuite) TestStatsClampAfterAnySequence() {
	p := testutils.CreateTestPlayer("drifter_1")

	deltas := []int{-30, 250, -999, 40, 15, -7, 1000}
	for _, d := range deltas {
		p.AdjustHealth(d)
		p.AdjustHunger(d)
		p.AdjustHeat(d)

		s.GreaterOrEqual(p.Health, entities.StatMin)
		s.LessOrEqual(p.Health, entities.StatMax)
		s.GreaterOrEqual(p.Hunger, entities.StatMin)
		s.LessOrEqual(p.Hunger, entities.StatMax)
		s.GreaterOrEqual(p.Heat, entities.StatMin)
		s.LessOrEqual(p.Heat, entities.StatMax)
	}
}

func (s *PlayerTestSuite) TestHeatClampsBothWays() {
	p := builders.NewPlayerBuilder().WithHeat(95).Build()

	p.AdjustHeat(20)
	s.Equal(100, p.Heat)

	p.AdjustHeat(-150)
	s.Equal(0, p.Heat)
}

func (s *PlayerTestSuite) TestReputationClampsAtBounds() {
	p := builders.NewPlayerBuilder().
		WithReputation("wardens", 90).
		Build()

	p.AdjustReputation("wardens", 25)
	s.Equal(entities.ReputationMax, p.Reputation["wardens"])

	p.AdjustReputation("ash_syndicate", -250)
	s.Equal(entities.ReputationMin, p.Reputation["ash_syndicate"])

	p.AdjustReputation("ash_syndicate", 30)
	s.Equal(-70, p.Reputation["ash_syndicate"])
}

func (s *PlayerTestSuite) TestInventoryIsAMultiset() {
	p := builders.NewPlayerBuilder().
		WithInventory("scrap", "ration", "scrap").
		Build()

	s.True(p.HasItem("scrap"))

	s.True(p.RemoveItem("scrap"))
	s.True(p.HasItem("scrap"), "second copy survives removing one")
	s.Equal([]string{"ration", "scrap"}, p.Inventory)

	s.True(p.RemoveItem("scrap"))
	s.False(p.HasItem("scrap"))

	s.False(p.RemoveItem("scrap"), "removing a missing item reports false")

	p.AddItem("relic_shard")
	s.Equal([]string{"ration", "relic_shard"}, p.Inventory)
}

func (s *PlayerTestSuite) TestDiscoverRoomKeepsFirstVisitOrder() {
	p := testutils.CreateTestPlayer("drifter_1")

	p.DiscoverRoom(testutils.TestMarketRoom)
	p.DiscoverRoom(testutils.TestSpawnRoom)
	p.DiscoverRoom(testutils.TestMarketRoom)
	p.DiscoverRoom(testutils.TestWildRoom)

	s.Equal([]string{testutils.TestSpawnRoom, testutils.TestMarketRoom, testutils.TestWildRoom}, p.Discovered)
	s.True(p.HasDiscovered(testutils.TestWildRoom))
	s.False(p.HasDiscovered("gallows_gate"))
}

func (s *PlayerTestSuite) TestCloneIsolatesMutations() {
	lastRun := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	p := builders.NewPlayerBuilder().
		WithID("drifter_1").
		WithInventory("scrap").
		WithReputation("wardens", 40).
		WithJobCooldown("courier_run", lastRun).
		Build()
	p.Bounties = map[string]int{"haven": 25}
	p.NPCMemory = map[string]string{"vex": "haggled hard"}

	clone := p.Clone()
	clone.AddItem("ration")
	clone.AdjustReputation("wardens", -100)
	clone.DiscoverRoom("gallows_gate")
	clone.JobCooldowns["courier_run"] = lastRun.Add(time.Hour)
	clone.Bounties["haven"] = 999
	clone.NPCMemory["vex"] = "forgot everything"

	s.Equal([]string{"scrap"}, p.Inventory)
	s.Equal(40, p.Reputation["wardens"])
	s.False(p.HasDiscovered("gallows_gate"))
	s.Equal(lastRun, p.JobCooldowns["courier_run"])
	s.Equal(25, p.Bounties["haven"])
	s.Equal("haggled hard", p.NPCMemory["vex"])
}

func (s *PlayerTestSuite) TestCloneNil() {
	var p *entities.Player
	s.Nil(p.Clone())
}

func (s *PlayerTestSuite) TestWantedBuilderShape() {
	p := builders.NewPlayerBuilder().AsWanted().Build()

	s.Equal(85, p.Heat)
	s.Equal(5, p.WantedLevel)
	s.Equal(entities.StatusOK, p.Status, "wanted players are still on their feet")
}

func TestPlayerSuite(t *testing.T) {
	suite.Run(t, new(PlayerTestSuite))
}
