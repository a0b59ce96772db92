package worldstate_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type SnapshotTestSuite struct {
	suite.Suite
	store *worldstate.Store
}

func (s *SnapshotTestSuite) SetupTest() {
	s.store = newTestStore(&s.Suite)
}

func (s *SnapshotTestSuite) emptyStore() *worldstate.Store {
	store, err := worldstate.New(&worldstate.Config{
		Clock:              fixedClock{now: testNow},
		IDGenerator:        idgen.NewSequential("fresh"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	return store
}

func (s *SnapshotTestSuite) TestRoundTripThroughJSON() {
	// Populate a little of everything.
	err := s.store.Update(func(w *worldstate.World) error {
		p := w.EnsurePlayer("player_1")
		p.AddItem("ration")
		p.AddItem("scrap_metal")
		p.AdjustCredits(250)
		p.AdjustReputation("wardens", 12)
		p.DiscoverRoom("haven_market")

		if err := w.UpsertNPC(&entities.NPC{
			ID:        "npc_brindle",
			Name:      "Brindle",
			Role:      entities.RoleMerchant,
			Location:  "haven_market",
			Dialogues: map[string]string{"default": "Scrap for sale."},
		}); err != nil {
			return err
		}

		if err := w.RegisterFaction(&entities.Faction{ID: "wardens", Name: "The Wardens", Influence: 60, Aggression: 30}); err != nil {
			return err
		}
		if err := w.RegisterFaction(&entities.Faction{ID: "syndicate", Name: "The Syndicate", Influence: 45, Aggression: 80}); err != nil {
			return err
		}

		z := w.Zone("haven")
		z.Influence["wardens"] = 65
		z.Influence["syndicate"] = 50
		z.Contested = true

		if err := w.AddMarketItem(&entities.MarketItem{
			ID: "ration", Name: "Ration", BasePrice: 10, CurrentPrice: 10,
			Supply: 100, Demand: 0.5, Volatility: 0.2, RestockRate: 5, MaxStock: 200,
		}); err != nil {
			return err
		}
		if err := w.AddTrader(&entities.Trader{
			NPCID:          "npc_brindle",
			SellMultiplier: 1.2,
			BuyMultiplier:  0.8,
			RestockEvery:   5,
			Items:          map[string]*entities.TraderItem{"ration": {Price: 12, Stock: 20, Demand: 0.5}},
		}); err != nil {
			return err
		}

		w.PushEvent(entities.WorldEvent{Title: "Market fire", Detail: "A stall burned down.", CityID: "haven"})
		w.PushBugReport(entities.BugReport{Title: "stuck door", PlayerID: "player_1"})
		w.MergeGlossary(map[string]string{"drift": "the wild expanse beyond the gate"})
		w.AppendConflict(entities.Conflict{ZoneID: "haven", FactionA: "wardens", FactionB: "syndicate", Intensity: 0.55})
		for i := 0; i < 7; i++ {
			w.AdvanceTick()
		}
		return nil
	})
	s.Require().NoError(err)

	original := s.store.Snapshot()
	s.Require().NotNil(original)
	s.Equal(worldstate.SnapshotVersion, original.Version)
	s.Equal(uint64(7), original.Tick)

	raw, err := json.Marshal(original)
	s.Require().NoError(err)

	var decoded worldstate.Snapshot
	s.Require().NoError(json.Unmarshal(raw, &decoded))

	fresh := s.emptyStore()
	s.Require().NoError(fresh.Restore(&decoded))

	reloaded := fresh.Snapshot()
	s.Equal(original, reloaded, "restore then snapshot must reproduce the world")
	s.Equal(uint64(7), fresh.CurrentTick())
}

func (s *SnapshotTestSuite) TestRestoreMissingCollectionsLoadEmpty() {
	fresh := s.emptyStore()
	s.Require().NoError(fresh.Restore(&worldstate.Snapshot{Version: worldstate.SnapshotVersion, Tick: 3}))

	err := fresh.View(func(w *worldstate.World) error {
		s.Empty(w.Events())
		s.Empty(w.BugReports())
		s.Empty(w.Factions())
		s.Empty(w.MarketItems())
		s.Equal(uint64(3), w.Tick())
		_, ok := w.Room("haven_square")
		s.False(ok)
		return nil
	})
	s.Require().NoError(err)
}

func (s *SnapshotTestSuite) TestRestoreReappliesLogCaps() {
	snap := &worldstate.Snapshot{Version: worldstate.SnapshotVersion}
	for i := 1; i <= 60; i++ {
		// Snapshot event order is newest first.
		snap.Events = append(snap.Events, entities.WorldEvent{ID: fmt.Sprintf("ev_%d", i), Title: fmt.Sprintf("event %d", i)})
	}
	for i := 1; i <= 250; i++ {
		snap.BugReports = append(snap.BugReports, entities.BugReport{ID: fmt.Sprintf("bug_%d", i), Title: fmt.Sprintf("bug %d", i)})
	}

	fresh := s.emptyStore()
	s.Require().NoError(fresh.Restore(snap))

	err := fresh.View(func(w *worldstate.World) error {
		events := w.Events()
		s.Require().Len(events, worldstate.EventLogCap)
		s.Equal("event 1", events[0].Title, "newest-first head is kept")
		s.Equal("event 50", events[len(events)-1].Title)

		bugs := w.BugReports()
		s.Require().Len(bugs, worldstate.BugReportCap)
		s.Equal("bug 51", bugs[0].Title, "oldest reports beyond the cap are dropped")
		s.Equal("bug 250", bugs[len(bugs)-1].Title)
		return nil
	})
	s.Require().NoError(err)
}

func (s *SnapshotTestSuite) TestRestoreClampsPlayerStats() {
	snap := &worldstate.Snapshot{
		Version: worldstate.SnapshotVersion,
		Rooms:   []*entities.Room{{ID: "haven_square", Zone: entities.ZoneCity}},
		Players: []*entities.Player{
			{
				ID:          "player_busted",
				Location:    "haven_square",
				Credits:     -50,
				Health:      900,
				Hunger:      -10,
				Heat:        101,
				WantedLevel: 9,
				Reputation:  map[string]int{"wardens": -400},
			},
		},
	}

	fresh := s.emptyStore()
	s.Require().NoError(fresh.Restore(snap))

	p, err := fresh.PlayerSnapshot("player_busted")
	s.Require().NoError(err)
	s.Equal(0, p.Credits)
	s.Equal(100, p.Health)
	s.Equal(0, p.Hunger)
	s.Equal(100, p.Heat)
	s.Equal(5, p.WantedLevel)
	s.Equal(entities.StatusOK, p.Status, "missing status defaults to ok")
	s.Equal(-100, p.Reputation["wardens"])
}

func (s *SnapshotTestSuite) TestRestoreClearsDanglingNPCLocation() {
	snap := &worldstate.Snapshot{
		Version: worldstate.SnapshotVersion,
		Rooms:   []*entities.Room{{ID: "haven_square", Zone: entities.ZoneCity}},
		NPCs: []*entities.NPC{
			{ID: "npc_here", Location: "haven_square"},
			{ID: "npc_lost", Location: "demolished_block"},
		},
	}

	fresh := s.emptyStore()
	s.Require().NoError(fresh.Restore(snap))

	err := fresh.View(func(w *worldstate.World) error {
		here, ok := w.NPC("npc_here")
		s.Require().True(ok)
		s.Equal("haven_square", here.Location)

		lost, ok := w.NPC("npc_lost")
		s.Require().True(ok)
		s.Empty(lost.Location, "a location pointing at a missing room is cleared")
		return nil
	})
	s.Require().NoError(err)
}

func (s *SnapshotTestSuite) TestRestoreRefusesNewerVersion() {
	fresh := s.emptyStore()
	err := fresh.Restore(&worldstate.Snapshot{Version: worldstate.SnapshotVersion + 1})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SnapshotTestSuite) TestRestoreNilSnapshot() {
	err := s.store.Restore(nil)
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotTestSuite))
}
