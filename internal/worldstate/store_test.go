package worldstate_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// fixedClock pins Now to a known instant so event timestamps and snapshot
// metadata are deterministic.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(s *suite.Suite) *worldstate.Store {
	store, err := worldstate.New(&worldstate.Config{
		Clock:              fixedClock{now: testNow},
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)

	err = store.Update(func(w *worldstate.World) error {
		return w.ApplyWorld(baseWorldSpec())
	})
	s.Require().NoError(err)
	return store
}

// baseWorldSpec is a minimal starter layout: one city with three linked
// rooms plus a wild fallback room.
func baseWorldSpec() *worldstate.WorldSpec {
	return &worldstate.WorldSpec{
		Cities: []*entities.City{
			{
				ID:   "haven",
				Name: "Haven",
				Policy: entities.Policy{
					SafetyLevel:    0.7,
					GuardDensity:   entities.GuardDensityMed,
					GuardResponse:  entities.GuardResponsePatrol,
					GuardLethality: entities.GuardLethalitySubdue,
					Tax:            entities.TaxRates{Trade: 0.05, Withdraw: 0.02, Storage: 0.01},
					WithdrawPoints: []string{"haven_market"},
					AccessMode:     entities.AccessOpen,
				},
			},
		},
		Rooms: []*entities.Room{
			{ID: "haven_square", Name: "Haven Square", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_market", "haven_gate"}},
			{ID: "haven_market", Name: "Haven Market", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square"}},
			{ID: "haven_gate", Name: "Haven Gate", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square", "the_drifts"}},
			{ID: "the_drifts", Name: "The Drifts", Zone: entities.ZoneWild, Neighbors: []string{"haven_gate"}},
		},
	}
}

type StoreTestSuite struct {
	suite.Suite
	store *worldstate.Store
}

func (s *StoreTestSuite) SetupTest() {
	s.store = newTestStore(&s.Suite)
}

func (s *StoreTestSuite) TestNewRequiresConfig() {
	_, err := worldstate.New(nil)
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = worldstate.New(&worldstate.Config{})
	s.Error(err)
	s.Contains(err.Error(), "Clock")
	s.Contains(err.Error(), "SpawnRoomID")
}

func (s *StoreTestSuite) TestEnsurePlayerDefaults() {
	p, err := s.store.EnsurePlayer("player_1")
	s.Require().NoError(err)
	s.Require().NotNil(p)

	s.Equal("player_1", p.ID)
	s.Equal("haven_square", p.Location)
	s.Equal(100, p.Credits)
	s.Equal(100, p.Health)
	s.Equal(100, p.Hunger)
	s.Equal(entities.StatusOK, p.Status)
	s.Equal(0, p.Heat)
	s.Equal(0, p.WantedLevel)
	s.Equal([]string{"haven_square"}, p.Discovered)
}

func (s *StoreTestSuite) TestEnsurePlayerNeverResets() {
	_, err := s.store.EnsurePlayer("player_1")
	s.Require().NoError(err)

	err = s.store.Update(func(w *worldstate.World) error {
		p, ok := w.Player("player_1")
		s.Require().True(ok)
		p.Credits = 42
		p.Location = "haven_market"
		return nil
	})
	s.Require().NoError(err)

	p, err := s.store.EnsurePlayer("player_1")
	s.Require().NoError(err)
	s.Equal(42, p.Credits, "second ensure must not reapply defaults")
	s.Equal("haven_market", p.Location)
}

func (s *StoreTestSuite) TestEnsurePlayerReturnsDetachedCopy() {
	p, err := s.store.EnsurePlayer("player_1")
	s.Require().NoError(err)

	p.Credits = 9999
	p.Inventory = append(p.Inventory, "scrap_metal")

	stored, err := s.store.PlayerSnapshot("player_1")
	s.Require().NoError(err)
	s.Equal(100, stored.Credits)
	s.Empty(stored.Inventory)
}

func (s *StoreTestSuite) TestPlayerSnapshotNotFound() {
	_, err := s.store.PlayerSnapshot("ghost")
	s.Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *StoreTestSuite) TestApplyWorldRejectsDanglingReferences() {
	spec := &worldstate.WorldSpec{
		Rooms: []*entities.Room{
			{ID: "orphan_alley", Neighbors: []string{"nowhere"}, CityID: "atlantis"},
		},
	}

	err := s.store.Update(func(w *worldstate.World) error {
		return w.ApplyWorld(spec)
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Contains(err.Error(), "nowhere")
	s.Contains(err.Error(), "atlantis")

	// Nothing from the rejected spec may land, and the old layout stays.
	err = s.store.View(func(w *worldstate.World) error {
		_, ok := w.Room("orphan_alley")
		s.False(ok)
		_, ok = w.Room("haven_square")
		s.True(ok)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestMergeWorldResolvesAgainstExistingWorld() {
	spec := &worldstate.WorldSpec{
		Rooms: []*entities.Room{
			{ID: "haven_docks", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_gate"}},
		},
	}

	err := s.store.Update(func(w *worldstate.World) error {
		return w.MergeWorld(spec)
	})
	s.Require().NoError(err)

	err = s.store.View(func(w *worldstate.World) error {
		r, ok := w.Room("haven_docks")
		s.Require().True(ok)
		s.Equal("haven", r.CityID)

		// Pre-merge rooms survive a merge.
		_, ok = w.Room("haven_square")
		s.True(ok)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestMergeWorldRejectsUnknownCity() {
	spec := &worldstate.WorldSpec{
		Rooms: []*entities.Room{
			{ID: "haven_docks", CityID: "lost_city"},
		},
	}

	err := s.store.Update(func(w *worldstate.World) error {
		return w.MergeWorld(spec)
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))

	err = s.store.View(func(w *worldstate.World) error {
		_, ok := w.Room("haven_docks")
		s.False(ok)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestUpsertNPCMergesPerField() {
	err := s.store.UpsertNPC(&entities.NPC{
		ID:       "npc_brindle",
		Name:     "Brindle",
		Role:     entities.RoleMerchant,
		Location: "haven_market",
		Dialogues: map[string]string{
			"default": "Scrap for sale.",
		},
	})
	s.Require().NoError(err)

	// Partial update: only the location is set.
	err = s.store.UpsertNPC(&entities.NPC{
		ID:       "npc_brindle",
		Location: "haven_square",
	})
	s.Require().NoError(err)

	err = s.store.View(func(w *worldstate.World) error {
		n, ok := w.NPC("npc_brindle")
		s.Require().True(ok)
		s.Equal("haven_square", n.Location)
		s.Equal("Brindle", n.Name, "absent fields keep their values")
		s.Equal(entities.RoleMerchant, n.Role)
		line, ok := n.DialogueFor("anything")
		s.True(ok)
		s.Equal("Scrap for sale.", line)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestUpsertNPCRejectsMissingRoom() {
	err := s.store.UpsertNPC(&entities.NPC{
		ID:       "npc_lost",
		Location: "void_chamber",
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *StoreTestSuite) TestRemoveNPC() {
	err := s.store.UpsertNPC(&entities.NPC{ID: "npc_brindle", Location: "haven_market"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.RemoveNPC("npc_brindle"))
	s.Require().NoError(s.store.RemoveNPC("npc_brindle"), "removing twice is a no-op")

	err = s.store.View(func(w *worldstate.World) error {
		_, ok := w.NPC("npc_brindle")
		s.False(ok)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestEventLogKeepsNewestFifty() {
	for i := 1; i <= worldstate.EventLogCap+1; i++ {
		_, err := s.store.PushEvent(entities.WorldEvent{
			Title: fmt.Sprintf("event %d", i),
		})
		s.Require().NoError(err)
	}

	err := s.store.View(func(w *worldstate.World) error {
		events := w.Events()
		s.Require().Len(events, worldstate.EventLogCap)
		s.Equal("event 51", events[0].Title, "newest entry leads the log")
		s.Equal("event 2", events[len(events)-1].Title, "oldest entry fell off")
		for _, ev := range events {
			s.NotEmpty(ev.ID)
			s.Equal(testNow, ev.Timestamp)
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestBugReportLogCapAndDrain() {
	for i := 1; i <= worldstate.BugReportCap+1; i++ {
		_, err := s.store.PushBugReport(entities.BugReport{
			Title:    fmt.Sprintf("bug %d", i),
			PlayerID: "player_1",
		})
		s.Require().NoError(err)
	}

	err := s.store.Update(func(w *worldstate.World) error {
		drained := w.DrainBugReports()
		s.Require().Len(drained, worldstate.BugReportCap)
		s.Equal("bug 2", drained[0].Title, "oldest report dropped at the cap")
		s.Equal("bug 201", drained[len(drained)-1].Title)

		s.Empty(w.BugReports(), "drain clears the log")
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestConcurrentUpdatesSerialize() {
	_, err := s.store.EnsurePlayer("player_1")
	s.Require().NoError(err)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = s.store.Update(func(w *worldstate.World) error {
					p, _ := w.Player("player_1")
					p.AdjustCredits(1)
					return nil
				})
			}
		}()
	}
	wg.Wait()

	p, err := s.store.PlayerSnapshot("player_1")
	s.Require().NoError(err)
	s.Equal(100+workers*perWorker, p.Credits, "every update must land exactly once")
}

func (s *StoreTestSuite) TestRespawnRoomPriority() {
	err := s.store.Update(func(w *worldstate.World) error {
		home := w.EnsurePlayer("player_home")
		home.DiscoverRoom("haven_market")

		// Never visited the home square; first surviving discovered room
		// wins.
		wanderer := w.EnsurePlayer("player_wanderer")
		wanderer.Discovered = []string{"gone_room", "haven_gate"}

		// Nothing discovered still exists.
		stray := w.EnsurePlayer("player_stray")
		stray.Discovered = []string{"gone_room"}

		s.Equal("haven_square", w.RespawnRoomFor(home))
		s.Equal("haven_gate", w.RespawnRoomFor(wanderer))
		s.Equal("the_drifts", w.RespawnRoomFor(stray))
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestRegisterFactionKeepsOrder() {
	err := s.store.Update(func(w *worldstate.World) error {
		s.Require().NoError(w.RegisterFaction(&entities.Faction{ID: "wardens", Name: "The Wardens"}))
		s.Require().NoError(w.RegisterFaction(&entities.Faction{ID: "syndicate", Name: "The Syndicate"}))
		s.Require().NoError(w.RegisterFaction(&entities.Faction{ID: "freeholders", Name: "The Freeholders"}))

		err := w.RegisterFaction(&entities.Faction{ID: "wardens"})
		s.True(errors.IsAlreadyExists(err))

		var ids []string
		for _, f := range w.Factions() {
			ids = append(ids, f.ID)
		}
		s.Equal([]string{"wardens", "syndicate", "freeholders"}, ids)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestAdvanceTick() {
	s.Equal(uint64(0), s.store.CurrentTick())

	err := s.store.Update(func(w *worldstate.World) error {
		s.Equal(uint64(1), w.AdvanceTick())
		s.Equal(uint64(2), w.AdvanceTick())
		return nil
	})
	s.Require().NoError(err)
	s.Equal(uint64(2), s.store.CurrentTick())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
