package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type ScheduleEngineTestSuite struct {
	suite.Suite
	store *worldstate.Store
}

func (s *ScheduleEngineTestSuite) SetupTest() {
	store, err := worldstate.New(&worldstate.Config{
		Clock:              clock.New(),
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		return w.ApplyWorld(&worldstate.WorldSpec{
			Rooms: []*entities.Room{
				{ID: "haven_square", Name: "Haven Square", Zone: entities.ZoneCity, Neighbors: []string{"haven_market"}},
				{ID: "haven_market", Name: "Haven Market", Zone: entities.ZoneCity, Neighbors: []string{"haven_square"}},
				{ID: "the_drifts", Name: "The Drifts", Zone: entities.ZoneWild},
			},
		})
	})
	s.Require().NoError(err)
}

func (s *ScheduleEngineTestSuite) newScheduler(entries ...*schedule.Entry) *schedule.Scheduler {
	sched, err := schedule.New(&schedule.Config{Entries: entries})
	s.Require().NoError(err)
	return sched
}

// tick runs one scheduler pass inside a store update.
func (s *ScheduleEngineTestSuite) tick(sched *schedule.Scheduler, hour int) *schedule.TickResult {
	var res *schedule.TickResult
	err := s.store.Update(func(w *worldstate.World) error {
		var err error
		res, err = sched.Tick(w, hour)
		return err
	})
	s.Require().NoError(err)
	return res
}

func (s *ScheduleEngineTestSuite) placePlayer(id, room string) {
	err := s.store.Update(func(w *worldstate.World) error {
		w.EnsurePlayer(id).Location = room
		return nil
	})
	s.Require().NoError(err)
}

func (s *ScheduleEngineTestSuite) npcLocation(id string) (string, bool) {
	var loc string
	var present bool
	err := s.store.View(func(w *worldstate.World) error {
		if npc, ok := w.NPC(id); ok {
			loc, present = npc.Location, true
		}
		return nil
	})
	s.Require().NoError(err)
	return loc, present
}

// brindleEntry keeps a merchant in the market by day and the square by
// night, present from early morning until late evening.
func brindleEntry() *schedule.Entry {
	return &schedule.Entry{
		NPC: entities.NPC{
			ID:   "npc_brindle",
			Name: "Brindle",
			Role: entities.RoleMerchant,
		},
		Routine: []schedule.RoutineStop{
			{StartHour: 8, EndHour: 18, RoomID: "haven_market"},
			{StartHour: 18, EndHour: 8, RoomID: "haven_square"},
		},
		SpawnConditions: []schedule.Condition{
			{Type: schedule.ConditionTimeWindow, StartHour: 6, EndHour: 22},
		},
	}
}

func (s *ScheduleEngineTestSuite) TestSpawnFollowsRoutine() {
	sched := s.newScheduler(brindleEntry())

	res := s.tick(sched, 9)
	s.Equal([]string{"npc_brindle"}, res.Spawned)

	loc, present := s.npcLocation("npc_brindle")
	s.True(present)
	s.Equal("haven_market", loc)

	// A second pass in the same window changes nothing.
	res = s.tick(sched, 9)
	s.Empty(res.Spawned)
	s.Empty(res.Relocated)
}

func (s *ScheduleEngineTestSuite) TestRelocatesWhenRoutineWindowChanges() {
	sched := s.newScheduler(brindleEntry())
	s.tick(sched, 9)

	res := s.tick(sched, 18)
	s.Equal([]string{"npc_brindle"}, res.Relocated)

	loc, _ := s.npcLocation("npc_brindle")
	s.Equal("haven_square", loc)

	// The night stop wraps past midnight, so 3am is still the square.
	res = s.tick(sched, 3)
	s.Empty(res.Relocated)
	loc, _ = s.npcLocation("npc_brindle")
	s.Equal("haven_square", loc)
}

func (s *ScheduleEngineTestSuite) TestDespawnAndCooldown() {
	entry := brindleEntry()
	entry.DespawnConditions = []schedule.Condition{
		{Type: schedule.ConditionTimeWindow, StartHour: 22, EndHour: 6},
	}
	sched := s.newScheduler(entry)

	s.tick(sched, 9)
	res := s.tick(sched, 23)
	s.Equal([]string{"npc_brindle"}, res.Despawned)

	_, present := s.npcLocation("npc_brindle")
	s.False(present)

	// Two cooldown cycles pass before the spawn gate is consulted again.
	s.Empty(s.tick(sched, 9).Spawned)
	s.Empty(s.tick(sched, 9).Spawned)
	s.Equal([]string{"npc_brindle"}, s.tick(sched, 9).Spawned)
}

func (s *ScheduleEngineTestSuite) TestDespawnOnEventKeyword() {
	entry := brindleEntry()
	entry.DespawnConditions = []schedule.Condition{
		{Type: schedule.ConditionEventKeyword, Keyword: "raid"},
	}
	sched := s.newScheduler(entry)
	s.tick(sched, 9)

	err := s.store.Update(func(w *worldstate.World) error {
		w.PushEvent(entities.WorldEvent{Title: "Raid on the gate district"})
		return nil
	})
	s.Require().NoError(err)

	res := s.tick(sched, 9)
	s.Equal([]string{"npc_brindle"}, res.Despawned)
}

func (s *ScheduleEngineTestSuite) TestSpawnWaitsForAllConditions() {
	entry := brindleEntry()
	entry.SpawnConditions = append(entry.SpawnConditions,
		schedule.Condition{Type: schedule.ConditionPlayersPresent, RoomID: "haven_market"})
	sched := s.newScheduler(entry)

	s.Empty(s.tick(sched, 9).Spawned)

	s.placePlayer("wanderer", "haven_market")
	s.Equal([]string{"npc_brindle"}, s.tick(sched, 9).Spawned)
}

func (s *ScheduleEngineTestSuite) TestPlayersAbsentCondition() {
	entry := brindleEntry()
	entry.SpawnConditions = []schedule.Condition{
		{Type: schedule.ConditionPlayersAbsent, RoomID: "the_drifts"},
	}
	sched := s.newScheduler(entry)

	s.placePlayer("wanderer", "the_drifts")
	s.Empty(s.tick(sched, 9).Spawned)

	s.placePlayer("wanderer", "haven_square")
	s.Equal([]string{"npc_brindle"}, s.tick(sched, 9).Spawned)
}

func (s *ScheduleEngineTestSuite) TestRoomCapacityCeiling() {
	entry := brindleEntry()
	entry.SpawnConditions = []schedule.Condition{
		{Type: schedule.ConditionRoomBelowCapacity, RoomID: "haven_market", MaxOccupants: 2},
	}
	sched := s.newScheduler(entry)

	s.placePlayer("first", "haven_market")
	s.placePlayer("second", "haven_market")
	s.Empty(s.tick(sched, 9).Spawned, "room is at capacity")

	s.placePlayer("second", "haven_square")
	s.Equal([]string{"npc_brindle"}, s.tick(sched, 9).Spawned)
}

func (s *ScheduleEngineTestSuite) TestRelocateSkipsMissingRoom() {
	entry := brindleEntry()
	entry.Routine = []schedule.RoutineStop{
		{StartHour: 8, EndHour: 10, RoomID: "haven_market"},
		{StartHour: 10, EndHour: 12, RoomID: "collapsed_tunnel"},
	}
	sched := s.newScheduler(entry)
	s.tick(sched, 9)

	res := s.tick(sched, 11)
	s.Empty(res.Relocated)

	loc, _ := s.npcLocation("npc_brindle")
	s.Equal("haven_market", loc, "npc stays put when the stop's room does not exist")
}

func (s *ScheduleEngineTestSuite) TestSpawnSkipsMissingRoom() {
	entry := brindleEntry()
	entry.Routine = []schedule.RoutineStop{
		{StartHour: 8, EndHour: 18, RoomID: "collapsed_tunnel"},
	}
	sched := s.newScheduler(entry)

	s.Empty(s.tick(sched, 9).Spawned)
	_, present := s.npcLocation("npc_brindle")
	s.False(present)
}

func (s *ScheduleEngineTestSuite) TestSpawnSkipsWithoutLocation() {
	entry := &schedule.Entry{NPC: entities.NPC{ID: "npc_ghost", Name: "Ghost"}}
	sched := s.newScheduler(entry)

	s.Empty(s.tick(sched, 9).Spawned)
}

func (s *ScheduleEngineTestSuite) TestHydratesPresenceFromRestoredWorld() {
	err := s.store.Update(func(w *worldstate.World) error {
		return w.UpsertNPC(&entities.NPC{ID: "npc_brindle", Name: "Brindle", Location: "haven_square"})
	})
	s.Require().NoError(err)

	entry := brindleEntry()
	entry.DespawnConditions = []schedule.Condition{
		{Type: schedule.ConditionTimeWindow, StartHour: 0, EndHour: 24},
	}
	sched := s.newScheduler(entry)

	// The scheduler never spawned this NPC, but it sees it in the world
	// and runs the despawn gate on the first pass.
	res := s.tick(sched, 5)
	s.Equal([]string{"npc_brindle"}, res.Despawned)
}

func (s *ScheduleEngineTestSuite) TestNewRejectsBadConfig() {
	_, err := schedule.New(nil)
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = schedule.New(&schedule.Config{Entries: []*schedule.Entry{
		{NPC: entities.NPC{ID: "npc_brindle"}},
		{NPC: entities.NPC{ID: "npc_brindle"}},
	}})
	s.Require().Error(err)
	s.Contains(err.Error(), "duplicate schedule")

	_, err = schedule.New(&schedule.Config{Entries: []*schedule.Entry{{}}})
	s.Require().Error(err)
	s.Contains(err.Error(), "missing an npc id")
}

func TestScheduleEngineSuite(t *testing.T) {
	suite.Run(t, new(ScheduleEngineTestSuite))
}

func TestHourOfTick(t *testing.T) {
	tests := []struct {
		name         string
		tick         uint64
		ticksPerHour int
		want         int
	}{
		{name: "first tick", tick: 0, ticksPerHour: 60, want: 0},
		{name: "last tick of hour zero", tick: 59, ticksPerHour: 60, want: 0},
		{name: "hour rolls over", tick: 60, ticksPerHour: 60, want: 1},
		{name: "last hour of day", tick: 1439, ticksPerHour: 60, want: 23},
		{name: "day wraps", tick: 1440, ticksPerHour: 60, want: 0},
		{name: "custom resolution", tick: 25, ticksPerHour: 1, want: 1},
		{name: "zero falls back to default", tick: 120, ticksPerHour: 0, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.HourOfTick(tt.tick, tt.ticksPerHour))
		})
	}
}

func TestHourInWindow(t *testing.T) {
	tests := []struct {
		name             string
		hour, start, end int
		want             bool
	}{
		{name: "inside plain window", hour: 9, start: 8, end: 18, want: true},
		{name: "end is exclusive", hour: 18, start: 8, end: 18, want: false},
		{name: "before plain window", hour: 7, start: 8, end: 18, want: false},
		{name: "wrapped before midnight", hour: 23, start: 22, end: 6, want: true},
		{name: "wrapped after midnight", hour: 2, start: 22, end: 6, want: true},
		{name: "outside wrapped window", hour: 7, start: 22, end: 6, want: false},
		{name: "empty window", hour: 5, start: 5, end: 5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.HourInWindow(tt.hour, tt.start, tt.end))
		})
	}
}
