// Package schedule drives declarative NPC presence from the in-game clock:
// spawn and despawn conditions, routines, and relocation.
package schedule

import (
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// DefaultTicksPerHour converts simulation ticks to in-game hours.
const DefaultTicksPerHour = 60

// DefaultRespawnCooldown is how many scheduler cycles an NPC stays away
// after despawning before its spawn conditions are consulted again.
const DefaultRespawnCooldown = 2

// HourOfTick maps a simulation tick to the in-game hour of day.
func HourOfTick(tick uint64, ticksPerHour int) int {
	if ticksPerHour <= 0 {
		ticksPerHour = DefaultTicksPerHour
	}
	return int(tick / uint64(ticksPerHour) % 24)
}

// HourInWindow reports whether the hour falls inside [start,end), handling
// windows that wrap past midnight: for start > end the window covers
// hour >= start or hour < end.
func HourInWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// ConditionType discriminates the typed spawn/despawn gates.
type ConditionType string

// Condition types
const (
	ConditionTimeWindow        ConditionType = "time_window"
	ConditionPlayersPresent    ConditionType = "players_present"
	ConditionPlayersAbsent     ConditionType = "players_absent"
	ConditionEventKeyword      ConditionType = "event_keyword"
	ConditionRoomBelowCapacity ConditionType = "room_below_capacity"
)

// Condition is one typed gate evaluated against the live world. The fields
// used depend on Type; the rest are ignored.
type Condition struct {
	Type ConditionType `json:"type"`

	// time_window
	StartHour int `json:"start_hour,omitempty"`
	EndHour   int `json:"end_hour,omitempty"`

	// players_present, players_absent, room_below_capacity
	RoomID string `json:"room_id,omitempty"`

	// event_keyword
	Keyword string `json:"keyword,omitempty"`

	// room_below_capacity
	MaxOccupants int `json:"max_occupants,omitempty"`
}

// Holds evaluates the condition against the world at the given hour.
// Unknown condition types never hold.
func (c Condition) Holds(w *worldstate.World, hour int) bool {
	switch c.Type {
	case ConditionTimeWindow:
		return HourInWindow(hour, c.StartHour, c.EndHour)
	case ConditionPlayersPresent:
		return len(w.PlayersInRoom(c.RoomID)) > 0
	case ConditionPlayersAbsent:
		return len(w.PlayersInRoom(c.RoomID)) == 0
	case ConditionEventKeyword:
		return w.RecentEventMatches(c.Keyword)
	case ConditionRoomBelowCapacity:
		return len(w.PlayersInRoom(c.RoomID))+len(w.NPCsInRoom(c.RoomID)) < c.MaxOccupants
	default:
		return false
	}
}

// RoutineStop maps a daily time window to where the NPC should be.
type RoutineStop struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	RoomID    string `json:"room_id"`
}

// Entry declares one scheduled NPC: its template record, daily routine,
// and the conditions gating its presence.
type Entry struct {
	NPC               entities.NPC  `json:"npc"`
	Routine           []RoutineStop `json:"routine,omitempty"`
	SpawnConditions   []Condition   `json:"spawn_conditions,omitempty"`
	DespawnConditions []Condition   `json:"despawn_conditions,omitempty"`
	// CooldownCycles overrides the respawn cooldown after a despawn.
	CooldownCycles int `json:"cooldown_cycles,omitempty"`
}

// routineRoom picks the first routine stop containing the hour.
func (e *Entry) routineRoom(hour int) (string, bool) {
	for _, stop := range e.Routine {
		if HourInWindow(hour, stop.StartHour, stop.EndHour) {
			return stop.RoomID, true
		}
	}
	return "", false
}

// cooldown returns the entry's respawn cooldown in cycles.
func (e *Entry) cooldown() int {
	if e.CooldownCycles > 0 {
		return e.CooldownCycles
	}
	return DefaultRespawnCooldown
}

// Config holds the dependencies for the scheduler
type Config struct {
	Entries []*Entry
}

// Validate ensures the schedule is internally consistent
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	seen := make(map[string]bool, len(c.Entries))
	for i, e := range c.Entries {
		if e == nil || e.NPC.ID == "" {
			vb.Fieldf("entries", "entry %d is missing an npc id", i)
			continue
		}
		if seen[e.NPC.ID] {
			vb.Fieldf("entries", "duplicate schedule for npc %q", e.NPC.ID)
		}
		seen[e.NPC.ID] = true
	}

	return vb.Build()
}

// npcState tracks one NPC through the {absent, present} state machine.
type npcState struct {
	present      bool
	hydrated     bool
	cooldownLeft int
}

// Scheduler owns the presence state machine for every scheduled NPC. It is
// not safe for concurrent use; the tick orchestrator drives it from inside
// a single store update.
type Scheduler struct {
	entries []*Entry
	state   map[string]*npcState
}

// New creates a scheduler
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Scheduler{
		entries: cfg.Entries,
		state:   make(map[string]*npcState, len(cfg.Entries)),
	}, nil
}

// TickResult reports what one scheduler pass changed.
type TickResult struct {
	Spawned   []string
	Despawned []string
	Relocated []string
}

// Tick advances every scheduled NPC one step at the given in-game hour:
// present NPCs despawn when any despawn condition holds, otherwise follow
// their routine; absent NPCs respawn once their cooldown has elapsed and
// every spawn condition holds.
func (s *Scheduler) Tick(w *worldstate.World, hour int) (*TickResult, error) {
	res := &TickResult{}

	for _, e := range s.entries {
		st := s.stateFor(w, e.NPC.ID)

		if st.present {
			if anyHolds(e.DespawnConditions, w, hour) {
				w.RemoveNPC(e.NPC.ID)
				st.present = false
				st.cooldownLeft = e.cooldown()
				res.Despawned = append(res.Despawned, e.NPC.ID)
				continue
			}
			if room, ok := e.routineRoom(hour); ok {
				if err := s.relocate(w, e.NPC.ID, room, res); err != nil {
					return nil, err
				}
			}
			continue
		}

		if st.cooldownLeft > 0 {
			st.cooldownLeft--
			continue
		}
		if !allHold(e.SpawnConditions, w, hour) {
			continue
		}

		room, ok := e.routineRoom(hour)
		if !ok {
			room = e.NPC.Location
		}
		if room == "" {
			continue
		}
		if _, exists := w.Room(room); !exists {
			continue
		}

		npc := e.NPC.Clone()
		npc.Location = room
		if err := w.UpsertNPC(npc); err != nil {
			return nil, errors.Wrapf(err, "failed to spawn npc %q", e.NPC.ID)
		}
		st.present = true
		res.Spawned = append(res.Spawned, e.NPC.ID)
	}

	return res, nil
}

// stateFor lazily hydrates presence from the world, so a scheduler built
// over a restored snapshot picks up NPCs that were present at save time.
func (s *Scheduler) stateFor(w *worldstate.World, npcID string) *npcState {
	st, ok := s.state[npcID]
	if !ok {
		st = &npcState{}
		s.state[npcID] = st
	}
	if !st.hydrated {
		_, present := w.NPC(npcID)
		st.present = present
		st.hydrated = true
	}
	return st
}

func (s *Scheduler) relocate(w *worldstate.World, npcID, room string, res *TickResult) error {
	if _, exists := w.Room(room); !exists {
		return nil
	}
	npc, ok := w.NPC(npcID)
	if !ok || npc.Location == room {
		return nil
	}
	if err := w.UpsertNPC(&entities.NPC{ID: npcID, Location: room}); err != nil {
		return errors.Wrapf(err, "failed to relocate npc %q", npcID)
	}
	res.Relocated = append(res.Relocated, npcID)
	return nil
}

func anyHolds(conds []Condition, w *worldstate.World, hour int) bool {
	for _, c := range conds {
		if c.Holds(w, hour) {
			return true
		}
	}
	return false
}

func allHold(conds []Condition, w *worldstate.World, hour int) bool {
	for _, c := range conds {
		if !c.Holds(w, hour) {
			return false
		}
	}
	return true
}
