// Package worldstate owns the authoritative world state and the
// single-writer gate every mutation goes through.
package worldstate

import (
	"sort"
	"strings"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
)

// Log caps. Truncation always drops the oldest entries.
const (
	EventLogCap  = 50
	BugReportCap = 200
	ConflictCap  = 50
)

// Player defaults applied by EnsurePlayer.
const (
	DefaultCredits = 100
	DefaultHealth  = 100
	DefaultHunger  = 100
)

// World is the canonical registry of rooms, cities, players, NPCs, factions,
// market state, and the bounded event/bug logs. It is not safe for
// concurrent use; Store serializes access to it.
type World struct {
	rooms        map[string]*entities.Room
	cities       map[string]*entities.City
	players      map[string]*entities.Player
	npcs         map[string]*entities.NPC
	factions     map[string]*entities.Faction
	factionOrder []string
	zones        map[string]*entities.ZoneControl
	conflicts    []entities.Conflict
	events       []entities.WorldEvent
	bugReports   []entities.BugReport
	glossary     map[string]string
	marketItems  map[string]*entities.MarketItem
	traders      map[string]*entities.Trader
	marketEvents []*entities.MarketEvent
	tick         uint64

	clock          clock.Clock
	idGen          idgen.Generator
	spawnRoomID    string
	wildFallbackID string
}

func newWorld(clk clock.Clock, gen idgen.Generator, spawnRoomID, wildFallbackID string) *World {
	return &World{
		rooms:          make(map[string]*entities.Room),
		cities:         make(map[string]*entities.City),
		players:        make(map[string]*entities.Player),
		npcs:           make(map[string]*entities.NPC),
		factions:       make(map[string]*entities.Faction),
		zones:          make(map[string]*entities.ZoneControl),
		glossary:       make(map[string]string),
		marketItems:    make(map[string]*entities.MarketItem),
		traders:        make(map[string]*entities.Trader),
		clock:          clk,
		idGen:          gen,
		spawnRoomID:    spawnRoomID,
		wildFallbackID: wildFallbackID,
	}
}

// Tick returns the current simulation tick.
func (w *World) Tick() uint64 {
	return w.tick
}

// AdvanceTick increments and returns the simulation tick.
func (w *World) AdvanceTick() uint64 {
	w.tick++
	return w.tick
}

// SpawnRoomID is the designated home square for new and respawning players.
func (w *World) SpawnRoomID() string {
	return w.spawnRoomID
}

// EnsurePlayer returns the existing player or creates one with defaults.
// It never overwrites an existing record.
func (w *World) EnsurePlayer(id string) *entities.Player {
	if p, ok := w.players[id]; ok {
		return p
	}
	p := &entities.Player{
		ID:         id,
		Location:   w.spawnRoomID,
		Credits:    DefaultCredits,
		Health:     DefaultHealth,
		Hunger:     DefaultHunger,
		Status:     entities.StatusOK,
		Discovered: []string{w.spawnRoomID},
	}
	w.players[id] = p
	return p
}

// Player looks up a player without creating one.
func (w *World) Player(id string) (*entities.Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// Room looks up a room.
func (w *World) Room(id string) (*entities.Room, bool) {
	r, ok := w.rooms[id]
	return r, ok
}

// City looks up a city.
func (w *World) City(id string) (*entities.City, bool) {
	c, ok := w.cities[id]
	return c, ok
}

// Cities returns all cities ordered by id.
func (w *World) Cities() []*entities.City {
	out := make([]*entities.City, 0, len(w.cities))
	for _, c := range w.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NPC looks up an NPC.
func (w *World) NPC(id string) (*entities.NPC, bool) {
	n, ok := w.npcs[id]
	return n, ok
}

// NPCs returns all NPCs ordered by id.
func (w *World) NPCs() []*entities.NPC {
	out := make([]*entities.NPC, 0, len(w.npcs))
	for _, n := range w.npcs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Faction looks up a faction.
func (w *World) Faction(id string) (*entities.Faction, bool) {
	f, ok := w.factions[id]
	return f, ok
}

// MarketItem looks up a global market entry.
func (w *World) MarketItem(id string) (*entities.MarketItem, bool) {
	m, ok := w.marketItems[id]
	return m, ok
}

// Trader looks up a trader by the owning NPC id.
func (w *World) Trader(npcID string) (*entities.Trader, bool) {
	t, ok := w.traders[npcID]
	return t, ok
}

// CityForRoom resolves the owning city of a room, if any.
func (w *World) CityForRoom(roomID string) (*entities.City, bool) {
	r, ok := w.rooms[roomID]
	if !ok || r.CityID == "" {
		return nil, false
	}
	c, ok := w.cities[r.CityID]
	return c, ok
}

// NPCsInRoom returns the NPCs currently located in the room, ordered by id.
func (w *World) NPCsInRoom(roomID string) []*entities.NPC {
	var out []*entities.NPC
	for _, n := range w.npcs {
		if n.Location == roomID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayersInRoom returns the players currently located in the room, ordered
// by id.
func (w *World) PlayersInRoom(roomID string) []*entities.Player {
	var out []*entities.Player
	for _, p := range w.players {
		if p.Location == roomID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Players returns every player record, ordered by id.
func (w *World) Players() []*entities.Player {
	out := make([]*entities.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegisterFaction adds a faction, preserving registration order. Policy
// folding iterates factions in this order, so order is significant.
func (w *World) RegisterFaction(f *entities.Faction) error {
	if f == nil || f.ID == "" {
		return errors.InvalidArgument("faction id is required")
	}
	if _, ok := w.factions[f.ID]; ok {
		return errors.AlreadyExistsf("faction %q already registered", f.ID)
	}
	w.factions[f.ID] = f.Clone()
	w.factionOrder = append(w.factionOrder, f.ID)
	return nil
}

// Factions returns all factions in registration order.
func (w *World) Factions() []*entities.Faction {
	out := make([]*entities.Faction, 0, len(w.factionOrder))
	for _, id := range w.factionOrder {
		out = append(out, w.factions[id])
	}
	return out
}

// Zone returns the control record for a zone, creating an empty one on
// first touch.
func (w *World) Zone(zoneID string) *entities.ZoneControl {
	z, ok := w.zones[zoneID]
	if !ok {
		z = &entities.ZoneControl{
			ZoneID:    zoneID,
			Influence: make(map[string]float64),
		}
		w.zones[zoneID] = z
	}
	return z
}

// Zones returns every zone-control record ordered by zone id. Unlike Zone
// it never creates records, so it is safe under a read lock.
func (w *World) Zones() []*entities.ZoneControl {
	out := make([]*entities.ZoneControl, 0, len(w.zones))
	for _, z := range w.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}

// AppendConflict records a faction flare-up, minting id and timestamp, and
// truncates the ring to its cap.
func (w *World) AppendConflict(c entities.Conflict) entities.Conflict {
	if c.ID == "" {
		c.ID = w.idGen.Generate()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = w.clock.Now()
	}
	w.conflicts = append(w.conflicts, c)
	if len(w.conflicts) > ConflictCap {
		w.conflicts = w.conflicts[len(w.conflicts)-ConflictCap:]
	}
	return c
}

// Conflicts returns the recorded conflicts, oldest first.
func (w *World) Conflicts() []entities.Conflict {
	return w.conflicts
}

// UpsertNPC merges a partial NPC record over the existing one: incoming
// fields overwrite, absent fields keep their existing values. A brand-new
// id is inserted verbatim. A set location must reference an existing room.
func (w *World) UpsertNPC(npc *entities.NPC) error {
	if npc == nil || npc.ID == "" {
		return errors.InvalidArgument("npc id is required")
	}
	if npc.Location != "" {
		if _, ok := w.rooms[npc.Location]; !ok {
			return errors.InvalidArgumentf("npc %q location %q references a missing room", npc.ID, npc.Location)
		}
	}
	existing, ok := w.npcs[npc.ID]
	if !ok {
		w.npcs[npc.ID] = npc.Clone()
		return nil
	}
	mergeNPC(existing, npc)
	return nil
}

// mergeNPC is the single definition of the per-field merge policy:
// overwrite when the incoming field is set, keep the existing value
// otherwise.
func mergeNPC(dst, src *entities.NPC) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
	if src.FactionID != "" {
		dst.FactionID = src.FactionID
	}
	if src.Memory != "" {
		dst.Memory = src.Memory
	}
	if src.Dialogues != nil {
		dst.Dialogues = make(map[string]string, len(src.Dialogues))
		for k, v := range src.Dialogues {
			dst.Dialogues[k] = v
		}
	}
	if src.Quests != nil {
		dst.Quests = append([]entities.Quest(nil), src.Quests...)
	}
	if src.Stock != nil {
		dst.Stock = append([]string(nil), src.Stock...)
	}
}

// RemoveNPC deletes an NPC. Removing an unknown id is a no-op.
func (w *World) RemoveNPC(id string) {
	delete(w.npcs, id)
}

// PushEvent prepends an event to the log, minting id and timestamp when
// absent, and truncates to the cap (newest first, oldest dropped).
func (w *World) PushEvent(ev entities.WorldEvent) entities.WorldEvent {
	if ev.ID == "" {
		ev.ID = w.idGen.Generate()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = w.clock.Now()
	}
	w.events = append([]entities.WorldEvent{ev}, w.events...)
	if len(w.events) > EventLogCap {
		w.events = w.events[:EventLogCap]
	}
	return ev
}

// Events returns the event log, newest first.
func (w *World) Events() []entities.WorldEvent {
	return w.events
}

// RecentEventMatches reports whether any logged event title contains the
// keyword, case-insensitively.
func (w *World) RecentEventMatches(keyword string) bool {
	k := strings.ToLower(keyword)
	for _, ev := range w.events {
		if strings.Contains(strings.ToLower(ev.Title), k) {
			return true
		}
	}
	return false
}

// PushBugReport appends a bug report, minting id and timestamp when absent,
// and truncates to the cap (oldest dropped).
func (w *World) PushBugReport(r entities.BugReport) entities.BugReport {
	if r.ID == "" {
		r.ID = w.idGen.Generate()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = w.clock.Now()
	}
	w.bugReports = append(w.bugReports, r)
	if len(w.bugReports) > BugReportCap {
		w.bugReports = w.bugReports[len(w.bugReports)-BugReportCap:]
	}
	return r
}

// BugReports returns the pending bug reports, oldest first.
func (w *World) BugReports() []entities.BugReport {
	return w.bugReports
}

// DrainBugReports consumes and clears the bug-report log.
func (w *World) DrainBugReports() []entities.BugReport {
	out := w.bugReports
	w.bugReports = nil
	return out
}

// Glossary returns the live translation glossary.
func (w *World) Glossary() map[string]string {
	return w.glossary
}

// MergeGlossary folds new glossary entries in; incoming entries win.
func (w *World) MergeGlossary(entries map[string]string) {
	for k, v := range entries {
		w.glossary[k] = v
	}
}

// AddMarketItem registers a global market entry, overwriting any previous
// entry for the id.
func (w *World) AddMarketItem(item *entities.MarketItem) error {
	if item == nil || item.ID == "" {
		return errors.InvalidArgument("market item id is required")
	}
	if item.MaxStock <= 0 {
		return errors.InvalidArgumentf("market item %q needs a positive max stock", item.ID)
	}
	w.marketItems[item.ID] = item.Clone()
	return nil
}

// MarketItems returns all market entries ordered by id.
func (w *World) MarketItems() []*entities.MarketItem {
	out := make([]*entities.MarketItem, 0, len(w.marketItems))
	for _, m := range w.marketItems {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddTrader registers a trader shadow market for a merchant NPC.
func (w *World) AddTrader(t *entities.Trader) error {
	if t == nil || t.NPCID == "" {
		return errors.InvalidArgument("trader npc id is required")
	}
	w.traders[t.NPCID] = t.Clone()
	return nil
}

// Traders returns all traders ordered by owning NPC id.
func (w *World) Traders() []*entities.Trader {
	out := make([]*entities.Trader, 0, len(w.traders))
	for _, t := range w.traders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NPCID < out[j].NPCID })
	return out
}

// ScheduleMarketEvent activates a time-boxed price shock.
func (w *World) ScheduleMarketEvent(ev *entities.MarketEvent) *entities.MarketEvent {
	e := ev.Clone()
	if e.ID == "" {
		e.ID = w.idGen.Generate()
	}
	w.marketEvents = append(w.marketEvents, e)
	return e
}

// MarketEvents returns the active market events.
func (w *World) MarketEvents() []*entities.MarketEvent {
	return w.marketEvents
}

// SetMarketEvents replaces the active market event list. The economy tick
// uses it to drop expired events.
func (w *World) SetMarketEvents(evs []*entities.MarketEvent) {
	w.marketEvents = evs
}

// RespawnRoomFor picks the respawn location for a defeated player: the home
// square if discovered, else the first discovered room that still exists,
// else the wild fallback.
func (w *World) RespawnRoomFor(p *entities.Player) string {
	if p.HasDiscovered(w.spawnRoomID) {
		if _, ok := w.rooms[w.spawnRoomID]; ok {
			return w.spawnRoomID
		}
	}
	for _, id := range p.Discovered {
		if _, ok := w.rooms[id]; ok {
			return id
		}
	}
	return w.wildFallbackID
}

// ApplyWorld replaces all rooms and cities with the incoming spec after
// validating it is internally consistent. Nothing is committed on
// rejection.
func (w *World) ApplyWorld(spec *WorldSpec) error {
	if err := spec.validate(nil); err != nil {
		return err
	}
	w.rooms = make(map[string]*entities.Room, len(spec.Rooms))
	w.cities = make(map[string]*entities.City, len(spec.Cities))
	for _, c := range spec.Cities {
		w.cities[c.ID] = c.Clone()
	}
	for _, r := range spec.Rooms {
		w.rooms[r.ID] = r.Clone()
	}
	return nil
}

// MergeWorld unions the incoming spec into the existing world by id.
// References may resolve against either the incoming spec or the existing
// world; the whole merge is rejected on any dangling reference.
func (w *World) MergeWorld(spec *WorldSpec) error {
	if err := spec.validate(w); err != nil {
		return err
	}
	for _, c := range spec.Cities {
		w.cities[c.ID] = c.Clone()
	}
	for _, r := range spec.Rooms {
		w.rooms[r.ID] = r.Clone()
	}
	return nil
}
