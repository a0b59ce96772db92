package worldstate

import (
	"sort"
	"time"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
)

// SnapshotVersion is the current snapshot schema version. Loaders accept
// this version and older; a newer version is refused rather than guessed
// at.
const SnapshotVersion = 1

// Snapshot is the portable, versioned form of the whole world. Every
// collection key is optional on load: absent means empty, and the log caps
// are re-applied after loading.
type Snapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Tick    uint64    `json:"tick"`

	Players      []*entities.Player      `json:"players,omitempty"`
	Rooms        []*entities.Room        `json:"rooms,omitempty"`
	Cities       []*entities.City        `json:"cities,omitempty"`
	NPCs         []*entities.NPC         `json:"npcs,omitempty"`
	Events       []entities.WorldEvent   `json:"events,omitempty"`
	BugReports   []entities.BugReport    `json:"bug_reports,omitempty"`
	Glossary     map[string]string       `json:"glossary,omitempty"`
	Factions     []*entities.Faction     `json:"factions,omitempty"`
	Zones        []*entities.ZoneControl `json:"zones,omitempty"`
	Conflicts    []entities.Conflict     `json:"conflicts,omitempty"`
	MarketItems  []*entities.MarketItem  `json:"market_items,omitempty"`
	Traders      []*entities.Trader      `json:"traders,omitempty"`
	MarketEvents []*entities.MarketEvent `json:"market_events,omitempty"`
}

// snapshot captures a deep copy of the world. Map-backed collections are
// emitted sorted by id so identical worlds produce identical snapshots;
// factions keep registration order because policy folding depends on it.
func (w *World) snapshot() *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		SavedAt: w.clock.Now(),
		Tick:    w.tick,
	}

	for _, id := range sortedKeys(w.players) {
		snap.Players = append(snap.Players, w.players[id].Clone())
	}
	for _, id := range sortedKeys(w.rooms) {
		snap.Rooms = append(snap.Rooms, w.rooms[id].Clone())
	}
	for _, id := range sortedKeys(w.cities) {
		snap.Cities = append(snap.Cities, w.cities[id].Clone())
	}
	for _, id := range sortedKeys(w.npcs) {
		snap.NPCs = append(snap.NPCs, w.npcs[id].Clone())
	}
	for _, id := range w.factionOrder {
		snap.Factions = append(snap.Factions, w.factions[id].Clone())
	}
	for _, id := range sortedKeys(w.zones) {
		snap.Zones = append(snap.Zones, w.zones[id].Clone())
	}
	for _, id := range sortedKeys(w.marketItems) {
		snap.MarketItems = append(snap.MarketItems, w.marketItems[id].Clone())
	}
	for _, id := range sortedKeys(w.traders) {
		snap.Traders = append(snap.Traders, w.traders[id].Clone())
	}
	for _, ev := range w.marketEvents {
		snap.MarketEvents = append(snap.MarketEvents, ev.Clone())
	}

	snap.Events = append([]entities.WorldEvent(nil), w.events...)
	snap.BugReports = append([]entities.BugReport(nil), w.bugReports...)
	snap.Conflicts = append([]entities.Conflict(nil), w.conflicts...)

	if len(w.glossary) > 0 {
		snap.Glossary = make(map[string]string, len(w.glossary))
		for k, v := range w.glossary {
			snap.Glossary[k] = v
		}
	}

	return snap
}

// restore replaces the world contents with the snapshot. Out-of-range
// player stats are clamped and an NPC location pointing at a room the
// snapshot no longer contains is cleared, so a hand-edited or truncated
// snapshot still loads into a consistent world.
func (w *World) restore(snap *Snapshot) error {
	if snap.Version > SnapshotVersion {
		return errors.FailedPreconditionf("snapshot version %d is newer than supported version %d", snap.Version, SnapshotVersion)
	}

	w.tick = snap.Tick
	w.rooms = make(map[string]*entities.Room, len(snap.Rooms))
	w.cities = make(map[string]*entities.City, len(snap.Cities))
	w.players = make(map[string]*entities.Player, len(snap.Players))
	w.npcs = make(map[string]*entities.NPC, len(snap.NPCs))
	w.factions = make(map[string]*entities.Faction, len(snap.Factions))
	w.factionOrder = nil
	w.zones = make(map[string]*entities.ZoneControl, len(snap.Zones))
	w.marketItems = make(map[string]*entities.MarketItem, len(snap.MarketItems))
	w.traders = make(map[string]*entities.Trader, len(snap.Traders))
	w.marketEvents = nil
	w.glossary = make(map[string]string, len(snap.Glossary))

	for _, c := range snap.Cities {
		w.cities[c.ID] = c.Clone()
	}
	for _, r := range snap.Rooms {
		w.rooms[r.ID] = r.Clone()
	}
	for _, p := range snap.Players {
		cp := p.Clone()
		sanitizePlayer(cp)
		w.players[cp.ID] = cp
	}
	for _, n := range snap.NPCs {
		cn := n.Clone()
		if cn.Location != "" {
			if _, ok := w.rooms[cn.Location]; !ok {
				cn.Location = ""
			}
		}
		w.npcs[cn.ID] = cn
	}
	for _, f := range snap.Factions {
		w.factions[f.ID] = f.Clone()
		w.factionOrder = append(w.factionOrder, f.ID)
	}
	for _, z := range snap.Zones {
		cz := z.Clone()
		if cz.Influence == nil {
			cz.Influence = make(map[string]float64)
		}
		w.zones[cz.ZoneID] = cz
	}
	for _, m := range snap.MarketItems {
		w.marketItems[m.ID] = m.Clone()
	}
	for _, t := range snap.Traders {
		w.traders[t.NPCID] = t.Clone()
	}
	for _, ev := range snap.MarketEvents {
		w.marketEvents = append(w.marketEvents, ev.Clone())
	}
	for k, v := range snap.Glossary {
		w.glossary[k] = v
	}

	w.events = append([]entities.WorldEvent(nil), snap.Events...)
	if len(w.events) > EventLogCap {
		w.events = w.events[:EventLogCap]
	}
	w.bugReports = append([]entities.BugReport(nil), snap.BugReports...)
	if len(w.bugReports) > BugReportCap {
		w.bugReports = w.bugReports[len(w.bugReports)-BugReportCap:]
	}
	w.conflicts = append([]entities.Conflict(nil), snap.Conflicts...)
	if len(w.conflicts) > ConflictCap {
		w.conflicts = w.conflicts[len(w.conflicts)-ConflictCap:]
	}

	return nil
}

func sanitizePlayer(p *entities.Player) {
	p.Health = clampRange(p.Health, entities.StatMin, entities.StatMax)
	p.Hunger = clampRange(p.Hunger, entities.StatMin, entities.StatMax)
	p.Heat = clampRange(p.Heat, entities.StatMin, entities.StatMax)
	p.WantedLevel = clampRange(p.WantedLevel, 0, 5)
	if p.Credits < 0 {
		p.Credits = 0
	}
	if p.Status == "" {
		p.Status = entities.StatusOK
	}
	for id, rep := range p.Reputation {
		p.Reputation[id] = clampRange(rep, entities.ReputationMin, entities.ReputationMax)
	}
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
