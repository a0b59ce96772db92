// Package worldseed loads the YAML seed document a server operator edits
// to describe the starting world: rooms, cities, factions, NPCs, routines,
// market catalogue, traders, and jobs.
//
// The loader decodes strictly (unknown fields are errors), resolves every
// cross-reference, and converts the document into the kernel's own types.
// Graph consistency is still gated by the store when the seed is applied.
package worldseed

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// InfluenceGrant seeds one faction's starting influence over a zone.
type InfluenceGrant struct {
	ZoneID    string
	FactionID string
	Weight    float64
}

// Seed is a parsed and validated world seed, converted to kernel types.
// World content is installed with Apply; Scheduled and Jobs are catalogues
// for the scheduler and jobs engine constructors.
type Seed struct {
	SpawnRoomID        string
	WildFallbackRoomID string

	World       *worldstate.WorldSpec
	Factions    []*entities.Faction
	Influence   []InfluenceGrant
	NPCs        []*entities.NPC
	MarketItems []*entities.MarketItem
	Traders     []*entities.Trader
	Glossary    map[string]string

	Scheduled []*schedule.Entry
	Jobs      []*entities.Job
}

// Load reads and parses the seed file at path.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed %s", path)
	}
	seed, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "seed %s", path)
	}
	return seed, nil
}

// Parse decodes a seed document and resolves it into kernel types. Unknown
// YAML fields, dangling references, and out-of-range values are errors.
func Parse(data []byte) (*Seed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.InvalidArgumentf("decode seed: %v", err)
	}
	return doc.resolve()
}

// Apply installs the seed's world content. It must run inside a store
// update. Zone influence is threaded through the policy engine so the
// controller and contested flags are derived rather than trusted from the
// file.
func (s *Seed) Apply(w *worldstate.World) error {
	if err := w.ApplyWorld(s.World); err != nil {
		return err
	}
	for _, f := range s.Factions {
		if err := w.RegisterFaction(f); err != nil {
			return err
		}
	}
	policies := policy.New()
	for _, g := range s.Influence {
		if _, err := policies.UpdateZoneInfluence(w, g.ZoneID, g.FactionID, g.Weight); err != nil {
			return err
		}
	}
	for _, npc := range s.NPCs {
		if err := w.UpsertNPC(npc); err != nil {
			return err
		}
	}
	for _, item := range s.MarketItems {
		if err := w.AddMarketItem(item); err != nil {
			return err
		}
	}
	for _, t := range s.Traders {
		if err := w.AddTrader(t); err != nil {
			return err
		}
	}
	w.MergeGlossary(s.Glossary)
	return nil
}

// document is the YAML file shape. Field names are the operator-facing
// contract; change them and every deployed seed breaks.
type document struct {
	SpawnRoom        string            `yaml:"spawn_room"`
	WildFallbackRoom string            `yaml:"wild_fallback_room"`
	Glossary         map[string]string `yaml:"glossary,omitempty"`

	Factions      []factionDoc    `yaml:"factions,omitempty"`
	ZoneInfluence []influenceDoc  `yaml:"zone_influence,omitempty"`
	Cities        []cityDoc       `yaml:"cities,omitempty"`
	Rooms         []roomDoc       `yaml:"rooms"`
	NPCs          []npcDoc        `yaml:"npcs,omitempty"`
	ScheduledNPCs []scheduledDoc  `yaml:"scheduled_npcs,omitempty"`
	MarketItems   []marketItemDoc `yaml:"market_items,omitempty"`
	Traders       []traderDoc     `yaml:"traders,omitempty"`
	Jobs          []jobDoc        `yaml:"jobs,omitempty"`
}

type factionDoc struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Aggression int      `yaml:"aggression,omitempty"`
	Goals      []string `yaml:"goals,omitempty"`
}

type influenceDoc struct {
	Zone    string  `yaml:"zone"`
	Faction string  `yaml:"faction"`
	Weight  float64 `yaml:"weight"`
}

type cityDoc struct {
	ID     string    `yaml:"id"`
	Name   string    `yaml:"name"`
	Policy policyDoc `yaml:"policy"`
}

type policyDoc struct {
	SafetyLevel    float64  `yaml:"safety_level"`
	GuardDensity   string   `yaml:"guard_density,omitempty"`
	GuardResponse  string   `yaml:"guard_response,omitempty"`
	GuardLethality string   `yaml:"guard_lethality,omitempty"`
	PvP            pvpDoc   `yaml:"pvp"`
	Tax            taxDoc   `yaml:"tax,omitempty"`
	WithdrawPoints []string `yaml:"withdraw_points,omitempty"`
	Access         string   `yaml:"access,omitempty"`
}

type pvpDoc struct {
	Enabled  bool   `yaml:"enabled"`
	DropRule string `yaml:"drop_rule,omitempty"`
	Penalty  string `yaml:"penalty,omitempty"`
}

type taxDoc struct {
	Trade    float64 `yaml:"trade,omitempty"`
	Withdraw float64 `yaml:"withdraw,omitempty"`
	Storage  float64 `yaml:"storage,omitempty"`
}

type roomDoc struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	City      string   `yaml:"city,omitempty"`
	Zone      string   `yaml:"zone,omitempty"`
	Neighbors []string `yaml:"neighbors,omitempty"`
}

type npcDoc struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Role      string            `yaml:"role,omitempty"`
	Location  string            `yaml:"location,omitempty"`
	Faction   string            `yaml:"faction,omitempty"`
	Dialogues map[string]string `yaml:"dialogues,omitempty"`
	Quests    []questDoc        `yaml:"quests,omitempty"`
	Stock     []string          `yaml:"stock,omitempty"`
}

type questDoc struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Detail string `yaml:"detail,omitempty"`
	Reward int    `yaml:"reward,omitempty"`
}

type scheduledDoc struct {
	NPC               npcDoc         `yaml:"npc"`
	Routine           []routineDoc   `yaml:"routine,omitempty"`
	SpawnConditions   []conditionDoc `yaml:"spawn_conditions,omitempty"`
	DespawnConditions []conditionDoc `yaml:"despawn_conditions,omitempty"`
	CooldownCycles    int            `yaml:"cooldown_cycles,omitempty"`
}

type routineDoc struct {
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	Room      string `yaml:"room"`
}

type conditionDoc struct {
	Type         string `yaml:"type"`
	StartHour    int    `yaml:"start_hour,omitempty"`
	EndHour      int    `yaml:"end_hour,omitempty"`
	Room         string `yaml:"room,omitempty"`
	Keyword      string `yaml:"keyword,omitempty"`
	MaxOccupants int    `yaml:"max_occupants,omitempty"`
}

type marketItemDoc struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category,omitempty"`
	BasePrice   int     `yaml:"base_price"`
	Supply      int     `yaml:"supply"`
	Demand      float64 `yaml:"demand"`
	Volatility  float64 `yaml:"volatility"`
	RestockRate int     `yaml:"restock_rate,omitempty"`
	MaxStock    int     `yaml:"max_stock"`
}

type traderDoc struct {
	NPC            string          `yaml:"npc"`
	SellMultiplier float64         `yaml:"sell_multiplier"`
	BuyMultiplier  float64         `yaml:"buy_multiplier"`
	RestockEvery   int             `yaml:"restock_every,omitempty"`
	Items          []traderItemDoc `yaml:"items,omitempty"`
}

type traderItemDoc struct {
	Item   string  `yaml:"item"`
	Price  int     `yaml:"price"`
	Stock  int     `yaml:"stock"`
	Demand float64 `yaml:"demand,omitempty"`
}

type jobDoc struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Detail   string   `yaml:"detail,omitempty"`
	Zone     string   `yaml:"zone,omitempty"`
	Rooms    []string `yaml:"rooms,omitempty"`
	Illegal  bool     `yaml:"illegal,omitempty"`
	HeatMin  int      `yaml:"heat_min,omitempty"`
	HeatMax  int      `yaml:"heat_max,omitempty"`
	Cooldown string   `yaml:"cooldown,omitempty"`
	Deltas   deltaDoc `yaml:"deltas"`
}

type deltaDoc struct {
	Credits int `yaml:"credits,omitempty"`
	Health  int `yaml:"health,omitempty"`
	Hunger  int `yaml:"hunger,omitempty"`
	Heat    int `yaml:"heat,omitempty"`
}

func (d *document) resolve() (*Seed, error) {
	vb := errors.NewValidationBuilder()

	if d.SpawnRoom == "" {
		vb.RequiredField("spawn_room")
	}
	if d.WildFallbackRoom == "" {
		vb.RequiredField("wild_fallback_room")
	}
	if len(d.Rooms) == 0 {
		vb.RequiredField("rooms")
	}

	seed := &Seed{
		SpawnRoomID:        d.SpawnRoom,
		WildFallbackRoomID: d.WildFallbackRoom,
		World:              &worldstate.WorldSpec{},
		Glossary:           d.Glossary,
	}

	cityIDs := make(map[string]bool, len(d.Cities))
	for _, c := range d.Cities {
		if c.ID == "" {
			vb.Fieldf("cities", "city %q is missing an id", c.Name)
			continue
		}
		cityIDs[c.ID] = true
		pol, err := c.Policy.resolve()
		if err != nil {
			vb.Fieldf("cities", "city %q: %v", c.ID, err)
			continue
		}
		seed.World.Cities = append(seed.World.Cities, &entities.City{
			ID: c.ID, Name: c.Name, Policy: pol,
		})
	}

	roomIDs := make(map[string]*roomDoc, len(d.Rooms))
	wildRooms := make(map[string]bool)
	for i := range d.Rooms {
		r := &d.Rooms[i]
		if r.ID == "" {
			vb.Fieldf("rooms", "room %q is missing an id", r.Name)
			continue
		}
		roomIDs[r.ID] = r

		zone, err := resolveZone(r.Zone, r.City)
		if err != nil {
			vb.Fieldf("rooms", "room %q: %v", r.ID, err)
			continue
		}
		if zone == entities.ZoneWild {
			wildRooms[r.ID] = true
		}
		if r.City != "" && !cityIDs[r.City] {
			vb.Fieldf("rooms", "room %q names unknown city %q", r.ID, r.City)
		}
		seed.World.Rooms = append(seed.World.Rooms, &entities.Room{
			ID: r.ID, Name: r.Name, CityID: r.City, Zone: zone,
			Neighbors: r.Neighbors,
		})
	}

	if d.SpawnRoom != "" && roomIDs[d.SpawnRoom] == nil {
		vb.Fieldf("spawn_room", "room %q is not in the seed", d.SpawnRoom)
	}
	if d.WildFallbackRoom != "" && roomIDs[d.WildFallbackRoom] != nil && !wildRooms[d.WildFallbackRoom] {
		vb.Fieldf("wild_fallback_room", "room %q is not a wild room", d.WildFallbackRoom)
	}
	if d.WildFallbackRoom != "" && roomIDs[d.WildFallbackRoom] == nil {
		vb.Fieldf("wild_fallback_room", "room %q is not in the seed", d.WildFallbackRoom)
	}

	factionIDs := make(map[string]bool, len(d.Factions))
	for _, f := range d.Factions {
		if f.ID == "" {
			vb.Fieldf("factions", "faction %q is missing an id", f.Name)
			continue
		}
		factionIDs[f.ID] = true
		seed.Factions = append(seed.Factions, &entities.Faction{
			ID: f.ID, Name: f.Name, Aggression: f.Aggression, Goals: f.Goals,
		})
	}

	for _, g := range d.ZoneInfluence {
		if g.Zone == "" || g.Faction == "" {
			vb.Fieldf("zone_influence", "grants need both a zone and a faction")
			continue
		}
		if !factionIDs[g.Faction] {
			vb.Fieldf("zone_influence", "unknown faction %q", g.Faction)
		}
		if g.Weight < 0 || g.Weight > 100 {
			vb.Fieldf("zone_influence", "weight %v for %s/%s is outside [0,100]", g.Weight, g.Zone, g.Faction)
		}
		seed.Influence = append(seed.Influence, InfluenceGrant{
			ZoneID: g.Zone, FactionID: g.Faction, Weight: g.Weight,
		})
	}

	npcIDs := make(map[string]bool, len(d.NPCs)+len(d.ScheduledNPCs))
	for i := range d.NPCs {
		n := &d.NPCs[i]
		npc, err := n.resolve(roomIDs, factionIDs)
		if err != nil {
			vb.Fieldf("npcs", "%v", err)
			continue
		}
		npcIDs[npc.ID] = true
		seed.NPCs = append(seed.NPCs, npc)
	}

	for i := range d.ScheduledNPCs {
		sd := &d.ScheduledNPCs[i]
		entry, err := sd.resolve(roomIDs, factionIDs)
		if err != nil {
			vb.Fieldf("scheduled_npcs", "%v", err)
			continue
		}
		npcIDs[entry.NPC.ID] = true
		seed.Scheduled = append(seed.Scheduled, entry)
	}

	itemIDs := make(map[string]bool, len(d.MarketItems))
	for _, m := range d.MarketItems {
		if m.ID == "" {
			vb.Fieldf("market_items", "item %q is missing an id", m.Name)
			continue
		}
		itemIDs[m.ID] = true
		seed.MarketItems = append(seed.MarketItems, &entities.MarketItem{
			ID: m.ID, Name: m.Name, Category: m.Category,
			BasePrice: m.BasePrice, CurrentPrice: m.BasePrice,
			Supply: m.Supply, Demand: m.Demand, Volatility: m.Volatility,
			RestockRate: m.RestockRate, MaxStock: m.MaxStock,
		})
	}

	for _, t := range d.Traders {
		if t.NPC == "" {
			vb.RequiredField("traders.npc")
			continue
		}
		if !npcIDs[t.NPC] {
			vb.Fieldf("traders", "trader %q is not a seeded npc", t.NPC)
		}
		trader := &entities.Trader{
			NPCID:          t.NPC,
			SellMultiplier: t.SellMultiplier,
			BuyMultiplier:  t.BuyMultiplier,
			RestockEvery:   t.RestockEvery,
			Items:          make(map[string]*entities.TraderItem, len(t.Items)),
		}
		for _, it := range t.Items {
			if !itemIDs[it.Item] {
				vb.Fieldf("traders", "trader %q stocks unknown item %q", t.NPC, it.Item)
				continue
			}
			trader.Items[it.Item] = &entities.TraderItem{
				Price: it.Price, Stock: it.Stock, Demand: it.Demand,
			}
		}
		seed.Traders = append(seed.Traders, trader)
	}

	jobIDs := make(map[string]bool, len(d.Jobs))
	for _, j := range d.Jobs {
		job, err := j.resolve(roomIDs)
		if err != nil {
			vb.Fieldf("jobs", "%v", err)
			continue
		}
		if jobIDs[job.ID] {
			vb.Fieldf("jobs", "duplicate job id %q", job.ID)
			continue
		}
		jobIDs[job.ID] = true
		seed.Jobs = append(seed.Jobs, job)
	}

	if err := vb.Build(); err != nil {
		return nil, err
	}
	return seed, nil
}

func (p *policyDoc) resolve() (entities.Policy, error) {
	pol := entities.Policy{
		SafetyLevel:    p.SafetyLevel,
		GuardDensity:   entities.GuardDensity(defaulted(p.GuardDensity, string(entities.GuardDensityLow))),
		GuardResponse:  entities.GuardResponse(defaulted(p.GuardResponse, string(entities.GuardResponsePatrol))),
		GuardLethality: entities.GuardLethality(defaulted(p.GuardLethality, string(entities.GuardLethalitySubdue))),
		PvP: entities.PvPPolicy{
			Enabled:  p.PvP.Enabled,
			DropRule: entities.DropRule(defaulted(p.PvP.DropRule, string(entities.DropRuleNone))),
			Penalty:  entities.PvPPenalty(defaulted(p.PvP.Penalty, string(entities.PvPPenaltyNone))),
		},
		Tax: entities.TaxRates{
			Trade: p.Tax.Trade, Withdraw: p.Tax.Withdraw, Storage: p.Tax.Storage,
		},
		WithdrawPoints: p.WithdrawPoints,
		AccessMode:     entities.AccessMode(defaulted(p.Access, string(entities.AccessOpen))),
	}

	if p.SafetyLevel < 0 || p.SafetyLevel > 1 {
		return pol, fmt.Errorf("safety_level %v is outside [0,1]", p.SafetyLevel)
	}
	switch pol.GuardDensity {
	case entities.GuardDensityLow, entities.GuardDensityMed, entities.GuardDensityHigh:
	default:
		return pol, fmt.Errorf("unknown guard_density %q", pol.GuardDensity)
	}
	switch pol.GuardResponse {
	case entities.GuardResponsePassive, entities.GuardResponsePatrol, entities.GuardResponseAggressive:
	default:
		return pol, fmt.Errorf("unknown guard_response %q", pol.GuardResponse)
	}
	switch pol.GuardLethality {
	case entities.GuardLethalitySubdue, entities.GuardLethalityLethal:
	default:
		return pol, fmt.Errorf("unknown guard_lethality %q", pol.GuardLethality)
	}
	switch pol.PvP.DropRule {
	case entities.DropRuleNone, entities.DropRulePartial, entities.DropRuleFull:
	default:
		return pol, fmt.Errorf("unknown drop_rule %q", pol.PvP.DropRule)
	}
	switch pol.PvP.Penalty {
	case entities.PvPPenaltyNone, entities.PvPPenaltyFine, entities.PvPPenaltyBounty:
	default:
		return pol, fmt.Errorf("unknown pvp penalty %q", pol.PvP.Penalty)
	}
	switch pol.AccessMode {
	case entities.AccessOpen, entities.AccessCitizens, entities.AccessClosed:
	default:
		return pol, fmt.Errorf("unknown access mode %q", pol.AccessMode)
	}
	return pol, nil
}

func (n *npcDoc) resolve(rooms map[string]*roomDoc, factions map[string]bool) (*entities.NPC, error) {
	if n.ID == "" {
		return nil, fmt.Errorf("npc %q is missing an id", n.Name)
	}
	if n.Location != "" && rooms[n.Location] == nil {
		return nil, fmt.Errorf("npc %q location %q is not in the seed", n.ID, n.Location)
	}
	if n.Faction != "" && !factions[n.Faction] {
		return nil, fmt.Errorf("npc %q names unknown faction %q", n.ID, n.Faction)
	}
	npc := &entities.NPC{
		ID: n.ID, Name: n.Name, Role: n.Role,
		Location: n.Location, FactionID: n.Faction,
		Dialogues: n.Dialogues, Stock: n.Stock,
	}
	for _, q := range n.Quests {
		npc.Quests = append(npc.Quests, entities.Quest{
			ID: q.ID, Title: q.Title, Detail: q.Detail, Reward: q.Reward,
		})
	}
	return npc, nil
}

func (sd *scheduledDoc) resolve(rooms map[string]*roomDoc, factions map[string]bool) (*schedule.Entry, error) {
	npc, err := sd.NPC.resolve(rooms, factions)
	if err != nil {
		return nil, err
	}
	entry := &schedule.Entry{NPC: *npc, CooldownCycles: sd.CooldownCycles}
	for _, r := range sd.Routine {
		if rooms[r.Room] == nil {
			return nil, fmt.Errorf("npc %q routine room %q is not in the seed", npc.ID, r.Room)
		}
		if err := checkHours(r.StartHour, r.EndHour); err != nil {
			return nil, fmt.Errorf("npc %q routine: %v", npc.ID, err)
		}
		entry.Routine = append(entry.Routine, schedule.RoutineStop{
			StartHour: r.StartHour, EndHour: r.EndHour, RoomID: r.Room,
		})
	}
	entry.SpawnConditions, err = resolveConditions(npc.ID, sd.SpawnConditions, rooms)
	if err != nil {
		return nil, err
	}
	entry.DespawnConditions, err = resolveConditions(npc.ID, sd.DespawnConditions, rooms)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func resolveConditions(npcID string, docs []conditionDoc, rooms map[string]*roomDoc) ([]schedule.Condition, error) {
	out := make([]schedule.Condition, 0, len(docs))
	for _, c := range docs {
		ct := schedule.ConditionType(c.Type)
		switch ct {
		case schedule.ConditionTimeWindow:
			if err := checkHours(c.StartHour, c.EndHour); err != nil {
				return nil, fmt.Errorf("npc %q condition: %v", npcID, err)
			}
		case schedule.ConditionPlayersPresent, schedule.ConditionPlayersAbsent, schedule.ConditionRoomBelowCapacity:
			if rooms[c.Room] == nil {
				return nil, fmt.Errorf("npc %q condition room %q is not in the seed", npcID, c.Room)
			}
		case schedule.ConditionEventKeyword:
			if c.Keyword == "" {
				return nil, fmt.Errorf("npc %q event_keyword condition needs a keyword", npcID)
			}
		default:
			return nil, fmt.Errorf("npc %q has unknown condition type %q", npcID, c.Type)
		}
		out = append(out, schedule.Condition{
			Type: ct, StartHour: c.StartHour, EndHour: c.EndHour,
			RoomID: c.Room, Keyword: c.Keyword, MaxOccupants: c.MaxOccupants,
		})
	}
	return out, nil
}

func (j *jobDoc) resolve(rooms map[string]*roomDoc) (*entities.Job, error) {
	if j.ID == "" {
		return nil, fmt.Errorf("job %q is missing an id", j.Name)
	}
	zone := entities.Zone(j.Zone)
	switch zone {
	case "", entities.ZoneCity, entities.ZoneWild:
	default:
		return nil, fmt.Errorf("job %q has unknown zone %q", j.ID, j.Zone)
	}
	for _, r := range j.Rooms {
		if rooms[r] == nil {
			return nil, fmt.Errorf("job %q room %q is not in the seed", j.ID, r)
		}
	}
	heatMax := j.HeatMax
	if heatMax == 0 {
		heatMax = 100
	}
	if j.HeatMin < 0 || heatMax > 100 || j.HeatMin > heatMax {
		return nil, fmt.Errorf("job %q heat band [%d,%d] is not sane", j.ID, j.HeatMin, heatMax)
	}
	var cooldown time.Duration
	if j.Cooldown != "" {
		var err error
		cooldown, err = time.ParseDuration(j.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("job %q cooldown: %v", j.ID, err)
		}
	}
	return &entities.Job{
		ID: j.ID, Name: j.Name, Detail: j.Detail,
		Zone: zone, RoomIDs: j.Rooms, Illegal: j.Illegal,
		HeatMin: j.HeatMin, HeatMax: heatMax, Cooldown: cooldown,
		Deltas: entities.JobDeltas{
			Credits: j.Deltas.Credits, Health: j.Deltas.Health,
			Hunger: j.Deltas.Hunger, Heat: j.Deltas.Heat,
		},
	}, nil
}

func resolveZone(zone, city string) (entities.Zone, error) {
	switch entities.Zone(zone) {
	case entities.ZoneCity, entities.ZoneWild:
		return entities.Zone(zone), nil
	case "":
		// Rooms inside a city default to the city zone.
		if city != "" {
			return entities.ZoneCity, nil
		}
		return entities.ZoneWild, nil
	default:
		return "", fmt.Errorf("unknown zone %q", zone)
	}
}

func checkHours(start, end int) error {
	if start < 0 || start > 24 || end < 0 || end > 24 {
		return fmt.Errorf("hours [%d,%d) are outside [0,24]", start, end)
	}
	return nil
}

func defaulted(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
