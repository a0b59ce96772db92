package entities

import "time"

// Faction goal phrases recognized by policy folding. Unknown goals are
// carried but have no policy effect.
const (
	GoalLowerTradeTax     = "lower trade tax"
	GoalRaiseSafety       = "raise safety"
	GoalRaiseGuardDensity = "raise guard density"
	GoalMorePvPZones      = "more pvp zones"
)

// Faction is an organized power bloc competing for zone control.
type Faction struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Influence  float64  `json:"influence"`
	Aggression int      `json:"aggression"`
	Goals      []string `json:"goals,omitempty"`
	// PolicyWeight scales the faction's pull on city policy. Zero until
	// the faction gains its first zone influence, then starts at 0.3.
	PolicyWeight float64 `json:"policy_weight"`
}

// Clone returns a deep copy of the faction.
func (f *Faction) Clone() *Faction {
	if f == nil {
		return nil
	}
	out := *f
	if f.Goals != nil {
		out.Goals = append([]string(nil), f.Goals...)
	}
	return &out
}

// ZoneControl tracks which faction, if any, controls a zone.
type ZoneControl struct {
	ZoneID string `json:"zone_id"`
	// ControllingFactionID is empty while no faction qualifies.
	ControllingFactionID string             `json:"controlling_faction_id,omitempty"`
	Contested            bool               `json:"contested"`
	Influence            map[string]float64 `json:"influence,omitempty"`
}

// Clone returns a deep copy of the zone control record.
func (z *ZoneControl) Clone() *ZoneControl {
	if z == nil {
		return nil
	}
	out := *z
	if z.Influence != nil {
		out.Influence = make(map[string]float64, len(z.Influence))
		for k, v := range z.Influence {
			out.Influence[k] = v
		}
	}
	return &out
}

// Conflict records a flare-up between the two leading factions in a
// contested zone.
type Conflict struct {
	ID        string    `json:"id"`
	ZoneID    string    `json:"zone_id"`
	FactionA  string    `json:"faction_a"`
	FactionB  string    `json:"faction_b"`
	Intensity float64   `json:"intensity"`
	Timestamp time.Time `json:"timestamp"`
}
