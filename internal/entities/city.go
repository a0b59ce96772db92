package entities

// GuardDensity is the coarse patrol coverage level inside a city.
type GuardDensity string

// Guard density levels
const (
	GuardDensityLow  GuardDensity = "low"
	GuardDensityMed  GuardDensity = "med"
	GuardDensityHigh GuardDensity = "high"
)

// Step returns the next density level up, capped at high.
func (d GuardDensity) Step() GuardDensity {
	switch d {
	case GuardDensityLow:
		return GuardDensityMed
	case GuardDensityMed:
		return GuardDensityHigh
	default:
		return GuardDensityHigh
	}
}

// GuardResponse describes how guards react to trouble.
type GuardResponse string

// Guard response modes
const (
	GuardResponsePassive    GuardResponse = "passive"
	GuardResponsePatrol     GuardResponse = "patrol"
	GuardResponseAggressive GuardResponse = "aggressive"
)

// GuardLethality describes how far guards escalate.
type GuardLethality string

// Guard lethality modes
const (
	GuardLethalitySubdue GuardLethality = "subdue"
	GuardLethalityLethal GuardLethality = "lethal"
)

// DropRule controls how much inventory a defeated player loses.
type DropRule string

// Drop rules
const (
	DropRuleNone    DropRule = "none"
	DropRulePartial DropRule = "partial"
	DropRuleFull    DropRule = "full"
)

// PvPPenalty is the sanction a city applies to a player-versus-player kill.
type PvPPenalty string

// PvP penalties
const (
	PvPPenaltyNone   PvPPenalty = "none"
	PvPPenaltyFine   PvPPenalty = "fine"
	PvPPenaltyBounty PvPPenalty = "bounty"
)

// AccessMode controls who may enter a city.
type AccessMode string

// Access modes
const (
	AccessOpen     AccessMode = "open"
	AccessCitizens AccessMode = "citizens"
	AccessClosed   AccessMode = "closed"
)

// PvPPolicy bundles a city's player-versus-player rules.
type PvPPolicy struct {
	Enabled  bool       `json:"enabled"`
	DropRule DropRule   `json:"drop_rule"`
	Penalty  PvPPenalty `json:"penalty"`
}

// TaxRates holds a city's fee rates, each a fraction of the taxed amount.
type TaxRates struct {
	Trade    float64 `json:"trade"`
	Withdraw float64 `json:"withdraw"`
	Storage  float64 `json:"storage"`
}

// Policy is the rule set a city runs under. The stored value is the base
// policy; faction influence is folded in on read and never persisted.
type Policy struct {
	SafetyLevel    float64            `json:"safety_level"`
	GuardDensity   GuardDensity       `json:"guard_density"`
	GuardResponse  GuardResponse      `json:"guard_response"`
	GuardLethality GuardLethality     `json:"guard_lethality"`
	PvP            PvPPolicy          `json:"pvp"`
	Tax            TaxRates           `json:"tax"`
	WithdrawPoints []string           `json:"withdraw_points,omitempty"`
	AccessMode     AccessMode         `json:"access_mode"`
	FactionWeights map[string]float64 `json:"faction_weights,omitempty"`
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	out := *p
	if p.WithdrawPoints != nil {
		out.WithdrawPoints = append([]string(nil), p.WithdrawPoints...)
	}
	if p.FactionWeights != nil {
		out.FactionWeights = make(map[string]float64, len(p.FactionWeights))
		for k, v := range p.FactionWeights {
			out.FactionWeights[k] = v
		}
	}
	return &out
}

// IsWithdrawPoint reports whether the room id is a designated withdraw point.
func (p *Policy) IsWithdrawPoint(roomID string) bool {
	for _, id := range p.WithdrawPoints {
		if id == roomID {
			return true
		}
	}
	return false
}

// City is a governed settlement owning a set of city-zone rooms.
type City struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Policy Policy `json:"policy"`
}

// Clone returns a deep copy of the city.
func (c *City) Clone() *City {
	if c == nil {
		return nil
	}
	out := *c
	out.Policy = *c.Policy.Clone()
	return &out
}
