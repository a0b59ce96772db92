// Package policy derives effective city policy from faction goals and
// tracks per-zone faction control and conflict.
package policy

import (
	"math"
	"sort"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// Influence and fold constants.
const (
	// Weight a faction's goals carry on first gaining influence.
	initialPolicyWeight = 0.3

	tradeTaxCutPerWeight = 0.02
	safetyRaisePerWeight = 0.10

	// A zone is controlled at or above this influence, contested when the
	// top two factions are closer than contestedGap, and in open conflict
	// when closer than conflictGap.
	controlThreshold = 60.0
	contestedGap     = 20.0
	conflictGap      = 15.0

	conflictInfluenceDecay = 5.0
)

// Action types that shift faction reputation.
const (
	ActionTrade  = "trade"
	ActionAttack = "attack"
	ActionQuest  = "quest"
	ActionTheft  = "theft"
	ActionBribe  = "bribe"
)

// Engine folds faction influence into policy and control decisions. It is
// stateless; callers invoke it inside a store update so reads and writes
// stay consistent.
type Engine struct{}

// New creates a policy engine
func New() *Engine {
	return &Engine{}
}

// EffectivePolicy returns a copy of the city's base policy with every
// faction's goals folded in, in faction registration order. The base policy
// is never mutated; the fold is derived on each call.
//
// A city may override a faction's weight through its policy's
// FactionWeights; otherwise the faction's own policy weight applies. A
// weight of zero silences the faction entirely.
func (e *Engine) EffectivePolicy(city *entities.City, factions []*entities.Faction) entities.Policy {
	eff := *city.Policy.Clone()

	for _, f := range factions {
		weight := f.PolicyWeight
		if override, ok := city.Policy.FactionWeights[f.ID]; ok {
			weight = override
		}
		if weight <= 0 {
			continue
		}

		for _, goal := range f.Goals {
			switch goal {
			case entities.GoalLowerTradeTax:
				eff.Tax.Trade -= tradeTaxCutPerWeight * weight
				if eff.Tax.Trade < 0 {
					eff.Tax.Trade = 0
				}
			case entities.GoalRaiseSafety:
				eff.SafetyLevel += safetyRaisePerWeight * weight
				if eff.SafetyLevel > 1 {
					eff.SafetyLevel = 1
				}
			case entities.GoalRaiseGuardDensity:
				eff.GuardDensity = eff.GuardDensity.Step()
			case entities.GoalMorePvPZones:
				eff.PvP.Enabled = true
				eff.PvP.Penalty = entities.PvPPenaltyFine
			}
		}
	}

	return eff
}

// ZoneUpdate reports the outcome of an influence shift.
type ZoneUpdate struct {
	// Zone is the recomputed control record (live store data).
	Zone *entities.ZoneControl

	// Conflict is set when the shift triggered a flare-up between the top
	// two factions.
	Conflict *entities.Conflict
}

// UpdateZoneInfluence applies an influence delta for a faction in a zone
// and recomputes control in one pass:
//
//	clamp influence to [0,100]
//	rank factions by influence (ties broken by id)
//	contested  = at least two factions and a top-two gap under 20
//	controller = top faction iff influence >= 60 and not contested
//	conflict   = appended iff contested and the gap is under 15; both
//	             sides then lose 5 influence, without re-ranking
//
// The decay may flip control on the next recomputation; this call never
// iterates to a fixpoint.
func (e *Engine) UpdateZoneInfluence(w *worldstate.World, zoneID, factionID string, delta float64) (*ZoneUpdate, error) {
	if zoneID == "" {
		return nil, errors.InvalidArgument("zone id is required")
	}
	f, ok := w.Faction(factionID)
	if !ok {
		return nil, errors.NotFoundf("faction %q not found", factionID)
	}

	// First influence anywhere gives the faction a seat at the policy
	// table.
	if f.PolicyWeight == 0 {
		f.PolicyWeight = initialPolicyWeight
	}

	z := w.Zone(zoneID)
	z.Influence[factionID] = clampInfluence(z.Influence[factionID] + delta)

	standings := rankInfluence(z.Influence)

	z.Contested = false
	z.ControllingFactionID = ""

	var conflict *entities.Conflict
	if len(standings) >= 2 {
		gap := standings[0].influence - standings[1].influence
		z.Contested = gap < contestedGap

		if z.Contested && gap < conflictGap {
			rec := w.AppendConflict(entities.Conflict{
				ZoneID:    zoneID,
				FactionA:  standings[0].id,
				FactionB:  standings[1].id,
				Intensity: e.conflictIntensity(w, standings[0].id, standings[1].id),
			})
			conflict = &rec

			z.Influence[standings[0].id] = clampInfluence(z.Influence[standings[0].id] - conflictInfluenceDecay)
			z.Influence[standings[1].id] = clampInfluence(z.Influence[standings[1].id] - conflictInfluenceDecay)
		}
	}
	if !z.Contested && len(standings) > 0 && standings[0].influence >= controlThreshold {
		z.ControllingFactionID = standings[0].id
	}

	return &ZoneUpdate{Zone: z, Conflict: conflict}, nil
}

// ReputationDelta scales a base reputation change by the action type and
// the faction's aggression: round(base * multiplier * (1 + aggression/100)).
func (e *Engine) ReputationDelta(base int, action string, aggression int) int {
	mult := 1.0
	switch action {
	case ActionTrade:
		mult = 0.5
	case ActionAttack:
		mult = 2.0
	case ActionQuest:
		mult = 1.5
	case ActionTheft:
		mult = -1.5
	case ActionBribe:
		mult = 0.8
	}
	return int(math.Round(float64(base) * mult * (1 + float64(aggression)/100)))
}

// ApplyReputation computes the scaled delta for the action and applies it
// to the player's standing with the faction, returning the delta.
func (e *Engine) ApplyReputation(p *entities.Player, f *entities.Faction, action string, base int) int {
	delta := e.ReputationDelta(base, action, f.Aggression)
	p.AdjustReputation(f.ID, delta)
	return delta
}

func (e *Engine) conflictIntensity(w *worldstate.World, factionA, factionB string) float64 {
	var a, b int
	if f, ok := w.Faction(factionA); ok {
		a = f.Aggression
	}
	if f, ok := w.Faction(factionB); ok {
		b = f.Aggression
	}
	return (float64(a) + float64(b)) / 2 / 100
}

type standing struct {
	id        string
	influence float64
}

func rankInfluence(m map[string]float64) []standing {
	out := make([]standing, 0, len(m))
	for id, v := range m {
		out = append(out, standing{id: id, influence: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].influence != out[j].influence {
			return out[i].influence > out[j].influence
		}
		return out[i].id < out[j].id
	})
	return out
}

func clampInfluence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
