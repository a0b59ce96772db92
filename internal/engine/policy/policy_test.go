package policy_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type PolicyEngineTestSuite struct {
	suite.Suite
	engine *policy.Engine
	store  *worldstate.Store
}

func (s *PolicyEngineTestSuite) SetupTest() {
	s.engine = policy.New()

	store, err := worldstate.New(&worldstate.Config{
		Clock:              clock.New(),
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		s.Require().NoError(w.RegisterFaction(&entities.Faction{
			ID: "wardens", Name: "The Wardens", Aggression: 30,
			Goals: []string{entities.GoalRaiseSafety, entities.GoalRaiseGuardDensity},
		}))
		s.Require().NoError(w.RegisterFaction(&entities.Faction{
			ID: "syndicate", Name: "The Syndicate", Aggression: 80,
			Goals: []string{entities.GoalLowerTradeTax, entities.GoalMorePvPZones},
		}))
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) baseCity() *entities.City {
	return &entities.City{
		ID:   "haven",
		Name: "Haven",
		Policy: entities.Policy{
			SafetyLevel:  0.5,
			GuardDensity: entities.GuardDensityLow,
			Tax:          entities.TaxRates{Trade: 0.05},
		},
	}
}

func (s *PolicyEngineTestSuite) TestEffectivePolicyFoldsGoals() {
	city := s.baseCity()
	factions := []*entities.Faction{
		{ID: "wardens", PolicyWeight: 0.5, Goals: []string{entities.GoalRaiseSafety, entities.GoalRaiseGuardDensity}},
		{ID: "syndicate", PolicyWeight: 1.0, Goals: []string{entities.GoalLowerTradeTax, entities.GoalMorePvPZones}},
	}

	eff := s.engine.EffectivePolicy(city, factions)

	s.InDelta(0.55, eff.SafetyLevel, 1e-9, "0.5 + 0.10*0.5")
	s.Equal(entities.GuardDensityMed, eff.GuardDensity)
	s.InDelta(0.03, eff.Tax.Trade, 1e-9, "0.05 - 0.02*1.0")
	s.True(eff.PvP.Enabled)
	s.Equal(entities.PvPPenaltyFine, eff.PvP.Penalty)

	// The base policy stays untouched; the fold is derived.
	s.InDelta(0.5, city.Policy.SafetyLevel, 1e-9)
	s.Equal(entities.GuardDensityLow, city.Policy.GuardDensity)
	s.False(city.Policy.PvP.Enabled)
}

func (s *PolicyEngineTestSuite) TestEffectivePolicyOrderMatters() {
	city := s.baseCity()
	city.Policy.GuardDensity = entities.GuardDensityMed

	stepper := func(id string) *entities.Faction {
		return &entities.Faction{ID: id, PolicyWeight: 0.3, Goals: []string{entities.GoalRaiseGuardDensity}}
	}

	// Two density steps from med saturate at high.
	eff := s.engine.EffectivePolicy(city, []*entities.Faction{stepper("a"), stepper("b")})
	s.Equal(entities.GuardDensityHigh, eff.GuardDensity)

	eff = s.engine.EffectivePolicy(city, []*entities.Faction{stepper("a"), stepper("b"), stepper("c")})
	s.Equal(entities.GuardDensityHigh, eff.GuardDensity, "steps saturate at high")
}

func (s *PolicyEngineTestSuite) TestEffectivePolicyClampsTaxAndSafety() {
	city := s.baseCity()
	city.Policy.SafetyLevel = 0.95
	city.Policy.Tax.Trade = 0.01

	factions := []*entities.Faction{
		{ID: "a", PolicyWeight: 1.0, Goals: []string{entities.GoalRaiseSafety, entities.GoalLowerTradeTax}},
	}

	eff := s.engine.EffectivePolicy(city, factions)
	s.InDelta(1.0, eff.SafetyLevel, 1e-9, "safety caps at 1")
	s.InDelta(0.0, eff.Tax.Trade, 1e-9, "trade tax floors at 0")
}

func (s *PolicyEngineTestSuite) TestEffectivePolicyIgnoresWeightlessFactions() {
	city := s.baseCity()
	factions := []*entities.Faction{
		{ID: "a", PolicyWeight: 0, Goals: []string{entities.GoalRaiseGuardDensity, entities.GoalMorePvPZones}},
	}

	eff := s.engine.EffectivePolicy(city, factions)
	s.Equal(entities.GuardDensityLow, eff.GuardDensity)
	s.False(eff.PvP.Enabled)
}

func (s *PolicyEngineTestSuite) TestEffectivePolicyCityWeightOverride() {
	city := s.baseCity()
	city.Policy.FactionWeights = map[string]float64{"a": 0}

	factions := []*entities.Faction{
		{ID: "a", PolicyWeight: 1.0, Goals: []string{entities.GoalRaiseGuardDensity}},
	}

	eff := s.engine.EffectivePolicy(city, factions)
	s.Equal(entities.GuardDensityLow, eff.GuardDensity, "city override silences the faction")
}

func (s *PolicyEngineTestSuite) TestCloseInfluenceBlocksControl() {
	err := s.store.Update(func(w *worldstate.World) error {
		up, err := s.engine.UpdateZoneInfluence(w, "haven", "wardens", 65)
		s.Require().NoError(err)
		s.False(up.Zone.Contested, "single faction cannot contest")
		s.Equal("wardens", up.Zone.ControllingFactionID)

		up, err = s.engine.UpdateZoneInfluence(w, "haven", "syndicate", 50)
		s.Require().NoError(err)

		// Gap of 15 contests the zone even though the leader clears 60.
		s.True(up.Zone.Contested)
		s.Empty(up.Zone.ControllingFactionID)
		s.Nil(up.Conflict, "a gap of 15 contests without open conflict")
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestClearLeadControls() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.UpdateZoneInfluence(w, "haven", "wardens", 65)
		s.Require().NoError(err)

		up, err := s.engine.UpdateZoneInfluence(w, "haven", "syndicate", 40)
		s.Require().NoError(err)

		s.False(up.Zone.Contested, "gap of 25 is a clear lead")
		s.Equal("wardens", up.Zone.ControllingFactionID)
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestConflictDecaysBothSides() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.UpdateZoneInfluence(w, "haven", "wardens", 65)
		s.Require().NoError(err)

		up, err := s.engine.UpdateZoneInfluence(w, "haven", "syndicate", 60)
		s.Require().NoError(err)

		s.True(up.Zone.Contested)
		s.Empty(up.Zone.ControllingFactionID)

		s.Require().NotNil(up.Conflict, "gap of 5 is open conflict")
		s.Equal("wardens", up.Conflict.FactionA)
		s.Equal("syndicate", up.Conflict.FactionB)
		s.InDelta(0.55, up.Conflict.Intensity, 1e-9, "mean of aggression 30 and 80, over 100")

		// Both sides decay by 5 in the same pass; contested is not
		// recomputed from the decayed values.
		s.InDelta(60, up.Zone.Influence["wardens"], 1e-9)
		s.InDelta(55, up.Zone.Influence["syndicate"], 1e-9)
		s.True(up.Zone.Contested)

		s.Require().Len(w.Conflicts(), 1)
		s.Equal("haven", w.Conflicts()[0].ZoneID)
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestInfluenceClampsToBounds() {
	err := s.store.Update(func(w *worldstate.World) error {
		up, err := s.engine.UpdateZoneInfluence(w, "haven", "wardens", 250)
		s.Require().NoError(err)
		s.InDelta(100, up.Zone.Influence["wardens"], 1e-9)

		up, err = s.engine.UpdateZoneInfluence(w, "haven", "wardens", -500)
		s.Require().NoError(err)
		s.InDelta(0, up.Zone.Influence["wardens"], 1e-9)
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestFirstInfluenceSeatsFactionAtPolicyTable() {
	err := s.store.Update(func(w *worldstate.World) error {
		f, ok := w.Faction("wardens")
		s.Require().True(ok)
		s.Zero(f.PolicyWeight)

		_, err := s.engine.UpdateZoneInfluence(w, "haven", "wardens", 10)
		s.Require().NoError(err)

		s.InDelta(0.3, f.PolicyWeight, 1e-9)

		// A later shift must not reset an adjusted weight.
		f.PolicyWeight = 0.8
		_, err = s.engine.UpdateZoneInfluence(w, "haven", "wardens", 10)
		s.Require().NoError(err)
		s.InDelta(0.8, f.PolicyWeight, 1e-9)
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestUpdateZoneInfluenceUnknownFaction() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.UpdateZoneInfluence(w, "haven", "outlanders", 10)
		s.Require().Error(err)
		s.True(errors.IsNotFound(err))
		return nil
	})
	s.Require().NoError(err)
}

func (s *PolicyEngineTestSuite) TestReputationDelta() {
	tests := []struct {
		name       string
		base       int
		action     string
		aggression int
		want       int
	}{
		{name: "trade halves the base", base: 10, action: policy.ActionTrade, aggression: 0, want: 5},
		{name: "trade with aggressive faction", base: 10, action: policy.ActionTrade, aggression: 50, want: 8},
		{name: "attack doubles the base", base: -10, action: policy.ActionAttack, aggression: 30, want: -26},
		{name: "quest", base: 10, action: policy.ActionQuest, aggression: 20, want: 18},
		{name: "theft inverts the sign", base: 10, action: policy.ActionTheft, aggression: 0, want: -15},
		{name: "bribe", base: 10, action: policy.ActionBribe, aggression: 100, want: 16},
		{name: "unknown action passes through", base: 10, action: "loiter", aggression: 50, want: 15},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.Equal(tc.want, s.engine.ReputationDelta(tc.base, tc.action, tc.aggression))
		})
	}
}

func (s *PolicyEngineTestSuite) TestApplyReputationClampsStanding() {
	p := &entities.Player{ID: "player_1", Reputation: map[string]int{"wardens": 95}}
	f := &entities.Faction{ID: "wardens", Aggression: 0}

	delta := s.engine.ApplyReputation(p, f, policy.ActionQuest, 10)
	s.Equal(15, delta)
	s.Equal(100, p.Reputation["wardens"], "standing clamps at 100")

	f2 := &entities.Faction{ID: "syndicate", Aggression: 100}
	delta = s.engine.ApplyReputation(p, f2, policy.ActionTheft, 40)
	s.Equal(-120, delta)
	s.Equal(-100, p.Reputation["syndicate"], "standing clamps at -100")
}

func TestPolicyEngineSuite(t *testing.T) {
	suite.Run(t, new(PolicyEngineTestSuite))
}
