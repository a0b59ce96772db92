package action_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/orchestrators/action"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// stepClock is a manually advanced clock.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// stubRoller hands out queued rolls, so damage is scripted per test.
type stubRoller struct {
	rolls []int
}

func (r *stubRoller) Roll(_ int) (int, error) {
	out, err := r.RollN(1, 0)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func (r *stubRoller) RollN(n, _ int) ([]int, error) {
	if len(r.rolls) < n {
		return nil, errors.Internal("stub roller ran out of rolls")
	}
	out := r.rolls[:n]
	r.rolls = r.rolls[n:]
	return out, nil
}

// failingPlanner breaks only the planning path; everything else is
// inherited from the embedded client.
type failingPlanner struct {
	oracle.Client
}

func (f *failingPlanner) ProposePlan(_ context.Context, _ *oracle.ProposePlanInput) (*oracle.ProposePlanOutput, error) {
	return nil, errors.Unavailable("planner offline")
}

func jobCatalogue() []*entities.Job {
	return []*entities.Job{
		{
			ID:       "courier_run",
			Name:     "Courier Run",
			Zone:     entities.ZoneCity,
			HeatMax:  100,
			Cooldown: 10 * time.Minute,
			Deltas:   entities.JobDeltas{Credits: 25, Hunger: -5},
		},
		{
			ID:       "salvage_sweep",
			Name:     "Salvage Sweep",
			RoomIDs:  []string{"the_drifts"},
			HeatMax:  60,
			Cooldown: 5 * time.Minute,
			Deltas:   entities.JobDeltas{Credits: 15, Health: -5, Heat: 2},
		},
	}
}

// fixtureSpec lays out a small world: Haven (pvp off, taxed, open gates),
// Gallows Rest (pvp on, untaxed, citizens only), and wild rooms between.
func fixtureSpec() *worldstate.WorldSpec {
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
					PvP: entities.PvPPolicy{
						Enabled:  false,
						DropRule: entities.DropRulePartial,
						Penalty:  entities.PvPPenaltyBounty,
					},
					Tax:            entities.TaxRates{Trade: 0.05, Withdraw: 0.02},
					WithdrawPoints: []string{"haven_square"},
					AccessMode:     entities.AccessOpen,
				},
			},
			{
				ID:   "gallows",
				Name: "Gallows Rest",
				Policy: entities.Policy{
					SafetyLevel:    0.2,
					GuardDensity:   entities.GuardDensityLow,
					GuardResponse:  entities.GuardResponsePassive,
					GuardLethality: entities.GuardLethalitySubdue,
					PvP: entities.PvPPolicy{
						Enabled:  true,
						DropRule: entities.DropRulePartial,
						Penalty:  entities.PvPPenaltyBounty,
					},
					WithdrawPoints: []string{"gallows_yard"},
					AccessMode:     entities.AccessCitizens,
				},
			},
		},
		Rooms: []*entities.Room{
			{ID: "haven_square", Name: "Haven Square", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_market", "haven_gate"}},
			{ID: "haven_market", Name: "Haven Market", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square"}},
			{ID: "haven_gate", Name: "Haven Gate", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square", "the_drifts"}},
			{ID: "the_drifts", Name: "The Drifts", Zone: entities.ZoneWild, Neighbors: []string{"haven_gate", "gallows_yard", "far_flats"}},
			{ID: "far_flats", Name: "Far Flats", Zone: entities.ZoneWild, Neighbors: []string{"the_drifts"}},
			{ID: "gallows_yard", Name: "Gallows Yard", CityID: "gallows", Zone: entities.ZoneCity, Neighbors: []string{"the_drifts"}},
		},
	}
}

type ActionOrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *stepClock
	roller   *stubRoller
	store    *worldstate.Store
	policies *policy.Engine
	economy  *economy.Engine
	jobs     *jobs.Engine
	oracle   *oracle.Scripted
	service  action.Service
}

func (s *ActionOrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &stepClock{now: testNow}
	s.roller = &stubRoller{rolls: []int{3, 4}}

	store, err := worldstate.New(&worldstate.Config{
		Clock:              s.clock,
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		if err := w.ApplyWorld(fixtureSpec()); err != nil {
			return err
		}

		for _, f := range []*entities.Faction{
			{ID: "wardens", Name: "The Wardens", Aggression: 50},
			{ID: "syndicate", Name: "Rust Syndicate", Aggression: 80},
		} {
			if err := w.RegisterFaction(f); err != nil {
				return err
			}
		}
		z := w.Zone("gallows")
		z.Influence["wardens"] = 70
		z.ControllingFactionID = "wardens"

		for _, npc := range []*entities.NPC{
			{ID: "vex", Name: "Vex", Role: entities.RoleMerchant, Location: "haven_market", FactionID: "syndicate",
				Dialogues: map[string]string{"default": "Everything has a price.", "scrap": "Scrap moves fast this week."}},
			{ID: "brick", Name: "Brick", Role: entities.RoleGuard, Location: "haven_square", FactionID: "wardens"},
			{ID: "moth", Name: "Moth", Role: entities.RoleDrifter, Location: "the_drifts",
				Dialogues: map[string]string{"default": "The drifts give and the drifts take."},
				Quests:    []entities.Quest{{ID: "find_the_cache", Title: "Find the cache", Reward: 40}}},
		} {
			if err := w.UpsertNPC(npc); err != nil {
				return err
			}
		}

		if err := w.AddMarketItem(&entities.MarketItem{
			ID: "scrap", Name: "Scrap", BasePrice: 10, CurrentPrice: 10,
			Supply: 100, Demand: 1, Volatility: 0.2, RestockRate: 5, MaxStock: 200,
		}); err != nil {
			return err
		}
		return w.AddTrader(&entities.Trader{
			NPCID:          "vex",
			SellMultiplier: 1.2,
			BuyMultiplier:  0.8,
			RestockEvery:   5,
			Items:          map[string]*entities.TraderItem{"scrap": {Price: 12, Stock: 10, Demand: 1}},
		})
	})
	s.Require().NoError(err)

	s.policies = policy.New()
	s.economy = economy.New()

	jobsEngine, err := jobs.New(&jobs.Config{Clock: s.clock, Catalogue: jobCatalogue()})
	s.Require().NoError(err)
	s.jobs = jobsEngine

	scripted, err := oracle.NewScripted(&oracle.ScriptedConfig{IDGenerator: idgen.NewSequential("gen")})
	s.Require().NoError(err)
	s.oracle = scripted

	svc, err := action.NewOrchestrator(&action.Config{
		Store:    s.store,
		Policies: s.policies,
		Economy:  s.economy,
		Jobs:     s.jobs,
		Oracle:   s.oracle,
		Roller:   s.roller,
	})
	s.Require().NoError(err)
	s.service = svc
}

// resolve runs one plan and requires the transport layer not to error.
func (s *ActionOrchestratorTestSuite) resolve(playerID string, plan *oracle.Plan) *action.Result {
	out, err := s.service.Resolve(s.ctx, &action.ResolveInput{PlayerID: playerID, Plan: plan})
	s.Require().NoError(err)
	s.Require().NotNil(out.Result)
	return out.Result
}

func (s *ActionOrchestratorTestSuite) player(id string) *entities.Player {
	p, err := s.store.PlayerSnapshot(id)
	s.Require().NoError(err)
	return p
}

func (s *ActionOrchestratorTestSuite) ensurePlayer(id string) {
	_, err := s.store.EnsurePlayer(id)
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) setPlayer(id string, mutate func(p *entities.Player)) {
	err := s.store.Update(func(w *worldstate.World) error {
		mutate(w.EnsurePlayer(id))
		return nil
	})
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) npc(id string) (*entities.NPC, bool) {
	var out *entities.NPC
	var found bool
	err := s.store.View(func(w *worldstate.World) error {
		if n, ok := w.NPC(id); ok {
			out = n.Clone()
			found = true
		}
		return nil
	})
	s.Require().NoError(err)
	return out, found
}

func (s *ActionOrchestratorTestSuite) TestNewOrchestratorRejectsBadConfig() {
	_, err := action.NewOrchestrator(nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = action.NewOrchestrator(&action.Config{
		Policies: s.policies,
		Economy:  s.economy,
		Jobs:     s.jobs,
		Oracle:   s.oracle,
		Roller:   s.roller,
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "Store")
}

func (s *ActionOrchestratorTestSuite) TestResolveValidatesInput() {
	_, err := s.service.Resolve(s.ctx, nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = s.service.Resolve(s.ctx, &action.ResolveInput{Plan: &oracle.Plan{Verb: "move"}})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.service.Resolve(s.ctx, &action.ResolveInput{PlayerID: "drift"})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.service.Resolve(s.ctx, &action.ResolveInput{PlayerID: "drift", Plan: &oracle.Plan{Verb: "  "}})
	s.True(errors.IsInvalidArgument(err))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = s.service.Resolve(ctx, &action.ResolveInput{PlayerID: "drift", Plan: &oracle.Plan{Verb: "observe"}})
	s.True(errors.IsCanceled(err))
}

func (s *ActionOrchestratorTestSuite) TestUnknownVerbIsUnresolvedNotError() {
	res := s.resolve("drift", &oracle.Plan{Verb: "juggle"})

	s.True(res.Unresolved)
	s.False(res.Rejected)
	s.NotEmpty(res.Summary)
	s.Equal("juggle", res.Meta["verb"])

	// First contact also creates the player record with spawn defaults.
	p := s.player("drift")
	s.Equal("haven_square", p.Location)
	s.Equal(100, p.Credits)
}

func (s *ActionOrchestratorTestSuite) TestRejectedActionLeavesPlayerByteIdentical() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Credits = 777
		p.Heat = 12
		p.Inventory = []string{"scrap", "coil"}
		p.Reputation = map[string]int{"wardens": 5}
	})
	before := s.player("drift")

	tests := []struct {
		name string
		plan *oracle.Plan
	}{
		{name: "move to non-neighbor", plan: &oracle.Plan{Verb: "move", Target: "far_flats"}},
		{name: "withdraw over balance", plan: &oracle.Plan{Verb: "withdraw", Amount: 100000}},
		{name: "attack nobody", plan: &oracle.Plan{Verb: "attack", Target: "ghost"}},
		{name: "sell with no merchant around", plan: &oracle.Plan{Verb: "sell", Item: "scrap", Target: "vex"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.resolve("drift", tt.plan)
			s.Require().True(res.Rejected, "expected a rejection")
			s.NotEmpty(res.RejectReason)
			s.Equal(before, s.player("drift"))
			s.Equal(before, res.Player)
		})
	}
}

func (s *ActionOrchestratorTestSuite) TestMoveTracksDiscoveryWithoutDuplicates() {
	s.ensurePlayer("drift")

	res := s.resolve("drift", &oracle.Plan{Verb: "move", Target: "haven_market"})
	s.False(res.Rejected)
	s.Equal("haven_square", res.Meta["from"])
	s.Equal("haven_market", res.Meta["to"])

	s.resolve("drift", &oracle.Plan{Verb: "move", Target: "haven_square"})
	s.resolve("drift", &oracle.Plan{Verb: "move", Target: "haven_market"})

	p := s.player("drift")
	s.Equal("haven_market", p.Location)
	s.Equal([]string{"haven_square", "haven_market"}, p.Discovered)
}

func (s *ActionOrchestratorTestSuite) TestMoveRejectsBadTargets() {
	s.ensurePlayer("drift")

	res := s.resolve("drift", &oracle.Plan{Verb: "move"})
	s.True(res.Rejected)

	res = s.resolve("drift", &oracle.Plan{Verb: "move", Target: "far_flats"})
	s.True(res.Rejected)
	s.Contains(res.RejectReason, "no path")

	s.Equal("haven_square", s.player("drift").Location)
}

func (s *ActionOrchestratorTestSuite) TestMoveIntoCitizensOnlyCityNeedsStanding() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "the_drifts"
		p.Discovered = []string{"haven_square", "the_drifts"}
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "move", Target: "gallows_yard"})
	s.True(res.Denied)
	s.False(res.Rejected)
	s.Equal("the_drifts", s.player("drift").Location, "denied entry leaves the player outside")

	// A discovered room inside the city stands in for citizenship.
	s.setPlayer("drift", func(p *entities.Player) {
		p.Discovered = append(p.Discovered, "gallows_yard")
	})
	res = s.resolve("drift", &oracle.Plan{Verb: "move", Target: "gallows_yard"})
	s.False(res.Denied)
	s.Equal("gallows_yard", s.player("drift").Location)
}

func (s *ActionOrchestratorTestSuite) TestMoveIntoClosedCityDenied() {
	err := s.store.Update(func(w *worldstate.World) error {
		city, ok := w.City("gallows")
		s.Require().True(ok)
		city.Policy.AccessMode = entities.AccessClosed
		return nil
	})
	s.Require().NoError(err)

	s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })

	res := s.resolve("drift", &oracle.Plan{Verb: "move", Target: "gallows_yard"})
	s.True(res.Denied)
	s.Equal(string(entities.AccessClosed), res.Meta["access"])
	s.Equal("the_drifts", s.player("drift").Location)
}

func (s *ActionOrchestratorTestSuite) TestWithdrawTakesCityFee() {
	s.setPlayer("drift", func(p *entities.Player) { p.Credits = 1000 })

	res := s.resolve("drift", &oracle.Plan{Verb: "withdraw", Amount: 100})
	s.Require().False(res.Rejected, res.RejectReason)

	s.Equal(100, res.Meta["amount"])
	s.Equal(2, res.Meta["fee"], "2% of 100, rounded up")
	s.Equal(898, s.player("drift").Credits)
}

func (s *ActionOrchestratorTestSuite) TestWithdrawFallsBackToDefaultFee() {
	// Gallows taxes nothing, so the default schedule covers the terminal.
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "gallows_yard"
		p.Credits = 2000
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "withdraw", Amount: 1000})
	s.Require().False(res.Rejected, res.RejectReason)

	s.Equal(1, res.Meta["fee"])
	s.Equal(999, s.player("drift").Credits)
}

func (s *ActionOrchestratorTestSuite) TestWithdrawRejections() {
	s.setPlayer("drift", func(p *entities.Player) { p.Credits = 50 })

	s.Run("no terminal in the wild", func() {
		s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })
		res := s.resolve("drift", &oracle.Plan{Verb: "withdraw", Amount: 10})
		s.True(res.Rejected)
	})

	s.Run("wrong room inside the city", func() {
		s.setPlayer("drift", func(p *entities.Player) { p.Location = "haven_market" })
		res := s.resolve("drift", &oracle.Plan{Verb: "withdraw", Amount: 10})
		s.True(res.Rejected)
		s.Contains(res.RejectReason, "no withdraw point")
	})

	s.Run("amount must be positive", func() {
		s.setPlayer("drift", func(p *entities.Player) { p.Location = "haven_square" })
		res := s.resolve("drift", &oracle.Plan{Verb: "withdraw"})
		s.True(res.Rejected)
	})

	s.Run("fee counts against the balance", func() {
		// 50 + ceil(50*0.02)=1 exceeds the 50 held.
		res := s.resolve("drift", &oracle.Plan{Verb: "withdraw", Amount: 50})
		s.True(res.Rejected)
		s.Contains(res.RejectReason, "insufficient funds")
		s.Equal(50, s.player("drift").Credits)
	})
}

func (s *ActionOrchestratorTestSuite) TestAttackOnGuardDeniedWithFineAndHeat() {
	s.setPlayer("drift", func(p *entities.Player) { p.Heat = 30 })

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "brick"})
	s.Require().True(res.Denied)
	s.False(res.Rejected)

	p := s.player("drift")
	s.Equal(75, p.Credits, "the 25-credit fine comes off the spawn balance")
	s.Equal(40, p.Heat)
	s.Equal(2, p.WantedLevel, "heat 40 lands in the 35..54 tier")

	_, alive := s.npc("brick")
	s.True(alive, "guards do not die to denied swings")
}

func (s *ActionOrchestratorTestSuite) TestAttackOnPlayerDeniedWherePvPOff() {
	s.ensurePlayer("prey")
	s.ensurePlayer("drift")

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "prey"})
	s.Require().True(res.Denied)

	s.Equal(100, s.player("prey").Health, "the victim is never touched")
	s.Equal(75, s.player("drift").Credits)
}

func (s *ActionOrchestratorTestSuite) TestAttackKillsNPCOnHighRoll() {
	s.roller.rolls = []int{6, 5}
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "moth"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Equal(true, res.Meta["killed"])
	s.Equal(11, res.Meta["damage"])
	s.Empty(res.Deltas, "a factionless drifter leaves no reputation trail")

	_, alive := s.npc("moth")
	s.False(alive)

	p := s.player("drift")
	s.Equal(5, p.Heat, "a wild kill runs cooler than a city one")
}

func (s *ActionOrchestratorTestSuite) TestAttackWoundsNPCOnLowRoll() {
	s.roller.rolls = []int{1, 2}
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "moth"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Nil(res.Meta["killed"])

	moth, alive := s.npc("moth")
	s.Require().True(alive)
	s.Equal("attacked by drift", moth.Memory)

	s.Equal(2, s.player("drift").Heat)
}

func (s *ActionOrchestratorTestSuite) TestPvPKillPostsBountyAndAppliesDeathPenalty() {
	inv := make([]string, 10)
	for i := range inv {
		inv[i] = fmt.Sprintf("relic_%d", i)
	}
	s.setPlayer("prey", func(p *entities.Player) {
		p.Location = "gallows_yard"
		p.Credits = 500
		p.Health = 5
		p.Inventory = append([]string(nil), inv...)
	})
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "gallows_yard" })

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "prey"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Require().False(res.Denied, "pvp is sanctioned in Gallows Rest")

	s.Equal(true, res.Meta["killed"])
	s.Equal(100, res.Meta["credit_loss"], "20% of 500")
	s.Equal(3, res.Meta["items_dropped"], "30% of 10, floored")
	s.Equal("haven_square", res.Meta["respawn_room"])
	s.Equal(100, res.Meta["bounty"])

	prey := s.player("prey")
	s.Equal(400, prey.Credits)
	s.Equal(inv[:7], prey.Inventory, "the most recent acquisitions scatter first")
	s.Equal("haven_square", prey.Location)
	s.Equal(100, prey.Health)
	s.Equal(entities.StatusOK, prey.Status)

	killer := s.player("drift")
	s.Equal(25, killer.Heat)
	s.Equal(1, killer.WantedLevel)
	s.Equal(100, killer.Bounties["wardens"])
	s.Equal(-30, killer.Reputation["wardens"], "-10 base, doubled for violence, scaled by warden aggression")
	s.Require().Len(res.Deltas, 1)
	s.Equal(action.ReputationDelta{FactionID: "wardens", Action: policy.ActionAttack, Delta: -30}, res.Deltas[0])
}

func (s *ActionOrchestratorTestSuite) TestPvPKillFallsBackToFineWithoutLawFaction() {
	err := s.store.Update(func(w *worldstate.World) error {
		w.Zone("gallows").ControllingFactionID = ""
		return nil
	})
	s.Require().NoError(err)

	s.setPlayer("prey", func(p *entities.Player) {
		p.Location = "gallows_yard"
		p.Health = 5
	})
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "gallows_yard" })

	res := s.resolve("drift", &oracle.Plan{Verb: "attack", Target: "prey"})
	s.Require().False(res.Rejected, res.RejectReason)

	s.Equal(50, res.Meta["fine"])
	s.Nil(res.Meta["bounty"])

	killer := s.player("drift")
	s.Equal(50, killer.Credits)
	s.Empty(killer.Bounties)
}

func (s *ActionOrchestratorTestSuite) TestBuyChargesFeesAndMovesStock() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "haven_market"
		p.Credits = 1000
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "buy", Item: "scrap", Amount: 2, Target: "vex"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Require().False(res.Denied)

	s.Equal(12, res.Meta["unit_price"], "the trader's shadow price, not the global one")
	s.Equal(2, res.Meta["fee"], "5% trade tax on 24, rounded up")
	s.Equal(26, res.Meta["total"])

	p := s.player("drift")
	s.Equal(974, p.Credits)
	s.Equal([]string{"scrap", "scrap"}, p.Inventory)
	s.Equal(4, p.Reputation["syndicate"], "trade halves the base and syndicate aggression scales it back up")
	s.Equal("bought 2 scrap", p.NPCMemory["vex"])

	err := s.store.View(func(w *worldstate.World) error {
		t, ok := w.Trader("vex")
		s.Require().True(ok)
		s.Equal(8, t.Items["scrap"].Stock)

		item, ok := w.MarketItem("scrap")
		s.Require().True(ok)
		s.Equal(98, item.Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) TestBuyingBeyondMeansIsDenied() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "haven_market"
		p.Credits = 5
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "buy", Item: "scrap", Amount: 2})
	s.Require().True(res.Denied)

	s.Equal(5, s.player("drift").Credits)
	err := s.store.View(func(w *worldstate.World) error {
		t, _ := w.Trader("vex")
		s.Equal(10, t.Items["scrap"].Stock, "a denied order never touches stock")
		return nil
	})
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) TestSellPaysOutAfterFee() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "haven_market"
		p.Inventory = []string{"scrap", "scrap", "scrap"}
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "sell", Item: "scrap", Amount: 3})
	s.Require().False(res.Rejected, res.RejectReason)

	s.Equal(8, res.Meta["unit_price"], "traders pay the global price scaled by their buy multiplier")
	s.Equal(2, res.Meta["fee"])
	s.Equal(22, res.Meta["proceeds"])

	p := s.player("drift")
	s.Equal(122, p.Credits)
	s.Empty(p.Inventory)

	err := s.store.View(func(w *worldstate.World) error {
		t, _ := w.Trader("vex")
		s.Equal(13, t.Items["scrap"].Stock)
		item, _ := w.MarketItem("scrap")
		s.Equal(103, item.Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) TestTradeInfersDirectionFromInventory() {
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "haven_market" })

	// Empty-handed, trade buys.
	res := s.resolve("drift", &oracle.Plan{Verb: "trade", Item: "scrap"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Contains(res.Summary, "buy")
	s.True(s.player("drift").HasItem("scrap"))

	// Holding the goods, trade sells.
	res = s.resolve("drift", &oracle.Plan{Verb: "trade", Item: "scrap"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Contains(res.Summary, "sell")
	s.False(s.player("drift").HasItem("scrap"))
}

func (s *ActionOrchestratorTestSuite) TestTalkSurfacesDialogueAndQuests() {
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })

	// Moth is alone out here, so no target is needed.
	res := s.resolve("drift", &oracle.Plan{Verb: "talk"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Contains(res.Summary, "The drifts give and the drifts take.")

	quests, ok := res.Meta["quests"].([]entities.Quest)
	s.Require().True(ok)
	s.Require().Len(quests, 1)
	s.Equal("find_the_cache", quests[0].ID)

	s.Equal("talked about default", s.player("drift").NPCMemory["moth"])
}

func (s *ActionOrchestratorTestSuite) TestTalkTopicAndMissingTargets() {
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "haven_market" })

	res := s.resolve("drift", &oracle.Plan{Verb: "talk", Target: "vex", Item: "scrap"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Contains(res.Summary, "Scrap moves fast this week.")

	res = s.resolve("drift", &oracle.Plan{Verb: "talk", Target: "nobody"})
	s.True(res.Rejected)
	s.Contains(res.RejectReason, `"nobody"`)

	s.setPlayer("drift", func(p *entities.Player) { p.Location = "far_flats" })
	res = s.resolve("drift", &oracle.Plan{Verb: "talk"})
	s.True(res.Rejected)
	s.Contains(res.RejectReason, "nobody here")
}

func (s *ActionOrchestratorTestSuite) TestWorkRunsJobsThroughTheCatalogue() {
	res := s.resolve("drift", &oracle.Plan{Verb: "work", Target: "courier_run"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Require().False(res.Denied)

	p := s.player("drift")
	s.Equal(125, p.Credits)
	s.Equal(95, p.Hunger)

	// The cooldown turns a second run into a denial, not an error.
	res = s.resolve("drift", &oracle.Plan{Verb: "work", Target: "courier_run"})
	s.True(res.Denied)
	s.Contains(res.Summary, "cooldown")

	s.clock.advance(10 * time.Minute)
	res = s.resolve("drift", &oracle.Plan{Verb: "work", Target: "courier_run"})
	s.False(res.Denied)

	res = s.resolve("drift", &oracle.Plan{Verb: "work", Target: "rob_the_mint"})
	s.True(res.Rejected)
}

func (s *ActionOrchestratorTestSuite) TestReportFilesBugReport() {
	res := s.resolve("drift", &oracle.Plan{Verb: "report", Notes: "the market door eats inputs"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.NotEmpty(res.Meta["report_id"])

	err := s.store.View(func(w *worldstate.World) error {
		reports := w.BugReports()
		s.Require().Len(reports, 1)
		s.Equal("the market door eats inputs", reports[0].Title)
		s.Equal("drift", reports[0].PlayerID)
		s.Equal(testNow, reports[0].Timestamp)
		return nil
	})
	s.Require().NoError(err)

	res = s.resolve("drift", &oracle.Plan{Verb: "report"})
	s.True(res.Rejected, "a report needs notes")
}

func (s *ActionOrchestratorTestSuite) TestReportTruncatesLongTitles() {
	notes := strings.Repeat("x", 90)
	res := s.resolve("drift", &oracle.Plan{Verb: "report", Notes: notes})
	s.Require().False(res.Rejected)

	err := s.store.View(func(w *worldstate.World) error {
		reports := w.BugReports()
		s.Require().Len(reports, 1)
		s.Len(reports[0].Title, 60)
		s.Equal(notes, reports[0].Detail, "the detail keeps the full text")
		return nil
	})
	s.Require().NoError(err)
}

func (s *ActionOrchestratorTestSuite) TestDieAppliesDeathPenaltyAndRespawns() {
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "haven_market"
		p.Credits = 500
		p.Hunger = 40
		p.Inventory = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "die"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Equal(50, res.Meta["credit_loss"], "10% on a non-pvp death")
	s.Equal(3, res.Meta["items_dropped"])

	p := s.player("drift")
	s.Equal(450, p.Credits)
	s.Len(p.Inventory, 7)
	s.Equal("haven_square", p.Location)
	s.Equal(100, p.Health)
	s.Equal(40, p.Hunger, "death does not feed anyone")
	s.Equal(entities.StatusOK, p.Status)
}

func (s *ActionOrchestratorTestSuite) TestRespawnOnlyWorksWhenDown() {
	s.ensurePlayer("drift")

	res := s.resolve("drift", &oracle.Plan{Verb: "respawn"})
	s.True(res.Rejected)

	s.setPlayer("drift", func(p *entities.Player) {
		p.Health = 0
		p.Status = entities.StatusDown
		p.Location = "the_drifts"
	})
	res = s.resolve("drift", &oracle.Plan{Verb: "respawn"})
	s.Require().False(res.Rejected, res.RejectReason)

	p := s.player("drift")
	s.Equal("haven_square", p.Location)
	s.Equal(100, p.Health)
	s.Equal(entities.StatusOK, p.Status)
}

func (s *ActionOrchestratorTestSuite) TestRespawnFallsBackThroughDiscoveredRooms() {
	// Without the spawn room in the trail, the first surviving discovered
	// room wins.
	s.setPlayer("drift", func(p *entities.Player) {
		p.Location = "far_flats"
		p.Discovered = []string{"far_flats"}
	})
	res := s.resolve("drift", &oracle.Plan{Verb: "die"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Equal("far_flats", s.player("drift").Location)

	// A trail of ghost rooms drops all the way to the wild fallback.
	s.setPlayer("ghost", func(p *entities.Player) {
		p.Location = "far_flats"
		p.Discovered = []string{"torn_down", "also_gone"}
	})
	res = s.resolve("ghost", &oracle.Plan{Verb: "die"})
	s.Require().False(res.Rejected, res.RejectReason)
	s.Equal("the_drifts", s.player("ghost").Location)
}

func (s *ActionOrchestratorTestSuite) TestApplyRoutesFreeTextThroughOracle() {
	out, err := s.service.Apply(s.ctx, &action.ApplyInput{PlayerID: "drift", FreeText: "go to haven_market"})
	s.Require().NoError(err)
	s.Require().False(out.Result.Rejected, out.Result.RejectReason)

	s.Equal("haven_market", s.player("drift").Location)
}

func (s *ActionOrchestratorTestSuite) TestApplyValidatesPlansAndText() {
	_, err := s.service.Apply(s.ctx, &action.ApplyInput{PlayerID: "drift", Plan: &oracle.Plan{Verb: "juggle"}})
	s.True(errors.IsInvalidArgument(err), "pre-resolved plans take the strict path")

	_, err = s.service.Apply(s.ctx, &action.ApplyInput{PlayerID: "drift"})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.service.Apply(s.ctx, nil)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ActionOrchestratorTestSuite) TestApplyDegradesWhenOracleFails() {
	svc, err := action.NewOrchestrator(&action.Config{
		Store:    s.store,
		Policies: s.policies,
		Economy:  s.economy,
		Jobs:     s.jobs,
		Oracle:   &failingPlanner{Client: s.oracle},
		Roller:   s.roller,
	})
	s.Require().NoError(err)

	out, err := svc.Apply(s.ctx, &action.ApplyInput{PlayerID: "drift", FreeText: "do something clever"})
	s.Require().NoError(err, "a dead oracle degrades, it does not error")
	s.True(out.Result.Unresolved)
	s.Equal("do something clever", out.Result.Meta["free_text"])
	s.NotNil(out.Result.Player)
}

func (s *ActionOrchestratorTestSuite) TestHandlerHotSwap() {
	s.Contains(s.service.Verbs(), "move")

	var sawPolicy entities.Policy
	s.service.RegisterHandler("dance", func(hc *action.HandlerContext) (*action.Result, error) {
		sawPolicy = hc.Policy
		return &action.Result{Summary: "You dance. Nobody claps."}, nil
	})
	s.Contains(s.service.Verbs(), "dance")

	res := s.resolve("drift", &oracle.Plan{Verb: "dance"})
	s.Equal("You dance. Nobody claps.", res.Summary)
	s.False(sawPolicy.PvP.Enabled, "handlers see the effective city policy")

	// A full table swap drops everything not re-registered.
	s.service.ReplaceHandlers(action.HandlerTable{
		"shrug": func(*action.HandlerContext) (*action.Result, error) {
			return &action.Result{Summary: "You shrug."}, nil
		},
	})
	s.Equal([]string{"shrug"}, s.service.Verbs())

	res = s.resolve("drift", &oracle.Plan{Verb: "dance"})
	s.True(res.Unresolved)
}

func (s *ActionOrchestratorTestSuite) TestHandlerErrorsDegradeToRejection() {
	s.setPlayer("drift", func(p *entities.Player) { p.Credits = 321 })
	before := s.player("drift")

	s.service.RegisterHandler("explode", func(hc *action.HandlerContext) (*action.Result, error) {
		hc.Player.Credits = 0
		return nil, errors.Internal("handler blew up")
	})

	res := s.resolve("drift", &oracle.Plan{Verb: "explode"})
	s.True(res.Rejected)
	s.Equal(before, s.player("drift"), "the pre-image survives a handler crash")
}

func (s *ActionOrchestratorTestSuite) TestResolveNPCMovesAlongEdges() {
	out, err := s.service.ResolveNPC(s.ctx, &action.ResolveNPCInput{
		NPCID: "moth",
		Plan:  &oracle.Plan{Verb: "move", Target: "far_flats"},
	})
	s.Require().NoError(err)
	s.False(out.Result.Rejected)

	moth, _ := s.npc("moth")
	s.Equal("far_flats", moth.Location)

	out, err = s.service.ResolveNPC(s.ctx, &action.ResolveNPCInput{
		NPCID: "moth",
		Plan:  &oracle.Plan{Verb: "move", Target: "haven_square"},
	})
	s.Require().NoError(err)
	s.True(out.Result.Rejected, "no edge from far_flats to haven_square")

	out, err = s.service.ResolveNPC(s.ctx, &action.ResolveNPCInput{
		NPCID: "moth",
		Plan:  &oracle.Plan{Verb: "observe"},
	})
	s.Require().NoError(err)
	s.False(out.Result.Rejected)

	out, err = s.service.ResolveNPC(s.ctx, &action.ResolveNPCInput{
		NPCID: "moth",
		Plan:  &oracle.Plan{Verb: "attack", Target: "drift"},
	})
	s.Require().NoError(err)
	s.True(out.Result.Unresolved, "npc autonomy stops short of violence")

	_, err = s.service.ResolveNPC(s.ctx, &action.ResolveNPCInput{
		NPCID: "nobody",
		Plan:  &oracle.Plan{Verb: "move", Target: "far_flats"},
	})
	s.True(errors.IsNotFound(err))
}

func (s *ActionOrchestratorTestSuite) TestStatusReportsSurroundings() {
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "haven_market" })
	s.setPlayer("bystander", func(p *entities.Player) { p.Location = "haven_market" })

	out, err := s.service.Status(s.ctx, &action.StatusInput{PlayerID: "drift"})
	s.Require().NoError(err)

	s.Equal("drift", out.Player.ID)
	s.Equal("haven_market", out.Room.ID)
	s.Equal("haven", out.City.ID)
	s.Require().NotNil(out.Policy)
	s.False(out.Policy.PvP.Enabled)
	s.Require().Len(out.NPCs, 1)
	s.Equal("vex", out.NPCs[0].ID)
	s.Equal(1, out.OtherPlayers)
	s.Require().NotNil(out.Connectivity)
	s.Equal([]string{"haven_square"}, out.Connectivity.Neighbors)
}

func (s *ActionOrchestratorTestSuite) TestStatusInWildUsesWildPolicy() {
	s.setPlayer("drift", func(p *entities.Player) { p.Location = "the_drifts" })

	out, err := s.service.Status(s.ctx, &action.StatusInput{PlayerID: "drift"})
	s.Require().NoError(err)

	s.Nil(out.City)
	s.Require().NotNil(out.Policy)
	s.True(out.Policy.PvP.Enabled)
	s.Equal(entities.PvPPenaltyNone, out.Policy.PvP.Penalty)
}

func (s *ActionOrchestratorTestSuite) TestStatusUnknownPlayer() {
	_, err := s.service.Status(s.ctx, &action.StatusInput{PlayerID: "stranger"})
	s.True(errors.IsNotFound(err))
}

func TestActionOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(ActionOrchestratorTestSuite))
}

func TestWildPolicy(t *testing.T) {
	wild := action.WildPolicy()

	assert.True(t, wild.PvP.Enabled)
	assert.Equal(t, entities.DropRulePartial, wild.PvP.DropRule)
	assert.Equal(t, entities.PvPPenaltyNone, wild.PvP.Penalty)
	assert.Equal(t, entities.GuardDensityLow, wild.GuardDensity)
	assert.Equal(t, entities.AccessOpen, wild.AccessMode)
	assert.Zero(t, wild.Tax.Trade)
	assert.Empty(t, wild.WithdrawPoints)
}
