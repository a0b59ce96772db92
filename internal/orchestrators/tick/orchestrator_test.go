package tick_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/orchestrators/action"
	"github.com/driftlands/worldsim/internal/orchestrators/tick"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// stepClock is a manually advanced clock.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeSnapshotRepo records saves in memory.
type fakeSnapshotRepo struct {
	mu    sync.Mutex
	saves []*worldstate.Snapshot
	err   error
}

func (f *fakeSnapshotRepo) Save(_ context.Context, input snapshot.SaveInput) (*snapshot.SaveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saves = append(f.saves, input.Snapshot)
	return &snapshot.SaveOutput{Tick: input.Snapshot.Tick}, nil
}

func (f *fakeSnapshotRepo) Load(_ context.Context, _ snapshot.LoadInput) (*snapshot.LoadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil, errors.NotFound("no snapshot stored")
	}
	return &snapshot.LoadOutput{Snapshot: f.saves[len(f.saves)-1]}, nil
}

func (f *fakeSnapshotRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSnapshotRepo) lastTick() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1].Tick
}

// downOracle fails every call the cycle fans out.
type downOracle struct {
	oracle.Client
}

func (d *downOracle) ProposePlan(_ context.Context, _ *oracle.ProposePlanInput) (*oracle.ProposePlanOutput, error) {
	return nil, errors.Unavailable("oracle offline")
}

func (d *downOracle) Translate(_ context.Context, _ *oracle.TranslateInput) (*oracle.TranslateOutput, error) {
	return nil, errors.Unavailable("oracle offline")
}

func (d *downOracle) ReviseCityPolicy(_ context.Context, _ *oracle.ReviseCityPolicyInput) (*oracle.ReviseCityPolicyOutput, error) {
	return nil, errors.Unavailable("oracle offline")
}

// stallingPlanner blocks autonomy planning until the per-call deadline.
type stallingPlanner struct {
	oracle.Client
}

func (p *stallingPlanner) ProposePlan(ctx context.Context, _ *oracle.ProposePlanInput) (*oracle.ProposePlanOutput, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// revisingRuler changes one city's policy and holds course everywhere else.
type revisingRuler struct {
	oracle.Client
	cityID  string
	revised *entities.Policy
}

func (r *revisingRuler) ReviseCityPolicy(_ context.Context, input *oracle.ReviseCityPolicyInput) (*oracle.ReviseCityPolicyOutput, error) {
	if input.City != nil && input.City.ID == r.cityID {
		return &oracle.ReviseCityPolicyOutput{Policy: r.revised, Rationale: "tightening the gates"}, nil
	}
	return &oracle.ReviseCityPolicyOutput{}, nil
}

func tickFixture() *worldstate.WorldSpec {
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
						Penalty:  entities.PvPPenaltyFine,
					},
					Tax:            entities.TaxRates{Trade: 0.05, Withdraw: 0.02},
					WithdrawPoints: []string{"haven_square"},
					AccessMode:     entities.AccessOpen,
				},
			},
		},
		Rooms: []*entities.Room{
			{ID: "haven_square", Name: "Haven Square", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_market"}},
			{ID: "haven_market", Name: "Haven Market", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square"}},
			{ID: "wild_a", Name: "Wild A", Zone: entities.ZoneWild, Neighbors: []string{"wild_b"}},
			{ID: "wild_b", Name: "Wild B", Zone: entities.ZoneWild, Neighbors: []string{"wild_a"}},
		},
	}
}

type TickOrchestratorTestSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *stepClock
	store     *worldstate.Store
	policies  *policy.Engine
	economy   *economy.Engine
	jobs      *jobs.Engine
	scheduler *schedule.Scheduler
	oracle    *oracle.Scripted
	actions   action.Service
}

func (s *TickOrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &stepClock{now: testNow}

	store, err := worldstate.New(&worldstate.Config{
		Clock:              s.clock,
		IDGenerator:        idgen.NewSequential("tick"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "wild_a",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		if err := w.ApplyWorld(tickFixture()); err != nil {
			return err
		}
		if err := w.RegisterFaction(&entities.Faction{ID: "wardens", Name: "The Wardens", Aggression: 50}); err != nil {
			return err
		}
		if err := w.UpsertNPC(&entities.NPC{ID: "moth", Name: "Moth", Role: entities.RoleDrifter, Location: "wild_a"}); err != nil {
			return err
		}
		return w.AddMarketItem(&entities.MarketItem{
			ID: "scrap", Name: "Scrap", BasePrice: 10, CurrentPrice: 10,
			Supply: 100, Demand: 1, Volatility: 0.2, RestockRate: 5, MaxStock: 200,
		})
	})
	s.Require().NoError(err)

	s.policies = policy.New()
	s.economy = economy.New()

	jobsEngine, err := jobs.New(&jobs.Config{Clock: s.clock, Catalogue: []*entities.Job{
		{ID: "courier_run", Name: "Courier Run", Zone: entities.ZoneCity, HeatMax: 100, Cooldown: 10 * time.Minute, Deltas: entities.JobDeltas{Credits: 25}},
	}})
	s.Require().NoError(err)
	s.jobs = jobsEngine

	scheduler, err := schedule.New(&schedule.Config{})
	s.Require().NoError(err)
	s.scheduler = scheduler

	scripted, err := oracle.NewScripted(&oracle.ScriptedConfig{IDGenerator: idgen.NewSequential("gen")})
	s.Require().NoError(err)
	s.oracle = scripted

	roller := &stubRoller{}
	actions, err := action.NewOrchestrator(&action.Config{
		Store:    s.store,
		Policies: s.policies,
		Economy:  s.economy,
		Jobs:     s.jobs,
		Oracle:   s.oracle,
		Roller:   roller,
	})
	s.Require().NoError(err)
	s.actions = actions
}

// stubRoller satisfies the action engine; autonomy never rolls damage.
type stubRoller struct{}

func (r *stubRoller) Roll(_ int) (int, error) { return 3, nil }

func (r *stubRoller) RollN(n, _ int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		out[i] = 3
	}
	return out, nil
}

// newService builds a tick orchestrator over the suite's components; mod
// tweaks the config before construction.
func (s *TickOrchestratorTestSuite) newService(mod func(cfg *tick.Config)) tick.Service {
	cfg := &tick.Config{
		Store:         s.store,
		Actions:       s.actions,
		Economy:       s.economy,
		Jobs:          s.jobs,
		Scheduler:     s.scheduler,
		Oracle:        s.oracle,
		OracleTimeout: 500 * time.Millisecond,
		Workers:       2,
		TicksPerHour:  1,
	}
	if mod != nil {
		mod(cfg)
	}
	svc, err := tick.NewOrchestrator(cfg)
	s.Require().NoError(err)
	return svc
}

func (s *TickOrchestratorTestSuite) cycle(svc tick.Service) *tick.RunCycleOutput {
	out, err := svc.RunCycle(s.ctx, &tick.RunCycleInput{})
	s.Require().NoError(err)
	return out
}

func (s *TickOrchestratorTestSuite) TestNewOrchestratorRejectsBadConfig() {
	_, err := tick.NewOrchestrator(nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = tick.NewOrchestrator(&tick.Config{
		Actions:   s.actions,
		Economy:   s.economy,
		Jobs:      s.jobs,
		Scheduler: s.scheduler,
		Oracle:    s.oracle,
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "Store")
}

func (s *TickOrchestratorTestSuite) TestRunCycleAdvancesTickAndDerivesHour() {
	svc := s.newService(nil)

	out := s.cycle(svc)
	s.Equal(uint64(1), out.Tick)
	s.Equal(1, out.Hour, "one tick per hour in this fixture")

	out = s.cycle(svc)
	s.Equal(uint64(2), out.Tick)
	s.Equal(2, out.Hour)

	s.Equal(uint64(2), s.store.CurrentTick())
}

func (s *TickOrchestratorTestSuite) TestRunCycleHonorsCanceledContext() {
	svc := s.newService(nil)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := svc.RunCycle(ctx, &tick.RunCycleInput{})
	s.True(errors.IsCanceled(err))
}

func (s *TickOrchestratorTestSuite) TestNPCAutonomyRunsThroughActionEngine() {
	svc := s.newService(nil)

	// The scripted oracle has each actor observe first, then drift to the
	// room's first neighbor.
	out := s.cycle(svc)
	s.Equal(1, out.NPCPlans)

	err := s.store.View(func(w *worldstate.World) error {
		moth, ok := w.NPC("moth")
		s.Require().True(ok)
		s.Equal("wild_a", moth.Location, "the first turn only looks around")
		return nil
	})
	s.Require().NoError(err)

	out = s.cycle(svc)
	s.Equal(1, out.NPCPlans)

	err = s.store.View(func(w *worldstate.World) error {
		moth, ok := w.NPC("moth")
		s.Require().True(ok)
		s.Equal("wild_b", moth.Location)
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestDigestEventLandsInLog() {
	svc := s.newService(nil)

	out := s.cycle(svc)
	s.Require().NotNil(out.Event)
	s.Equal("hour 1 across the driftlands", out.Event.Title)
	s.Contains(out.Event.Detail, "1 goods on the boards")

	err := s.store.View(func(w *worldstate.World) error {
		events := w.Events()
		s.Require().NotEmpty(events)
		s.Equal(out.Event.ID, events[0].ID)
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestHeatDecaysEachCycle() {
	err := s.store.Update(func(w *worldstate.World) error {
		w.EnsurePlayer("drift").Heat = 10
		return nil
	})
	s.Require().NoError(err)

	svc := s.newService(nil)
	out := s.cycle(svc)
	s.Equal(1, out.CooledPlayers)

	p, err := s.store.PlayerSnapshot("drift")
	s.Require().NoError(err)
	s.Equal(6, p.Heat)
}

func (s *TickOrchestratorTestSuite) TestMarketEventExpiresThroughCycle() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.economy.ScheduleEvent(w, &entities.MarketEvent{
			Type:           "shortage",
			ItemIDs:        []string{"scrap"},
			Multiplier:     2,
			RemainingTicks: 1,
		})
		return err
	})
	s.Require().NoError(err)

	svc := s.newService(nil)
	s.cycle(svc)

	err = s.store.View(func(w *worldstate.World) error {
		s.Empty(w.MarketEvents(), "a one-tick event burns out in one cycle")
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestBugReportsAutoMitigated() {
	err := s.store.Update(func(w *worldstate.World) error {
		w.PushBugReport(entities.BugReport{Title: "door eats inputs", PlayerID: "drift"})
		w.PushBugReport(entities.BugReport{Title: "npc stuck in wall"})
		return nil
	})
	s.Require().NoError(err)

	svc := s.newService(nil)
	out := s.cycle(svc)
	s.Equal(2, out.MitigatedReports)

	err = s.store.View(func(w *worldstate.World) error {
		s.Empty(w.BugReports(), "mitigation drains the queue")
		events := w.Events()
		s.Require().NotEmpty(events)
		s.Equal("world-keepers sweep the ledger", events[0].Title)
		s.Contains(events[0].Detail, "2 reported faults")
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestSchedulerSpawnsFromRoutine() {
	scheduler, err := schedule.New(&schedule.Config{Entries: []*schedule.Entry{
		{
			NPC:             entities.NPC{ID: "lantern", Name: "Lantern Keeper", Role: entities.RoleDrifter},
			Routine:         []schedule.RoutineStop{{StartHour: 0, EndHour: 24, RoomID: "haven_market"}},
			SpawnConditions: []schedule.Condition{{Type: schedule.ConditionTimeWindow, StartHour: 1, EndHour: 3}},
		},
	}})
	s.Require().NoError(err)

	svc := s.newService(func(cfg *tick.Config) { cfg.Scheduler = scheduler })

	out := s.cycle(svc)
	s.Require().NotNil(out.Schedule)
	s.Equal([]string{"lantern"}, out.Schedule.Spawned)

	err = s.store.View(func(w *worldstate.World) error {
		lantern, ok := w.NPC("lantern")
		s.Require().True(ok)
		s.Equal("haven_market", lantern.Location)
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestPolicyRevisionsApplyInMaintenance() {
	revised := &entities.Policy{
		SafetyLevel:    0.9,
		GuardDensity:   entities.GuardDensityHigh,
		GuardResponse:  entities.GuardResponseAggressive,
		GuardLethality: entities.GuardLethalitySubdue,
		PvP: entities.PvPPolicy{
			Enabled:  false,
			DropRule: entities.DropRulePartial,
			Penalty:  entities.PvPPenaltyFine,
		},
		Tax:            entities.TaxRates{Trade: 0.04, Withdraw: 0.03},
		WithdrawPoints: []string{"haven_square"},
		AccessMode:     entities.AccessOpen,
	}
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Oracle = &revisingRuler{Client: s.oracle, cityID: "haven", revised: revised}
	})

	out := s.cycle(svc)
	s.Equal(1, out.PoliciesRevised)

	err := s.store.View(func(w *worldstate.World) error {
		city, ok := w.City("haven")
		s.Require().True(ok)
		s.Equal(0.9, city.Policy.SafetyLevel)
		s.Equal(entities.GuardDensityHigh, city.Policy.GuardDensity)
		s.Equal(0.03, city.Policy.Tax.Withdraw)
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestOracleOutageDegradesToNoOps() {
	err := s.store.Update(func(w *worldstate.World) error {
		w.EnsurePlayer("drift").Heat = 10
		return nil
	})
	s.Require().NoError(err)

	svc := s.newService(func(cfg *tick.Config) {
		cfg.Oracle = &downOracle{Client: s.oracle}
	})

	out := s.cycle(svc)
	s.Zero(out.PoliciesRevised)
	s.Zero(out.NPCPlans)
	s.Nil(out.Event, "no digest without the translator")

	// Maintenance still ran.
	s.Equal(1, out.CooledPlayers)
	p, err := s.store.PlayerSnapshot("drift")
	s.Require().NoError(err)
	s.Equal(6, p.Heat)
}

func (s *TickOrchestratorTestSuite) TestOracleTimeoutDegrades() {
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Oracle = &stallingPlanner{Client: s.oracle}
		cfg.OracleTimeout = 15 * time.Millisecond
	})

	out := s.cycle(svc)
	s.Zero(out.NPCPlans, "a stalled planner times out and the npc sits this one out")

	err := s.store.View(func(w *worldstate.World) error {
		moth, ok := w.NPC("moth")
		s.Require().True(ok)
		s.Equal("wild_a", moth.Location)
		return nil
	})
	s.Require().NoError(err)
}

func (s *TickOrchestratorTestSuite) TestSnapshotCadence() {
	repo := &fakeSnapshotRepo{}
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Snapshots = repo
		cfg.SnapshotEvery = 2
	})

	out := s.cycle(svc)
	s.False(out.SnapshotSaved)
	s.Zero(repo.count())

	out = s.cycle(svc)
	s.True(out.SnapshotSaved)
	s.Equal(1, repo.count())
	s.Equal(uint64(2), repo.lastTick())

	s.cycle(svc)
	s.Equal(1, repo.count())

	s.cycle(svc)
	s.Equal(2, repo.count())
	s.Equal(uint64(4), repo.lastTick())
}

func (s *TickOrchestratorTestSuite) TestSnapshotFailureDoesNotAbortCycle() {
	repo := &fakeSnapshotRepo{err: errors.Unavailable("disk on fire")}
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Snapshots = repo
		cfg.SnapshotEvery = 1
	})

	out := s.cycle(svc)
	s.False(out.SnapshotSaved)
	s.Equal(uint64(1), out.Tick, "the cycle itself still completed")
}

func (s *TickOrchestratorTestSuite) TestFlushRequiresRepository() {
	svc := s.newService(nil)

	_, err := svc.Flush(s.ctx, &tick.FlushInput{})
	s.True(errors.IsFailedPrecondition(err))
}

func (s *TickOrchestratorTestSuite) TestFlushSavesCurrentTick() {
	repo := &fakeSnapshotRepo{}
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Snapshots = repo
		cfg.SnapshotEvery = 1000
	})

	s.cycle(svc)
	s.cycle(svc)
	s.cycle(svc)

	out, err := svc.Flush(s.ctx, &tick.FlushInput{})
	s.Require().NoError(err)
	s.Equal(uint64(3), out.Tick)
	s.Equal(1, repo.count())
}

func (s *TickOrchestratorTestSuite) TestRunLoopFlushesOnShutdown() {
	repo := &fakeSnapshotRepo{}
	svc := s.newService(func(cfg *tick.Config) {
		cfg.Snapshots = repo
		cfg.SnapshotEvery = 1000
		cfg.Interval = 5 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("run loop did not stop")
	}

	s.GreaterOrEqual(repo.count(), 1, "shutdown always flushes")
	s.Positive(s.store.CurrentTick(), "the loop ran at least one cycle")
}

func TestTickOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(TickOrchestratorTestSuite))
}
