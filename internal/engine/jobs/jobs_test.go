package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
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

func catalogue() []*entities.Job {
	return []*entities.Job{
		{
			ID:       "courier_run",
			Name:     "Courier Run",
			Zone:     entities.ZoneCity,
			HeatMin:  0,
			HeatMax:  100,
			Cooldown: 10 * time.Minute,
			Deltas:   entities.JobDeltas{Credits: 25, Hunger: -5},
		},
		{
			ID:       "salvage_sweep",
			Name:     "Salvage Sweep",
			RoomIDs:  []string{"the_drifts"},
			HeatMin:  0,
			HeatMax:  60,
			Cooldown: 5 * time.Minute,
			Deltas:   entities.JobDeltas{Credits: 15, Health: -5, Heat: 2},
		},
		{
			ID:       "smuggle_cache",
			Name:     "Smuggle a Cache",
			Zone:     entities.ZoneCity,
			Illegal:  true,
			HeatMin:  10,
			HeatMax:  100,
			Cooldown: 30 * time.Minute,
			Deltas:   entities.JobDeltas{Credits: 80, Heat: 20},
		},
	}
}

type JobsEngineTestSuite struct {
	suite.Suite
	clock  *stepClock
	engine *jobs.Engine
	store  *worldstate.Store
}

func (s *JobsEngineTestSuite) SetupTest() {
	s.clock = &stepClock{now: testNow}

	engine, err := jobs.New(&jobs.Config{Clock: s.clock, Catalogue: catalogue()})
	s.Require().NoError(err)
	s.engine = engine

	store, err := worldstate.New(&worldstate.Config{
		Clock:              s.clock,
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		if err := w.ApplyWorld(&worldstate.WorldSpec{
			Rooms: []*entities.Room{
				{ID: "haven_square", Name: "Haven Square", Zone: entities.ZoneCity},
				{ID: "the_drifts", Name: "The Drifts", Zone: entities.ZoneWild},
			},
		}); err != nil {
			return err
		}
		w.EnsurePlayer("runner")
		return nil
	})
	s.Require().NoError(err)
}

// run executes a job inside a store update.
func (s *JobsEngineTestSuite) run(playerID, jobID string) (*jobs.RunResult, error) {
	var res *jobs.RunResult
	var runErr error
	err := s.store.Update(func(w *worldstate.World) error {
		res, runErr = s.engine.Run(w, playerID, jobID)
		return nil
	})
	s.Require().NoError(err)
	return res, runErr
}

func (s *JobsEngineTestSuite) player(id string) *entities.Player {
	p, err := s.store.PlayerSnapshot(id)
	s.Require().NoError(err)
	return p
}

func (s *JobsEngineTestSuite) setPlayer(id string, mutate func(p *entities.Player)) {
	err := s.store.Update(func(w *worldstate.World) error {
		p, ok := w.Player(id)
		s.Require().True(ok)
		mutate(p)
		return nil
	})
	s.Require().NoError(err)
}

func (s *JobsEngineTestSuite) TestRunAppliesDeltasAndStampsCooldown() {
	res, err := s.run("runner", "courier_run")
	s.Require().NoError(err)

	s.Equal("courier_run", res.JobID)
	s.Equal(entities.JobDeltas{Credits: 25, Hunger: -5}, res.Applied)
	s.Equal(0, res.WantedLevel)
	s.Equal(testNow.Add(10*time.Minute), res.ReadyAt)

	p := s.player("runner")
	s.Equal(125, p.Credits)
	s.Equal(95, p.Hunger)
	s.Equal(testNow, p.JobCooldowns["courier_run"])
}

func (s *JobsEngineTestSuite) TestRunRecomputesWantedLevel() {
	s.setPlayer("runner", func(p *entities.Player) { p.Heat = 50 })

	res, err := s.run("runner", "smuggle_cache")
	s.Require().NoError(err)
	s.Equal(4, res.WantedLevel, "heat 70 lands in the 70..84 tier")

	p := s.player("runner")
	s.Equal(70, p.Heat)
	s.Equal(4, p.WantedLevel)
	s.Equal(180, p.Credits)
}

func (s *JobsEngineTestSuite) TestCooldownBlocksSecondRun() {
	_, err := s.run("runner", "courier_run")
	s.Require().NoError(err)

	_, err = s.run("runner", "courier_run")
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
	s.Contains(err.Error(), "on cooldown")

	s.clock.advance(10 * time.Minute)
	_, err = s.run("runner", "courier_run")
	s.NoError(err)
}

func (s *JobsEngineTestSuite) TestIllegalJobsBlockedAtHeatCeiling() {
	s.setPlayer("runner", func(p *entities.Player) { p.Heat = 95 })

	_, err := s.run("runner", "smuggle_cache")
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
	s.Contains(err.Error(), "illegal work")
}

func (s *JobsEngineTestSuite) TestHeatBandGatesRun() {
	// Heat 0 sits below the smuggle band's floor of 10.
	_, err := s.run("runner", "smuggle_cache")
	s.Require().Error(err)
	s.Contains(err.Error(), "outside the job's band")

	s.setPlayer("runner", func(p *entities.Player) {
		p.Heat = 70
		p.Location = "the_drifts"
	})
	_, err = s.run("runner", "salvage_sweep")
	s.Require().Error(err)
	s.Contains(err.Error(), "outside the job's band")
}

func (s *JobsEngineTestSuite) TestLocationGatesRun() {
	_, err := s.run("runner", "salvage_sweep")
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
	s.Contains(err.Error(), "cannot be worked from here")

	s.setPlayer("runner", func(p *entities.Player) { p.Location = "the_drifts" })
	_, err = s.run("runner", "salvage_sweep")
	s.NoError(err)

	// Zone-gated jobs stop working outside their zone.
	_, err = s.run("runner", "courier_run")
	s.Require().Error(err)
	s.Contains(err.Error(), "cannot be worked from here")
}

func (s *JobsEngineTestSuite) TestFailedRunMutatesNothing() {
	s.setPlayer("runner", func(p *entities.Player) {
		p.Heat = 5
		p.Credits = 300
	})
	before := s.player("runner")

	_, err := s.run("runner", "smuggle_cache")
	s.Require().Error(err)

	s.Equal(before, s.player("runner"))
}

func (s *JobsEngineTestSuite) TestRunUnknownJobAndPlayer() {
	_, err := s.run("runner", "rob_the_mint")
	s.True(errors.IsNotFound(err))

	_, err = s.run("stranger", "courier_run")
	s.True(errors.IsNotFound(err))
}

func (s *JobsEngineTestSuite) TestDecayHeatFloorsAtZeroAndRemapsWanted() {
	err := s.store.Update(func(w *worldstate.World) error {
		hot := w.EnsurePlayer("hot")
		hot.Heat = 16
		hot.WantedLevel = jobs.WantedLevelFor(hot.Heat)
		w.EnsurePlayer("warm").Heat = 3
		return nil
	})
	s.Require().NoError(err)

	var cooled int
	err = s.store.Update(func(w *worldstate.World) error {
		cooled = s.engine.DecayHeat(w, 0)
		return nil
	})
	s.Require().NoError(err)

	s.Equal(2, cooled, "the zero-heat player is untouched")

	hot := s.player("hot")
	s.Equal(12, hot.Heat)
	s.Equal(0, hot.WantedLevel, "dropping under 15 clears the wanted tier")

	warm := s.player("warm")
	s.Equal(0, warm.Heat, "decay floors at zero")
}

func (s *JobsEngineTestSuite) TestJobsListedInDeclarationOrder() {
	listed := s.engine.Jobs()
	s.Require().Len(listed, 3)
	s.Equal("courier_run", listed[0].ID)
	s.Equal("salvage_sweep", listed[1].ID)
	s.Equal("smuggle_cache", listed[2].ID)

	// Mutating the listing does not touch the catalogue.
	listed[0].Deltas.Credits = 9999
	job, ok := s.engine.Job("courier_run")
	s.Require().True(ok)
	s.Equal(25, job.Deltas.Credits)
}

func (s *JobsEngineTestSuite) TestNewRejectsBadConfig() {
	_, err := jobs.New(nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = jobs.New(&jobs.Config{Catalogue: catalogue()})
	s.Require().Error(err)
	s.Contains(err.Error(), "Clock")

	_, err = jobs.New(&jobs.Config{Clock: s.clock, Catalogue: []*entities.Job{
		{ID: "dup"}, {ID: "dup"},
	}})
	s.Require().Error(err)
	s.Contains(err.Error(), "duplicate job id")

	_, err = jobs.New(&jobs.Config{Clock: s.clock, Catalogue: []*entities.Job{
		{ID: "inverted", HeatMin: 50, HeatMax: 10},
	}})
	s.Require().Error(err)
	s.Contains(err.Error(), "inverted")
}

func TestJobsEngineSuite(t *testing.T) {
	suite.Run(t, new(JobsEngineTestSuite))
}

func TestWantedLevelFor(t *testing.T) {
	tests := []struct {
		heat, want int
	}{
		{heat: 100, want: 5},
		{heat: 85, want: 5},
		{heat: 84, want: 4},
		{heat: 70, want: 4},
		{heat: 69, want: 3},
		{heat: 55, want: 3},
		{heat: 54, want: 2},
		{heat: 35, want: 2},
		{heat: 34, want: 1},
		{heat: 15, want: 1},
		{heat: 14, want: 0},
		{heat: 0, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, jobs.WantedLevelFor(tt.heat), "heat %d", tt.heat)
	}
}
