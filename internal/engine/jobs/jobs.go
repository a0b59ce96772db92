// Package jobs runs the fixed catalogue of cooldown-gated side activities
// and the heat and wanted-level bookkeeping they feed.
package jobs

import (
	"time"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// IllegalHeatCeiling blocks every illegal job regardless of its heat band.
const IllegalHeatCeiling = 95

// DefaultHeatDecay is how much heat each player sheds per maintenance cycle.
const DefaultHeatDecay = 4

// WantedLevelFor maps heat to the discrete 0..5 wanted tier.
func WantedLevelFor(heat int) int {
	switch {
	case heat >= 85:
		return 5
	case heat >= 70:
		return 4
	case heat >= 55:
		return 3
	case heat >= 35:
		return 2
	case heat >= 15:
		return 1
	default:
		return 0
	}
}

// Config holds the dependencies for the jobs engine
type Config struct {
	Clock     clock.Clock
	Catalogue []*entities.Job
}

// Validate ensures all required fields are set
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	seen := make(map[string]bool, len(c.Catalogue))
	for i, j := range c.Catalogue {
		if j == nil || j.ID == "" {
			vb.Fieldf("catalogue", "entry %d is missing an id", i)
			continue
		}
		if seen[j.ID] {
			vb.Fieldf("catalogue", "duplicate job id %q", j.ID)
		}
		seen[j.ID] = true
		if j.HeatMin > j.HeatMax {
			vb.Fieldf(j.ID, "heat band [%d,%d] is inverted", j.HeatMin, j.HeatMax)
		}
		if j.Cooldown < 0 {
			vb.Fieldf(j.ID, "cooldown must not be negative")
		}
	}

	return vb.Build()
}

// Engine evaluates job eligibility and applies job outcomes. The catalogue
// is fixed at construction.
type Engine struct {
	clock clock.Clock
	byID  map[string]*entities.Job
	order []string
}

// New creates a jobs engine
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	e := &Engine{
		clock: cfg.Clock,
		byID:  make(map[string]*entities.Job, len(cfg.Catalogue)),
		order: make([]string, 0, len(cfg.Catalogue)),
	}
	for _, j := range cfg.Catalogue {
		e.byID[j.ID] = j.Clone()
		e.order = append(e.order, j.ID)
	}
	return e, nil
}

// Jobs returns the catalogue in declaration order.
func (e *Engine) Jobs() []*entities.Job {
	out := make([]*entities.Job, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.byID[id].Clone())
	}
	return out
}

// Job looks up a catalogue entry.
func (e *Engine) Job(id string) (*entities.Job, bool) {
	j, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return j.Clone(), true
}

// CanRun reports whether the player may work the job right now. A nil
// return means eligible; otherwise the error carries the reason.
func (e *Engine) CanRun(w *worldstate.World, p *entities.Player, jobID string) error {
	job, ok := e.byID[jobID]
	if !ok {
		return errors.NotFoundf("job %q not found", jobID)
	}

	if last, ok := p.JobCooldowns[jobID]; ok {
		readyAt := last.Add(job.Cooldown)
		if now := e.clock.Now(); now.Before(readyAt) {
			remaining := readyAt.Sub(now).Round(time.Second)
			return errors.FailedPreconditionf("job %q is on cooldown for %s", jobID, remaining)
		}
	}

	if job.Illegal && p.Heat >= IllegalHeatCeiling {
		return errors.FailedPreconditionf("heat %d is too high for illegal work", p.Heat)
	}
	if p.Heat < job.HeatMin || p.Heat > job.HeatMax {
		return errors.FailedPreconditionf("heat %d is outside the job's band [%d,%d]", p.Heat, job.HeatMin, job.HeatMax)
	}

	room, _ := w.Room(p.Location)
	if !job.AllowedAt(room) {
		return errors.FailedPreconditionf("job %q cannot be worked from here", jobID)
	}

	return nil
}

// RunResult reports a completed job.
type RunResult struct {
	JobID       string
	Applied     entities.JobDeltas
	WantedLevel int
	ReadyAt     time.Time
}

// Run executes the job for the player: deltas applied with their domain
// clamps, cooldown stamped, wanted level recomputed from the new heat.
// An ineligible run returns the reason and changes nothing.
func (e *Engine) Run(w *worldstate.World, playerID, jobID string) (*RunResult, error) {
	p, ok := w.Player(playerID)
	if !ok {
		return nil, errors.NotFoundf("player %q not found", playerID)
	}
	if err := e.CanRun(w, p, jobID); err != nil {
		return nil, err
	}
	job := e.byID[jobID]

	p.AdjustCredits(job.Deltas.Credits)
	p.AdjustHealth(job.Deltas.Health)
	p.AdjustHunger(job.Deltas.Hunger)
	p.AdjustHeat(job.Deltas.Heat)

	now := e.clock.Now()
	if p.JobCooldowns == nil {
		p.JobCooldowns = make(map[string]time.Time)
	}
	p.JobCooldowns[jobID] = now
	p.WantedLevel = WantedLevelFor(p.Heat)

	return &RunResult{
		JobID:       jobID,
		Applied:     job.Deltas,
		WantedLevel: p.WantedLevel,
		ReadyAt:     now.Add(job.Cooldown),
	}, nil
}

// DecayHeat sheds heat from every player, flooring at zero, and keeps the
// wanted tier in step with the new heat. A non-positive amount uses the
// default. It returns how many players actually cooled down.
func (e *Engine) DecayHeat(w *worldstate.World, amount int) int {
	if amount <= 0 {
		amount = DefaultHeatDecay
	}

	cooled := 0
	for _, p := range w.Players() {
		if p.Heat == 0 {
			continue
		}
		p.AdjustHeat(-amount)
		p.WantedLevel = WantedLevelFor(p.Heat)
		cooled++
	}
	return cooled
}
