// Package tick drives the world forward: each cycle advances the clock,
// fans oracle work out through a bounded pool, then runs serialized
// maintenance under the store's write gate. Oracle failures degrade to
// logged no-ops; a cycle never aborts because a collaborator did.
package tick

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/orchestrators/action"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
	"github.com/driftlands/worldsim/internal/worldstate"
)

//go:generate mockgen -destination=mock/mock_service.go -package=tickmock github.com/driftlands/worldsim/internal/orchestrators/tick Service

// Defaults applied by NewOrchestrator when the config leaves them zero.
const (
	DefaultInterval      = time.Second
	DefaultOracleTimeout = 2 * time.Second
	DefaultWorkers       = 4
	DefaultSnapshotEvery = 60
)

// recentEventContext caps how many log entries ride along on ruler
// revision calls.
const recentEventContext = 5

// shutdownFlushTimeout bounds the final snapshot write once the loop's own
// context is gone.
const shutdownFlushTimeout = 5 * time.Second

// Service defines the interface for tick orchestration
type Service interface {
	// RunCycle executes exactly one orchestration cycle.
	RunCycle(ctx context.Context, input *RunCycleInput) (*RunCycleOutput, error)

	// Run loops RunCycle on a fixed interval until the context is done,
	// then flushes a final snapshot.
	Run(ctx context.Context) error

	// Flush persists a snapshot outside the regular cadence.
	Flush(ctx context.Context, input *FlushInput) (*FlushOutput, error)
}

// Config holds the dependencies for the tick orchestrator
type Config struct {
	Store     *worldstate.Store
	Actions   action.Service
	Economy   *economy.Engine
	Jobs      *jobs.Engine
	Scheduler *schedule.Scheduler
	Oracle    oracle.Client
	// Snapshots is optional; nil keeps the world memory-only.
	Snapshots snapshot.Repository

	// Interval between cycles in Run. Zero selects the default.
	Interval time.Duration
	// OracleTimeout bounds every oracle call in the fan-out.
	OracleTimeout time.Duration
	// Workers bounds the fan-out pool.
	Workers int
	// SnapshotEvery flushes a snapshot every N cycles.
	SnapshotEvery uint64
	// TicksPerHour converts ticks to in-game hours.
	TicksPerHour int
	// HeatDecay per cycle; zero selects the jobs engine default.
	HeatDecay int
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Store == nil {
		vb.RequiredField("Store")
	}
	if c.Actions == nil {
		vb.RequiredField("Actions")
	}
	if c.Economy == nil {
		vb.RequiredField("Economy")
	}
	if c.Jobs == nil {
		vb.RequiredField("Jobs")
	}
	if c.Scheduler == nil {
		vb.RequiredField("Scheduler")
	}
	if c.Oracle == nil {
		vb.RequiredField("Oracle")
	}

	return vb.Build()
}

type orchestrator struct {
	store     *worldstate.Store
	actions   action.Service
	economy   *economy.Engine
	jobs      *jobs.Engine
	scheduler *schedule.Scheduler
	oracle    oracle.Client
	snapshots snapshot.Repository

	interval      time.Duration
	oracleTimeout time.Duration
	workers       int
	snapshotEvery uint64
	ticksPerHour  int
	heatDecay     int
}

// NewOrchestrator creates a new tick orchestrator with the provided
// dependencies.
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &orchestrator{
		store:         cfg.Store,
		actions:       cfg.Actions,
		economy:       cfg.Economy,
		jobs:          cfg.Jobs,
		scheduler:     cfg.Scheduler,
		oracle:        cfg.Oracle,
		snapshots:     cfg.Snapshots,
		interval:      cfg.Interval,
		oracleTimeout: cfg.OracleTimeout,
		workers:       cfg.Workers,
		snapshotEvery: cfg.SnapshotEvery,
		ticksPerHour:  cfg.TicksPerHour,
		heatDecay:     cfg.HeatDecay,
	}
	if o.interval <= 0 {
		o.interval = DefaultInterval
	}
	if o.oracleTimeout <= 0 {
		o.oracleTimeout = DefaultOracleTimeout
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.snapshotEvery == 0 {
		o.snapshotEvery = DefaultSnapshotEvery
	}
	return o, nil
}

// Ensure orchestrator implements Service
var _ Service = (*orchestrator)(nil)

// npcTask is one NPC's detached context for autonomy planning.
type npcTask struct {
	npc  *entities.NPC
	room *entities.Room
}

// RunCycle advances the world one orchestration step.
func (o *orchestrator) RunCycle(ctx context.Context, _ *RunCycleInput) (*RunCycleOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCanceled, "cycle aborted")
	}

	var tick uint64
	err := o.store.Update(func(w *worldstate.World) error {
		tick = w.AdvanceTick()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to advance tick")
	}
	hour := schedule.HourOfTick(tick, o.ticksPerHour)

	// Capture detached context for the fan-out. Oracle calls must never
	// hold the write gate.
	var (
		cities   []*entities.City
		factions []*entities.Faction
		recent   []entities.WorldEvent
		npcTasks []npcTask
		draft    *oracle.TranslateInput
	)
	err = o.store.View(func(w *worldstate.World) error {
		for _, c := range w.Cities() {
			cities = append(cities, c.Clone())
		}
		for _, f := range w.Factions() {
			factions = append(factions, f.Clone())
		}
		events := w.Events()
		if len(events) > recentEventContext {
			events = events[:recentEventContext]
		}
		recent = append([]entities.WorldEvent(nil), events...)
		for _, n := range w.NPCs() {
			t := npcTask{npc: n.Clone()}
			if room, ok := w.Room(n.Location); ok {
				t.room = room.Clone()
			}
			npcTasks = append(npcTasks, t)
		}
		draft = draftDigest(w, hour)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to capture cycle context")
	}

	// Fan out. Each slot is written by exactly one task, so no collector
	// lock is needed; the WaitGroup orders the reads.
	revisions := make([]*entities.Policy, len(cities))
	npcResolved := make([]bool, len(npcTasks))
	var digest *oracle.TranslateOutput

	tasks := make([]func(), 0, len(cities)+len(npcTasks)+1)
	for i, city := range cities {
		tasks = append(tasks, o.oracleTask(ctx, "revise_policy:"+city.ID, func(tctx context.Context) error {
			out, err := o.oracle.ReviseCityPolicy(tctx, &oracle.ReviseCityPolicyInput{
				City:         city,
				RecentEvents: recent,
				Factions:     factions,
			})
			if err != nil {
				return err
			}
			if out.Policy != nil {
				revisions[i] = out.Policy
			}
			return nil
		}))
	}
	tasks = append(tasks, o.oracleTask(ctx, "world_event", func(tctx context.Context) error {
		out, err := o.oracle.Translate(tctx, draft)
		if err != nil {
			return err
		}
		digest = out
		return nil
	}))
	for i, t := range npcTasks {
		tasks = append(tasks, o.oracleTask(ctx, "npc_autonomy:"+t.npc.ID, func(tctx context.Context) error {
			if t.room == nil {
				return nil
			}
			planned, err := o.oracle.ProposePlan(tctx, &oracle.ProposePlanInput{
				ActorID: t.npc.ID,
				NPC:     t.npc,
				Room:    t.room,
			})
			if err != nil {
				return err
			}
			if planned.Plan == nil || planned.Plan.Verb == "" {
				return nil
			}
			resolved, err := o.actions.ResolveNPC(tctx, &action.ResolveNPCInput{
				NPCID: t.npc.ID,
				Plan:  planned.Plan,
			})
			if err != nil {
				return err
			}
			if !resolved.Result.Rejected && !resolved.Result.Unresolved {
				npcResolved[i] = true
			}
			return nil
		}))
	}
	o.fanOut(tasks)

	out := &RunCycleOutput{Tick: tick, Hour: hour}
	for _, ok := range npcResolved {
		if ok {
			out.NPCPlans++
		}
	}

	// Serialized maintenance: every mutation in one update, in a fixed
	// order.
	err = o.store.Update(func(w *worldstate.World) error {
		for i, revised := range revisions {
			if revised == nil {
				continue
			}
			city, ok := w.City(cities[i].ID)
			if !ok {
				continue
			}
			city.Policy = *revised.Clone()
			out.PoliciesRevised++
			slog.Info("City policy revised", "city_id", city.ID, "tick", tick)
		}

		out.CooledPlayers = o.jobs.DecayHeat(w, o.heatDecay)
		o.economy.TickMarket(w, tick)

		sched, err := o.scheduler.Tick(w, hour)
		if err != nil {
			slog.Warn("Lifecycle scheduler degraded this cycle", "error", err)
		} else {
			out.Schedule = sched
		}

		if digest != nil {
			w.MergeGlossary(digest.Glossary)
			ev := w.PushEvent(entities.WorldEvent{Title: digest.Title, Detail: digest.Detail})
			out.Event = &ev
		}

		if reports := w.DrainBugReports(); len(reports) > 0 {
			for _, r := range reports {
				slog.Info("Bug report auto-mitigated",
					"report_id", r.ID,
					"title", r.Title,
					"player_id", r.PlayerID,
				)
			}
			w.PushEvent(entities.WorldEvent{
				Title:  "world-keepers sweep the ledger",
				Detail: fmt.Sprintf("%d reported faults patched over", len(reports)),
			})
			out.MitigatedReports = len(reports)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cycle maintenance failed")
	}

	if o.snapshots != nil && tick%o.snapshotEvery == 0 {
		if _, err := o.Flush(ctx, &FlushInput{}); err != nil {
			slog.Error("Snapshot flush failed; the in-memory world stays authoritative",
				"tick", tick,
				"error", err,
			)
		} else {
			out.SnapshotSaved = true
		}
	}

	slog.Debug("Cycle complete",
		"tick", tick,
		"hour", hour,
		"policies_revised", out.PoliciesRevised,
		"npc_plans", out.NPCPlans,
		"cooled_players", out.CooledPlayers,
		"mitigated_reports", out.MitigatedReports,
		"snapshot_saved", out.SnapshotSaved,
	)

	return out, nil
}

// Run loops RunCycle until the context is done.
func (o *orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	slog.Info("Tick loop started", "interval", o.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Tick loop stopping")
			if o.snapshots != nil {
				fctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
				if _, err := o.Flush(fctx, &FlushInput{}); err != nil {
					slog.Error("Final snapshot flush failed", "error", err)
				}
				cancel()
			}
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			if _, err := o.RunCycle(ctx, &RunCycleInput{}); err != nil {
				slog.Error("Cycle failed", "error", err)
			}
		}
	}
}

// Flush persists a snapshot taken under the store's gate.
func (o *orchestrator) Flush(ctx context.Context, _ *FlushInput) (*FlushOutput, error) {
	if o.snapshots == nil {
		return nil, errors.FailedPrecondition("no snapshot repository configured")
	}

	snap := o.store.Snapshot()
	if _, err := o.snapshots.Save(ctx, snapshot.SaveInput{Snapshot: snap}); err != nil {
		return nil, errors.Wrap(err, "failed to save snapshot")
	}

	slog.Info("Snapshot flushed", "tick", snap.Tick)
	return &FlushOutput{Tick: snap.Tick}, nil
}

// oracleTask wraps one fan-out unit with its timeout and panic isolation.
// Errors degrade to logged no-ops.
func (o *orchestrator) oracleTask(ctx context.Context, name string, fn func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Cycle task panicked", "task", name, "panic", r)
			}
		}()

		tctx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
		defer cancel()

		if err := fn(tctx); err != nil {
			slog.Warn("Cycle task degraded to no-op", "task", name, "error", err)
		}
	}
}

// fanOut drains the task list through the bounded worker pool.
func (o *orchestrator) fanOut(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	workers := o.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	queue := make(chan func())
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				task()
			}
		}()
	}
	for _, task := range tasks {
		queue <- task
	}
	close(queue)
	wg.Wait()
}

// draftDigest composes the cycle's world-event draft from the live state.
// The translator normalizes it and extends the glossary.
func draftDigest(w *worldstate.World, hour int) *oracle.TranslateInput {
	contested := 0
	for _, z := range w.Zones() {
		if z.Contested {
			contested++
		}
	}

	glossary := make(map[string]string, len(w.Glossary()))
	for k, v := range w.Glossary() {
		glossary[k] = v
	}

	return &oracle.TranslateInput{
		Title: fmt.Sprintf("hour %d across the driftlands", hour),
		Detail: fmt.Sprintf("%d goods on the boards, %d market events running, %d zones contested",
			len(w.MarketItems()), len(w.MarketEvents()), contested),
		Glossary: glossary,
	}
}
