package tick

import (
	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/entities"
)

// RunCycleInput contains parameters for running one orchestration cycle
type RunCycleInput struct{}

// RunCycleOutput reports what one cycle did.
type RunCycleOutput struct {
	// Tick is the counter value this cycle ran at.
	Tick uint64

	// Hour is the in-game hour derived from the tick.
	Hour int

	// PoliciesRevised counts cities whose ruler changed the base policy.
	PoliciesRevised int

	// NPCPlans counts autonomy plans that resolved without rejection.
	NPCPlans int

	// CooledPlayers counts players whose heat decayed.
	CooledPlayers int

	// MitigatedReports counts bug reports drained and auto-mitigated.
	MitigatedReports int

	// Schedule is the lifecycle scheduler's pass, nil when it degraded.
	Schedule *schedule.TickResult

	// Event is the cycle digest pushed to the world log, nil when the
	// translator was unavailable.
	Event *entities.WorldEvent

	// SnapshotSaved reports whether this cycle flushed a snapshot.
	SnapshotSaved bool
}

// FlushInput contains parameters for flushing a snapshot
type FlushInput struct{}

// FlushOutput contains the result of a snapshot flush
type FlushOutput struct {
	// Tick the flushed snapshot was taken at
	Tick uint64
}
