package action

import (
	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// SensoryCues is the four-axis cue bundle a handler may attach to a
// result. Every axis is optional and defaults to empty.
type SensoryCues struct {
	Visual string
	Audio  string
	Smell  string
	Touch  string
}

// ReputationDelta records one faction-standing change an action caused.
type ReputationDelta struct {
	FactionID string
	Action    string
	Delta     int
}

// Result is the outcome of one resolved action.
//
// Exactly one of the normal/rejected/denied/unresolved shapes applies:
// a rejected result means validation failed and no state changed; a denied
// result means policy blocked the action (a fixed penalty may still have
// landed); an unresolved result means no handler claimed the verb.
type Result struct {
	Summary      string
	Cues         SensoryCues
	Player       *entities.Player
	Meta         map[string]any
	Rejected     bool
	RejectReason string
	Denied       bool
	Unresolved   bool
	Deltas       []ReputationDelta
}

// ResolveInput defines the request for resolving a pre-parsed plan
type ResolveInput struct {
	PlayerID string
	Plan     *oracle.Plan
}

// ResolveOutput defines the response for resolving a plan
type ResolveOutput struct {
	Result *Result
}

// ApplyInput defines the request for the exposed action surface. Exactly
// one of Plan or FreeText must be set; free text is routed through the
// planning oracle first.
type ApplyInput struct {
	PlayerID string
	Plan     *oracle.Plan
	FreeText string
}

// ApplyOutput defines the response for an applied action
type ApplyOutput struct {
	Result *Result
}

// ResolveNPCInput defines the request for resolving an NPC autonomy plan
type ResolveNPCInput struct {
	NPCID string
	Plan  *oracle.Plan
}

// ResolveNPCOutput defines the response for an NPC autonomy plan
type ResolveNPCOutput struct {
	Result *Result
}

// StatusInput defines the request for a player status report
type StatusInput struct {
	PlayerID string
}

// StatusOutput defines the response for a player status report. Room and
// City are nil when the player's location no longer resolves.
type StatusOutput struct {
	Player       *entities.Player
	Room         *entities.Room
	City         *entities.City
	Policy       *entities.Policy
	NPCs         []*entities.NPC
	OtherPlayers int
	Connectivity *worldstate.RoomConnectivity
	Tick         uint64
}
