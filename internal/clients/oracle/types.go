package oracle

import (
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// Plan is the oracle's structured reading of an intent: a verb plus
// whatever arguments it extracted. The kernel treats an unrecognized or
// malformed verb as unhandled, never as a request-aborting error.
type Plan struct {
	Verb   string  `json:"verb"`
	Target string  `json:"target,omitempty"`
	Item   string  `json:"item,omitempty"`
	Amount int     `json:"amount,omitempty"`
	Risk   float64 `json:"risk"`
	Notes  string  `json:"notes,omitempty"`
}

// ProposePlanInput carries the serialized context the oracle plans against.
type ProposePlanInput struct {
	// ActorID identifies the player or NPC the plan is for.
	ActorID string `json:"actor_id"`

	// FreeText is the raw intent to parse. Empty for autonomy planning,
	// where the oracle acts from the context alone.
	FreeText string `json:"free_text,omitempty"`

	Room   *entities.Room   `json:"room,omitempty"`
	Policy *entities.Policy `json:"policy,omitempty"`
	Player *entities.Player `json:"player,omitempty"`
	NPC    *entities.NPC    `json:"npc,omitempty"`
}

// ProposePlanOutput contains the proposed plan
type ProposePlanOutput struct {
	Plan *Plan `json:"plan"`
}

// GenerateWorldInput asks for a world graph.
type GenerateWorldInput struct {
	Theme     string `json:"theme,omitempty"`
	RoomCount int    `json:"room_count,omitempty"`
}

// GenerateWorldOutput contains the generated world spec, validated against
// the world schema but not yet applied.
type GenerateWorldOutput struct {
	Spec *worldstate.WorldSpec `json:"spec"`
}

// GenerateNPCInput asks for a single NPC record.
type GenerateNPCInput struct {
	RoomID string `json:"room_id,omitempty"`
	Role   string `json:"role,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// GenerateNPCOutput contains the generated NPC
type GenerateNPCOutput struct {
	NPC *entities.NPC `json:"npc"`
}

// TranslateInput carries event text to normalize.
type TranslateInput struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	// Glossary is the current term map; the oracle extends it.
	Glossary map[string]string `json:"glossary,omitempty"`
}

// TranslateOutput is the normalized text plus any new glossary entries.
type TranslateOutput struct {
	Title    string            `json:"title"`
	Detail   string            `json:"detail,omitempty"`
	Glossary map[string]string `json:"glossary,omitempty"`
}

// ReviseCityPolicyInput carries the context a ruler decision draws on.
type ReviseCityPolicyInput struct {
	City         *entities.City        `json:"city"`
	RecentEvents []entities.WorldEvent `json:"recent_events,omitempty"`
	Factions     []*entities.Faction   `json:"factions,omitempty"`
}

// ReviseCityPolicyOutput is the ruler's revised base policy. A nil Policy
// means no change this cycle.
type ReviseCityPolicyOutput struct {
	Policy    *entities.Policy `json:"policy,omitempty"`
	Rationale string           `json:"rationale,omitempty"`
}
