package oracle

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// ScriptedConfig holds the dependencies for the scripted oracle
type ScriptedConfig struct {
	IDGenerator idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *ScriptedConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// Scripted is a deterministic, fixture-backed oracle used when no completer
// is configured and throughout tests. Plans come from simple word rules, not
// language understanding; content comes from fixed templates.
type Scripted struct {
	idGen idgen.Generator

	mu    sync.Mutex
	moods map[string]int
}

// NewScripted creates a scripted oracle
func NewScripted(cfg *ScriptedConfig) (*Scripted, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Scripted{
		idGen: cfg.IDGenerator,
		moods: make(map[string]int),
	}, nil
}

// Ensure Scripted implements Client
var _ Client = (*Scripted)(nil)

// verbAliases maps common phrasings onto canonical verbs.
var verbAliases = map[string]string{
	"go":       "move",
	"walk":     "move",
	"head":     "move",
	"move":     "move",
	"look":     "observe",
	"observe":  "observe",
	"scan":     "observe",
	"buy":      "buy",
	"sell":     "sell",
	"trade":    "trade",
	"hit":      "attack",
	"fight":    "attack",
	"attack":   "attack",
	"kill":     "attack",
	"withdraw": "withdraw",
	"bank":     "withdraw",
	"work":     "work",
	"job":      "work",
	"talk":     "talk",
	"say":      "talk",
	"ask":      "talk",
	"report":   "report",
	"die":      "die",
	"respawn":  "respawn",
}

// ProposePlan parses free text by word rules. With no free text it plays an
// NPC's autonomy turn: alternate between observing and drifting to the
// room's first neighbor, per actor, deterministically.
func (s *Scripted) ProposePlan(_ context.Context, input *ProposePlanInput) (*ProposePlanOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	if strings.TrimSpace(input.FreeText) == "" {
		return &ProposePlanOutput{Plan: s.autonomyPlan(input)}, nil
	}

	fields := strings.Fields(strings.ToLower(input.FreeText))
	plan := &Plan{Risk: 0.1}

	if verb, ok := verbAliases[fields[0]]; ok {
		plan.Verb = verb
	} else {
		plan.Verb = fields[0]
	}

	for _, f := range fields[1:] {
		if n, err := strconv.Atoi(f); err == nil {
			plan.Amount = n
			continue
		}
		switch f {
		case "to", "at", "the", "a", "an", "with", "from", "for":
			continue
		}
		if plan.Target == "" {
			plan.Target = f
		} else if plan.Item == "" {
			plan.Item = f
		}
	}

	// Trade verbs name the goods first, then an optional counterparty.
	switch plan.Verb {
	case "buy", "sell", "trade":
		plan.Item, plan.Target = plan.Target, plan.Item
	case "report":
		raw := strings.Fields(strings.TrimSpace(input.FreeText))
		plan.Notes = strings.Join(raw[1:], " ")
	}

	return &ProposePlanOutput{Plan: plan}, nil
}

func (s *Scripted) autonomyPlan(input *ProposePlanInput) *Plan {
	s.mu.Lock()
	turn := s.moods[input.ActorID]
	s.moods[input.ActorID] = turn + 1
	s.mu.Unlock()

	if turn%2 == 0 || input.Room == nil || len(input.Room.Neighbors) == 0 {
		return &Plan{Verb: "observe", Risk: 0}
	}
	return &Plan{
		Verb:   "move",
		Target: input.Room.Neighbors[turn/2%len(input.Room.Neighbors)],
		Risk:   0.05,
	}
}

// GenerateWorld returns a small fixed graph: a themed square ringed by
// wild drifts.
func (s *Scripted) GenerateWorld(_ context.Context, input *GenerateWorldInput) (*GenerateWorldOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	theme := strings.TrimSpace(input.Theme)
	if theme == "" {
		theme = "outpost"
	}
	slug := strings.ReplaceAll(strings.ToLower(theme), " ", "_")

	spec := &worldstate.WorldSpec{
		Cities: []*entities.City{
			{
				ID:   slug,
				Name: titleCase(theme),
				Policy: entities.Policy{
					SafetyLevel:    0.6,
					GuardDensity:   entities.GuardDensityMed,
					GuardResponse:  entities.GuardResponsePatrol,
					GuardLethality: entities.GuardLethalitySubdue,
					PvP:            entities.PvPPolicy{DropRule: entities.DropRuleNone, Penalty: entities.PvPPenaltyFine},
					Tax:            entities.TaxRates{Trade: 0.02, Withdraw: 0.01},
					WithdrawPoints: []string{slug + "_square"},
					AccessMode:     entities.AccessOpen,
				},
			},
		},
		Rooms: []*entities.Room{
			{ID: slug + "_square", Name: theme + " square", Neighbors: []string{slug + "_drift"}, CityID: slug, Zone: entities.ZoneCity},
			{ID: slug + "_drift", Name: theme + " drift", Neighbors: []string{slug + "_square"}, Zone: entities.ZoneWild},
		},
	}
	return &GenerateWorldOutput{Spec: spec}, nil
}

// GenerateNPC returns a templated drifter for the requested room and role.
func (s *Scripted) GenerateNPC(_ context.Context, input *GenerateNPCInput) (*GenerateNPCOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	role := input.Role
	if role == "" {
		role = entities.RoleDrifter
	}

	id := s.idGen.Generate()
	return &GenerateNPCOutput{NPC: &entities.NPC{
		ID:       id,
		Name:     "Stranger " + shortTag(id),
		Role:     role,
		Location: input.RoomID,
		Dialogues: map[string]string{
			"default": "The stranger sizes you up and says nothing.",
		},
	}}, nil
}

// Translate passes text through unchanged; there is no language model to
// normalize against.
func (s *Scripted) Translate(_ context.Context, input *TranslateInput) (*TranslateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	return &TranslateOutput{
		Title:  strings.TrimSpace(input.Title),
		Detail: strings.TrimSpace(input.Detail),
	}, nil
}

// ReviseCityPolicy never revises: scripted rulers hold course.
func (s *Scripted) ReviseCityPolicy(_ context.Context, input *ReviseCityPolicyInput) (*ReviseCityPolicyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.City == nil {
		return nil, errors.InvalidArgument("city is required")
	}

	return &ReviseCityPolicyOutput{Rationale: "holding course"}, nil
}

func shortTag(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
