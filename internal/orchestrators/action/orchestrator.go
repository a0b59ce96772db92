// Package action implements the action resolution engine: every player
// intent lands here as a plan, resolves against the current room, city, and
// effective policy, and commits (or not) under the store's write gate.
package action

//go:generate mockgen -destination=mock/mock_service.go -package=actionmock github.com/driftlands/worldsim/internal/orchestrators/action Service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// Service defines the interface for action resolution
type Service interface {
	// Resolve runs a pre-parsed plan through the handler table. Unknown
	// verbs come back as unresolved results, never errors.
	Resolve(ctx context.Context, input *ResolveInput) (*ResolveOutput, error)

	// Apply is the exposed surface: a pre-resolved plan takes the
	// deterministic path (unknown verb is a client error); free text is
	// routed through the planning oracle first.
	Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error)

	// ResolveNPC runs an autonomy plan for an NPC actor. Only a narrow
	// verb set applies; everything else is unresolved.
	ResolveNPC(ctx context.Context, input *ResolveNPCInput) (*ResolveNPCOutput, error)

	// Status reports a player's surroundings without mutating anything.
	Status(ctx context.Context, input *StatusInput) (*StatusOutput, error)

	// RegisterHandler installs or replaces the handler for one verb.
	RegisterHandler(verb string, h Handler)

	// ReplaceHandlers swaps the whole handler table. In-flight
	// resolutions keep the table they captured.
	ReplaceHandlers(table HandlerTable)

	// Verbs lists the verbs the current handler table claims.
	Verbs() []string
}

// HandlerContext is what a verb handler works against. World access is
// only valid for the duration of the handler call; the engine invokes
// handlers inside the store's write gate.
type HandlerContext struct {
	World  *worldstate.World
	Player *entities.Player
	Room   *entities.Room
	// City is nil outside city zones.
	City *entities.City
	// Policy is the effective policy at the player's location: the city's
	// base policy with faction goals folded in, or the wild default.
	Policy entities.Policy
	Plan   *oracle.Plan
}

// Handler resolves one verb. Handlers validate before they mutate: a
// result with Rejected set must leave the world untouched. The engine
// additionally restores the acting player's pre-image on rejection or
// error, so a rejected action can never leak player-state changes.
type Handler func(hc *HandlerContext) (*Result, error)

// HandlerTable maps canonical verbs to handlers.
type HandlerTable map[string]Handler

// Config holds the dependencies for the action orchestrator
type Config struct {
	Store    *worldstate.Store
	Policies *policy.Engine
	Economy  *economy.Engine
	Jobs     *jobs.Engine
	Oracle   oracle.Client
	Roller   dice.Roller
	// Fees backs cities seeded without their own tax rates. Nil selects
	// the default schedule.
	Fees *economy.FeeSchedule
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Store == nil {
		vb.RequiredField("Store")
	}
	if c.Policies == nil {
		vb.RequiredField("Policies")
	}
	if c.Economy == nil {
		vb.RequiredField("Economy")
	}
	if c.Jobs == nil {
		vb.RequiredField("Jobs")
	}
	if c.Oracle == nil {
		vb.RequiredField("Oracle")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}

	return vb.Build()
}

type orchestrator struct {
	store    *worldstate.Store
	policies *policy.Engine
	economy  *economy.Engine
	jobs     *jobs.Engine
	oracle   oracle.Client
	roller   dice.Roller
	fees     economy.FeeSchedule

	handlers atomic.Pointer[HandlerTable]
}

// NewOrchestrator creates a new action orchestrator with the provided
// dependencies and the canonical verb set installed.
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	fees := economy.DefaultFeeSchedule()
	if cfg.Fees != nil {
		fees = *cfg.Fees
	}

	o := &orchestrator{
		store:    cfg.Store,
		policies: cfg.Policies,
		economy:  cfg.Economy,
		jobs:     cfg.Jobs,
		oracle:   cfg.Oracle,
		roller:   cfg.Roller,
		fees:     fees,
	}
	o.ReplaceHandlers(o.defaultHandlers())
	return o, nil
}

// Ensure orchestrator implements Service
var _ Service = (*orchestrator)(nil)

// WildPolicy is the effective policy outside any city: no guards, no
// taxes, pvp allowed with partial drops and no kill penalty.
func WildPolicy() entities.Policy {
	return entities.Policy{
		GuardDensity:   entities.GuardDensityLow,
		GuardResponse:  entities.GuardResponsePassive,
		GuardLethality: entities.GuardLethalitySubdue,
		PvP: entities.PvPPolicy{
			Enabled:  true,
			DropRule: entities.DropRulePartial,
			Penalty:  entities.PvPPenaltyNone,
		},
		AccessMode: entities.AccessOpen,
	}
}

// Resolve runs one plan for one player inside a single store update, so
// the whole action commits atomically or not at all.
func (o *orchestrator) Resolve(ctx context.Context, input *ResolveInput) (*ResolveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}
	if input.Plan == nil || strings.TrimSpace(input.Plan.Verb) == "" {
		return nil, errors.InvalidArgument("plan with a verb is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCanceled, "resolve aborted")
	}

	table := o.handlers.Load()

	var result *Result
	err := o.store.Update(func(w *worldstate.World) error {
		result = o.resolveLocked(w, *table, input.PlayerID, input.Plan)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve action")
	}

	slog.Info("Action resolved",
		"player_id", input.PlayerID,
		"verb", input.Plan.Verb,
		"rejected", result.Rejected,
		"denied", result.Denied,
		"unresolved", result.Unresolved,
	)

	return &ResolveOutput{Result: result}, nil
}

// resolveLocked is the kernel path. It runs under the store's write lock.
func (o *orchestrator) resolveLocked(w *worldstate.World, table HandlerTable, playerID string, plan *oracle.Plan) *Result {
	p := w.EnsurePlayer(playerID)

	room, ok := w.Room(p.Location)
	if !ok {
		return &Result{
			Rejected:     true,
			RejectReason: fmt.Sprintf("invalid location: room %q no longer exists", p.Location),
			Summary:      "The ground you stood on is gone from the map.",
			Player:       p.Clone(),
		}
	}

	hc := &HandlerContext{
		World:  w,
		Player: p,
		Room:   room,
		Policy: WildPolicy(),
		Plan:   plan,
	}
	if city, ok := w.CityForRoom(room.ID); ok {
		hc.City = city
		hc.Policy = o.policies.EffectivePolicy(city, w.Factions())
	}

	verb := strings.ToLower(strings.TrimSpace(plan.Verb))
	h, ok := table[verb]
	if !ok {
		return &Result{
			Summary:    fmt.Sprintf("You mean to %s; the world takes note but nothing comes of it yet.", verb),
			Player:     p.Clone(),
			Unresolved: true,
			Meta:       map[string]any{"verb": verb},
		}
	}

	before := p.Clone()
	res, err := h(hc)
	if err != nil {
		*p = *before
		slog.Error("Action handler failed",
			"player_id", playerID,
			"verb", verb,
			"error", err,
		)
		return &Result{
			Rejected:     true,
			RejectReason: "the action came apart mid-motion",
			Summary:      "The action came apart mid-motion; nothing happened.",
			Player:       p.Clone(),
		}
	}
	if res.Rejected {
		// No side effects on rejection, byte for byte.
		*p = *before
	}
	res.Player = p.Clone()
	return res
}

// Apply is the exposed surface for clients.
func (o *orchestrator) Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}

	plan := input.Plan
	if plan != nil {
		verb := strings.ToLower(strings.TrimSpace(plan.Verb))
		table := o.handlers.Load()
		if _, ok := (*table)[verb]; !ok {
			return nil, errors.InvalidArgumentf("unknown verb %q", plan.Verb)
		}
	} else {
		text := strings.TrimSpace(input.FreeText)
		if text == "" {
			return nil, errors.InvalidArgument("a plan or free text is required")
		}

		proposed, err := o.planFromText(ctx, input.PlayerID, text)
		if err != nil {
			slog.Warn("Oracle could not plan free text; recording unresolved",
				"player_id", input.PlayerID,
				"error", err,
			)
			player, perr := o.store.EnsurePlayer(input.PlayerID)
			if perr != nil {
				return nil, perr
			}
			return &ApplyOutput{Result: &Result{
				Summary:    "Your intent is noted, but nothing in the world answers it yet.",
				Player:     player,
				Unresolved: true,
				Meta:       map[string]any{"free_text": text},
			}}, nil
		}
		plan = proposed
	}

	out, err := o.Resolve(ctx, &ResolveInput{PlayerID: input.PlayerID, Plan: plan})
	if err != nil {
		return nil, err
	}
	return &ApplyOutput{Result: out.Result}, nil
}

// planFromText asks the oracle for a plan, handing it the player's current
// surroundings as context.
func (o *orchestrator) planFromText(ctx context.Context, playerID, text string) (*oracle.Plan, error) {
	player, err := o.store.EnsurePlayer(playerID)
	if err != nil {
		return nil, err
	}

	req := &oracle.ProposePlanInput{
		ActorID:  playerID,
		FreeText: text,
		Player:   player,
	}
	viewErr := o.store.View(func(w *worldstate.World) error {
		room, ok := w.Room(player.Location)
		if !ok {
			return nil
		}
		req.Room = room.Clone()
		if city, ok := w.CityForRoom(room.ID); ok {
			eff := o.policies.EffectivePolicy(city, w.Factions())
			req.Policy = &eff
		}
		return nil
	})
	if viewErr != nil {
		return nil, viewErr
	}

	out, err := o.oracle.ProposePlan(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.Plan, nil
}

// ResolveNPC applies an autonomy plan to an NPC. NPCs never gain player
// records; only movement and idling are honored.
func (o *orchestrator) ResolveNPC(ctx context.Context, input *ResolveNPCInput) (*ResolveNPCOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.NPCID == "" {
		return nil, errors.InvalidArgument("NPC ID is required")
	}
	if input.Plan == nil || strings.TrimSpace(input.Plan.Verb) == "" {
		return nil, errors.InvalidArgument("plan with a verb is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCanceled, "npc resolve aborted")
	}

	var result *Result
	err := o.store.Update(func(w *worldstate.World) error {
		npc, ok := w.NPC(input.NPCID)
		if !ok {
			return errors.NotFoundf("npc %q not found", input.NPCID)
		}
		result = resolveNPCLocked(w, npc, input.Plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("NPC plan resolved",
		"npc_id", input.NPCID,
		"verb", input.Plan.Verb,
		"rejected", result.Rejected,
		"unresolved", result.Unresolved,
	)

	return &ResolveNPCOutput{Result: result}, nil
}

func resolveNPCLocked(w *worldstate.World, npc *entities.NPC, plan *oracle.Plan) *Result {
	verb := strings.ToLower(strings.TrimSpace(plan.Verb))
	switch verb {
	case "move":
		room, ok := w.Room(npc.Location)
		if !ok {
			return &Result{
				Rejected:     true,
				RejectReason: fmt.Sprintf("npc location %q no longer exists", npc.Location),
			}
		}
		target := strings.TrimSpace(plan.Target)
		if target == "" || !room.HasNeighbor(target) {
			return &Result{
				Rejected:     true,
				RejectReason: fmt.Sprintf("no path from %q to %q", room.ID, target),
			}
		}
		if _, ok := w.Room(target); !ok {
			return &Result{
				Rejected:     true,
				RejectReason: fmt.Sprintf("room %q no longer exists", target),
			}
		}
		npc.Location = target
		return &Result{
			Summary: fmt.Sprintf("%s drifts on toward %s.", npc.Name, target),
			Meta:    map[string]any{"npc_id": npc.ID, "to": target},
		}
	case "observe", "talk":
		return &Result{
			Summary: fmt.Sprintf("%s lingers, watching the room.", npc.Name),
			Meta:    map[string]any{"npc_id": npc.ID},
		}
	default:
		return &Result{
			Unresolved: true,
			Summary:    fmt.Sprintf("%s considers something beyond the kernel's reach.", npc.Name),
			Meta:       map[string]any{"npc_id": npc.ID, "verb": verb},
		}
	}
}

// Status reports the player's surroundings. Read-only.
func (o *orchestrator) Status(ctx context.Context, input *StatusInput) (*StatusOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}

	out := &StatusOutput{}
	err := o.store.View(func(w *worldstate.World) error {
		p, ok := w.Player(input.PlayerID)
		if !ok {
			return errors.NotFoundf("player %q not found", input.PlayerID)
		}
		out.Player = p.Clone()
		out.Tick = w.Tick()

		room, ok := w.Room(p.Location)
		if !ok {
			return nil
		}
		out.Room = room.Clone()

		if city, ok := w.CityForRoom(room.ID); ok {
			out.City = city.Clone()
			eff := o.policies.EffectivePolicy(city, w.Factions())
			out.Policy = &eff
		} else {
			wild := WildPolicy()
			out.Policy = &wild
		}

		for _, npc := range w.NPCsInRoom(room.ID) {
			out.NPCs = append(out.NPCs, npc.Clone())
		}
		for _, other := range w.PlayersInRoom(room.ID) {
			if other.ID != p.ID {
				out.OtherPlayers++
			}
		}

		if conn, err := w.RoomConnectivity(room.ID); err == nil {
			out.Connectivity = &conn
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterHandler installs or replaces one verb via copy-on-write, so
// readers never see a partially updated table.
func (o *orchestrator) RegisterHandler(verb string, h Handler) {
	verb = strings.ToLower(strings.TrimSpace(verb))
	for {
		old := o.handlers.Load()
		next := make(HandlerTable, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[verb] = h
		if o.handlers.CompareAndSwap(old, &next) {
			slog.Info("Action handler registered", "verb", verb)
			return
		}
	}
}

// ReplaceHandlers swaps in a whole new table.
func (o *orchestrator) ReplaceHandlers(table HandlerTable) {
	next := make(HandlerTable, len(table))
	for k, v := range table {
		next[strings.ToLower(strings.TrimSpace(k))] = v
	}
	o.handlers.Store(&next)
}

// Verbs lists the verbs the current table claims, sorted.
func (o *orchestrator) Verbs() []string {
	table := o.handlers.Load()
	out := make([]string, 0, len(*table))
	for verb := range *table {
		out = append(out, verb)
	}
	sort.Strings(out)
	return out
}
