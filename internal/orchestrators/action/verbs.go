package action

import (
	"fmt"
	"math"
	"strings"

	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// Fixed costs and gains for the canonical verbs.
const (
	// Penalty for swinging at a guard, or at a player where pvp is off.
	deniedAttackFine = 25
	deniedAttackHeat = 10

	// Heat from violence, by zone and outcome.
	attackHeatCity  = 10
	attackHeatWild  = 2
	killHeatCity    = 20
	killHeatWild    = 5
	pvpKillHeatCity = 25

	// An NPC drops on a 2d6 total at or above this; NPCs carry no health
	// bar.
	npcKillThreshold = 9

	// Death-penalty rates.
	pvpCreditLossRate   = 0.20
	deathCreditLossRate = 0.10
	partialDropShare    = 0.30

	// Sanctioned-kill penalties inside cities.
	pvpKillFine   = 50
	pvpBountyPost = 100

	// Reputation bases, scaled by the policy engine's multiplier table.
	tradeReputationBase = 4
	killReputationBase  = -10

	reportTitleLimit = 60
)

func (o *orchestrator) defaultHandlers() HandlerTable {
	return HandlerTable{
		"move":     o.handleMove,
		"observe":  o.handleObserve,
		"withdraw": o.handleWithdraw,
		"attack":   o.handleAttack,
		"trade":    o.handleTrade,
		"buy":      o.handleBuy,
		"sell":     o.handleSell,
		"talk":     o.handleTalk,
		"work":     o.handleWork,
		"report":   o.handleReport,
		"die":      o.handleDie,
		"respawn":  o.handleRespawn,
	}
}

// reject builds a no-mutation validation failure. The engine restores the
// player's pre-image whenever it sees one.
func reject(reason string) *Result {
	return &Result{Rejected: true, RejectReason: reason, Summary: reason}
}

func (o *orchestrator) handleMove(hc *HandlerContext) (*Result, error) {
	target := strings.TrimSpace(hc.Plan.Target)
	if target == "" {
		return reject("move where? name a neighboring room"), nil
	}
	if !hc.Room.HasNeighbor(target) {
		return reject(fmt.Sprintf("no path from %s to %q", hc.Room.Name, target)), nil
	}
	dest, ok := hc.World.Room(target)
	if !ok {
		return reject(fmt.Sprintf("the way to %q has collapsed", target)), nil
	}

	// Entering a city from outside runs against its gate policy.
	if destCity, ok := hc.World.CityForRoom(dest.ID); ok && (hc.City == nil || hc.City.ID != destCity.ID) {
		eff := o.policies.EffectivePolicy(destCity, hc.World.Factions())
		switch eff.AccessMode {
		case entities.AccessClosed:
			return &Result{
				Summary: fmt.Sprintf("The gates of %s are sealed. Nobody gets in today.", destCity.Name),
				Cues:    SensoryCues{Visual: "shuttered gates", Audio: "a guard tapping the bar, twice"},
				Denied:  true,
				Meta:    map[string]any{"access": string(entities.AccessClosed), "city_id": destCity.ID},
			}, nil
		case entities.AccessCitizens:
			if !knowsCity(hc.World, hc.Player, destCity.ID) {
				return &Result{
					Summary: fmt.Sprintf("The wardens of %s turn you away: citizens only.", destCity.Name),
					Cues:    SensoryCues{Audio: "a bored voice reading the standing order"},
					Denied:  true,
					Meta:    map[string]any{"access": string(entities.AccessCitizens), "city_id": destCity.ID},
				}, nil
			}
		}
	}

	from := hc.Room.ID
	hc.Player.Location = dest.ID
	hc.Player.DiscoverRoom(dest.ID)

	cues := SensoryCues{Visual: "heat shimmer over open ground", Audio: "wind working through the drifts"}
	if dest.Zone == entities.ZoneCity {
		cues = SensoryCues{Visual: "lamplight on cracked plaster", Audio: "street chatter closing in around you"}
	}
	return &Result{
		Summary: fmt.Sprintf("You make your way to %s.", dest.Name),
		Cues:    cues,
		Meta:    map[string]any{"from": from, "to": dest.ID},
	}, nil
}

func (o *orchestrator) handleObserve(hc *HandlerContext) (*Result, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You take in %s.", hc.Room.Name)

	npcs := hc.World.NPCsInRoom(hc.Room.ID)
	if len(npcs) > 0 {
		names := make([]string, 0, len(npcs))
		for _, n := range npcs {
			names = append(names, n.Name)
		}
		fmt.Fprintf(&b, " Here: %s.", strings.Join(names, ", "))
	}

	others := 0
	for _, p := range hc.World.PlayersInRoom(hc.Room.ID) {
		if p.ID != hc.Player.ID {
			others++
		}
	}
	if others > 0 {
		fmt.Fprintf(&b, " Strangers about: %d.", others)
	}
	if len(hc.Room.Neighbors) > 0 {
		fmt.Fprintf(&b, " Ways out: %s.", strings.Join(hc.Room.Neighbors, ", "))
	}

	cues := SensoryCues{
		Visual: "heat shimmer over open ground",
		Audio:  "wind working through the drifts",
		Smell:  "dust and hot metal",
	}
	if hc.Room.Zone == entities.ZoneCity {
		cues = SensoryCues{
			Visual: "lamplight on cracked plaster",
			Audio:  "market chatter and far-off machinery",
			Smell:  "fried dough and ozone",
		}
	}

	return &Result{
		Summary: b.String(),
		Cues:    cues,
		Meta:    map[string]any{"npcs": len(npcs), "players": others},
	}, nil
}

func (o *orchestrator) handleWithdraw(hc *HandlerContext) (*Result, error) {
	if hc.City == nil {
		return reject("there is no credit terminal out here"), nil
	}
	if !containsString(hc.Policy.WithdrawPoints, hc.Room.ID) {
		return reject(fmt.Sprintf("no withdraw point in %s", hc.Room.Name)), nil
	}

	amount := hc.Plan.Amount
	if amount <= 0 {
		return reject("withdrawal amount must be positive"), nil
	}

	rate := hc.Policy.Tax.Withdraw
	if rate <= 0 {
		rate = o.fees.Withdraw
	}
	fee := int(math.Ceil(float64(amount) * rate))
	if amount+fee > hc.Player.Credits {
		return reject(fmt.Sprintf("insufficient funds: %d needed including the %d fee, %d held", amount+fee, fee, hc.Player.Credits)), nil
	}

	hc.Player.AdjustCredits(-(amount + fee))

	return &Result{
		Summary: fmt.Sprintf("The terminal counts out %d credits and keeps %d for the house.", amount, fee),
		Cues:    SensoryCues{Audio: "the terminal's slow clatter", Touch: "warm scrip in hand"},
		Meta:    map[string]any{"amount": amount, "fee": fee, "rate": rate},
	}, nil
}

func (o *orchestrator) handleAttack(hc *HandlerContext) (*Result, error) {
	target := strings.TrimSpace(hc.Plan.Target)
	if target == "" {
		return reject("attack whom? name a target in the room"), nil
	}

	npc := findNPC(hc.World, hc.Room.ID, target)
	var victim *entities.Player
	if npc == nil {
		victim = findPlayer(hc.World, hc.Room.ID, hc.Player.ID, target)
		if victim == nil {
			return reject(fmt.Sprintf("no target called %q here", target)), nil
		}
	}

	inCity := hc.City != nil
	guardTarget := npc != nil && npc.Role == entities.RoleGuard
	if inCity && !hc.Policy.PvP.Enabled && (guardTarget || victim != nil) {
		hc.Player.AdjustCredits(-deniedAttackFine)
		hc.Player.AdjustHeat(deniedAttackHeat)
		hc.Player.WantedLevel = jobs.WantedLevelFor(hc.Player.Heat)

		whom := target
		if npc != nil {
			whom = npc.Name
		}
		return &Result{
			Summary: fmt.Sprintf("Guards slam you down before you reach %s. The fine comes straight off your balance.", whom),
			Cues:    SensoryCues{Audio: "a whistle, then boots", Touch: "gauntlets pinning your arms"},
			Denied:  true,
			Meta:    map[string]any{"fine": deniedAttackFine, "heat": deniedAttackHeat},
		}, nil
	}

	rolls, err := o.roller.RollN(2, 6)
	if err != nil {
		return nil, errors.Wrap(err, "damage roll failed")
	}
	damage := 0
	for _, r := range rolls {
		damage += r
	}

	meta := map[string]any{"rolls": rolls, "damage": damage, "target": target}
	res := &Result{Meta: meta}

	if npc != nil {
		if damage >= npcKillThreshold {
			heat := killHeatWild
			if inCity {
				heat = killHeatCity
			}
			hc.Player.AdjustHeat(heat)
			hc.Player.WantedLevel = jobs.WantedLevelFor(hc.Player.Heat)

			if f, ok := hc.World.Faction(npc.FactionID); ok {
				delta := o.policies.ApplyReputation(hc.Player, f, policy.ActionAttack, killReputationBase)
				res.Deltas = append(res.Deltas, ReputationDelta{FactionID: f.ID, Action: policy.ActionAttack, Delta: delta})
			}
			hc.World.RemoveNPC(npc.ID)

			meta["killed"] = true
			res.Summary = fmt.Sprintf("%s drops under the blow and does not get up.", npc.Name)
			res.Cues = SensoryCues{Visual: "a body in the dust", Audio: "sudden quiet"}
			return res, nil
		}

		npc.Memory = fmt.Sprintf("attacked by %s", hc.Player.ID)
		heat := attackHeatWild
		if inCity {
			heat = attackHeatCity
		}
		hc.Player.AdjustHeat(heat)
		hc.Player.WantedLevel = jobs.WantedLevelFor(hc.Player.Heat)

		res.Summary = fmt.Sprintf("You strike %s for %d. They stagger but hold.", npc.Name, damage)
		res.Cues = SensoryCues{Audio: "the crack of the blow"}
		return res, nil
	}

	victim.AdjustHealth(-damage)
	if victim.Health > 0 {
		heat := attackHeatWild
		if inCity {
			heat = attackHeatCity
		}
		hc.Player.AdjustHeat(heat)
		hc.Player.WantedLevel = jobs.WantedLevelFor(hc.Player.Heat)

		res.Summary = fmt.Sprintf("You hit %s for %d.", victim.ID, damage)
		res.Cues = SensoryCues{Audio: "a grunt of pain"}
		return res, nil
	}

	// Killing blow: the victim eats the death penalty and respawns.
	outcome := applyDeath(hc.World, hc.Policy, victim, true)
	heat := killHeatWild
	if inCity {
		heat = pvpKillHeatCity
	}
	hc.Player.AdjustHeat(heat)
	hc.Player.WantedLevel = jobs.WantedLevelFor(hc.Player.Heat)

	meta["killed"] = true
	meta["credit_loss"] = outcome.CreditLoss
	meta["items_dropped"] = outcome.ItemsDropped
	meta["respawn_room"] = outcome.RespawnRoomID

	switch hc.Policy.PvP.Penalty {
	case entities.PvPPenaltyBounty:
		if law := lawFaction(hc); law != nil {
			postBounty(hc.Player, law.ID, pvpBountyPost)
			delta := o.policies.ApplyReputation(hc.Player, law, policy.ActionAttack, killReputationBase)
			res.Deltas = append(res.Deltas, ReputationDelta{FactionID: law.ID, Action: policy.ActionAttack, Delta: delta})
			meta["bounty"] = pvpBountyPost
			break
		}
		// No law faction holds the zone; a flat fine stands in.
		fallthrough
	case entities.PvPPenaltyFine:
		hc.Player.AdjustCredits(-pvpKillFine)
		meta["fine"] = pvpKillFine
	}

	res.Summary = fmt.Sprintf("%s goes down under your last swing and is carried off.", victim.ID)
	res.Cues = SensoryCues{Visual: "the crowd pulling back", Audio: "shouting, then running feet"}
	return res, nil
}

func (o *orchestrator) handleTrade(hc *HandlerContext) (*Result, error) {
	item := strings.TrimSpace(hc.Plan.Item)
	if item == "" {
		return reject("name the goods to trade"), nil
	}
	// Holding the item means selling it; otherwise it is a purchase.
	return o.executeTrade(hc, item, !hc.Player.HasItem(item))
}

func (o *orchestrator) handleBuy(hc *HandlerContext) (*Result, error) {
	item := strings.TrimSpace(hc.Plan.Item)
	if item == "" {
		return reject("name the goods to buy"), nil
	}
	return o.executeTrade(hc, item, true)
}

func (o *orchestrator) handleSell(hc *HandlerContext) (*Result, error) {
	item := strings.TrimSpace(hc.Plan.Item)
	if item == "" {
		return reject("name the goods to sell"), nil
	}
	return o.executeTrade(hc, item, false)
}

func (o *orchestrator) executeTrade(hc *HandlerContext, item string, buying bool) (*Result, error) {
	merchant := findMerchant(hc.World, hc.Room.ID, strings.TrimSpace(hc.Plan.Target))
	if merchant == nil {
		return reject("no merchant here to trade with"), nil
	}

	qty := hc.Plan.Amount
	if qty < 1 {
		qty = 1
	}

	if buying {
		quote, err := o.economy.QuoteBuy(hc.World, merchant.ID, item, qty)
		switch {
		case errors.IsNotFound(err):
			return reject(fmt.Sprintf("%s does not deal in %q", merchant.Name, item)), nil
		case errors.IsFailedPrecondition(err):
			return reject(fmt.Sprintf("%s cannot cover an order of %d %s", merchant.Name, qty, item)), nil
		case err != nil:
			return nil, err
		}

		fee := o.tradeFee(hc, quote.Total)
		total := quote.Total + fee
		if total > hc.Player.Credits {
			return &Result{
				Summary: fmt.Sprintf("%s names the price, %d credits with fees, and you cannot cover it.", merchant.Name, total),
				Denied:  true,
				Meta:    map[string]any{"cost": total, "credits": hc.Player.Credits},
			}, nil
		}

		if _, err := o.economy.Buy(hc.World, merchant.ID, item, qty); err != nil {
			return nil, errors.Wrap(err, "buy failed after quote")
		}
		hc.Player.AdjustCredits(-total)
		for i := 0; i < qty; i++ {
			hc.Player.AddItem(item)
		}

		res := &Result{
			Summary: fmt.Sprintf("You buy %d %s from %s for %d credits, %d of it fees.", qty, item, merchant.Name, total, fee),
			Cues:    SensoryCues{Audio: "scrip counted out on the counter"},
			Meta:    map[string]any{"item": item, "quantity": qty, "unit_price": quote.UnitPrice, "fee": fee, "total": total},
		}
		o.recordTradeReputation(hc, merchant, res)
		rememberNPC(hc.Player, merchant.ID, fmt.Sprintf("bought %d %s", qty, item))
		return res, nil
	}

	if countItems(hc.Player, item) < qty {
		return reject(fmt.Sprintf("you do not hold %d %s", qty, item)), nil
	}

	quote, err := o.economy.QuoteSell(hc.World, merchant.ID, item, qty)
	switch {
	case errors.IsNotFound(err):
		return reject(fmt.Sprintf("%s will not take %q", merchant.Name, item)), nil
	case err != nil:
		return nil, err
	}

	fee := o.tradeFee(hc, quote.Total)
	proceeds := quote.Total - fee
	if proceeds < 0 {
		proceeds = 0
	}

	if _, err := o.economy.Sell(hc.World, merchant.ID, item, qty); err != nil {
		return nil, errors.Wrap(err, "sell failed after quote")
	}
	for i := 0; i < qty; i++ {
		hc.Player.RemoveItem(item)
	}
	hc.Player.AdjustCredits(proceeds)

	res := &Result{
		Summary: fmt.Sprintf("You sell %d %s to %s for %d credits after the %d fee.", qty, item, merchant.Name, proceeds, fee),
		Cues:    SensoryCues{Audio: "the merchant's scale settling"},
		Meta:    map[string]any{"item": item, "quantity": qty, "unit_price": quote.UnitPrice, "fee": fee, "proceeds": proceeds},
	}
	o.recordTradeReputation(hc, merchant, res)
	rememberNPC(hc.Player, merchant.ID, fmt.Sprintf("sold %d %s", qty, item))
	return res, nil
}

func (o *orchestrator) handleTalk(hc *HandlerContext) (*Result, error) {
	npcs := hc.World.NPCsInRoom(hc.Room.ID)

	var npc *entities.NPC
	target := strings.TrimSpace(hc.Plan.Target)
	if target != "" {
		npc = findNPC(hc.World, hc.Room.ID, target)
	} else if len(npcs) == 1 {
		npc = npcs[0]
	}
	if npc == nil {
		switch {
		case target != "":
			return reject(fmt.Sprintf("nobody called %q is here", target)), nil
		case len(npcs) > 1:
			return reject("talk to whom? several people are here"), nil
		default:
			return reject("there is nobody here to talk to"), nil
		}
	}

	topic := strings.TrimSpace(hc.Plan.Item)
	if topic == "" {
		topic = "default"
	}

	res := &Result{Meta: map[string]any{"npc_id": npc.ID, "topic": topic}}
	if line, ok := npc.DialogueFor(topic); ok {
		res.Summary = fmt.Sprintf("%s: %q", npc.Name, line)
		res.Cues = SensoryCues{Audio: line}
	} else {
		res.Summary = fmt.Sprintf("%s has nothing to say about that.", npc.Name)
	}
	if len(npc.Quests) > 0 {
		quests := make([]entities.Quest, len(npc.Quests))
		copy(quests, npc.Quests)
		res.Meta["quests"] = quests
	}

	rememberNPC(hc.Player, npc.ID, "talked about "+topic)
	return res, nil
}

func (o *orchestrator) handleWork(hc *HandlerContext) (*Result, error) {
	jobID := strings.TrimSpace(hc.Plan.Target)
	if jobID == "" {
		jobID = strings.TrimSpace(hc.Plan.Item)
	}
	if jobID == "" {
		return reject("name the job to work"), nil
	}

	run, err := o.jobs.Run(hc.World, hc.Player.ID, jobID)
	switch {
	case errors.IsNotFound(err):
		return reject(fmt.Sprintf("no job called %q", jobID)), nil
	case errors.IsFailedPrecondition(err):
		return &Result{
			Summary: fmt.Sprintf("The fixer waves you off: %s.", errors.GetMessage(err)),
			Denied:  true,
			Meta:    map[string]any{"job_id": jobID, "reason": errors.GetMessage(err)},
		}, nil
	case err != nil:
		return nil, err
	}

	return &Result{
		Summary: fmt.Sprintf("You work %s. %+d credits; heat sits at %d, wanted %d.", run.JobID, run.Applied.Credits, hc.Player.Heat, run.WantedLevel),
		Cues:    SensoryCues{Touch: "grime worked deep into your palms"},
		Meta:    map[string]any{"job_id": run.JobID, "applied": run.Applied, "wanted_level": run.WantedLevel, "ready_at": run.ReadyAt},
	}, nil
}

func (o *orchestrator) handleReport(hc *HandlerContext) (*Result, error) {
	notes := strings.TrimSpace(hc.Plan.Notes)
	if notes == "" {
		return reject("describe what went wrong"), nil
	}

	title := notes
	if r := []rune(title); len(r) > reportTitleLimit {
		title = string(r[:reportTitleLimit])
	}
	report := hc.World.PushBugReport(entities.BugReport{
		Title:    title,
		Detail:   notes,
		PlayerID: hc.Player.ID,
	})

	return &Result{
		Summary: "Logged. A world-keeper will look into it.",
		Meta:    map[string]any{"report_id": report.ID},
	}, nil
}

func (o *orchestrator) handleDie(hc *HandlerContext) (*Result, error) {
	if hc.Player.Status == entities.StatusDown {
		return reject("you are already down"), nil
	}

	outcome := applyDeath(hc.World, hc.Policy, hc.Player, false)
	return &Result{
		Summary: fmt.Sprintf("Everything goes dark. You come to at %s, lighter by %d credits.", outcome.RespawnRoomID, outcome.CreditLoss),
		Cues:    SensoryCues{Visual: "white, then grey, then a ceiling", Touch: "cold floor against your back"},
		Meta:    map[string]any{"credit_loss": outcome.CreditLoss, "items_dropped": outcome.ItemsDropped, "respawn_room": outcome.RespawnRoomID},
	}, nil
}

func (o *orchestrator) handleRespawn(hc *HandlerContext) (*Result, error) {
	if hc.Player.Status != entities.StatusDown && hc.Player.Health > 0 {
		return reject("you are still on your feet"), nil
	}

	outcome := applyDeath(hc.World, hc.Policy, hc.Player, false)
	return &Result{
		Summary: fmt.Sprintf("You drag yourself back together at %s.", outcome.RespawnRoomID),
		Cues:    SensoryCues{Touch: "pins and needles everywhere at once"},
		Meta:    map[string]any{"credit_loss": outcome.CreditLoss, "items_dropped": outcome.ItemsDropped, "respawn_room": outcome.RespawnRoomID},
	}, nil
}

// deathOutcome reports what the death-penalty algorithm took.
type deathOutcome struct {
	CreditLoss    int
	ItemsDropped  int
	RespawnRoomID string
}

// applyDeath runs the death-penalty algorithm on the victim and respawns
// them. Losses are destroyed, never transferred to a killer.
func applyDeath(w *worldstate.World, pol entities.Policy, victim *entities.Player, pvp bool) deathOutcome {
	rate := deathCreditLossRate
	if pvp {
		rate = pvpCreditLossRate
	}
	loss := int(math.Floor(float64(victim.Credits) * rate))
	victim.AdjustCredits(-loss)

	drop := 0
	switch pol.PvP.DropRule {
	case entities.DropRulePartial:
		drop = int(math.Floor(float64(len(victim.Inventory)) * partialDropShare))
	case entities.DropRuleFull:
		if pvp {
			drop = len(victim.Inventory)
		}
	}
	if drop > 0 {
		// The most recent acquisitions scatter first.
		victim.Inventory = victim.Inventory[:len(victim.Inventory)-drop]
	}

	respawn := w.RespawnRoomFor(victim)
	victim.Location = respawn
	victim.DiscoverRoom(respawn)
	victim.Health = entities.StatMax
	victim.Status = entities.StatusOK

	return deathOutcome{CreditLoss: loss, ItemsDropped: drop, RespawnRoomID: respawn}
}

func (o *orchestrator) tradeFee(hc *HandlerContext, total int) int {
	rate := hc.Policy.Tax.Trade
	if rate <= 0 {
		rate = o.fees.Trade
	}
	return int(math.Ceil(float64(total) * rate))
}

func (o *orchestrator) recordTradeReputation(hc *HandlerContext, merchant *entities.NPC, res *Result) {
	f, ok := hc.World.Faction(merchant.FactionID)
	if !ok {
		return
	}
	delta := o.policies.ApplyReputation(hc.Player, f, policy.ActionTrade, tradeReputationBase)
	res.Deltas = append(res.Deltas, ReputationDelta{FactionID: f.ID, Action: policy.ActionTrade, Delta: delta})
}

// lawFaction is the faction holding the city's zone, if any. Zone ids
// mirror city ids.
func lawFaction(hc *HandlerContext) *entities.Faction {
	if hc.City == nil {
		return nil
	}
	z := hc.World.Zone(hc.City.ID)
	if z.ControllingFactionID == "" {
		return nil
	}
	f, ok := hc.World.Faction(z.ControllingFactionID)
	if !ok {
		return nil
	}
	return f
}

func postBounty(p *entities.Player, factionID string, amount int) {
	if p.Bounties == nil {
		p.Bounties = make(map[string]int)
	}
	p.Bounties[factionID] += amount
}

func rememberNPC(p *entities.Player, npcID, note string) {
	if p.NPCMemory == nil {
		p.NPCMemory = make(map[string]string)
	}
	p.NPCMemory[npcID] = note
}

func findNPC(w *worldstate.World, roomID, target string) *entities.NPC {
	lowered := strings.ToLower(target)
	for _, n := range w.NPCsInRoom(roomID) {
		if n.ID == target || strings.ToLower(n.Name) == lowered {
			return n
		}
	}
	return nil
}

func findMerchant(w *worldstate.World, roomID, target string) *entities.NPC {
	if target != "" {
		npc := findNPC(w, roomID, target)
		if npc != nil && npc.Role == entities.RoleMerchant {
			return npc
		}
		return nil
	}
	for _, n := range w.NPCsInRoom(roomID) {
		if n.Role == entities.RoleMerchant {
			return n
		}
	}
	return nil
}

func findPlayer(w *worldstate.World, roomID, selfID, target string) *entities.Player {
	for _, p := range w.PlayersInRoom(roomID) {
		if p.ID != selfID && p.ID == target {
			return p
		}
	}
	return nil
}

func knowsCity(w *worldstate.World, p *entities.Player, cityID string) bool {
	for _, id := range p.Discovered {
		if r, ok := w.Room(id); ok && r.CityID == cityID {
			return true
		}
	}
	return false
}

func countItems(p *entities.Player, itemID string) int {
	n := 0
	for _, it := range p.Inventory {
		if it == itemID {
			n++
		}
	}
	return n
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
