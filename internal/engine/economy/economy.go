// Package economy runs per-tick price discovery, trader inventories, and
// time-boxed market events.
package economy

import (
	"math"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/worldstate"
)

const (
	// DefaultRestockEvery is the trader resync cadence, in market ticks,
	// for traders that don't set their own.
	DefaultRestockEvery = 5

	// Demand nudges per traded unit. Buying pushes the trader's local
	// demand up and the global demand up by a smaller amount; selling
	// pushes both down by smaller amounts still.
	buyTraderDemandNudge  = 0.01
	buyGlobalDemandNudge  = 0.005
	sellTraderDemandNudge = 0.005
	sellGlobalDemandNudge = 0.002

	// Share of an item's restock rate a trader gains on resync.
	traderRestockShare = 0.5
)

// Engine prices the market. It is stateless; all market state lives in the
// world and every method must run inside a store update or view.
type Engine struct{}

// New creates an economy engine
func New() *Engine {
	return &Engine{}
}

// TickMarket advances the market by one tick:
//
//	reprice every catalogue item from demand, supply ratio, and the
//	product of active event multipliers, flooring at 1
//	restock supply toward max stock
//	resync traders whose cadence divides the tick
//	age active events, dropping the ones that expire
func (e *Engine) TickMarket(w *worldstate.World, tick uint64) {
	events := w.MarketEvents()

	for _, item := range w.MarketItems() {
		mult := eventMultiplier(events, item.ID)

		supplyRatio := 0.0
		if item.MaxStock > 0 {
			supplyRatio = float64(item.Supply) / float64(item.MaxStock)
		}
		priceChange := item.Volatility * (item.Demand - supplyRatio)
		newPrice := float64(item.BasePrice) * (1 + priceChange) * mult
		item.CurrentPrice = priceAtLeastOne(newPrice)

		item.Supply = min(item.MaxStock, item.Supply+item.RestockRate)
	}

	for _, t := range w.Traders() {
		every := t.RestockEvery
		if every <= 0 {
			every = DefaultRestockEvery
		}
		if tick%uint64(every) != 0 {
			continue
		}
		e.resyncTrader(w, t)
	}

	var alive []*entities.MarketEvent
	for _, ev := range events {
		ev.RemainingTicks--
		if ev.RemainingTicks > 0 {
			alive = append(alive, ev)
		}
	}
	w.SetMarketEvents(alive)
}

// resyncTrader pulls a trader's shadow prices back toward the global
// market and grants its restock share.
func (e *Engine) resyncTrader(w *worldstate.World, t *entities.Trader) {
	for itemID, local := range t.Items {
		global, ok := w.MarketItem(itemID)
		if !ok {
			continue
		}
		local.Price = priceAtLeastOne(float64(global.CurrentPrice) * t.SellMultiplier)
		local.Stock += int(math.Floor(float64(global.RestockRate) * traderRestockShare))
	}
}

// Quote is a priced trade, before or after execution.
type Quote struct {
	ItemID    string
	Quantity  int
	UnitPrice int
	Total     int
}

// QuoteBuy prices a purchase from a trader's stock. With no trader context
// (npcID empty or unknown), pricing falls back to the flat global rate.
func (e *Engine) QuoteBuy(w *worldstate.World, npcID, itemID string, quantity int) (*Quote, error) {
	if quantity < 1 {
		return nil, errors.InvalidArgument("quantity must be at least 1")
	}

	if t, ok := w.Trader(npcID); ok {
		local, stocked := t.Items[itemID]
		if !stocked {
			return nil, errors.NotFoundf("trader does not carry %q", itemID)
		}
		if local.Stock < quantity {
			return nil, errors.FailedPreconditionf("trader has %d of %q in stock, wanted %d", local.Stock, itemID, quantity)
		}
		return e.quote(itemID, quantity, local.Price), nil
	}

	global, ok := w.MarketItem(itemID)
	if !ok {
		return nil, errors.NotFoundf("item %q is not traded", itemID)
	}
	if global.Supply < quantity {
		return nil, errors.FailedPreconditionf("market has %d of %q available, wanted %d", global.Supply, itemID, quantity)
	}
	return e.quote(itemID, quantity, global.CurrentPrice), nil
}

// QuoteSell prices a sale. Trader purchases pay the global price scaled by
// the trader's buy multiplier; without a trader the flat global rate
// applies.
func (e *Engine) QuoteSell(w *worldstate.World, npcID, itemID string, quantity int) (*Quote, error) {
	if quantity < 1 {
		return nil, errors.InvalidArgument("quantity must be at least 1")
	}

	global, ok := w.MarketItem(itemID)
	if !ok {
		return nil, errors.NotFoundf("item %q is not traded", itemID)
	}

	unit := global.CurrentPrice
	if t, ok := w.Trader(npcID); ok {
		unit = priceAtLeastOne(float64(global.CurrentPrice) * t.BuyMultiplier)
	}
	return e.quote(itemID, quantity, unit), nil
}

// Buy executes a purchase: trader stock and global supply drop, demand
// nudges up. The caller settles credits and inventory in the same store
// update.
func (e *Engine) Buy(w *worldstate.World, npcID, itemID string, quantity int) (*Quote, error) {
	q, err := e.QuoteBuy(w, npcID, itemID, quantity)
	if err != nil {
		return nil, err
	}

	if t, ok := w.Trader(npcID); ok {
		local := t.Items[itemID]
		local.Stock -= quantity
		local.Demand = clampDemand(local.Demand + float64(quantity)*buyTraderDemandNudge)
	}

	if global, ok := w.MarketItem(itemID); ok {
		global.Supply = max(0, global.Supply-quantity)
		global.Demand = clampDemand(global.Demand + float64(quantity)*buyGlobalDemandNudge)
	}

	return q, nil
}

// Sell executes a sale: stock and supply rise, demand nudges down.
func (e *Engine) Sell(w *worldstate.World, npcID, itemID string, quantity int) (*Quote, error) {
	q, err := e.QuoteSell(w, npcID, itemID, quantity)
	if err != nil {
		return nil, err
	}

	if t, ok := w.Trader(npcID); ok {
		local, stocked := t.Items[itemID]
		if !stocked {
			local = &entities.TraderItem{Price: q.UnitPrice}
			t.Items[itemID] = local
		}
		local.Stock += quantity
		local.Demand = clampDemand(local.Demand - float64(quantity)*sellTraderDemandNudge)
	}

	if global, ok := w.MarketItem(itemID); ok {
		global.Supply = min(global.MaxStock, global.Supply+quantity)
		global.Demand = clampDemand(global.Demand - float64(quantity)*sellGlobalDemandNudge)
	}

	return q, nil
}

// ScheduleEvent validates and activates a market event.
func (e *Engine) ScheduleEvent(w *worldstate.World, ev *entities.MarketEvent) (*entities.MarketEvent, error) {
	if ev == nil {
		return nil, errors.InvalidArgument("market event is required")
	}
	if ev.Multiplier <= 0 {
		return nil, errors.InvalidArgument("market event multiplier must be positive")
	}
	if ev.RemainingTicks < 1 {
		return nil, errors.InvalidArgument("market event must last at least one tick")
	}
	if len(ev.ItemIDs) == 0 {
		return nil, errors.InvalidArgument("market event must target at least one item")
	}
	for _, id := range ev.ItemIDs {
		if _, ok := w.MarketItem(id); !ok {
			return nil, errors.NotFoundf("item %q is not traded", id)
		}
	}
	return w.ScheduleMarketEvent(ev), nil
}

func (e *Engine) quote(itemID string, quantity, unit int) *Quote {
	return &Quote{
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: unit,
		Total:     unit * quantity,
	}
}

func eventMultiplier(events []*entities.MarketEvent, itemID string) float64 {
	mult := 1.0
	for _, ev := range events {
		if ev.Targets(itemID) {
			mult *= ev.Multiplier
		}
	}
	return mult
}

func priceAtLeastOne(price float64) int {
	p := int(math.Round(price))
	if p < 1 {
		return 1
	}
	return p
}

func clampDemand(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
