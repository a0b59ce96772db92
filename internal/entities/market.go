package entities

// MarketItem is the single global market entry for one item id.
type MarketItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	BasePrice    int     `json:"base_price"`
	CurrentPrice int     `json:"current_price"`
	Supply       int     `json:"supply"`
	Demand       float64 `json:"demand"`
	Volatility   float64 `json:"volatility"`
	RestockRate  int     `json:"restock_rate"`
	MaxStock     int     `json:"max_stock"`
}

// Clone returns a copy of the market item.
func (m *MarketItem) Clone() *MarketItem {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// TraderItem is a trader-local shadow of a market item with its own price,
// stock, and demand.
type TraderItem struct {
	Price  int     `json:"price"`
	Stock  int     `json:"stock"`
	Demand float64 `json:"demand"`
}

// Trader gives a merchant NPC a local market with independent multipliers.
type Trader struct {
	NPCID          string  `json:"npc_id"`
	SellMultiplier float64 `json:"sell_multiplier"`
	BuyMultiplier  float64 `json:"buy_multiplier"`
	// RestockEvery is the trader's own restock cadence in market ticks.
	RestockEvery int                    `json:"restock_every"`
	Items        map[string]*TraderItem `json:"items,omitempty"`
}

// Clone returns a deep copy of the trader.
func (t *Trader) Clone() *Trader {
	if t == nil {
		return nil
	}
	out := *t
	if t.Items != nil {
		out.Items = make(map[string]*TraderItem, len(t.Items))
		for k, v := range t.Items {
			item := *v
			out.Items[k] = &item
		}
	}
	return &out
}

// MarketEvent is a time-boxed price shock. Multipliers of co-active events
// targeting the same item compose multiplicatively.
type MarketEvent struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	ItemIDs        []string `json:"item_ids,omitempty"`
	Multiplier     float64  `json:"multiplier"`
	RemainingTicks int      `json:"remaining_ticks"`
}

// Targets reports whether the event affects the given item.
func (e *MarketEvent) Targets(itemID string) bool {
	for _, id := range e.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the market event.
func (e *MarketEvent) Clone() *MarketEvent {
	if e == nil {
		return nil
	}
	out := *e
	if e.ItemIDs != nil {
		out.ItemIDs = append([]string(nil), e.ItemIDs...)
	}
	return &out
}
