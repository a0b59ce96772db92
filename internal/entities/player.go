package entities

import "time"

// PlayerStatus is the player's life state.
type PlayerStatus string

// Player statuses
const (
	StatusOK   PlayerStatus = "ok"
	StatusDown PlayerStatus = "down"
)

// Stat bounds shared by health, hunger, and heat.
const (
	StatMin = 0
	StatMax = 100
)

// Reputation bounds.
const (
	ReputationMin = -100
	ReputationMax = 100
)

// Player is a player-controlled actor. Records are created on first
// reference and mutated only through action resolution or maintenance
// ticks.
type Player struct {
	ID           string               `json:"id"`
	Location     string               `json:"location"`
	Inventory    []string             `json:"inventory,omitempty"`
	Credits      int                  `json:"credits"`
	Health       int                  `json:"health"`
	Hunger       int                  `json:"hunger"`
	Status       PlayerStatus         `json:"status"`
	Heat         int                  `json:"heat"`
	WantedLevel  int                  `json:"wanted_level"`
	JobCooldowns map[string]time.Time `json:"job_cooldowns,omitempty"`
	Discovered   []string             `json:"discovered,omitempty"`
	Known        []string             `json:"known,omitempty"`
	Reputation   map[string]int       `json:"reputation,omitempty"`
	Bounties     map[string]int       `json:"bounties,omitempty"`
	NPCMemory    map[string]string    `json:"npc_memory,omitempty"`
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	out := *p
	if p.Inventory != nil {
		out.Inventory = append([]string(nil), p.Inventory...)
	}
	if p.Discovered != nil {
		out.Discovered = append([]string(nil), p.Discovered...)
	}
	if p.Known != nil {
		out.Known = append([]string(nil), p.Known...)
	}
	if p.JobCooldowns != nil {
		out.JobCooldowns = make(map[string]time.Time, len(p.JobCooldowns))
		for k, v := range p.JobCooldowns {
			out.JobCooldowns[k] = v
		}
	}
	if p.Reputation != nil {
		out.Reputation = make(map[string]int, len(p.Reputation))
		for k, v := range p.Reputation {
			out.Reputation[k] = v
		}
	}
	if p.Bounties != nil {
		out.Bounties = make(map[string]int, len(p.Bounties))
		for k, v := range p.Bounties {
			out.Bounties[k] = v
		}
	}
	if p.NPCMemory != nil {
		out.NPCMemory = make(map[string]string, len(p.NPCMemory))
		for k, v := range p.NPCMemory {
			out.NPCMemory[k] = v
		}
	}
	return &out
}

// HasItem reports whether the item id is present in the inventory.
func (p *Player) HasItem(itemID string) bool {
	for _, it := range p.Inventory {
		if it == itemID {
			return true
		}
	}
	return false
}

// AddItem appends an item to the inventory multiset.
func (p *Player) AddItem(itemID string) {
	p.Inventory = append(p.Inventory, itemID)
}

// RemoveItem removes one occurrence of the item id. It reports whether an
// occurrence was found.
func (p *Player) RemoveItem(itemID string) bool {
	for i, it := range p.Inventory {
		if it == itemID {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// DiscoverRoom records a visited room, preserving first-visit order and
// never duplicating.
func (p *Player) DiscoverRoom(roomID string) {
	for _, id := range p.Discovered {
		if id == roomID {
			return
		}
	}
	p.Discovered = append(p.Discovered, roomID)
}

// HasDiscovered reports whether the player has visited the room.
func (p *Player) HasDiscovered(roomID string) bool {
	for _, id := range p.Discovered {
		if id == roomID {
			return true
		}
	}
	return false
}

// AdjustCredits applies a delta, flooring the balance at zero.
func (p *Player) AdjustCredits(delta int) {
	p.Credits += delta
	if p.Credits < 0 {
		p.Credits = 0
	}
}

// AdjustHealth applies a delta clamped to [0,100].
func (p *Player) AdjustHealth(delta int) {
	p.Health = clampStat(p.Health + delta)
}

// AdjustHunger applies a delta clamped to [0,100].
func (p *Player) AdjustHunger(delta int) {
	p.Hunger = clampStat(p.Hunger + delta)
}

// AdjustHeat applies a delta clamped to [0,100].
func (p *Player) AdjustHeat(delta int) {
	p.Heat = clampStat(p.Heat + delta)
}

// AdjustReputation applies a delta to the faction's running reputation,
// clamped to [-100,100].
func (p *Player) AdjustReputation(factionID string, delta int) {
	if p.Reputation == nil {
		p.Reputation = make(map[string]int)
	}
	v := p.Reputation[factionID] + delta
	if v < ReputationMin {
		v = ReputationMin
	}
	if v > ReputationMax {
		v = ReputationMax
	}
	p.Reputation[factionID] = v
}

func clampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}
