package entities

// NPC roles the kernel gives special treatment. Other role strings are
// carried verbatim.
const (
	RoleGuard    = "guard"
	RoleMerchant = "merchant"
	RoleDrifter  = "drifter"
)

// Quest is a task an NPC can hand out.
type Quest struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Reward int    `json:"reward,omitempty"`
}

// NPC is a non-player actor. Created and destroyed by the lifecycle
// scheduler or by world/content merges.
type NPC struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Role      string            `json:"role,omitempty"`
	Location  string            `json:"location,omitempty"`
	FactionID string            `json:"faction_id,omitempty"`
	Memory    string            `json:"memory,omitempty"`
	Dialogues map[string]string `json:"dialogues,omitempty"`
	Quests    []Quest           `json:"quests,omitempty"`
	Stock     []string          `json:"stock,omitempty"`
}

// Clone returns a deep copy of the NPC.
func (n *NPC) Clone() *NPC {
	if n == nil {
		return nil
	}
	out := *n
	if n.Dialogues != nil {
		out.Dialogues = make(map[string]string, len(n.Dialogues))
		for k, v := range n.Dialogues {
			out.Dialogues[k] = v
		}
	}
	if n.Quests != nil {
		out.Quests = append([]Quest(nil), n.Quests...)
	}
	if n.Stock != nil {
		out.Stock = append([]string(nil), n.Stock...)
	}
	return &out
}

// DialogueFor returns the dialogue line for a topic, falling back to the
// "default" entry. The second return reports whether anything was found.
func (n *NPC) DialogueFor(topic string) (string, bool) {
	if n.Dialogues == nil {
		return "", false
	}
	if line, ok := n.Dialogues[topic]; ok {
		return line, true
	}
	line, ok := n.Dialogues["default"]
	return line, ok
}

// QuestByID looks up one of the NPC's quests.
func (n *NPC) QuestByID(id string) (Quest, bool) {
	for _, q := range n.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}

// Stocks reports whether the NPC trades the given item.
func (n *NPC) Stocks(itemID string) bool {
	for _, it := range n.Stock {
		if it == itemID {
			return true
		}
	}
	return false
}
