package builders

import "github.com/driftlands/worldsim/internal/entities"

// NPCBuilder provides a fluent interface for building test NPC instances
type NPCBuilder struct {
	npc *entities.NPC
}

// NewNPCBuilder creates a new builder with a generic drifter
func NewNPCBuilder() *NPCBuilder {
	return &NPCBuilder{
		npc: &entities.NPC{
			ID:       "npc-test-123",
			Name:     "Moth",
			Role:     entities.RoleDrifter,
			Location: "haven_square",
		},
	}
}

// WithID sets the NPC ID
func (b *NPCBuilder) WithID(id string) *NPCBuilder {
	b.npc.ID = id
	return b
}

// WithName sets the display name
func (b *NPCBuilder) WithName(name string) *NPCBuilder {
	b.npc.Name = name
	return b
}

// WithRole sets the role string
func (b *NPCBuilder) WithRole(role string) *NPCBuilder {
	b.npc.Role = role
	return b
}

// WithLocation places the NPC in a room
func (b *NPCBuilder) WithLocation(roomID string) *NPCBuilder {
	b.npc.Location = roomID
	return b
}

// WithFaction sets the faction allegiance
func (b *NPCBuilder) WithFaction(factionID string) *NPCBuilder {
	b.npc.FactionID = factionID
	return b
}

// WithDialogue adds a topic/line pair
func (b *NPCBuilder) WithDialogue(topic, line string) *NPCBuilder {
	if b.npc.Dialogues == nil {
		b.npc.Dialogues = make(map[string]string)
	}
	b.npc.Dialogues[topic] = line
	return b
}

// WithQuest appends a quest the NPC hands out
func (b *NPCBuilder) WithQuest(quest entities.Quest) *NPCBuilder {
	b.npc.Quests = append(b.npc.Quests, quest)
	return b
}

// WithStock replaces the item ids the NPC trades
func (b *NPCBuilder) WithStock(itemIDs ...string) *NPCBuilder {
	b.npc.Stock = itemIDs
	return b
}

// AsMerchant builds a merchant with a default trade line
func (b *NPCBuilder) AsMerchant() *NPCBuilder {
	b.npc.Role = entities.RoleMerchant
	return b.WithDialogue("default", "Buying or selling?")
}

// AsGuard builds a guard sworn to the given faction
func (b *NPCBuilder) AsGuard(factionID string) *NPCBuilder {
	b.npc.Role = entities.RoleGuard
	b.npc.FactionID = factionID
	return b
}

// Build returns the constructed NPC
func (b *NPCBuilder) Build() *entities.NPC {
	return b.npc
}
