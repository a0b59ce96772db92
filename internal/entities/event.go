package entities

import "time"

// WorldEvent is one entry in the world's rolling news log.
type WorldEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	CityID    string    `json:"city_id,omitempty"`
	NPCID     string    `json:"npc_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BugReport is a player-filed defect note, consumed by the auto-mitigation
// pass.
type BugReport struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
