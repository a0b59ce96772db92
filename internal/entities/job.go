package entities

import "time"

// JobDeltas are the stat changes a completed job applies, each clamped to
// its domain on commit.
type JobDeltas struct {
	Credits int `json:"credits"`
	Health  int `json:"health"`
	Hunger  int `json:"hunger"`
	Heat    int `json:"heat"`
}

// Job is one entry in the fixed catalogue of cooldown-gated side
// activities.
type Job struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	// Zone gates the job to a region class. RoomIDs, when set, narrows it
	// to specific rooms instead.
	Zone     Zone          `json:"zone,omitempty"`
	RoomIDs  []string      `json:"room_ids,omitempty"`
	Illegal  bool          `json:"illegal"`
	HeatMin  int           `json:"heat_min"`
	HeatMax  int           `json:"heat_max"`
	Cooldown time.Duration `json:"cooldown"`
	Deltas   JobDeltas     `json:"deltas"`
}

// AllowedAt reports whether the job may run from the given room.
func (j *Job) AllowedAt(room *Room) bool {
	if room == nil {
		return false
	}
	if len(j.RoomIDs) > 0 {
		for _, id := range j.RoomIDs {
			if id == room.ID {
				return true
			}
		}
		return false
	}
	if j.Zone != "" {
		return room.Zone == j.Zone
	}
	return true
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.RoomIDs != nil {
		out.RoomIDs = append([]string(nil), j.RoomIDs...)
	}
	return &out
}
