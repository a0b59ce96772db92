// Package entities provides the core data structures for the worldsim kernel.
package entities

// Zone is the coarse region tag on a room governing which policy defaults
// and job/combat rules apply.
type Zone string

// Zone tags
const (
	ZoneCity Zone = "city"
	ZoneWild Zone = "wild"
)

// Room is a node in the world graph. Neighbor links are intended to be
// symmetric but are not enforced; only world load/merge writes them.
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Neighbors []string `json:"neighbors,omitempty"`
	CityID    string   `json:"city_id,omitempty"`
	Zone      Zone     `json:"zone"`
}

// HasNeighbor reports whether the given room id is directly linked.
func (r *Room) HasNeighbor(id string) bool {
	for _, n := range r.Neighbors {
		if n == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.Neighbors != nil {
		out.Neighbors = append([]string(nil), r.Neighbors...)
	}
	return &out
}
