package worldstate

import (
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
)

// WorldSpec is a generated or seeded world layout: the rooms and cities to
// install. Apply replaces the current layout, Merge unions into it.
type WorldSpec struct {
	Rooms  []*entities.Room `json:"rooms"`
	Cities []*entities.City `json:"cities"`
}

// validate checks internal consistency. When base is non-nil (merge),
// references may also resolve against the existing world.
func (s *WorldSpec) validate(base *World) error {
	if s == nil {
		return errors.InvalidArgument("world spec is required")
	}

	vb := errors.NewValidationBuilder()

	cityIDs := make(map[string]bool, len(s.Cities))
	for i, c := range s.Cities {
		if c == nil || c.ID == "" {
			vb.Fieldf("cities", "entry %d is missing an id", i)
			continue
		}
		if cityIDs[c.ID] {
			vb.Fieldf("cities", "duplicate city id %q", c.ID)
		}
		cityIDs[c.ID] = true
	}

	roomIDs := make(map[string]bool, len(s.Rooms))
	for i, r := range s.Rooms {
		if r == nil || r.ID == "" {
			vb.Fieldf("rooms", "entry %d is missing an id", i)
			continue
		}
		if roomIDs[r.ID] {
			vb.Fieldf("rooms", "duplicate room id %q", r.ID)
		}
		roomIDs[r.ID] = true
	}

	hasRoom := func(id string) bool {
		if roomIDs[id] {
			return true
		}
		if base != nil {
			_, ok := base.rooms[id]
			return ok
		}
		return false
	}
	hasCity := func(id string) bool {
		if cityIDs[id] {
			return true
		}
		if base != nil {
			_, ok := base.cities[id]
			return ok
		}
		return false
	}

	for _, r := range s.Rooms {
		if r == nil || r.ID == "" {
			continue
		}
		for _, n := range r.Neighbors {
			if !hasRoom(n) {
				vb.Fieldf(r.ID, "neighbor %q references a missing room", n)
			}
		}
		if r.CityID != "" && !hasCity(r.CityID) {
			vb.Fieldf(r.ID, "city %q references a missing city", r.CityID)
		}
	}

	return vb.Build()
}
