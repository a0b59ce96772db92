package worldstate

import (
	"sort"

	"github.com/driftlands/worldsim/internal/errors"
)

// RoomConnectivity describes how a single room links into the world: its
// owning city, its direct neighbors, and the other rooms of the same city.
type RoomConnectivity struct {
	RoomID    string   `json:"room_id"`
	CityID    string   `json:"city_id,omitempty"`
	Neighbors []string `json:"neighbors"`
	ZoneRooms []string `json:"zone_rooms,omitempty"`
}

// CityConnectivity describes a city's rooms and which other cities it
// touches through cross-city neighbor edges.
type CityConnectivity struct {
	CityID          string   `json:"city_id"`
	Rooms           []string `json:"rooms"`
	ConnectedCities []string `json:"connected_cities"`
}

// Connectivity is the derived link map for the whole world.
type Connectivity struct {
	Rooms  map[string]RoomConnectivity `json:"rooms"`
	Cities map[string]CityConnectivity `json:"cities"`
}

// Connectivity derives the full link map from the current rooms and
// cities. All slices come back sorted so the result is stable for a given
// world.
func (w *World) Connectivity() *Connectivity {
	cityRooms := make(map[string][]string)
	for id, r := range w.rooms {
		if r.CityID != "" {
			cityRooms[r.CityID] = append(cityRooms[r.CityID], id)
		}
	}
	for _, rooms := range cityRooms {
		sort.Strings(rooms)
	}

	cityLinks := make(map[string]map[string]bool)
	link := func(a, b string) {
		if cityLinks[a] == nil {
			cityLinks[a] = make(map[string]bool)
		}
		cityLinks[a][b] = true
	}
	for _, r := range w.rooms {
		if r.CityID == "" {
			continue
		}
		for _, n := range r.Neighbors {
			other, ok := w.rooms[n]
			if !ok || other.CityID == "" || other.CityID == r.CityID {
				continue
			}
			link(r.CityID, other.CityID)
			link(other.CityID, r.CityID)
		}
	}

	out := &Connectivity{
		Rooms:  make(map[string]RoomConnectivity, len(w.rooms)),
		Cities: make(map[string]CityConnectivity, len(w.cities)),
	}
	for id, r := range w.rooms {
		neighbors := append([]string(nil), r.Neighbors...)
		sort.Strings(neighbors)
		out.Rooms[id] = RoomConnectivity{
			RoomID:    id,
			CityID:    r.CityID,
			Neighbors: neighbors,
			ZoneRooms: cityRooms[r.CityID],
		}
	}
	for id := range w.cities {
		var connected []string
		for other := range cityLinks[id] {
			connected = append(connected, other)
		}
		sort.Strings(connected)
		out.Cities[id] = CityConnectivity{
			CityID:          id,
			Rooms:           cityRooms[id],
			ConnectedCities: connected,
		}
	}
	return out
}

// RoomConnectivity derives the link entry for one room.
func (w *World) RoomConnectivity(roomID string) (RoomConnectivity, error) {
	if _, ok := w.rooms[roomID]; !ok {
		return RoomConnectivity{}, errors.NotFoundf("room %q not found", roomID)
	}
	return w.Connectivity().Rooms[roomID], nil
}

// CityConnectivity derives the link entry for one city.
func (w *World) CityConnectivity(cityID string) (CityConnectivity, error) {
	if _, ok := w.cities[cityID]; !ok {
		return CityConnectivity{}, errors.NotFoundf("city %q not found", cityID)
	}
	return w.Connectivity().Cities[cityID], nil
}
