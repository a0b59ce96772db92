package worldstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

// twoCityWorld links haven and lowtide through their gate rooms, with a
// wild room hanging off the haven side.
func twoCityWorld(t *testing.T) *worldstate.Store {
	t.Helper()

	store, err := worldstate.New(&worldstate.Config{
		Clock:              fixedClock{now: testNow},
		IDGenerator:        idgen.NewSequential("conn"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	require.NoError(t, err)

	spec := &worldstate.WorldSpec{
		Cities: []*entities.City{
			{ID: "haven", Name: "Haven"},
			{ID: "lowtide", Name: "Lowtide"},
		},
		Rooms: []*entities.Room{
			{ID: "haven_square", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_gate"}},
			{ID: "haven_gate", CityID: "haven", Zone: entities.ZoneCity, Neighbors: []string{"haven_square", "lowtide_gate", "the_drifts"}},
			{ID: "lowtide_gate", CityID: "lowtide", Zone: entities.ZoneCity, Neighbors: []string{"haven_gate", "lowtide_docks"}},
			{ID: "lowtide_docks", CityID: "lowtide", Zone: entities.ZoneCity, Neighbors: []string{"lowtide_gate"}},
			{ID: "the_drifts", Zone: entities.ZoneWild, Neighbors: []string{"haven_gate"}},
		},
	}
	require.NoError(t, store.Update(func(w *worldstate.World) error {
		return w.ApplyWorld(spec)
	}))
	return store
}

func TestConnectivity_FullMap(t *testing.T) {
	store := twoCityWorld(t)

	var conn *worldstate.Connectivity
	require.NoError(t, store.View(func(w *worldstate.World) error {
		conn = w.Connectivity()
		return nil
	}))

	require.Len(t, conn.Rooms, 5)
	require.Len(t, conn.Cities, 2)

	gate := conn.Rooms["haven_gate"]
	assert.Equal(t, "haven", gate.CityID)
	assert.Equal(t, []string{"haven_square", "lowtide_gate", "the_drifts"}, gate.Neighbors)
	assert.Equal(t, []string{"haven_gate", "haven_square"}, gate.ZoneRooms)

	haven := conn.Cities["haven"]
	assert.Equal(t, []string{"haven_gate", "haven_square"}, haven.Rooms)
	assert.Equal(t, []string{"lowtide"}, haven.ConnectedCities, "gate adjacency links the cities")

	lowtide := conn.Cities["lowtide"]
	assert.Equal(t, []string{"haven"}, lowtide.ConnectedCities)
}

func TestConnectivity_WildRoomHasNoZone(t *testing.T) {
	store := twoCityWorld(t)

	require.NoError(t, store.View(func(w *worldstate.World) error {
		entry, err := w.RoomConnectivity("the_drifts")
		require.NoError(t, err)
		assert.Empty(t, entry.CityID)
		assert.Empty(t, entry.ZoneRooms)
		assert.Equal(t, []string{"haven_gate"}, entry.Neighbors)
		return nil
	}))
}

func TestConnectivity_UnknownIDs(t *testing.T) {
	store := twoCityWorld(t)

	require.NoError(t, store.View(func(w *worldstate.World) error {
		_, err := w.RoomConnectivity("atlantis_square")
		assert.True(t, errors.IsNotFound(err))

		_, err = w.CityConnectivity("atlantis")
		assert.True(t, errors.IsNotFound(err))
		return nil
	}))
}
