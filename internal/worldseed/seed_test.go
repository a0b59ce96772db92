package worldseed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldseed"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

// minimalSeed is the smallest valid document: one city room, one wild room.
const minimalSeed = `
spawn_room: square
wild_fallback_room: waste
rooms:
  - id: square
    name: Square
    city: haven
    neighbors: [waste]
  - id: waste
    name: Waste
    zone: wild
    neighbors: [square]
cities:
  - id: haven
    name: Haven
    policy:
      safety_level: 0.5
      pvp: {enabled: false}
`

type SeedTestSuite struct {
	suite.Suite
}

func (s *SeedTestSuite) newStore(seed *worldseed.Seed) *worldstate.Store {
	store, err := worldstate.New(&worldstate.Config{
		Clock:              &stepClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		IDGenerator:        idgen.NewSequential("seed"),
		SpawnRoomID:        seed.SpawnRoomID,
		WildFallbackRoomID: seed.WildFallbackRoomID,
	})
	s.Require().NoError(err)
	return store
}

func (s *SeedTestSuite) TestLoadDefaultSeed() {
	seed, err := worldseed.Load("../../configs/world.seed.yaml")
	s.Require().NoError(err)

	s.Equal("haven_square", seed.SpawnRoomID)
	s.Equal("the_drifts", seed.WildFallbackRoomID)
	s.Len(seed.World.Rooms, 7)
	s.Len(seed.World.Cities, 2)
	s.Len(seed.Factions, 3)
	s.Len(seed.NPCs, 4)
	s.Len(seed.Scheduled, 2)
	s.Len(seed.MarketItems, 4)
	s.Len(seed.Traders, 3)
	s.Len(seed.Jobs, 4)
	s.Len(seed.Influence, 3)

	for _, r := range seed.World.Rooms {
		if r.CityID != "" {
			s.Equal(entities.ZoneCity, r.Zone, "city rooms default to the city zone")
		}
	}

	var courier *entities.Job
	for _, j := range seed.Jobs {
		if j.ID == "courier_run" {
			courier = j
		}
	}
	s.Require().NotNil(courier)
	s.Equal(10*time.Minute, courier.Cooldown)
	s.Equal(0, courier.HeatMin)
	s.Equal(100, courier.HeatMax, "unset heat_max opens the full band")

	var night *entities.Trader
	for _, t := range seed.Traders {
		if t.NPCID == "lantern_quill" {
			night = t
		}
	}
	s.Require().NotNil(night, "traders may belong to scheduled npcs")
	s.Contains(night.Items, "relic_shard")

	s.Require().NotEmpty(seed.Scheduled)
	var wrap bool
	for _, e := range seed.Scheduled {
		for _, stop := range e.Routine {
			if stop.StartHour > stop.EndHour {
				wrap = true
			}
		}
	}
	s.True(wrap, "the night trader's window wraps midnight")
}

func (s *SeedTestSuite) TestLoadMissingFile() {
	_, err := worldseed.Load("testdata/does-not-exist.yaml")
	s.Error(err)
}

func (s *SeedTestSuite) TestParseFillsPolicyDefaults() {
	seed, err := worldseed.Parse([]byte(minimalSeed))
	s.Require().NoError(err)

	s.Require().Len(seed.World.Cities, 1)
	pol := seed.World.Cities[0].Policy
	s.Equal(entities.GuardDensityLow, pol.GuardDensity)
	s.Equal(entities.GuardResponsePatrol, pol.GuardResponse)
	s.Equal(entities.GuardLethalitySubdue, pol.GuardLethality)
	s.Equal(entities.DropRuleNone, pol.PvP.DropRule)
	s.Equal(entities.PvPPenaltyNone, pol.PvP.Penalty)
	s.Equal(entities.AccessOpen, pol.AccessMode)
}

func (s *SeedTestSuite) TestParseRejectsUnknownFields() {
	_, err := worldseed.Parse([]byte(minimalSeed + "\nspawn_roomx: typo\n"))
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	s.Contains(err.Error(), "spawn_roomx")
}

func (s *SeedTestSuite) TestParseCatchesDanglingReferences() {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "npc location",
			doc: minimalSeed + `
npcs:
  - {id: ghost, name: Ghost, location: nowhere}
`,
			want: "nowhere",
		},
		{
			name: "trader without npc",
			doc: minimalSeed + `
traders:
  - {npc: nobody, sell_multiplier: 1.0, buy_multiplier: 1.0}
`,
			want: "not a seeded npc",
		},
		{
			name: "trader with unknown item",
			doc: minimalSeed + `
npcs:
  - {id: vex, name: Vex, role: merchant, location: square}
traders:
  - npc: vex
    sell_multiplier: 1.0
    buy_multiplier: 1.0
    items:
      - {item: vapor, price: 1, stock: 1}
`,
			want: "unknown item",
		},
		{
			name: "spawn room missing",
			doc: `
spawn_room: elsewhere
wild_fallback_room: waste
rooms:
  - {id: waste, name: Waste, zone: wild}
`,
			want: "elsewhere",
		},
		{
			name: "wild fallback not wild",
			doc: `
spawn_room: square
wild_fallback_room: square
rooms:
  - {id: square, name: Square, zone: city, city: haven}
cities:
  - id: haven
    name: Haven
    policy: {safety_level: 0.5, pvp: {enabled: false}}
`,
			want: "not a wild room",
		},
		{
			name: "influence names unknown faction",
			doc: minimalSeed + `
zone_influence:
  - {zone: haven, faction: nobody, weight: 10}
`,
			want: "unknown faction",
		},
		{
			name: "routine room missing",
			doc: minimalSeed + `
scheduled_npcs:
  - npc: {id: shade, name: Shade}
    routine:
      - {start_hour: 0, end_hour: 24, room: nowhere}
`,
			want: "routine room",
		},
		{
			name: "job room missing",
			doc: minimalSeed + `
jobs:
  - id: dig
    name: Dig
    rooms: [nowhere]
    deltas: {credits: 1}
`,
			want: "nowhere",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := worldseed.Parse([]byte(tc.doc))
			s.Require().Error(err)
			s.True(errors.IsInvalidArgument(err))
			s.Contains(err.Error(), tc.want)
		})
	}
}

func (s *SeedTestSuite) TestParseValidatesJobsAndHours() {
	s.Run("inverted heat band", func() {
		_, err := worldseed.Parse([]byte(minimalSeed + `
jobs:
  - {id: odd, name: Odd, heat_min: 50, heat_max: 40, deltas: {credits: 1}}
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "heat band")
	})

	s.Run("bad cooldown", func() {
		_, err := worldseed.Parse([]byte(minimalSeed + `
jobs:
  - {id: odd, name: Odd, cooldown: 10parsecs, deltas: {credits: 1}}
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "cooldown")
	})

	s.Run("hours out of range", func() {
		_, err := worldseed.Parse([]byte(minimalSeed + `
scheduled_npcs:
  - npc: {id: shade, name: Shade}
    spawn_conditions:
      - {type: time_window, start_hour: 3, end_hour: 25}
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "outside [0,24]")
	})

	s.Run("unknown condition type", func() {
		_, err := worldseed.Parse([]byte(minimalSeed + `
scheduled_npcs:
  - npc: {id: shade, name: Shade}
    spawn_conditions:
      - {type: moon_phase}
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "moon_phase")
	})

	s.Run("unknown policy enum", func() {
		_, err := worldseed.Parse([]byte(`
spawn_room: square
wild_fallback_room: waste
rooms:
  - {id: square, name: Square, city: haven}
  - {id: waste, name: Waste, zone: wild}
cities:
  - id: haven
    name: Haven
    policy:
      safety_level: 0.5
      pvp: {enabled: true, drop_rule: everything}
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "drop_rule")
	})
}

func (s *SeedTestSuite) TestApplyInstallsWorld() {
	seed, err := worldseed.Parse([]byte(minimalSeed + `
glossary:
  scrap: loose currency
factions:
  - {id: wardens, name: Wardens, aggression: 45}
  - {id: syndicate, name: Syndicate, aggression: 80}
zone_influence:
  - {zone: haven, faction: wardens, weight: 65}
  - {zone: haven, faction: syndicate, weight: 50}
npcs:
  - id: vex
    name: Vex
    role: merchant
    location: square
    faction: wardens
market_items:
  - {id: scrap, name: Scrap, base_price: 10, supply: 100, demand: 1.0, volatility: 0.2, max_stock: 200}
traders:
  - npc: vex
    sell_multiplier: 1.2
    buy_multiplier: 0.8
    items:
      - {item: scrap, price: 12, stock: 10}
`))
	s.Require().NoError(err)

	store := s.newStore(seed)
	err = store.Update(func(w *worldstate.World) error { return seed.Apply(w) })
	s.Require().NoError(err)

	err = store.View(func(w *worldstate.World) error {
		_, ok := w.City("haven")
		s.True(ok)
		_, ok = w.Room("waste")
		s.True(ok)

		wardens, ok := w.Faction("wardens")
		s.Require().True(ok)
		s.Equal(0.3, wardens.PolicyWeight, "first influence buys a seat at the policy table")

		// 65 vs 50 is inside the contested gap: nobody rules Haven.
		zone := w.Zones()
		s.Require().Len(zone, 1)
		s.True(zone[0].Contested)
		s.Empty(zone[0].ControllingFactionID)

		npc, ok := w.NPC("vex")
		s.Require().True(ok)
		s.Equal("square", npc.Location)

		item, ok := w.MarketItem("scrap")
		s.Require().True(ok)
		s.Equal(10, item.CurrentPrice, "current price starts at base")

		trader, ok := w.Trader("vex")
		s.Require().True(ok)
		s.Equal(12, trader.Items["scrap"].Price)

		s.Equal("loose currency", w.Glossary()["scrap"])
		return nil
	})
	s.Require().NoError(err)
}

func (s *SeedTestSuite) TestApplySurfacesGraphErrors() {
	seed, err := worldseed.Parse([]byte(`
spawn_room: square
wild_fallback_room: waste
rooms:
  - {id: square, name: Square}
  - {id: square, name: Square Again}
  - {id: waste, name: Waste, zone: wild}
`))
	s.Require().NoError(err, "duplicates are the store's call, not the parser's")

	store := s.newStore(seed)
	err = store.Update(func(w *worldstate.World) error { return seed.Apply(w) })
	s.Require().Error(err)
	s.Contains(err.Error(), "duplicate room id")
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedTestSuite))
}
