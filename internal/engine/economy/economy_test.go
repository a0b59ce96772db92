package economy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type EconomyEngineTestSuite struct {
	suite.Suite
	engine *economy.Engine
	store  *worldstate.Store
}

func (s *EconomyEngineTestSuite) SetupTest() {
	s.engine = economy.New()

	store, err := worldstate.New(&worldstate.Config{
		Clock:              clock.New(),
		IDGenerator:        idgen.NewSequential("test"),
		SpawnRoomID:        "haven_square",
		WildFallbackRoomID: "the_drifts",
	})
	s.Require().NoError(err)
	s.store = store

	err = store.Update(func(w *worldstate.World) error {
		if err := w.AddMarketItem(&entities.MarketItem{
			ID: "ration", Name: "Ration", BasePrice: 10, CurrentPrice: 10,
			Supply: 100, Demand: 0.5, Volatility: 0.2, RestockRate: 5, MaxStock: 200,
		}); err != nil {
			return err
		}
		return w.AddTrader(&entities.Trader{
			NPCID:          "npc_brindle",
			SellMultiplier: 1.2,
			BuyMultiplier:  0.8,
			RestockEvery:   5,
			Items: map[string]*entities.TraderItem{
				"ration": {Price: 12, Stock: 20, Demand: 0.5},
			},
		})
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) item(w *worldstate.World, id string) *entities.MarketItem {
	item, ok := w.MarketItem(id)
	s.Require().True(ok)
	return item
}

func (s *EconomyEngineTestSuite) trader(w *worldstate.World, id string) *entities.Trader {
	t, ok := w.Trader(id)
	s.Require().True(ok)
	return t
}

func (s *EconomyEngineTestSuite) TestTickHoldsPriceAtEquilibrium() {
	err := s.store.Update(func(w *worldstate.World) error {
		// demand 0.5 equals supply ratio 100/200, so the price holds.
		s.engine.TickMarket(w, 1)

		item := s.item(w, "ration")
		s.Equal(10, item.CurrentPrice)
		s.Equal(105, item.Supply, "restock adds the restock rate")
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestTickMovesPriceWithDemand() {
	err := s.store.Update(func(w *worldstate.World) error {
		item := s.item(w, "ration")
		item.Demand = 1.0
		item.Supply = 50

		s.engine.TickMarket(w, 1)

		// change = 0.2 * (1.0 - 0.25) = 0.15
		s.Equal(12, item.CurrentPrice)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestTickFloorsPriceAtOne() {
	err := s.store.Update(func(w *worldstate.World) error {
		item := s.item(w, "ration")
		item.BasePrice = 1
		item.Volatility = 1.0
		item.Demand = 0
		item.Supply = 200

		s.engine.TickMarket(w, 1)

		s.Equal(1, item.CurrentPrice, "price never drops below 1")
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestTickCapsRestockAtMaxStock() {
	err := s.store.Update(func(w *worldstate.World) error {
		item := s.item(w, "ration")
		item.Supply = 198

		s.engine.TickMarket(w, 1)

		s.Equal(200, item.Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestEventsMultiplyAndExpire() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "shortage", ItemIDs: []string{"ration"}, Multiplier: 2.0, RemainingTicks: 2,
		})
		s.Require().NoError(err)
		_, err = s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "festival", ItemIDs: []string{"ration"}, Multiplier: 1.5, RemainingTicks: 1,
		})
		s.Require().NoError(err)

		item := s.item(w, "ration")
		item.Demand = 0.5
		item.Supply = 100

		// Both events active: 10 * 2.0 * 1.5
		s.engine.TickMarket(w, 1)
		s.Equal(30, item.CurrentPrice)
		s.Len(w.MarketEvents(), 1, "the one-tick event expired")

		// Only the shortage remains; supply grew to 105 so the ratio term
		// shifts the base before the multiplier.
		item.Supply = 100
		s.engine.TickMarket(w, 2)
		s.Equal(20, item.CurrentPrice)
		s.Empty(w.MarketEvents())

		item.Supply = 100
		s.engine.TickMarket(w, 3)
		s.Equal(10, item.CurrentPrice, "expired events stop applying")
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestTraderResyncCadence() {
	err := s.store.Update(func(w *worldstate.World) error {
		trader := s.trader(w, "npc_brindle")
		local := trader.Items["ration"]

		// Off-cadence ticks leave the shadow price alone.
		s.engine.TickMarket(w, 4)
		s.Equal(12, local.Price)
		s.Equal(20, local.Stock)

		// Tick 5 resyncs: price = round(10 * 1.2), stock += floor(5*0.5).
		s.engine.TickMarket(w, 5)
		s.Equal(12, local.Price)
		s.Equal(22, local.Stock)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestBuyFromTrader() {
	err := s.store.Update(func(w *worldstate.World) error {
		q, err := s.engine.Buy(w, "npc_brindle", "ration", 3)
		s.Require().NoError(err)
		s.Equal(12, q.UnitPrice)
		s.Equal(36, q.Total)

		trader := s.trader(w, "npc_brindle")
		s.Equal(17, trader.Items["ration"].Stock)
		s.InDelta(0.53, trader.Items["ration"].Demand, 1e-9, "0.5 + 3*0.01")

		item := s.item(w, "ration")
		s.Equal(97, item.Supply)
		s.InDelta(0.515, item.Demand, 1e-9, "0.5 + 3*0.005")
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestBuyRejectsInsufficientStock() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.Buy(w, "npc_brindle", "ration", 21)
		s.Require().Error(err)
		s.True(errors.IsFailedPrecondition(err))

		// A rejected buy leaves the market untouched.
		trader := s.trader(w, "npc_brindle")
		s.Equal(20, trader.Items["ration"].Stock)
		s.InDelta(0.5, trader.Items["ration"].Demand, 1e-9)
		s.Equal(100, s.item(w, "ration").Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestBuyUnknownItem() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.Buy(w, "npc_brindle", "voidstone", 1)
		s.True(errors.IsNotFound(err))
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestBuyWithoutTraderUsesFlatRate() {
	err := s.store.Update(func(w *worldstate.World) error {
		q, err := s.engine.Buy(w, "", "ration", 2)
		s.Require().NoError(err)
		s.Equal(10, q.UnitPrice, "flat global rate without a trader")
		s.Equal(98, s.item(w, "ration").Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestSellToTrader() {
	err := s.store.Update(func(w *worldstate.World) error {
		q, err := s.engine.Sell(w, "npc_brindle", "ration", 4)
		s.Require().NoError(err)
		s.Equal(8, q.UnitPrice, "round(10 * 0.8)")
		s.Equal(32, q.Total)

		trader := s.trader(w, "npc_brindle")
		s.Equal(24, trader.Items["ration"].Stock)
		s.InDelta(0.48, trader.Items["ration"].Demand, 1e-9, "0.5 - 4*0.005")

		item := s.item(w, "ration")
		s.Equal(104, item.Supply)
		s.InDelta(0.492, item.Demand, 1e-9, "0.5 - 4*0.002")
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestSellCapsSupplyAtMaxStock() {
	err := s.store.Update(func(w *worldstate.World) error {
		item := s.item(w, "ration")
		item.Supply = 199

		_, err := s.engine.Sell(w, "", "ration", 10)
		s.Require().NoError(err)
		s.Equal(200, item.Supply)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestDemandClampsToUnitRange() {
	err := s.store.Update(func(w *worldstate.World) error {
		item := s.item(w, "ration")
		item.Demand = 0.999

		_, err := s.engine.Buy(w, "", "ration", 50)
		s.Require().NoError(err)
		s.InDelta(1.0, item.Demand, 1e-9)

		item.Demand = 0.001
		_, err = s.engine.Sell(w, "", "ration", 50)
		s.Require().NoError(err)
		s.InDelta(0.0, item.Demand, 1e-9)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EconomyEngineTestSuite) TestScheduleEventValidation() {
	err := s.store.Update(func(w *worldstate.World) error {
		_, err := s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "shortage", ItemIDs: []string{"voidstone"}, Multiplier: 2, RemainingTicks: 3,
		})
		s.True(errors.IsNotFound(err))

		_, err = s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "shortage", ItemIDs: []string{"ration"}, Multiplier: 0, RemainingTicks: 3,
		})
		s.True(errors.IsInvalidArgument(err))

		_, err = s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "shortage", ItemIDs: []string{"ration"}, Multiplier: 2, RemainingTicks: 0,
		})
		s.True(errors.IsInvalidArgument(err))

		_, err = s.engine.ScheduleEvent(w, &entities.MarketEvent{
			Type: "shortage", Multiplier: 2, RemainingTicks: 3,
		})
		s.True(errors.IsInvalidArgument(err))
		return nil
	})
	s.Require().NoError(err)
}

func TestEconomyEngineSuite(t *testing.T) {
	suite.Run(t, new(EconomyEngineTestSuite))
}

func TestFeeSchedule(t *testing.T) {
	fees := economy.DefaultFeeSchedule()

	summary := fees.Summarize(1000, 500, 200)

	assert.InDelta(t, 3.0, summary.TradeFee, 1e-9)
	assert.InDelta(t, 0.5, summary.WithdrawFee, 1e-9)
	assert.InDelta(t, 0.1, summary.StorageFee, 1e-9)
	assert.InDelta(t, 3.6, summary.TotalFee, 1e-9)
}
