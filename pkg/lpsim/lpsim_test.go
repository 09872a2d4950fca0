package lpsim

import (
	"math"
	"testing"

	"github.com/kazenmirin/fxreplay/pkg/eventloop"
	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/risk"
)

type fakeObserver struct {
	acks        []model.OrderID
	fills       []fill
	terminated  []terminated
}

type fill struct {
	orderID      model.OrderID
	dealt, contra float64
}

type terminated struct {
	orderID model.OrderID
	status  model.DoneStatus
}

func (o *fakeObserver) OnAck(id model.OrderID) { o.acks = append(o.acks, id) }
func (o *fakeObserver) OnFill(id model.OrderID, dealt, contra float64) {
	o.fills = append(o.fills, fill{id, dealt, contra})
}
func (o *fakeObserver) OnTerminated(id model.OrderID, status model.DoneStatus) {
	o.terminated = append(o.terminated, terminated{id, status})
}

func setup(t *testing.T, maxNOP float64) (*eventloop.Loop, *Simulator, *fabric.CacheSubscriber[model.TopOfBook], *fabric.CacheSubscriber[float64]) {
	t.Helper()

	loop := eventloop.New(0)

	tobCache := fabric.NewCacheSubscriber[model.TopOfBook]()
	positionsCache := fabric.NewCacheSubscriber[float64]()
	positionsDC := fabric.NewDirectConsumer[float64](positionsCache)

	rm := risk.New(tobCache)
	sim := New(loop, tobCache, rm, positionsDC, Settings{
		InboundDelay:  1_000_000,
		OutboundDelay: 1_000_000,
		MinOrderGap:   10 * 1_000_000_000,
		MaxNOP:        maxNOP,
	})

	return loop, sim, tobCache, positionsCache
}

func setBook(cache *fabric.CacheSubscriber[model.TopOfBook], symbol string, book model.TopOfBook) {
	cache.Notify(nil, symbol, &book)
}

func TestLPSim_IOCBuyMatchesTop(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1e9)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)

	orderID := sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 100_000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.acks) != 1 || obs.acks[0] != orderID {
		t.Fatalf("expected one ack for %d, got %v", orderID, obs.acks)
	}
	if len(obs.fills) != 1 {
		t.Fatalf("expected one fill, got %v", obs.fills)
	}

	wantDealt := 100_000.0
	wantContra := -100_000.0 * 1.1002
	if obs.fills[0].dealt != wantDealt || math.Abs(obs.fills[0].contra-wantContra) > 1e-9 {
		t.Fatalf("expected dealt=%v contra=%v, got dealt=%v contra=%v", wantDealt, wantContra, obs.fills[0].dealt, obs.fills[0].contra)
	}

	if len(obs.terminated) != 1 || obs.terminated[0].status != model.Done {
		t.Fatalf("expected one Done termination, got %v", obs.terminated)
	}
}

func TestLPSim_FillOrderedBeforeTerminated(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1e9)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	var order []string
	obs := &orderingObserver{order: &order}
	sender := sim.GetOrderSender("EUR/USD", obs)
	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(order) != 2 || order[0] != "fill" || order[1] != "terminated" {
		t.Fatalf("expected [fill terminated], got %v", order)
	}
}

type orderingObserver struct {
	order *[]string
}

func (o *orderingObserver) OnAck(model.OrderID) {}
func (o *orderingObserver) OnFill(model.OrderID, float64, float64) {
	*o.order = append(*o.order, "fill")
}
func (o *orderingObserver) OnTerminated(model.OrderID, model.DoneStatus) {
	*o.order = append(*o.order, "terminated")
}

func TestLPSim_PriceBelowAskDoesNotFill(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1e9)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1010})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)
	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: 1.1000, Qty: 1000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.fills) != 0 {
		t.Fatalf("expected no fill, got %v", obs.fills)
	}
	if len(obs.terminated) != 1 || obs.terminated[0].status != model.Done {
		t.Fatalf("expected a clean Done with no fill, got %v", obs.terminated)
	}
}

func TestLPSim_GTCOrderAlwaysInternalReject(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1e9)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)
	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1000, TIF: model.GTC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.terminated) != 1 || obs.terminated[0].status != model.InternalReject {
		t.Fatalf("expected InternalReject for a GTC order, got %v", obs.terminated)
	}
}

func TestLPSim_MinOrderGapViolationRejects(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1e9)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)

	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1000, TIF: model.IOC})
	loop.PostEvent(2_000_000, func() {
		sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1000, TIF: model.IOC})
	})

	loop.Stop(20_000_000)
	loop.Dispatch()

	if len(obs.terminated) != 2 {
		t.Fatalf("expected two terminations, got %d", len(obs.terminated))
	}
	if obs.terminated[0].status != model.Done {
		t.Fatalf("expected first order to succeed, got %v", obs.terminated[0].status)
	}
	if obs.terminated[1].status != model.InternalReject {
		t.Fatalf("expected second order (within MinOrderGap) to be rejected, got %v", obs.terminated[1].status)
	}
}

func TestLPSim_NOPGateBlocksRiskIncreasingFill(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 50_000.0) // tight cap
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)

	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1_000_000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.fills) != 0 {
		t.Fatalf("expected the NOP gate to block a cap-busting fill, got %v", obs.fills)
	}
	if obs.terminated[0].status != model.InternalReject {
		t.Fatalf("expected InternalReject, got %v", obs.terminated[0].status)
	}
}

func TestLPSim_NOPGateAllowsDeRisking(t *testing.T) {
	loop, sim, tobCache, _ := setup(t, 1_000.0)
	setBook(tobCache, "EUR/USD", model.TopOfBook{BidSize: 1_000_000, BidPrice: 1.1000, AskSize: 1_000_000, AskPrice: 1.1002})

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)

	// Build up an over-the-cap long EUR position directly (as if prior
	// fills had already happened), then confirm a de-risking sell still
	// goes through even though the resulting NOP stays above MaxNOP.
	slot := sim.positionSlot("EUR")
	*slot = 100_000

	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Sell, Price: math.NaN(), Qty: 50_000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.fills) != 1 {
		t.Fatalf("expected the de-risking sell to fill despite the NOP staying over cap, got %v", obs.fills)
	}
}

func TestLPSim_NoBookNoFirstTickIsInternalReject(t *testing.T) {
	loop, sim, _, _ := setup(t, 1e9)

	obs := &fakeObserver{}
	sender := sim.GetOrderSender("EUR/USD", obs)
	sender.SendOrder(model.Order{Symbol: "EUR/USD", Side: model.Buy, Price: math.NaN(), Qty: 1000, TIF: model.IOC})

	loop.Stop(10_000_000)
	loop.Dispatch()

	if len(obs.terminated) != 1 || obs.terminated[0].status != model.InternalReject {
		t.Fatalf("expected InternalReject with no book ever seen, got %v", obs.terminated)
	}
}
