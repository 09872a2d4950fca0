// Package lpsim simulates a liquidity provider that fills IOC orders
// against the replayed top-of-book, subject to inbound/outbound latency
// and a net-open-position risk gate.
package lpsim

import (
	"log/slog"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/flow"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/risk"
)

// riskModel is the subset of risk.Model the simulator needs: enough to
// evaluate the NOP gate. Narrowed to an interface so tests can supply a
// deterministic stand-in without wiring a real top-of-book cache.
type riskModel interface {
	NOP(positions risk.PositionsView) float64
}

type executorKey struct {
	symbol   model.Symbol
	observer flow.OrderStateObserver
}

// Simulator is a flow.Gateway: it hands out one executor per (symbol,
// observer) pair, each of which matches against the shared top-of-book
// cache and mutates a shared pool of per-asset position slots.
type Simulator struct {
	dispatcher flow.EventDispatcher
	tobCache   *fabric.CacheSubscriber[model.TopOfBook]
	risk       riskModel
	settings   Settings

	positionsPub fabric.Publisher[float64]
	positions    map[model.Asset]*float64
	posEntries   map[model.Asset]fabric.PublisherEntry

	executors   map[executorKey]*executor
	lastOrderID model.OrderID
}

// New constructs a Simulator. dispatcher schedules the inbound/outbound
// latency delays; tobCache is read for the current top-of-book on every
// order; risk evaluates the NOP gate over the simulator's own positions;
// positionsPub is where base/quote position updates are published.
func New(
	dispatcher flow.EventDispatcher,
	tobCache *fabric.CacheSubscriber[model.TopOfBook],
	riskModel riskModel,
	positionsPub fabric.Publisher[float64],
	settings Settings,
) *Simulator {
	return &Simulator{
		dispatcher:   dispatcher,
		tobCache:     tobCache,
		risk:         riskModel,
		settings:     settings,
		positionsPub: positionsPub,
		positions:    make(map[model.Asset]*float64),
		posEntries:   make(map[model.Asset]fabric.PublisherEntry),
		executors:    make(map[executorKey]*executor),
	}
}

// GetOrderSender implements flow.Gateway.
func (s *Simulator) GetOrderSender(symbol model.Symbol, observer flow.OrderStateObserver) flow.OrderSender {
	key := executorKey{symbol: symbol, observer: observer}
	if e, ok := s.executors[key]; ok {
		return e
	}

	e := &executor{
		sim:      s,
		symbol:   symbol,
		observer: observer,
	}
	e.baseAsset = symbol.Base()
	e.quoteAsset = symbol.Quote()
	e.basePos = s.positionSlot(e.baseAsset)
	e.quotePos = s.positionSlot(e.quoteAsset)
	e.baseEntry = s.positionEntry(e.baseAsset)
	e.quoteEntry = s.positionEntry(e.quoteAsset)

	s.executors[key] = e
	return e
}

func (s *Simulator) positionSlot(asset model.Asset) *float64 {
	slot, ok := s.positions[asset]
	if !ok {
		slot = new(float64)
		s.positions[asset] = slot
		s.posEntries[asset] = s.positionsPub.CreateEntry(string(asset), slot)
	}
	return slot
}

func (s *Simulator) positionEntry(asset model.Asset) fabric.PublisherEntry {
	s.positionSlot(asset)
	return s.posEntries[asset]
}

func (s *Simulator) nextOrderID() model.OrderID {
	s.lastOrderID++
	return s.lastOrderID
}

// ForEach implements risk.PositionsView over the simulator's own
// positions, letting the Simulator itself be passed wherever a
// PositionsView is needed (e.g. the NOP gate).
func (s *Simulator) ForEach(fn func(asset model.Asset, position float64)) {
	for asset, slot := range s.positions {
		fn(asset, *slot)
	}
}

func (s *Simulator) logRejected(symbol model.Symbol, reason string) {
	slog.Debug("lpsim: order rejected", "symbol", symbol, "reason", reason)
}
