// Package risk resolves fair prices against a cached top-of-book view and
// aggregates per-asset positions into PnL and net-open-position figures.
package risk

import (
	"math"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/model"
)

// PositionsView iterates a set of (asset, position) pairs without
// committing to any particular backing container — the LP simulator
// satisfies it directly, and a strategy-side positions cache does through
// PositionsFromCache.
type PositionsView interface {
	ForEach(fn func(asset model.Asset, position float64))
}

// Model resolves fair prices from a live top-of-book cache and aggregates
// positions into PnL/NOP. Everything here is a pure function of its
// inputs: it holds no state of its own beyond the cache reference.
type Model struct {
	tobCache *fabric.CacheSubscriber[model.TopOfBook]
}

func New(tobCache *fabric.CacheSubscriber[model.TopOfBook]) *Model {
	return &Model{tobCache: tobCache}
}

// FairPrice returns the mid-price of asset against USD. USD itself is 1 by
// definition. If neither "<asset>/USD" nor "USD/<asset>" has ever been
// quoted, it returns NaN, which propagates cleanly through PnL and NOP.
func (m *Model) FairPrice(asset model.Asset) float64 {
	if asset == "USD" {
		return 1
	}
	if book := m.tobCache.Get(string(asset) + "/USD"); book != nil {
		return (book.BidPrice + book.AskPrice) / 2
	}
	if book := m.tobCache.Get("USD/" + string(asset)); book != nil {
		return 2.0 / (book.BidPrice + book.AskPrice)
	}
	return math.NaN()
}

// cachePositions adapts a *fabric.CacheSubscriber[float64] (keyed by asset
// string, one non-owning pointer per topic) into a PositionsView, so the
// strategy side can evaluate PnL/NOP over the same positions proxy the
// simulator publishes into, without the simulator and the strategy sharing
// a concrete container type.
type cachePositions struct {
	cache *fabric.CacheSubscriber[float64]
}

// PositionsFromCache adapts a positions cache into a PositionsView.
func PositionsFromCache(cache *fabric.CacheSubscriber[float64]) PositionsView {
	return cachePositions{cache: cache}
}

func (p cachePositions) ForEach(fn func(asset model.Asset, position float64)) {
	p.cache.ForEach(func(topic string, record *float64) {
		fn(model.Asset(topic), *record)
	})
}

// PnL values every position at its fair price against USD and sums the
// result. An unresolvable fair price for any held asset makes the whole
// sum NaN.
func (m *Model) PnL(positions PositionsView) float64 {
	total := 0.0
	positions.ForEach(func(asset model.Asset, position float64) {
		total += position * m.FairPrice(asset)
	})
	return total
}

// NOP is the net open position: the gross fair value of long positions
// and the gross fair value of short positions are summed separately, and
// the larger of the two is returned. A book that is long $5 of EUR and
// short $5 of GBP has an NOP of $5, not $0 — unlike PnL, long and short
// legs never net against each other.
func (m *Model) NOP(positions PositionsView) float64 {
	var longs, shorts float64
	positions.ForEach(func(asset model.Asset, position float64) {
		value := position * m.FairPrice(asset)
		if position >= 0 {
			longs += value
		} else {
			shorts -= value
		}
	})
	return math.Max(longs, shorts)
}
