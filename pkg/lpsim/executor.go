package lpsim

import (
	"math"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/flow"
	"github.com/kazenmirin/fxreplay/pkg/model"
)

// priceTolerance absorbs float64 rounding noise when comparing an order's
// limit price against the top of book; it is not a business parameter.
const priceTolerance = 1e-8

// executor is the per-(symbol, observer) order router and matcher. It
// implements flow.OrderSender.
type executor struct {
	sim      *Simulator
	symbol   model.Symbol
	observer flow.OrderStateObserver

	baseAsset, quoteAsset model.Asset
	basePos, quotePos     *float64
	baseEntry, quoteEntry fabric.PublisherEntry

	haveLastSend      bool
	lastOrderSendTime model.TimestampNs
}

// SendOrder implements flow.OrderSender. It allocates an OrderID
// synchronously and schedules matching InboundDelay in the future.
func (e *executor) SendOrder(order model.Order) model.OrderID {
	orderID := e.sim.nextOrderID()
	e.sim.dispatcher.PostEvent(e.sim.settings.InboundDelay, func() {
		e.process(orderID, order)
	})
	return orderID
}

func (e *executor) process(orderID model.OrderID, order model.Order) {
	e.observer.OnAck(orderID)

	status := model.Done
	var dealt, contra float64
	filled := false

	if e.validateOrder(order) {
		now := e.sim.dispatcher.GetEventTime()
		e.lastOrderSendTime = now
		e.haveLastSend = true

		book := e.sim.tobCache.Get(string(e.symbol))
		d, c, matched, rejected := e.agress(order, *book)
		switch {
		case rejected:
			status = model.InternalReject
		case matched:
			dealt, contra, filled = d, c, true
		}
	} else {
		status = model.InternalReject
	}

	if filled {
		e.sim.dispatcher.PostEvent(e.sim.settings.OutboundDelay, func() {
			e.enqueueFill(orderID, dealt, contra)
		})
	}
	e.sim.dispatcher.PostEvent(e.sim.settings.OutboundDelay, func() {
		e.observer.OnTerminated(orderID, status)
	})
}

// validateOrder checks everything that must hold before an order is even
// allowed to attempt matching: a live book, IOC-only, a positive size,
// and the minimum order gap.
func (e *executor) validateOrder(order model.Order) bool {
	book := e.sim.tobCache.Get(string(e.symbol))
	if book == nil {
		return false
	}
	if order.TIF != model.IOC {
		return false
	}
	if !(order.Qty > 0) {
		return false
	}
	if e.haveLastSend {
		now := e.sim.dispatcher.GetEventTime()
		if now-e.lastOrderSendTime < e.sim.settings.MinOrderGap {
			return false
		}
	}
	return true
}

// agress attempts to match order against the top of book. It returns
// (dealt, contra, matched, rejected): matched means a fill occurred;
// rejected means the NOP gate refused a fill that would otherwise have
// matched. A book that doesn't cross the order's limit is neither matched
// nor rejected — it is simply Done with no fill.
func (e *executor) agress(order model.Order, book model.TopOfBook) (dealt, contra float64, matched, rejected bool) {
	sideSign := float64(order.Side)

	var topPrice, topQty float64
	if order.Side == model.Buy {
		topPrice, topQty = book.AskPrice, book.AskSize
	} else {
		topPrice, topQty = book.BidPrice, book.BidSize
	}

	if math.IsNaN(topPrice) || order.Price*sideSign < topPrice*sideSign-priceTolerance {
		return 0, 0, false, false
	}

	matchedPrice := topPrice // price improvement is always enabled
	matchedQty := math.Min(topQty, order.Qty)
	if !(matchedQty > 0) {
		return 0, 0, false, false
	}

	dealt = sideSign * matchedQty
	contra = -dealt * matchedPrice

	if !e.validateNOPChange(dealt, contra) {
		return 0, 0, false, true
	}
	return dealt, contra, true, false
}

// validateNOPChange tentatively applies (dealt, contra) to the shared
// position slots, measures the resulting NOP, reverts the mutation, and
// permits the fill if the NOP either improves or stays within the cap.
// A fill that reduces NOP is always allowed, even if the result still
// exceeds MaxNOP — de-risking is never blocked by the gate.
func (e *executor) validateNOPChange(dealt, contra float64) bool {
	if math.IsNaN(dealt) || math.IsNaN(contra) {
		return false
	}

	currentNOP := e.sim.risk.NOP(e.sim)

	*e.basePos += dealt
	*e.quotePos += contra
	newNOP := e.sim.risk.NOP(e.sim)
	*e.basePos -= dealt
	*e.quotePos -= contra

	return newNOP < currentNOP || newNOP <= e.sim.settings.MaxNOP
}

func (e *executor) enqueueFill(orderID model.OrderID, dealt, contra float64) {
	*e.basePos += dealt
	*e.quotePos += contra
	e.baseEntry.Publish()
	e.quoteEntry.Publish()
	e.observer.OnFill(orderID, dealt, contra)
	e.sim.positionsPub.EndBatch()
}
