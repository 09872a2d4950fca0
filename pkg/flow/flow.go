// Package flow defines the narrow interfaces that sit between a strategy
// and the engine: scheduling (EventDispatcher) and order routing
// (Gateway, OrderSender, OrderStateObserver). Strategies are external
// collaborators; this package only names the boundary they're built
// against.
package flow

import (
	"github.com/kazenmirin/fxreplay/pkg/eventloop"
	"github.com/kazenmirin/fxreplay/pkg/model"
)

// EventDispatcher is the scheduling surface exposed to strategies and to
// the LP simulator: read the simulated clock, and post a callback some
// delta in the future (or immediately, as a chore, with delta 0).
type EventDispatcher interface {
	GetEventTime() model.TimestampNs
	PostEvent(delta model.TimestampNs, fn func()) eventloop.EventID
}

// OrderStateObserver receives the lifecycle of a single order: exactly one
// Ack, zero or more Fills, and exactly one Terminated.
type OrderStateObserver interface {
	OnAck(orderID model.OrderID)
	OnFill(orderID model.OrderID, dealt, contra float64)
	OnTerminated(orderID model.OrderID, status model.DoneStatus)
}

// OrderSender accepts an order for a specific (symbol, observer) pair.
type OrderSender interface {
	SendOrder(order model.Order) model.OrderID
}

// Gateway hands out an OrderSender for a symbol, caching one per
// (symbol, observer) identity so repeated calls for the same pair reuse
// the same executor state.
type Gateway interface {
	GetOrderSender(symbol model.Symbol, observer OrderStateObserver) OrderSender
}
