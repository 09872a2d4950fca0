package lpsim

import "github.com/kazenmirin/fxreplay/pkg/model"

// Settings configures latency modelling and risk gating for a Simulator.
type Settings struct {
	// InboundDelay is added between SendOrder and the order reaching the
	// matcher (when OnAck fires and matching is attempted).
	InboundDelay model.TimestampNs

	// OutboundDelay is added between a matching decision and the
	// observer being told about it (Fill and/or Terminated).
	OutboundDelay model.TimestampNs

	// MinOrderGap is the minimum simulated time that must elapse between
	// two orders on the same (symbol, observer) pair reaching the
	// matcher; a violation is an InternalReject.
	MinOrderGap model.TimestampNs

	// MaxNOP bounds the net open position a fill is allowed to produce,
	// except when the fill would reduce the current NOP (de-risking is
	// always permitted, even above the cap).
	MaxNOP float64
}
