package middleware

import (
	"log/slog"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/utility"
)

// Flags selects which classes of fabric updates a Monitor logs.
type Flags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone      Flags = 0
	MonitorAll       Flags = 1 << iota
	MonitorTopOfBook Flags = 1 << iota
	MonitorPositions Flags = 1 << iota
	MonitorOrders    Flags = 1 << iota
)

// Monitor decorates fabric callbacks with a structured-log line, gated by
// Flags, without changing the callback's behavior.
type Monitor struct {
	flags Flags
}

func NewMonitor(flags Flags) *Monitor {
	return &Monitor{flags: flags}
}

func (m *Monitor) enabled(f Flags) bool {
	return m.flags&f != 0 || m.flags&MonitorAll != 0
}

// WithTopOfBook wraps a TopOfBook callback with a trace-stamp decorator and
// a logging decorator, composed via Chain so the trace ID the stamp assigns
// is already set by the time the log line reads it. Logs when
// MonitorTopOfBook or MonitorAll is set.
func (m *Monitor) WithTopOfBook(next fabric.Callback[model.TopOfBook]) fabric.Callback[model.TopOfBook] {
	var traceID utility.TraceID

	stamp := func(next fabric.Callback[model.TopOfBook]) fabric.Callback[model.TopOfBook] {
		return func(topic string, record *model.TopOfBook) {
			traceID = utility.CreateTraceID()
			next(topic, record)
		}
	}
	log := func(next fabric.Callback[model.TopOfBook]) fabric.Callback[model.TopOfBook] {
		return func(topic string, record *model.TopOfBook) {
			if m.enabled(MonitorTopOfBook) {
				slog.Info("fabric update", "trace_id", traceID, "topic", topic, "top_of_book", *record)
			}
			next(topic, record)
		}
	}
	return Chain(stamp, log)(next)
}

// WithPosition wraps a position callback (float64 net quantity per asset)
// with the same trace-stamp-then-log composition as WithTopOfBook.
func (m *Monitor) WithPosition(next fabric.Callback[float64]) fabric.Callback[float64] {
	var traceID utility.TraceID

	stamp := func(next fabric.Callback[float64]) fabric.Callback[float64] {
		return func(topic string, record *float64) {
			traceID = utility.CreateTraceID()
			next(topic, record)
		}
	}
	log := func(next fabric.Callback[float64]) fabric.Callback[float64] {
		return func(topic string, record *float64) {
			if m.enabled(MonitorPositions) {
				slog.Info("fabric update", "trace_id", traceID, "asset", topic, "position", *record)
			}
			next(topic, record)
		}
	}
	return Chain(stamp, log)(next)
}
