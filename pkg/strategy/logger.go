// Package strategy provides the engine's reference strategy: a Logger that
// prints PnL and position snapshots to a writer rather than trading,
// exercising the same flow.EventDispatcher and fabric.Subscriber surfaces a
// real strategy would.
package strategy

import (
	"fmt"
	"io"
	"strings"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/flow"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/risk"
)

// Logger subscribes to top-of-book (as a no-op, it trades nothing) and to
// positions, and self-schedules a one-second PnL timer. It never calls
// flow.Gateway: it is a passive observer of the run, not a trader.
type Logger struct {
	out        io.Writer
	dispatcher flow.EventDispatcher
	risk       *risk.Model
	positions  *fabric.CacheSubscriber[float64]
	interval   model.TimestampNs

	lastEventTime model.TimestampNs
}

// NewLogger constructs a Logger. interval is the spacing between PnL timer
// lines, typically one second of simulated time.
func NewLogger(out io.Writer, dispatcher flow.EventDispatcher, riskModel *risk.Model, positions *fabric.CacheSubscriber[float64], interval model.TimestampNs) *Logger {
	return &Logger{
		out:        out,
		dispatcher: dispatcher,
		risk:       riskModel,
		positions:  positions,
		interval:   interval,
	}
}

// Start schedules the first PnL timer tick.
func (l *Logger) Start() {
	l.dispatcher.PostEvent(l.interval, l.tick)
}

func (l *Logger) tick() {
	now := l.dispatcher.GetEventTime()
	l.lastEventTime = now
	pnl := l.risk.PnL(risk.PositionsFromCache(l.positions))
	fmt.Fprintf(l.out, "%d,pnl,%v\n", now, pnl)
	l.dispatcher.PostEvent(l.interval, l.tick)
}

// topOfBookObserver is a Subscriber[model.TopOfBook] that does nothing: the
// reference strategy doesn't trade on top-of-book, but still occupies a
// fan-out slot on the top-of-book proxy, the same position a real trading
// strategy would take.
type topOfBookObserver struct{}

func (topOfBookObserver) Notify(fabric.Consumer[model.TopOfBook], string, *model.TopOfBook) {}
func (topOfBookObserver) EndOfBatch(fabric.Consumer[model.TopOfBook])                       {}

// TopOfBookSubscriber returns the Subscriber to attach to the top-of-book
// proxy via AddBack.
func (l *Logger) TopOfBookSubscriber() fabric.Subscriber[model.TopOfBook] {
	return topOfBookObserver{}
}

// Notify implements fabric.Subscriber[float64] for the positions proxy. It
// subscribes an empty callback so that every positions batch ends with an
// EndOfBatch; the snapshot itself is read from the positions cache.
func (l *Logger) Notify(consumer fabric.Consumer[float64], topic string, _ *float64) {
	consumer.Subscribe(topic, func(string, *float64) {})
}

// EndOfBatch implements fabric.Subscriber[float64]: print the full
// positions snapshot every time the positions proxy finishes a batch.
func (l *Logger) EndOfBatch(fabric.Consumer[float64]) {
	now := l.dispatcher.GetEventTime()
	l.lastEventTime = now

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d,positions", now)
	l.positions.ForEach(func(topic string, record *float64) {
		fmt.Fprintf(&sb, ",%s:%v", topic, *record)
	})
	fmt.Fprintln(l.out, sb.String())
}

// Finish prints the final summary line. Call it once after the event loop
// has stopped.
func (l *Logger) Finish() {
	positions := risk.PositionsFromCache(l.positions)
	pnl := l.risk.PnL(positions)
	nop := l.risk.NOP(positions)
	fmt.Fprintf(l.out, "lastEventTime:%d,pnl:%v ,nop:%v\n", l.lastEventTime, pnl, nop)
}
