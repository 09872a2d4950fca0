package eventloop

import "github.com/kazenmirin/fxreplay/pkg/model"

// Replayable is an external, time-ordered source of events registered with
// the Loop. The loop calls Skip once, when the source is added, to catch it
// up to the simulated clock without side effects; after that it schedules
// DispatchNextEvent (to actually publish) at each GetNextEventTime.
type Replayable interface {
	// GetNextEventTime returns the timestamp of this source's next event,
	// or model.MaxTimestamp once the source is exhausted.
	GetNextEventTime() model.TimestampNs

	// DispatchNextEvent publishes every event sharing the current
	// GetNextEventTime and advances past them.
	DispatchNextEvent()

	// Skip advances past every event strictly before ts without publishing.
	Skip(ts model.TimestampNs)
}
