// Package eventloop implements the engine's simulated clock: a single
// priority-ordered queue of future events plus a FIFO queue of zero-delay
// chores, driven to exhaustion (or to an explicit Stop) by Dispatch.
package eventloop

import (
	"container/heap"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kazenmirin/fxreplay/pkg/model"
)

// EventID orders events posted at the same expire time: lower IDs run
// first. IDs are assigned even for chores and odd for future events, so
// parity alone tells a caller which queue an event came from.
type EventID int64

// maxReplayables mirrors the engine's fixed replayable-source budget;
// exceeding it is a configuration error, not a runtime condition to
// recover from.
const maxReplayables = 4096

// disableEventID sorts after every ordinarily-assigned ID at the same
// expire time, so a Stop always takes effect only once everything else
// scheduled for that instant has run.
const disableEventID EventID = 1<<63 - 1

type timedEvent struct {
	expireTime model.TimestampNs
	id         EventID
	fn         func()
}

type eventHeap []timedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].expireTime != h[j].expireTime {
		return h[i].expireTime < h[j].expireTime
	}
	return h[i].id < h[j].id
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(timedEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Stats reports simple throughput counters, logged at shutdown.
type Stats struct {
	ChoresDispatched int64
	EventsDispatched int64
	MaxQueueDepth    int
}

// Loop is the engine's deterministic, single-threaded scheduler. It is not
// safe for concurrent use; nothing in this package takes a lock, by design.
type Loop struct {
	now       model.TimestampNs
	lastID    EventID
	enabled   bool
	dispatching bool

	chores []func()
	future eventHeap

	replayables       map[*replayableDispatcher]struct{}
	activeReplayables int
	registered        int

	stats Stats
}

// New creates a Loop with its simulated clock starting at start.
func New(start model.TimestampNs) *Loop {
	return &Loop{
		now:         start,
		enabled:     true,
		replayables: make(map[*replayableDispatcher]struct{}),
	}
}

// GetEventTime returns the current simulated time.
func (l *Loop) GetEventTime() model.TimestampNs {
	return l.now
}

// PostEvent schedules fn to run delta nanoseconds from now. delta == 0
// schedules a chore, run before any future event at the current instant;
// delta > 0 schedules a future event at now+delta. It returns the
// assigned EventID, whose parity records which queue it landed in.
func (l *Loop) PostEvent(delta model.TimestampNs, fn func()) EventID {
	l.lastID += 2
	id := l.lastID

	if delta == 0 {
		l.chores = append(l.chores, fn)
		return id
	}

	id++
	heap.Push(&l.future, timedEvent{expireTime: l.now + delta, id: id, fn: fn})
	if len(l.future) > l.stats.MaxQueueDepth {
		l.stats.MaxQueueDepth = len(l.future)
	}
	return id
}

// Stop schedules the loop to disable itself delta nanoseconds from now,
// after every other event already scheduled for that instant has run.
func (l *Loop) Stop(delta model.TimestampNs) {
	heap.Push(&l.future, timedEvent{
		expireTime: l.now + delta,
		id:         disableEventID,
		fn:         func() { l.enabled = false },
	})
}

// Add registers a Replayable source. It immediately skips the source to
// the loop's current time and schedules its first event. Add fails if the
// loop has already started dispatching or if the replayable budget
// (4096 registrations over the loop's lifetime, counting sources that have
// since run dry) is exceeded.
func (l *Loop) Add(r Replayable) error {
	if l.dispatching {
		return errors.New("eventloop: cannot Add a replayable while dispatching")
	}
	if l.registered >= maxReplayables {
		return fmt.Errorf("eventloop: replayable budget exceeded (max %d)", maxReplayables)
	}

	d := &replayableDispatcher{loop: l, replayable: r}
	l.replayables[d] = struct{}{}
	l.registered++
	l.activeReplayables++

	r.Skip(l.now)
	d.postNext()
	return nil
}

type replayableDispatcher struct {
	loop       *Loop
	replayable Replayable
}

func (d *replayableDispatcher) postNext() {
	next := d.replayable.GetNextEventTime()
	if next < model.MaxTimestamp {
		d.loop.PostEvent(next-d.loop.now, d.dispatch)
		return
	}
	d.loop.onReplayableDone(d)
}

func (d *replayableDispatcher) dispatch() {
	d.replayable.DispatchNextEvent()
	d.postNext()
}

func (l *Loop) onReplayableDone(d *replayableDispatcher) {
	delete(l.replayables, d)
	l.activeReplayables--
	if l.activeReplayables == 0 {
		l.Stop(0)
	}
}

// Dispatch enters the run phase: it re-enables the loop (a prior Stop only
// disables it for that call, not permanently) and, if a future event is
// already queued, fast-forwards now to its expiry before draining chores.
// It then drains chores and future events, in that priority order, until
// the loop is disabled (by Stop) or both queues are empty.
func (l *Loop) Dispatch() {
	l.enabled = true
	if len(l.future) > 0 {
		l.now = l.future[0].expireTime
	}
	l.dispatching = true
	for l.enabled && (len(l.chores) > 0 || len(l.future) > 0) {
		l.dispatchChores()
		if !l.enabled {
			break
		}
		if len(l.future) > 0 {
			l.dispatchNextFutureEvent()
		}
	}
}

func (l *Loop) dispatchChores() {
	for len(l.chores) > 0 {
		fn := l.chores[0]
		l.chores = l.chores[1:]
		l.stats.ChoresDispatched++
		fn()
		if !l.enabled {
			return
		}
	}
}

func (l *Loop) dispatchNextFutureEvent() {
	ev := heap.Pop(&l.future).(timedEvent)
	l.now = ev.expireTime
	l.stats.EventsDispatched++
	ev.fn()
}

// Stats returns a snapshot of dispatch counters.
func (l *Loop) Stats() Stats {
	return l.stats
}

// LogStatistics logs the loop's dispatch counters, mirroring the router
// statistics line this engine's ambient logging emits elsewhere.
func (l *Loop) LogStatistics() {
	slog.Info("eventloop statistics",
		"chores_dispatched", l.stats.ChoresDispatched,
		"events_dispatched", l.stats.EventsDispatched,
		"max_queue_depth", l.stats.MaxQueueDepth,
		"final_time", int64(l.now))
}
