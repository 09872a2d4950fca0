// Package marketdata replays a time-ordered CSV stream of top-of-book
// records into the engine's pub/sub fabric, driven by the event loop as
// a Replayable source.
package marketdata

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/model"
)

// line shape: <timestamp_ns>,<symbol>,<bidSize>,<bidPrice>,<askSize>,<askPrice>
type line struct {
	ts     model.TimestampNs
	symbol model.Symbol
	book   model.TopOfBook
}

func parseLine(raw string) (line, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 6 {
		return line{}, fmt.Errorf("marketdata: expected 6 fields, got %d: %q", len(fields), raw)
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return line{}, fmt.Errorf("marketdata: parsing timestamp %q: %w", fields[0], err)
	}

	bidSize, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return line{}, fmt.Errorf("marketdata: parsing bid size %q: %w", fields[2], err)
	}
	bidPrice, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return line{}, fmt.Errorf("marketdata: parsing bid price %q: %w", fields[3], err)
	}
	askSize, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return line{}, fmt.Errorf("marketdata: parsing ask size %q: %w", fields[4], err)
	}
	askPrice, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return line{}, fmt.Errorf("marketdata: parsing ask price %q: %w", fields[5], err)
	}

	return line{
		ts:     model.TimestampNs(ts),
		symbol: model.Symbol(fields[1]),
		book: model.TopOfBook{
			BidSize:  bidSize,
			BidPrice: bidPrice,
			AskSize:  askSize,
			AskPrice: askPrice,
		},
	}, nil
}

type bookSlot struct {
	book  model.TopOfBook
	entry fabric.PublisherEntry
}

// Replayer is an eventloop.Replayable that turns a CSV top-of-book file
// into fabric publications, one batch per distinct timestamp.
type Replayer struct {
	src       *lineSource
	publisher fabric.Publisher[model.TopOfBook]
	slots     map[model.Symbol]*bookSlot
	lookahead line
}

// Open opens path and reads its first record, publishing through
// publisher. The caller is responsible for registering the returned
// Replayer with an eventloop.Loop via Add.
func Open(path string, publisher fabric.Publisher[model.TopOfBook]) (*Replayer, error) {
	src, err := openLineSource(path)
	if err != nil {
		return nil, err
	}

	r := &Replayer{
		src:       src,
		publisher: publisher,
		slots:     make(map[model.Symbol]*bookSlot),
	}
	if err := r.advance(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Replayer) Close() error {
	return r.src.Close()
}

func (r *Replayer) advance() error {
	raw, err := r.src.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.lookahead = line{ts: model.MaxTimestamp}
			return nil
		}
		return err
	}
	parsed, err := parseLine(raw)
	if err != nil {
		return err
	}
	r.lookahead = parsed
	return nil
}

// GetNextEventTime implements eventloop.Replayable.
func (r *Replayer) GetNextEventTime() model.TimestampNs {
	return r.lookahead.ts
}

// Skip implements eventloop.Replayable: advance past every record strictly
// before ts without publishing any of them.
func (r *Replayer) Skip(ts model.TimestampNs) {
	for r.lookahead.ts < ts {
		if err := r.advance(); err != nil {
			// A malformed line encountered during a skip has nowhere to
			// surface an error; the source is treated as exhausted, and
			// the rest of the file is not replayed.
			r.lookahead = line{ts: model.MaxTimestamp}
			return
		}
	}
}

// DispatchNextEvent implements eventloop.Replayable: publish every record
// sharing the current GetNextEventTime, then end the batch exactly once.
func (r *Replayer) DispatchNextEvent() {
	startTime := r.GetNextEventTime()
	if startTime >= model.MaxTimestamp {
		return
	}

	for r.GetNextEventTime() == startTime {
		r.publishCurrent()
		if err := r.advance(); err != nil {
			r.lookahead = line{ts: model.MaxTimestamp}
			break
		}
	}
	r.publisher.EndBatch()
}

func (r *Replayer) publishCurrent() {
	cur := r.lookahead
	slot, ok := r.slots[cur.symbol]
	if !ok {
		slot = &bookSlot{book: cur.book}
		slot.entry = r.publisher.CreateEntry(string(cur.symbol), &slot.book)
		r.slots[cur.symbol] = slot
	} else {
		slot.book = cur.book
	}
	slot.entry.Publish()
}
