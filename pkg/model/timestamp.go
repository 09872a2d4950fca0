package model

import "math"

// TimestampNs is nanoseconds since an implementation-defined epoch, matching
// the nanosecond timestamps carried on the wire by the market-data feed.
type TimestampNs int64

// MaxTimestamp is the sentinel used by replayable sources to signal
// that they have no further events.
const MaxTimestamp TimestampNs = TimestampNs(math.MaxInt64)
