package main

import (
	"flag"
	"time"

	"github.com/kazenmirin/fxreplay/pkg/model"
)

var (
	inputPath      = flag.String("input", "data/eurusd.csv", "path to the top-of-book CSV replay file")
	reportInterval = flag.Duration("report-interval", time.Second, "simulated-time spacing between PnL timer lines")

	inboundDelay  = flag.Duration("inbound-delay", 0, "simulated latency between SendOrder and matching")
	outboundDelay = flag.Duration("outbound-delay", 0, "simulated latency between matching and fill/terminated notification")
	minOrderGap   = flag.Duration("min-order-gap", 0, "minimum simulated time between orders on the same symbol/observer pair")
	maxNOP        = flag.Float64("max-nop", 1_000_000, "net open position cap enforced by the LP simulator's risk gate")

	monitorTopOfBook = flag.Bool("monitor-top-of-book", false, "log every top-of-book update that reaches the strategy fan-out")
)

func asTimestampNs(d time.Duration) model.TimestampNs {
	return model.TimestampNs(d.Nanoseconds())
}
