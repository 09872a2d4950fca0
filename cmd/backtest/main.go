package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/zap"

	"github.com/kazenmirin/fxreplay/pkg/eventloop"
	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/lpsim"
	"github.com/kazenmirin/fxreplay/pkg/marketdata"
	"github.com/kazenmirin/fxreplay/pkg/middleware"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/report"
	"github.com/kazenmirin/fxreplay/pkg/risk"
	"github.com/kazenmirin/fxreplay/pkg/strategy"
	"github.com/kazenmirin/fxreplay/pkg/utility"
)

func main() {
	flag.Parse()

	slog.Info("backtest starting", "execution_id", utility.GetExecutionID(), "input", *inputPath)

	loop := eventloop.New(0)

	tobCache := fabric.NewCacheSubscriber[model.TopOfBook]()
	tobProxy := fabric.NewProxy[model.TopOfBook]()
	tobProxy.AddFront(fabric.NewDirectConsumer[model.TopOfBook](tobCache))
	tobConsumer := fabric.NewDirectConsumer[model.TopOfBook](tobProxy)

	riskModel := risk.New(tobCache)

	positionsProxy := fabric.NewProxy[float64]()
	positionsCache := fabric.NewCacheSubscriber[float64]()
	positionsProxy.AddFront(fabric.NewDirectConsumer[float64](positionsCache))
	positionsConsumer := fabric.NewDirectConsumer[float64](positionsProxy)

	settings := lpsim.Settings{
		InboundDelay:  asTimestampNs(*inboundDelay),
		OutboundDelay: asTimestampNs(*outboundDelay),
		MinOrderGap:   asTimestampNs(*minOrderGap),
		MaxNOP:        *maxNOP,
	}
	// The simulator is not retained: the reference strategy below only
	// observes the run and never routes orders through flow.Gateway.
	_ = lpsim.New(loop, tobCache, riskModel, positionsConsumer, settings)

	monitorFlags := middleware.MonitorNone
	if *monitorTopOfBook {
		monitorFlags |= middleware.MonitorTopOfBook
	}
	monitor := middleware.NewMonitor(monitorFlags)
	tobProxy.AddBack(fabric.NewDirectConsumer[model.TopOfBook](wrapTopOfBookMonitor(monitor)))

	strategyLogger := strategy.NewLogger(os.Stdout, loop, riskModel, positionsCache, asTimestampNs(*reportInterval))
	tobProxy.AddBack(fabric.NewDirectConsumer[model.TopOfBook](strategyLogger.TopOfBookSubscriber()))
	positionsProxy.AddBack(fabric.NewDirectConsumer[float64](strategyLogger))

	sampler := report.NewSampler(loop, riskModel, risk.PositionsFromCache(positionsCache), asTimestampNs(*reportInterval))

	replayer, err := marketdata.Open(*inputPath, tobConsumer)
	if err != nil {
		slog.Error("unable to open market data", "path", *inputPath, "error", err)
		os.Exit(1)
	}
	defer replayer.Close()

	if err := loop.Add(replayer); err != nil {
		slog.Error("unable to register replayer", "error", err)
		os.Exit(1)
	}

	strategyLogger.Start()
	sampler.Start()

	loop.Dispatch()
	loop.LogStatistics()

	strategyLogger.Finish()

	finalReport := sampler.Finalize()
	zapLogger, err := zap.NewProduction()
	if err != nil {
		slog.Error("unable to build report logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	finalReport.Print(zapLogger)

	fmt.Fprintln(os.Stderr, "backtest complete")
}

// wrapTopOfBookMonitor adapts Monitor's per-callback decorator into a
// fabric.Subscriber, so it can occupy a fan-out slot on the top-of-book
// proxy the same way any other consumer does.
func wrapTopOfBookMonitor(m *middleware.Monitor) fabric.Subscriber[model.TopOfBook] {
	return monitorTopOfBookSubscriber{
		notify: m.WithTopOfBook(func(string, *model.TopOfBook) {}),
	}
}

type monitorTopOfBookSubscriber struct {
	notify fabric.Callback[model.TopOfBook]
}

func (s monitorTopOfBookSubscriber) Notify(consumer fabric.Consumer[model.TopOfBook], topic string, _ *model.TopOfBook) {
	consumer.Subscribe(topic, s.notify)
}
func (monitorTopOfBookSubscriber) EndOfBatch(fabric.Consumer[model.TopOfBook]) {}
