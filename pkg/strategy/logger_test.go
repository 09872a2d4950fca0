package strategy

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kazenmirin/fxreplay/pkg/eventloop"
	"github.com/kazenmirin/fxreplay/pkg/fabric"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/risk"
)

type fakeDispatcher struct {
	now model.TimestampNs
}

func (d *fakeDispatcher) GetEventTime() model.TimestampNs { return d.now }
func (d *fakeDispatcher) PostEvent(model.TimestampNs, func()) eventloop.EventID {
	return 0
}

func TestLogger_EndOfBatchPrintsPositionsLine(t *testing.T) {
	dispatcher := &fakeDispatcher{now: 5_000_000_000}
	tobCache := fabric.NewCacheSubscriber[model.TopOfBook]()
	book := model.TopOfBook{BidPrice: 1.0, AskPrice: 1.0}
	tobCache.Notify(nil, "EUR/USD", &book)

	positions := fabric.NewCacheSubscriber[float64]()
	eur := 10.0
	positions.Notify(nil, "EUR", &eur)

	var out bytes.Buffer
	logger := NewLogger(&out, dispatcher, risk.New(tobCache), positions, 1_000_000_000)

	logger.EndOfBatch(nil)

	got := out.String()
	if !strings.HasPrefix(got, "5000000000,positions,EUR:10") {
		t.Fatalf("unexpected positions line: %q", got)
	}
}

func TestLogger_FinishPrintsSummaryLine(t *testing.T) {
	dispatcher := &fakeDispatcher{now: 9_000_000_000}
	tobCache := fabric.NewCacheSubscriber[model.TopOfBook]()
	book := model.TopOfBook{BidPrice: 2.0, AskPrice: 2.0}
	tobCache.Notify(nil, "EUR/USD", &book)

	positions := fabric.NewCacheSubscriber[float64]()
	eur := 5.0
	positions.Notify(nil, "EUR", &eur)

	var out bytes.Buffer
	logger := NewLogger(&out, dispatcher, risk.New(tobCache), positions, 1_000_000_000)
	logger.EndOfBatch(nil) // sets lastEventTime

	logger.Finish()

	got := out.String()
	if !strings.Contains(got, "lastEventTime:9000000000") || !strings.Contains(got, "pnl:10") || !strings.Contains(got, "nop:10") {
		t.Fatalf("unexpected summary line: %q", got)
	}
}
