package report

import (
	"math"

	"github.com/kazenmirin/fxreplay/pkg/flow"
	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/risk"
	"github.com/kazenmirin/fxreplay/pkg/utility/fixed"
)

const returnsWindow = 4096

// Sampler self-reschedules on dispatcher every interval, recording PnL
// against risk, and accumulates enough history to produce a Report on
// Finalize. It never mutates the risk model or the positions it reads.
type Sampler struct {
	dispatcher flow.EventDispatcher
	risk       *risk.Model
	positions  risk.PositionsView
	interval   model.TimestampNs

	startTime  model.TimestampNs
	started    bool
	sampleCount int

	initialPnL  fixed.Point
	peak        fixed.Point
	maxDrawdown fixed.Point
	lastPnL     fixed.Point

	returns *fixed.RingBuffer
}

// NewSampler constructs a Sampler that samples every interval nanoseconds.
func NewSampler(dispatcher flow.EventDispatcher, riskModel *risk.Model, positions risk.PositionsView, interval model.TimestampNs) *Sampler {
	return &Sampler{
		dispatcher: dispatcher,
		risk:       riskModel,
		positions:  positions,
		interval:   interval,
		returns:    fixed.NewRingBuffer(returnsWindow),
	}
}

// Start schedules the first sample and every subsequent one, spaced
// s.interval apart, until the loop stops.
func (s *Sampler) Start() {
	s.dispatcher.PostEvent(s.interval, s.tick)
}

func (s *Sampler) tick() {
	s.sample()
	s.dispatcher.PostEvent(s.interval, s.tick)
}

func (s *Sampler) sample() {
	now := s.dispatcher.GetEventTime()
	pnl := s.risk.PnL(s.positions)
	point := pnlToFixed(pnl)

	if !s.started {
		s.started = true
		s.startTime = now
		s.initialPnL = point
		s.peak = point
	}

	if s.sampleCount > 0 {
		s.returns.Add(point.Sub(s.lastPnL))
	}
	s.lastPnL = point
	s.sampleCount++

	if point.Gt(s.peak) {
		s.peak = point
	}
	if drawdown := s.peak.Sub(point); drawdown.Gt(s.maxDrawdown) {
		s.maxDrawdown = drawdown
	}
}

// Finalize samples one last time and produces the run's Report.
func (s *Sampler) Finalize() Report {
	s.sample()

	var mean, sharpe, sortino fixed.Point
	if s.returns.Size() > 0 {
		returns := s.returns.ToSliceFifo()
		mean = fixed.Mean(returns)
		sharpe = fixed.SharpeRatio(returns, fixed.Zero)
		sortino = fixed.SortinoRatio(returns, fixed.Zero)
	}

	return Report{
		StartTime:    s.startTime,
		EndTime:      s.dispatcher.GetEventTime(),
		SampleCount:  s.sampleCount,
		InitialPnL:   s.initialPnL,
		FinalPnL:     s.lastPnL,
		PeakPnL:      s.peak,
		MaxDrawdown:  s.maxDrawdown,
		FinalNOP:     pnlToFixed(s.risk.NOP(s.positions)),
		MeanPnL:      mean,
		SharpeRatio:  sharpe,
		SortinoRatio: sortino,
	}
}

// pnlToFixed converts a float64 PnL/NOP figure into a display-precision
// fixed.Point. A NaN input (an unresolvable fair price) converts to zero
// rather than panicking, since fixed.Point has no representable NaN.
func pnlToFixed(v float64) fixed.Point {
	if math.IsNaN(v) {
		return fixed.Zero
	}
	return fixed.FromFloat64(v)
}
