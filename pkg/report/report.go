// Package report samples PnL over the course of a run and prints an
// end-of-run performance summary through zap, the one place in this engine
// that still reports through a structured logger other than log/slog.
package report

import (
	"go.uber.org/zap"

	"github.com/kazenmirin/fxreplay/pkg/model"
	"github.com/kazenmirin/fxreplay/pkg/utility/fixed"
)

// Report is a snapshot of equity-curve statistics computed from the PnL
// samples a Sampler collected over a run.
type Report struct {
	StartTime model.TimestampNs
	EndTime   model.TimestampNs

	SampleCount int

	InitialPnL fixed.Point
	FinalPnL   fixed.Point
	PeakPnL    fixed.Point
	MaxDrawdown fixed.Point

	FinalNOP fixed.Point

	MeanPnL      fixed.Point
	SharpeRatio  fixed.Point
	SortinoRatio fixed.Point
}

// Print logs the report in two groups: performance and risk metrics.
func (r Report) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Int64("start_time", int64(r.StartTime)),
		zap.Int64("end_time", int64(r.EndTime)),
		zap.Int("sample_count", r.SampleCount),
		zap.String("initial_pnl", r.InitialPnL.String()),
		zap.String("final_pnl", r.FinalPnL.String()),
		zap.String("peak_pnl", r.PeakPnL.String()),
		zap.String("max_drawdown", r.MaxDrawdown.String()),
	)

	logger.Info("risk metrics",
		zap.String("final_nop", r.FinalNOP.String()),
		zap.String("mean_pnl", r.MeanPnL.String()),
		zap.String("sharpe_ratio", r.SharpeRatio.String()),
		zap.String("sortino_ratio", r.SortinoRatio.String()),
	)
}
