package model

import "math"

// TopOfBook is the best bid/ask for a symbol at a point in simulated time.
type TopOfBook struct {
	BidSize  float64
	BidPrice float64
	AskSize  float64
	AskPrice float64
}

// Degenerate reports whether either side of the book is unusable for
// matching, i.e. carries a NaN price. An order matched against a side with
// a NaN price gets no fill, never a reject: it is still acknowledged and
// terminated cleanly. The other side of the same book still matches.
func (t TopOfBook) Degenerate() bool {
	return math.IsNaN(t.BidPrice) || math.IsNaN(t.AskPrice)
}
