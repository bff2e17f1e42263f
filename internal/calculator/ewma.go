package calculator

import "math"

// SignalSpan is the smoothing span used for every indicator's signal line.
const SignalSpan = 9

// EWMA computes the exponentially weighted moving average of values with
// alpha = 2/(span+1), seeded with the first defined value and no bias
// correction (ema[i] = alpha*x[i] + (1-alpha)*ema[i-1]).
//
// NaN inputs do not advance the average: the output at a NaN index repeats
// the previous average, and is NaN until the first defined input.
func EWMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)

	ema := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(ema):
			ema = v
		default:
			ema = alpha*v + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}
