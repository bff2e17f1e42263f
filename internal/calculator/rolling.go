package calculator

import (
	"errors"
	"math"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingMean is the trailing-window mean of values. The first window-1
// outputs are NaN, as is any window containing a NaN.
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum, ok := windowSum(values[i-window+1 : i+1])
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd is the trailing-window sample standard deviation (n-1
// denominator). A window below 2 has no sample deviation, so every output
// is NaN.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		sum, ok := windowSum(w)
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var sq float64
		for _, v := range w {
			d := v - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

func windowSum(w []float64) (float64, bool) {
	var sum float64
	for _, v := range w {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
