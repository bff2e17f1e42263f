package calculator

import (
	"math"

	"MarketDash/internal/model"
)

// DefaultStochasticWindow is the %D smoothing window when none is given.
const DefaultStochasticWindow = 5

// Stochastic computes %K, its rolling mean %D over window bars, and a
// signal line smoothed from %K (not %D). A bar with high == low has no
// range and yields NaN for %K.
func Stochastic(s *model.Series, window int) model.IndicatorOutput {
	if window < 1 {
		window = DefaultStochasticWindow
	}
	k := make([]float64, s.Len())
	for i, b := range s.Bars {
		k[i] = ratio(b.Close-b.Low, b.High-b.Low) * 100
	}
	return model.IndicatorOutput{
		Kind: model.IndicatorSO,
		Lines: []model.Line{
			{Name: "%K", Values: k},
			{Name: "%D", Values: RollingMean(k, window)},
			{Name: "Signal", Values: EWMA(k, SignalSpan)},
		},
	}
}

// ratio divides num by den, returning NaN instead of ±Inf for a zero range.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
