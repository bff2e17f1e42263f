package calculator

import (
	"math"

	"MarketDash/internal/model"
)

// AccumulationDistribution computes the money flow multiplier, per-bar
// money flow volume, the cumulative A/D line and its signal line.
// Bars with no high-low range contribute NaN; the running total skips them.
func AccumulationDistribution(s *model.Series) model.IndicatorOutput {
	n := s.Len()
	mfm := make([]float64, n)
	adl := make([]float64, n)
	ad := make([]float64, n)

	var total float64
	for i, b := range s.Bars {
		mfm[i] = ratio((b.Close-b.Low)-(b.High-b.Close), b.High-b.Low)
		adl[i] = mfm[i] * float64(b.Volume)
		if math.IsNaN(adl[i]) {
			ad[i] = math.NaN()
			continue
		}
		total += adl[i]
		ad[i] = total
	}
	return model.IndicatorOutput{
		Kind: model.IndicatorAD,
		Lines: []model.Line{
			{Name: "MFM", Values: mfm},
			{Name: "ADL", Values: adl},
			{Name: "A/D", Values: ad},
			{Name: "Signal", Values: EWMA(ad, SignalSpan)},
		},
	}
}
