package calculator

import "MarketDash/internal/model"

// OBV computes on-balance volume and its signal line. The first bar has no
// prior close and starts the running total at zero.
func OBV(s *model.Series) model.IndicatorOutput {
	obv := make([]float64, s.Len())
	for i := 1; i < s.Len(); i++ {
		cur, prev := s.Bars[i], s.Bars[i-1]
		switch {
		case cur.Close > prev.Close:
			obv[i] = obv[i-1] + float64(cur.Volume)
		case cur.Close < prev.Close:
			obv[i] = obv[i-1] - float64(cur.Volume)
		default:
			obv[i] = obv[i-1]
		}
	}
	return model.IndicatorOutput{
		Kind: model.IndicatorOBV,
		Lines: []model.Line{
			{Name: "OBV", Values: obv},
			{Name: "OBV Signal", Values: EWMA(obv, SignalSpan)},
		},
	}
}
