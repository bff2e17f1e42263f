package calculator

import "MarketDash/internal/model"

const (
	MACDFastSpan = 12
	MACDSlowSpan = 26
)

// MACD computes EMA12, EMA26, their difference and the span-9 signal line.
func MACD(s *model.Series) model.IndicatorOutput {
	closes := s.Closes()
	fast := EWMA(closes, MACDFastSpan)
	slow := EWMA(closes, MACDSlowSpan)

	macd := make([]float64, len(closes))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	return model.IndicatorOutput{
		Kind: model.IndicatorMACD,
		Lines: []model.Line{
			{Name: "EMA12", Values: fast},
			{Name: "EMA26", Values: slow},
			{Name: "MACD", Values: macd},
			{Name: "Signal", Values: EWMA(macd, SignalSpan)},
		},
	}
}
