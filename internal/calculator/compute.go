package calculator

import (
	"fmt"

	"MarketDash/internal/model"
)

// Compute runs one indicator over s with resolved settings.
func Compute(kind model.IndicatorKind, s *model.Series, set Settings) (model.IndicatorOutput, error) {
	switch kind {
	case model.IndicatorOBV:
		return OBV(s), nil
	case model.IndicatorMACD:
		return MACD(s), nil
	case model.IndicatorSO:
		return Stochastic(s, set.StochasticWindow), nil
	case model.IndicatorAD:
		return AccumulationDistribution(s), nil
	}
	return model.IndicatorOutput{}, &ValidationError{Field: "indicator", Err: fmt.Errorf("unsupported kind %q", kind)}
}
