package calculator

import (
	"errors"
	"math"

	"MarketDash/internal/model"
)

// TradingDaysPerYear is the lookback used for the 52-week range.
const TradingDaysPerYear = 252

// CalculateRange scans the most recent lookback bars and returns their high and low.
func CalculateRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if lookback <= 0 {
		return 0, 0, errors.New("lookback must be positive")
	}
	start := len(bars) - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Calculate52WeekRange returns the high and low of the last year of daily bars.
func Calculate52WeekRange(bars []model.OHLCV) (high, low float64, err error) {
	return CalculateRange(bars, TradingDaysPerYear)
}

// CalculateRangePosition returns where current sits within [low, high] (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos)), nil
}
