package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"MarketDash/internal/calculator"
	"MarketDash/internal/dashboard"
	"MarketDash/internal/model"
	"MarketDash/internal/recorder"
)

func testView() *dashboard.View {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	series := model.NewSeries("AAPL", []model.OHLCV{
		{Time: day, Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Time: day.AddDate(0, 0, 1), Open: 10, High: 12, Low: 9, Close: 11.5, Volume: 100},
	})
	levels, _ := model.LatestLevels(series)
	return &dashboard.View{
		Requested: "ZZZZ",
		Series:    series,
		Bands:     calculator.BollingerBands(series.Closes(), 10, 5),
		Indicators: []model.IndicatorOutput{
			calculator.OBV(series),
		},
		Levels:  levels,
		Range:   dashboard.Range{High: 12, Low: 9, Position: 0.833},
		Company: model.NewCompanyInfo("AAPL", "Cupertino", "CA", "", "Apple Inc.", ""),
	}
}

func TestFormatView(t *testing.T) {
	out := FormatView(testView())

	assert.Contains(t, out, "ZZZZ | 2 bars (unavailable, showing AAPL)")
	assert.Contains(t, out, "Levels 2024-05-02:")
	assert.Contains(t, out, "C 11.50 ▲")
	assert.Contains(t, out, "O 10.00 =")
	assert.Contains(t, out, "Bollinger(10, 5.00): mean n/a")
	assert.Contains(t, out, "52w range: 9.00 - 12.00 (position 83%)")
	assert.Contains(t, out, "OBV   OBV 100.00")
	assert.Contains(t, out, "Apple Inc.\nCupertino, CA.")
	assert.Contains(t, out, model.NoDescription)
}

func TestFormatView_Errors(t *testing.T) {
	v := testView()
	v.Requested = "AAPL"
	v.LevelsErr = model.ErrNoData
	v.CompanyErr = errors.New("down")

	out := FormatView(v)
	assert.NotContains(t, out, "unavailable, showing")
	assert.Contains(t, out, "Levels: no data")
	assert.NotContains(t, out, "Apple Inc.")
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]model.ActiveStock{
		{Symbol: "TSLA", Last: decimal.NewFromInt(240), Change: decimal.NewFromInt(-10), ChangePercent: decimal.NewFromInt(-4)},
		{Symbol: "GOOGL", Last: decimal.RequireFromString("141.5"), Change: decimal.RequireFromString("1.5"), ChangePercent: decimal.RequireFromString("1.07")},
	})

	assert.Contains(t, out, "TSLA         240.00    -10.00   -4.00%")
	assert.Contains(t, out, "GOOGL        141.50     +1.50   +1.07%")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No recorded views.\n", FormatHistory(nil))

	out := FormatHistory([]recorder.ViewRecord{{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local),
		ViewSnapshot: recorder.ViewSnapshot{
			Requested: "ZZZZ", Symbol: "AAPL", Window: 10, K: 5, Close: 181,
			Upper: math.NaN(), Lower: math.NaN(),
			Indicators: []model.IndicatorKind{model.IndicatorOBV, model.IndicatorSO},
		},
	}})
	assert.Contains(t, out, "2025-01-02 03:04:05  ZZZZ   served=AAPL   close=181.00 bands(10, 5.00)=[n/a, n/a] OBV,SO")
}
