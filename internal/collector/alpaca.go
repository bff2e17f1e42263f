package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"MarketDash/internal/model"
)

// BarsClient is the part of the Alpaca market data client used here.
type BarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher reads daily history from the Alpaca data API. Alpaca has
// no company profile or most-active screener, so those calls go to Meta.
type AlpacaFetcher struct {
	Bars BarsClient
	Meta Fetcher
	Now  func() time.Time
}

// NewAlpacaFetcher creates a fetcher backed by an Alpaca market data client.
func NewAlpacaFetcher(apiKey, apiSecret string, meta Fetcher) *AlpacaFetcher {
	return &AlpacaFetcher{
		Bars: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		Meta: meta,
		Now:  time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchHistory returns daily IEX bars covering the last HistoryYears years.
func (f *AlpacaFetcher) FetchHistory(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := f.Now()
	bars, err := f.Bars.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     now.AddDate(-HistoryYears, 0, 0),
		End:       now,
		Feed:      marketdata.IEX,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, model.ErrNoData)
	}
	out := make([]model.OHLCV, len(bars))
	for i, b := range bars {
		out[i] = model.OHLCV{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		}
	}
	return out, nil
}

func (f *AlpacaFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	if f.Meta == nil {
		return model.CompanyInfo{}, fmt.Errorf("alpaca: no metadata source for %s", symbol)
	}
	return f.Meta.FetchCompanyInfo(ctx, symbol)
}

func (f *AlpacaFetcher) FetchMostActive(ctx context.Context, count int) ([]model.ActiveStock, error) {
	if f.Meta == nil {
		return nil, fmt.Errorf("alpaca: no most-active source")
	}
	return f.Meta.FetchMostActive(ctx, count)
}
