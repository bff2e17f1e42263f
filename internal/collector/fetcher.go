package collector

import (
	"context"

	"MarketDash/internal/model"
)

// Fetcher is the network boundary: everything behind it is an upstream data source.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string) ([]model.OHLCV, error)
	FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error)
	FetchMostActive(ctx context.Context, count int) ([]model.ActiveStock, error)
	Name() string
}
