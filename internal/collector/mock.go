package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Days    int
	History map[string][]model.OHLCV
	Info    map[string]model.CompanyInfo
	Active  []model.ActiveStock
	Errors  map[string]error // per-symbol failures; key "" fails FetchMostActive

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) record(kind, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[kind+":"+symbol]++
	return m.Errors[symbol]
}

// Calls reports how many times kind ("history", "info", "active") was fetched for symbol.
func (m *MockFetcher) Calls(kind, symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind+":"+symbol]
}

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	if err := m.record("history", symbol); err != nil {
		return nil, err
	}
	if bars, ok := m.History[symbol]; ok {
		return bars, nil
	}
	days := m.Days
	if days == 0 {
		days = 60
	}
	return GenerateMockBars(m.Price, days, time.Now()), nil
}

func (m *MockFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	if err := m.record("info", symbol); err != nil {
		return model.CompanyInfo{}, err
	}
	if info, ok := m.Info[symbol]; ok {
		return info, nil
	}
	return model.NewCompanyInfo(symbol, "", "", "", symbol+" Inc.", ""), nil
}

func (m *MockFetcher) FetchMostActive(ctx context.Context, count int) ([]model.ActiveStock, error) {
	if err := m.record("active", ""); err != nil {
		return nil, err
	}
	if m.Active != nil {
		if count < len(m.Active) {
			return m.Active[:count], nil
		}
		return m.Active, nil
	}
	out := make([]model.ActiveStock, 0, count)
	for i := 0; i < count; i++ {
		p := decimal.NewFromFloat(m.Price).Add(decimal.NewFromInt(int64(i)))
		out = append(out, model.ActiveStock{
			Symbol: fmt.Sprintf("MOCK%d", i),
			Name:   fmt.Sprintf("Mock %d", i),
			Last:   p,
		})
	}
	return out, nil
}

// GenerateMockBars builds count daily bars ending the day before end, drifting
// upward around basePrice.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + int64(i%7)*25000,
		}
	}
	return bars
}
