package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

const (
	yahooChartBase   = "https://query1.finance.yahoo.com"
	yahooSummaryBase = "https://query2.finance.yahoo.com"

	// HistoryYears is how much daily history a fetch asks for.
	HistoryYears = 3
)

// YahooFetcher implements Fetcher using Yahoo Finance public JSON endpoints.
type YahooFetcher struct {
	Client      *http.Client
	ChartBase   string
	SummaryBase string
	SymbolMap   map[string]string // maps display symbol to Yahoo ticker
	Now         func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		ChartBase:   yahooChartBase,
		SummaryBase: yahooSummaryBase,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
		},
		Now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				City                string `json:"city"`
				State               string `json:"state"`
				Website             string `json:"website"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			Price struct {
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

type yahooScreener struct {
	Finance struct {
		Result []struct {
			Quotes []struct {
				Symbol                     string  `json:"symbol"`
				ShortName                  string  `json:"shortName"`
				RegularMarketPrice         float64 `json:"regularMarketPrice"`
				RegularMarketChange        float64 `json:"regularMarketChange"`
				RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			} `json:"quotes"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// FetchHistory returns roughly three years of daily bars in ascending order.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	now := f.Now()
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.ChartBase, url.PathEscape(f.yahooSymbol(symbol)),
		now.AddDate(-HistoryYears, 0, 0).Unix(), now.Unix())

	var chart yahooChart
	if err := f.getJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // no close, no bar (holidays, halted sessions)
		}
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), *quote.Close[i]
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(at(quote.Volume, i)),
		})
	}
	return bars, nil
}

// FetchCompanyInfo reads the asset profile and short name.
func (f *YahooFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,price",
		f.SummaryBase, url.PathEscape(f.yahooSymbol(symbol)))

	var summary yahooSummary
	if err := f.getJSON(ctx, u, &summary); err != nil {
		return model.CompanyInfo{}, err
	}
	if summary.QuoteSummary.Error != nil {
		return model.CompanyInfo{}, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return model.CompanyInfo{}, fmt.Errorf("yahoo %s profile: %w", symbol, model.ErrNoData)
	}
	r := summary.QuoteSummary.Result[0]
	p := r.AssetProfile
	return model.NewCompanyInfo(symbol, p.City, p.State, p.LongBusinessSummary, r.Price.ShortName, p.Website), nil
}

// FetchMostActive reads the predefined "most_actives" screener.
func (f *YahooFetcher) FetchMostActive(ctx context.Context, count int) ([]model.ActiveStock, error) {
	u := fmt.Sprintf("%s/v1/finance/screener/predefined/saved?scrIds=most_actives&count=%d", f.ChartBase, count)

	var screener yahooScreener
	if err := f.getJSON(ctx, u, &screener); err != nil {
		return nil, err
	}
	if screener.Finance.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", screener.Finance.Error.Description)
	}
	if len(screener.Finance.Result) == 0 {
		return nil, fmt.Errorf("yahoo most actives: %w", model.ErrNoData)
	}
	quotes := screener.Finance.Result[0].Quotes
	out := make([]model.ActiveStock, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, model.ActiveStock{
			Symbol:        q.Symbol,
			Name:          q.ShortName,
			Last:          decimal.NewFromFloat(q.RegularMarketPrice).Round(2),
			Change:        decimal.NewFromFloat(q.RegularMarketChange).Round(2),
			ChangePercent: decimal.NewFromFloat(q.RegularMarketChangePercent).Round(2),
		})
	}
	return out, nil
}
