package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"MarketDash/internal/cache"
	"MarketDash/internal/logger"
	"MarketDash/internal/metrics"
	"MarketDash/internal/model"
)

const (
	DefaultFallbackSymbol = "AAPL"
	DefaultActiveCount    = 25

	kindHistory = "history"
	kindCompany = "company"
	kindActive  = "active"

	// activeKey is the single cache key of the global most-active listing.
	activeKey = ""
)

// DefaultTableSymbols are the tickers of the summary table.
var DefaultTableSymbols = []string{"AAPL", "GOOGL", "YHOO", "TSLA", "COKE"}

// ErrFallbackFailed matches a FallbackError with errors.Is.
var ErrFallbackFailed = errors.New("fallback fetch failed")

// FallbackError is returned when a fetch failed and the single retry with the
// fallback symbol failed too.
type FallbackError struct {
	Kind     string
	Symbol   string
	Fallback string
	Err      error // original failure
	RetryErr error // fallback failure; nil when Symbol was already the fallback
}

func (e *FallbackError) Error() string {
	if e.RetryErr == nil {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s %s: %v; fallback %s: %v", e.Kind, e.Symbol, e.Err, e.Fallback, e.RetryErr)
}

func (e *FallbackError) Is(target error) bool { return target == ErrFallbackFailed }

func (e *FallbackError) Unwrap() []error {
	if e.RetryErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.RetryErr}
}

// Options configures a Collector. Zero values pick the defaults.
type Options struct {
	Capacity       int
	FallbackSymbol string
	ActiveCount    int
	Logger         *log.Logger
	Metrics        *metrics.Metrics
}

// Collector serves price history, company metadata and the most-active
// listing through per-kind LRU caches. A failed fetch is retried once with
// the fallback symbol; the fallback result is cached under the requested key.
type Collector struct {
	Fetcher        Fetcher
	FallbackSymbol string
	ActiveCount    int

	history *cache.LRU[string, *model.Series]
	company *cache.LRU[string, model.CompanyInfo]
	active  *cache.LRU[string, []model.ActiveStock]

	log     *log.Logger
	metrics *metrics.Metrics
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options) *Collector {
	if opts.Capacity <= 0 {
		opts.Capacity = cache.DefaultCapacity
	}
	if opts.FallbackSymbol == "" {
		opts.FallbackSymbol = DefaultFallbackSymbol
	}
	if opts.ActiveCount <= 0 {
		opts.ActiveCount = DefaultActiveCount
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Collector{
		Fetcher:        fetcher,
		FallbackSymbol: NormalizeSymbol(opts.FallbackSymbol),
		ActiveCount:    opts.ActiveCount,
		history:        cache.New[string, *model.Series](opts.Capacity, opts.Metrics.CacheObserver(kindHistory)),
		company:        cache.New[string, model.CompanyInfo](opts.Capacity, opts.Metrics.CacheObserver(kindCompany)),
		active:         cache.New[string, []model.ActiveStock](opts.Capacity, opts.Metrics.CacheObserver(kindActive)),
		log:            opts.Logger,
		metrics:        opts.Metrics,
	}
}

// NormalizeSymbol trims whitespace and leading slashes and upper-cases the ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimLeft(strings.TrimSpace(symbol), "/"))
}

func (c *Collector) resolve(symbol string) string {
	if s := NormalizeSymbol(symbol); s != "" {
		return s
	}
	return c.FallbackSymbol
}

// Series returns the cached or freshly fetched history for symbol. When the
// fetch fails the fallback symbol's history is returned; Series.Symbol names
// the ticker the bars actually belong to.
func (c *Collector) Series(ctx context.Context, symbol string) (*model.Series, error) {
	sym := c.resolve(symbol)
	return c.history.GetOrFetch(ctx, sym, func(ctx context.Context) (*model.Series, error) {
		return withFallback(ctx, c, kindHistory, sym, c.fetchSeries)
	})
}

// Refresh re-fetches symbol's history and replaces the cached entry. When
// symbol is already cached a failed fetch returns the error and the cached
// history stays in place; otherwise it falls back like Series.
func (c *Collector) Refresh(ctx context.Context, symbol string) (*model.Series, error) {
	sym := c.resolve(symbol)
	return c.history.Refresh(ctx, sym, func(ctx context.Context) (*model.Series, error) {
		if !c.history.Contains(sym) {
			return withFallback(ctx, c, kindHistory, sym, c.fetchSeries)
		}
		s, err := c.fetchSeries(ctx, sym)
		if err != nil {
			c.metrics.FetchFailed(kindHistory)
			c.log.Warn().Err(err).Str("symbol", sym).Msg("refresh failed, keeping cached history")
			return nil, err
		}
		return s, nil
	})
}

func (c *Collector) fetchSeries(ctx context.Context, symbol string) (*model.Series, error) {
	bars, err := c.Fetcher.FetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s := model.NewSeries(symbol, bars)
	if s.Len() == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, model.ErrNoData)
	}
	return s, nil
}

// CompanyInfo returns the cached or freshly fetched metadata for symbol,
// falling back like Series.
func (c *Collector) CompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	sym := c.resolve(symbol)
	return c.company.GetOrFetch(ctx, sym, func(ctx context.Context) (model.CompanyInfo, error) {
		return withFallback(ctx, c, kindCompany, sym, c.Fetcher.FetchCompanyInfo)
	})
}

// MostActive returns the most-active listing. If the screener is unavailable
// the summary table of DefaultTableSymbols is served instead.
func (c *Collector) MostActive(ctx context.Context) ([]model.ActiveStock, error) {
	return c.active.GetOrFetch(ctx, activeKey, func(ctx context.Context) ([]model.ActiveStock, error) {
		rows, err := c.Fetcher.FetchMostActive(ctx, c.ActiveCount)
		if err == nil {
			return rows, nil
		}
		c.metrics.FetchFailed(kindActive)
		c.log.Warn().Err(err).Str("source", c.Fetcher.Name()).Msg("most active listing unavailable, using summary table")
		rows, terr := c.Table(ctx, DefaultTableSymbols)
		if terr != nil {
			return nil, &FallbackError{Kind: kindActive, Symbol: "most_actives", Fallback: "table", Err: err, RetryErr: terr}
		}
		c.metrics.FellBack(kindActive)
		return rows, nil
	})
}

// Table builds summary rows (last close, change and change percent versus the
// previous close, rounded to 2 dp) for symbols. Symbols whose history could
// only be served by the fallback are left out; a symbol with a single bar
// gets zero change.
func (c *Collector) Table(ctx context.Context, symbols []string) ([]model.ActiveStock, error) {
	rows := make([]model.ActiveStock, 0, len(symbols))
	var errs []error
	for _, symbol := range symbols {
		sym := c.resolve(symbol)
		s, err := c.Series(ctx, sym)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.Symbol != sym {
			c.log.Warn().Str("symbol", sym).Str("served", s.Symbol).Msg("table row skipped, history came from fallback")
			continue
		}
		row, err := SummaryRow(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rows, nil
}

// SummaryRow derives one table row from the last two bars of s.
func SummaryRow(s *model.Series) (model.ActiveStock, error) {
	last, err := s.Latest()
	if err != nil {
		return model.ActiveStock{}, err
	}
	row := model.ActiveStock{
		Symbol:        s.Symbol,
		Last:          decimal.NewFromFloat(last.Close).Round(2),
		Change:        decimal.Zero,
		ChangePercent: decimal.Zero,
	}
	prev, err := s.At(s.Len() - 2)
	if err != nil {
		return row, nil
	}
	cur, before := decimal.NewFromFloat(last.Close), decimal.NewFromFloat(prev.Close)
	diff := cur.Sub(before)
	row.Change = diff.Round(2)
	if !before.IsZero() {
		row.ChangePercent = diff.Div(before).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return row, nil
}

// CachedSymbols lists the tickers with cached history, most recent first.
func (c *Collector) CachedSymbols() []string {
	return c.history.Keys()
}

func withFallback[V any](ctx context.Context, c *Collector, kind, symbol string, fetch func(context.Context, string) (V, error)) (V, error) {
	var zero V
	v, err := fetch(ctx, symbol)
	if err == nil {
		return v, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	c.metrics.FetchFailed(kind)
	if symbol == c.FallbackSymbol {
		c.log.Error().Err(err).Str("kind", kind).Str("symbol", symbol).Msg("fallback symbol unavailable")
		return zero, &FallbackError{Kind: kind, Symbol: symbol, Fallback: c.FallbackSymbol, Err: err}
	}
	c.log.Warn().Err(err).Str("kind", kind).Str("symbol", symbol).Str("fallback", c.FallbackSymbol).Msg("fetch failed, using fallback symbol")

	v, retryErr := fetch(ctx, c.FallbackSymbol)
	if retryErr != nil {
		c.metrics.FetchFailed(kind)
		c.log.Error().Err(retryErr).Str("kind", kind).Str("symbol", c.FallbackSymbol).Msg("fallback fetch failed")
		return zero, &FallbackError{Kind: kind, Symbol: symbol, Fallback: c.FallbackSymbol, Err: err, RetryErr: retryErr}
	}
	c.metrics.FellBack(kind)
	return v, nil
}
