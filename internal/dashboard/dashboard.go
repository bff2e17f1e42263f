// Package dashboard assembles everything one chart view needs: the price
// series, Bollinger bands, the selected indicator subplots, the price-levels
// readout and company details.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/phuslu/log"

	"MarketDash/internal/calculator"
	"MarketDash/internal/collector"
	"MarketDash/internal/logger"
	"MarketDash/internal/metrics"
	"MarketDash/internal/model"
	"MarketDash/internal/recorder"
)

// Request is one user interaction: ticker, toggled indicators, parameters
// and the hovered bar. A nil Hover and zero HoverDate mean the latest bar.
type Request struct {
	Symbol     string
	Indicators []model.IndicatorKind
	Params     calculator.Params
	Hover      *int
	HoverDate  time.Time
}

// Range is the trailing 52-week high/low and where the last close sits in it.
type Range struct {
	High     float64
	Low      float64
	Position float64
}

// View is the computed content of one dashboard render.
type View struct {
	Requested  string
	Series     *model.Series
	Settings   calculator.Settings
	Bands      calculator.Bands
	Indicators []model.IndicatorOutput

	Levels    model.Levels
	LevelsErr error // set when the hovered offset has no bar

	Range    Range
	RangeErr error

	Company    model.CompanyInfo
	CompanyErr error
}

// FellBack reports whether the series belongs to the fallback ticker rather
// than the requested one.
func (v *View) FellBack() bool {
	return v.Series != nil && v.Series.Symbol != v.Requested
}

// Indicator returns the computed output for kind.
func (v *View) Indicator(kind model.IndicatorKind) (model.IndicatorOutput, bool) {
	for _, out := range v.Indicators {
		if out.Kind == kind {
			return out, true
		}
	}
	return model.IndicatorOutput{}, false
}

// Options configures a Service. Zero values pick the defaults.
type Options struct {
	Defaults calculator.Defaults
	Recorder recorder.Recorder
	Logger   *log.Logger
	Metrics  *metrics.Metrics
}

// Service builds views from a Collector.
type Service struct {
	Collector *collector.Collector
	Defaults  calculator.Defaults

	recorder recorder.Recorder
	log      *log.Logger
	metrics  *metrics.Metrics
}

// NewService creates a new Service.
func NewService(col *collector.Collector, opts Options) *Service {
	d := calculator.StandardDefaults()
	if opts.Defaults.Periods >= 2 {
		d.Periods = opts.Defaults.Periods
	}
	if opts.Defaults.Std > 0 && !math.IsInf(opts.Defaults.Std, 0) {
		d.Std = opts.Defaults.Std
	}
	if opts.Defaults.StochasticWindow >= 1 {
		d.StochasticWindow = opts.Defaults.StochasticWindow
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Service{
		Collector: col,
		Defaults:  d,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Build computes the view for req. Only a failure to obtain any price series
// is fatal; a bad hover offset or missing company details are reported on
// the view itself.
func (s *Service) Build(ctx context.Context, req Request) (*View, error) {
	requested := collector.NormalizeSymbol(req.Symbol)
	if requested == "" {
		requested = s.Collector.FallbackSymbol
	}
	series, err := s.Collector.Series(ctx, requested)
	if err != nil {
		return nil, fmt.Errorf("build view %s: %w", requested, err)
	}

	set := req.Params.Resolve(s.Defaults)
	v := &View{
		Requested: requested,
		Series:    series,
		Settings:  set,
		Bands:     calculator.BollingerBands(series.Closes(), set.Window, set.K),
	}

	for _, kind := range Dedup(req.Indicators) {
		start := time.Now()
		out, err := calculator.Compute(kind, series, set)
		if err != nil {
			s.log.Warn().Err(err).Str("indicator", string(kind)).Msg("indicator skipped")
			continue
		}
		s.metrics.ObserveIndicator(string(kind), time.Since(start))
		v.Indicators = append(v.Indicators, out)
	}

	v.Levels, v.LevelsErr = levelsFor(series, req)

	if high, low, err := calculator.Calculate52WeekRange(series.Bars); err != nil {
		v.RangeErr = err
	} else {
		last, _ := series.Latest()
		pos, err := calculator.CalculateRangePosition(last.Close, high, low)
		v.Range, v.RangeErr = Range{High: high, Low: low, Position: pos}, err
	}

	v.Company, v.CompanyErr = s.Collector.CompanyInfo(ctx, requested)
	if v.CompanyErr != nil {
		s.log.Warn().Err(v.CompanyErr).Str("symbol", requested).Msg("company details unavailable")
	}

	if v.FellBack() {
		s.log.Warn().Str("requested", requested).Str("served", series.Symbol).Msg("view built from fallback series")
	}
	s.metrics.ViewBuilt()
	if err := s.recorder.RecordView(snapshot(v)); err != nil {
		s.log.Error().Err(err).Str("symbol", requested).Msg("record view")
	}
	return v, nil
}

func levelsFor(series *model.Series, req Request) (model.Levels, error) {
	switch {
	case req.Hover != nil:
		return model.LevelsAt(series, *req.Hover)
	case !req.HoverDate.IsZero():
		idx, err := series.IndexOf(req.HoverDate)
		if err != nil {
			return model.Levels{}, err
		}
		return model.LevelsAt(series, idx)
	}
	return model.LatestLevels(series)
}

func snapshot(v *View) *recorder.ViewSnapshot {
	snap := &recorder.ViewSnapshot{
		Requested: v.Requested,
		Symbol:    v.Series.Symbol,
		Window:    v.Settings.Window,
		K:         v.Settings.K,
		Bars:      v.Series.Len(),
		Close:     math.NaN(),
		Mean:      last(v.Bands.Mean),
		Upper:     last(v.Bands.Upper),
		Lower:     last(v.Bands.Lower),
	}
	for _, out := range v.Indicators {
		snap.Indicators = append(snap.Indicators, out.Kind)
	}
	if bar, err := v.Series.Latest(); err == nil {
		snap.Close = bar.Close
	}
	return snap
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

// Dedup drops repeated indicator kinds, keeping first-seen order.
func Dedup(kinds []model.IndicatorKind) []model.IndicatorKind {
	seen := make(map[model.IndicatorKind]bool, len(kinds))
	out := make([]model.IndicatorKind, 0, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ParseIndicators parses a comma-separated indicator list such as "OBV,macd,A/D".
func ParseIndicators(list string) ([]model.IndicatorKind, error) {
	var kinds []model.IndicatorKind
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := model.ParseIndicatorKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return Dedup(kinds), nil
}
