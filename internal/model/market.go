package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoData is returned when a series lookup falls outside the available bars.
var ErrNoData = errors.New("no data")

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Series is the ascending, de-duplicated price history of one ticker.
// A Series is never mutated after NewSeries returns it; a refetch produces a new one.
type Series struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// NewSeries copies bars, sorts them by time and keeps one bar per calendar day.
// When two bars share a day the later one in the input wins.
func NewSeries(symbol string, bars []OHLCV) *Series {
	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return &Series{Symbol: symbol, Bars: out, FetchedAt: time.Now()}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// At returns the bar at offset, or ErrNoData when the offset is out of range.
func (s *Series) At(offset int) (OHLCV, error) {
	if offset < 0 || offset >= s.Len() {
		return OHLCV{}, fmt.Errorf("offset %d of %d bars: %w", offset, s.Len(), ErrNoData)
	}
	return s.Bars[offset], nil
}

// Latest returns the most recent bar.
func (s *Series) Latest() (OHLCV, error) {
	return s.At(s.Len() - 1)
}

// IndexOf returns the offset of the bar on the calendar day of t.
func (s *Series) IndexOf(t time.Time) (int, error) {
	n := s.Len()
	i := sort.Search(n, func(i int) bool {
		return !s.Bars[i].Time.Before(t) || sameDay(s.Bars[i].Time, t)
	})
	if i < n && sameDay(s.Bars[i].Time, t) {
		return i, nil
	}
	return -1, fmt.Errorf("date %s: %w", t.Format("2006-01-02"), ErrNoData)
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	return s.column(func(b OHLCV) float64 { return b.Close })
}

// Opens returns the open column.
func (s *Series) Opens() []float64 {
	return s.column(func(b OHLCV) float64 { return b.Open })
}

// Highs returns the high column.
func (s *Series) Highs() []float64 {
	return s.column(func(b OHLCV) float64 { return b.High })
}

// Lows returns the low column.
func (s *Series) Lows() []float64 {
	return s.column(func(b OHLCV) float64 { return b.Low })
}

// Volumes returns the volume column as float64.
func (s *Series) Volumes() []float64 {
	return s.column(func(b OHLCV) float64 { return float64(b.Volume) })
}

func (s *Series) column(pick func(OHLCV) float64) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = pick(s.Bars[i])
	}
	return out
}
