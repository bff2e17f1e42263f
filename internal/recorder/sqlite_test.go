package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "dash.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return r
}

func TestSQLiteRecorder_Views(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordView(&ViewSnapshot{
		Requested: "ZZZZ", Symbol: "AAPL", Indicators: []model.IndicatorKind{model.IndicatorOBV, model.IndicatorAD},
		Window: 10, K: 5, Bars: 3, Close: 181, Mean: math.NaN(), Upper: math.NaN(), Lower: math.NaN(),
	}))
	require.NoError(t, r.RecordView(&ViewSnapshot{
		Requested: "ZZZZ", Symbol: "AAPL", Window: 10, K: 5, Bars: 30, Close: 190, Mean: 185, Upper: 200, Lower: 170,
	}))
	require.NoError(t, r.RecordView(&ViewSnapshot{Requested: "TSLA", Symbol: "TSLA", Window: 3, K: 2}))

	views, err := r.LatestViews("ZZZZ", 10)
	require.NoError(t, err)
	require.Len(t, views, 2)

	newest, oldest := views[0], views[1]
	assert.Equal(t, 190.0, newest.Close)
	assert.Equal(t, 200.0, newest.Upper)
	assert.Empty(t, newest.Indicators)
	assert.NotEmpty(t, newest.ID)
	assert.NotEqual(t, newest.ID, oldest.ID)

	assert.Equal(t, "AAPL", oldest.Symbol)
	assert.Equal(t, []model.IndicatorKind{model.IndicatorOBV, model.IndicatorAD}, oldest.Indicators)
	assert.True(t, math.IsNaN(oldest.Mean), "NaN round-trips through NULL")
	assert.True(t, newest.Timestamp.After(oldest.Timestamp))

	limited, err := r.LatestViews("ZZZZ", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_FetchAndTable(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordFetch(&FetchEvent{Kind: "history", Symbol: "AAPL", Served: "AAPL", Source: "mock", Duration: 15 * time.Millisecond}))
	require.NoError(t, r.RecordFetch(&FetchEvent{Kind: "history", Symbol: "ZZZZ", Source: "mock", Err: "not found"}))
	n, err := r.FetchCount("history")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := []model.ActiveStock{
		{Symbol: "AAPL", Last: decimal.RequireFromString("181.00"), Change: decimal.RequireFromString("-1"), ChangePercent: decimal.RequireFromString("-0.55")},
		{Symbol: "TSLA", Last: decimal.NewFromInt(240)},
	}
	require.NoError(t, r.RecordTable(rows))
	require.NoError(t, r.RecordTable(rows[:1]))
	batches, err := r.TableBatches()
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.RecordView(&ViewSnapshot{Requested: "AAPL", Symbol: "AAPL"}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()
	views, err := r.LatestViews("AAPL", 5)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordView(&ViewSnapshot{}))
	assert.NoError(t, r.RecordFetch(&FetchEvent{}))
	assert.NoError(t, r.RecordTable(nil))
	assert.NoError(t, r.Close())
}
