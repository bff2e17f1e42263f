package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/collector"
	"MarketDash/internal/model"
	"MarketDash/internal/recorder"
)

type memRecorder struct {
	mu      sync.Mutex
	fetches []recorder.FetchEvent
	tables  [][]model.ActiveStock
}

func (m *memRecorder) RecordView(*recorder.ViewSnapshot) error { return nil }

func (m *memRecorder) RecordFetch(evt *recorder.FetchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, *evt)
	return nil
}

func (m *memRecorder) RecordTable(rows []model.ActiveStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, rows)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func newTestScheduler(watchlist []string) (*Scheduler, *collector.MockFetcher, *memRecorder) {
	mock := &collector.MockFetcher{Price: 100, Days: 30, Errors: map[string]error{"ZZZZ": errors.New("not found")}}
	col := collector.NewCollector(mock, collector.Options{})
	rec := &memRecorder{}
	return NewScheduler(context.Background(), col, rec, watchlist, []string{"AAPL", "TSLA"}, nil), mock, rec
}

func TestRefreshTask_RefetchesAndRecords(t *testing.T) {
	s, mock, rec := newTestScheduler([]string{"tsla", "ZZZZ"})

	s.RunRefreshNow()
	s.RunRefreshNow()

	assert.Equal(t, 2, mock.Calls("history", "TSLA"), "refresh bypasses the cache")
	require.Len(t, rec.fetches, 4)
	assert.Equal(t, "TSLA", rec.fetches[0].Served)
	assert.Equal(t, "ZZZZ", rec.fetches[1].Symbol)
	assert.Equal(t, "AAPL", rec.fetches[1].Served)
	assert.Empty(t, rec.fetches[1].Err)
	assert.Equal(t, "mock", rec.fetches[0].Source)
	assert.Empty(t, rec.fetches[3].Served, "cached ZZZZ is not replaced by the fallback")
	assert.Contains(t, rec.fetches[3].Err, "not found")
}

func TestRefreshTask_RecordsFailures(t *testing.T) {
	s, mock, rec := newTestScheduler([]string{"ZZZZ"})
	mock.Errors["AAPL"] = errors.New("down")

	s.RunRefreshNow()
	require.Len(t, rec.fetches, 1)
	assert.Empty(t, rec.fetches[0].Served)
	assert.Contains(t, rec.fetches[0].Err, "down")
}

func TestRefreshTask_StopsOnCancel(t *testing.T) {
	s, mock, rec := newTestScheduler([]string{"AAPL", "TSLA"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Ctx = ctx

	s.RunRefreshNow()
	assert.Empty(t, rec.fetches)
	assert.Zero(t, mock.Calls("history", "AAPL"))
}

func TestTableTask(t *testing.T) {
	s, _, rec := newTestScheduler(nil)

	s.RunTableNow()
	require.Len(t, rec.tables, 1)
	require.Len(t, rec.tables[0], 2)
	assert.Equal(t, "AAPL", rec.tables[0][0].Symbol)
	assert.Equal(t, "TSLA", rec.tables[0][1].Symbol)
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(nil)

	require.NoError(t, s.RegisterAll("0 */15 * * * *", "0 0 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s, _, _ = newTestScheduler(nil)
	assert.Error(t, s.RegisterAll("not a cron", "0 0 * * * *"))
}

func TestStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(nil)
	require.NoError(t, s.RegisterAll("0 0 0 1 1 *", "0 0 0 1 1 *"))
	s.Start()
	s.Stop()
}

func TestNewScheduler_DefaultTable(t *testing.T) {
	col := collector.NewCollector(&collector.MockFetcher{Price: 10}, collector.Options{})
	s := NewScheduler(context.Background(), col, nil, nil, nil, nil)
	assert.Equal(t, collector.DefaultTableSymbols, s.TableSymbols)
	assert.IsType(t, &recorder.NoopRecorder{}, s.Recorder)
}
