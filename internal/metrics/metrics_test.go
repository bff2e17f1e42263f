package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/cache"
)

func TestCacheObserver_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)
	c := cache.New[string, int](1, m.CacheObserver("history"))
	fetch := func(context.Context) (int, error) { return 1, nil }

	_, err := c.GetOrFetch(context.Background(), "AAPL", fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), "AAPL", fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), "TSLA", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("history")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictions.WithLabelValues("history")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FetchFailed("history")
		m.FellBack("history")
		m.ViewBuilt()
		m.ObserveIndicator("OBV", 0)
		_ = m.CacheObserver("history")
	})
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("dash", reg)
	m.ViewBuilt()
	m.FellBack("company")

	count, err := testutil.GatherAndCount(reg, "dash_views_built_total", "dash_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Panics(t, func() { New("dash", reg) })
}
