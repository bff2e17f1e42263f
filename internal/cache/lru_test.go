package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetSet(t *testing.T) {
	c := New[string, int](4, Observer{})
	c.Set("AAPL", 1)

	v, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("TSLA")
	assert.False(t, ok)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, string](2, Observer{OnEvict: func(k string) { evicted = append(evicted, k) }})
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "TSLA", "GOOGL"} {
		sym := sym
		_, err := c.GetOrFetch(ctx, sym, func(context.Context) (string, error) { return sym + "-data", nil })
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"TSLA", "GOOGL"}, c.Keys())
	assert.False(t, c.Contains("AAPL"))
	assert.Equal(t, []string{"AAPL"}, evicted)
}

func TestLRU_AccessRefreshesRecency(t *testing.T) {
	c := New[string, int](2, Observer{})
	c.Set("AAPL", 1)
	c.Set("TSLA", 2)
	c.Get("AAPL")
	c.Set("GOOGL", 3)

	assert.True(t, c.Contains("AAPL"))
	assert.False(t, c.Contains("TSLA"))
	assert.Equal(t, []string{"GOOGL", "AAPL"}, c.Keys())
}

func TestLRU_PeekDoesNotRefresh(t *testing.T) {
	c := New[string, int](2, Observer{})
	c.Set("AAPL", 1)
	c.Set("TSLA", 2)
	c.Peek("AAPL")
	c.Set("GOOGL", 3)

	assert.False(t, c.Contains("AAPL"))
}

func TestLRU_SetExistingKeyKeepsSize(t *testing.T) {
	c := New[string, int](2, Observer{})
	c.Set("AAPL", 1)
	c.Set("AAPL", 2)

	assert.Equal(t, 1, c.Len())
	v, _ := c.Get("AAPL")
	assert.Equal(t, 2, v)
}

func TestLRU_CapacityFloor(t *testing.T) {
	c := New[string, int](0, Observer{})
	assert.Equal(t, 1, c.Capacity())
	c.Set("A", 1)
	c.Set("B", 2)
	assert.Equal(t, []string{"B"}, c.Keys())
}

func TestLRU_GetOrFetchCachesValue(t *testing.T) {
	var hits, misses int
	c := New[string, int](4, Observer{OnHit: func() { hits++ }, OnMiss: func() { misses++ }})
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrFetch(context.Background(), "AAPL", fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
}

func TestLRU_ErrorsAreNotCached(t *testing.T) {
	c := New[string, int](4, Observer{})
	boom := errors.New("network down")

	_, err := c.GetOrFetch(context.Background(), "AAPL", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrFetch(context.Background(), "AAPL", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLRU_ConcurrentMissesShareFetch(t *testing.T) {
	c := New[string, int](4, Observer{})
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 9, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), "AAPL", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 9, v)
	}
}

func TestLRU_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	c := New[string, int](4, Observer{})
	started := make(chan struct{})
	release := make(chan struct{})
	var fetchErr atomic.Value
	fetch := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			fetchErr.Store(err)
			return 0, err
		}
		return 9, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(leaderCtx, "AAPL", fetch)
		leaderDone <- err
	}()
	<-started

	waiterDone := make(chan int, 1)
	go func() {
		v, err := c.GetOrFetch(context.Background(), "AAPL", fetch)
		assert.NoError(t, err)
		waiterDone <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderDone, context.Canceled)

	close(release)
	assert.Equal(t, 9, <-waiterDone)
	assert.Nil(t, fetchErr.Load())

	v, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestLRU_Refresh(t *testing.T) {
	c := New[string, int](4, Observer{})
	c.Set("AAPL", 1)

	v, err := c.Refresh(context.Background(), "AAPL", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = c.Refresh(context.Background(), "AAPL", func(context.Context) (int, error) { return 0, errors.New("down") })
	assert.Error(t, err)
	got, _ := c.Get("AAPL")
	assert.Equal(t, 2, got, "failed refresh keeps previous value")
}

func TestLRU_RemovePurge(t *testing.T) {
	c := New[string, int](4, Observer{})
	c.Set("A", 1)
	c.Set("B", 2)

	assert.True(t, c.Remove("A"))
	assert.False(t, c.Remove("A"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}
