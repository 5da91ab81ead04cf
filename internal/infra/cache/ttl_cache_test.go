package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfinmcp/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type handle struct {
	symbol string
	serial int64
}

func countingFactory(calls *atomic.Int64) Factory[*handle] {
	return func(_ context.Context, key string) (*handle, error) {
		n := calls.Add(1)
		return &handle{symbol: key, serial: n}, nil
	}
}

func TestGetOrCreate_ReusesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[*handle](time.Hour, WithClock(clock.Now))
	var calls atomic.Int64

	first, err := c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	second, err := c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetOrCreate_RebuildsAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[*handle](time.Hour, WithClock(clock.Now))
	var calls atomic.Int64

	first, err := c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 0, stats.Expired)
}

func TestGetOrCreate_CanonicalizesKeys(t *testing.T) {
	c := New[*handle](time.Hour)
	var calls atomic.Int64

	lower, err := c.GetOrCreate(context.Background(), "infy", countingFactory(&calls))
	require.NoError(t, err)
	upper, err := c.GetOrCreate(context.Background(), " INFY ", countingFactory(&calls))
	require.NoError(t, err)

	assert.Same(t, lower, upper)
	assert.Equal(t, "INFY", lower.symbol)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("Infy"))
}

func TestGetOrCreate_FactoryErrorInsertsNothing(t *testing.T) {
	c := New[*handle](time.Hour)
	boom := errors.New("no such company")

	_, err := c.GetOrCreate(context.Background(), "NOPE", func(context.Context, string) (*handle, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrCreate_EmptyKey(t *testing.T) {
	c := New[*handle](time.Hour)
	_, err := c.GetOrCreate(context.Background(), "  ", countingFactory(new(atomic.Int64)))
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestGetOrCreate_ConcurrentMissesShareFactory(t *testing.T) {
	c := New[*handle](time.Hour)
	var calls atomic.Int64
	release := make(chan struct{})

	factory := func(_ context.Context, key string) (*handle, error) {
		calls.Add(1)
		<-release
		return &handle{symbol: key}, nil
	}

	const callers = 8
	results := make([]*handle, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.GetOrCreate(context.Background(), "tcs", factory)
			assert.NoError(t, err)
			results[i] = h
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, h := range results {
		assert.Same(t, results[0], h)
	}
}

func TestGetOrCreate_CallerCancelDoesNotFailOthers(t *testing.T) {
	c := New[*handle](time.Hour)
	var calls atomic.Int64
	release := make(chan struct{})

	factory := func(ctx context.Context, key string) (*handle, error) {
		calls.Add(1)
		select {
		case <-release:
			return &handle{symbol: key}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCreate(firstCtx, "INFY", factory)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		h   *handle
		err error
	}
	second := make(chan result, 1)
	go func() {
		h, err := c.GetOrCreate(context.Background(), "INFY", factory)
		second <- result{h, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared factory")
	}

	close(release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		require.NotNil(t, r.h)
		assert.Equal(t, "INFY", r.h.symbol)
	case <-time.After(time.Second):
		t.Fatal("second caller never received the shared result")
	}
	assert.Equal(t, int64(1), calls.Load())
	assert.True(t, c.Contains("INFY"))
}

func TestClearDuringMissSkipsInsert(t *testing.T) {
	for name, drop := range map[string]func(c *TTLCache[*handle]){
		"clear": func(c *TTLCache[*handle]) { c.Clear() },
		"evict": func(c *TTLCache[*handle]) { c.Evict("WIPRO") },
	} {
		t.Run(name, func(t *testing.T) {
			c := New[*handle](time.Hour)
			started := make(chan struct{})
			release := make(chan struct{})

			got := make(chan *handle, 1)
			go func() {
				h, err := c.GetOrCreate(context.Background(), "WIPRO", func(_ context.Context, key string) (*handle, error) {
					close(started)
					<-release
					return &handle{symbol: key}, nil
				})
				assert.NoError(t, err)
				got <- h
			}()
			<-started

			drop(c)
			close(release)

			select {
			case h := <-got:
				require.NotNil(t, h)
				assert.Equal(t, "WIPRO", h.symbol)
			case <-time.After(time.Second):
				t.Fatal("in-flight caller never returned")
			}
			assert.False(t, c.Contains("WIPRO"))
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestAdminOpsDoNotWaitForFactory(t *testing.T) {
	c := New[*handle](time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrCreate(context.Background(), "SLOW", func(_ context.Context, key string) (*handle, error) {
			close(started)
			<-release
			return &handle{symbol: key}, nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_ = c.Stats()
		_ = c.Clear()
		_ = c.SweepExpired()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("admin operations blocked behind an in-flight factory")
	}
	close(release)
}

func TestEvictAndClear(t *testing.T) {
	c := New[*handle](time.Hour)
	var calls atomic.Int64
	for _, sym := range []string{"INFY", "TCS"} {
		_, err := c.GetOrCreate(context.Background(), sym, countingFactory(&calls))
		require.NoError(t, err)
	}

	assert.True(t, c.Evict("infy"))
	assert.False(t, c.Evict("INFY"))
	assert.True(t, c.Contains("TCS"))

	_, err := c.GetOrCreate(context.Background(), "HDFCBANK", countingFactory(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Clear())
}

func TestSweepExpired(t *testing.T) {
	clock := newFakeClock()
	c := New[*handle](time.Hour, WithClock(clock.Now))
	var calls atomic.Int64

	for _, sym := range []string{"TCS", "INFY"} {
		_, err := c.GetOrCreate(context.Background(), sym, countingFactory(&calls))
		require.NoError(t, err)
	}
	clock.Advance(30 * time.Minute)
	_, err := c.GetOrCreate(context.Background(), "WIPRO", countingFactory(&calls))
	require.NoError(t, err)

	assert.Nil(t, c.SweepExpired())

	clock.Advance(30 * time.Minute)
	removed := c.SweepExpired()
	if diff := cmp.Diff([]string{"INFY", "TCS"}, removed); diff != "" {
		t.Fatalf("swept keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("WIPRO"))
}

func TestStatsCountsExpiredButPresent(t *testing.T) {
	clock := newFakeClock()
	c := New[*handle](24*time.Hour, WithClock(clock.Now))
	var calls atomic.Int64

	_, err := c.GetOrCreate(context.Background(), "OLD", countingFactory(&calls))
	require.NoError(t, err)
	clock.Advance(25 * time.Hour)
	_, err = c.GetOrCreate(context.Background(), "NEW", countingFactory(&calls))
	require.NoError(t, err)

	want := domain.CacheStats{Active: 1, Expired: 1, Total: 2, ExpiryHour: 24}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, c.Len(), "stats must not sweep")
}

func TestNewDefaultsTTL(t *testing.T) {
	c := New[*handle](0)
	assert.Equal(t, domain.DefaultCacheTTL, c.TTL())
}

type recordingMetrics struct {
	mu      sync.Mutex
	events  map[domain.CacheEvent]int
	entries int
}

func (r *recordingMetrics) ObserveTool(domain.ToolMetric) {}
func (r *recordingMetrics) ObserveCache(event domain.CacheEvent, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[domain.CacheEvent]int)
	}
	r.events[event] += count
}
func (r *recordingMetrics) SetCacheEntries(count int) {
	r.mu.Lock()
	r.entries = count
	r.mu.Unlock()
}
func (r *recordingMetrics) ObserveSessionBuild(time.Duration, error) {}
func (r *recordingMetrics) ObserveLogin(bool)                        {}
func (r *recordingMetrics) ObserveTickerFetch(time.Duration, error)  {}

func TestMetricsRecorded(t *testing.T) {
	metrics := &recordingMetrics{}
	c := New[*handle](time.Hour, WithMetrics(metrics))
	var calls atomic.Int64

	_, _ = c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	_, _ = c.GetOrCreate(context.Background(), "INFY", countingFactory(&calls))
	c.Evict("INFY")

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.events[domain.CacheEventMiss])
	assert.Equal(t, 1, metrics.events[domain.CacheEventHit])
	assert.Equal(t, 1, metrics.events[domain.CacheEventEvict])
	assert.Equal(t, 0, metrics.entries)
}
