package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
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

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestClient(p Policy, clock *fakeClock, sleeper *recordingSleeper, opts ...Option) *Client {
	opts = append([]Option{WithClock(clock.Now), WithSleeper(sleeper.Sleep)}, opts...)
	return NewClient(p, opts...)
}

func waiters(c *Client, key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key.String()]; ok {
		return f.waiters
	}
	return 0
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) hook(k Key, _ error) {
	r.mu.Lock()
	r.keys = append(r.keys, k.String())
	r.mu.Unlock()
}

func (r *keyRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.False(t, p.RefetchOnWindowFocus)
	assert.Equal(t, 3, p.Retry)
	assert.Equal(t, int64(300000), p.StaleTime.Milliseconds())
	assert.Equal(t, int64(600000), p.GCTime.Milliseconds())
	assert.Equal(t, 0, p.MutationRetry)
	assert.False(t, p.SurfaceMutationErrors)

	for attempt, want := range map[int]int64{0: 1000, 1: 2000, 2: 4000, 10: 30000} {
		assert.Equal(t, want, p.Delay(attempt).Milliseconds(), "attempt %d", attempt)
	}
}

func TestPolicyDelayWithoutFunc(t *testing.T) {
	p := Policy{}
	assert.Equal(t, 4*time.Second, p.Delay(2))
}

func TestFetchCachesWhileFresh(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(DefaultPolicy(), clock, &recordingSleeper{})
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	}

	v, err := Fetch(ctx, c, K("overview"), fn)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	clock.Advance(4 * time.Minute)
	v, err = Fetch(ctx, c, K("overview"), fn)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Minute)
	v, err = Fetch(ctx, c, K("overview"), fn)
	require.NoError(t, err)
	assert.Equal(t, 20, v, "entry older than the stale window must be refetched")
	assert.Equal(t, 2, calls)
}

func TestFetchRetriesWithBackoff(t *testing.T) {
	clock := newFakeClock()
	sleeper := &recordingSleeper{}
	var hooked []error
	c := newTestClient(DefaultPolicy(), clock, sleeper, WithErrorHook(func(_ Key, err error) {
		hooked = append(hooked, err)
	}))

	boom := errors.New("boom")
	calls := 0
	_, err := Fetch(context.Background(), c, K("activity"), func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls, "one attempt plus three retries")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.delays)
	require.Len(t, hooked, 1)
	assert.Equal(t, 0, c.Len())
}

func TestFetchRecoversOnRetry(t *testing.T) {
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{})
	calls := 0
	v, err := Fetch(context.Background(), c, K("cinemas"), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	rec := &keyRecorder{}
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{}, WithErrorHook(rec.hook))
	ctx, cancel := context.WithCancel(context.Background())
	aborted := make(chan struct{})
	var calls atomic.Int32
	_, err := Fetch(ctx, c, K("overview"), func(fctx context.Context) (int, error) {
		calls.Add(1)
		cancel()
		<-fctx.Done()
		close(aborted)
		return 0, fctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("shared call kept running after its only caller left")
	}
	require.NoError(t, goleak.Find(ignore))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.seen())
	assert.Zero(t, waiters(c, K("overview")))
}

func TestFetchAlreadyCancelledContext(t *testing.T) {
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, c, K("overview"), func(context.Context) (int, error) {
		t.Fatal("fn called with a cancelled context")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchDoesNotReportCancelledSibling(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	p := DefaultPolicy()
	p.Retry = 0
	rec := &keyRecorder{}
	c := newTestClient(p, newFakeClock(), &recordingSleeper{}, WithErrorHook(rec.hook))

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		_, err := Fetch(gctx, c, K("a"), func(context.Context) (int, error) {
			return 0, errors.New("boom")
		})
		return err
	})
	g.Go(func() error {
		_, err := Fetch(gctx, c, K("b"), func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		return err
	})
	require.EqualError(t, g.Wait(), "boom")

	require.NoError(t, goleak.Find(ignore))
	assert.Equal(t, []string{"a"}, rec.seen())
}

func TestFetchSurvivesOneWaiterLeaving(t *testing.T) {
	rec := &keyRecorder{}
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{}, WithErrorHook(rec.hook))
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, K("overview"), fn)
		firstErr <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		v, err := Fetch(context.Background(), c, K("overview"), fn)
		assert.NoError(t, err)
		second <- v
	}()
	require.Eventually(t, func() bool { return waiters(c, K("overview")) == 2 },
		time.Second, 5*time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	assert.Equal(t, 42, <-second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.seen())
}

func TestFetchKeepsPreviousEntryOnFailure(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(DefaultPolicy(), clock, &recordingSleeper{})
	ctx := context.Background()

	_, err := Fetch(ctx, c, K("overview"), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = Fetch(ctx, c, K("overview"), func(context.Context) (int, error) { return 0, errors.New("down") })
	require.Error(t, err)

	v, ok := Peek[int](c, K("overview"))
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestFetchSharesInFlightCall(t *testing.T) {
	c := NewClient(DefaultPolicy())
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	fn := func(context.Context) (int, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, K("overview"), fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestMutateDoesNotRetry(t *testing.T) {
	sleeper := &recordingSleeper{}
	hooked := 0
	c := newTestClient(DefaultPolicy(), newFakeClock(), sleeper, WithErrorHook(func(Key, error) { hooked++ }))

	calls := 0
	_, err := Mutate(context.Background(), c, func(context.Context) (bool, error) {
		calls++
		return false, errors.New("rejected")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, 0, hooked, "mutation errors are left to the caller")
}

func TestMutateSurfacesErrorsWhenAsked(t *testing.T) {
	p := DefaultPolicy()
	p.SurfaceMutationErrors = true
	hooked := 0
	c := newTestClient(p, newFakeClock(), &recordingSleeper{}, WithErrorHook(func(k Key, _ error) {
		assert.Nil(t, k)
		hooked++
	}))
	_, err := Mutate(context.Background(), c, func(context.Context) (int, error) { return 0, errors.New("x") })
	require.Error(t, err)
	assert.Equal(t, 1, hooked)
}

func TestMutateInvalidatesPrefixes(t *testing.T) {
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{})
	ctx := context.Background()
	calls := map[string]int{}
	fetch := func(k Key) {
		_, err := Fetch(ctx, c, k, func(context.Context) (int, error) {
			calls[k.String()]++
			return 1, nil
		})
		require.NoError(t, err)
	}

	fetch(K("activity", "pending", "10"))
	fetch(K("cinemas"))

	_, err := Mutate(ctx, c, func(context.Context) (string, error) { return "approved", nil }, K("activity"))
	require.NoError(t, err)

	fetch(K("activity", "pending", "10"))
	fetch(K("cinemas"))
	assert.Equal(t, 2, calls["activity:pending:10"])
	assert.Equal(t, 1, calls["cinemas"])
}

func TestRemoveAndInvalidateAll(t *testing.T) {
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{})
	ctx := context.Background()
	for _, k := range []Key{K("a", "1"), K("a", "2"), K("b")} {
		_, err := Fetch(ctx, c, k, func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Invalidate(nil))
	assert.Equal(t, 2, c.Remove(K("a")))
	assert.Equal(t, 1, c.Len())
}

func TestFocus(t *testing.T) {
	c := newTestClient(DefaultPolicy(), newFakeClock(), &recordingSleeper{})
	assert.False(t, c.Focus())

	p := DefaultPolicy()
	p.RefetchOnWindowFocus = true
	c = newTestClient(p, newFakeClock(), &recordingSleeper{})
	calls := 0
	fn := func(context.Context) (int, error) { calls++; return calls, nil }
	_, _ = Fetch(context.Background(), c, K("overview"), fn)
	assert.True(t, c.Focus())
	_, _ = Fetch(context.Background(), c, K("overview"), fn)
	assert.Equal(t, 2, calls)
}

func TestCollectEvictsIdleEntries(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(DefaultPolicy(), clock, &recordingSleeper{})
	ctx := context.Background()

	_, _ = Fetch(ctx, c, K("old"), func(context.Context) (int, error) { return 1, nil })
	clock.Advance(4 * time.Minute)
	_, _ = Fetch(ctx, c, K("young"), func(context.Context) (int, error) { return 2, nil })
	clock.Advance(3 * time.Minute)
	// reading "old" while fresh would refresh lastUsed, but it is stale by now
	assert.Equal(t, 0, c.Collect())

	clock.Advance(4 * time.Minute)
	assert.Equal(t, 1, c.Collect())
	_, ok := Peek[int](c, K("old"))
	assert.False(t, ok)
	_, ok = Peek[int](c, K("young"))
	assert.True(t, ok)
}

func TestRunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := DefaultPolicy()
	p.GCTime = 10 * time.Millisecond
	c := NewClient(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "activity:pending:10", K("activity", "pending", "10").String())
	assert.True(t, K("activity", "pending").hasPrefix(K("activity")))
	assert.False(t, K("activity").hasPrefix(K("activity", "pending")))
	assert.True(t, K("x").hasPrefix(nil))
}
