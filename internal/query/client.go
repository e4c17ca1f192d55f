package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached query.  Parts are joined with ":" and a key
// matches a prefix when its leading parts are equal.
type Key []string

// K builds a Key from its parts.
func K(parts ...string) Key { return Key(parts) }

func (k Key) String() string { return strings.Join(k, ":") }

// hasPrefix reports whether k starts with every part of prefix.
func (k Key) hasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type entry struct {
	key       Key
	value     any
	updatedAt time.Time
	lastUsed  time.Time
	invalid   bool
}

// Client caches query results according to a Policy.  It is safe for
// concurrent use.
type Client struct {
	policy  Policy
	logger  zerolog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	onError func(Key, error)

	mu      sync.Mutex
	entries map[string]*entry
	flights map[string]*flight
	group   singleflight.Group
}

// flight is the context shared by every caller waiting on one key.  It is
// cancelled when the last of them leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithSleeper replaces the wait between retries.  The sleeper must return
// ctx.Err() when the context ends first.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithLogger sets the logger used for retry and eviction events.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithErrorHook registers a function called once for every query that still
// fails after its retries.  Mutation failures reach it only when the policy
// sets SurfaceMutationErrors.  The key is nil for mutations.
func WithErrorHook(fn func(Key, error)) Option { return func(c *Client) { c.onError = fn } }

// NewClient returns a Client applying p.
func NewClient(p Policy, opts ...Option) *Client {
	c := &Client{
		policy:  p,
		logger:  zerolog.Nop(),
		now:     time.Now,
		sleep:   sleepCtx,
		entries: make(map[string]*entry),
		flights: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy the client was built with.
func (c *Client) Policy() Policy { return c.policy }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch returns the cached value for key when it is still fresh; otherwise
// it calls fn, retrying per the policy, and caches the result.  Concurrent
// fetches of the same key share a single call.  A caller whose ctx ends
// stops waiting without failing the others; the call itself is cancelled
// once nobody waits for it, and that cancellation is not reported.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	id := key.String()
	if v, ok := c.fresh(id); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	ch, leave := c.join(ctx, id, func(fctx context.Context) (any, error) {
		val, err := c.run(fctx, c.policy.Retry, id, func(ctx context.Context) (any, error) {
			t, err := fn(ctx)
			return t, err
		})
		if err != nil {
			if fctx.Err() == nil || !errors.Is(err, fctx.Err()) {
				c.report(key, err)
			}
			return nil, err
		}
		c.store(key, val)
		return val, nil
	})
	defer leave()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		t, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query %s: cached value is %T", id, res.Val)
		}
		return t, nil
	}
}

// join registers the caller on the flight for id and starts or joins the
// shared call.  leave must be called once the caller stops waiting.
func (c *Client) join(ctx context.Context, id string, call func(context.Context) (any, error)) (<-chan singleflight.Result, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[id]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[id] = f
	}
	f.waiters++
	ch := c.group.DoChan(id, func() (any, error) { return call(f.ctx) })

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			f.waiters--
			if f.waiters == 0 {
				f.cancel()
				delete(c.flights, id)
				c.group.Forget(id)
			}
		})
	}
}

// Peek returns the cached value for key regardless of staleness.
func Peek[T any](c *Client, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return zero, false
	}
	t, ok := e.value.(T)
	return t, ok
}

// Mutate runs fn once plus the policy's MutationRetry retries.  On success
// every cached query under the invalidate prefixes is marked stale.
// Failures are returned to the caller.
func Mutate[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error), invalidate ...Key) (T, error) {
	var zero T
	v, err := c.run(ctx, c.policy.MutationRetry, "mutation", func(ctx context.Context) (any, error) {
		t, err := fn(ctx)
		return t, err
	})
	if err != nil {
		if c.policy.SurfaceMutationErrors {
			c.report(nil, err)
		}
		return zero, err
	}
	for _, k := range invalidate {
		c.Invalidate(k)
	}
	t, _ := v.(T)
	return t, nil
}

// run calls fn until it succeeds or retries are exhausted.
func (c *Client) run(ctx context.Context, retries int, id string, fn func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt >= retries || ctx.Err() != nil {
			return nil, lastErr
		}
		d := c.policy.Delay(attempt)
		c.logger.Debug().Err(err).Str("query", id).Int("attempt", attempt+1).Dur("delay", d).Msg("retrying")
		if err := c.sleep(ctx, d); err != nil {
			return nil, err
		}
	}
}

func (c *Client) report(key Key, err error) {
	if c.onError != nil {
		c.onError(key, err)
	}
}

func (c *Client) fresh(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || e.invalid {
		return nil, false
	}
	now := c.now()
	if now.Sub(e.updatedAt) >= c.policy.StaleTime {
		return nil, false
	}
	e.lastUsed = now
	return e.value, true
}

func (c *Client) store(key Key, v any) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &entry{key: key, value: v, updatedAt: now, lastUsed: now}
}

// Invalidate marks every entry under prefix stale.  A nil prefix matches
// every entry.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.hasPrefix(prefix) {
			e.invalid = true
			n++
		}
	}
	return n
}

// Remove drops every entry under prefix.
func (c *Client) Remove(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if e.key.hasPrefix(prefix) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Focus signals that the user came back to the application.  It
// invalidates the whole cache when the policy asks for refetch on focus.
func (c *Client) Focus() bool {
	if !c.policy.RefetchOnWindowFocus {
		return false
	}
	c.Invalidate(nil)
	return true
}

// Collect evicts entries idle for longer than GCTime.
func (c *Client) Collect() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if now.Sub(e.lastUsed) > c.policy.GCTime {
			delete(c.entries, id)
			n++
		}
	}
	if n > 0 {
		c.logger.Debug().Int("evicted", n).Msg("query cache collected")
	}
	return n
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run collects idle entries every GCTime/2 until ctx is done.
func (c *Client) Run(ctx context.Context) {
	every := c.policy.GCTime / 2
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Collect()
		}
	}
}
