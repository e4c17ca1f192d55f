// Package query implements the client-side request cache: a policy
// describing staleness, retry and garbage collection, and a Client that
// applies it to every data fetch issued by PopcornON front-ends.
package query

import (
	"time"

	"github.com/khIbrahim/popcornon/internal/backoff"
)

// Policy defines how queries are cached, retried and evicted.  A Policy is
// built once at start-up and handed to NewClient; call sites never read a
// global.
type Policy struct {
	RefetchOnWindowFocus  bool                            // invalidate everything on Client.Focus
	Retry                 int                             // extra attempts for failed queries
	StaleTime             time.Duration                   // age after which a cached result is refetched
	GCTime                time.Duration                   // idle time after which a cached result is evicted
	RetryDelay            func(attempt int) time.Duration // wait before retry n (zero based)
	MutationRetry         int                             // extra attempts for failed mutations
	SurfaceMutationErrors bool                            // pass mutation failures to the error hook
}

// DefaultPolicy returns the policy used by every PopcornON client.
func DefaultPolicy() Policy {
	return Policy{
		RefetchOnWindowFocus:  false,
		Retry:                 3,
		StaleTime:             5 * time.Minute,
		GCTime:                10 * time.Minute,
		RetryDelay:            backoff.Exponential,
		MutationRetry:         0,
		SurfaceMutationErrors: false,
	}
}

// Delay returns the wait before retry attempt n.
func (p Policy) Delay(attempt int) time.Duration {
	if p.RetryDelay == nil {
		return backoff.Exponential(attempt)
	}
	return p.RetryDelay(attempt)
}
