// Package backoff holds the exponential delay curve shared by the query
// retry policy and the broker reconnect loop.
package backoff

import "time"

const (
	Base = time.Second      // delay before the first retry
	Max  = 30 * time.Second // upper bound for any single delay
)

// Exponential returns min(Base * 2^attempt, Max).  attempt is zero based;
// negative values are treated as zero.
func Exponential(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= Max {
			return Max
		}
	}
	return d
}
