// Package dashboard assembles the admin overview: counters, the weekly
// activity chart and the recent partner requests.
package dashboard

import (
	"context"
	"time"

	"github.com/khIbrahim/popcornon/internal/model"
)

// Counters are the four headline numbers of the overview.
type Counters struct {
	PendingRequests int
	ActiveCinemas   int
	ArchivedCinemas int
	TotalPartners   int
}

// Source provides the raw data behind the overview.  The MySQL
// implementation lives in the repository package; MockSource serves
// fixed data when no database is configured.
type Source interface {
	Counters(ctx context.Context) (Counters, error)
	Weekly(ctx context.Context, end time.Time) ([]model.DayActivity, error)
	Recent(ctx context.Context, limit int, status model.RequestStatus) ([]model.Activity, error)
}
