package dashboard

import (
	"context"
	"time"

	"github.com/khIbrahim/popcornon/internal/model"
)

// MockSource serves fixed overview data.
type MockSource struct {
	Seed int64
	Now  func() time.Time
}

func NewMockSource() *MockSource {
	return &MockSource{Seed: DefaultSeed, Now: time.Now}
}

func (m *MockSource) Counters(context.Context) (Counters, error) {
	return Counters{
		PendingRequests: 12,
		ActiveCinemas:   48,
		ArchivedCinemas: 5,
		TotalPartners:   31,
	}, nil
}

func (m *MockSource) Weekly(_ context.Context, end time.Time) ([]model.DayActivity, error) {
	return WeeklySeries(end, m.Seed), nil
}

func (m *MockSource) Recent(_ context.Context, limit int, status model.RequestStatus) ([]model.Activity, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	base := now().UTC().Truncate(time.Minute)
	all := []model.Activity{
		{ID: 105, CinemaName: "Cine Atlas", City: "Casablanca", Status: model.StatusPending, CreatedAt: base.Add(-15 * time.Minute)},
		{ID: 104, CinemaName: "Le Grand Rex", City: "Paris", Status: model.StatusApproved, CreatedAt: base.Add(-2 * time.Hour)},
		{ID: 103, CinemaName: "Megarama", City: "Marrakech", Status: model.StatusPending, CreatedAt: base.Add(-5 * time.Hour)},
		{ID: 102, CinemaName: "Cinema Rif", City: "Tangier", Status: model.StatusRejected, CreatedAt: base.Add(-26 * time.Hour)},
		{ID: 101, CinemaName: "Pathé Californie", City: "Casablanca", Status: model.StatusApproved, CreatedAt: base.Add(-50 * time.Hour)},
	}
	out := make([]model.Activity, 0, len(all))
	for _, a := range all {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
