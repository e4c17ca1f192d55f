package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/khIbrahim/popcornon/internal/dashboard"
	"github.com/khIbrahim/popcornon/internal/model"
)

// DashboardSource serves the admin overview from MySQL.
type DashboardSource struct {
	Cinemas  *CinemaRepo
	Requests *PartnerRequestRepo
	Users    *UserRepo
}

var _ dashboard.Source = (*DashboardSource)(nil)

func NewDashboardSource(c *CinemaRepo, r *PartnerRequestRepo, u *UserRepo) *DashboardSource {
	return &DashboardSource{Cinemas: c, Requests: r, Users: u}
}

func (s *DashboardSource) Counters(ctx context.Context) (dashboard.Counters, error) {
	pending, err := s.Requests.CountPending(ctx)
	if err != nil {
		return dashboard.Counters{}, fmt.Errorf("count pending requests: %w", err)
	}
	active, archived, err := s.Cinemas.CountByStatus(ctx)
	if err != nil {
		return dashboard.Counters{}, fmt.Errorf("count cinemas: %w", err)
	}
	partners, err := s.Users.CountByRole(ctx, model.RolePartner)
	if err != nil {
		return dashboard.Counters{}, fmt.Errorf("count partners: %w", err)
	}
	return dashboard.Counters{
		PendingRequests: pending,
		ActiveCinemas:   active,
		ArchivedCinemas: archived,
		TotalPartners:   partners,
	}, nil
}

// Weekly covers the seven UTC days ending on end.
func (s *DashboardSource) Weekly(ctx context.Context, end time.Time) ([]model.DayActivity, error) {
	end = end.UTC()
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -6)
	requests, approvals, err := s.Requests.DailyCounts(ctx, start)
	if err != nil {
		return nil, err
	}
	return dashboard.FillWeek(end, requests, approvals), nil
}

func (s *DashboardSource) Recent(ctx context.Context, limit int, status model.RequestStatus) ([]model.Activity, error) {
	return s.Requests.Recent(ctx, limit, status)
}
