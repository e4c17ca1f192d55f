package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khIbrahim/popcornon/internal/model"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// Service builds overview responses from a Source.
type Service struct {
	src Source
	now func() time.Time
}

func NewService(src Source) *Service {
	return &Service{src: src, now: time.Now}
}

// Overview returns the counters and, when weekly is set, the chart series.
func (s *Service) Overview(ctx context.Context, weekly bool) (model.Stats, error) {
	var (
		counters Counters
		series   []model.DayActivity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.src.Counters(gctx)
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		counters = c
		return nil
	})
	if weekly {
		g.Go(func() error {
			w, err := s.src.Weekly(gctx, s.now().UTC())
			if err != nil {
				return fmt.Errorf("load weekly series: %w", err)
			}
			series = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Stats{}, err
	}
	return model.Stats{
		PendingRequests: counters.PendingRequests,
		ActiveCinemas:   counters.ActiveCinemas,
		ArchivedCinemas: counters.ArchivedCinemas,
		TotalPartners:   counters.TotalPartners,
		Weekly:          series,
	}, nil
}

// Recent lists the latest partner requests.  limit is clamped to
// [1, MaxRecentLimit]; zero or negative means DefaultRecentLimit.  An empty
// status lists every status.
func (s *Service) Recent(ctx context.Context, limit int, status model.RequestStatus) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown request status %q", status)
	}
	items, err := s.src.Recent(ctx, limit, status)
	if err != nil {
		return nil, fmt.Errorf("load recent activity: %w", err)
	}
	return items, nil
}
