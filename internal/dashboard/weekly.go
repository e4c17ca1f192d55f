package dashboard

import (
	"math/rand"
	"time"

	"github.com/khIbrahim/popcornon/internal/model"
)

// DefaultSeed feeds WeeklySeries for the mock overview.
const DefaultSeed int64 = 20240301

// WeeklySeries generates seven chart points ending on end's weekday.  The
// output depends only on end's weekday and seed.
func WeeklySeries(end time.Time, seed int64) []model.DayActivity {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.DayActivity, 7)
	for i := 0; i < 7; i++ {
		day := end.AddDate(0, 0, i-6)
		requests := 5 + rng.Intn(20)
		out[i] = model.DayActivity{
			Day:       day.Weekday().String()[:3],
			Requests:  requests,
			Approvals: rng.Intn(requests + 1),
		}
	}
	return out
}

// FillWeek turns per-day counts keyed by date (YYYY-MM-DD) into seven
// chart points ending on end; missing days are zero.
func FillWeek(end time.Time, requests, approvals map[string]int) []model.DayActivity {
	out := make([]model.DayActivity, 7)
	for i := 0; i < 7; i++ {
		day := end.AddDate(0, 0, i-6)
		key := day.Format("2006-01-02")
		out[i] = model.DayActivity{
			Day:       day.Weekday().String()[:3],
			Requests:  requests[key],
			Approvals: approvals[key],
		}
	}
	return out
}
