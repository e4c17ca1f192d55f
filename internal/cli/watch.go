package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		interval time.Duration
		weekly   bool
		onFocus  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the overview periodically",
		Long: `Redraw the overview every --interval.  Reads go through the query cache,
so the server is only hit once an entry is older than the stale window.
Resuming the process (SIGCONT, e.g. after Ctrl+Z and fg) counts as
returning to the screen and drops the cache when --refetch-on-focus is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			a.policy.RefetchOnWindowFocus = onFocus
			return a.watch(cmd.Context(), interval, weekly)
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "refresh interval")
	cmd.Flags().BoolVarP(&weekly, "weekly", "w", false, "include the weekly activity chart")
	cmd.Flags().BoolVar(&onFocus, "refetch-on-focus", false, "refetch everything when the process is resumed")
	return cmd
}

// watch redraws until ctx is done.  Failed refreshes are shown as toasts
// and do not stop the loop.
func (a *app) watch(ctx context.Context, interval time.Duration, weekly bool) error {
	c, err := a.api()
	if err != nil {
		return err
	}
	go c.Queries().Run(ctx)

	focus, stopFocus := focusEvents()
	defer stopFocus()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	draw := func() {
		fmt.Fprintf(a.out, "\n── %s ──\n", time.Now().Format(time.TimeOnly))
		_ = a.showOverview(ctx, weekly, 5)
	}
	draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-focus:
			if c.Queries().Focus() {
				a.logger.Debug().Msg("resumed, cache invalidated")
			}
			draw()
		case <-ticker.C:
			draw()
		}
	}
}
