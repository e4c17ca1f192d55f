package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/khIbrahim/popcornon/internal/model"
)

func newLoginCommand(a *app) *cobra.Command {
	var email, password string
	var save bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Long: `Sign in with an admin account.  The password is read from stdin when
--password is not given.  The access token is written to the config file
unless --save=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(a.errOut, "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			s, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "✓ Signed in as %s (%s)\n", s.User.Email, s.User.Role)
			if !save {
				fmt.Fprintln(a.out, s.AccessToken())
				return nil
			}
			path, err := saveToken(a.v, s.AccessToken())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Token saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&save, "save", true, "write the token to the config file")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newOverviewCommand(a *app) *cobra.Command {
	var weekly bool
	var recent int
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the admin statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showOverview(cmd.Context(), weekly, recent)
		},
	}
	cmd.Flags().BoolVarP(&weekly, "weekly", "w", false, "include the weekly activity chart")
	cmd.Flags().IntVar(&recent, "recent", 5, "number of recent requests to show (0 hides them)")
	return cmd
}

// showOverview loads the statistics and the latest requests in parallel.
func (a *app) showOverview(ctx context.Context, weekly bool, recent int) error {
	c, err := a.api()
	if err != nil {
		return err
	}
	var (
		stats model.Stats
		items []model.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = c.Overview(gctx, weekly)
		return err
	})
	if recent > 0 {
		g.Go(func() error {
			var err error
			items, err = c.RecentActivity(gctx, "", recent)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return reportQuery(err)
	}

	renderOverview(a.out, stats)
	if recent > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Recent activity")
		renderActivity(a.out, items)
	}
	return nil
}

func newActivityCommand(a *app) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent partner requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st model.RequestStatus
			if status != "" {
				var err error
				if st, err = model.ParseRequestStatus(status); err != nil {
					return err
				}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			items, err := c.RecentActivity(cmd.Context(), st, limit)
			if err != nil {
				return reportQuery(err)
			}
			renderActivity(a.out, items)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (pending, approved, rejected)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries (server default when 0)")
	return cmd
}

func newCinemasCommand(a *app) *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "cinemas",
		Short: "List active cinemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			items, err := c.Cinemas(cmd.Context(), city)
			if err != nil {
				return reportQuery(err)
			}
			renderCinemas(a.out, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "only cinemas in this city")
	return cmd
}

// newDecisionCommand builds approve and reject.
func newDecisionCommand(a *app, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending partner request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			decide := c.Approve
			if verb == "reject" {
				decide = c.Reject
			}
			act, err := decide(cmd.Context(), id)
			if err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "✓ Request #%d from %s is now %s\n", act.ID, act.CinemaName, act.Status)
			return nil
		},
	}
}

func newArchiveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a cinema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.Archive(cmd.Context(), id); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "✓ Cinema #%d archived\n", id)
			return nil
		},
	}
}

func newToastsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toasts",
		Short: "Follow live notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			a.logger.Info().Msg("following notifications, press Ctrl+C to stop")
			if err := c.StreamToasts(cmd.Context(), a.toasts); err != nil {
				return a.report(err)
			}
			return nil
		},
	}
}
