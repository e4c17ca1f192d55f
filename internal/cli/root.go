// Package cli implements popcornctl, the terminal client of the PopcornON
// back-office API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/khIbrahim/popcornon/internal/apiclient"
	"github.com/khIbrahim/popcornon/internal/failure"
	"github.com/khIbrahim/popcornon/internal/logging"
	"github.com/khIbrahim/popcornon/internal/notify"
	"github.com/khIbrahim/popcornon/internal/query"
)

// errReported marks a failure already shown to the user as a toast.
var errReported = errors.New("failure reported")

// app holds what every command shares once the root pre-run has executed.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfgFile string
	v       *viper.Viper
	cfg     *Config
	logger  zerolog.Logger

	policy     query.Policy
	toasts     notify.Notifier
	normalizer *failure.Normalizer
	client     *apiclient.Client
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		v:      newViper(),
		logger: zerolog.Nop(),
		policy: query.DefaultPolicy(),
	}
}

// NewRootCommand builds the popcornctl command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(newApp(out, errOut))
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "popcornctl",
		Short: "Back-office client for PopcornON",
		Long: `popcornctl talks to the PopcornON API: it shows the admin overview and
recent partner activity, lists cinemas, reviews partner requests and
follows live notifications.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./popcornctl.yaml)")
	root.PersistentFlags().String("server", "", "API base URL")
	root.PersistentFlags().String("token", "", "access token")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("server.url", root.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("server.token", root.PersistentFlags().Lookup("token"))
	_ = a.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newLoginCommand(a),
		newOverviewCommand(a),
		newActivityCommand(a),
		newCinemasCommand(a),
		newDecisionCommand(a, "approve"),
		newDecisionCommand(a, "reject"),
		newArchiveCommand(a),
		newWatchCommand(a),
		newToastsCommand(a),
	)
	return root
}

// initialize loads the config and builds the logger, the toast sink and
// the normalizer.  The API client itself is built lazily by api().
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, a.errOut)
	a.toasts = notify.NewConsole(a.errOut)

	// the toast already carries the message; only log it when debugging
	normLogger := zerolog.Nop()
	if a.logger.GetLevel() <= zerolog.DebugLevel {
		normLogger = a.logger
	}
	a.normalizer = failure.New(a.toasts, normLogger)
	return nil
}

// api returns the API client, building it with the current policy on
// first use.  Failed queries are normalized into a toast by the error hook.
func (a *app) api() (*apiclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	queries := query.NewClient(a.policy,
		query.WithLogger(a.logger),
		query.WithErrorHook(func(k query.Key, err error) {
			a.logger.Debug().Str("query", k.String()).Err(err).Msg("query failed")
			a.normalizer.Handle(err)
		}),
	)
	c, err := apiclient.New(a.cfg.Server.URL, queries, a.logger, apiclient.WithToken(a.cfg.Server.Token))
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// reportQuery turns a failed read into errReported; the hook has already
// shown it.
func reportQuery(err error) error {
	if err == nil {
		return nil
	}
	return errReported
}

// report shows a failure that bypassed the query hook (writes, the toast
// stream) and turns it into errReported.
func (a *app) report(err error) error {
	if err == nil {
		return nil
	}
	a.normalizer.Handle(err)
	return errReported
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Execute runs popcornctl and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
