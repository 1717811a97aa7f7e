package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/finance-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/finance-dashboard/internal/cache"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/fetch"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// app is the state shared by every subcommand.
type app struct {
	verbose bool
	cfg     *config.Config
	log     *slog.Logger
	fetcher *fetch.Fetcher
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "Finance dashboard pipeline CLI",
		Long: `dashctl fetches finance API URLs through the dashboard's fetcher and shows
what a widget would display.

Example usage:
  dashctl fetch "https://finnhub.io/api/v1/quote?symbol=AAPL"
  dashctl fields "https://api.twelvedata.com/time_series?symbol=AAPL&interval=1day" --arrays
  dashctl render "https://finnhub.io/api/v1/quote?symbol=AAPL" --field c:Price:currency`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.init()
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newFetchCmd(a), newFieldsCmd(a), newRenderCmd(a))
	return root
}

// init reads configuration from the environment and builds the fetcher.
// Provider keys come from the environment only.
func (a *app) init() {
	a.cfg = config.New()
	level := a.cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.log = logger.New(level, logger.Text(os.Stderr))
	a.fetcher = bootstrap.NewFetcher(a.cfg, cache.New[normalize.Response](), a.cfg.ProviderKeys())
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	return logger.ToContext(cmd.Context(), a.log)
}
