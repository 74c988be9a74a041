package main

import (
	"context"

	"calc-history/internal/calculator"
	"calc-history/internal/config"
	"calc-history/internal/history"
	"calc-history/internal/observability"
	"calc-history/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	verbose    bool
}

// app is what every subcommand works against.
type app struct {
	cfg     config.Config
	log     *history.Log
	session *calculator.Session
	close   func() error
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "calc",
		Short:         "Terminal calculator with a persisted history log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $CALC_CONFIG)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(
		newReplCmd(opts),
		newEvalCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// openApp loads configuration, opens the history store and hydrates the log.
func openApp(ctx context.Context, opts *options) (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if err := observability.InitDevelopmentLogger(opts.verbose); err != nil {
		return nil, err
	}
	if err := history.InitMetrics(); err != nil {
		return nil, err
	}

	store, closeStore, err := storage.Open(ctx, cfg.History)
	if err != nil {
		observability.Logger.Warn("history store unavailable, continuing without persistence",
			zap.String("store", cfg.History.Store),
			zap.Error(err),
		)
		store = history.NopStore{}
	}

	log := history.New(store, observability.Logger.Named("history"),
		history.WithLimit(cfg.History.Limit),
		history.WithTimeout(cfg.History.Timeout),
	)
	log.Hydrate(ctx)

	return &app{
		cfg:     cfg,
		log:     log,
		session: calculator.NewSession(log, calculator.WallClock, cfg.Calculator.ErrorReset),
		close: func() error {
			log.Wait()
			observability.SyncLogger()
			return closeStore()
		},
	}, nil
}
