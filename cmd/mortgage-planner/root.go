package main

import (
	"context"
	"fmt"

	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/store"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath    string
	appConfigPath string
	logLevel      string
	outputFormat  string
	storeBackend  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          constants.AppName,
		Short:        "Mortgage affordability calculator",
		Long:         "Compute how large a mortgage a household can carry, what the purchase costs and how much is missing.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts, false)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "path to household file")
	flags.StringVar(&opts.appConfigPath, "app-config", config.AppConfigPath(), "path to application config")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVarP(&opts.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json")
	flags.StringVar(&opts.storeBackend, "store", "", "store backend override: sqlite, redis, memory")

	rootCmd.AddCommand(
		newComputeCmd(opts),
		newStateCmd(opts),
		newPrefsCmd(opts),
		newBracketsCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// loadAppConfig reads the application config and applies the store override.
func (o *options) loadAppConfig() (config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(o.appConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.storeBackend != "" {
		cfg.Store.Backend = o.storeBackend
	}
	return cfg, nil
}

// resolveOutputFormat picks the CLI override, then the configured format,
// then pretty.
func (o *options) resolveOutputFormat(configured string) (string, error) {
	outputFormat := configured
	if o.outputFormat != "" {
		outputFormat = o.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return "", err
	}
	return outputFormat, nil
}

// storeSession is an open store plus the logger for one command.
type storeSession struct {
	app    config.AppConfig
	logger *zap.Logger
	kv     store.KV
	repo   *store.Repository
}

func (s *storeSession) Close() {
	if err := s.kv.Close(); err != nil {
		s.logger.Warn("failed to close store",
			zap.String("op", "main.storeSession.Close"),
			zap.Error(err),
		)
	}
	_ = s.logger.Sync()
}

// openStore loads the application config, builds its logger and opens the
// configured backend.
func (o *options) openStore(ctx context.Context) (*storeSession, error) {
	app, err := o.loadAppConfig()
	if err != nil {
		return nil, err
	}

	logger, err := initializeLogger(app.Logging, o.logLevel)
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(ctx, app.Store, config.DataDir())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open %s store: %w", app.Store.Backend, err)
	}
	logger.Debug("opened store",
		zap.String("op", "main.openStore"),
		zap.String("backend", app.Store.Backend),
	)

	return &storeSession{
		app:    app,
		logger: logger,
		kv:     kv,
		repo:   store.NewRepository(kv, logger),
	}, nil
}
