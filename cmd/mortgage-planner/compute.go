package main

import (
	"github.com/iwvelando/mortgage-planner/internal/affordability"
	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/pkg/output"
	"github.com/iwvelando/mortgage-planner/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newComputeCmd(opts *options) *cobra.Command {
	var fromStore bool

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the affordability report for a household",
		Long: "Compute the affordability report for the household file given by --config, " +
			"or for the stored household with --from-store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd, opts, fromStore)
		},
	}
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "use the stored household and preferences")
	return cmd
}

func runCompute(cmd *cobra.Command, opts *options, fromStore bool) error {
	if fromStore {
		return runComputeFromStore(cmd, opts)
	}

	conf, err := config.LoadConfiguration(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat, err := opts.resolveOutputFormat(conf.Output.Format)
	if err != nil {
		return err
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.runCompute"),
		)
	}

	state := conf.State()
	prefs := conf.Preferences()
	report := affordability.Analyze(logger, state, prefs)

	return output.Write(cmd.OutOrStdout(), outputFormat, output.Summary{
		State:       state,
		Preferences: prefs,
		Report:      report,
		Warnings:    warnings,
	})
}

func runComputeFromStore(cmd *cobra.Command, opts *options) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	outputFormat, err := opts.resolveOutputFormat(session.app.Output.Format)
	if err != nil {
		return err
	}

	state, err := session.repo.LoadState(cmd.Context())
	if err != nil {
		return err
	}
	prefs, err := session.repo.LoadPreferences(cmd.Context())
	if err != nil {
		return err
	}

	warnings := validation.ValidateState(state)
	for _, warning := range warnings {
		session.logger.Warn("Household warning: "+warning,
			zap.String("op", "main.runComputeFromStore"),
		)
	}

	report := affordability.Analyze(session.logger, state, prefs)
	return output.Write(cmd.OutOrStdout(), outputFormat, output.Summary{
		State:       state,
		Preferences: prefs,
		Report:      report,
		Warnings:    warnings,
	})
}
