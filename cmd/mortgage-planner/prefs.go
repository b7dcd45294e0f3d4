package main

import (
	"encoding/json"
	"fmt"

	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/format"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPrefsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the stored preferences",
	}

	var (
		legal       float64
		broker      float64
		returnPower string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var overrides config.PreferencesConfig
			if cmd.Flags().Changed("legal") {
				overrides.LegalFeeRate = &legal
			}
			if cmd.Flags().Changed("broker") {
				overrides.BrokerFeeRate = &broker
			}
			if cmd.Flags().Changed("return-power") {
				overrides.ReturnPower = returnPower
			}
			return runPrefsSet(cmd, opts, overrides)
		},
	}
	setCmd.Flags().Float64Var(&legal, "legal", constants.DefaultLegalFeeRate, "legal fee, percent of the price")
	setCmd.Flags().Float64Var(&broker, "broker", constants.DefaultBrokerFeeRate, "broker fee, percent of the price")
	setCmd.Flags().StringVar(&returnPower, "return-power", household.ReturnPowerThird.String(), "share of residual income for the mortgage: 1/3 or 0.4")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored preferences",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runPrefsShow(cmd, opts)
			},
		},
		setCmd,
	)
	return cmd
}

func runPrefsShow(cmd *cobra.Command, opts *options) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	prefs, err := session.repo.LoadPreferences(cmd.Context())
	if err != nil {
		return err
	}
	return writePreferences(cmd, opts, session.app.Output.Format, prefs)
}

func runPrefsSet(cmd *cobra.Command, opts *options, overrides config.PreferencesConfig) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	current, err := session.repo.LoadPreferences(cmd.Context())
	if err != nil {
		return err
	}
	prefs, err := overrides.ApplyTo(current)
	if err != nil {
		return err
	}
	if err := session.repo.SavePreferences(cmd.Context(), prefs); err != nil {
		return err
	}

	session.logger.Info("preferences updated",
		zap.String("op", "main.runPrefsSet"),
		zap.String("return_power", prefs.ReturnPower.String()),
		zap.Float64("legal", prefs.Fees.Legal),
		zap.Float64("broker", prefs.Fees.Broker),
	)
	return writePreferences(cmd, opts, session.app.Output.Format, prefs)
}

func writePreferences(cmd *cobra.Command, opts *options, configured string, prefs household.Preferences) error {
	outputFormat, err := opts.resolveOutputFormat(configured)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch outputFormat {
	case constants.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(prefs)
	case constants.OutputFormatCSV:
		_, err = fmt.Fprintf(w, "preference,value\nreturn_power,%s\nlegal_fee_rate,%s\nbroker_fee_rate,%s\n",
			prefs.ReturnPower, format.Fixed(prefs.Fees.Legal), format.Fixed(prefs.Fees.Broker))
		return err
	}
	_, err = fmt.Fprintf(w, "Return power:    %s\nLegal fee rate:  %s\nBroker fee rate: %s\n",
		prefs.ReturnPower, format.Percent(prefs.Fees.Legal), format.Percent(prefs.Fees.Broker))
	return err
}
