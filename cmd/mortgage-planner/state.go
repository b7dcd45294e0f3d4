package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/internal/snapshot"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newStateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Manage the stored household",
	}

	var exportFile string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored household as a JSON record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStateExport(cmd, opts, exportFile)
		},
	}
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "write to this file instead of stdout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored household as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStateShow(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Replace the stored household with a JSON record or a YAML household file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStateImport(cmd, opts, args[0])
			},
		},
		exportCmd,
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the household and preferences to their defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStateReset(cmd, opts)
			},
		},
	)
	return cmd
}

func runStateShow(cmd *cobra.Command, opts *options) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	state, err := session.repo.LoadState(cmd.Context())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(snapshot.FromState(state)); err != nil {
		return fmt.Errorf("failed to write household: %w", err)
	}
	return enc.Close()
}

func runStateExport(cmd *cobra.Command, opts *options, path string) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	state, err := session.repo.LoadState(cmd.Context())
	if err != nil {
		return err
	}
	data, err := snapshot.Encode(state)
	if err != nil {
		return err
	}

	if path == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	session.logger.Info("exported household",
		zap.String("op", "main.runStateExport"),
		zap.String("path", path),
	)
	return nil
}

func runStateImport(cmd *cobra.Command, opts *options, path string) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	state, overrides, err := readHousehold(path)
	if err != nil {
		return err
	}
	if err := tax.Validate(state.PurchaseTaxPolicy.Brackets); err != nil {
		return fmt.Errorf("invalid tax brackets in %s: %w", path, err)
	}

	// Preferences the file leaves unset keep their stored values.
	var prefs *household.Preferences
	if !overrides.IsZero() {
		current, err := session.repo.LoadPreferences(cmd.Context())
		if err != nil {
			return err
		}
		updated, err := overrides.ApplyTo(current)
		if err != nil {
			return fmt.Errorf("invalid preferences in %s: %w", path, err)
		}
		prefs = &updated
	}

	if err := session.repo.SaveState(cmd.Context(), state); err != nil {
		return err
	}
	if prefs != nil {
		if err := session.repo.SavePreferences(cmd.Context(), *prefs); err != nil {
			return err
		}
	}

	session.logger.Info("imported household",
		zap.String("op", "main.runStateImport"),
		zap.String("path", path),
		zap.Bool("preferences", prefs != nil),
	)
	return nil
}

// readHousehold reads a YAML household file or a stored JSON record. A YAML
// file may also override preferences; a record does not.
func readHousehold(path string) (household.State, config.PreferencesConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".example":
		conf, err := config.LoadConfiguration(path)
		if err != nil {
			return household.State{}, config.PreferencesConfig{}, err
		}
		return conf.State(), conf.Overrides, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return household.State{}, config.PreferencesConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	record, err := snapshot.Decode(data)
	if err != nil {
		return household.State{}, config.PreferencesConfig{}, err
	}
	state, _ := snapshot.Normalize(record)
	return state, config.PreferencesConfig{}, nil
}

func runStateReset(cmd *cobra.Command, opts *options) error {
	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	return session.repo.Reset(cmd.Context())
}
