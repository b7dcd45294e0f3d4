package main

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/mortgage-planner/pkg/output"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBracketsCmd(opts *options) *cobra.Command {
	var additional bool

	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Print the canonical purchase-tax brackets",
		Long: "Print the canonical purchase-tax brackets, or edit the brackets of the " +
			"stored household with the set and remove subcommands.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFormat, err := opts.resolveOutputFormat("")
			if err != nil {
				return err
			}
			return output.WriteBrackets(cmd.OutOrStdout(), outputFormat, tax.DefaultBrackets(!additional))
		},
	}
	cmd.Flags().BoolVar(&additional, "additional", false, "show the schedule for an additional home")

	var ceiling, rate float64
	setCmd := &cobra.Command{
		Use:   "set <index>",
		Short: "Set or append a bracket of the stored household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBracketEdit(cmd, opts, args[0], func(s *storeSession, index int) ([]tax.Bracket, error) {
				return s.repo.SetBracket(cmd.Context(), index, tax.Bracket{Ceiling: ceiling, Rate: rate})
			})
		},
	}
	setCmd.Flags().Float64Var(&ceiling, "ceiling", 0, "upper bound of the bracket")
	setCmd.Flags().Float64Var(&rate, "rate", 0, "tax rate in percent")
	_ = setCmd.MarkFlagRequired("ceiling")
	_ = setCmd.MarkFlagRequired("rate")

	cmd.AddCommand(
		setCmd,
		&cobra.Command{
			Use:   "remove <index>",
			Short: "Remove a bracket from the stored household",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBracketEdit(cmd, opts, args[0], func(s *storeSession, index int) ([]tax.Bracket, error) {
					return s.repo.RemoveBracket(cmd.Context(), index)
				})
			},
		},
	)
	return cmd
}

// runBracketEdit applies edit to the stored table and prints the result.
// Indexes on the command line count from 1 in table order.
func runBracketEdit(cmd *cobra.Command, opts *options, rawIndex string, edit func(*storeSession, int) ([]tax.Bracket, error)) error {
	position, err := strconv.Atoi(rawIndex)
	if err != nil || position < 1 {
		return fmt.Errorf("invalid bracket index %q", rawIndex)
	}

	session, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	outputFormat, err := opts.resolveOutputFormat(session.app.Output.Format)
	if err != nil {
		return err
	}

	brackets, err := edit(session, position-1)
	if err != nil {
		return err
	}
	session.logger.Debug("edited purchase tax brackets",
		zap.String("op", "main.runBracketEdit"),
		zap.Int("position", position),
	)
	return output.WriteBrackets(cmd.OutOrStdout(), outputFormat, brackets)
}
