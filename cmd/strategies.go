package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/ui"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the weighting strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out := make(map[scoring.Strategy]scoring.Weights, len(scoring.Strategies()))
			for _, st := range scoring.Strategies() {
				out[st] = scoring.WeightsFor(st, nil)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}
		ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Strategies()
		return nil
	},
}

func init() {
	strategiesCmd.Flags().Bool("json", false, "print the weights as JSON")
	rootCmd.AddCommand(strategiesCmd)
}
