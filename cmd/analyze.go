package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Score and rank the tasks in a JSON, YAML or TOML file",
	Long: `Reads a task file, scores every task under the chosen strategy and prints
the ranking with per-factor explanations. Circular dependencies and records
that had to be dropped or corrected are reported after the ranking.

The file holds either a bare list of tasks or an object with a "tasks" key
and optional "strategy" and "weights".`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("strategy", "s", "", "weighting strategy: smart, fastest, impact or deadline")
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	analyzeCmd.Flags().Bool("plan", false, "include a dependency-ordered execution plan")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	printer := ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plan, _ := cmd.Flags().GetBool("plan")

	res, err := loadAndAnalyze(cmd, cfg, args[0], plan)
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printer.Analysis(res)
	return nil
}
