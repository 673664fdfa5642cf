package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/ui"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Suggest the next tasks to work on",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringP("strategy", "s", "", "weighting strategy: smart, fastest, impact or deadline")
	suggestCmd.Flags().IntP("limit", "n", 0, "number of suggestions (default from config)")
	suggestCmd.Flags().Bool("json", false, "print the suggestions as JSON")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	printer := ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.SuggestLimit
	}

	res, err := loadAndAnalyze(cmd, cfg, args[0], false)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	items := analyzer.Suggest(res.Tasks, limit)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Tasks []analyzer.Suggestion `json:"tasks"`
		}{items})
	}
	printer.Suggestions(items)
	if len(res.Cycles) > 0 {
		printer.Info(ui.RenderCycles(res.Cycles))
	}
	return nil
}
