package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/task"
	"github.com/papapumpkin/sextant/internal/taskfile"
	"github.com/papapumpkin/sextant/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a task file without scoring it",
	Long: `Decodes the task file and normalizes every record, reporting records
that would be dropped or corrected. Exits non-zero when any problem is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	printer := ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := taskfile.NewLoader().Load(args[0])
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	kept, errs := validateBatch(b, cfg.Strict)
	printer.ValidateResult(b.Source, kept, errs)
	if len(errs) > 0 {
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}
	return nil
}

// validateBatch normalizes b and returns how many tasks survive, along with
// normalization problems and any strategy or weight problems in the header.
func validateBatch(b taskfile.Batch, strict bool) (int, []string) {
	var errs []string
	if b.Strategy != "" && !b.Strategy.Known() {
		errs = append(errs, fmt.Sprintf("unknown strategy %q (want one of %s)", b.Strategy, strategyNames()))
	}
	if b.Weights != nil {
		if err := b.Weights.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	tasks, normErrs := task.Options{Strict: strict}.Normalize(b.Tasks)
	return len(tasks), append(errs, normErrs...)
}
