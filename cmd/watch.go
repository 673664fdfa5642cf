package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/taskfile"
	"github.com/papapumpkin/sextant/internal/telemetry"
	"github.com/papapumpkin/sextant/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-rank a task file every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringP("strategy", "s", "", "weighting strategy: smart, fastest, impact or deadline")
	watchCmd.Flags().Bool("plan", false, "include a dependency-ordered execution plan")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	printer := ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	plan, _ := cmd.Flags().GetBool("plan")
	path := args[0]

	emitter, err := openTelemetry(cfg)
	if err != nil {
		return err
	}
	defer emitter.Close()

	w, err := taskfile.NewWatcher(path)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	render := func() {
		res, err := loadAndAnalyze(cmd, cfg, path, plan)
		if err != nil {
			// Keep watching; the next save may fix the file.
			printer.Error(err.Error())
			return
		}
		printer.Analysis(res)
		emitReload(emitter, path, res, logger.Warn)
	}

	render()
	printer.Info("watching " + w.Path + " (ctrl-c to stop)")

	ctx, cancel := setupSignalContext(printer)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-w.Changes:
			if !ok {
				return nil
			}
			logger.Debug("task file changed", "path", changed)
			render()
		}
	}
}

func emitReload(em *telemetry.Emitter, path string, res analyzer.Result, warn func(string, ...any)) {
	err := em.Emit(telemetry.Event{
		Kind:   telemetry.KindBatchReloaded,
		RunID:  res.RunID,
		Source: path,
		Data: telemetry.Summary{
			Strategy: string(res.Strategy),
			Tasks:    len(res.Tasks),
			Cycles:   len(res.Cycles),
			Errors:   len(res.Errors),
		},
	})
	if err != nil {
		warn("telemetry emit failed", "error", err)
	}
}
