package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/config"
	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/taskfile"
)

// analysisOptions resolves the options for analyzing b. The --strategy flag
// wins over the file, which wins over configuration. Weights in the file
// replace the configured weights.
func analysisOptions(cmd *cobra.Command, cfg config.Config, b taskfile.Batch) (analyzer.Options, error) {
	strategy := scoring.Strategy(cfg.Strategy)
	if b.Strategy != "" {
		strategy = b.Strategy
	}
	if flag := cmd.Flags().Lookup("strategy"); flag != nil && flag.Changed {
		strategy = scoring.Strategy(flag.Value.String())
	}
	if !strategy.Known() {
		return analyzer.Options{}, fmt.Errorf("unknown strategy %q (want one of %s)", strategy, strategyNames())
	}

	weights := cfg.ScoringWeights()
	if b.Weights != nil {
		if err := b.Weights.Validate(); err != nil {
			return analyzer.Options{}, fmt.Errorf("%s: %w", b.Source, err)
		}
		weights = b.Weights
	}

	return analyzer.Options{
		Strategy: strategy,
		Weights:  weights,
		Strict:   cfg.Strict,
	}, nil
}

// loadAndAnalyze reads path and analyzes it.
func loadAndAnalyze(cmd *cobra.Command, cfg config.Config, path string, plan bool) (analyzer.Result, error) {
	b, err := taskfile.NewLoader().Load(path)
	if err != nil {
		return analyzer.Result{}, err
	}
	opts, err := analysisOptions(cmd, cfg, b)
	if err != nil {
		return analyzer.Result{}, err
	}
	opts.Plan = plan
	opts.Today = time.Now()
	return analyzer.Analyze(b.Tasks, opts), nil
}

func strategyNames() string {
	names := make([]string, 0, len(scoring.Strategies()))
	for _, st := range scoring.Strategies() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
