// Package analyzer runs the full prioritization pipeline over one batch of
// raw task records: normalize, detect cycles, score, rank.
//
// Every call is independent. Nothing is cached between calls; callers that
// want to remember the latest result keep it in a snapshot.Store.
package analyzer

import (
	"time"

	"github.com/google/uuid"

	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/rank"
	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/task"
)

// Options selects the strategy and normalization policy for one analysis.
type Options struct {
	Strategy scoring.Strategy
	// Weights replaces the smart profile. Other strategies ignore it.
	Weights *scoring.Weights
	Strict  bool
	// Today fixes the reference date. The zero value means the current date.
	Today time.Time
	// Plan requests an execution plan alongside the ranking.
	Plan bool
}

// Result is the outcome of one analysis.
type Result struct {
	RunID    string               `json:"run_id"`
	At       time.Time            `json:"analyzed_at"`
	Strategy scoring.Strategy     `json:"strategy"`
	Cycles   []dag.Cycle          `json:"cycles"`
	Tasks    []scoring.ScoredTask `json:"tasks"`
	Errors   []string             `json:"errors"`
	Plan     *Plan                `json:"plan,omitempty"`
}

// Plan describes an order in which the batch could be worked.
type Plan struct {
	// Order lists task ids with dependencies first. Empty when the batch is
	// cyclic.
	Order []string `json:"order"`
	// Tracks groups tasks that share no dependency edges with other groups.
	Tracks []dag.Track `json:"tracks"`
	Cyclic bool        `json:"cyclic"`
}

// Analyze normalizes records, then scores and ranks the well-formed subset.
// It always returns a result; per-record problems land in Result.Errors.
func Analyze(records []task.Record, opts Options) Result {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = scoring.Smart
	}

	tasks, errs := task.Options{Strict: opts.Strict}.Normalize(records)
	if errs == nil {
		errs = []string{}
	}

	g := dag.FromTasks(tasks)
	cycles := g.FindCycles()

	scored := scoring.Scorer{
		Strategy: strategy,
		Weights:  opts.Weights,
		Today:    opts.Today,
	}.Score(tasks)

	res := Result{
		RunID:    uuid.NewString(),
		At:       time.Now().UTC(),
		Strategy: strategy,
		Cycles:   cycles,
		Tasks:    rank.Rank(scored, cycles),
		Errors:   errs,
	}
	if opts.Plan {
		res.Plan = buildPlan(g)
	}
	return res
}

func buildPlan(g *dag.Graph) *Plan {
	p := &Plan{Order: []string{}, Tracks: g.Tracks()}
	order, err := g.TopologicalOrder()
	if err != nil {
		p.Cyclic = true
	} else if order != nil {
		p.Order = order
	}
	if p.Tracks == nil {
		p.Tracks = []dag.Track{}
	}
	return p
}
