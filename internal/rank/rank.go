// Package rank orders scored tasks and flags those caught in dependency cycles.
package rank

import (
	"sort"

	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/scoring"
)

// Rank returns a copy of scored sorted by score descending, then by
// estimated hours ascending. Equal pairs keep input order. A task whose id
// or title appears in any cycle gets meta.circular_dependency set.
func Rank(scored []scoring.ScoredTask, cycles []dag.Cycle) []scoring.ScoredTask {
	inCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, id := range c {
			inCycle[id] = true
		}
	}

	out := make([]scoring.ScoredTask, len(scored))
	copy(out, scored)
	for i := range out {
		if inCycle[out[i].ID] || inCycle[out[i].Title] {
			out[i].Meta = &scoring.Meta{CircularDependency: true}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EstimatedHours < out[j].EstimatedHours
	})
	return out
}

// Top returns at most n leading entries of ranked. A non-positive n yields
// an empty slice.
func Top(ranked []scoring.ScoredTask, n int) []scoring.ScoredTask {
	if n <= 0 {
		return []scoring.ScoredTask{}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
