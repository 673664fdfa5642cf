package dag

import "github.com/papapumpkin/sextant/internal/task"

// BlockedCounts returns, for every task key in the batch, how many
// dependency declarations across the batch name it. A task that unblocks
// more work has a higher count. Declarations naming unknown keys are
// ignored; repeated declarations count each time.
func BlockedCounts(tasks []task.Task) map[string]int {
	counts := make(map[string]int, len(tasks))
	for _, t := range tasks {
		counts[t.Key()] = 0
	}
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := counts[dep]; ok {
				counts[dep]++
			}
		}
	}
	return counts
}

// MaxCount returns the largest value in counts, or 0 when empty.
func MaxCount(counts map[string]int) int {
	best := 0
	for _, c := range counts {
		best = max(best, c)
	}
	return best
}
