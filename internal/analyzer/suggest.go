package analyzer

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/sextant/internal/rank"
	"github.com/papapumpkin/sextant/internal/scoring"
)

// DefaultSuggestLimit is the number of suggestions returned when the caller
// does not ask for a specific count.
const DefaultSuggestLimit = 3

// Explanation thresholds for the "why" text.
const (
	urgentAbove      = 0.6
	importantAbove   = 0.6
	quickWinAbove    = 0.6
	blocksOtherAbove = 0.3
)

// Suggestion is a ranked task with a short reason for picking it.
type Suggestion struct {
	scoring.ScoredTask
	Why string `json:"why"`
}

// Suggest returns the leading limit tasks of a ranked list with a reason
// derived from each explanation. A non-positive limit uses
// DefaultSuggestLimit.
func Suggest(ranked []scoring.ScoredTask, limit int) []Suggestion {
	top := rank.Top(ranked, limitOrDefault(limit))
	out := make([]Suggestion, len(top))
	for i, t := range top {
		out[i] = Suggestion{ScoredTask: t, Why: Why(t.Explanation)}
	}
	return out
}

// SuggestPrevious picks from an earlier result without recomputing. The
// reason names the strategy the caller asked for.
func SuggestPrevious(prev Result, strategy scoring.Strategy, limit int) []Suggestion {
	if strategy == "" {
		strategy = scoring.Smart
	}
	why := fmt.Sprintf("Selected by previous analysis (strategy=%s).", strategy)
	top := rank.Top(prev.Tasks, limitOrDefault(limit))
	out := make([]Suggestion, len(top))
	for i, t := range top {
		out[i] = Suggestion{ScoredTask: t, Why: why}
	}
	return out
}

// Why summarizes which factors dominate an explanation.
func Why(e scoring.Explanation) string {
	var parts []string
	if e.Urgency > urgentAbove {
		parts = append(parts, "Urgent due date")
	}
	if e.Importance > importantAbove {
		parts = append(parts, "High importance")
	}
	if e.Effort > quickWinAbove {
		parts = append(parts, "Quick win (low effort)")
	}
	if e.Dependency > blocksOtherAbove {
		parts = append(parts, "Blocks other tasks")
	}
	if len(parts) == 0 {
		return "Balanced priority"
	}
	return strings.Join(parts, "; ")
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultSuggestLimit
	}
	return n
}

// Band is a coarse priority label for a score.
type Band string

const (
	High   Band = "high"
	Medium Band = "medium"
	Low    Band = "low"
)

// BandOf maps a 0-100 score to its band: 70 and above is high, 40 and
// above is medium.
func BandOf(score float64) Band {
	switch {
	case score >= 70:
		return High
	case score >= 40:
		return Medium
	default:
		return Low
	}
}
