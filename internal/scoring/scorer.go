package scoring

import (
	"math"
	"strconv"
	"time"

	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/task"
)

const (
	// noDueDays stands in for the distance to a missing due date so those
	// tasks take part in normalization as far future.
	noDueDays = 9999.0

	// maxUrgency caps urgency after the past-due boost.
	maxUrgency = 1.5

	// overdueRamp is the number of overdue days that adds a full 1.0 of
	// urgency.
	overdueRamp = 30.0
)

// Explanation carries the normalized factors behind a score.
type Explanation struct {
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	Effort     float64 `json:"effort"`
	Dependency float64 `json:"dependency"`
	Weights    Weights `json:"weights"`
	RawScore   float64 `json:"raw_score"`
}

// Meta holds ranking flags.
type Meta struct {
	CircularDependency bool `json:"circular_dependency,omitempty"`
}

// ScoredTask is a canonical task with its score and explanation.
type ScoredTask struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	DueDate        *string     `json:"due_date"`
	EstimatedHours float64     `json:"estimated_hours"`
	Importance     int         `json:"importance"`
	Dependencies   []string    `json:"dependencies"`
	Score          float64     `json:"score"`
	Explanation    Explanation `json:"explanation"`
	Meta           *Meta       `json:"meta,omitempty"`
}

// Circular reports whether the task was flagged as part of a dependency cycle.
func (s ScoredTask) Circular() bool {
	return s.Meta != nil && s.Meta.CircularDependency
}

// Scorer scores a batch under one strategy.
type Scorer struct {
	Strategy Strategy
	// Weights overrides the smart profile. Ignored by other strategies.
	Weights *Weights
	// Today is the reference date. The zero value means the current date.
	Today time.Time
}

// Score scores tasks under strategy, with custom weights applying to smart only.
func Score(tasks []task.Task, weights *Weights, strategy Strategy) []ScoredTask {
	return Scorer{Strategy: strategy, Weights: weights}.Score(tasks)
}

// Score computes one ScoredTask per input task, in input order. Factor
// ranges are taken from this batch alone.
func (s Scorer) Score(tasks []task.Task) []ScoredTask {
	out := make([]ScoredTask, 0, len(tasks))
	if len(tasks) == 0 {
		return out
	}

	today := s.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = dateOf(today)

	days := make([]float64, len(tasks))
	imps := make([]float64, len(tasks))
	hours := make([]float64, len(tasks))
	for i, t := range tasks {
		days[i] = noDueDays
		if t.DueDate != nil {
			days[i] = daysBetween(today, *t.DueDate)
		}
		imps[i] = float64(t.Importance)
		hours[i] = t.EstimatedHours
	}
	minDays, maxDays := bounds(days)
	minImp, maxImp := bounds(imps)
	minHours, maxHours := bounds(hours)

	blocked := dag.BlockedCounts(tasks)
	maxBlocked := float64(max(1, dag.MaxCount(blocked)))

	w := WeightsFor(s.Strategy, s.Weights)

	for i, t := range tasks {
		var urgency float64
		if t.DueDate != nil {
			urgency = 1 - normalize(days[i], minDays, maxDays)
			if days[i] < 0 {
				urgency = math.Min(maxUrgency, urgency+math.Abs(days[i])/overdueRamp)
			}
		}
		importance := normalize(imps[i], minImp, maxImp)
		effort := 1 - normalize(hours[i], minHours, maxHours)
		dependency := normalize(float64(blocked[t.Key()]), 0, maxBlocked)

		raw := urgency*w.Urgency +
			importance*w.Importance +
			effort*w.Effort +
			dependency*w.Dependency

		var due *string
		if t.DueDate != nil {
			d := t.DueString()
			due = &d
		}

		out = append(out, ScoredTask{
			ID:             t.Key(),
			Title:          t.Title,
			DueDate:        due,
			EstimatedHours: t.EstimatedHours,
			Importance:     t.Importance,
			Dependencies:   t.Dependencies,
			Score:          round(clamp(raw*100, 0, 100), 2),
			Explanation: Explanation{
				Urgency:    round(urgency, 3),
				Importance: round(importance, 3),
				Effort:     round(effort, 3),
				Dependency: round(dependency, 3),
				Weights:    w,
				RawScore:   round(raw, 4),
			},
		})
	}
	return out
}

// normalize maps v from [lo, hi] onto [0, 1], clamping. A degenerate range
// maps everything to 0.
func normalize(v, lo, hi float64) float64 {
	if lo == hi {
		return 0
	}
	return clamp((v-lo)/(hi-lo), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round rounds the exact binary value of v to the given decimal places, so
// 0.4125 (stored just below the tie) becomes 0.412.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// dateOf returns the calendar date of t in t's own location, stamped at
// UTC midnight so dates from different sources compare by day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from today to due; negative when
// due is in the past.
func daysBetween(today, due time.Time) float64 {
	return math.Round(dateOf(due).Sub(today).Hours() / 24)
}
