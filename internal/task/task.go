// Package task defines raw and canonical task records and the normalizer
// that coerces one into the other.
package task

import "time"

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

// Defaults applied by Normalize when a field is absent or unusable.
const (
	DefaultImportance     = 5
	DefaultEstimatedHours = 1.0
	MinImportance         = 1
	MaxImportance         = 10
)

// Record is a raw, JSON-shaped task as supplied by a caller. Known keys are
// id, title, due_date, estimated_hours, importance and dependencies; any
// other keys are ignored.
type Record map[string]any

// Task is the canonical form produced by Normalize.
type Task struct {
	ID             string
	Title          string
	DueDate        *time.Time // nil means no due date
	EstimatedHours float64
	Importance     int
	Dependencies   []string
}

// Key returns the graph-node key for the task: its ID, or its title when
// the ID is empty.
func (t Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Title
}

// DueString returns the due date in DateLayout, or "" when there is none.
func (t Task) DueString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// Record renders the canonical task back into its raw form. Normalizing the
// result yields the same task.
func (t Task) Record() Record {
	deps := make([]any, len(t.Dependencies))
	for i, d := range t.Dependencies {
		deps[i] = d
	}
	var due any
	if t.DueDate != nil {
		due = t.DueString()
	}
	return Record{
		"id":              t.ID,
		"title":           t.Title,
		"due_date":        due,
		"estimated_hours": t.EstimatedHours,
		"importance":      t.Importance,
		"dependencies":    deps,
	}
}

// Records renders a canonical batch back into raw records.
func Records(tasks []Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		out[i] = t.Record()
	}
	return out
}
