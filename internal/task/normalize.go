package task

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Options tunes normalization.
type Options struct {
	// Strict drops a record instead of defaulting a malformed importance,
	// estimated_hours or due_date. Missing fields still take their defaults.
	Strict bool
}

// Normalize coerces raw records into canonical tasks using the lenient
// policy: malformed fields fall back to defaults and processing continues.
func Normalize(records []Record) ([]Task, []string) {
	return Options{}.Normalize(records)
}

// Normalize coerces raw records into canonical tasks. Records without a
// title are dropped. Messages describing dropped records and corrected
// fields are returned in input order; they never stop the batch.
func (o Options) Normalize(records []Record) ([]Task, []string) {
	tasks := make([]Task, 0, len(records))
	var errs []string

	for i, rec := range records {
		title, ok := titleOf(rec["title"])
		if !ok {
			errs = append(errs, fmt.Sprintf("Task at index %d missing title.", i))
			continue
		}

		t := Task{
			ID:    idOf(rec["id"], title),
			Title: title,
		}
		var problems []string

		imp, err := importanceOf(rec["importance"])
		if err != nil {
			problems = append(problems, fmt.Sprintf("Task '%s' has invalid importance '%v'.", title, rec["importance"]))
		}
		t.Importance = imp

		hours, err := hoursOf(rec["estimated_hours"])
		if err != nil {
			problems = append(problems, fmt.Sprintf("Task '%s' has invalid estimated_hours '%v'.", title, rec["estimated_hours"]))
		}
		t.EstimatedHours = hours

		due, dueErr := dueOf(rec["due_date"])
		if dueErr != nil {
			// Recorded in both modes; lenient mode keeps the task without a date.
			errs = append(errs, fmt.Sprintf("Task '%s' has invalid due_date '%v' (expected YYYY-MM-DD).", title, rec["due_date"]))
		}
		t.DueDate = due

		t.Dependencies = dependenciesOf(rec["dependencies"])

		if o.Strict {
			errs = append(errs, problems...)
			if len(problems) > 0 || dueErr != nil {
				errs = append(errs, fmt.Sprintf("Task at index %d rejected in strict mode.", i))
				continue
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, errs
}

// titleOf reports the stringified title, treating nil, false, zero numbers
// and empty strings as missing.
func titleOf(v any) (string, bool) {
	if isFalsy(v) {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func idOf(v any, title string) string {
	if v == nil {
		return title
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return title
	}
	return s
}

// importanceOf parses v as an integer clamped to [MinImportance, MaxImportance].
// An absent value is not an error. Strings are read as base-10 integers, so
// "08" is 8 and "7.5" is malformed.
func importanceOf(v any) (int, error) {
	if v == nil {
		return DefaultImportance, nil
	}
	var (
		n   int
		err error
	)
	if s, ok := v.(string); ok {
		n, err = strconv.Atoi(strings.TrimSpace(s))
	} else {
		n, err = cast.ToIntE(v)
	}
	if err != nil {
		return DefaultImportance, err
	}
	return max(MinImportance, min(MaxImportance, n)), nil
}

// hoursOf parses v as a positive, finite float.
func hoursOf(v any) (float64, error) {
	if v == nil {
		return DefaultEstimatedHours, nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return DefaultEstimatedHours, err
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return DefaultEstimatedHours, fmt.Errorf("non-positive hours %v", f)
	}
	return f, nil
}

// dueOf parses a YYYY-MM-DD string. nil, "" and "null" mean no due date.
func dueOf(v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		if d == "" || d == "null" {
			return nil, nil
		}
		parsed, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	case time.Time:
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return &day, nil
	default:
		return nil, fmt.Errorf("unsupported due_date type %T", v)
	}
}

// dependenciesOf wraps a scalar into a one-element list and stringifies
// every element. Duplicates are kept.
func dependenciesOf(v any) []string {
	if isFalsy(v) {
		return []string{}
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return []string{stringOf(v)}
	}
	deps := make([]string, 0, rv.Len())
	for i := range rv.Len() {
		deps = append(deps, stringOf(rv.Index(i).Interface()))
	}
	return deps
}

func stringOf(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map {
		return rv.Len() == 0
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f == 0
	}
	return false
}
