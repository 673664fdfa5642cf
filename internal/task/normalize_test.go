package task

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize_MissingTitle(t *testing.T) {
	t.Parallel()

	records := []Record{
		{"id": "a", "title": "Write docs"},
		{"id": "b"},
		{"id": "c", "title": ""},
		{"id": "d", "title": "Ship it"},
	}

	tasks, errs := Normalize(records)

	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "a" || tasks[1].ID != "d" {
		t.Errorf("kept ids = [%s %s], want [a d]", tasks[0].ID, tasks[1].ID)
	}
	want := []string{"Task at index 1 missing title.", "Task at index 2 missing title."}
	if !reflect.DeepEqual(errs, want) {
		t.Errorf("errs = %q, want %q", errs, want)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	tasks, errs := Normalize([]Record{{"title": "Bare"}})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := tasks[0]
	if got.ID != "Bare" {
		t.Errorf("ID = %q, want title fallback %q", got.ID, "Bare")
	}
	if got.Importance != DefaultImportance {
		t.Errorf("Importance = %d, want %d", got.Importance, DefaultImportance)
	}
	if got.EstimatedHours != DefaultEstimatedHours {
		t.Errorf("EstimatedHours = %v, want %v", got.EstimatedHours, DefaultEstimatedHours)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", got.DueDate)
	}
	if got.Dependencies == nil || len(got.Dependencies) != 0 {
		t.Errorf("Dependencies = %#v, want empty non-nil slice", got.Dependencies)
	}
}

func TestNormalize_Importance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 7, 7},
		{"float truncates", 7.9, 7},
		{"numeric string", "8", 8},
		{"leading zero is decimal", "08", 8},
		{"padded string", " 7 ", 7},
		{"decimal string is malformed", "7.5", DefaultImportance},
		{"garbage", "very", DefaultImportance},
		{"clamp high", 42, MaxImportance},
		{"clamp low", -3, MinImportance},
		{"zero clamps to one", 0, MinImportance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tasks, _ := Normalize([]Record{{"title": "x", "importance": tt.in}})
			if tasks[0].Importance != tt.want {
				t.Errorf("Importance(%v) = %d, want %d", tt.in, tasks[0].Importance, tt.want)
			}
		})
	}
}

func TestNormalize_EstimatedHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 2.5, 2.5},
		{"string", "3", 3},
		{"padded string", " 3.5 ", 3.5},
		{"zero", 0, DefaultEstimatedHours},
		{"negative", -4.0, DefaultEstimatedHours},
		{"garbage", "soon", DefaultEstimatedHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tasks, errs := Normalize([]Record{{"title": "x", "estimated_hours": tt.in}})
			if len(errs) != 0 {
				t.Errorf("lenient mode recorded errors for hours: %v", errs)
			}
			if tasks[0].EstimatedHours != tt.want {
				t.Errorf("EstimatedHours(%v) = %v, want %v", tt.in, tasks[0].EstimatedHours, tt.want)
			}
		})
	}
}

func TestNormalize_DueDate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		tasks, errs := Normalize([]Record{{"title": "x", "due_date": "2026-03-14"}})
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if got := tasks[0].DueString(); got != "2026-03-14" {
			t.Errorf("DueString() = %q, want 2026-03-14", got)
		}
	})

	for _, empty := range []any{nil, "", "null"} {
		t.Run("empty", func(t *testing.T) {
			t.Parallel()
			tasks, errs := Normalize([]Record{{"title": "x", "due_date": empty}})
			if len(errs) != 0 || tasks[0].DueDate != nil {
				t.Errorf("due_date %#v: errs=%v due=%v, want none", empty, errs, tasks[0].DueDate)
			}
		})
	}

	t.Run("malformed keeps task", func(t *testing.T) {
		t.Parallel()
		tasks, errs := Normalize([]Record{{"title": "Report", "due_date": "14/03/2026", "importance": 9}})
		if len(tasks) != 1 {
			t.Fatalf("len(tasks) = %d, want 1", len(tasks))
		}
		if tasks[0].DueDate != nil {
			t.Errorf("DueDate = %v, want nil", tasks[0].DueDate)
		}
		if tasks[0].Importance != 9 {
			t.Errorf("Importance = %d, want other fields intact", tasks[0].Importance)
		}
		want := "Task 'Report' has invalid due_date '14/03/2026' (expected YYYY-MM-DD)."
		if len(errs) != 1 || errs[0] != want {
			t.Errorf("errs = %q, want [%q]", errs, want)
		}
	})
}

func TestNormalize_Dependencies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"list", []any{"a", "b"}, []string{"a", "b"}},
		{"scalar string", "a", []string{"a"}},
		{"scalar number", 3.0, []string{"3"}},
		{"mixed", []any{1.0, "b", 2}, []string{"1", "b", "2"}},
		{"duplicates kept", []any{"a", "a"}, []string{"a", "a"}},
		{"string slice", []string{"x"}, []string{"x"}},
		{"typed string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"int slice", []int{1, 2}, []string{"1", "2"}},
		{"array", [2]string{"a", "b"}, []string{"a", "b"}},
		{"empty int slice", []int{}, []string{}},
		{"nil", nil, []string{}},
		{"empty", []any{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tasks, _ := Normalize([]Record{{"title": "x", "dependencies": tt.in}})
			if !reflect.DeepEqual(tasks[0].Dependencies, tt.want) {
				t.Errorf("Dependencies(%#v) = %#v, want %#v", tt.in, tasks[0].Dependencies, tt.want)
			}
		})
	}
}

func TestNormalize_NumericIDAndTitle(t *testing.T) {
	t.Parallel()

	tasks, _ := Normalize([]Record{{"id": 12.0, "title": 7}})
	if tasks[0].ID != "12" || tasks[0].Title != "7" {
		t.Errorf("got id=%q title=%q, want 12 and 7", tasks[0].ID, tasks[0].Title)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	raw := []Record{
		{"id": "A", "title": "Alpha", "due_date": "2026-01-02", "estimated_hours": "0.5", "importance": 12, "dependencies": "B"},
		{"title": "Beta", "due_date": "bogus", "estimated_hours": -1, "importance": "x"},
		{"id": "C", "title": "Gamma", "dependencies": []any{"A", 1.0}},
	}

	first, _ := Normalize(raw)
	second, errs := Normalize(Records(first))
	if len(errs) != 0 {
		t.Fatalf("renormalizing canonical batch produced errors: %v", errs)
	}
	if len(first) != len(second) {
		t.Fatalf("len changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.ID != b.ID || a.Title != b.Title || a.Importance != b.Importance ||
			a.EstimatedHours != b.EstimatedHours || a.DueString() != b.DueString() ||
			!reflect.DeepEqual(a.Dependencies, b.Dependencies) {
			t.Errorf("task %d changed on renormalize:\n first=%+v\nsecond=%+v", i, a, b)
		}
	}
}

func TestNormalize_Strict(t *testing.T) {
	t.Parallel()

	records := []Record{
		{"title": "ok", "importance": 4},
		{"title": "bad importance", "importance": "high"},
		{"title": "bad hours", "estimated_hours": 0},
		{"title": "bad date", "due_date": "tomorrow"},
		{"title": "defaults are fine"},
	}

	tasks, errs := Options{Strict: true}.Normalize(records)

	var titles []string
	for _, tk := range tasks {
		titles = append(titles, tk.Title)
	}
	if want := []string{"ok", "defaults are fine"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("kept = %q, want %q", titles, want)
	}

	rejected := 0
	for _, e := range errs {
		if strings.Contains(e, "rejected in strict mode") {
			rejected++
		}
	}
	if rejected != 3 {
		t.Errorf("rejected = %d, want 3 (errs=%q)", rejected, errs)
	}
}
