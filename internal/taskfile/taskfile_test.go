package taskfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/task"
)

func memLoader(t *testing.T, files map[string]string) Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}
	return Loader{Fs: fs}
}

const jsonDoc = `{
  "strategy": "impact",
  "weights": {"urgency": 0.5, "importance": "0.5"},
  "tasks": [
    {"id": "api", "title": "Build API", "due_date": "2025-04-01", "estimated_hours": 6, "importance": 8},
    {"title": "Docs", "dependencies": ["api"]}
  ]
}`

const yamlDoc = `
strategy: deadline
tasks:
  - id: api
    title: Build API
    due_date: 2025-04-01
    estimated_hours: 6
    importance: 8
  - title: Docs
    dependencies: api
`

const tomlDoc = `
strategy = "fastest"

[weights]
urgency = 0.25
effort = 0.75

[[tasks]]
id = "api"
title = "Build API"
due_date = 2025-04-01
estimated_hours = 6
importance = 8

[[tasks]]
title = "Docs"
dependencies = ["api"]
`

func TestLoad_Formats(t *testing.T) {
	t.Parallel()
	l := memLoader(t, map[string]string{
		"/b/tasks.json": jsonDoc,
		"/b/tasks.yaml": yamlDoc,
		"/b/tasks.yml":  yamlDoc,
		"/b/tasks.toml": tomlDoc,
	})

	tests := []struct {
		path     string
		strategy scoring.Strategy
		weights  *scoring.Weights
	}{
		{"/b/tasks.json", scoring.Impact, &scoring.Weights{Urgency: 0.5, Importance: 0.5}},
		{"/b/tasks.yaml", scoring.Deadline, nil},
		{"/b/tasks.yml", scoring.Deadline, nil},
		{"/b/tasks.toml", scoring.Fastest, &scoring.Weights{Urgency: 0.25, Effort: 0.75}},
	}

	for _, tt := range tests {
		t.Run(filepath.Ext(tt.path), func(t *testing.T) {
			t.Parallel()
			b, err := l.Load(tt.path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if b.Source != tt.path {
				t.Errorf("Source = %q", b.Source)
			}
			if b.Strategy != tt.strategy {
				t.Errorf("Strategy = %q, want %q", b.Strategy, tt.strategy)
			}
			if (b.Weights == nil) != (tt.weights == nil) || (b.Weights != nil && *b.Weights != *tt.weights) {
				t.Errorf("Weights = %+v, want %+v", b.Weights, tt.weights)
			}

			tasks, errs := task.Normalize(b.Tasks)
			if len(errs) != 0 {
				t.Fatalf("normalize errors: %v", errs)
			}
			if len(tasks) != 2 {
				t.Fatalf("got %d tasks, want 2", len(tasks))
			}
			if got := tasks[0].DueString(); got != "2025-04-01" {
				t.Errorf("due = %q, want 2025-04-01", got)
			}
			if tasks[0].Importance != 8 || tasks[0].EstimatedHours != 6 {
				t.Errorf("api = %+v", tasks[0])
			}
			if tasks[1].ID != "Docs" || len(tasks[1].Dependencies) != 1 || tasks[1].Dependencies[0] != "api" {
				t.Errorf("docs = %+v", tasks[1])
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	l := memLoader(t, map[string]string{
		"/tasks.txt":       "[]",
		"/bad.json":        "{not json",
		"/notasks.json":    `{"strategy": "smart"}`,
		"/nulltasks.yaml":  "tasks: null\n",
		"/scalar.json":     `42`,
		"/badweights.json": `{"tasks": [], "weights": {"urgency": "high"}}`,
		"/tasksobj.json":   `{"tasks": {"title": "x"}}`,
	})

	tests := []struct {
		path string
		want error
	}{
		{"/tasks.txt", ErrUnsupportedFormat},
		{"/missing.json", os.ErrNotExist},
		{"/notasks.json", ErrNoTasks},
		{"/nulltasks.yaml", ErrNoTasks},
		{"/scalar.json", ErrInvalidDocument},
		{"/badweights.json", ErrInvalidDocument},
		{"/tasksobj.json", ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if _, err := l.Load(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("Load(%s) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}

	if _, err := l.Load("/bad.json"); err == nil {
		t.Error("Load(/bad.json) succeeded on malformed JSON")
	}
}

func TestParse_BareList(t *testing.T) {
	t.Parallel()
	b, err := Parse(JSON, []byte(`[{"title": "a"}, "stray", {"title": "b"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Strategy != "" || b.Weights != nil {
		t.Errorf("bare list carried strategy %q weights %+v", b.Strategy, b.Weights)
	}
	if len(b.Tasks) != 3 {
		t.Fatalf("got %d records, want 3", len(b.Tasks))
	}
	_, errs := task.Normalize(b.Tasks)
	if len(errs) != 1 || errs[0] != "Task at index 1 missing title." {
		t.Errorf("errors = %q, want the stray element reported at index 1", errs)
	}
}

func TestParse_EmptyListIsNotAnError(t *testing.T) {
	t.Parallel()
	b, err := Parse(JSON, []byte(`{"tasks": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(b.Tasks) != 0 {
		t.Errorf("Tasks = %v, want empty", b.Tasks)
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.debounce = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// A sibling file must not trigger a change.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`[{"title": "x"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changes:
		if got != w.Path {
			t.Errorf("change for %q, want %q", got, w.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
