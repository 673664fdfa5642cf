package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/task"
	"github.com/papapumpkin/sextant/internal/telemetry"
)

// analyzeInput is the input schema for the analyze_tasks tool.
type analyzeInput struct {
	Tasks    []map[string]any `json:"tasks" jsonschema:"Task records with title and optional id, due_date (YYYY-MM-DD), estimated_hours, importance (1-10), dependencies"`
	Strategy string           `json:"strategy,omitempty" jsonschema:"One of smart, fastest, impact, deadline (default smart)"`
	Weights  *weightsInput    `json:"weights,omitempty" jsonschema:"Custom weights, honoured only by the smart strategy"`
	Plan     bool             `json:"plan,omitempty" jsonschema:"Also return a dependency-ordered execution plan"`
}

type weightsInput struct {
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	Effort     float64 `json:"effort"`
	Dependency float64 `json:"dependency"`
}

// rankedTask is one entry of the analyze_tasks response.
type rankedTask struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	DueDate            string   `json:"due_date,omitempty"`
	EstimatedHours     float64  `json:"estimated_hours"`
	Importance         int      `json:"importance"`
	Dependencies       []string `json:"dependencies"`
	Score              float64  `json:"score"`
	Band               string   `json:"band"`
	Urgency            float64  `json:"urgency"`
	ImportanceFactor   float64  `json:"importance_factor"`
	Effort             float64  `json:"effort"`
	Dependency         float64  `json:"dependency"`
	CircularDependency bool     `json:"circular_dependency,omitempty"`
}

type planOutput struct {
	Order  []string   `json:"order"`
	Tracks [][]string `json:"tracks"`
	Cyclic bool       `json:"cyclic"`
}

// analyzeOutput is the output schema for the analyze_tasks tool.
type analyzeOutput struct {
	RunID    string       `json:"run_id"`
	Strategy string       `json:"strategy"`
	Tasks    []rankedTask `json:"tasks"`
	Cycles   [][]string   `json:"cycles"`
	Errors   []string     `json:"errors"`
	Plan     *planOutput  `json:"plan,omitempty"`
}

// suggestInput is the input schema for the suggest_tasks tool.
type suggestInput struct {
	Tasks    []map[string]any `json:"tasks,omitempty" jsonschema:"Task records to rank; omit to reuse the latest analysis"`
	Strategy string           `json:"strategy,omitempty" jsonschema:"One of smart, fastest, impact, deadline (default smart)"`
	Limit    int              `json:"limit,omitempty" jsonschema:"Number of suggestions (default 3)"`
}

type suggestionEntry struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Score              float64 `json:"score"`
	Band               string  `json:"band"`
	Why                string  `json:"why"`
	CircularDependency bool    `json:"circular_dependency,omitempty"`
}

// suggestOutput is the output schema for the suggest_tasks tool.
type suggestOutput struct {
	Suggestions []suggestionEntry `json:"suggestions"`
	Cycles      [][]string        `json:"cycles,omitempty"`
	FromCache   bool              `json:"from_previous_analysis"`
}

type strategyEntry struct {
	Name       string  `json:"name"`
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	Effort     float64 `json:"effort"`
	Dependency float64 `json:"dependency"`
	Total      float64 `json:"total"`
}

// strategiesOutput is the output schema for the list_strategies tool.
type strategiesOutput struct {
	Default    string          `json:"default"`
	Strategies []strategyEntry `json:"strategies"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_tasks",
		Description: "Score and rank tasks by priority and report circular dependencies",
	}, func(_ context.Context, _ *mcp.CallToolRequest, input analyzeInput) (*mcp.CallToolResult, analyzeOutput, error) {
		if input.Tasks == nil {
			return nil, analyzeOutput{}, fmt.Errorf("tasks is required")
		}
		weights, err := s.weightsFor(input.Weights)
		if err != nil {
			return nil, analyzeOutput{}, err
		}

		res := analyzer.Analyze(records(input.Tasks), analyzer.Options{
			Strategy: s.strategyOr(input.Strategy),
			Weights:  weights,
			Strict:   s.opts.Strict,
			Today:    s.opts.Today,
			Plan:     input.Plan,
		})
		s.store.Put(res)
		s.emit(telemetry.KindAnalysisDone, res)

		return nil, toAnalyzeOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "suggest_tasks",
		Description: "Suggest the next tasks to work on, with a short reason for each",
	}, func(_ context.Context, _ *mcp.CallToolRequest, input suggestInput) (*mcp.CallToolResult, suggestOutput, error) {
		strategy := s.strategyOr(input.Strategy)
		limit := input.Limit
		if limit <= 0 {
			limit = s.opts.SuggestLimit
		}

		if input.Tasks == nil {
			prev, err := s.store.Latest()
			if err != nil {
				return nil, suggestOutput{}, fmt.Errorf("no tasks provided and no previous analysis available: %w", err)
			}
			s.emit(telemetry.KindSuggestServed, prev)
			return nil, suggestOutput{
				Suggestions: toSuggestions(analyzer.SuggestPrevious(prev, strategy, limit)),
				FromCache:   true,
			}, nil
		}

		res := analyzer.Analyze(records(input.Tasks), analyzer.Options{
			Strategy: strategy,
			Weights:  s.opts.Weights,
			Strict:   s.opts.Strict,
			Today:    s.opts.Today,
		})
		s.emit(telemetry.KindSuggestServed, res)
		return nil, suggestOutput{
			Suggestions: toSuggestions(analyzer.Suggest(res.Tasks, limit)),
			Cycles:      cyclesOut(res.Cycles),
		}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_strategies",
		Description: "List the built-in weighting strategies and their weights",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, strategiesOutput, error) {
		out := strategiesOutput{Default: string(s.opts.Strategy)}
		for _, st := range scoring.Strategies() {
			w := scoring.WeightsFor(st, nil)
			out.Strategies = append(out.Strategies, strategyEntry{
				Name:       string(st),
				Urgency:    w.Urgency,
				Importance: w.Importance,
				Effort:     w.Effort,
				Dependency: w.Dependency,
				Total:      w.Sum(),
			})
		}
		return nil, out, nil
	})
}

func (s *Server) strategyOr(name string) scoring.Strategy {
	if name == "" {
		return s.opts.Strategy
	}
	return scoring.Strategy(name)
}

func (s *Server) weightsFor(in *weightsInput) (*scoring.Weights, error) {
	if in == nil {
		return s.opts.Weights, nil
	}
	w := scoring.Weights(*in)
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Server) emit(kind string, res analyzer.Result) {
	err := s.opts.Telemetry.Emit(telemetry.Event{
		Kind:   kind,
		RunID:  res.RunID,
		Source: "mcp",
		Data: telemetry.Summary{
			Strategy: string(res.Strategy),
			Tasks:    len(res.Tasks),
			Cycles:   len(res.Cycles),
			Errors:   len(res.Errors),
		},
	})
	if err != nil {
		s.log.Warn("telemetry emit failed", "kind", kind, "error", err)
	}
}

func records(in []map[string]any) []task.Record {
	out := make([]task.Record, len(in))
	for i, m := range in {
		out[i] = task.Record(m)
	}
	return out
}

func cyclesOut(cycles []dag.Cycle) [][]string {
	out := make([][]string, len(cycles))
	for i, c := range cycles {
		out[i] = []string(c)
	}
	return out
}

func toAnalyzeOutput(res analyzer.Result) analyzeOutput {
	out := analyzeOutput{
		RunID:    res.RunID,
		Strategy: string(res.Strategy),
		Tasks:    make([]rankedTask, len(res.Tasks)),
		Cycles:   cyclesOut(res.Cycles),
		Errors:   res.Errors,
	}
	for i, t := range res.Tasks {
		rt := rankedTask{
			ID:                 t.ID,
			Title:              t.Title,
			EstimatedHours:     t.EstimatedHours,
			Importance:         t.Importance,
			Dependencies:       t.Dependencies,
			Score:              t.Score,
			Band:               string(analyzer.BandOf(t.Score)),
			Urgency:            t.Explanation.Urgency,
			ImportanceFactor:   t.Explanation.Importance,
			Effort:             t.Explanation.Effort,
			Dependency:         t.Explanation.Dependency,
			CircularDependency: t.Circular(),
		}
		if rt.Dependencies == nil {
			rt.Dependencies = []string{}
		}
		if t.DueDate != nil {
			rt.DueDate = *t.DueDate
		}
		out.Tasks[i] = rt
	}
	if res.Plan != nil {
		p := &planOutput{Order: res.Plan.Order, Cyclic: res.Plan.Cyclic, Tracks: make([][]string, len(res.Plan.Tracks))}
		for i, tr := range res.Plan.Tracks {
			p.Tracks[i] = tr.NodeIDs
		}
		out.Plan = p
	}
	return out
}

func toSuggestions(items []analyzer.Suggestion) []suggestionEntry {
	out := make([]suggestionEntry, len(items))
	for i, it := range items {
		out[i] = suggestionEntry{
			ID:                 it.ID,
			Title:              it.Title,
			Score:              it.Score,
			Band:               string(analyzer.BandOf(it.Score)),
			Why:                it.Why,
			CircularDependency: it.Circular(),
		}
	}
	return out
}
