package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/taskfile"
	"github.com/papapumpkin/sextant/internal/telemetry"
)

const (
	msgNoTasks      = "No tasks provided. Provide JSON array or {'tasks': [...]}."
	msgNoPrevious   = "No tasks provided and no previous analysis available. Provide tasks in 'tasks' query param or POST to /analyze first."
	msgBadQueryJSON = "Failed to parse tasks query param as JSON"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type analyzeResponse struct {
	Strategy scoring.Strategy     `json:"strategy"`
	Cycles   []dag.Cycle          `json:"cycles"`
	Tasks    []scoring.ScoredTask `json:"tasks"`
	Errors   []string             `json:"errors"`
}

type suggestResponse struct {
	Tasks  []analyzer.Suggestion `json:"tasks"`
	Cycles []dag.Cycle           `json:"cycles,omitempty"`
}

type strategyInfo struct {
	Name    scoring.Strategy `json:"name"`
	Weights scoring.Weights  `json:"weights"`
	Total   float64          `json:"total"`
}

// handleAnalyze scores a posted batch and remembers the result for later
// suggestions.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read request body", err.Error())
		return
	}
	var doc any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
			return
		}
	}

	batch, err := taskfile.FromDocument(doc)
	switch {
	case errors.Is(err, taskfile.ErrNoTasks):
		writeError(w, http.StatusBadRequest, msgNoTasks, nil)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid task format", err.Error())
		return
	}

	weights := s.opts.Weights
	if batch.Weights != nil {
		if err := batch.Weights.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid weights", err.Error())
			return
		}
		weights = batch.Weights
	}
	strategy := batch.Strategy
	if strategy == "" {
		strategy = s.opts.Strategy
	}

	res := analyzer.Analyze(batch.Tasks, analyzer.Options{
		Strategy: strategy,
		Weights:  weights,
		Strict:   s.opts.Strict,
		Today:    s.opts.Today,
	})
	s.store.Put(res)
	s.emit(telemetry.KindAnalysisDone, res)

	writeJSON(w, http.StatusOK, analyzeResponse{
		Strategy: res.Strategy,
		Cycles:   res.Cycles,
		Tasks:    res.Tasks,
		Errors:   res.Errors,
	})
}

// handleSuggest returns the top tasks for a batch passed in the query, or
// from the latest analysis when no batch is given.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	strategy := scoring.Strategy(q.Get("strategy"))
	if strategy == "" {
		strategy = s.opts.Strategy
	}
	limit := s.opts.SuggestLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", raw)
			return
		}
		limit = n
	}

	param := q.Get("tasks")
	if param == "" {
		prev, err := s.store.Latest()
		if err != nil {
			writeError(w, http.StatusBadRequest, msgNoPrevious, nil)
			return
		}
		items := analyzer.SuggestPrevious(prev, strategy, limit)
		s.emit(telemetry.KindSuggestServed, prev)
		writeJSON(w, http.StatusOK, suggestResponse{Tasks: items})
		return
	}

	doc, err := decodeTasksParam(param)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadQueryJSON, err.Error())
		return
	}
	batch, err := taskfile.FromDocument(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadQueryJSON, err.Error())
		return
	}

	res := analyzer.Analyze(batch.Tasks, analyzer.Options{
		Strategy: strategy,
		Weights:  s.opts.Weights,
		Strict:   s.opts.Strict,
		Today:    s.opts.Today,
	})
	s.emit(telemetry.KindSuggestServed, res)
	writeJSON(w, http.StatusOK, suggestResponse{
		Tasks:  analyzer.Suggest(res.Tasks, limit),
		Cycles: res.Cycles,
	})
}

// decodeTasksParam parses the tasks query value. A value that was
// percent-encoded twice by the client is decoded once more.
func decodeTasksParam(param string) (any, error) {
	var doc any
	err := json.Unmarshal([]byte(param), &doc)
	if err == nil {
		return doc, nil
	}
	unescaped, uerr := url.QueryUnescape(param)
	if uerr != nil || unescaped == param {
		return nil, err
	}
	if err := json.Unmarshal([]byte(unescaped), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	out := make([]strategyInfo, 0, len(scoring.Strategies()))
	for _, st := range scoring.Strategies() {
		w := scoring.WeightsFor(st, nil)
		out = append(out, strategyInfo{Name: st, Weights: w, Total: w.Sum()})
	}
	writeJSON(w, http.StatusOK, struct {
		Default    scoring.Strategy `json:"default"`
		Strategies []strategyInfo   `json:"strategies"`
	}{Default: s.opts.Strategy, Strategies: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) emit(kind string, res analyzer.Result) {
	err := s.opts.Telemetry.Emit(telemetry.Event{
		Kind:   kind,
		RunID:  res.RunID,
		Source: "http",
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

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
