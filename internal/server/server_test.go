package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/sextant/internal/scoring"
)

var refDay = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Options{
		AllowedOrigins: []string{"http://localhost:5500"},
		SuggestLimit:   3,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Today:          refDay,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const batchJSON = `[
  {"id": "A", "title": "Quick fix", "due_date": "2025-03-02", "estimated_hours": 0.5, "importance": 6},
  {"id": "B", "title": "Big feature", "due_date": "2025-03-11", "estimated_hours": 8, "importance": 9}
]`

func TestAnalyze_BareArray(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", batchJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "smart", body["strategy"])
	assert.Equal(t, []any{}, body["cycles"])
	assert.Equal(t, []any{}, body["errors"])

	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 2)
	first := tasks[0].(map[string]any)
	assert.Equal(t, "A", first["id"])
	assert.Contains(t, first, "explanation")
	assert.Equal(t, "2025-03-02", first["due_date"])
}

func TestAnalyze_ObjectPayload(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload := `{"strategy": "impact", "tasks": ` + batchJSON + `}`
	rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "impact", body["strategy"])
	first := body["tasks"].([]any)[0].(map[string]any)
	assert.Equal(t, "B", first["id"], "impact should rank the important task first")
}

func TestAnalyze_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty body", "", "No tasks provided. Provide JSON array or {'tasks': [...]}."},
		{"object without tasks", `{"strategy": "smart"}`, "No tasks provided. Provide JSON array or {'tasks': [...]}."},
		{"malformed json", `[{"title": `, "Invalid JSON body"},
		{"tasks not a list", `{"tasks": "nope"}`, "Invalid task format"},
		{"weight out of range", `{"tasks": [], "weights": {"urgency": 2}}`, "Invalid weights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t)
			rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["error"])
		})
	}
}

func TestAnalyze_PartialFailureAndCycles(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload := `{"tasks": [
		{"id": "x", "title": "X", "dependencies": ["y"]},
		{"id": "y", "title": "Y", "dependencies": "x", "due_date": "tomorrow"},
		{"importance": 5}
	]}`
	rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, []any{[]any{"x", "y", "x"}}, body["cycles"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "due_date")
	assert.Equal(t, "Task at index 2 missing title.", errs[1])

	for _, raw := range body["tasks"].([]any) {
		task := raw.(map[string]any)
		assert.Equal(t, map[string]any{"circular_dependency": true}, task["meta"])
	}
}

func TestSuggest_FromQuery(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	target := "/api/tasks/suggest/?strategy=fastest&tasks=" + url.QueryEscape(batchJSON)
	rec := do(t, srv.Handler(), http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 2)
	first := tasks[0].(map[string]any)
	assert.Equal(t, "A", first["id"])
	assert.Equal(t, "Urgent due date; Quick win (low effort)", first["why"])

	_, err := srv.Store().Latest()
	assert.Error(t, err, "suggest must not replace the stored analysis")
}

func TestSuggest_DoubleEncodedQuery(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	target := "/api/tasks/suggest/?tasks=" + url.QueryEscape(url.QueryEscape(batchJSON))
	rec := do(t, srv.Handler(), http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["tasks"], 2)
}

func TestSuggest_FromSnapshot(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/tasks/suggest/", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "no previous analysis available")

	rec = do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", batchJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/tasks/suggest?strategy=deadline&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Selected by previous analysis (strategy=deadline).", tasks[0].(map[string]any)["why"])
	assert.NotContains(t, body, "cycles")
}

func TestSuggest_EmptySnapshot(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", batchJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv.Handler(), http.MethodPost, "/api/tasks/analyze/", `[{"id": "untitled"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["tasks"])

	rec = do(t, srv.Handler(), http.MethodGet, "/api/tasks/suggest/", "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, msgNoPrevious, decode(t, rec)["error"])
}

func TestSuggest_BadInput(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/tasks/suggest/?tasks=%5Bnot-json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to parse tasks query param as JSON", decode(t, rec)["error"])

	rec = do(t, srv.Handler(), http.MethodGet, "/api/tasks/suggest/?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrategiesAndHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "smart", body["default"])
	require.Len(t, body["strategies"], len(scoring.Strategies()))
	for _, st := range body["strategies"].([]any) {
		assert.Equal(t, 1.0, st.(map[string]any)["total"])
	}

	rec = do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestCORS(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/analyze/", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5500", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tasks/analyze/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/tasks/analyze/", bytes.NewBufferString(batchJSON))
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
