package server

import "net/http"

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/tasks/analyze/{$}", s.handleAnalyze)
	mux.HandleFunc("POST /api/tasks/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/tasks/suggest/{$}", s.handleSuggest)
	mux.HandleFunc("GET /api/tasks/suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.opts.MCP != nil {
		mux.Handle("/mcp", s.opts.MCP)
	}

	return s.logMiddleware(s.corsMiddleware(mux))
}
