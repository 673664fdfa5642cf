// Package mcpserver exposes analysis as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/snapshot"
	"github.com/papapumpkin/sextant/internal/telemetry"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// Options configures the tool defaults.
type Options struct {
	Strategy     scoring.Strategy
	Weights      *scoring.Weights
	SuggestLimit int
	Strict       bool
	// Store is shared with other surfaces so suggestions can reuse the
	// latest analysis. A fresh store is created when nil.
	Store     *snapshot.Store
	Telemetry *telemetry.Emitter
	Logger    *slog.Logger
	Today     time.Time
}

// Server is the sextant MCP server.
type Server struct {
	opts  Options
	store *snapshot.Store
	log   *slog.Logger
	mcp   *mcp.Server
}

// New creates a server with analyze_tasks, suggest_tasks and
// list_strategies registered.
func New(opts Options) *Server {
	if opts.Strategy == "" {
		opts.Strategy = scoring.Smart
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = &snapshot.Store{}
	}

	s := &Server{
		opts:  opts,
		store: store,
		log:   opts.Logger,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "sextant",
				Version: Version,
			},
			nil,
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// RunStdio serves a single client over stdin/stdout until ctx is cancelled
// or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the tools over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}
