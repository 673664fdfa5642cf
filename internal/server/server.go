// Package server exposes analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/snapshot"
	"github.com/papapumpkin/sextant/internal/telemetry"
)

// maxBodyBytes bounds request bodies for analyze.
const maxBodyBytes = 4 << 20

// Options configures a Server. Zero values fall back to sensible defaults.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Strategy applies when a request does not name one.
	Strategy scoring.Strategy
	// Weights applies under smart when a request carries no weights.
	Weights      *scoring.Weights
	SuggestLimit int
	Strict       bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger    *slog.Logger
	Telemetry *telemetry.Emitter
	// Store holds the latest analysis. A fresh store is created when nil.
	Store *snapshot.Store
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
	// Today fixes the scoring reference date. Zero means the current date.
	Today time.Time
}

// Server is the HTTP API. It shares a snapshot store with any mounted MCP
// handler.
type Server struct {
	opts    Options
	store   *snapshot.Store
	log     *slog.Logger
	origins map[string]struct{}
	handler http.Handler
	server  *http.Server
}

// New builds a Server and its routes. It does not start listening.
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
		opts:    opts,
		store:   store,
		log:     opts.Logger,
		origins: make(map[string]struct{}, len(opts.AllowedOrigins)),
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[o] = struct{}{}
	}
	s.handler = s.registerRoutes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the snapshot store backing suggestions.
func (s *Server) Store() *snapshot.Store {
	return s.store
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: serve: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errCh
}
