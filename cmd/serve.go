package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/sextant/internal/config"
	"github.com/papapumpkin/sextant/internal/mcpserver"
	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/server"
	"github.com/papapumpkin/sextant/internal/snapshot"
	"github.com/papapumpkin/sextant/internal/telemetry"
	"github.com/papapumpkin/sextant/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prioritization API over HTTP",
	Long: `Starts the HTTP API:

  POST /api/tasks/analyze/   score a batch and remember the result
  GET  /api/tasks/suggest/   top tasks for ?tasks=... or the last analysis
  GET  /api/strategies       built-in weight profiles
  GET  /healthz              liveness

With --mcp the MCP tools are also served at /mcp over streamable HTTP and
share the last analysis with the REST API.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools at /mcp")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	printer := ui.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	emitter, err := openTelemetry(cfg)
	if err != nil {
		return err
	}
	defer emitter.Close()

	store := &snapshot.Store{}
	opts := server.Options{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Strategy:       scoring.Strategy(cfg.Strategy),
		Weights:        cfg.ScoringWeights(),
		SuggestLimit:   cfg.SuggestLimit,
		Strict:         cfg.Strict,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		Logger:         logger,
		Telemetry:      emitter,
		Store:          store,
	}
	if withMCP, _ := cmd.Flags().GetBool("mcp"); withMCP {
		opts.MCP = newMCPServer(cfg, store, emitter).HTTPHandler()
	}

	ctx, cancel := setupSignalContext(printer)
	defer cancel()
	return server.New(opts).ListenAndServe(ctx)
}

// newMCPServer builds the MCP tool server from configuration.
func newMCPServer(cfg config.Config, store *snapshot.Store, emitter *telemetry.Emitter) *mcpserver.Server {
	return mcpserver.New(mcpserver.Options{
		Strategy:     scoring.Strategy(cfg.Strategy),
		Weights:      cfg.ScoringWeights(),
		SuggestLimit: cfg.SuggestLimit,
		Strict:       cfg.Strict,
		Store:        store,
		Telemetry:    emitter,
		Logger:       newLogger(os.Stderr, cfg.Log),
	})
}

// openTelemetry opens the configured event file. It returns a nil emitter,
// which discards events, when no path is configured.
func openTelemetry(cfg config.Config) (*telemetry.Emitter, error) {
	if cfg.TelemetryPath == "" {
		return nil, nil
	}
	em, err := telemetry.NewEmitter(cfg.TelemetryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry: %w", err)
	}
	return em, nil
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
