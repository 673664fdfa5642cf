package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/sextant/internal/snapshot"
	"github.com/papapumpkin/sextant/internal/ui"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server",
	Long: `Exposes analyze_tasks, suggest_tasks and list_strategies to MCP clients.

By default the server speaks over stdin/stdout. With --http it serves the
streamable HTTP transport on the given address instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	printer := ui.NewWriter(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	emitter, err := openTelemetry(cfg)
	if err != nil {
		return err
	}
	defer emitter.Close()

	srv := newMCPServer(cfg, &snapshot.Store{}, emitter)
	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	addr, _ := cmd.Flags().GetString("http")
	if addr == "" {
		return srv.RunStdio(ctx)
	}

	hs := &http.Server{Addr: addr, Handler: srv.HTTPHandler()}
	errCh := make(chan error, 1)
	go func() {
		printer.Info(fmt.Sprintf("mcp: listening on %s", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := hs.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("mcp: shutdown: %w", err)
	}
	return <-errCh
}
