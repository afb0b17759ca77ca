package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/pkg/adapters/mcp"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Binds a simulated view and exposes the host as MCP tools: render_document,
current_document, execute_commands, go_back and get_backstack.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		h, err := newHost(cfg, logger, viewhost.WithLifecycleHooks(logHooks(logger)))
		if err != nil {
			return err
		}
		defer h.Close()

		view, _ := cmd.Flags().GetString("view")
		h.vh.Bind(sim.NewView(view))

		srv := mcp.NewServer(h.vh, mcp.WithLogger(logger))

		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			logger.Info("starting viewhost MCP server (stdio)", "view", view)
			return srv.ServeStdio()
		case "sse":
			addr, _ := cmd.Flags().GetString("addr")
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mcp server: %w", err)
			}
			logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Listen address (only for SSE)")
	mcpCmd.Flags().String("view", "main", "Name of the simulated view")
}
