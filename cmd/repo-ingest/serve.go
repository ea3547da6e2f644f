package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/repo-ingest/internal/api"
	mcpserver "github.com/bull/repo-ingest/internal/mcp"
)

func newServeCmd(version string) *cobra.Command {
	var stdio bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ingestion HTTP API and MCP endpoint",
		Long: `Starts the HTTP server:

  POST /api/repo/process/:owner/:repo  ingest a repository (Authorization: Bearer <token>)
  GET  /health                         vector store health
  GET  /metrics                        Prometheus metrics
       /mcp                            MCP Streamable HTTP

With --stdio the MCP server also runs over stdin/stdout for local clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			// Create context that cancels on SIGTERM/SIGINT
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			mcp := mcpserver.NewServer(&mcpserver.Config{
				Service: a.pipeline,
				Version: version,
				Logger:  a.logger,
			})

			server := api.NewServer(a.pipeline, a.store, a.logger, &api.Config{
				Host: a.cfg.Server.Host,
				Port: a.cfg.Server.Port,
			})
			server.Mount("/mcp", mcpserver.NewHTTPHandler(mcp, &mcpserver.HTTPHandlerOptions{Stateless: true}))

			errCh := make(chan error, 2)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			if stdio {
				go func() {
					a.logger.Info("starting MCP server on stdio")
					errCh <- mcp.Run(ctx)
				}()
			}

			select {
			case <-ctx.Done():
			case err = <-errCh:
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancelShutdown()
			if serr := server.Shutdown(shutdownCtx); serr != nil {
				a.logger.Warn("http shutdown failed", "error", serr)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "also serve MCP over stdin/stdout")
	return cmd
}
