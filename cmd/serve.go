package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	mcpserver "github.com/fitz/gameplan/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Start the Model Context Protocol (MCP) server that lets AI agents read
and edit Game Plans.

By default the server speaks JSON-RPC over stdio, which is how agents launch
it. Use --http to serve the streamable HTTP transport instead.

With --user, tools that do not name a user act on that user, and the user's
loaded plan is refreshed whenever another process changes their data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		httpAddr, _ := cmd.Flags().GetString("http")
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if user != "" {
			go func() {
				err := a.plans.Session(user).Watch(ctx, a.bus)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("watch failed", "user_id", user, "error", err)
				}
			}()
		}

		server := mcpserver.NewServer(a.plans, user, logger)

		if httpAddr != "" {
			httpServer := &http.Server{
				Addr:              httpAddr,
				Handler:           server.HTTPHandler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			logger.Info("starting HTTP server", "addr", httpAddr)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("server stopped")
			return nil
		}

		logger.Info("starting MCP server on stdio")
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("http", "", "Serve HTTP on this address (e.g. :8080) instead of stdio")
}
