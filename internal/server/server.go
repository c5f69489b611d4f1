// Package server adapts connectors to the MCP server framework and serves it
// over stdio or streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// NewMCPServer creates the MCP server advertised to clients.
func NewMCPServer(name string, logger *slog.Logger) *mcp.Server {
	return mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: Version,
	}, &mcp.ServerOptions{
		Logger: logger,
	})
}

// ServeStdio serves srv over stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, srv *mcp.Server) error {
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

// ServeHTTP listens on addr and serves handler until ctx is done, then shuts
// down gracefully.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "address", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
