// Package main provides the entry point for the dbmesh server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/txn2/dbmesh/internal/server"
	"github.com/txn2/dbmesh/pkg/platform"
)

const stopTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := newFlags()
	if err := flags.parse(args); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(stdout, "%s\n", ffhelp.Flags(flags.fs))
			return nil
		}
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *flags.version {
		fmt.Fprintf(stdout, "dbmesh version %s\n", server.Version)
		return nil
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	setupLogging(cfg, stderr)

	p, err := platform.New(platform.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating platform: %w", err)
	}

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}
	defer stopPlatform(p)

	slog.Info("dbmesh started",
		"version", server.Version,
		"transport", cfg.Server.Transport,
		"connectors", cfg.Connectors.Enabled)

	return serve(ctx, p)
}

// setupLogging installs a text handler on stderr. Stdout carries the stdio
// transport and must stay clean.
func setupLogging(cfg *platform.Config, w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()})
	slog.SetDefault(slog.New(handler))
}

func serve(ctx context.Context, p *platform.Platform) error {
	cfg := p.Config()
	switch cfg.Server.Transport {
	case platform.TransportStdio:
		return server.ServeStdio(ctx, p.MCPServer())
	case platform.TransportHTTP:
		handler := server.NewHTTPHandler(p.MCPServer(), cfg.Server.Path, p.Health())
		return server.ServeHTTP(ctx, cfg.Address(), handler)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Server.Transport)
	}
}

func stopPlatform(p *platform.Platform) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		slog.Warn("stopping platform", "error", err)
	}
}
