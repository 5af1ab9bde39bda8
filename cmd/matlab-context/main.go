package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/codelens/matlab-context-mcp/internal/config"
	"github.com/codelens/matlab-context-mcp/internal/mcp"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// stdout carries the MCP protocol; everything else goes to stderr
	log.SetOutput(os.Stderr)

	app := &cli.App{
		Name:    "matlab-context",
		Usage:   "MATLAB code intelligence server for AI assistants",
		Version: fmt.Sprintf("%s (built %s)", version, buildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (defaults to .mcontext.toml in the root)",
			},
			&cli.IntFlag{
				Name:  "debounce-ms",
				Usage: "Diagnostics debounce window in milliseconds (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "index",
				Usage: "Scan and index the workspace before serving",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Watch the workspace for file changes",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

func run(c *cli.Context) error {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return fmt.Errorf("failed to resolve root path %q: %w", c.String("root"), err)
	}

	var cfg *config.Config
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path, root)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if ms := c.Int("debounce-ms"); ms > 0 {
		cfg.Diagnostics.DebounceMs = ms
	}

	log.Printf("matlab-context v%s starting, workspace %s", version, root)

	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.Bool("index") {
		stats, err := srv.Engine().IndexWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("failed to index workspace: %w", err)
		}
		log.Printf("Indexed %d files in %s (%d skipped, %d failed)",
			stats.FilesScanned, stats.Duration, stats.FilesSkipped, stats.FilesFailed)
	}

	if c.Bool("watch") {
		if err := srv.Engine().Watch(); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		log.Printf("Watching %s for changes", root)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
