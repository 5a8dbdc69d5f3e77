package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/scan-slicer/internal/config"
	"github.com/ironsheep/scan-slicer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("scan-slicer-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("scan-slicer-mcp - MCP server for tuning the scan slicer")
			fmt.Println()
			fmt.Println("Usage: scan-slicer-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SCAN_SLICER_LOG_LEVEL=debug  Enable debug logging")
			fmt.Println("  SCAN_SLICER_CONFIG=FILE      Start from this config file")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Logging goes to stderr; stdout is for the MCP protocol.
	level := slog.LevelInfo
	if os.Getenv("SCAN_SLICER_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("scan slicer MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)

	path := os.Getenv("SCAN_SLICER_CONFIG")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			logger.Error("locate config", "error", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("load config", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
