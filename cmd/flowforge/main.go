package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/flowforge/internal/cli"
	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/internal/modelfile"
)

// main is the entrypoint for the flowforge tool.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the tool's logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	s, err := modelfile.NewLoader().LoadFile(ctx, cfg.ModelPath)
	if err != nil {
		return err
	}
	logger.Info("Model built.", "path", cfg.ModelPath, "elements", s.Count())

	snapshot, err := s.Snapshot()
	if err != nil {
		return err
	}
	if cfg.Output == "-" {
		_, err = outW.Write(snapshot)
		return err
	}
	return os.WriteFile(cfg.Output, snapshot, 0o644)
}

// newLogger builds the configured slog logger writing to stderr.
func newLogger(cfg *cli.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
