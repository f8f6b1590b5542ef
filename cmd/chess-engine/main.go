// Package main runs the engine as a line-protocol process: commands on
// stdin, protocol output on stdout, logs on stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessengine/internal/cli"
	"chessengine/internal/engine"
	"chessengine/internal/logging"
	clitransport "chessengine/internal/transport/cli"
)

func main() {
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	startDepth := flag.Int("start-depth", 1, "First iterative deepening depth")
	budget := flag.Duration("budget", clitransport.DefaultBudget, "Search time when go has no clock")
	flag.Parse()

	logger, err := logging.Stderr(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(
		engine.WithLogger(logger.With().Str("component", "engine").Logger()),
		engine.WithStartDepth(*startDepth),
	)
	view := cli.New(os.Stdin, os.Stdout)
	handler := clitransport.New(eng, view, logger)
	handler.SetDefaultBudget(*budget)

	start := time.Now()
	logger.Info().Msg("engine ready")
	if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("protocol loop failed")
		os.Exit(1)
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("engine stopped")
}
