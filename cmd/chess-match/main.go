// Package main plays this engine against an external UCI engine and
// reports the match score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessengine/internal/engine"
	"chessengine/internal/logging"
	"chessengine/internal/match"
)

func main() {
	var (
		enginePath = flag.String("engine", "", "Path to an external UCI engine binary (required)")
		games      = flag.Int("games", 2, "Number of games, alternating colors")
		moveTime   = flag.Duration("movetime", 100*time.Millisecond, "External engine time per move")
		budget     = flag.Duration("budget", time.Second, "Own engine time per move")
		depth      = flag.Int("depth", 0, "Own engine depth limit (0 for none)")
		maxPlies   = flag.Int("max-plies", 200, "Adjudicate a draw after this many plies")
		startFEN   = flag.String("fen", "", "Start position (standard layout if empty)")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	if err := run(*enginePath, *games, *moveTime, *budget, *depth, *maxPlies, *startFEN, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Match error: %v\n", err)
		os.Exit(1)
	}
}

func run(enginePath string, games int, moveTime, budget time.Duration, depth, maxPlies int, startFEN, logLevel string) error {
	if enginePath == "" {
		return fmt.Errorf("-engine is required")
	}

	logger, err := logging.Stderr(logLevel)
	if err != nil {
		return err
	}

	opp, err := match.NewUCIPlayer(enginePath, moveTime)
	if err != nil {
		return err
	}
	defer opp.Close()

	own := match.NewEnginePlayer(
		engine.New(engine.WithLogger(logger.With().Str("component", "engine").Logger())),
		engine.Limits{Budget: budget, MaxDepth: depth},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	score, err := match.Run(ctx, own, opp, match.Config{
		Games:    games,
		MaxPlies: maxPlies,
		StartFEN: startFEN,
	}, logger)
	fmt.Printf("%s vs %s: %s (%d games)\n", own.Name(), opp.Name(), score, score.Games())
	return err
}
