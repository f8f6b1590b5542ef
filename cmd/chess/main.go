// Package main is an interactive console over the engine protocol with line
// editing, history and a colored board when attached to a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"chessengine/internal/cli"
	"chessengine/internal/engine"
	"chessengine/internal/logging"
	clitransport "chessengine/internal/transport/cli"

	"github.com/chzyer/readline"
)

func main() {
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	theme := flag.String("theme", "brown", "Board colors when on a terminal (off, brown, green, gray)")
	historyFile := flag.String("history", defaultHistoryFile(), "Command history file")
	flag.Parse()

	logger, err := logging.Stderr(*logLevel)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chess> ",
		HistoryFile:     *historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	view := cli.NewWithSource(consoleSource{rl: rl}, rl.Stdout())
	if logging.IsTerminal(os.Stdout) {
		if err := view.SetTheme(cli.ColorTheme(*theme)); err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.WithLogger(logger))
	handler := clitransport.New(eng, view, logger)

	view.ShowMessage("Chess engine console. Type 'help' for commands.")
	if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// consoleSource turns ^C into an empty line instead of ending the session
type consoleSource struct {
	rl *readline.Instance
}

func (s consoleSource) Readline() (string, error) {
	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chess_history"
	}
	return filepath.Join(home, ".chess_history")
}
