// Package main runs the analysis API server: engine sessions and one-shot
// analysis over HTTP, with optional SQLite persistence and bearer auth.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessengine/cmd/chess-server/cli"
	"chessengine/internal/engine"
	"chessengine/internal/logging"
	"chessengine/internal/processor"
	"chessengine/internal/service"
	"chessengine/internal/storage"
	"chessengine/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 {
		var run func([]string) error
		switch os.Args[1] {
		case "db":
			run = cli.RunDB
		case "token":
			run = cli.RunToken
		}
		if run != nil {
			if err := run(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL journal)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		workers     = flag.Int("workers", 2, "Engine workers for one-shot analysis")
		startDepth  = flag.Int("start-depth", 1, "First iterative deepening depth")
		budget      = flag.Duration("budget", service.DefaultBudget, "Search time when a request sets no limits")
		maxBudget   = flag.Duration("max-budget", service.MaxBudget, "Longest time any single search may run")
		jwtSecret   = flag.String("jwt-secret", os.Getenv("CHESSENGINE_JWT_SECRET"), "HS256 secret for bearer auth (disabled if empty)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		pidPath     = flag.String("pid", "", "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	logger, err := logging.Stderr(*logLevel)
	if err != nil {
		return err
	}
	if err := cli.CheckSecret(*jwtSecret); err != nil {
		return err
	}
	if *pidLock && *pidPath == "" {
		return errors.New("-pid-lock requires -pid")
	}

	if *pidPath != "" {
		pid, err := acquirePIDFile(*pidPath, *pidLock)
		if err != nil {
			return fmt.Errorf("failed to manage PID file: %w", err)
		}
		defer pid.Release()
		logger.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("pid file created")
	}

	var store *storage.Store
	if *storagePath != "" {
		store, err = storage.NewStore(*storagePath, *dev, logger.With().Str("component", "storage").Logger())
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Info().Str("path", *storagePath).Msg("persistent storage enabled")
	} else {
		logger.Info().Msg("persistent storage disabled")
	}

	queue := processor.NewEngineQueue(*workers, logger.With().Str("component", "queue").Logger())

	opts := []service.Option{
		service.WithQueue(queue),
		service.WithLogger(logger.With().Str("component", "service").Logger()),
		service.WithDefaultBudget(*budget),
		service.WithMaxBudget(*maxBudget),
		service.WithEngineOptions(engine.WithStartDepth(*startDepth)),
	}
	if store != nil {
		opts = append(opts, service.WithStore(store))
	}
	svc := service.New(opts...)

	app := http.NewFiberApp(svc, http.Config{
		DevMode:   *dev,
		Secret:    []byte(*jwtSecret),
		AccessLog: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", "http://"+apiAddr).
			Bool("auth", *jwtSecret != "").
			Bool("dev", *dev).
			Int("workers", *workers).
			Msg("api server starting")
		return app.Listen(apiAddr)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := queue.Shutdown(gracefulShutdownTimeout); err != nil {
			errs = append(errs, err)
		}
		if err := svc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("service close: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server exited")
	return nil
}
