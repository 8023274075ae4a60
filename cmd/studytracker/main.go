package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/studytracker/internal/config"
	"github.com/aristath/studytracker/internal/logger"
	"github.com/aristath/studytracker/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	globalPath := filepath.Join(homeDir, ".studytracker", "config.json")
	projectPath := filepath.Join(".studytracker", "config.json")

	log, closeLog, err := logger.Build(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer closeLog()

	a, err := newApp(ctx, cfg, log, time.Now())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(os.Args) > 1 {
		// Drain the recorder so startup seeding and coursework commands are
		// persisted before exiting.
		err := runCommand(ctx, a, os.Args[1:], os.Stdout)
		a.bus.Close()
		if rerr := a.recorder.Run(context.WithoutCancel(ctx)); err == nil {
			err = rerr
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// The recorder outlives cancellation so it can drain buffered events;
	// it stops once the dashboard closes the bus.
	g.Go(func() error {
		return a.recorder.Run(context.WithoutCancel(gctx))
	})

	g.Go(func() error {
		defer a.bus.Close()

		model := tui.New(gctx, a.engine, a.bus, cfg, globalPath, projectPath)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			log.Info("shutdown signal received")
			return nil
		}
		return err
	})

	err = g.Wait()
	log.Info("shutdown complete",
		zap.Uint64("events_written", a.recorder.Written()),
		zap.Uint64("events_failed", a.recorder.Failed()),
		zap.Uint64("resyncs", a.recorder.Resyncs()),
		zap.Uint64("events_dropped", a.bus.Dropped()))
	return err
}
