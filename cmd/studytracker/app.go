package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/catalog"
	"github.com/aristath/studytracker/internal/config"
	"github.com/aristath/studytracker/internal/engine"
	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/persistence"
	"github.com/aristath/studytracker/internal/recorder"
)

// app holds the wired components for one process.
type app struct {
	db       *persistence.SQLiteStore
	bus      *events.EventBus
	engine   *engine.Engine
	catalog  *catalog.Catalog
	recorder *recorder.Recorder
	log      *zap.Logger
	now      time.Time // start time, anchors seeded deadlines
}

// newApp opens the database, restores saved state and seeds an empty
// database when configured to. The recorder is subscribed before any
// engine mutation so seeding is persisted once the recorder runs.
func newApp(ctx context.Context, cfg *config.TrackerConfig, log *zap.Logger, now time.Time) (*app, error) {
	db, err := openStore(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus()
	eng := engine.New(
		engine.WithEventBus(bus),
		engine.WithLogger(log.Named("engine")),
		engine.WithHistoryLimit(cfg.History.Limit),
	)
	a := &app{
		db:     db,
		bus:    bus,
		engine: eng,
		catalog: catalog.New(
			catalog.WithSink(db),
			catalog.WithLogger(log.Named("catalog")),
		),
		recorder: recorder.New(bus, db, recorder.FromConfig(cfg.Recorder), log.Named("recorder"),
			recorder.WithSnapshot(eng)),
		log: log,
		now: now,
	}

	if err := a.restore(ctx, cfg.SeedOnEmpty, now); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, path string) (*persistence.SQLiteStore, error) {
	if path == "" || path == ":memory:" {
		return persistence.NewMemoryStore(ctx)
	}
	return persistence.NewSQLiteStore(ctx, path)
}

func (a *app) restore(ctx context.Context, seedOnEmpty bool, now time.Time) error {
	subjects, err := a.db.LoadSubjects(ctx)
	if err != nil {
		return fmt.Errorf("loading subjects: %w", err)
	}
	switch {
	case len(subjects) > 0:
		if err := a.engine.Load(ctx, subjects); err != nil {
			return fmt.Errorf("restoring subjects: %w", err)
		}
	case seedOnEmpty:
		if err := a.engine.Seed(ctx, now); err != nil {
			return fmt.Errorf("seeding subjects: %w", err)
		}
	}

	resumes, err := a.db.ListResumes(ctx)
	if err != nil {
		return fmt.Errorf("loading resumes: %w", err)
	}
	internships, err := a.db.ListInternships(ctx)
	if err != nil {
		return fmt.Errorf("loading internships: %w", err)
	}
	a.catalog.Restore(resumes, internships)
	if seedOnEmpty {
		if err := a.catalog.Seed(ctx); err != nil {
			return fmt.Errorf("seeding internships: %w", err)
		}
	}

	a.log.Info("state restored",
		zap.Int("subjects", len(a.engine.Subjects())),
		zap.Int("resumes", len(resumes)),
		zap.Int("internships", len(a.catalog.Internships())))
	return nil
}

// Close releases the database. The bus is closed by whoever ends the run.
func (a *app) Close() error {
	return a.db.Close()
}
