// Package recorder persists committed engine changes by following the event
// bus. Writes are retried with exponential backoff and guarded by a circuit
// breaker so a failing database is not hammered.
//
// A write that is given up on, or an event the bus dropped, marks the
// database dirty. While dirty, the recorder rewrites the whole coursework
// snapshot through ReplaceAll as soon as the circuit lets a write through.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/config"
	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Writer is the subset of persistence the recorder needs.
type Writer interface {
	SaveSubject(ctx context.Context, code, name, description string) error
	SaveTask(ctx context.Context, subjectCode string, position int, task workflow.Task) error
	UpdateTaskState(ctx context.Context, taskID string, state workflow.TaskState, marks int) error
	UpdateTaskMarks(ctx context.Context, taskID string, marks int) error
	ReplaceAll(ctx context.Context, subjects []store.Subject) error
}

// Snapshotter supplies the authoritative coursework used to resync the
// database after lost writes.
type Snapshotter interface {
	Subjects() []store.Subject
}

// RetryConfig configures exponential backoff retry behavior.
type RetryConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// BreakerConfig configures the circuit guarding the writer.
type BreakerConfig struct {
	MaxRequests         uint32        // Probes allowed while half-open
	Timeout             time.Duration // Time spent open before probing
	ConsecutiveFailures uint32        // Failures that trip the circuit
}

// Config holds the recorder settings.
type Config struct {
	Buffer  int
	Retry   RetryConfig
	Breaker BreakerConfig
}

// FromConfig converts the file configuration.
func FromConfig(c config.RecorderConfig) Config {
	return Config{
		Buffer: c.Buffer,
		Retry: RetryConfig{
			InitialInterval:     c.Retry.InitialInterval.Std(),
			MaxInterval:         c.Retry.MaxInterval.Std(),
			MaxElapsedTime:      c.Retry.MaxElapsedTime.Std(),
			Multiplier:          c.Retry.Multiplier,
			RandomizationFactor: c.Retry.RandomizationFactor,
		},
		Breaker: BreakerConfig{
			MaxRequests:         c.Breaker.MaxRequests,
			Timeout:             c.Breaker.Timeout.Std(),
			ConsecutiveFailures: c.Breaker.ConsecutiveFailures,
		},
	}
}

// Recorder subscribes on construction, so no event published after New
// returns is missed even if Run starts later.
type Recorder struct {
	bus      *events.EventBus
	events   <-chan events.Event
	writer   Writer
	snapshot Snapshotter
	cb       *gobreaker.CircuitBreaker
	retry    RetryConfig
	log      *zap.Logger

	// Owned by the Run goroutine.
	dirty       bool
	seenDropped uint64

	written atomic.Uint64
	failed  atomic.Uint64
	resyncs atomic.Uint64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSnapshot enables resyncing from s after lost writes. Without it the
// recorder can only log the loss.
func WithSnapshot(s Snapshotter) Option {
	return func(r *Recorder) { r.snapshot = s }
}

// New subscribes to every topic on bus.
func New(bus *events.EventBus, w Writer, cfg Config, log *zap.Logger, opts ...Option) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		bus:    bus,
		events: bus.SubscribeAll(cfg.Buffer),
		writer: w,
		retry:  cfg.Retry,
		log:    log,
	}
	r.seenDropped = bus.Dropped()
	r.cb = newBreaker(cfg.Breaker, log)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newBreaker(cfg BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	trip := cfg.ConsecutiveFailures
	if trip == 0 {
		trip = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "persistence",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
		IsSuccessful: func(err error) bool {
			// Cancellation and missing rows say nothing about database health.
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, workflow.ErrNotFound)
		},
	})
}

// Run writes events until the bus is closed or ctx is done. Events already
// buffered when the bus closes are still written, followed by a final
// resync if the database is still dirty.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-r.events:
			if !ok {
				r.noteDrops()
				if r.dirty {
					r.resync(ctx, r.writeWithRetry)
				}
				return nil
			}
			r.record(ctx, ev)
		}
	}
}

// Written returns the number of events persisted.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Failed returns the number of events given up on.
func (r *Recorder) Failed() uint64 { return r.failed.Load() }

// Resyncs returns the number of full snapshots written after lost writes.
func (r *Recorder) Resyncs() uint64 { return r.resyncs.Load() }

func (r *Recorder) record(ctx context.Context, ev events.Event) {
	r.noteDrops()

	if op := r.operation(ev); op != nil {
		if err := r.writeWithRetry(ctx, op); err != nil {
			r.failed.Add(1)
			r.markDirty("write failed")
			r.log.Error("failed to persist event",
				zap.String("event", ev.EventType()),
				zap.String("subject", ev.SubjectCode()),
				zap.Error(err))
		} else {
			r.written.Add(1)
			r.log.Debug("event persisted",
				zap.String("event", ev.EventType()),
				zap.String("subject", ev.SubjectCode()))
		}
	}

	// One probe per event while dirty; the full retry policy is kept for
	// the final resync when the bus closes.
	if r.dirty && r.cb.State() != gobreaker.StateOpen {
		r.resync(ctx, r.writeOnce)
	}
}

// noteDrops marks the database dirty when the bus has dropped deliveries
// since the last check. The counter is bus-wide, so a drop on another
// subscriber also triggers a resync.
func (r *Recorder) noteDrops() {
	if d := r.bus.Dropped(); d > r.seenDropped {
		r.seenDropped = d
		r.markDirty("events dropped")
	}
}

func (r *Recorder) markDirty(reason string) {
	if r.snapshot == nil || r.dirty {
		return
	}
	r.dirty = true
	r.log.Warn("database out of sync with engine", zap.String("reason", reason))
}

// resync replaces the stored coursework with the current snapshot.
func (r *Recorder) resync(ctx context.Context, write func(context.Context, func(context.Context) error) error) {
	subjects := r.snapshot.Subjects()
	err := write(ctx, func(ctx context.Context) error {
		return r.writer.ReplaceAll(ctx, subjects)
	})
	if err != nil {
		r.log.Warn("resync failed, will retry", zap.Error(err))
		return
	}
	r.dirty = false
	r.resyncs.Add(1)
	r.log.Info("database resynced from engine snapshot", zap.Int("subjects", len(subjects)))
}

func (r *Recorder) operation(ev events.Event) func(context.Context) error {
	switch e := ev.(type) {
	case events.SubjectCreatedEvent:
		return func(ctx context.Context) error {
			return r.writer.SaveSubject(ctx, e.Code, e.Name, e.Description)
		}
	case events.TaskCreatedEvent:
		return func(ctx context.Context) error {
			return r.writer.SaveTask(ctx, e.Subject, e.Index, e.Task)
		}
	case events.TaskStateChangedEvent:
		return func(ctx context.Context) error {
			return r.writer.UpdateTaskState(ctx, e.TaskID, e.To, e.Marks)
		}
	case events.TaskMarksChangedEvent:
		return func(ctx context.Context) error {
			return r.writer.UpdateTaskMarks(ctx, e.TaskID, e.Marks)
		}
	case events.CommandUndoneEvent:
		return func(ctx context.Context) error {
			return r.writer.UpdateTaskState(ctx, e.TaskID, e.Restored, e.Marks)
		}
	case events.StoreResetEvent:
		return func(ctx context.Context) error {
			return r.writer.ReplaceAll(ctx, e.Subjects)
		}
	default:
		r.log.Warn("ignoring unknown event", zap.String("event", fmt.Sprintf("%T", ev)))
		return nil
	}
}

// writeOnce runs op through the circuit breaker without retrying.
func (r *Recorder) writeOnce(ctx context.Context, op func(context.Context) error) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, op(ctx)
	})
	return err
}

// writeWithRetry runs op with exponential backoff retry and circuit breaker protection.
func (r *Recorder) writeWithRetry(ctx context.Context, op func(context.Context) error) error {
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		_, err := r.cb.Execute(func() (interface{}, error) {
			return nil, op(ctx)
		})
		if err == nil {
			return nil
		}

		// Open circuit, missing rows and cancellation are not worth retrying.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
			errors.Is(err, workflow.ErrNotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retry.InitialInterval
	policy.MaxInterval = r.retry.MaxInterval
	policy.MaxElapsedTime = r.retry.MaxElapsedTime
	policy.Multiplier = r.retry.Multiplier
	policy.RandomizationFactor = r.retry.RandomizationFactor

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
