// Package catalog keeps the career records that sit next to coursework:
// resumes written in Markdown and internship placements.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/workflow"
)

// Resume is a Markdown document with its rendered HTML.
type Resume struct {
	ID        string
	Title     string
	Markdown  string
	HTML      string
	CreatedAt time.Time
}

// InternshipStatus is the lifecycle of a placement.
type InternshipStatus int

const (
	InternshipPending InternshipStatus = iota
	InternshipStarted
	InternshipEnded
	InternshipCancelled
)

// StatusFromInt maps a stored integer to a status. Unknown values are
// treated as Pending.
func StatusFromInt(v int) InternshipStatus {
	s := InternshipStatus(v)
	if s < InternshipPending || s > InternshipCancelled {
		return InternshipPending
	}
	return s
}

func (s InternshipStatus) String() string {
	switch s {
	case InternshipStarted:
		return "Started"
	case InternshipEnded:
		return "Ended"
	case InternshipCancelled:
		return "Cancelled"
	default:
		return "Pending"
	}
}

// Internship is a work placement.
type Internship struct {
	ID        string
	Company   string
	Position  string
	Status    InternshipStatus
	StartDate string
	EndDate   string
}

// Sink persists newly created records.
type Sink interface {
	SaveResume(ctx context.Context, r Resume) error
	SaveInternship(ctx context.Context, in Internship) error
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	resumes     []Resume
	internships []Internship
	ids         map[string]bool

	md   goldmark.Markdown
	sink Sink
	log  *zap.Logger
	now  func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSink persists every created record through s.
func WithSink(s Sink) Option {
	return func(c *Catalog) { c.sink = s }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		ids: make(map[string]bool),
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore replaces the catalog contents with previously persisted records
// without writing them back to the sink.
func (c *Catalog) Restore(resumes []Resume, internships []Internship) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resumes = append([]Resume(nil), resumes...)
	c.internships = append([]Internship(nil), internships...)
	c.ids = make(map[string]bool, len(resumes)+len(internships))
	for _, r := range resumes {
		c.ids[r.ID] = true
	}
	for _, in := range internships {
		c.ids[in.ID] = true
	}
}

// CreateResume renders markdown and stores it under a new resume_N id. The
// record only becomes visible once the sink has accepted it.
func (c *Catalog) CreateResume(ctx context.Context, title, markdown string) (Resume, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Resume{}, fmt.Errorf("resume title is required: %w", workflow.ErrInvalidInput)
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		return Resume{}, fmt.Errorf("rendering resume %q: %w", title, err)
	}

	c.mu.Lock()
	r := Resume{
		ID:        c.nextID("resume", len(c.resumes)),
		Title:     title,
		Markdown:  markdown,
		HTML:      buf.String(),
		CreatedAt: c.now(),
	}
	c.mu.Unlock()

	if err := c.persist(r.ID, func(s Sink) error { return s.SaveResume(ctx, r) }); err != nil {
		return Resume{}, fmt.Errorf("persisting resume %s: %w", r.ID, err)
	}

	c.mu.Lock()
	c.resumes = append(c.resumes, r)
	c.mu.Unlock()

	c.log.Info("resume created", zap.String("id", r.ID), zap.String("title", title))
	return r, nil
}

// CreateInternship stores a placement under a new internship_N id.
func (c *Catalog) CreateInternship(ctx context.Context, in Internship) (Internship, error) {
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	if in.Company == "" || in.Position == "" || in.StartDate == "" || in.EndDate == "" {
		return Internship{}, fmt.Errorf("company, position and dates are required: %w", workflow.ErrInvalidInput)
	}
	in.Status = StatusFromInt(int(in.Status))

	c.mu.Lock()
	in.ID = c.nextID("internship", len(c.internships))
	c.mu.Unlock()

	if err := c.persist(in.ID, func(s Sink) error { return s.SaveInternship(ctx, in) }); err != nil {
		return Internship{}, fmt.Errorf("persisting internship %s: %w", in.ID, err)
	}

	c.mu.Lock()
	c.internships = append(c.internships, in)
	c.mu.Unlock()

	c.log.Info("internship created",
		zap.String("id", in.ID),
		zap.String("company", in.Company),
		zap.Stringer("status", in.Status))
	return in, nil
}

// persist writes a record whose id is already reserved. A failed write
// releases the id so the record leaves no trace.
func (c *Catalog) persist(id string, save func(Sink) error) error {
	if c.sink == nil {
		return nil
	}
	if err := save(c.sink); err != nil {
		c.mu.Lock()
		delete(c.ids, id)
		c.mu.Unlock()
		c.log.Warn("record not persisted", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Seed adds the demo internship when the catalog holds none.
func (c *Catalog) Seed(ctx context.Context) error {
	c.mu.RLock()
	empty := len(c.internships) == 0
	c.mu.RUnlock()
	if !empty {
		return nil
	}
	_, err := c.CreateInternship(ctx, Internship{
		Company:   "Google",
		Position:  "Software Engineer Intern",
		Status:    InternshipStarted,
		StartDate: "2024-06-01",
		EndDate:   "2024-08-31",
	})
	return err
}

// Resumes returns every resume in creation order.
func (c *Catalog) Resumes() []Resume {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Resume(nil), c.resumes...)
}

// Resume returns the resume with the given id.
func (c *Catalog) Resume(id string) (Resume, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.resumes {
		if r.ID == id {
			return r, nil
		}
	}
	return Resume{}, fmt.Errorf("resume %q: %w", id, workflow.ErrNotFound)
}

// Internships returns every internship in creation order.
func (c *Catalog) Internships() []Internship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Internship(nil), c.internships...)
}

// nextID must be called with c.mu held.
func (c *Catalog) nextID(prefix string, n int) string {
	for i := n + 1; ; i++ {
		id := fmt.Sprintf("%s_%d", prefix, i)
		if !c.ids[id] {
			c.ids[id] = true
			return id
		}
	}
}
