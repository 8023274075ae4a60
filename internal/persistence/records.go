package persistence

import (
	"context"
	"fmt"

	"github.com/aristath/studytracker/internal/catalog"
)

// SaveResume stores a resume.
func (s *SQLiteStore) SaveResume(ctx context.Context, r catalog.Resume) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resumes (id, title, markdown, html, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			markdown = excluded.markdown,
			html = excluded.html
	`, r.ID, r.Title, r.Markdown, r.HTML, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// ListResumes returns all resumes in insertion order.
func (s *SQLiteStore) ListResumes(ctx context.Context) ([]catalog.Resume, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, markdown, html, created_at
		FROM resumes
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resumes: %w", err)
	}
	defer rows.Close()

	var resumes []catalog.Resume
	for rows.Next() {
		var r catalog.Resume
		var created string
		if err := rows.Scan(&r.ID, &r.Title, &r.Markdown, &r.HTML, &created); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("resume %s created_at: %w", r.ID, err)
		}
		resumes = append(resumes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resumes: %w", err)
	}
	return resumes, nil
}

// SaveInternship stores an internship.
func (s *SQLiteStore) SaveInternship(ctx context.Context, in catalog.Internship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO internships (id, company, position, status, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company = excluded.company,
			position = excluded.position,
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`, in.ID, in.Company, in.Position, int(in.Status), in.StartDate, in.EndDate)
	if err != nil {
		return fmt.Errorf("failed to save internship: %w", err)
	}
	return nil
}

// ListInternships returns all internships in insertion order.
func (s *SQLiteStore) ListInternships(ctx context.Context) ([]catalog.Internship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company, position, status, start_date, end_date
		FROM internships
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query internships: %w", err)
	}
	defer rows.Close()

	var internships []catalog.Internship
	for rows.Next() {
		var in catalog.Internship
		var status int
		if err := rows.Scan(&in.ID, &in.Company, &in.Position, &status, &in.StartDate, &in.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan internship: %w", err)
		}
		in.Status = catalog.StatusFromInt(status)
		internships = append(internships, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating internships: %w", err)
	}
	return internships, nil
}
