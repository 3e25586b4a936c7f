// Package progress tracks per-user attempts at assignments. One row
// exists per (user, assignment) pair; completion is sticky.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ciphersql/studio/internal/domain"
)

// ErrNotFound is returned when no progress row exists for the pair.
var ErrNotFound = errors.New("progress not found")

// Store provides progress access on top of the shared SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new progress store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordAttempt upserts the pair's row: bumps the attempt counter,
// remembers the query, and marks completion. Once completed, a later
// failed attempt does not un-complete the assignment.
func (s *Store) RecordAttempt(ctx context.Context, userID, assignmentID, lastQuery string, completed bool) (domain.Progress, error) {
	now := time.Now().UTC()
	var completedAt any
	completedFlag := 0
	if completed {
		completedFlag = 1
		completedAt = now.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, assignment_id, last_query, attempts,
		                           completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (user_id, assignment_id) DO UPDATE SET
			last_query   = excluded.last_query,
			attempts     = user_progress.attempts + 1,
			completed    = MAX(user_progress.completed, excluded.completed),
			completed_at = COALESCE(user_progress.completed_at, excluded.completed_at),
			updated_at   = excluded.updated_at`,
		userID, assignmentID, lastQuery, completedFlag, completedAt,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to record attempt: %w", err)
	}

	return s.Get(ctx, userID, assignmentID)
}

// Get returns the pair's progress row.
func (s *Store) Get(ctx context.Context, userID, assignmentID string) (domain.Progress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, assignment_id, last_query, attempts, completed,
		       completed_at, created_at, updated_at
		FROM user_progress WHERE user_id = ? AND assignment_id = ?`,
		userID, assignmentID)

	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Progress{}, ErrNotFound
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListByUser returns all of the user's progress rows, most recent
// first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, assignment_id, last_query, attempts, completed,
		       completed_at, created_at, updated_at
		FROM user_progress WHERE user_id = ?
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Progress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(row scanner) (domain.Progress, error) {
	var (
		p                domain.Progress
		completed        int
		completedAt      sql.NullString
		created, updated string
	)
	err := row.Scan(&p.UserID, &p.AssignmentID, &p.LastQuery, &p.Attempts,
		&completed, &completedAt, &created, &updated)
	if err != nil {
		return domain.Progress{}, err
	}

	p.Completed = completed != 0
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			p.CompletedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}
