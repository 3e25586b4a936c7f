// Package catalog stores assignments: the prompt, difficulty, and the
// table definitions the sandbox seeds. It plays the role of a document
// store — table definitions and hints are JSON columns.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ciphersql/studio/internal/domain"
)

// Store provides assignment catalog access on top of the shared SQLite
// database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new catalog store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns catalog summaries ordered by difficulty then title.
func (s *Store) List(ctx context.Context) ([]domain.AssignmentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, difficulty
		FROM assignments
		ORDER BY CASE difficulty
			WHEN 'Beginner' THEN 0
			WHEN 'Intermediate' THEN 1
			ELSE 2
		END, title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.AssignmentSummary, 0)
	for rows.Next() {
		var sum domain.AssignmentSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Get returns the full assignment, including the raw table
// definitions. Callers shaping client responses use PublicView.
func (s *Store) Get(ctx context.Context, id string) (domain.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, difficulty, question,
		       table_definitions, hints, created_at, updated_at
		FROM assignments WHERE id = ?`, id)

	var (
		a                domain.Assignment
		tablesJSON       string
		hintsJSON        string
		created, updated string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Difficulty, &a.Question,
		&tablesJSON, &hintsJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := json.Unmarshal([]byte(tablesJSON), &a.TableDefinitions); err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to decode table definitions for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(hintsJSON), &a.Hints); err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to decode hints for %s: %w", id, err)
	}
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	return a, nil
}

// Upsert inserts the assignment or replaces its content, keeping the
// original creation timestamp. A missing ID gets a generated one.
func (s *Store) Upsert(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if !a.Difficulty.Valid() {
		return domain.Assignment{}, fmt.Errorf("invalid difficulty %q for assignment %q", a.Difficulty, a.Title)
	}

	tablesJSON, err := json.Marshal(a.TableDefinitions)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to encode table definitions: %w", err)
	}
	hints := a.Hints
	if hints == nil {
		hints = []string{}
	}
	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to encode hints: %w", err)
	}

	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assignments (id, title, description, difficulty, question,
		                         table_definitions, hints, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title             = excluded.title,
			description       = excluded.description,
			difficulty        = excluded.difficulty,
			question          = excluded.question,
			table_definitions = excluded.table_definitions,
			hints             = excluded.hints,
			updated_at        = excluded.updated_at`,
		a.ID, a.Title, a.Description, string(a.Difficulty), a.Question,
		string(tablesJSON), string(hintsJSON),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	// On conflict the original created_at survives; read the row back
	// so the returned timestamps match what is stored.
	return s.Get(ctx, a.ID)
}

// Ping reports whether the catalog store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
