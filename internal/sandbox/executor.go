package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ciphersql/studio/internal/db"
	"github.com/ciphersql/studio/internal/domain"
)

// Executor runs one sanitized query inside a sandbox schema.
type Executor struct {
	conn *db.Connection
}

// NewExecutor creates a new executor backed by the shared pool.
func NewExecutor(conn *db.Connection) *Executor {
	return &Executor{conn: conn}
}

// Run executes the sanitized query with the search path pinned to the
// sandbox schema (falling back to public). SET LOCAL keeps the search
// path transaction-scoped, so a pooled connection never leaks one
// request's schema into the next.
//
// Engine failures (bad syntax, missing relation, division by zero …)
// come back as a non-succeeded QueryResult carrying the Postgres
// message and SQLSTATE; they are feedback for the student, not errors.
// A non-nil error means the engine itself was unreachable.
func (e *Executor) Run(ctx context.Context, schema SchemaName, sanitized string) (domain.QueryResult, error) {
	var result domain.QueryResult

	err := e.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+schema.Quoted()+", public"); err != nil {
			return fmt.Errorf("failed to set search path: %w", err)
		}

		rows, err := tx.Query(ctx, sanitized)
		if err != nil {
			return err
		}
		defer rows.Close()

		// Column names come from the engine's field descriptions, not
		// from the first row, so zero-row results keep their header.
		fields := rows.FieldDescriptions()
		columns := make([]string, len(fields))
		for i, field := range fields {
			columns[i] = field.Name
		}

		collected := make([]map[string]any, 0)
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			row := make(map[string]any, len(columns))
			for i, col := range columns {
				row[col] = values[i]
			}
			collected = append(collected, row)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		result = domain.QueryResult{
			Succeeded: true,
			Columns:   columns,
			Rows:      collected,
			RowCount:  len(collected),
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return domain.Failed(pgErr.Message, pgErr.Code), nil
		}
		return domain.QueryResult{}, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	return result, nil
}
