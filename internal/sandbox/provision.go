package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/db"
	"github.com/ciphersql/studio/internal/domain"
)

// createTableHeader matches the leading CREATE TABLE clause of an
// author-supplied statement so it can be rewritten into the sandbox
// schema. A schema qualifier in the raw SQL (CREATE TABLE
// public.employees ...) is matched and dropped with the rest of the
// header; the sandbox schema always wins.
var createTableHeader = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:[` + "`" + `"']?[A-Za-z0-9_]+[` + "`" + `"']?\s*\.\s*)?[` + "`" + `"']?([A-Za-z0-9_]+)[` + "`" + `"']?`)

var identifierOnly = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Provisioner creates and seeds sandbox schemas. Ensure is idempotent
// and safe to call before every execution.
type Provisioner struct {
	conn   *db.Connection
	logger *zap.Logger
}

// NewProvisioner creates a new provisioner backed by the shared pool.
func NewProvisioner(conn *db.Connection, logger *zap.Logger) *Provisioner {
	return &Provisioner{conn: conn, logger: logger}
}

// Ensure makes sure the schema exists and is seeded with the
// assignment's tables and fixture rows. Everything runs in a single
// transaction: a failure leaves no partially provisioned schema
// behind. If any table already exists in the schema, provisioning is
// treated as complete and nothing is re-created or re-inserted.
func (p *Provisioner) Ensure(ctx context.Context, schema SchemaName, tables []domain.TableDefinition) error {
	err := p.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema.Quoted()); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}

		var seeded bool
		probe := `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1)`
		if err := tx.QueryRow(ctx, probe, schema.String()).Scan(&seeded); err != nil {
			return fmt.Errorf("failed to probe schema %s: %w", schema, err)
		}
		if seeded {
			return nil
		}

		for _, table := range tables {
			if err := p.createTable(ctx, tx, schema, table); err != nil {
				return err
			}
			if err := p.insertFixtures(ctx, tx, schema, table); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// A concurrent request for the same pair may have provisioned the
	// schema between our probe and our creates. That request already
	// did the work; a duplicate-object failure here is benign.
	if isDuplicateObject(err) {
		p.logger.Debug("schema provisioned concurrently", zap.String("schema", schema.String()))
		return nil
	}

	return classifyProvisionErr(schema, err)
}

// classifyProvisionErr sorts a provisioning failure into the error
// taxonomy. Content faults keep their domain.ErrProvisioning mark;
// server-side rejections of the authored DDL or fixtures (any PgError)
// gain it. Only the remainder, where the engine never got the chance
// to reject anything, counts as the engine being unreachable.
func classifyProvisionErr(schema SchemaName, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrProvisioning) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: schema %s: %v", domain.ErrProvisioning, schema, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func (p *Provisioner) createTable(ctx context.Context, tx pgx.Tx, schema SchemaName, table domain.TableDefinition) error {
	if !identifierOnly.MatchString(table.Name) {
		return fmt.Errorf("%w: table name %q is not a valid identifier", domain.ErrProvisioning, table.Name)
	}

	stmt, err := rewriteCreateTable(schema, table)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s.%s: %w", schema, table.Name, err)
	}
	return nil
}

// rewriteCreateTable redirects the author's CREATE TABLE into the
// sandbox schema, with IF NOT EXISTS semantics regardless of how the
// original was written.
func rewriteCreateTable(schema SchemaName, table domain.TableDefinition) (string, error) {
	if !createTableHeader.MatchString(table.CreateTableSQL) {
		return "", fmt.Errorf("%w: table %s: statement is not a CREATE TABLE", domain.ErrProvisioning, table.Name)
	}
	target := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%q`, schema.Quoted(), table.Name)
	return createTableHeader.ReplaceAllString(table.CreateTableSQL, target), nil
}

// insertFixtures loads the table's fixture rows with bound parameters.
// The column set comes from the first row; rows are assumed uniform.
func (p *Provisioner) insertFixtures(ctx context.Context, tx pgx.Tx, schema SchemaName, table domain.TableDefinition) error {
	if len(table.SampleData) == 0 {
		return nil
	}

	columns := make([]string, 0, len(table.SampleData[0]))
	for col := range table.SampleData[0] {
		if !identifierOnly.MatchString(col) {
			return fmt.Errorf("%w: table %s: fixture column %q is not a valid identifier", domain.ErrProvisioning, table.Name, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s.%q (%s) VALUES (%s) ON CONFLICT DO NOTHING`,
		schema.Quoted(), table.Name, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	for _, row := range table.SampleData {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("failed to seed table %s.%s: %w", schema, table.Name, err)
		}
	}
	return nil
}

// Duplicate-object SQLSTATEs raised when two requests race to
// provision the same schema: duplicate_schema, duplicate_table,
// unique_violation (pg_namespace).
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P06", "42P07", "23505":
		return true
	}
	return false
}
