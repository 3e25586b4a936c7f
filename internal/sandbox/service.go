package sandbox

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/domain"
	"github.com/ciphersql/studio/internal/sqlcheck"
)

// SchemaProvisioner prepares a sandbox schema for execution.
type SchemaProvisioner interface {
	Ensure(ctx context.Context, schema SchemaName, tables []domain.TableDefinition) error
}

// QueryRunner executes a sanitized query inside a schema.
type QueryRunner interface {
	Run(ctx context.Context, schema SchemaName, sanitized string) (domain.QueryResult, error)
}

// Service is the sandbox façade: validate, resolve the schema,
// provision if absent, execute, shape the result. One call per
// student "execute" action; requests are independent and share nothing
// beyond the connection pool.
type Service struct {
	provisioner SchemaProvisioner
	runner      QueryRunner
	logger      *zap.Logger
}

// NewService creates a new sandbox service.
func NewService(provisioner SchemaProvisioner, runner QueryRunner, logger *zap.Logger) *Service {
	return &Service{
		provisioner: provisioner,
		runner:      runner,
		logger:      logger,
	}
}

// RunQuery runs one validated student query against the assignment's
// sandbox. Validation rejections wrap domain.ErrInvalidQuery;
// provisioning faults wrap domain.ErrProvisioning and an unreachable
// engine wraps domain.ErrUnavailable, both logged here with schema and
// assignment context since neither points at the student. A query the
// engine rejected is not an error: it comes back as a non-succeeded
// QueryResult.
func (s *Service) RunQuery(ctx context.Context, tenantKey, assignmentID, rawQuery string, spec domain.Assignment) (domain.QueryResult, error) {
	if res := sqlcheck.Validate(rawQuery); !res.Accepted {
		return domain.QueryResult{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuery, res.Reason)
	}
	sanitized := sqlcheck.Sanitize(rawQuery)

	schema := DeriveSchemaName(tenantKey, assignmentID)

	if err := s.provisioner.Ensure(ctx, schema, spec.TableDefinitions); err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			s.logger.Error("sandbox engine unreachable during provisioning",
				zap.String("schema", schema.String()),
				zap.String("assignment_id", assignmentID),
				zap.Error(err))
			return domain.QueryResult{}, err
		}
		s.logger.Error("sandbox provisioning failed",
			zap.String("schema", schema.String()),
			zap.String("assignment_id", assignmentID),
			zap.Error(err))
		if errors.Is(err, domain.ErrProvisioning) {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{}, fmt.Errorf("%w: %v", domain.ErrProvisioning, err)
	}

	result, err := s.runner.Run(ctx, schema, sanitized)
	if err != nil {
		s.logger.Error("sandbox execution failed",
			zap.String("schema", schema.String()),
			zap.String("assignment_id", assignmentID),
			zap.Error(err))
		return domain.QueryResult{}, err
	}

	if !result.Succeeded {
		s.logger.Debug("query failed in sandbox",
			zap.String("schema", schema.String()),
			zap.String("error_code", result.ErrorCode))
	}
	return result, nil
}
