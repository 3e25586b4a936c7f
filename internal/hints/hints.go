// Package hints generates advisory guidance for a student working on
// an assignment. The generator is a black-box collaborator to the
// sandbox: it never sees the solution and its failures never affect
// query execution.
package hints

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no LLM backend is configured.
var ErrNotConfigured = errors.New("hint service is not configured")

// Request carries what the generator may use to craft a hint.
type Request struct {
	Question   string
	SchemaText string
	UserQuery  string
}

// Generator produces a short advisory hint for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
