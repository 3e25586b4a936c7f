package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/config"
	"github.com/ciphersql/studio/internal/domain"
	"github.com/ciphersql/studio/internal/hints"
)

type fakeCatalog struct {
	assignments map[string]domain.Assignment
	pingErr     error
}

func (f *fakeCatalog) List(context.Context) ([]domain.AssignmentSummary, error) {
	out := make([]domain.AssignmentSummary, 0, len(f.assignments))
	for _, a := range f.assignments {
		out = append(out, domain.AssignmentSummary{ID: a.ID, Title: a.Title, Difficulty: a.Difficulty})
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (domain.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeCatalog) Ping(context.Context) error { return f.pingErr }

type fakeProgress struct {
	attempts []string
	err      error
}

func (f *fakeProgress) RecordAttempt(_ context.Context, userID, assignmentID, lastQuery string, completed bool) (domain.Progress, error) {
	if f.err != nil {
		return domain.Progress{}, f.err
	}
	f.attempts = append(f.attempts, fmt.Sprintf("%s/%s completed=%v", userID, assignmentID, completed))
	return domain.Progress{UserID: userID, AssignmentID: assignmentID, LastQuery: lastQuery, Attempts: len(f.attempts), Completed: completed}, nil
}

func (f *fakeProgress) ListByUser(_ context.Context, userID string) ([]domain.Progress, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Progress{{UserID: userID, AssignmentID: "a1", Attempts: 2}}, nil
}

type fakeSandbox struct {
	result domain.QueryResult
	err    error
	tenant string
}

func (f *fakeSandbox) RunQuery(_ context.Context, tenantKey, _, _ string, _ domain.Assignment) (domain.QueryResult, error) {
	f.tenant = tenantKey
	return f.result, f.err
}

type fakeHinter struct {
	hint string
	err  error
}

func (f *fakeHinter) Generate(context.Context, hints.Request) (string, error) {
	return f.hint, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, sandbox *fakeSandbox, hinter hints.Generator) (*Server, *fakeCatalog, *fakeProgress) {
	t.Helper()
	cat := &fakeCatalog{assignments: map[string]domain.Assignment{
		"a1": {
			ID:       "a1",
			Title:    "Basic SELECT",
			Question: "Select all employees.",
			TableDefinitions: []domain.TableDefinition{
				{Name: "employees", CreateTableSQL: "CREATE TABLE employees (id INT)"},
			},
		},
	}}
	prog := &fakeProgress{}
	srv := New(config.ServerConfig{Port: 0, CORSOrigins: []string{"*"}}, cat, prog, sandbox, hinter, &fakePinger{}, zap.NewNop())
	return srv, cat, prog
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleExecute_Success(t *testing.T) {
	sandbox := &fakeSandbox{result: domain.QueryResult{
		Succeeded: true,
		Columns:   []string{"name"},
		Rows:      []map[string]any{{"name": "John"}},
		RowCount:  1,
	}}
	srv, _, prog := newTestServer(t, sandbox, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute",
		map[string]string{"query": "SELECT name FROM employees", "userId": "u1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 1, resp["rowCount"])
	assert.Equal(t, "u1", sandbox.tenant)
	assert.Len(t, prog.attempts, 1)
}

func TestHandleExecute_GuestFallback(t *testing.T) {
	sandbox := &fakeSandbox{result: domain.QueryResult{Succeeded: true}}
	srv, _, prog := newTestServer(t, sandbox, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute",
		map[string]string{"query": "SELECT 1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "guest", sandbox.tenant)
	assert.Empty(t, prog.attempts, "anonymous runs are not tracked")
}

func TestHandleExecute_ValidationRejection(t *testing.T) {
	sandbox := &fakeSandbox{err: fmt.Errorf("%w: only SELECT and WITH queries are allowed", domain.ErrInvalidQuery)}
	srv, _, _ := newTestServer(t, sandbox, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute",
		map[string]string{"query": "UPDATE employees SET salary = 0"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "only SELECT and WITH queries are allowed", resp.Error)
}

func TestHandleExecute_EngineFailure(t *testing.T) {
	sandbox := &fakeSandbox{result: domain.Failed(`relation "employes" does not exist`, "42P01")}
	srv, _, _ := newTestServer(t, sandbox, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute",
		map[string]string{"query": "SELECT * FROM employes"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42P01", resp.ErrorCode)
	assert.Contains(t, resp.Error, "does not exist")
}

func TestHandleExecute_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: bad seed DDL", domain.ErrProvisioning), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		sandbox := &fakeSandbox{err: tc.err}
		srv, _, _ := newTestServer(t, sandbox, nil)
		rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute",
			map[string]string{"query": "SELECT 1"})
		assert.Equal(t, tc.status, rec.Code, "error %v", tc.err)
	}
}

func TestHandleExecute_UnknownAssignment(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/nope/execute",
		map[string]string{"query": "SELECT 1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleExecute_RequiresQuery(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/execute", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAssignment_HidesDDL(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/assignments/a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "CREATE TABLE")
}

func TestHandleHint_NotConfigured(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/hint",
		map[string]string{"userQuery": "SELECT"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHint_Success(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, &fakeHinter{hint: "Try a WHERE clause."})

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/hint",
		map[string]string{"userQuery": "SELECT name FROM employees"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Try a WHERE clause.")
}

func TestHandleHint_GeneratorFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, &fakeHinter{err: errors.New("rate limited")})

	rec := doJSON(t, srv, http.MethodPost, "/api/assignments/a1/hint", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "rate limited", "internal detail must not leak")
}

func TestHandleProgress_RoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/progress/u1/a1",
		map[string]any{"lastQuery": "SELECT 1", "completed": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/progress/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a1"`)
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSandbox{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "connected", resp["postgresql"])
}
