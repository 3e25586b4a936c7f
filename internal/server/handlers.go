package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/auth"
	"github.com/ciphersql/studio/internal/domain"
	"github.com/ciphersql/studio/internal/hints"
)

type executeRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type hintRequest struct {
	UserQuery string `json:"userQuery"`
}

type progressRequest struct {
	LastQuery string `json:"lastQuery"`
	Completed bool   `json:"completed"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pg := "connected"
	if err := s.dbPing.Ping(ctx); err != nil {
		pg = "unavailable"
	}
	cat := "connected"
	if err := s.catalog.Ping(ctx); err != nil {
		cat = "unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"postgresql": pg,
		"catalog":    cat,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list assignments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assignment, err := s.catalog.Get(r.Context(), id)
	if errors.Is(err, domain.ErrAssignmentNotFound) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get assignment", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}

	writeJSON(w, http.StatusOK, assignment.PublicView())
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	assignment, err := s.catalog.Get(r.Context(), assignmentID)
	if errors.Is(err, domain.ErrAssignmentNotFound) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load assignment for execute", zap.String("id", assignmentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load assignment")
		return
	}

	tenant := auth.ResolveTenant(req.UserID, req.SessionID)
	ctx := auth.ContextWithTenant(r.Context(), tenant)

	result, err := s.sandbox.RunQuery(ctx, tenant, assignmentID, req.Query, assignment)
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, clientReason(err, domain.ErrInvalidQuery))
		return
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "database is unavailable, please try again later")
		return
	case errors.Is(err, domain.ErrProvisioning):
		writeError(w, http.StatusInternalServerError, "assignment environment could not be prepared")
		return
	case err != nil:
		s.logger.Error("execute failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query execution failed")
		return
	}

	// Attempt bookkeeping is best-effort; a full sandbox round trip
	// must not fail because the progress row could not be written.
	if req.UserID != "" {
		if _, err := s.progress.RecordAttempt(ctx, req.UserID, assignmentID, req.Query, false); err != nil {
			s.logger.Warn("failed to record attempt", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}

	if !result.Succeeded {
		// The student's query failed inside the engine. The message is
		// pedagogically useful, so it goes back near-verbatim.
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success:   false,
			Error:     result.ErrorMessage,
			ErrorCode: result.ErrorCode,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"rowCount": result.RowCount,
		"columns":  result.Columns,
		"rows":     result.Rows,
	})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")

	if s.hinter == nil {
		writeError(w, http.StatusServiceUnavailable, "hint service is not configured")
		return
	}

	var req hintRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	}

	assignment, err := s.catalog.Get(r.Context(), assignmentID)
	if errors.Is(err, domain.ErrAssignmentNotFound) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load assignment for hint", zap.String("id", assignmentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load assignment")
		return
	}

	hint, err := s.hinter.Generate(r.Context(), hints.Request{
		Question:   assignment.Question,
		SchemaText: assignment.SchemaText(),
		UserQuery:  req.UserQuery,
	})
	if err != nil {
		s.logger.Error("hint generation failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate hint, please try again later")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"hint":    hint,
	})
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	list, err := s.progress.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list progress", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list progress")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	assignmentID := chi.URLParam(r, "assignmentID")

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.progress.RecordAttempt(r.Context(), userID, assignmentID, req.LastQuery, req.Completed)
	if err != nil {
		s.logger.Error("failed to record progress",
			zap.String("user_id", userID),
			zap.String("assignment_id", assignmentID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record progress")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// clientReason strips the sentinel prefix so the client sees only the
// human-readable part.
func clientReason(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
