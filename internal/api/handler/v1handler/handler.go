// Package v1handler implements the v1 HTTP endpoints of the analyzer API.
// Handlers decode requests, delegate to the analyzer service, and translate
// semantic errors into JSON error responses.
package v1handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"analyzer/internal/analyzer"
	"analyzer/pkg/logger"
	"analyzer/pkg/serrors"
)

// Deps groups the service dependencies of the v1 handlers.
type Deps struct {
	// Analyzer executes workbook analysis and manages stored reports.
	Analyzer analyzer.Service
}

// Options holds request handling limits for the v1 handlers.
type Options struct {
	// MaxUploadBytes caps the size of an uploaded workbook.
	MaxUploadBytes int64
}

// Handler serves the v1 routes.
type Handler struct {
	deps Deps
	opts Options
}

// New constructs a Handler with the given dependencies and options.
func New(deps Deps, opts Options) *Handler {
	return &Handler{
		deps: deps,
		opts: opts,
	}
}

// Register mounts all v1 routes on the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/analyze", h.Analyze)
	mux.HandleFunc("POST /v1/reports", h.CreateReport)
	mux.HandleFunc("GET /v1/reports", h.ListReports)
	mux.HandleFunc("GET /v1/reports/{id}", h.GetReport)
	mux.HandleFunc("DELETE /v1/reports/{id}", h.DeleteReport)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// statusFromError maps semantic error kinds to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, serrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, serrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, serrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, serrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, serrors.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, serrors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON error response. Internal errors are logged
// and replaced with a generic message so no internals leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "internal error handling request", zap.Error(err))
		msg = "internal server error"
	}

	writeJSON(w, r, status, errorBody{Error: msg})
}

// writeJSON renders v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(r.Context(), "could not encode response", zap.Error(err))
	}
}
