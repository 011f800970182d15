package v1handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"analyzer/pkg/domain"
	"analyzer/pkg/serrors"
)

const (
	// DefaultLimit is the page size used when the list endpoint gets no limit parameter.
	DefaultLimit = 20
	// MaxLimit caps the page size of the list endpoint.
	MaxLimit = 100
)

// Report is the v1 wire representation of a domain report.
type Report struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`

	// Result is present once the analysis has completed.
	Result *domain.AnalysisResult `json:"result,omitempty"`

	Attempts  uint       `json:"attempts"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ReportList is the v1 wire representation of one page of reports.
type ReportList struct {
	Items      []Report `json:"items"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// DomainReportToV1 converts a domain report into its wire representation.
func DomainReportToV1(in *domain.Report) *Report {
	out := &Report{
		ID:        in.ID.String(),
		Filename:  in.Filename,
		Status:    string(in.Status),
		Attempts:  in.Attempts,
		CreatedAt: in.CreatedAt,
	}
	if in.Status == domain.ReportStatusCompleted {
		result := in.Result
		out.Result = &result
	}
	if !in.UpdatedAt.IsZero() {
		t := in.UpdatedAt
		out.UpdatedAt = &t
	}

	return out
}

// readUpload extracts the workbook from the multipart "file" field, enforcing
// the configured upload size limit.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, serrors.With(serrors.ErrBadRequest, "upload exceeds %d bytes", maxErr.Limit)
		}

		return "", nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read file field")
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, serrors.With(serrors.ErrBadRequest, "upload exceeds %d bytes", maxErr.Limit)
		}

		return "", nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read upload")
	}

	return header.Filename, data, nil
}

// reportIDFromPath parses the {id} path segment.
func reportIDFromPath(r *http.Request) (domain.ReportID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.ReportID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid report ID")
	}

	return domain.ReportID(id), nil
}

// Analyze validates an uploaded workbook synchronously and returns the full
// analysis result without persisting anything.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	result, err := h.deps.Analyzer.Analyze(r.Context(), filename, data)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// CreateReport stores an uploaded workbook and schedules its analysis.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	report, err := h.deps.Analyzer.Submit(r.Context(), filename, data)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusAccepted, DomainReportToV1(report))
}

// GetReport returns details of a report by ID.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDFromPath(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	report, err := h.deps.Analyzer.Report(r.Context(), id)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, DomainReportToV1(report))
}

// ListReports returns a paginated list of reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := domain.ReportStatus(q.Get("status"))
	switch status {
	case "", domain.ReportStatusPending, domain.ReportStatusCompleted, domain.ReportStatusFailed:
	default:
		writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid status %q", status))

		return
	}

	limit := uint(DefaultLimit)
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 || n > MaxLimit {
			writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid limit %q", raw))

			return
		}
		limit = uint(n)
	}

	reports, nextCursor, err := h.deps.Analyzer.Reports(r.Context(), status, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)

		return
	}

	items := make([]Report, 0, len(reports))
	for i := range reports {
		items = append(items, *DomainReportToV1(&reports[i]))
	}

	writeJSON(w, r, http.StatusOK, ReportList{
		Items:      items,
		NextCursor: nextCursor,
	})
}

// DeleteReport deletes a report by ID.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDFromPath(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	if err := h.deps.Analyzer.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
