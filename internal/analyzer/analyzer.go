package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"analyzer/internal/config"
	"analyzer/pkg/domain"
	"analyzer/pkg/metrics"
	"analyzer/pkg/serrors"
	"analyzer/pkg/storage"
)

//nolint: gochecknoglobals
var (
	// workbooksAnalyzed counts analyzed workbooks by outcome (ok, invalid, error).
	workbooksAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analyzer",
		Name:      "workbooks_analyzed_total",
		Help:      "Number of workbooks analyzed, partitioned by outcome.",
	}, []string{"outcome"})

	// analyzeDuration tracks how long the validation pipeline takes per workbook.
	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "analyzer",
		Name:      "workbook_analyze_duration_seconds",
		Help:      "Time spent parsing and validating one workbook.",
		Buckets:   metrics.DefaultBuckets,
	})
)

// Options configure how analysis jobs are enqueued and processed. These
// settings are typically derived from application configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts the background worker should
	// make when processing a report before marking it failed.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxAttempts: cfg.Analyzer.MaxAttempts,
	}
}

// service is the concrete implementation of the Service interface.
// It coordinates the validation engine with the storage layer and job enqueueing.
type service struct {
	// options holds runtime configuration that affects enqueueing and processing.
	options Options
	// storage is the persistence layer used to store reports and manage jobs.
	storage storage.Storage
}

// ValidateFilename rejects uploads that are not Excel workbooks. Only the
// extension is checked here; content errors surface when the workbook is parsed.
func ValidateFilename(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls", ".xlsx":
		return nil
	default:
		return serrors.With(serrors.ErrBadRequest, "only Excel files allowed")
	}
}

// analyze runs the parse+validate pipeline once and records metrics.
func analyze(filename string, data []byte) (*domain.AnalysisResult, error) {
	if err := ValidateFilename(filename); err != nil {
		workbooksAnalyzed.WithLabelValues("invalid").Inc()

		return nil, err
	}

	start := time.Now()
	rows, err := ParseWorkbook(data)
	if err != nil {
		workbooksAnalyzed.WithLabelValues("invalid").Inc()

		return nil, err
	}

	result := AnalyzeRows(rows)
	analyzeDuration.Observe(time.Since(start).Seconds())
	workbooksAnalyzed.WithLabelValues("ok").Inc()

	return result, nil
}

// Analyze validates the workbook synchronously without persisting anything.
func (s service) Analyze(_ context.Context, filename string, data []byte) (*domain.AnalysisResult, error) {
	return analyze(filename, data)
}

// Submit stores a new report together with the raw upload and enqueues a
// background job to analyze it. The insert and the enqueue share one
// transaction so a stored report always has a job and vice versa.
func (s service) Submit(ctx context.Context, filename string, data []byte) (*domain.Report, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	var report *domain.Report
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreReport(ctx, domain.Report{
			Filename: filename,
			Status:   domain.ReportStatusPending,
		}, data)
		if err != nil {
			return fmt.Errorf("could not store report: %w", err)
		}
		report = res

		if _, err := tx.AddJob(ctx, JobArgs{
			ReportID:    report.ID.String(),
			maxAttempts: s.options.MaxAttempts,
		}, nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not submit workbook: %w", err)
	}

	return report, nil
}

// Report fetches a single report by ID. It returns a not-found error when no
// matching report exists.
func (s service) Report(ctx context.Context, ID domain.ReportID) (*domain.Report, error) {
	res, err := s.storage.ReportByID(ctx, ID)
	if err != nil {
		return nil, fmt.Errorf("could not get report: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "report not found")
	}

	return res, nil
}

// Reports returns a page of reports filtered by status. It supports
// cursor-based pagination using an RFC3339 timestamp string and returns the
// next cursor when more results are available.
func (s service) Reports(ctx context.Context,
	status domain.ReportStatus,
	cursor string,
	limit uint) ([]domain.Report, string, error) {
	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}

	page, err := s.storage.Reports(ctx, status, cursorTime, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not get reports: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.Format(time.RFC3339)
	}

	return page.Reports, next, nil
}

// Delete removes a report. If the report does not exist, a not-found error is
// returned. A pending job for the report becomes a no-op once the row is gone.
func (s service) Delete(ctx context.Context, ID domain.ReportID) error {
	res, err := s.storage.DeleteReport(ctx, ID)
	if err != nil {
		return fmt.Errorf("could not delete report: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "report not found")
	}

	return nil
}

// Process analyzes a stored report and persists the outcome. Unreadable
// workbooks are recorded as permanently failed; transient storage errors leave
// the report pending so the job can be retried. Reports that were deleted or
// already completed are skipped via a conflict error so the caller can cancel
// the job.
func (s service) Process(ctx context.Context, ID domain.ReportID) error {
	report, err := s.storage.ReportByID(ctx, ID)
	if err != nil {
		return fmt.Errorf("could not get report: %w", err)
	}
	if report == nil {
		return serrors.With(serrors.ErrConflict, "report no longer exists")
	}
	if report.Status == domain.ReportStatusCompleted {
		return serrors.With(serrors.ErrConflict, "report already completed")
	}

	data, err := s.storage.ReportUpload(ctx, ID)
	if err != nil {
		return fmt.Errorf("could not load report upload: %w", err)
	}
	if data == nil {
		return serrors.With(serrors.ErrConflict, "report upload no longer available")
	}

	result, err := analyze(report.Filename, data)
	if err != nil {
		return s.recordFailure(ctx, ID, err)
	}

	empty := ""
	if _, err := s.storage.UpdateReportByID(ctx, ID, storage.ReportUpdates{
		Status:      domain.ReportStatusCompleted,
		Result:      result,
		LastError:   &empty,
		ClearUpload: true,
	}); err != nil {
		return fmt.Errorf("could not store analysis result: %w", err)
	}

	return nil
}

// recordFailure persists a processing failure and passes the original error
// back to the caller. Invalid workbooks fail immediately; other errors keep
// the report pending until the attempt budget runs out.
func (s service) recordFailure(ctx context.Context, ID domain.ReportID, cause error) error {
	msg := cause.Error()
	updates := storage.ReportUpdates{
		Status:    domain.ReportStatusFailed,
		LastError: &msg,
	}
	if !errors.Is(cause, serrors.ErrBadRequest) {
		// transient failure: only flip to FAILED once attempts are exhausted
		updates.MaxAttempts = s.options.MaxAttempts
	}

	if _, err := s.storage.UpdateReportByID(ctx, ID, updates); err != nil {
		return fmt.Errorf("could not record analysis failure: %w", err)
	}

	return cause
}

// New creates a new Service instance backed by the provided storage and
// configured with the given options.
func New(storage storage.Storage, options Options) Service {
	return &service{
		options: options,
		storage: storage,
	}
}
