package storage

import (
	"context"
	"time"

	"analyzer/pkg/domain"
)

// ReportUpdates describes a set of optional fields that can be applied to an
// existing report during an update. Only provided fields are changed.
type ReportUpdates struct {
	// Status is the new status to set for the report.
	Status domain.ReportStatus
	// Result, when provided, replaces the stored analysis result payload.
	Result *domain.AnalysisResult
	// LastError, when provided, sets the last error text. An empty string value
	// indicates the error should be cleared (set to NULL).
	LastError *string
	// ClearUpload removes the stored workbook bytes. Set after a report has been
	// processed so the raw upload does not linger in the database.
	ClearUpload bool
	// MaxAttempts, when provided alongside a Failed status, ensures that status
	// is only updated to Failed if the current attempts after increment would
	// reach this threshold. A value <= 0 disables this guard.
	MaxAttempts int
}

// ReportPage groups a page of reports together with an optional NextCursor
// used for pagination.
type ReportPage struct {
	// Reports contains the current page of report records.
	Reports []domain.Report
	// NextCursor points to the timestamp to be used as the cursor for fetching
	// the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// ReportStorage defines CRUD and query operations related to analysis reports.
// Implementations should ensure idempotency and proper handling of
// soft-deletes where applicable.
type ReportStorage interface {
	// StoreReport inserts a report together with the raw workbook upload and
	// returns the stored row as it exists in the database (including generated
	// fields). The upload bytes are not echoed back.
	StoreReport(ctx context.Context, report domain.Report, upload []byte) (*domain.Report, error)
	// ReportUpload returns the stored workbook bytes for a report, or nil when
	// the upload has been cleared or the report does not exist.
	ReportUpload(ctx context.Context, ID domain.ReportID) ([]byte, error)
	// UpdateReportByID updates a single report identified by its ID and returns
	// the updated row, or nil when the report was not found.
	// Notes:
	// - Attempts is incremented by 1 and updated_at is set automatically.
	// - If Status is Failed and MaxAttempts > 0, status is only set to Failed
	//   when the attempts after increment reach MaxAttempts; otherwise status
	//   remains unchanged (i.e., stays Pending).
	UpdateReportByID(ctx context.Context, ID domain.ReportID, updates ReportUpdates) (*domain.Report, error)
	// DeleteReport performs a soft delete for the given report ID and returns
	// the deleted report, or nil if it was not found.
	DeleteReport(ctx context.Context, ID domain.ReportID) (*domain.Report, error)
	// Reports returns a page of reports created before the optional cursor time,
	// limited by the given limit. If status is non-empty, results are filtered
	// to records with the given status.
	Reports(ctx context.Context,
		status domain.ReportStatus,
		cursor time.Time,
		limit uint) (ReportPage, error)
	// ReportByID fetches a report by its ID, excluding soft-deleted records.
	// Returns nil when not found.
	ReportByID(ctx context.Context, ID domain.ReportID) (*domain.Report, error)
}
