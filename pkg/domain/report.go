package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportID uniquely identifies an analysis report.
// It wraps uuid.UUID to provide type safety at the domain layer.
type ReportID uuid.UUID

// String returns the canonical UUID form of the report ID.
func (id ReportID) String() string {
	return uuid.UUID(id).String()
}

// ReportStatus represents the lifecycle state of an analysis report.
// It can be pending, completed, or failed.
type ReportStatus string

const (
	// ReportStatusPending indicates the uploaded workbook has been stored but not analyzed yet.
	ReportStatusPending ReportStatus = "PENDING"
	// ReportStatusCompleted indicates the analysis finished and a result is available.
	ReportStatusCompleted ReportStatus = "COMPLETED"
	// ReportStatusFailed indicates the analysis ended with an error; see LastError and Attempts for details.
	ReportStatusFailed ReportStatus = "FAILED"
)

// Record is a single validated workbook row. It carries the original cell
// values keyed by column name together with the validation fields added by the
// analysis engine ("Error Details", "has_error", "Duplicate Error" and, for
// care rows, "note"). Values are strings, float64s or nil; non-finite floats
// must be replaced with nil before a Record is produced.
type Record map[string]any

// AnalysisResult is the outcome of analyzing one workbook. Rows are split into
// operational records (daily production figures) and care records (vaccination
// and medication entries). The JSON field names match the wire format of the
// analyze endpoint.
type AnalysisResult struct {
	// Operational contains rows classified as daily operational entries.
	Operational []Record `json:"operational_data"`
	// Care contains rows classified as vaccination/medication entries.
	Care []Record `json:"care_data"`
}

// Report represents one uploaded workbook and the current state of its analysis.
type Report struct {
	// ID is the unique identifier of the report.
	ID ReportID `json:"id"`

	// Filename is the name of the uploaded workbook as provided by the client.
	Filename string `json:"filename"`
	// Status is the current lifecycle state of the report.
	Status ReportStatus `json:"status"`
	// Result contains the analysis outcome once the report is completed.
	Result AnalysisResult `json:"result"`

	// Attempts is the number of times the system has tried to analyze this workbook.
	Attempts uint `json:"attempts"`
	// LastError stores the most recent error message, if any, encountered while analyzing.
	LastError string `json:"-"`

	// CreatedAt is the time when the workbook was uploaded.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time when the report was last updated (e.g., status or result changed).
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt marks when the report was soft-deleted; zero value means not deleted.
	DeletedAt time.Time `json:"-"`
}
