package analyzer

import (
	"github.com/riverqueue/river"
)

// JobArgs contains the arguments for an analysis job submitted to River.
// Each uploaded workbook gets exactly one job, keyed by its report ID.
type JobArgs struct {
	// ReportID is the report whose stored upload should be analyzed.
	ReportID string `json:"report_id"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the analysis worker.
func (args JobArgs) Kind() string { return "AnalyzeReportJob" }

// InsertOpts returns the River options that control how the job is enqueued.
// Uniqueness constraints are unnecessary here because report IDs are generated
// per upload.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
	}
}
