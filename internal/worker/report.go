package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"analyzer/internal/analyzer"
	"analyzer/pkg/domain"
	"analyzer/pkg/logger"
	"analyzer/pkg/serrors"
)

// ReportWorker is a River worker that analyzes stored workbook uploads using
// the analyzer service. It embeds River's WorkerDefaults to integrate with the
// job runtime.
//
// Error handling: jobs referencing deleted or already-completed reports are
// canceled (the work is moot). Invalid workbooks are also canceled since
// retrying cannot make a workbook readable; the service has already recorded
// the failure on the report by then. Any other error is returned so River can
// retry up to the job's MaxAttempts.
type ReportWorker struct {
	river.WorkerDefaults[analyzer.JobArgs]

	// analyzer runs the actual workbook analysis and persists the outcome.
	analyzer analyzer.Service
}

// NewReportWorker constructs a ReportWorker using the provided service.
func NewReportWorker(svc analyzer.Service) *ReportWorker {
	return &ReportWorker{
		analyzer: svc,
	}
}

// Work executes a single analysis job.
func (w *ReportWorker) Work(ctx context.Context, job *river.Job[analyzer.JobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("reportID", job.Args.ReportID))

	id, err := uuid.Parse(job.Args.ReportID)
	if err != nil {
		// malformed args can never succeed
		return river.JobCancel(fmt.Errorf("could not parse report ID: %w", err)) //nolint: wrapcheck
	}

	if err := w.analyzer.Process(ctx, domain.ReportID(id)); err != nil {
		if errors.Is(err, serrors.ErrConflict) {
			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error analyzing report", zap.Error(err))

		if errors.Is(err, serrors.ErrBadRequest) {
			// unreadable workbook, failure already recorded on the report
			return river.JobCancel(err) //nolint: wrapcheck
		}

		return fmt.Errorf("could not analyze report: %w", err)
	}

	logger.Info(ctx, "report analyzed successfully")

	return nil
}
