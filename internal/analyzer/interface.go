package analyzer

import (
	"context"

	"analyzer/pkg/domain"
)

//go:generate mockgen -package mockanalyzer -source=interface.go -destination=mock/mockanalyzer.go *
type Service interface {
	// Analyze validates the uploaded workbook synchronously and returns the result
	// without persisting anything.
	Analyze(ctx context.Context, filename string, data []byte) (*domain.AnalysisResult, error)
	// Submit stores the uploaded workbook and enqueues a background job to analyze it.
	Submit(ctx context.Context, filename string, data []byte) (*domain.Report, error)
	// Report returns a single report by ID.
	Report(ctx context.Context, ID domain.ReportID) (*domain.Report, error)
	// Reports returns a page of reports filtered by status, together with the next cursor.
	Reports(ctx context.Context,
		status domain.ReportStatus,
		cursor string,
		limit uint) ([]domain.Report, string, error)
	// Delete soft-deletes a report.
	Delete(ctx context.Context, ID domain.ReportID) error
	// Process runs the analysis for a stored report. It is called by the
	// background worker and persists the outcome.
	Process(ctx context.Context, ID domain.ReportID) error
}
