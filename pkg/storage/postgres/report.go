package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"analyzer/pkg/domain"
	"analyzer/pkg/storage"
)

const (
	reportsTable = "reports"
)

// reportColumns are the columns fetched on reads. The upload column is
// excluded deliberately; it is only accessed through ReportUpload.
//
//nolint: gochecknoglobals
var reportColumns = []any{
	"id", "filename", "status", "result",
	"attempts", "last_error",
	"created_at", "updated_at", "deleted_at",
}

func (p *PgSQL) StoreReport(ctx context.Context, report domain.Report, upload []byte) (*domain.Report, error) {
	row := pgReportInsert{
		Filename: report.Filename,
		Status:   string(report.Status),
		Upload:   upload,
	}

	var result PgReport
	found, err := p.Builder.Insert(reportsTable).
		Rows(row).
		Returning(reportColumns...).
		Executor().ScanStructContext(ctx, &result)
	if err != nil {
		return nil, fmt.Errorf("could not store report into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("could not store report into pg: no row returned")
	}

	return result.ToDomain()
}

// ReportUpload fetches the raw workbook bytes for a report. It returns nil
// when the report does not exist, was soft-deleted, or its upload has already
// been cleared.
func (p *PgSQL) ReportUpload(ctx context.Context, id domain.ReportID) ([]byte, error) {
	var upload []byte
	found, err := p.Builder.From(reportsTable).
		Select("upload").
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanValContext(ctx, &upload)
	if err != nil {
		return nil, fmt.Errorf("could not fetch report upload from pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return upload, nil
}

// UpdateReportByID updates a single report and returns the updated row.
// Attempts is incremented by 1 and updated_at is set automatically. When
// MaxAttempts > 0 and Status is Failed, the status only flips to Failed once
// the incremented attempts reach MaxAttempts; until then it stays as is so the
// job queue can retry.
func (p *PgSQL) UpdateReportByID(ctx context.Context,
	id domain.ReportID,
	updates storage.ReportUpdates) (*domain.Report, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"attempts":   goqu.L("attempts + 1"),
	}
	if updates.Status != "" {
		if updates.Status == domain.ReportStatusFailed && updates.MaxAttempts > 0 {
			rec["status"] = goqu.L("CASE WHEN attempts + 1 >= ? THEN ? ELSE status END",
				updates.MaxAttempts, string(domain.ReportStatusFailed))
		} else {
			rec["status"] = string(updates.Status)
		}
	}
	if updates.Result != nil {
		b, err := json.Marshal(updates.Result)
		if err != nil {
			return nil, fmt.Errorf("could not marshal result: %w", err)
		}

		rec["result"] = b
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			// set to NULL when empty string provided
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}
	if updates.ClearUpload {
		rec["upload"] = goqu.L("NULL")
	}

	var row PgReport
	found, err := p.Builder.Update(reportsTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Returning(reportColumns...).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update report in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// DeleteReport performs a soft delete by setting the deleted_at timestamp for
// a given report id, returning the deleted record.
func (p *PgSQL) DeleteReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	var row PgReport
	found, err := p.Builder.Update(reportsTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
			"upload":     goqu.L("NULL"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Returning(reportColumns...).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete report in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// Reports returns a page of reports filtered by optional status and cursor,
// limited by limit. Results are ordered by created_at DESC, id DESC. A next
// cursor is returned when more rows exist beyond the requested page.
func (p *PgSQL) Reports(ctx context.Context,
	status domain.ReportStatus,
	cursor time.Time,
	limit uint) (storage.ReportPage, error) {
	w := []goqu.Expression{
		goqu.I("deleted_at").IsNull(),
	}
	if status != "" {
		w = append(w, goqu.I("status").Eq(string(status)))
	}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	// fetch one extra to determine if there is a next page
	fetch := limit + 1
	ds := p.Builder.From(reportsTable).
		Select(reportColumns...).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgReport
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.ReportPage{}, fmt.Errorf("could not fetch reports from pg: %w", err)
	}

	// if we fetched more than the limit, there is a next page
	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		trimmed := rows[:limit]
		nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		rows = trimmed
	}

	domainRows, err := pgReportsToDomain(rows)
	if err != nil {
		return storage.ReportPage{}, err
	}

	return storage.ReportPage{
		Reports:    domainRows,
		NextCursor: nextCursor,
	}, nil
}

// ReportByID returns a report by its ID, excluding soft-deleted rows.
func (p *PgSQL) ReportByID(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	var row PgReport
	found, err := p.Builder.From(reportsTable).
		Select(reportColumns...).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch report by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}
