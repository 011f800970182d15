package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"analyzer/pkg/domain"
	"analyzer/pkg/storage"
)

func TestPgSQL_StoreReport(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "records.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEqual(t, domain.ReportID{}, stored.ID)
	require.Equal(t, "records.xlsx", stored.Filename)
	require.Equal(t, domain.ReportStatusPending, stored.Status)
	require.False(t, stored.CreatedAt.IsZero())
	require.Empty(t, stored.Result.Operational)
}

func TestPgSQL_ReportUpload(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	upload := []byte("workbook bytes")
	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "records.xlsx",
		Status:   domain.ReportStatusPending,
	}, upload)
	require.NoError(t, err)

	got, err := pgSQL.ReportUpload(ctx, stored.ID)
	require.NoError(t, err)
	require.Equal(t, upload, got)

	// unknown report returns nil without error
	missing, err := pgSQL.ReportUpload(ctx, domain.ReportID(uuid.New()))
	require.NoError(t, err)
	require.Nil(t, missing)

	// clearing the upload makes it unavailable
	_, err = pgSQL.UpdateReportByID(ctx, stored.ID, storage.ReportUpdates{
		Status:      domain.ReportStatusCompleted,
		Result:      &domain.AnalysisResult{},
		ClearUpload: true,
	})
	require.NoError(t, err)

	cleared, err := pgSQL.ReportUpload(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, cleared)
}

func TestPgSQL_UpdateReportByID_Completed(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "records.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)

	empty := ""
	result := &domain.AnalysisResult{
		Operational: []domain.Record{{"Flock": "F1"}},
		Care:        []domain.Record{},
	}
	updated, err := pgSQL.UpdateReportByID(ctx, stored.ID, storage.ReportUpdates{
		Status:      domain.ReportStatusCompleted,
		Result:      result,
		LastError:   &empty,
		ClearUpload: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, domain.ReportStatusCompleted, updated.Status)
	require.EqualValues(t, 1, updated.Attempts)
	require.False(t, updated.UpdatedAt.IsZero())
	require.Empty(t, updated.LastError)
	require.Len(t, updated.Result.Operational, 1)

	// unknown report returns nil
	missing, err := pgSQL.UpdateReportByID(ctx, domain.ReportID(uuid.New()), storage.ReportUpdates{
		Status: domain.ReportStatusCompleted,
	})
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestPgSQL_UpdateReportByID_FailureRespectsAttemptBudget(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "records.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)

	msg := "boom"
	updates := storage.ReportUpdates{
		Status:      domain.ReportStatusFailed,
		LastError:   &msg,
		MaxAttempts: 3,
	}

	// first two failures keep the report pending so the job can retry
	for i := 1; i <= 2; i++ {
		updated, err := pgSQL.UpdateReportByID(ctx, stored.ID, updates)
		require.NoError(t, err)
		require.Equal(t, domain.ReportStatusPending, updated.Status)
		require.EqualValues(t, i, updated.Attempts)
		require.Equal(t, msg, updated.LastError)
	}

	// the third failure exhausts the budget
	updated, err := pgSQL.UpdateReportByID(ctx, stored.ID, updates)
	require.NoError(t, err)
	require.Equal(t, domain.ReportStatusFailed, updated.Status)
	require.EqualValues(t, 3, updated.Attempts)
}

func TestPgSQL_UpdateReportByID_PermanentFailure(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "records.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)

	// without an attempt budget the status flips immediately
	msg := "could not read Excel file"
	updated, err := pgSQL.UpdateReportByID(ctx, stored.ID, storage.ReportUpdates{
		Status:    domain.ReportStatusFailed,
		LastError: &msg,
	})
	require.NoError(t, err)
	require.Equal(t, domain.ReportStatusFailed, updated.Status)
	require.EqualValues(t, 1, updated.Attempts)
	require.Equal(t, msg, updated.LastError)
}

func TestPgSQL_DeleteReport(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "delete.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)

	deleted, err := pgSQL.DeleteReport(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	require.Equal(t, stored.ID, deleted.ID)

	// fetching by id should return nil
	got, err := pgSQL.ReportByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	// the upload is dropped together with the report
	upload, err := pgSQL.ReportUpload(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, upload)

	// deleting again should not error
	deleted2, err := pgSQL.DeleteReport(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, deleted2)
}

func TestPgSQL_Reports_PaginationAndStatusFilter(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored := make([]domain.Report, 0, 5)
	for i := 0; i < 5; i++ {
		res, err := pgSQL.StoreReport(ctx, domain.Report{
			Filename: "page.xlsx",
			Status:   domain.ReportStatusPending,
		}, []byte("workbook"))
		require.NoError(t, err)
		stored = append(stored, *res)
	}

	// adjust created_at to be deterministic descending: now, now-1m, ...
	now := time.Now().UTC()
	for i, r := range stored {
		created := now.Add(-time.Duration(4-i) * time.Minute)
		_, err := pgSQL.DB.ExecContext(ctx,
			"UPDATE reports SET created_at = $1 WHERE id = $2", created, uuid.UUID(r.ID))
		require.NoError(t, err)
	}

	// first page, limit 2
	p1, err := pgSQL.Reports(ctx, "", time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, p1.Reports, 2)
	require.NotNil(t, p1.NextCursor)

	// second page
	p2, err := pgSQL.Reports(ctx, "", *p1.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, p2.Reports, 2)
	require.NotNil(t, p2.NextCursor)

	// third (last) page, should have 1 left and no next cursor
	p3, err := pgSQL.Reports(ctx, "", *p2.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, p3.Reports, 1)
	require.Nil(t, p3.NextCursor)

	// mark one report completed and filter by status
	_, err = pgSQL.UpdateReportByID(ctx, stored[0].ID, storage.ReportUpdates{
		Status: domain.ReportStatusCompleted,
		Result: &domain.AnalysisResult{},
	})
	require.NoError(t, err)

	completed, err := pgSQL.Reports(ctx, domain.ReportStatusCompleted, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, completed.Reports, 1)
	require.Equal(t, stored[0].ID, completed.Reports[0].ID)

	pending, err := pgSQL.Reports(ctx, domain.ReportStatusPending, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, pending.Reports, 4)
}

func TestPgSQL_ReportByID(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	stored, err := pgSQL.StoreReport(ctx, domain.Report{
		Filename: "id.xlsx",
		Status:   domain.ReportStatusPending,
	}, []byte("workbook"))
	require.NoError(t, err)

	got, err := pgSQL.ReportByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, stored.ID, got.ID)

	missing, err := pgSQL.ReportByID(ctx, domain.ReportID(uuid.New()))
	require.NoError(t, err)
	require.Nil(t, missing)
}
