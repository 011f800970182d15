package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"analyzer/internal/analyzer"
	mockanalyzer "analyzer/internal/analyzer/mock"
	"analyzer/internal/worker"
	"analyzer/pkg/domain"
	"analyzer/pkg/logger"
	"analyzer/pkg/serrors"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func makeJob(id int64, reportID string) *river.Job[analyzer.JobArgs] {
	return &river.Job[analyzer.JobArgs]{
		JobRow: &rivertype.JobRow{ID: id},
		Args:   analyzer.JobArgs{ReportID: reportID},
	}
}

func TestReportWorker_Work_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockanalyzer.NewMockService(ctrl)
	w := worker.NewReportWorker(mock)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ReportID(id)).Return(nil)

	require.NoError(t, w.Work(context.Background(), makeJob(1, id.String())))
}

func TestReportWorker_Work_InvalidIDCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockanalyzer.NewMockService(ctrl)
	w := worker.NewReportWorker(mock)

	err := w.Work(context.Background(), makeJob(2, "not-a-uuid"))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestReportWorker_Work_ConflictCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockanalyzer.NewMockService(ctrl)
	w := worker.NewReportWorker(mock)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ReportID(id)).
		Return(serrors.With(serrors.ErrConflict, "report no longer exists"))

	err := w.Work(context.Background(), makeJob(3, id.String()))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestReportWorker_Work_UnreadableWorkbookCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockanalyzer.NewMockService(ctrl)
	w := worker.NewReportWorker(mock)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ReportID(id)).
		Return(serrors.With(serrors.ErrBadRequest, "could not read Excel file"))

	err := w.Work(context.Background(), makeJob(4, id.String()))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestReportWorker_Work_TransientErrorRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockanalyzer.NewMockService(ctrl)
	w := worker.NewReportWorker(mock)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ReportID(id)).Return(errors.New("boom"))

	err := w.Work(context.Background(), makeJob(5, id.String()))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr, "transient errors must stay retryable")
}
