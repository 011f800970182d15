package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"analyzer/pkg/domain"
)

type PgReport struct {
	ID uuid.UUID `db:"id" goqu:"skipinsert"`

	Filename string          `db:"filename"`
	Status   string          `db:"status"`
	Result   json.RawMessage `db:"result" goqu:"skipinsert"`

	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgReport) ToDomain() (*domain.Report, error) {
	var result domain.AnalysisResult
	if len(p.Result) > 0 {
		if err := json.Unmarshal(p.Result, &result); err != nil {
			return nil, fmt.Errorf("could not unmarshal analysis result: %w", err)
		}
	}

	return &domain.Report{
		ID:        domain.ReportID(p.ID),
		Filename:  p.Filename,
		Status:    domain.ReportStatus(p.Status),
		Result:    result,
		Attempts:  p.Attempts,
		LastError: p.LastError.String,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt.Time,
		DeletedAt: p.DeletedAt.Time,
	}, nil
}

func (p *PgReport) FromDomain(report domain.Report) {
	*p = PgReport{
		ID:       uuid.UUID(report.ID),
		Filename: report.Filename,
		Status:   string(report.Status),
		Attempts: report.Attempts,
		LastError: sql.NullString{
			String: report.LastError,
			Valid:  report.LastError != "",
		},
		CreatedAt: report.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  report.UpdatedAt,
			Valid: !report.UpdatedAt.IsZero(),
		},
		DeletedAt: sql.NullTime{
			Time:  report.DeletedAt,
			Valid: !report.DeletedAt.IsZero(),
		},
	}
}

// pgReportInsert carries the columns written on insert, including the raw
// upload which is never echoed back on reads.
type pgReportInsert struct {
	Filename string `db:"filename"`
	Status   string `db:"status"`
	Upload   []byte `db:"upload"`
}

func pgReportsToDomain(reports []PgReport) ([]domain.Report, error) {
	out := make([]domain.Report, 0, len(reports))
	for i := range reports {
		d, err := reports[i].ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
