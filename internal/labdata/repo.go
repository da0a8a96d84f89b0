package labdata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ArchivedReport maps to the report_archive table. One row per synthesis run
// when persistence is enabled.
type ArchivedReport struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      string    `db:"patient_id" json:"patient_id"`
	DomainCount    int       `db:"domain_count" json:"domain_count"`
	AbnormalCount  int       `db:"abnormal_count" json:"abnormal_count"`
	OverallSummary string    `db:"overall_summary" json:"overall_summary"`
	Markdown       string    `db:"markdown" json:"markdown"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type ReportArchiveRepository interface {
	Create(ctx context.Context, rec *ArchivedReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*ArchivedReport, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*ArchivedReport, int, error)
	List(ctx context.Context, limit, offset int) ([]*ArchivedReport, int, error)
}
