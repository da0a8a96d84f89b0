package labdata

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reportArchiveRepoPG struct{ pool *pgxpool.Pool }

func NewReportArchiveRepoPG(pool *pgxpool.Pool) ReportArchiveRepository {
	return &reportArchiveRepoPG{pool: pool}
}

const reportCols = `id, patient_id, domain_count, abnormal_count, overall_summary, markdown, created_at`

func scanReport(row pgx.Row) (*ArchivedReport, error) {
	var rec ArchivedReport
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DomainCount, &rec.AbnormalCount,
		&rec.OverallSummary, &rec.Markdown, &rec.CreatedAt)
	return &rec, err
}

func (r *reportArchiveRepoPG) Create(ctx context.Context, rec *ArchivedReport) error {
	rec.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO report_archive (id, patient_id, domain_count, abnormal_count, overall_summary, markdown)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.DomainCount, rec.AbnormalCount, rec.OverallSummary, rec.Markdown,
	).Scan(&rec.CreatedAt)
}

func (r *reportArchiveRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ArchivedReport, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM report_archive WHERE id = $1`, id))
}

func (r *reportArchiveRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*ArchivedReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM report_archive WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM report_archive WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func (r *reportArchiveRepoPG) List(ctx context.Context, limit, offset int) ([]*ArchivedReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM report_archive`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM report_archive ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func collectReports(rows pgx.Rows, total int) ([]*ArchivedReport, int, error) {
	var items []*ArchivedReport
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}
