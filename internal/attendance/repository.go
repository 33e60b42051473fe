package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Repository abstracts attendance persistence.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) (*Record, error)
	ListForDay(ctx context.Context, scope tenancy.Scope, subjectType string, day time.Time) ([]Record, error)
	ListForSubject(ctx context.Context, subjectType string, subjectID int64, from, to time.Time) ([]Record, error)
	Summarize(ctx context.Context, subjectType string, subjectID int64, year, month int) (*MonthlySummary, error)
	Approve(ctx context.Context, scope tenancy.Scope, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `id, branch_id, subject_type, subject_id, date, status, approved, marked_by, created_at`

// Upsert records one day's status, replacing any earlier mark for the
// same person and day.
func (r *PGRepository) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records (branch_id, subject_type, subject_id, date, status, approved, marked_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (subject_type, subject_id, date)
		 DO UPDATE SET status = EXCLUDED.status, approved = EXCLUDED.approved, marked_by = EXCLUDED.marked_by
		 RETURNING `+recordColumns,
		rec.BranchID, rec.SubjectType, rec.SubjectID, rec.Date, rec.Status, rec.Approved, rec.MarkedBy).
		Scan(&rec.ID, &rec.BranchID, &rec.SubjectType, &rec.SubjectID, &rec.Date, &rec.Status, &rec.Approved, &rec.MarkedBy, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListForDay returns all records of one type for a day within scope.
func (r *PGRepository) ListForDay(ctx context.Context, scope tenancy.Scope, subjectType string, day time.Time) ([]Record, error) {
	where := []string{"subject_type = $1", "date = $2"}
	args := []any{subjectType, day}
	where, args = scope.Apply("branch_id", where, args)
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE `+strings.Join(where, " AND ")+` ORDER BY subject_id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListForSubject returns one person's records in a date range.
func (r *PGRepository) ListForSubject(ctx context.Context, subjectType string, subjectID int64, from, to time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE subject_type = $1 AND subject_id = $2 AND date >= $3 AND date <= $4
		 ORDER BY date`,
		subjectType, subjectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Summarize counts one person's statuses for a calendar month.
func (r *PGRepository) Summarize(ctx context.Context, subjectType string, subjectID int64, year, month int) (*MonthlySummary, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	sum := &MonthlySummary{SubjectType: subjectType, SubjectID: subjectID, Year: year, Month: month}
	err := r.pool.QueryRow(ctx,
		`SELECT
		   count(*) FILTER (WHERE status = 'present'),
		   count(*) FILTER (WHERE status = 'absent'),
		   count(*) FILTER (WHERE status = 'leave'),
		   count(*) FILTER (WHERE status = 'absent' AND NOT approved)
		 FROM attendance_records
		 WHERE subject_type = $1 AND subject_id = $2 AND date >= $3 AND date <= $4`,
		subjectType, subjectID, from, to).
		Scan(&sum.PresentDays, &sum.AbsentDays, &sum.LeaveDays, &sum.UnapprovedAbsent)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// Approve marks an absence or leave as approved within scope.
func (r *PGRepository) Approve(ctx context.Context, scope tenancy.Scope, id int64) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_records SET approved = TRUE WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("attendance record")
	}
	return nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.BranchID, &rec.SubjectType, &rec.SubjectID, &rec.Date, &rec.Status, &rec.Approved, &rec.MarkedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
