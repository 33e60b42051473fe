package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Filter narrows payslip listings.
type Filter struct {
	TeacherID int64
	Year      int
	Month     int
}

// Repository abstracts payslip persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Payslip, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Payslip, error)
	Upsert(ctx context.Context, p *Payslip) (*Payslip, error)
	SetPDFURL(ctx context.Context, id int64, url string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const payslipColumns = `id, branch_id, teacher_id, year, month, working_days, base_cents, allowance_cents, bonus_cents, per_day_cents, absent_days, deduction_cents, net_cents, status, pdf_url, created_at, updated_at`

// List returns payslips visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Payslip, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.TeacherID > 0 {
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		where = append(where, fmt.Sprintf("month = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM payslips WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM payslips WHERE %s ORDER BY year DESC, month DESC, teacher_id LIMIT $%d OFFSET $%d`,
		payslipColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// FindByID fetches one payslip within scope.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Payslip, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	row := r.pool.QueryRow(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE `+strings.Join(where, " AND "), args...)
	p, err := scanPayslip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("payslip")
	}
	return p, err
}

// Upsert writes a payslip, replacing a draft for the same teacher and
// month. An issued payslip is final and conflicts instead.
func (r *PGRepository) Upsert(ctx context.Context, p *Payslip) (*Payslip, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO payslips (branch_id, teacher_id, year, month, working_days, base_cents, allowance_cents, bonus_cents, per_day_cents, absent_days, deduction_cents, net_cents, status, pdf_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, '')
		 ON CONFLICT (teacher_id, year, month) WHERE status = 'draft'
		 DO UPDATE SET working_days = EXCLUDED.working_days,
		   base_cents = EXCLUDED.base_cents,
		   allowance_cents = EXCLUDED.allowance_cents,
		   bonus_cents = EXCLUDED.bonus_cents,
		   per_day_cents = EXCLUDED.per_day_cents,
		   absent_days = EXCLUDED.absent_days,
		   deduction_cents = EXCLUDED.deduction_cents,
		   net_cents = EXCLUDED.net_cents,
		   status = EXCLUDED.status,
		   updated_at = now()
		 RETURNING `+payslipColumns,
		p.BranchID, p.TeacherID, p.Year, p.Month, p.WorkingDays, p.BaseCents, p.AllowanceCents, p.BonusCents, p.PerDayCents, p.AbsentDays, p.DeductionCents, p.NetCents, p.Status)
	saved, err := scanPayslip(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("payslip already issued for this month")
		}
		return nil, err
	}
	return saved, nil
}

// SetPDFURL records the rendered payslip location. Called by the worker.
func (r *PGRepository) SetPDFURL(ctx context.Context, id int64, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payslips SET pdf_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("payslip")
	}
	return nil
}

func scanPayslip(row pgx.Row) (*Payslip, error) {
	var p Payslip
	err := row.Scan(&p.ID, &p.BranchID, &p.TeacherID, &p.Year, &p.Month, &p.WorkingDays, &p.BaseCents, &p.AllowanceCents, &p.BonusCents, &p.PerDayCents, &p.AbsentDays, &p.DeductionCents, &p.NetCents, &p.Status, &p.PDFURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
