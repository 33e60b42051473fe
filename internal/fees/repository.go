package fees

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/platform/db"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Filter narrows voucher listings.
type Filter struct {
	StudentID int64
	Status    string
}

// Period bounds a summary query, inclusive on both ends.
type Period struct {
	From time.Time
	To   time.Time
}

// Repository abstracts fee persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Voucher, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Voucher, error)
	ListForStudent(ctx context.Context, studentID int64) ([]Voucher, error)
	Create(ctx context.Context, v *Voucher) (*Voucher, error)
	RecordPayment(ctx context.Context, p *Payment) (*Payment, *Voucher, error)
	ListPayments(ctx context.Context, voucherID int64) ([]Payment, error)
	SetPDFURL(ctx context.Context, id int64, url string) error
	Cancel(ctx context.Context, scope tenancy.Scope, id int64) error
	CountVouchers(ctx context.Context, scope tenancy.Scope, period Period) (int, error)
	SumCollected(ctx context.Context, scope tenancy.Scope, period Period) (int64, error)
	SumOutstanding(ctx context.Context, scope tenancy.Scope) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const voucherColumns = `id, branch_id, student_id, voucher_no, items, total_cents, paid_cents, due_date, status, pdf_url, created_at, updated_at`

// List returns vouchers visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Voucher, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.StudentID > 0 {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM fee_vouchers WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM fee_vouchers WHERE %s ORDER BY due_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		voucherColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanVouchers(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByID fetches one voucher within scope.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Voucher, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	row := r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM fee_vouchers WHERE `+strings.Join(where, " AND "), args...)
	v, err := scanVoucher(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("voucher")
	}
	return v, err
}

// ListForStudent returns every voucher issued against a student.
func (r *PGRepository) ListForStudent(ctx context.Context, studentID int64) ([]Voucher, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+voucherColumns+` FROM fee_vouchers WHERE student_id = $1 ORDER BY due_date DESC, id DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVouchers(rows)
}

// Create inserts a voucher.
func (r *PGRepository) Create(ctx context.Context, v *Voucher) (*Voucher, error) {
	items, err := json.Marshal(v.Items)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO fee_vouchers (branch_id, student_id, voucher_no, items, total_cents, paid_cents, due_date, status, pdf_url)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7, '')
		 RETURNING `+voucherColumns,
		v.BranchID, v.StudentID, v.VoucherNo, items, v.TotalCents, v.DueDate, v.Status)
	created, err := scanVoucher(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("voucher number already issued")
		}
		return nil, err
	}
	return created, nil
}

// RecordPayment inserts a payment and moves the voucher's paid total and
// status in the same transaction.
func (r *PGRepository) RecordPayment(ctx context.Context, p *Payment) (*Payment, *Voucher, error) {
	var voucher *Voucher
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO fee_payments (voucher_id, amount_cents, method, reference, received_by)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, voucher_id, amount_cents, method, reference, received_by, paid_at`,
			p.VoucherID, p.AmountCents, p.Method, p.Reference, p.ReceivedBy).
			Scan(&p.ID, &p.VoucherID, &p.AmountCents, &p.Method, &p.Reference, &p.ReceivedBy, &p.PaidAt)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`UPDATE fee_vouchers
			 SET paid_cents = paid_cents + $2,
			     status = CASE
			       WHEN paid_cents + $2 >= total_cents THEN 'paid'
			       ELSE 'partial'
			     END,
			     updated_at = now()
			 WHERE id = $1
			 RETURNING `+voucherColumns,
			p.VoucherID, p.AmountCents)
		voucher, err = scanVoucher(row)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return p, voucher, nil
}

// ListPayments returns a voucher's payments, oldest first.
func (r *PGRepository) ListPayments(ctx context.Context, voucherID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, voucher_id, amount_cents, method, reference, received_by, paid_at
		 FROM fee_payments WHERE voucher_id = $1 ORDER BY paid_at`,
		voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.VoucherID, &p.AmountCents, &p.Method, &p.Reference, &p.ReceivedBy, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPDFURL records the rendered voucher location. Called by the worker,
// which runs outside any request scope.
func (r *PGRepository) SetPDFURL(ctx context.Context, id int64, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE fee_vouchers SET pdf_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("voucher")
	}
	return nil
}

// Cancel voids an unpaid voucher within scope.
func (r *PGRepository) Cancel(ctx context.Context, scope tenancy.Scope, id int64) error {
	where := []string{"id = $1", "status = 'unpaid'"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	tag, err := r.pool.Exec(ctx,
		`UPDATE fee_vouchers SET status = 'cancelled', updated_at = now() WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("voucher")
	}
	return nil
}

// CountVouchers counts vouchers issued within the period.
func (r *PGRepository) CountVouchers(ctx context.Context, scope tenancy.Scope, period Period) (int, error) {
	where := []string{"created_at >= $1", "created_at <= $2", "status <> 'cancelled'"}
	args := []any{period.From, period.To}
	where, args = scope.Apply("branch_id", where, args)
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM fee_vouchers WHERE `+strings.Join(where, " AND "), args...).Scan(&count)
	return count, err
}

// SumCollected totals payments received within the period.
func (r *PGRepository) SumCollected(ctx context.Context, scope tenancy.Scope, period Period) (int64, error) {
	where := []string{"p.paid_at >= $1", "p.paid_at <= $2"}
	args := []any{period.From, period.To}
	where, args = scope.Apply("v.branch_id", where, args)
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(p.amount_cents), 0)
		 FROM fee_payments p JOIN fee_vouchers v ON v.id = p.voucher_id
		 WHERE `+strings.Join(where, " AND "), args...).Scan(&sum)
	return sum, err
}

// SumOutstanding totals the unpaid remainder across live vouchers.
func (r *PGRepository) SumOutstanding(ctx context.Context, scope tenancy.Scope) (int64, error) {
	where := []string{"status IN ('unpaid', 'partial')"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(total_cents - paid_cents), 0) FROM fee_vouchers WHERE `+strings.Join(where, " AND "), args...).Scan(&sum)
	return sum, err
}

func scanVoucher(row pgx.Row) (*Voucher, error) {
	var v Voucher
	var items []byte
	err := row.Scan(&v.ID, &v.BranchID, &v.StudentID, &v.VoucherNo, &items, &v.TotalCents, &v.PaidCents, &v.DueDate, &v.Status, &v.PDFURL, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &v.Items); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func scanVouchers(rows pgx.Rows) ([]Voucher, error) {
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
