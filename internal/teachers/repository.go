package teachers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Repository abstracts teacher persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, page shared.PageRequest) ([]Teacher, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Teacher, error)
	FindByUserID(ctx context.Context, userID int64) (*Teacher, error)
	Create(ctx context.Context, t *Teacher) (*Teacher, error)
	Update(ctx context.Context, scope tenancy.Scope, t *Teacher) (*Teacher, error)
	SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const teacherColumns = `id, branch_id, user_id, employee_no, name, email, base_salary_cents,
	joining_date, is_active, created_at, updated_at`

// List returns teachers visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, page shared.PageRequest) ([]Teacher, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if page.Search != "" {
		args = append(args, "%"+strings.ToLower(page.Search)+"%")
		where = append(where, fmt.Sprintf("(lower(name) LIKE $%d OR lower(employee_no) LIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM teachers WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		teacherColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// FindByID fetches one teacher within scope.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Teacher, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	row := r.pool.QueryRow(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE `+strings.Join(where, " AND "), args...)
	t, err := scanTeacher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("teacher")
		}
		return nil, err
	}
	return t, nil
}

// FindByUserID resolves the teacher record backing an account. Used when a
// teacher-role principal acts on their own resources.
func (r *PGRepository) FindByUserID(ctx context.Context, userID int64) (*Teacher, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE user_id = $1`, userID)
	t, err := scanTeacher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("teacher")
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a teacher.
func (r *PGRepository) Create(ctx context.Context, t *Teacher) (*Teacher, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO teachers (branch_id, user_id, employee_no, name, email, base_salary_cents, joining_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		 RETURNING `+teacherColumns,
		t.BranchID, nullableID(t.UserID), t.EmployeeNo, t.Name, t.Email, t.BaseSalaryCents, t.JoiningDate)
	created, err := scanTeacher(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("employee number already in use")
		}
		return nil, err
	}
	return created, nil
}

// Update rewrites the mutable teacher fields within scope.
func (r *PGRepository) Update(ctx context.Context, scope tenancy.Scope, t *Teacher) (*Teacher, error) {
	where := []string{"id = $1"}
	args := []any{t.ID}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, t.Name, t.Email, t.BaseSalaryCents)
	n := len(args)
	query := fmt.Sprintf(
		`UPDATE teachers SET name = $%d, email = $%d, base_salary_cents = $%d, updated_at = now()
		 WHERE %s RETURNING %s`,
		n-2, n-1, n, strings.Join(where, " AND "), teacherColumns)
	row := r.pool.QueryRow(ctx, query, args...)
	updated, err := scanTeacher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("teacher")
		}
		return nil, err
	}
	return updated, nil
}

// SetActive toggles a teacher within scope.
func (r *PGRepository) SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, active)
	query := fmt.Sprintf(`UPDATE teachers SET is_active = $%d, updated_at = now() WHERE %s`,
		len(args), strings.Join(where, " AND "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("teacher")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeacher(row rowScanner) (*Teacher, error) {
	var t Teacher
	var userID sql.NullInt64
	if err := row.Scan(&t.ID, &t.BranchID, &userID, &t.EmployeeNo, &t.Name, &t.Email, &t.BaseSalaryCents,
		&t.JoiningDate, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.UserID = userID.Int64
	return &t, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
