package students

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

// Repository abstracts student persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Student, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Student, error)
	FindByUserID(ctx context.Context, userID int64) (*Student, error)
	ListByGuardianEmail(ctx context.Context, email string) ([]Student, error)
	Create(ctx context.Context, s *Student) (*Student, error)
	Update(ctx context.Context, scope tenancy.Scope, s *Student) (*Student, error)
	SetPhotoURL(ctx context.Context, scope tenancy.Scope, id int64, url string) error
	SetIDCardURL(ctx context.Context, id int64, url string) error
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

const studentColumns = `id, branch_id, user_id, admission_no, name, email, guardian_name, guardian_email,
	class_name, section, photo_url, id_card_url, is_active, created_at, updated_at`

// List returns students visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Student, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		where = append(where, fmt.Sprintf("class_name = $%d", len(args)))
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		where = append(where, fmt.Sprintf("section = $%d", len(args)))
	}
	if page.Search != "" {
		args = append(args, "%"+strings.ToLower(page.Search)+"%")
		where = append(where, fmt.Sprintf("(lower(name) LIKE $%d OR lower(admission_no) LIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM students WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		studentColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// FindByID fetches one student within scope.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Student, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE `+strings.Join(where, " AND "), args...)
	s, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("student")
		}
		return nil, err
	}
	return s, nil
}

// FindByUserID resolves the enrolment record backing an account. Used when
// a student-role principal reads their own data.
func (r *PGRepository) FindByUserID(ctx context.Context, userID int64) (*Student, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE user_id = $1`, userID)
	s, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("student")
		}
		return nil, err
	}
	return s, nil
}

// ListByGuardianEmail returns the active students a guardian address is
// recorded against. Used when a parent-role principal reads their
// children's data.
func (r *PGRepository) ListByGuardianEmail(ctx context.Context, email string) ([]Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE guardian_email = $1 AND is_active ORDER BY id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Create inserts a student.
func (r *PGRepository) Create(ctx context.Context, s *Student) (*Student, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO students (branch_id, user_id, admission_no, name, email, guardian_name, guardian_email, class_name, section, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		 RETURNING `+studentColumns,
		s.BranchID, nullableID(s.UserID), s.AdmissionNo, s.Name, s.Email, s.GuardianName, s.GuardianEmail, s.ClassName, s.Section)
	created, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("admission number already in use")
		}
		return nil, err
	}
	return created, nil
}

// Update rewrites the mutable student fields within scope.
func (r *PGRepository) Update(ctx context.Context, scope tenancy.Scope, s *Student) (*Student, error) {
	where := []string{"id = $1"}
	args := []any{s.ID}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, s.Name, s.Email, s.GuardianName, s.GuardianEmail, s.ClassName, s.Section)
	n := len(args)
	query := fmt.Sprintf(
		`UPDATE students SET name = $%d, email = $%d, guardian_name = $%d, guardian_email = $%d,
		 class_name = $%d, section = $%d, updated_at = now()
		 WHERE %s RETURNING %s`,
		n-5, n-4, n-3, n-2, n-1, n, strings.Join(where, " AND "), studentColumns)
	row := r.pool.QueryRow(ctx, query, args...)
	updated, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("student")
		}
		return nil, err
	}
	return updated, nil
}

// SetPhotoURL records the stored photo location within scope.
func (r *PGRepository) SetPhotoURL(ctx context.Context, scope tenancy.Scope, id int64, url string) error {
	return r.setURL(ctx, scope, id, "photo_url", url)
}

// SetIDCardURL records the generated ID card location. The worker calls
// this without a request scope; the card job already resolved the student.
func (r *PGRepository) SetIDCardURL(ctx context.Context, id int64, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE students SET id_card_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("student")
	}
	return nil
}

// SetActive toggles a student within scope.
func (r *PGRepository) SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, active)
	query := fmt.Sprintf(`UPDATE students SET is_active = $%d, updated_at = now() WHERE %s`,
		len(args), strings.Join(where, " AND "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("student")
	}
	return nil
}

func (r *PGRepository) setURL(ctx context.Context, scope tenancy.Scope, id int64, column, url string) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, url)
	query := fmt.Sprintf(`UPDATE students SET %s = $%d, updated_at = now() WHERE %s`,
		column, len(args), strings.Join(where, " AND "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("student")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*Student, error) {
	var s Student
	var userID sql.NullInt64
	if err := row.Scan(&s.ID, &s.BranchID, &userID, &s.AdmissionNo, &s.Name, &s.Email, &s.GuardianName, &s.GuardianEmail,
		&s.ClassName, &s.Section, &s.PhotoURL, &s.IDCardURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.UserID = userID.Int64
	return &s, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
