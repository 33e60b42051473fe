package timetable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Repository abstracts timetable persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Entry, int, error)
	Create(ctx context.Context, e *Entry) (*Entry, error)
	Delete(ctx context.Context, scope tenancy.Scope, id int64) error
	TeachesSubject(ctx context.Context, teacherID int64, className, section, subject string) (bool, error)
	TeachesClass(ctx context.Context, teacherID int64, className, section string) (bool, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const entryColumns = `id, branch_id, teacher_id, class_name, section, subject, weekday, period, created_at`

// List returns timetable entries visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Entry, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.TeacherID > 0 {
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		where = append(where, fmt.Sprintf("class_name = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM timetable_entries WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE %s ORDER BY weekday, period LIMIT $%d OFFSET $%d`,
		entryColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.BranchID, &e.TeacherID, &e.ClassName, &e.Section, &e.Subject, &e.Weekday, &e.Period, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Create inserts an entry.
func (r *PGRepository) Create(ctx context.Context, e *Entry) (*Entry, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO timetable_entries (branch_id, teacher_id, class_name, section, subject, weekday, period)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+entryColumns,
		e.BranchID, e.TeacherID, e.ClassName, e.Section, e.Subject, e.Weekday, e.Period).
		Scan(&e.ID, &e.BranchID, &e.TeacherID, &e.ClassName, &e.Section, &e.Subject, &e.Weekday, &e.Period, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("timetable slot already assigned")
		}
		return nil, err
	}
	return e, nil
}

// Delete removes an entry within scope.
func (r *PGRepository) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	tag, err := r.pool.Exec(ctx, `DELETE FROM timetable_entries WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("timetable entry")
	}
	return nil
}

// TeachesSubject reports whether any assignment binds the teacher to the
// class and subject. A blank section on either side matches every section.
func (r *PGRepository) TeachesSubject(ctx context.Context, teacherID int64, className, section, subject string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM timetable_entries
		   WHERE teacher_id = $1 AND class_name = $2 AND subject = $3
		     AND (section = '' OR $4 = '' OR section = $4)
		 )`,
		teacherID, className, subject, section).Scan(&ok)
	return ok, err
}

// TeachesClass reports whether any assignment binds the teacher to the
// class, regardless of subject.
func (r *PGRepository) TeachesClass(ctx context.Context, teacherID int64, className, section string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM timetable_entries
		   WHERE teacher_id = $1 AND class_name = $2
		     AND (section = '' OR $3 = '' OR section = $3)
		 )`,
		teacherID, className, section).Scan(&ok)
	return ok, err
}
