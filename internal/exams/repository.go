package exams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Filter narrows exam listings.
type Filter struct {
	ClassName string
	Subject   string
}

// Repository abstracts exam persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Exam, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Exam, error)
	Create(ctx context.Context, e *Exam) (*Exam, error)
	UpsertResult(ctx context.Context, res *Result) (*Result, error)
	ListResults(ctx context.Context, examID int64) ([]Result, error)
	ListResultsForStudent(ctx context.Context, studentID int64) ([]Result, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const examColumns = `id, branch_id, title, class_name, section, subject, exam_date, max_marks, created_at, updated_at`
const resultColumns = `id, exam_id, student_id, marks, grade, remarks, created_at, updated_at`

// List returns exams visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Exam, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		where = append(where, fmt.Sprintf("class_name = $%d", len(args)))
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		where = append(where, fmt.Sprintf("subject = $%d", len(args)))
	}
	if page.Search != "" {
		args = append(args, "%"+strings.ToLower(page.Search)+"%")
		where = append(where, fmt.Sprintf("lower(title) LIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM exams WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM exams WHERE %s ORDER BY exam_date DESC LIMIT $%d OFFSET $%d`,
		examColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Exam
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.BranchID, &e.Title, &e.ClassName, &e.Section, &e.Subject, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// FindByID fetches one exam within scope. A cross-branch id reads as not
// found, never as forbidden.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Exam, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	var e Exam
	err := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE `+strings.Join(where, " AND "), args...).
		Scan(&e.ID, &e.BranchID, &e.Title, &e.ClassName, &e.Section, &e.Subject, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("exam")
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts an exam.
func (r *PGRepository) Create(ctx context.Context, e *Exam) (*Exam, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (branch_id, title, class_name, section, subject, exam_date, max_marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+examColumns,
		e.BranchID, e.Title, e.ClassName, e.Section, e.Subject, e.ExamDate, e.MaxMarks).
		Scan(&e.ID, &e.BranchID, &e.Title, &e.ClassName, &e.Section, &e.Subject, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpsertResult inserts or replaces one student's marks for an exam.
func (r *PGRepository) UpsertResult(ctx context.Context, res *Result) (*Result, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (exam_id, student_id, marks, grade, remarks)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_id)
		 DO UPDATE SET marks = EXCLUDED.marks, grade = EXCLUDED.grade, remarks = EXCLUDED.remarks, updated_at = now()
		 RETURNING `+resultColumns,
		res.ExamID, res.StudentID, res.Marks, res.Grade, res.Remarks).
		Scan(&res.ID, &res.ExamID, &res.StudentID, &res.Marks, &res.Grade, &res.Remarks, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListResults returns every result for an exam.
func (r *PGRepository) ListResults(ctx context.Context, examID int64) ([]Result, error) {
	return r.queryResults(ctx, `SELECT `+resultColumns+` FROM exam_results WHERE exam_id = $1 ORDER BY student_id`, examID)
}

// ListResultsForStudent returns every result for a student.
func (r *PGRepository) ListResultsForStudent(ctx context.Context, studentID int64) ([]Result, error) {
	return r.queryResults(ctx, `SELECT `+resultColumns+` FROM exam_results WHERE student_id = $1 ORDER BY exam_id`, studentID)
}

func (r *PGRepository) queryResults(ctx context.Context, query string, arg any) ([]Result, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.ExamID, &res.StudentID, &res.Marks, &res.Grade, &res.Remarks, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
