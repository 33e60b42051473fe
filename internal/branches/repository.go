package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
)

// Repository abstracts branch persistence.
type Repository interface {
	List(ctx context.Context, page shared.PageRequest) ([]Branch, int, error)
	FindByID(ctx context.Context, id int64) (*Branch, error)
	Create(ctx context.Context, b *Branch) (*Branch, error)
	Update(ctx context.Context, b *Branch) (*Branch, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const branchColumns = `id, name, code, address, phone, is_active, created_at, updated_at`

// List returns branches matching the page request.
func (r *PGRepository) List(ctx context.Context, page shared.PageRequest) ([]Branch, int, error) {
	where := "TRUE"
	args := []any{}
	if page.Search != "" {
		args = append(args, "%"+strings.ToLower(page.Search)+"%")
		where = "(lower(name) LIKE $1 OR lower(code) LIKE $1)"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM branches WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM branches WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		branchColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// FindByID fetches one branch.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("branch")
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a branch.
func (r *PGRepository) Create(ctx context.Context, b *Branch) (*Branch, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO branches (name, code, address, phone, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING `+branchColumns,
		b.Name, b.Code, b.Address, b.Phone).
		Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, translateConflict(err, "branch code already in use")
	}
	return b, nil
}

// Update rewrites the mutable branch fields.
func (r *PGRepository) Update(ctx context.Context, b *Branch) (*Branch, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE branches SET name = $2, code = $3, address = $4, phone = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+branchColumns,
		b.ID, b.Name, b.Code, b.Address, b.Phone).
		Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("branch")
		}
		return nil, translateConflict(err, "branch code already in use")
	}
	return b, nil
}

// SetActive toggles a branch.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE branches SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("branch")
	}
	return nil
}

// translateConflict maps a unique violation to a Conflict error.
func translateConflict(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.Conflict(message)
	}
	return err
}
