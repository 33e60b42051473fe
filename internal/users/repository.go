package users

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

// Repository abstracts account persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]User, int, error)
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*User, error)
	Create(ctx context.Context, u *User, passwordHash string) (*User, error)
	Update(ctx context.Context, scope tenancy.Scope, u *User) (*User, error)
	SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error
	ListEmails(ctx context.Context, scope tenancy.Scope, role string) ([]string, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, role, branch_id, is_active, created_at, updated_at`

// List returns accounts visible to the scope.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]User, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if page.Search != "" {
		args = append(args, "%"+strings.ToLower(page.Search)+"%")
		where = append(where, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		userColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// FindByID fetches one account within scope. A cross-branch id reads as
// not found, identical to a nonexistent one.
func (r *PGRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*User, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+strings.Join(where, " AND "), args...)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("user")
		}
		return nil, err
	}
	return u, nil
}

// Create inserts an account. The branch column stays NULL for super admins.
func (r *PGRepository) Create(ctx context.Context, u *User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, branch_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING `+userColumns,
		u.Email, u.Name, passwordHash, u.Role, nullableBranch(u.BranchID))
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("email already in use")
		}
		return nil, err
	}
	return created, nil
}

// Update rewrites the mutable account fields within scope.
func (r *PGRepository) Update(ctx context.Context, scope tenancy.Scope, u *User) (*User, error) {
	where := []string{"id = $1"}
	args := []any{u.ID}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, u.Name, u.Email)
	query := fmt.Sprintf(`UPDATE users SET name = $%d, email = $%d, updated_at = now() WHERE %s RETURNING %s`,
		len(args)-1, len(args), strings.Join(where, " AND "), userColumns)
	row := r.pool.QueryRow(ctx, query, args...)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("user")
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.Conflict("email already in use")
		}
		return nil, err
	}
	return updated, nil
}

// SetActive toggles an account within scope.
func (r *PGRepository) SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scope.Apply("branch_id", where, args)
	args = append(args, active)
	query := fmt.Sprintf(`UPDATE users SET is_active = $%d, updated_at = now() WHERE %s`,
		len(args), strings.Join(where, " AND "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("user")
	}
	return nil
}

// ListEmails returns the addresses of active accounts in scope, narrowed
// to one role when role is non-empty. Used by announcement fan-out.
func (r *PGRepository) ListEmails(ctx context.Context, scope tenancy.Scope, role string) ([]string, error) {
	where := []string{"is_active"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if role != "" {
		args = append(args, role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	rows, err := r.pool.Query(ctx,
		`SELECT email FROM users WHERE `+strings.Join(where, " AND ")+` ORDER BY email`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var branch sql.NullInt64
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &branch, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.BranchID = branch.Int64
	return &u, nil
}

func nullableBranch(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
