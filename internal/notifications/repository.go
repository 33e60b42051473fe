package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Repository abstracts announcement persistence.
type Repository interface {
	Create(ctx context.Context, a *Announcement) (*Announcement, error)
	List(ctx context.Context, scope tenancy.Scope, audience string, page shared.PageRequest) ([]Announcement, int, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const announcementColumns = `id, branch_id, title, body, audience, created_by, created_at`

// Create inserts an announcement.
func (r *PGRepository) Create(ctx context.Context, a *Announcement) (*Announcement, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO announcements (branch_id, title, body, audience, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+announcementColumns,
		a.BranchID, a.Title, a.Body, a.Audience, a.CreatedBy).
		Scan(&a.ID, &a.BranchID, &a.Title, &a.Body, &a.Audience, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns announcements visible to the scope, newest first. A
// non-empty audience narrows to that role plus notices addressed to all.
func (r *PGRepository) List(ctx context.Context, scope tenancy.Scope, audience string, page shared.PageRequest) ([]Announcement, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	where, args = scope.Apply("branch_id", where, args)
	if audience != "" {
		args = append(args, audience)
		where = append(where, fmt.Sprintf("(audience = $%d OR audience = 'all')", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM announcements WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		announcementColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.BranchID, &a.Title, &a.Body, &a.Audience, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
