package branches

import (
	"context"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Service wraps branch business rules. Writes are super-admin only, which
// the role gate enforces before the handler runs; reads are visible to a
// scoped principal only for their own branch.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns branches visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, page shared.PageRequest) ([]Branch, int, error) {
	if scope.Unrestricted() {
		list, total, err := s.repo.List(ctx, page)
		if err != nil {
			return nil, 0, shared.AsError(err)
		}
		return list, total, nil
	}
	branch, err := s.Get(ctx, scope, scope.BranchID())
	if err != nil {
		return nil, 0, err
	}
	return []Branch{*branch}, 1, nil
}

// Get fetches a branch the scope is allowed to see.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Branch, error) {
	if !scope.Allows(id) {
		return nil, shared.NotFound("branch")
	}
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return branch, nil
}

// Create inserts a new branch.
func (s *Service) Create(ctx context.Context, b Branch) (*Branch, error) {
	created, err := s.repo.Create(ctx, &b)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return created, nil
}

// Update rewrites a branch.
func (s *Service) Update(ctx context.Context, b Branch) (*Branch, error) {
	updated, err := s.repo.Update(ctx, &b)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return updated, nil
}

// Deactivate disables a branch without deleting its records.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return shared.AsError(err)
	}
	return nil
}
