package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/academica-erp/academica/internal/auth"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Service wraps account management rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields needed to open an account.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	BranchID int64
}

// List returns accounts visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]User, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one account within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return user, nil
}

// Create opens an account. A scoped creator can only stamp their own
// branch and can never mint a super admin.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, in CreateInput) (*User, error) {
	if !shared.ValidRole(in.Role) {
		return nil, shared.ValidationError("unknown role %q", in.Role)
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, shared.ValidationError("password must be at least %d characters", auth.MinPasswordLength)
	}
	if in.Role == shared.RoleSuperAdmin {
		if !principal.IsSuperAdmin() {
			return nil, shared.Forbidden("only a super admin may create super admins")
		}
	}

	scope := tenancy.For(principal)
	branchID := int64(0)
	if in.Role != shared.RoleSuperAdmin {
		var err error
		branchID, err = scope.BranchForCreate(in.BranchID)
		if err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.Upstream(err)
	}
	created, err := s.repo.Create(ctx, &User{
		Email:    in.Email,
		Name:     in.Name,
		Role:     in.Role,
		BranchID: branchID,
	}, string(hash))
	if err != nil {
		return nil, shared.AsError(err)
	}
	return created, nil
}

// Update rewrites the name and email of an account within scope.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id int64, name, email string) (*User, error) {
	updated, err := s.repo.Update(ctx, scope, &User{ID: id, Name: name, Email: email})
	if err != nil {
		return nil, shared.AsError(err)
	}
	return updated, nil
}

// Deactivate disables an account within scope.
func (s *Service) Deactivate(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return shared.AsError(err)
	}
	return nil
}
