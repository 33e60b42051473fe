package teachers

import (
	"context"
	"time"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Service wraps teacher management rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields needed to hire a teacher.
type CreateInput struct {
	BranchID        int64
	UserID          int64
	EmployeeNo      string
	Name            string
	Email           string
	BaseSalaryCents int64
	JoiningDate     time.Time
}

// List returns teachers visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, page shared.PageRequest) ([]Teacher, int, error) {
	list, total, err := s.repo.List(ctx, scope, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one teacher within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return teacher, nil
}

// Create hires a teacher, stamping the branch from the scope.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, in CreateInput) (*Teacher, error) {
	branchID, err := scope.BranchForCreate(in.BranchID)
	if err != nil {
		return nil, err
	}
	if in.BaseSalaryCents < 0 {
		return nil, shared.ValidationError("base salary must not be negative")
	}
	created, err := s.repo.Create(ctx, &Teacher{
		BranchID:        branchID,
		UserID:          in.UserID,
		EmployeeNo:      in.EmployeeNo,
		Name:            in.Name,
		Email:           in.Email,
		BaseSalaryCents: in.BaseSalaryCents,
		JoiningDate:     in.JoiningDate,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	return created, nil
}

// Update rewrites the mutable teacher fields within scope.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, t Teacher) (*Teacher, error) {
	if t.BaseSalaryCents < 0 {
		return nil, shared.ValidationError("base salary must not be negative")
	}
	updated, err := s.repo.Update(ctx, scope, &t)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return updated, nil
}

// Deactivate marks a teacher as terminated within scope.
func (s *Service) Deactivate(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return shared.AsError(err)
	}
	return nil
}
