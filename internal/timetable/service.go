package timetable

import (
	"context"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Service wraps timetable rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns entries visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Entry, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Create adds an assignment, stamping the branch from the scope.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, e Entry) (*Entry, error) {
	branchID, err := scope.BranchForCreate(e.BranchID)
	if err != nil {
		return nil, err
	}
	if e.Weekday < 1 || e.Weekday > 7 {
		return nil, shared.ValidationError("weekday must be between 1 and 7")
	}
	if e.Period < 1 || e.Period > 12 {
		return nil, shared.ValidationError("period must be between 1 and 12")
	}
	e.BranchID = branchID
	created, err := s.repo.Create(ctx, &e)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return created, nil
}

// Delete removes an assignment within scope.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return shared.AsError(err)
	}
	return nil
}
