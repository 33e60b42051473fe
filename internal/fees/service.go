package fees

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/tenancy"
	"github.com/academica-erp/academica/jobs"
)

// StudentSource loads students under the caller's scope.
type StudentSource interface {
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*students.Student, error)
}

// Service applies fee voucher and payment rules.
type Service struct {
	repo     Repository
	studentz StudentSource
	enqueuer jobs.Enqueuer
	logger   *slog.Logger
}

// NewService constructs a Service. enqueuer may be nil in tests, which
// disables side-effect scheduling.
func NewService(repo Repository, students StudentSource, enqueuer jobs.Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, studentz: students, enqueuer: enqueuer, logger: logger}
}

// CreateInput carries the fields needed to issue a voucher.
type CreateInput struct {
	BranchID  int64
	StudentID int64
	Items     []LineItem
	DueDate   time.Time
}

// PaymentInput carries one payment against a voucher.
type PaymentInput struct {
	AmountCents int64
	Method      string
	Reference   string
}

// List returns vouchers visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Voucher, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one voucher within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Voucher, error) {
	v, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return v, nil
}

// ForStudent lists a student's vouchers. Callers resolve the student
// under their own scope first.
func (s *Service) ForStudent(ctx context.Context, studentID int64) ([]Voucher, error) {
	list, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return list, nil
}

// Create issues a voucher, totalling the line items, and schedules the
// PDF render and email dispatch. The student is loaded under the
// caller's scope first, so a student in another branch reads as not
// found and no voucher can cross the tenant boundary.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, in CreateInput) (*Voucher, error) {
	branchID, err := scope.BranchForCreate(in.BranchID)
	if err != nil {
		return nil, err
	}
	student, err := s.studentz.FindByID(ctx, scope, in.StudentID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	if student.BranchID != branchID {
		return nil, shared.ValidationError("student belongs to a different branch")
	}
	if len(in.Items) == 0 {
		return nil, shared.ValidationError("at least one line item is required")
	}
	var total int64
	for _, item := range in.Items {
		if item.AmountCents <= 0 {
			return nil, shared.ValidationError("line item amounts must be positive")
		}
		total += item.AmountCents
	}
	voucher, err := s.repo.Create(ctx, &Voucher{
		BranchID:   branchID,
		StudentID:  student.ID,
		VoucherNo:  newVoucherNo(),
		Items:      in.Items,
		TotalCents: total,
		DueDate:    in.DueDate,
		Status:     StatusUnpaid,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	s.schedulePDF(ctx, voucher.ID)
	return voucher, nil
}

// RecordPayment applies a payment to a voucher within scope. Overpayment
// is rejected; the remainder is the ceiling.
func (s *Service) RecordPayment(ctx context.Context, scope tenancy.Scope, receivedBy, voucherID int64, in PaymentInput) (*Payment, *Voucher, error) {
	if in.AmountCents <= 0 {
		return nil, nil, shared.ValidationError("amount must be positive")
	}
	voucher, err := s.repo.FindByID(ctx, scope, voucherID)
	if err != nil {
		return nil, nil, shared.AsError(err)
	}
	switch voucher.Status {
	case StatusPaid:
		return nil, nil, shared.Conflict("voucher is already paid")
	case StatusCancelled:
		return nil, nil, shared.Conflict("voucher is cancelled")
	}
	if remaining := voucher.TotalCents - voucher.PaidCents; in.AmountCents > remaining {
		return nil, nil, shared.ValidationError("amount exceeds the outstanding balance")
	}
	payment, updated, err := s.repo.RecordPayment(ctx, &Payment{
		VoucherID:   voucher.ID,
		AmountCents: in.AmountCents,
		Method:      in.Method,
		Reference:   in.Reference,
		ReceivedBy:  receivedBy,
	})
	if err != nil {
		return nil, nil, shared.AsError(err)
	}
	return payment, updated, nil
}

// Payments lists a voucher's payments within scope.
func (s *Service) Payments(ctx context.Context, scope tenancy.Scope, voucherID int64) ([]Payment, error) {
	if _, err := s.repo.FindByID(ctx, scope, voucherID); err != nil {
		return nil, shared.AsError(err)
	}
	list, err := s.repo.ListPayments(ctx, voucherID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return list, nil
}

// Cancel voids an unpaid voucher within scope.
func (s *Service) Cancel(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.Cancel(ctx, scope, id); err != nil {
		return shared.AsError(err)
	}
	return nil
}

// Summarize aggregates the branch revenue position for a period, issuing
// the count and sum queries in parallel.
func (s *Service) Summarize(ctx context.Context, scope tenancy.Scope, period Period) (*Summary, error) {
	if period.To.Before(period.From) {
		return nil, shared.ValidationError("period end precedes its start")
	}
	var sum Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.repo.CountVouchers(gctx, scope, period)
		sum.VoucherCount = count
		return err
	})
	g.Go(func() error {
		collected, err := s.repo.SumCollected(gctx, scope, period)
		sum.CollectedCents = collected
		return err
	})
	g.Go(func() error {
		outstanding, err := s.repo.SumOutstanding(gctx, scope)
		sum.OutstandingCents = outstanding
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, shared.Upstream(err)
	}
	return &sum, nil
}

func (s *Service) schedulePDF(ctx context.Context, voucherID int64) {
	if s.enqueuer == nil {
		return
	}
	task, err := jobs.NewVoucherPDFTask(jobs.VoucherPDFPayload{VoucherID: voucherID})
	if err == nil {
		_, err = s.enqueuer.EnqueueContext(ctx, task)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("enqueue voucher pdf", slog.Int64("voucher_id", voucherID), slog.Any("error", err))
	}
}

func newVoucherNo() string {
	return "FV-" + strings.ToUpper(uuid.NewString()[:8])
}
