package payroll

import (
	"context"
	"log/slog"

	"github.com/academica-erp/academica/internal/attendance"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
	"github.com/academica-erp/academica/jobs"
)

// TeacherSource loads teachers under the caller's scope.
type TeacherSource interface {
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*teachers.Teacher, error)
}

// AbsenceSource summarizes a person's attendance month. Satisfied by the
// attendance repository.
type AbsenceSource interface {
	Summarize(ctx context.Context, subjectType string, subjectID int64, year, month int) (*attendance.MonthlySummary, error)
}

// Service computes and issues payslips.
type Service struct {
	repo     Repository
	teacherz TeacherSource
	absences AbsenceSource
	enqueuer jobs.Enqueuer
	logger   *slog.Logger
}

// NewService constructs a Service. enqueuer may be nil in tests, which
// disables side-effect scheduling.
func NewService(repo Repository, teachers TeacherSource, absences AbsenceSource, enqueuer jobs.Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, teacherz: teachers, absences: absences, enqueuer: enqueuer, logger: logger}
}

// GenerateInput carries the variable parts of a month's payslip; the
// base comes from the teacher record and the absences from attendance.
type GenerateInput struct {
	TeacherID      int64
	Year           int
	Month          int
	WorkingDays    int
	AllowanceCents int64
	BonusCents     int64
	Issue          bool
}

// List returns payslips visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Payslip, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one payslip within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Payslip, error) {
	p, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return p, nil
}

// Generate computes a teacher's payslip for a month. The teacher is
// loaded under the caller's scope, so cross-branch ids read as not
// found. Unapproved absences come from the staff attendance records tied
// to the teacher's user account; a teacher with no account accrues no
// deductions. When Issue is set the slip is finalised and the PDF and
// email dispatch are scheduled.
func (s *Service) Generate(ctx context.Context, scope tenancy.Scope, in GenerateInput) (*Payslip, error) {
	if in.Month < 1 || in.Month > 12 {
		return nil, shared.ValidationError("month must be between 1 and 12")
	}
	if in.WorkingDays < 1 || in.WorkingDays > 31 {
		return nil, shared.ValidationError("working_days must be between 1 and 31")
	}
	if in.AllowanceCents < 0 || in.BonusCents < 0 {
		return nil, shared.ValidationError("allowance and bonus must not be negative")
	}

	teacher, err := s.teacherz.FindByID(ctx, scope, in.TeacherID)
	if err != nil {
		return nil, shared.AsError(err)
	}

	absentDays := 0
	if teacher.UserID > 0 {
		sum, err := s.absences.Summarize(ctx, attendance.SubjectStaff, teacher.UserID, in.Year, in.Month)
		if err != nil {
			return nil, shared.Upstream(err)
		}
		absentDays = sum.UnapprovedAbsent
	}

	slip := &Payslip{
		BranchID:       teacher.BranchID,
		TeacherID:      teacher.ID,
		Year:           in.Year,
		Month:          in.Month,
		WorkingDays:    in.WorkingDays,
		BaseCents:      teacher.BaseSalaryCents,
		AllowanceCents: in.AllowanceCents,
		BonusCents:     in.BonusCents,
		AbsentDays:     absentDays,
		Status:         StatusDraft,
	}
	if in.Issue {
		slip.Status = StatusIssued
	}
	slip.Compute()

	saved, err := s.repo.Upsert(ctx, slip)
	if err != nil {
		return nil, shared.AsError(err)
	}
	if saved.Status == StatusIssued {
		s.schedulePDF(ctx, saved.ID)
	}
	return saved, nil
}

func (s *Service) schedulePDF(ctx context.Context, payslipID int64) {
	if s.enqueuer == nil {
		return
	}
	task, err := jobs.NewPayslipPDFTask(jobs.PayslipPDFPayload{PayslipID: payslipID})
	if err == nil {
		_, err = s.enqueuer.EnqueueContext(ctx, task)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("enqueue payslip pdf", slog.Int64("payslip_id", payslipID), slog.Any("error", err))
	}
}
