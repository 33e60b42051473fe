package payroll

import (
	"context"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica-erp/academica/internal/attendance"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	payslips map[string]*Payslip
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{payslips: make(map[string]*Payslip), nextID: 1}
}

func payslipKey(teacherID int64, year, month int) string {
	return fmt.Sprintf("%d/%d/%d", teacherID, year, month)
}

func (m *mockRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Payslip, int, error) {
	var out []Payslip
	for _, p := range m.payslips {
		if scope.Allows(p.BranchID) {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Payslip, error) {
	for _, p := range m.payslips {
		if p.ID == id && scope.Allows(p.BranchID) {
			return p, nil
		}
	}
	return nil, shared.NotFound("payslip")
}

func (m *mockRepository) Upsert(ctx context.Context, p *Payslip) (*Payslip, error) {
	key := payslipKey(p.TeacherID, p.Year, p.Month)
	if existing, ok := m.payslips[key]; ok {
		if existing.Status == StatusIssued {
			return nil, shared.Conflict("payslip already issued for this month")
		}
		p.ID = existing.ID
	} else {
		p.ID = m.nextID
		m.nextID++
	}
	m.payslips[key] = p
	return p, nil
}

func (m *mockRepository) SetPDFURL(ctx context.Context, id int64, url string) error {
	for _, p := range m.payslips {
		if p.ID == id {
			p.PDFURL = url
			return nil
		}
	}
	return shared.NotFound("payslip")
}

type mockTeachers struct {
	teachers map[int64]*teachers.Teacher
}

func (m *mockTeachers) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*teachers.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok || !scope.Allows(t.BranchID) {
		return nil, shared.NotFound("teacher")
	}
	return t, nil
}

type mockAbsences struct {
	summaries map[int64]*attendance.MonthlySummary
	err       error
}

func (m *mockAbsences) Summarize(ctx context.Context, subjectType string, subjectID int64, year, month int) (*attendance.MonthlySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if sum, ok := m.summaries[subjectID]; ok {
		return sum, nil
	}
	return &attendance.MonthlySummary{SubjectType: subjectType, SubjectID: subjectID, Year: year, Month: month}, nil
}

type mockEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{}, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

const branchNorth int64 = 2

func newFixture() (*Service, *mockRepository, *mockAbsences, *mockEnqueuer) {
	repo := newMockRepository()
	teacherz := &mockTeachers{teachers: map[int64]*teachers.Teacher{
		5: {ID: 5, BranchID: branchNorth, UserID: 7, BaseSalaryCents: 9000000, IsActive: true},
		6: {ID: 6, BranchID: branchNorth, BaseSalaryCents: 6000000, IsActive: true},
	}}
	absences := &mockAbsences{summaries: map[int64]*attendance.MonthlySummary{
		7: {UnapprovedAbsent: 2, AbsentDays: 3},
	}}
	enqueuer := &mockEnqueuer{}
	return NewService(repo, teacherz, absences, enqueuer, nil), repo, absences, enqueuer
}

func adminScope() tenancy.Scope {
	return tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: branchNorth})
}

// ============================================================================
// GENERATE
// ============================================================================

func TestGenerateDraft(t *testing.T) {
	svc, _, _, enqueuer := newFixture()

	slip, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30,
		AllowanceCents: 500000,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, slip.Status)
	assert.Equal(t, branchNorth, slip.BranchID)
	assert.Equal(t, int64(9000000), slip.BaseCents)
	assert.Equal(t, 2, slip.AbsentDays)
	assert.Equal(t, int64(300000), slip.PerDayCents)
	assert.Equal(t, int64(600000), slip.DeductionCents)
	assert.Equal(t, int64(8900000), slip.NetCents)

	// Drafts schedule nothing.
	assert.Empty(t, enqueuer.tasks)
}

func TestGenerateIssueSchedulesPDF(t *testing.T) {
	svc, _, _, enqueuer := newFixture()

	slip, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30, Issue: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, slip.Status)
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, "payroll:payslip_pdf", enqueuer.tasks[0].Type())
}

func TestGenerateTeacherWithoutAccount(t *testing.T) {
	svc, _, _, _ := newFixture()

	// Teacher 6 has no linked user account, so no staff attendance can
	// exist and no deductions accrue.
	slip, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 6, Year: 2026, Month: 3, WorkingDays: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, slip.AbsentDays)
	assert.Equal(t, int64(0), slip.DeductionCents)
	assert.Equal(t, int64(6000000), slip.NetCents)
}

func TestGenerateCrossBranchTeacherReadsNotFound(t *testing.T) {
	svc, _, _, _ := newFixture()
	otherScope := tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: 9})

	_, err := svc.Generate(context.Background(), otherScope, GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
}

func TestGenerateValidation(t *testing.T) {
	svc, _, _, _ := newFixture()

	cases := []GenerateInput{
		{TeacherID: 5, Year: 2026, Month: 0, WorkingDays: 30},
		{TeacherID: 5, Year: 2026, Month: 13, WorkingDays: 30},
		{TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 0},
		{TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 32},
		{TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30, AllowanceCents: -1},
		{TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30, BonusCents: -1},
	}
	for _, in := range cases {
		_, err := svc.Generate(context.Background(), adminScope(), in)
		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
	}
}

func TestGenerateRegenerateDraft(t *testing.T) {
	svc, repo, absences, _ := newFixture()

	first, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30,
	})
	require.NoError(t, err)

	// An approval landed between runs; the draft recomputes in place.
	absences.summaries[7] = &attendance.MonthlySummary{UnapprovedAbsent: 1}
	second, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(300000), second.DeductionCents)
	assert.Len(t, repo.payslips, 1)
}

func TestGenerateIssuedMonthConflicts(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30, Issue: true,
	})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), adminScope(), GenerateInput{
		TeacherID: 5, Year: 2026, Month: 3, WorkingDays: 30,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.AsError(err).Kind)
}
