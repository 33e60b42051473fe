package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	records map[string]*Record
	nextID  int64

	upsertCalls  int
	upsertError  error
	approveError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[string]*Record), nextID: 1}
}

func recordKey(subjectType string, subjectID int64, day time.Time) string {
	return fmt.Sprintf("%s/%d/%s", subjectType, subjectID, day.Format("2006-01-02"))
}

func (m *mockRepository) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	m.upsertCalls++
	if m.upsertError != nil {
		return nil, m.upsertError
	}
	key := recordKey(rec.SubjectType, rec.SubjectID, rec.Date)
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = m.nextID
		m.nextID++
	}
	m.records[key] = rec
	return rec, nil
}

func (m *mockRepository) ListForDay(ctx context.Context, scope tenancy.Scope, subjectType string, day time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range m.records {
		if rec.SubjectType == subjectType && rec.Date.Equal(day) && scope.Allows(rec.BranchID) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockRepository) ListForSubject(ctx context.Context, subjectType string, subjectID int64, from, to time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range m.records {
		if rec.SubjectType == subjectType && rec.SubjectID == subjectID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockRepository) Summarize(ctx context.Context, subjectType string, subjectID int64, year, month int) (*MonthlySummary, error) {
	sum := &MonthlySummary{SubjectType: subjectType, SubjectID: subjectID, Year: year, Month: month}
	for _, rec := range m.records {
		if rec.SubjectType != subjectType || rec.SubjectID != subjectID {
			continue
		}
		if rec.Date.Year() != year || int(rec.Date.Month()) != month {
			continue
		}
		switch rec.Status {
		case StatusPresent:
			sum.PresentDays++
		case StatusAbsent:
			sum.AbsentDays++
			if !rec.Approved {
				sum.UnapprovedAbsent++
			}
		case StatusLeave:
			sum.LeaveDays++
		}
	}
	return sum, nil
}

func (m *mockRepository) Approve(ctx context.Context, scope tenancy.Scope, id int64) error {
	if m.approveError != nil {
		return m.approveError
	}
	for _, rec := range m.records {
		if rec.ID == id && scope.Allows(rec.BranchID) {
			rec.Approved = true
			return nil
		}
	}
	return shared.NotFound("attendance record")
}

type mockRoster struct {
	classes map[string]bool
	err     error
}

func (m *mockRoster) TeachesClass(ctx context.Context, teacherID int64, className, section string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.classes[fmt.Sprintf("%d/%s/%s", teacherID, className, section)], nil
}

type mockTeachers struct {
	byUserID map[int64]*teachers.Teacher
}

func (m *mockTeachers) FindByUserID(ctx context.Context, userID int64) (*teachers.Teacher, error) {
	t, ok := m.byUserID[userID]
	if !ok {
		return nil, shared.NotFound("teacher")
	}
	return t, nil
}

type mockStudents struct {
	students map[int64]*students.Student
}

func (m *mockStudents) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*students.Student, error) {
	s, ok := m.students[id]
	if !ok || !scope.Allows(s.BranchID) {
		return nil, shared.NotFound("student")
	}
	return s, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

const (
	branchNorth int64 = 2
	branchSouth int64 = 3
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newFixture() (*Service, *mockRepository, *mockRoster) {
	repo := newMockRepository()
	roster := &mockRoster{classes: map[string]bool{"5/8/A": true}}
	teacherz := &mockTeachers{byUserID: map[int64]*teachers.Teacher{
		7: {ID: 5, BranchID: branchNorth, UserID: 7},
	}}
	studentz := &mockStudents{students: map[int64]*students.Student{
		20: {ID: 20, BranchID: branchNorth, ClassName: "8", Section: "A"},
		21: {ID: 21, BranchID: branchNorth, ClassName: "8", Section: "A"},
		22: {ID: 22, BranchID: branchNorth, ClassName: "9", Section: "B"},
		23: {ID: 23, BranchID: branchSouth, ClassName: "8", Section: "A"},
	}}
	return NewService(repo, roster, teacherz, studentz), repo, roster
}

func teacherPrincipal() *shared.Principal {
	return &shared.Principal{UserID: 7, Role: shared.RoleTeacher, BranchID: branchNorth}
}

// ============================================================================
// MARK SHEET
// ============================================================================

func TestMarkSheet(t *testing.T) {
	svc, repo, _ := newFixture()

	records, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{
			{StudentID: 20, Status: StatusPresent},
			{StudentID: 21, Status: StatusAbsent},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, repo.upsertCalls)
	assert.Equal(t, branchNorth, records[0].BranchID)
	assert.Equal(t, SubjectStudent, records[0].SubjectType)
	assert.Equal(t, int64(7), records[0].MarkedBy)
}

func TestMarkSheetUnassignedClassForbidden(t *testing.T) {
	svc, repo, roster := newFixture()
	roster.classes = nil

	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 20, Status: StatusPresent}},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestMarkSheetNoTeacherRecordForbidden(t *testing.T) {
	svc, repo, _ := newFixture()

	principal := &shared.Principal{UserID: 99, Role: shared.RoleTeacher, BranchID: branchNorth}
	_, err := svc.MarkSheet(context.Background(), principal, MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 20, Status: StatusPresent}},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestMarkSheetCrossBranchStudentReadsNotFound(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 23, Status: StatusPresent}},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestMarkSheetStudentOutsideClass(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 22, Status: StatusPresent}},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}

func TestMarkSheetUnknownStatus(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 20, Status: "tardy"}},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestMarkSheetRejectedEntryWritesNothing(t *testing.T) {
	svc, repo, _ := newFixture()

	// The bad entry comes second; the valid first entry must not be
	// persisted either.
	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{
			{StudentID: 20, Status: StatusPresent},
			{StudentID: 21, Status: "tardy"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
	assert.Empty(t, repo.records)
}

func TestMarkSheetCrossBranchEntryWritesNothing(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{
			{StudentID: 20, Status: StatusPresent},
			{StudentID: 23, Status: StatusPresent},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestMarkSheetResubmissionOverwrites(t *testing.T) {
	svc, repo, _ := newFixture()

	in := MarkSheetInput{
		ClassName: "8", Section: "A", Date: day,
		Entries: []MarkEntry{{StudentID: 20, Status: StatusAbsent}},
	}
	_, err := svc.MarkSheet(context.Background(), teacherPrincipal(), in)
	require.NoError(t, err)

	in.Entries[0].Status = StatusPresent
	records, err := svc.MarkSheet(context.Background(), teacherPrincipal(), in)
	require.NoError(t, err)

	// Same record id, day corrected rather than duplicated.
	assert.Equal(t, StatusPresent, records[0].Status)
	assert.Len(t, repo.records, 1)
}

// ============================================================================
// STAFF AND SUMMARIES
// ============================================================================

func TestMarkStaff(t *testing.T) {
	svc, _, _ := newFixture()
	admin := &shared.Principal{UserID: 3, Role: shared.RoleBranchAdmin, BranchID: branchNorth}

	rec, err := svc.MarkStaff(context.Background(), admin, 7, day, StatusLeave, true)
	require.NoError(t, err)
	assert.Equal(t, SubjectStaff, rec.SubjectType)
	assert.Equal(t, int64(7), rec.SubjectID)
	assert.Equal(t, branchNorth, rec.BranchID)
	assert.True(t, rec.Approved)
}

func TestMonthlyCountsUnapprovedAbsences(t *testing.T) {
	svc, repo, _ := newFixture()

	for dayOfMonth, status := range map[int]string{
		2: StatusPresent,
		3: StatusAbsent,
		4: StatusAbsent,
		5: StatusLeave,
	} {
		_, err := repo.Upsert(context.Background(), &Record{
			BranchID: branchNorth, SubjectType: SubjectStaff, SubjectID: 7,
			Date:   time.Date(2026, 3, dayOfMonth, 0, 0, 0, 0, time.UTC),
			Status: status, Approved: dayOfMonth == 3,
		})
		require.NoError(t, err)
	}

	sum, err := svc.Monthly(context.Background(), SubjectStaff, 7, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.PresentDays)
	assert.Equal(t, 2, sum.AbsentDays)
	assert.Equal(t, 1, sum.LeaveDays)
	assert.Equal(t, 1, sum.UnapprovedAbsent)
}

func TestMonthlyRejectsBadMonth(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.Monthly(context.Background(), SubjectStaff, 7, 2026, 13)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}

func TestDayRejectsUnknownSubjectType(t *testing.T) {
	svc, _, _ := newFixture()
	scope := tenancy.ForBranch(branchNorth)

	_, err := svc.Day(context.Background(), scope, "visitor", day)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}
