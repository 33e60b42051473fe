package exams

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
	exams   map[int64]*Exam
	results map[int64][]Result
	nextID  int64

	upsertCalls      int
	upsertResultErr  error
	listResultsError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		exams:   make(map[int64]*Exam),
		results: make(map[int64][]Result),
		nextID:  1,
	}
}

func (m *mockRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Exam, int, error) {
	var out []Exam
	for _, e := range m.exams {
		if scope.Allows(e.BranchID) {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*Exam, error) {
	e, ok := m.exams[id]
	if !ok || !scope.Allows(e.BranchID) {
		return nil, shared.NotFound("exam")
	}
	return e, nil
}

func (m *mockRepository) Create(ctx context.Context, e *Exam) (*Exam, error) {
	e.ID = m.nextID
	m.nextID++
	m.exams[e.ID] = e
	return e, nil
}

func (m *mockRepository) UpsertResult(ctx context.Context, res *Result) (*Result, error) {
	m.upsertCalls++
	if m.upsertResultErr != nil {
		return nil, m.upsertResultErr
	}
	res.ID = m.nextID
	m.nextID++
	m.results[res.ExamID] = append(m.results[res.ExamID], *res)
	return res, nil
}

func (m *mockRepository) ListResults(ctx context.Context, examID int64) ([]Result, error) {
	if m.listResultsError != nil {
		return nil, m.listResultsError
	}
	return m.results[examID], nil
}

func (m *mockRepository) ListResultsForStudent(ctx context.Context, studentID int64) ([]Result, error) {
	var out []Result
	for _, list := range m.results {
		for _, r := range list {
			if r.StudentID == studentID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type mockTimetable struct {
	assignments map[string]bool
	err         error
}

func (m *mockTimetable) TeachesSubject(ctx context.Context, teacherID int64, className, section, subject string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.assignments[assignmentKey(teacherID, className, section, subject)], nil
}

func assignmentKey(teacherID int64, className, section, subject string) string {
	return fmt.Sprintf("%d/%s/%s/%s", teacherID, className, section, subject)
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

func newFixture() (*Service, *mockRepository, *mockTimetable) {
	repo := newMockRepository()
	repo.exams[10] = &Exam{
		ID: 10, BranchID: branchNorth,
		Title: "Midterm Mathematics", ClassName: "8", Section: "A",
		Subject: "Mathematics", ExamDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		MaxMarks: 100,
	}
	repo.exams[11] = &Exam{
		ID: 11, BranchID: branchSouth,
		Title: "Midterm Mathematics", ClassName: "8", Section: "A",
		Subject: "Mathematics", MaxMarks: 100,
	}

	timetable := &mockTimetable{assignments: map[string]bool{
		assignmentKey(5, "8", "A", "Mathematics"): true,
	}}
	teacherz := &mockTeachers{byUserID: map[int64]*teachers.Teacher{
		7: {ID: 5, BranchID: branchNorth, UserID: 7, Name: "T. Rahman"},
	}}
	studentz := &mockStudents{students: map[int64]*students.Student{
		20: {ID: 20, BranchID: branchNorth, ClassName: "8", Section: "A", Name: "A. Karim"},
		21: {ID: 21, BranchID: branchNorth, ClassName: "9", Section: "A", Name: "B. Das"},
		22: {ID: 22, BranchID: branchSouth, ClassName: "8", Section: "A", Name: "C. Roy"},
	}}
	return NewService(repo, timetable, teacherz, studentz), repo, timetable
}

func teacherPrincipal() *shared.Principal {
	return &shared.Principal{UserID: 7, Role: shared.RoleTeacher, BranchID: branchNorth}
}

// ============================================================================
// POST RESULT
// ============================================================================

func TestPostResult(t *testing.T) {
	svc, repo, _ := newFixture()

	result, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 20, Marks: 87, Grade: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.ExamID)
	assert.Equal(t, int64(20), result.StudentID)
	assert.Equal(t, 87, result.Marks)
	assert.Equal(t, 1, repo.upsertCalls)
}

func TestPostResultCrossBranchExamReadsNotFound(t *testing.T) {
	svc, repo, _ := newFixture()

	// Exam 11 exists, but in another branch. The teacher learns nothing
	// beyond "not found".
	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 11, ResultInput{
		StudentID: 20, Marks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultCrossBranchStudentReadsNotFound(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 22, Marks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultUntimetabledTeacherForbidden(t *testing.T) {
	svc, repo, timetable := newFixture()
	timetable.assignments = nil

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 20, Marks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultOwnershipCheckedBeforeMarks(t *testing.T) {
	svc, repo, timetable := newFixture()
	timetable.assignments = nil

	// Out-of-range marks from an unassigned teacher read as forbidden,
	// not as a validation error, so the denial leaks nothing about the
	// exam's marking scheme.
	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 20, Marks: 101,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultNoTeacherRecordForbidden(t *testing.T) {
	svc, repo, _ := newFixture()

	principal := &shared.Principal{UserID: 99, Role: shared.RoleTeacher, BranchID: branchNorth}
	_, err := svc.PostResult(context.Background(), principal, 10, ResultInput{
		StudentID: 20, Marks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultStudentOutsideClass(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 21, Marks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultMarksAboveMaximum(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 20, Marks: 101,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
	assert.Equal(t, 0, repo.upsertCalls)
}

func TestPostResultNegativeMarks(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{
		StudentID: 20, Marks: -1,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}

func TestPostResultOverwritesPriorMarks(t *testing.T) {
	svc, repo, _ := newFixture()

	_, err := svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{StudentID: 20, Marks: 60})
	require.NoError(t, err)
	_, err = svc.PostResult(context.Background(), teacherPrincipal(), 10, ResultInput{StudentID: 20, Marks: 72})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.upsertCalls)
}

// ============================================================================
// EXAM CRUD
// ============================================================================

func TestCreateStampsBranchFromScope(t *testing.T) {
	svc, _, _ := newFixture()
	scope := tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: branchNorth})

	created, err := svc.Create(context.Background(), scope, Exam{
		BranchID: branchSouth, // ignored for scoped creators
		Title:    "Final Science", ClassName: "8", Subject: "Science", MaxMarks: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, branchNorth, created.BranchID)
}

func TestCreateRejectsNonPositiveMaxMarks(t *testing.T) {
	svc, _, _ := newFixture()
	scope := tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: branchNorth})

	_, err := svc.Create(context.Background(), scope, Exam{Title: "Quiz", ClassName: "8", Subject: "Science"})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}

func TestResultsRequiresVisibleExam(t *testing.T) {
	svc, _, _ := newFixture()
	scope := tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: branchNorth})

	_, err := svc.Results(context.Background(), scope, 11)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)
}
