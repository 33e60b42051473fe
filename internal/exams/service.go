package exams

import (
	"context"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
)

// TimetableSource answers whether a teacher is assigned to teach a
// class/section/subject combination. Satisfied by the timetable repository.
type TimetableSource interface {
	TeachesSubject(ctx context.Context, teacherID int64, className, section, subject string) (bool, error)
}

// TeacherDirectory resolves the teacher record backing an account.
// Satisfied by the teachers repository.
type TeacherDirectory interface {
	FindByUserID(ctx context.Context, userID int64) (*teachers.Teacher, error)
}

// StudentSource loads students under the caller's scope.
type StudentSource interface {
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*students.Student, error)
}

// Service wraps exam and result rules, including the ownership predicate
// for result writes.
type Service struct {
	repo      Repository
	timetable TimetableSource
	teacherz  TeacherDirectory
	studentz  StudentSource
}

// NewService constructs a Service.
func NewService(repo Repository, timetable TimetableSource, teachers TeacherDirectory, students StudentSource) *Service {
	return &Service{repo: repo, timetable: timetable, teacherz: teachers, studentz: students}
}

// ResultInput carries one student's marks.
type ResultInput struct {
	StudentID int64
	Marks     int
	Grade     string
	Remarks   string
}

// List returns exams visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Exam, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one exam within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Exam, error) {
	exam, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return exam, nil
}

// Create schedules an exam, stamping the branch from the scope.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, e Exam) (*Exam, error) {
	branchID, err := scope.BranchForCreate(e.BranchID)
	if err != nil {
		return nil, err
	}
	if e.MaxMarks <= 0 {
		return nil, shared.ValidationError("max_marks must be positive")
	}
	e.BranchID = branchID
	created, err := s.repo.Create(ctx, &e)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return created, nil
}

// PostResult writes one student's marks for an exam on behalf of a
// teacher-role principal.
//
// Order of checks matters: the exam and student are loaded under the
// caller's scope first, so a record in another branch reads as not
// found. The ownership predicate comes next, so a teacher who can see
// the exam but is not timetabled for its class/subject gets forbidden
// before any input validation runs, with the results untouched.
func (s *Service) PostResult(ctx context.Context, principal *shared.Principal, examID int64, in ResultInput) (*Result, error) {
	scope := tenancy.For(principal)

	exam, err := s.repo.FindByID(ctx, scope, examID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	student, err := s.studentz.FindByID(ctx, scope, in.StudentID)
	if err != nil {
		return nil, shared.AsError(err)
	}

	teacher, err := s.teacherz.FindByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, shared.Forbidden("no teacher record for this account")
	}
	assigned, err := s.timetable.TeachesSubject(ctx, teacher.ID, exam.ClassName, student.Section, exam.Subject)
	if err != nil {
		return nil, shared.Upstream(err)
	}
	if !assigned {
		return nil, shared.Forbidden("not assigned to this class and subject")
	}

	if student.ClassName != exam.ClassName {
		return nil, shared.ValidationError("student is not enrolled in class %s", exam.ClassName)
	}
	if exam.Section != "" && student.Section != exam.Section {
		return nil, shared.ValidationError("student is not in section %s", exam.Section)
	}
	if in.Marks < 0 || in.Marks > exam.MaxMarks {
		return nil, shared.ValidationError("marks must be between 0 and %d", exam.MaxMarks)
	}

	result, err := s.repo.UpsertResult(ctx, &Result{
		ExamID:    exam.ID,
		StudentID: student.ID,
		Marks:     in.Marks,
		Grade:     in.Grade,
		Remarks:   in.Remarks,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	return result, nil
}

// Results lists every result for an exam within scope.
func (s *Service) Results(ctx context.Context, scope tenancy.Scope, examID int64) ([]Result, error) {
	if _, err := s.repo.FindByID(ctx, scope, examID); err != nil {
		return nil, shared.AsError(err)
	}
	results, err := s.repo.ListResults(ctx, examID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return results, nil
}

// ResultsForStudent lists a student's results. Callers are responsible for
// resolving the student under their own scope first.
func (s *Service) ResultsForStudent(ctx context.Context, studentID int64) ([]Result, error) {
	results, err := s.repo.ListResultsForStudent(ctx, studentID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return results, nil
}
