package attendance

import (
	"context"
	"time"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
)

// ClassRoster answers which class a teacher is assigned to. Satisfied by
// the timetable repository.
type ClassRoster interface {
	TeachesClass(ctx context.Context, teacherID int64, className, section string) (bool, error)
}

// TeacherDirectory resolves the teacher record backing an account.
type TeacherDirectory interface {
	FindByUserID(ctx context.Context, userID int64) (*teachers.Teacher, error)
}

// StudentSource loads students under the caller's scope.
type StudentSource interface {
	FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*students.Student, error)
}

// Service applies attendance rules.
type Service struct {
	repo     Repository
	roster   ClassRoster
	teacherz TeacherDirectory
	studentz StudentSource
}

// NewService constructs a Service.
func NewService(repo Repository, roster ClassRoster, teachers TeacherDirectory, students StudentSource) *Service {
	return &Service{repo: repo, roster: roster, teacherz: teachers, studentz: students}
}

// MarkEntry is one student's status in a bulk sheet.
type MarkEntry struct {
	StudentID int64
	Status    string
}

// MarkSheetInput is a teacher's bulk submission for one class and day.
type MarkSheetInput struct {
	ClassName string
	Section   string
	Date      time.Time
	Entries   []MarkEntry
}

// MarkSheet records a day's attendance for a class on behalf of a
// teacher-role principal. The caller must be timetabled for the class;
// each student is verified to belong to the sheet's class and to the
// caller's branch before any row is written.
func (s *Service) MarkSheet(ctx context.Context, principal *shared.Principal, in MarkSheetInput) ([]Record, error) {
	scope := tenancy.For(principal)

	teacher, err := s.teacherz.FindByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, shared.Forbidden("no teacher record for this account")
	}
	assigned, err := s.roster.TeachesClass(ctx, teacher.ID, in.ClassName, in.Section)
	if err != nil {
		return nil, shared.Upstream(err)
	}
	if !assigned {
		return nil, shared.Forbidden("not assigned to this class")
	}

	// The whole sheet is resolved and validated before the first write, so
	// a rejected entry leaves no partial day behind.
	resolved := make([]*students.Student, 0, len(in.Entries))
	for _, entry := range in.Entries {
		if !ValidStatus(entry.Status) {
			return nil, shared.ValidationError("unknown status %q", entry.Status)
		}
		student, err := s.studentz.FindByID(ctx, scope, entry.StudentID)
		if err != nil {
			return nil, shared.AsError(err)
		}
		if student.ClassName != in.ClassName {
			return nil, shared.ValidationError("student %d is not in class %s", student.ID, in.ClassName)
		}
		resolved = append(resolved, student)
	}

	out := make([]Record, 0, len(in.Entries))
	for i, entry := range in.Entries {
		rec, err := s.repo.Upsert(ctx, &Record{
			BranchID:    resolved[i].BranchID,
			SubjectType: SubjectStudent,
			SubjectID:   resolved[i].ID,
			Date:        in.Date,
			Status:      entry.Status,
			MarkedBy:    principal.UserID,
		})
		if err != nil {
			return nil, shared.AsError(err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// MarkStaff records one staff member's day, used by branch admins.
func (s *Service) MarkStaff(ctx context.Context, principal *shared.Principal, staffUserID int64, date time.Time, status string, approved bool) (*Record, error) {
	if !ValidStatus(status) {
		return nil, shared.ValidationError("unknown status %q", status)
	}
	scope := tenancy.For(principal)
	branchID, err := scope.BranchForCreate(0)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.Upsert(ctx, &Record{
		BranchID:    branchID,
		SubjectType: SubjectStaff,
		SubjectID:   staffUserID,
		Date:        date,
		Status:      status,
		Approved:    approved,
		MarkedBy:    principal.UserID,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	return rec, nil
}

// Day lists a day's records of one subject type within scope.
func (s *Service) Day(ctx context.Context, scope tenancy.Scope, subjectType string, day time.Time) ([]Record, error) {
	if subjectType != SubjectStudent && subjectType != SubjectStaff {
		return nil, shared.ValidationError("unknown subject type %q", subjectType)
	}
	records, err := s.repo.ListForDay(ctx, scope, subjectType, day)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return records, nil
}

// History lists one person's records between two dates. Callers resolve
// the subject under their own scope first.
func (s *Service) History(ctx context.Context, subjectType string, subjectID int64, from, to time.Time) ([]Record, error) {
	records, err := s.repo.ListForSubject(ctx, subjectType, subjectID, from, to)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return records, nil
}

// Monthly summarizes one person's calendar month.
func (s *Service) Monthly(ctx context.Context, subjectType string, subjectID int64, year, month int) (*MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, shared.ValidationError("month must be between 1 and 12")
	}
	sum, err := s.repo.Summarize(ctx, subjectType, subjectID, year, month)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return sum, nil
}

// Approve marks an absence record approved within scope.
func (s *Service) Approve(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.Approve(ctx, scope, id); err != nil {
		return shared.AsError(err)
	}
	return nil
}
