package students

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/storage"
	"github.com/academica-erp/academica/internal/tenancy"
	"github.com/academica-erp/academica/jobs"
)

// Service wraps enrolment business rules.
type Service struct {
	repo     Repository
	store    storage.Store
	enqueuer jobs.Enqueuer
	logger   *slog.Logger
}

// NewService constructs a Service. enqueuer may be nil in tests, which
// disables side-effect scheduling.
func NewService(repo Repository, store storage.Store, enqueuer jobs.Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, enqueuer: enqueuer, logger: logger}
}

// CreateInput carries the fields needed to admit a student.
type CreateInput struct {
	BranchID      int64
	UserID        int64
	AdmissionNo   string
	Name          string
	Email         string
	GuardianName  string
	GuardianEmail string
	ClassName     string
	Section       string
}

// List returns students visible to the scope.
func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]Student, int, error) {
	list, total, err := s.repo.List(ctx, scope, filter, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

// Get fetches one student within scope.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Student, error) {
	student, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return student, nil
}

// Self resolves the enrolment record for a student-role principal.
func (s *Service) Self(ctx context.Context, userID int64) (*Student, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return student, nil
}

// Children lists the students recorded against a guardian address.
func (s *Service) Children(ctx context.Context, guardianEmail string) ([]Student, error) {
	list, err := s.repo.ListByGuardianEmail(ctx, guardianEmail)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return list, nil
}

// Create admits a student. The branch stamp always comes from the scope
// for branch-bound callers. Welcome email and ID card generation are
// scheduled best-effort; their failure never fails the admission.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, in CreateInput) (*Student, error) {
	branchID, err := scope.BranchForCreate(in.BranchID)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, &Student{
		BranchID:      branchID,
		UserID:        in.UserID,
		AdmissionNo:   in.AdmissionNo,
		Name:          in.Name,
		Email:         in.Email,
		GuardianName:  in.GuardianName,
		GuardianEmail: in.GuardianEmail,
		ClassName:     in.ClassName,
		Section:       in.Section,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	s.scheduleAdmissionEffects(ctx, created)
	return created, nil
}

// Update rewrites the mutable student fields within scope.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, student Student) (*Student, error) {
	updated, err := s.repo.Update(ctx, scope, &student)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return updated, nil
}

// Deactivate disables a student within scope.
func (s *Service) Deactivate(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return shared.AsError(err)
	}
	return nil
}

// UploadPhoto stores a student photo and records its location.
func (s *Service) UploadPhoto(ctx context.Context, scope tenancy.Scope, id int64, contentType string, data []byte) (string, error) {
	// Load first so cross-branch ids read as not found before any upload.
	if _, err := s.repo.FindByID(ctx, scope, id); err != nil {
		return "", shared.AsError(err)
	}
	key := fmt.Sprintf("students/%d/photo-%s", id, uuid.NewString())
	obj, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", shared.Upstream(err)
	}
	if err := s.repo.SetPhotoURL(ctx, scope, id, obj.URL); err != nil {
		return "", shared.AsError(err)
	}
	return obj.URL, nil
}

func (s *Service) scheduleAdmissionEffects(ctx context.Context, student *Student) {
	if s.enqueuer == nil {
		return
	}
	if student.GuardianEmail != "" {
		task, err := jobs.NewSendEmailTask(jobs.SendEmailPayload{
			To:      student.GuardianEmail,
			Subject: "Admission confirmed",
			HTML: fmt.Sprintf("<p>%s has been admitted to class %s, section %s. Admission number: %s.</p>",
				student.Name, student.ClassName, student.Section, student.AdmissionNo),
		})
		if err == nil {
			_, err = s.enqueuer.EnqueueContext(ctx, task)
		}
		if err != nil && s.logger != nil {
			s.logger.Warn("enqueue welcome email", slog.Int64("student_id", student.ID), slog.Any("error", err))
		}
	}
	task, err := jobs.NewStudentIDCardTask(jobs.StudentIDCardPayload{StudentID: student.ID})
	if err == nil {
		_, err = s.enqueuer.EnqueueContext(ctx, task)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("enqueue id card", slog.Int64("student_id", student.ID), slog.Any("error", err))
	}
}
