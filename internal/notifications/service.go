package notifications

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
	"github.com/academica-erp/academica/jobs"
)

// RecipientSource resolves audience email addresses. Satisfied by the
// users repository.
type RecipientSource interface {
	ListEmails(ctx context.Context, scope tenancy.Scope, role string) ([]string, error)
}

// Service publishes announcements and schedules their email fan-out.
type Service struct {
	repo       Repository
	recipients RecipientSource
	enqueuer   jobs.Enqueuer
	logger     *slog.Logger
}

// NewService constructs a Service. enqueuer may be nil in tests, which
// disables side-effect scheduling.
func NewService(repo Repository, recipients RecipientSource, enqueuer jobs.Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, recipients: recipients, enqueuer: enqueuer, logger: logger}
}

// CreateInput carries a new announcement.
type CreateInput struct {
	BranchID int64
	Title    string
	Body     string
	Audience string
}

// Publish stores an announcement and enqueues one email per recipient.
// Fan-out is best effort; a failed enqueue is logged and the announcement
// stands.
func (s *Service) Publish(ctx context.Context, principal *shared.Principal, in CreateInput) (*Announcement, int, error) {
	if in.Audience != AudienceAll && !shared.ValidRole(in.Audience) {
		return nil, 0, shared.ValidationError("unknown audience %q", in.Audience)
	}
	scope := tenancy.For(principal)
	branchID, err := scope.BranchForCreate(in.BranchID)
	if err != nil {
		return nil, 0, err
	}
	created, err := s.repo.Create(ctx, &Announcement{
		BranchID:  branchID,
		Title:     in.Title,
		Body:      in.Body,
		Audience:  in.Audience,
		CreatedBy: principal.UserID,
	})
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	queued := s.fanOut(ctx, created)
	return created, queued, nil
}

// List returns announcements visible to the principal. Non-admin roles
// only see notices addressed to their role or to everyone.
func (s *Service) List(ctx context.Context, principal *shared.Principal, page shared.PageRequest) ([]Announcement, int, error) {
	audience := ""
	switch principal.Role {
	case shared.RoleSuperAdmin, shared.RoleBranchAdmin:
	default:
		audience = principal.Role
	}
	list, total, err := s.repo.List(ctx, tenancy.For(principal), audience, page)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}
	return list, total, nil
}

func (s *Service) fanOut(ctx context.Context, a *Announcement) int {
	if s.enqueuer == nil {
		return 0
	}
	role := a.Audience
	if role == AudienceAll {
		role = ""
	}
	emails, err := s.recipients.ListEmails(ctx, tenancy.ForBranch(a.BranchID), role)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve announcement recipients", slog.Int64("announcement_id", a.ID), slog.Any("error", err))
		}
		return 0
	}
	html := fmt.Sprintf("<h2>%s</h2><p>%s</p>",
		template.HTMLEscapeString(a.Title), template.HTMLEscapeString(a.Body))
	queued := 0
	for _, email := range emails {
		task, err := jobs.NewSendEmailTask(jobs.SendEmailPayload{To: email, Subject: a.Title, HTML: html})
		if err == nil {
			_, err = s.enqueuer.EnqueueContext(ctx, task)
		}
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("enqueue announcement email", slog.Int64("announcement_id", a.ID), slog.String("to", email), slog.Any("error", err))
			}
			continue
		}
		queued++
	}
	return queued
}
