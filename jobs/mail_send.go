package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/academica-erp/academica/internal/mail"
)

// MailJob delivers queued transactional emails.
type MailJob struct {
	Mailer mail.Mailer
	Logger *slog.Logger
}

// NewMailJob initialises the send-email handler.
func NewMailJob(mailer mail.Mailer, logger *slog.Logger) *MailJob {
	return &MailJob{Mailer: mailer, Logger: logger}
}

// Handle executes one send-email task.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("mail job: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}
	if err := j.Mailer.Send(ctx, mail.Message{To: payload.To, Subject: payload.Subject, HTML: payload.HTML}); err != nil {
		j.Logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}
