package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/qr"
	"github.com/academica-erp/academica/internal/storage"
)

// IDCardJob renders a student's QR ID card and records its location.
type IDCardJob struct {
	Pool   *pgxpool.Pool
	QR     *qr.Client
	Store  storage.Store
	Logger *slog.Logger
}

// NewIDCardJob initialises the ID card handler.
func NewIDCardJob(pool *pgxpool.Pool, qrClient *qr.Client, store storage.Store, logger *slog.Logger) *IDCardJob {
	return &IDCardJob{Pool: pool, QR: qrClient, Store: store, Logger: logger}
}

// Handle executes one ID card task.
func (j *IDCardJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("idcard job: handler not configured")
	}
	var payload StudentIDCardPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var admissionNo, name, className string
	err := j.Pool.QueryRow(ctx,
		`SELECT admission_no, name, class_name FROM students WHERE id = $1`,
		payload.StudentID).Scan(&admissionNo, &name, &className)
	if err != nil {
		j.Logger.Warn("idcard: load student", slog.Int64("student_id", payload.StudentID), slog.Any("error", err))
		return err
	}

	// The QR payload is the admission number, which the gate scanner
	// resolves against the students table.
	png, err := j.QR.Generate(ctx, admissionNo, 256)
	if err != nil {
		return fmt.Errorf("idcard: render qr: %w", err)
	}
	obj, err := j.Store.Put(ctx, fmt.Sprintf("students/%d/idcard.png", payload.StudentID), "image/png", png)
	if err != nil {
		return fmt.Errorf("idcard: store: %w", err)
	}
	if _, err := j.Pool.Exec(ctx,
		`UPDATE students SET id_card_url = $2, updated_at = now() WHERE id = $1`,
		payload.StudentID, obj.URL); err != nil {
		return err
	}
	j.Logger.Info("idcard generated", slog.Int64("student_id", payload.StudentID), slog.String("url", obj.URL))
	return nil
}
