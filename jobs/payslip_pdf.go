package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academica-erp/academica/internal/mail"
	"github.com/academica-erp/academica/internal/storage"
	"github.com/academica-erp/academica/report"
)

// PayslipPDFJob renders an issued payslip to PDF, stores it and emails
// the teacher a link.
type PayslipPDFJob struct {
	Pool   *pgxpool.Pool
	Report *report.Client
	Store  storage.Store
	Mailer mail.Mailer
	Logger *slog.Logger
}

// NewPayslipPDFJob initialises the payslip PDF handler.
func NewPayslipPDFJob(pool *pgxpool.Pool, reportClient *report.Client, store storage.Store, mailer mail.Mailer, logger *slog.Logger) *PayslipPDFJob {
	return &PayslipPDFJob{Pool: pool, Report: reportClient, Store: store, Mailer: mailer, Logger: logger}
}

// Handle executes one payslip PDF task.
func (j *PayslipPDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("payslip pdf job: handler not configured")
	}
	var payload PayslipPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var (
		year, month, workingDays, absentDays  int
		baseCents, allowanceCents, bonusCents int64
		deductionCents, netCents              int64
		teacherName, employeeNo, teacherEmail string
	)
	err := j.Pool.QueryRow(ctx,
		`SELECT p.year, p.month, p.working_days, p.absent_days,
		        p.base_cents, p.allowance_cents, p.bonus_cents, p.deduction_cents, p.net_cents,
		        t.name, t.employee_no, t.email
		 FROM payslips p JOIN teachers t ON t.id = p.teacher_id
		 WHERE p.id = $1 AND p.status = 'issued'`,
		payload.PayslipID).
		Scan(&year, &month, &workingDays, &absentDays,
			&baseCents, &allowanceCents, &bonusCents, &deductionCents, &netCents,
			&teacherName, &employeeNo, &teacherEmail)
	if err != nil {
		j.Logger.Warn("payslip pdf: load payslip", slog.Int64("payslip_id", payload.PayslipID), slog.Any("error", err))
		return err
	}

	html, err := report.PayslipHTML(report.PayslipData{
		TeacherName:    teacherName,
		EmployeeNo:     employeeNo,
		Year:           year,
		Month:          time.Month(month),
		WorkingDays:    workingDays,
		BaseCents:      baseCents,
		AllowanceCents: allowanceCents,
		BonusCents:     bonusCents,
		AbsentDays:     absentDays,
		DeductionCents: deductionCents,
		NetCents:       netCents,
	})
	if err != nil {
		return err
	}
	pdf, err := j.Report.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("payslip pdf: render: %w", err)
	}
	obj, err := j.Store.Put(ctx, fmt.Sprintf("payslips/%d.pdf", payload.PayslipID), "application/pdf", pdf)
	if err != nil {
		return fmt.Errorf("payslip pdf: store: %w", err)
	}
	if _, err := j.Pool.Exec(ctx,
		`UPDATE payslips SET pdf_url = $2, updated_at = now() WHERE id = $1`,
		payload.PayslipID, obj.URL); err != nil {
		return err
	}

	if teacherEmail != "" && j.Mailer != nil {
		msg := mail.Message{
			To:      teacherEmail,
			Subject: fmt.Sprintf("Payslip for %s %d", time.Month(month), year),
			HTML:    fmt.Sprintf("<p>Your payslip is ready.</p><p><a href=%q>Download the payslip</a></p>", obj.URL),
		}
		if err := j.Mailer.Send(ctx, msg); err != nil {
			j.Logger.Warn("payslip pdf: email teacher", slog.String("to", teacherEmail), slog.Any("error", err))
		}
	}
	return nil
}
