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

// VoucherPDFJob renders a fee voucher to PDF, stores it and emails the
// guardian a link.
type VoucherPDFJob struct {
	Pool   *pgxpool.Pool
	Report *report.Client
	Store  storage.Store
	Mailer mail.Mailer
	Logger *slog.Logger
}

// NewVoucherPDFJob initialises the voucher PDF handler.
func NewVoucherPDFJob(pool *pgxpool.Pool, reportClient *report.Client, store storage.Store, mailer mail.Mailer, logger *slog.Logger) *VoucherPDFJob {
	return &VoucherPDFJob{Pool: pool, Report: reportClient, Store: store, Mailer: mailer, Logger: logger}
}

// Handle executes one voucher PDF task.
func (j *VoucherPDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("voucher pdf job: handler not configured")
	}
	var payload VoucherPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var (
		voucherNo     string
		itemsRaw      []byte
		totalCents    int64
		dueDate       time.Time
		studentName   string
		className     string
		section       string
		guardianEmail string
	)
	err := j.Pool.QueryRow(ctx,
		`SELECT v.voucher_no, v.items, v.total_cents, v.due_date, s.name, s.class_name, s.section, s.guardian_email
		 FROM fee_vouchers v JOIN students s ON s.id = v.student_id
		 WHERE v.id = $1`,
		payload.VoucherID).
		Scan(&voucherNo, &itemsRaw, &totalCents, &dueDate, &studentName, &className, &section, &guardianEmail)
	if err != nil {
		j.Logger.Warn("voucher pdf: load voucher", slog.Int64("voucher_id", payload.VoucherID), slog.Any("error", err))
		return err
	}

	var items []report.VoucherItem
	if len(itemsRaw) > 0 {
		var lines []struct {
			Description string `json:"description"`
			AmountCents int64  `json:"amount_cents"`
		}
		if err := json.Unmarshal(itemsRaw, &lines); err != nil {
			return asynq.SkipRetry
		}
		for _, line := range lines {
			items = append(items, report.VoucherItem{Description: line.Description, AmountCents: line.AmountCents})
		}
	}

	html, err := report.VoucherHTML(report.VoucherData{
		VoucherNo:   voucherNo,
		StudentName: studentName,
		ClassName:   className,
		Section:     section,
		Items:       items,
		TotalCents:  totalCents,
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}
	pdf, err := j.Report.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("voucher pdf: render: %w", err)
	}
	obj, err := j.Store.Put(ctx, fmt.Sprintf("vouchers/%d.pdf", payload.VoucherID), "application/pdf", pdf)
	if err != nil {
		return fmt.Errorf("voucher pdf: store: %w", err)
	}
	if _, err := j.Pool.Exec(ctx,
		`UPDATE fee_vouchers SET pdf_url = $2, updated_at = now() WHERE id = $1`,
		payload.VoucherID, obj.URL); err != nil {
		return err
	}

	if guardianEmail != "" && j.Mailer != nil {
		msg := mail.Message{
			To:      guardianEmail,
			Subject: "Fee voucher " + voucherNo,
			HTML: fmt.Sprintf("<p>A fee voucher for %s is due by %s.</p><p><a href=%q>Download the voucher</a></p>",
				studentName, dueDate.Format("2 January 2006"), obj.URL),
		}
		if err := j.Mailer.Send(ctx, msg); err != nil {
			j.Logger.Warn("voucher pdf: email guardian", slog.String("to", guardianEmail), slog.Any("error", err))
		}
	}
	return nil
}
