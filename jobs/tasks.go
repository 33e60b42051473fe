package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeStudentIDCard renders and stores a student's QR ID card.
	TaskTypeStudentIDCard = "qr:idcard"
	// TaskTypeVoucherPDF renders a fee voucher PDF and emails it to the guardian.
	TaskTypeVoucherPDF = "fees:voucher_pdf"
	// TaskTypePayslipPDF renders a payslip PDF and emails it to the teacher.
	TaskTypePayslipPDF = "payroll:payslip_pdf"
)

// Enqueuer is the part of asynq.Client used by services to schedule
// best-effort side effects. A failed enqueue is logged by the caller and
// never fails the primary operation.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault)), nil
}

// StudentIDCardPayload identifies the student whose card should be produced.
type StudentIDCardPayload struct {
	StudentID int64 `json:"student_id"`
}

// NewStudentIDCardTask constructs an Asynq task.
func NewStudentIDCardTask(payload StudentIDCardPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStudentIDCard, data, asynq.Queue(QueueDefault)), nil
}

// VoucherPDFPayload identifies the voucher to render and dispatch.
type VoucherPDFPayload struct {
	VoucherID int64 `json:"voucher_id"`
}

// NewVoucherPDFTask constructs an Asynq task.
func NewVoucherPDFTask(payload VoucherPDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVoucherPDF, data, asynq.Queue(QueueDefault)), nil
}

// PayslipPDFPayload identifies the payslip to render and dispatch.
type PayslipPDFPayload struct {
	PayslipID int64 `json:"payslip_id"`
}

// NewPayslipPDFTask constructs an Asynq task.
func NewPayslipPDFTask(payload PayslipPDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayslipPDF, data, asynq.Queue(QueueDefault)), nil
}
