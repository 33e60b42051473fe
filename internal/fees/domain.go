package fees

import "time"

// Voucher statuses.
const (
	StatusUnpaid    = "unpaid"
	StatusPartial   = "partial"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// LineItem is one charge on a voucher. Amounts are integer minor units.
type LineItem struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
}

// Voucher is a fee demand issued against a student.
type Voucher struct {
	ID         int64      `json:"id"`
	BranchID   int64      `json:"branch_id"`
	StudentID  int64      `json:"student_id"`
	VoucherNo  string     `json:"voucher_no"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	PaidCents  int64      `json:"paid_cents"`
	DueDate    time.Time  `json:"due_date"`
	Status     string     `json:"status"`
	PDFURL     string     `json:"pdf_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Payment records money received against a voucher.
type Payment struct {
	ID          int64     `json:"id"`
	VoucherID   int64     `json:"voucher_id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference,omitempty"`
	ReceivedBy  int64     `json:"received_by"`
	PaidAt      time.Time `json:"paid_at"`
}

// Summary aggregates a branch's fee position over a period.
type Summary struct {
	VoucherCount     int   `json:"voucher_count"`
	CollectedCents   int64 `json:"collected_cents"`
	OutstandingCents int64 `json:"outstanding_cents"`
}
