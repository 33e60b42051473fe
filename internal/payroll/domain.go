package payroll

import "time"

// Payslip statuses.
const (
	StatusDraft  = "draft"
	StatusIssued = "issued"
)

// Payslip is one teacher's computed pay for a calendar month. Amounts
// are integer minor units.
type Payslip struct {
	ID             int64     `json:"id"`
	BranchID       int64     `json:"branch_id"`
	TeacherID      int64     `json:"teacher_id"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	WorkingDays    int       `json:"working_days"`
	BaseCents      int64     `json:"base_cents"`
	AllowanceCents int64     `json:"allowance_cents"`
	BonusCents     int64     `json:"bonus_cents"`
	PerDayCents    int64     `json:"per_day_cents"`
	AbsentDays     int       `json:"absent_days"`
	DeductionCents int64     `json:"deduction_cents"`
	NetCents       int64     `json:"net_cents"`
	Status         string    `json:"status"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Compute fills the derived fields from the inputs already set on the
// payslip. Per-day pay is the integer quotient of base over working
// days; the deduction is one per-day unit for each unapproved absent
// day, capped at the base so net pay never goes negative on base alone.
func (p *Payslip) Compute() {
	if p.WorkingDays <= 0 {
		p.PerDayCents = 0
	} else {
		p.PerDayCents = p.BaseCents / int64(p.WorkingDays)
	}
	p.DeductionCents = p.PerDayCents * int64(p.AbsentDays)
	if p.DeductionCents > p.BaseCents {
		p.DeductionCents = p.BaseCents
	}
	p.NetCents = p.BaseCents + p.AllowanceCents + p.BonusCents - p.DeductionCents
}
