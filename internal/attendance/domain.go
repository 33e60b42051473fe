package attendance

import "time"

// Subject types a record can be attributed to.
const (
	SubjectStudent = "student"
	SubjectStaff   = "staff"
)

// Statuses a day can be marked with.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
)

// Record is one person's attendance for one day. Approved only matters
// for absences and leave; an unapproved absence counts against payroll.
type Record struct {
	ID          int64     `json:"id"`
	BranchID    int64     `json:"branch_id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Approved    bool      `json:"approved"`
	MarkedBy    int64     `json:"marked_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// MonthlySummary aggregates one person's month.
type MonthlySummary struct {
	SubjectType      string `json:"subject_type"`
	SubjectID        int64  `json:"subject_id"`
	Year             int    `json:"year"`
	Month            int    `json:"month"`
	PresentDays      int    `json:"present_days"`
	AbsentDays       int    `json:"absent_days"`
	LeaveDays        int    `json:"leave_days"`
	UnapprovedAbsent int    `json:"unapproved_absent"`
}

// ValidStatus reports whether s is a known attendance status.
func ValidStatus(s string) bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLeave
}
