package teachers

import "time"

// Teacher is a branch-scoped employment record. Monetary amounts are in
// minor currency units.
type Teacher struct {
	ID              int64     `json:"id"`
	BranchID        int64     `json:"branch_id"`
	UserID          int64     `json:"user_id,omitempty"`
	EmployeeNo      string    `json:"employee_no"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	BaseSalaryCents int64     `json:"base_salary_cents"`
	JoiningDate     time.Time `json:"joining_date"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
