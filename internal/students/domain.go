package students

import "time"

// Student is a branch-scoped enrolment record.
type Student struct {
	ID            int64     `json:"id"`
	BranchID      int64     `json:"branch_id"`
	UserID        int64     `json:"user_id,omitempty"`
	AdmissionNo   string    `json:"admission_no"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	GuardianName  string    `json:"guardian_name"`
	GuardianEmail string    `json:"guardian_email"`
	ClassName     string    `json:"class_name"`
	Section       string    `json:"section"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	IDCardURL     string    `json:"id_card_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter narrows student listings.
type Filter struct {
	ClassName string
	Section   string
}
