package users

import "time"

// User represents an account for management purposes. The password hash
// never leaves the repository layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	BranchID  int64     `json:"branch_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows account listings.
type Filter struct {
	Role string
}
