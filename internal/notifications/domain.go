package notifications

import "time"

// AudienceAll addresses every role.
const AudienceAll = "all"

// Announcement is a branch-scoped notice fanned out to an audience by
// email. Audience is a role name or "all".
type Announcement struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
