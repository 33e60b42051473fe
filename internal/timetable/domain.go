package timetable

import "time"

// Entry binds a teacher to a class, section and subject for one period.
// An empty section means the assignment covers every section of the class.
type Entry struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	TeacherID int64     `json:"teacher_id"`
	ClassName string    `json:"class_name"`
	Section   string    `json:"section,omitempty"`
	Subject   string    `json:"subject"`
	Weekday   int       `json:"weekday"`
	Period    int       `json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows timetable listings.
type Filter struct {
	TeacherID int64
	ClassName string
}
