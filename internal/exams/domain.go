package exams

import "time"

// Exam is a branch-scoped assessment for one class/subject. An empty
// section means the exam covers every section of the class.
type Exam struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	Title     string    `json:"title"`
	ClassName string    `json:"class_name"`
	Section   string    `json:"section,omitempty"`
	Subject   string    `json:"subject"`
	ExamDate  time.Time `json:"exam_date"`
	MaxMarks  int       `json:"max_marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is one student's marks for an exam.
type Result struct {
	ID        int64     `json:"id"`
	ExamID    int64     `json:"exam_id"`
	StudentID int64     `json:"student_id"`
	Marks     int       `json:"marks"`
	Grade     string    `json:"grade,omitempty"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
