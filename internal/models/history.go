package models

import "time"

// HistoryAction distinguishes add and drop audit entries.
type HistoryAction string

// Recorded actions.
const (
	HistoryActionAdd  HistoryAction = "Add"
	HistoryActionDrop HistoryAction = "Drop"
)

// AddDropHistory is one row of the append-only enrolment audit trail.
// Rows are never mutated or deleted.
type AddDropHistory struct {
	ID         string        `db:"id" json:"id"`
	StudentID  string        `db:"student_id" json:"student_id"`
	ClassID    string        `db:"class_id" json:"class_id"`
	Action     HistoryAction `db:"action" json:"action"`
	ActionDate time.Time     `db:"action_date" json:"action_date"`
}

// AddDropHistoryDetail enriches a history row with class and course context.
type AddDropHistoryDetail struct {
	AddDropHistory
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Section    string `db:"section" json:"section"`
}
