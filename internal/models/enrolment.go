package models

import "time"

// EnrolmentStatus represents the lifecycle of an enrolment.
type EnrolmentStatus string

// Possible enrolment statuses. Completed rows are written by the external
// grading process, never by this service.
const (
	EnrolmentStatusEnroled   EnrolmentStatus = "Enroled"
	EnrolmentStatusCompleted EnrolmentStatus = "Completed"
)

// Enrolment links a student to a specific class section. For a given
// student at most one Enroled row may exist per course across all of that
// course's sections; the rule engine enforces this, not the store.
type Enrolment struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	ClassID       string          `db:"class_id" json:"class_id"`
	EnrolmentDate time.Time       `db:"enrolment_date" json:"enrolment_date"`
	Status        EnrolmentStatus `db:"status" json:"status"`
}

// EnrolmentDetail enriches Enrolment with class and course context.
type EnrolmentDetail struct {
	Enrolment
	CourseID   string `db:"course_id" json:"course_id"`
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Section    string `db:"section" json:"section"`
	Schedule   string `db:"schedule" json:"schedule"`
}
