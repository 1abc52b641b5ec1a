package models

// Class is one scheduled section of a Course with its own capacity and
// meeting time. Schedule is a compact string such as "Wed 19:30-20:30";
// a capacity of 0 means the section is closed.
type Class struct {
	ID       string `db:"id" json:"id"`
	CourseID string `db:"course_id" json:"course_id"`
	Section  string `db:"section" json:"section"`
	Capacity int    `db:"capacity" json:"capacity"`
	Schedule string `db:"schedule" json:"schedule"`
}

// ClassDetail joins a Class with its course and the course's prerequisite,
// which is everything the eligibility rules need in one read.
type ClassDetail struct {
	Class
	CourseCode           string  `db:"course_code" json:"course_code"`
	CourseName           string  `db:"course_name" json:"course_name"`
	Credits              int     `db:"credits" json:"credits"`
	PrerequisiteCourseID *string `db:"prerequisite_course_id" json:"prerequisite_course_id,omitempty"`
	PrerequisiteCode     *string `db:"prerequisite_code" json:"prerequisite_code,omitempty"`
}
