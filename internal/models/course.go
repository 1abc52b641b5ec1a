package models

// Course is a unit of study. A course may name at most one prerequisite
// course; the self-reference is assumed to form a DAG, which the store does
// not enforce.
type Course struct {
	ID                   string  `db:"id" json:"id"`
	Code                 string  `db:"code" json:"code"`
	Name                 string  `db:"name" json:"name"`
	Credits              int     `db:"credits" json:"credits"`
	PrerequisiteCourseID *string `db:"prerequisite_course_id" json:"prerequisite_course_id,omitempty"`
}

// CourseDetail extends Course with the prerequisite's code for display.
type CourseDetail struct {
	Course
	PrerequisiteCode *string `db:"prerequisite_code" json:"prerequisite_code,omitempty"`
}
