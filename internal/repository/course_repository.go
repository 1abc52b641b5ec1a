package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oes-platform/enrolment-api/internal/models"
)

// CourseRepository handles reads over the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns the full course catalogue with prerequisite codes.
func (r *CourseRepository) List(ctx context.Context) ([]models.CourseDetail, error) {
	const query = `SELECT co.id, co.code, co.name, co.credits, co.prerequisite_course_id,
        pr.code AS prerequisite_code
        FROM courses co
        LEFT JOIN courses pr ON pr.id = co.prerequisite_course_id
        ORDER BY co.code`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
