package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/oes-platform/enrolment-api/internal/models"
)

// ClassRepository handles reads over class sections.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classDetailColumns = `c.id, c.course_id, c.section, c.capacity, c.schedule,
        co.code AS course_code, co.name AS course_name, co.credits,
        co.prerequisite_course_id, pr.code AS prerequisite_code`

const classDetailJoins = `FROM classes c
        JOIN courses co ON co.id = c.course_id
        LEFT JOIN courses pr ON pr.id = co.prerequisite_course_id`

// FindDetailByID returns the class with its course and that course's
// prerequisite in a single read, which is everything Evaluate needs.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id = $1`, classDetailColumns, classDetailJoins)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns all class sections with course context.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s ORDER BY co.code, c.section`, classDetailColumns, classDetailJoins)
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListExcludingCourses returns classes whose course is not in the blocked
// set. An empty set returns the full catalogue.
func (r *ClassRepository) ListExcludingCourses(ctx context.Context, blockedCourseIDs []string) ([]models.ClassDetail, error) {
	if len(blockedCourseIDs) == 0 {
		return r.List(ctx)
	}
	placeholders := make([]string, len(blockedCourseIDs))
	args := make([]interface{}, len(blockedCourseIDs))
	for i, id := range blockedCourseIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE c.course_id NOT IN (%s) ORDER BY co.code, c.section`,
		classDetailColumns, classDetailJoins, strings.Join(placeholders, ","))
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list available classes: %w", err)
	}
	return classes, nil
}

// ListByIDs returns the classes matching the given ids. Callers needing a
// particular ordering reorder the result themselves.
func (r *ClassRepository) ListByIDs(ctx context.Context, ids []string) ([]models.ClassDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id IN (%s)`,
		classDetailColumns, classDetailJoins, strings.Join(placeholders, ","))
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes by ids: %w", err)
	}
	return classes, nil
}
