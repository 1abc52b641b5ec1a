package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

// Sentinel errors surfaced by the transactional admit path when the
// committed state no longer satisfies a rule that passed during evaluation.
var (
	ErrClassFull       = errors.New("class capacity reached")
	ErrDuplicateClass  = errors.New("student already enroled in class")
	ErrDuplicateCourse = errors.New("student already enroled in course")
)

// EnrolmentRepository handles persistence of enrolments and their audit rows.
type EnrolmentRepository struct {
	db *sqlx.DB
}

// NewEnrolmentRepository constructs the repository.
func NewEnrolmentRepository(db *sqlx.DB) *EnrolmentRepository {
	return &EnrolmentRepository{db: db}
}

// ListDetailedByStudentAndStatus returns a student's enrolments with class
// and course context.
func (r *EnrolmentRepository) ListDetailedByStudentAndStatus(ctx context.Context, studentID string, status models.EnrolmentStatus) ([]models.EnrolmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.enrolment_date, e.status,
        c.course_id, co.code AS course_code, co.name AS course_name, c.section, c.schedule
        FROM enrolments e
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY e.enrolment_date DESC`
	var enrolments []models.EnrolmentDetail
	if err := r.db.SelectContext(ctx, &enrolments, query, studentID, status); err != nil {
		return nil, fmt.Errorf("list student enrolments: %w", err)
	}
	return enrolments, nil
}

// ExistsByStudentAndClass checks for an enrolment on exactly this class.
func (r *EnrolmentRepository) ExistsByStudentAndClass(ctx context.Context, studentID, classID string, status models.EnrolmentStatus) (bool, error) {
	const query = `SELECT 1 FROM enrolments WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID, status); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class enrolment: %w", err)
	}
	return true, nil
}

// ExistsByStudentAndCourse checks for an enrolment on any class of the
// course, in the given status.
func (r *EnrolmentRepository) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string, status models.EnrolmentStatus) (bool, error) {
	const query = `SELECT 1 FROM enrolments e
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1 AND c.course_id = $2 AND e.status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, status); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course enrolment: %w", err)
	}
	return true, nil
}

// CountByClassAndStatus counts enrolments on a class in the given status.
func (r *EnrolmentRepository) CountByClassAndStatus(ctx context.Context, classID string, status models.EnrolmentStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM enrolments WHERE class_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, status); err != nil {
		return 0, fmt.Errorf("count class enrolments: %w", err)
	}
	return count, nil
}

// BlockedCourseIDs returns the courses the student has completed or is
// currently enroled in. Classes of these courses are hidden from the
// student's available-class listing.
func (r *EnrolmentRepository) BlockedCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT DISTINCT c.course_id FROM enrolments e
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1 AND e.status IN ($2, $3)`
	var courseIDs []string
	if err := r.db.SelectContext(ctx, &courseIDs, query, studentID, models.EnrolmentStatusEnroled, models.EnrolmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("list blocked courses: %w", err)
	}
	return courseIDs, nil
}

// Admit inserts the enrolment and its Add audit row in a single serializable
// transaction. The duplicate and capacity rules are re-checked against
// committed state immediately before the insert so two admissions cannot
// both take the last open seat. Lost races surface as
// appErrors.ErrConcurrentModification.
func (r *EnrolmentRepository) Admit(ctx context.Context, enrolment *models.Enrolment, courseID string, capacity int) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin admit tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.GetContext(ctx, &exists,
		`SELECT 1 FROM enrolments WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1`,
		enrolment.StudentID, enrolment.ClassID, models.EnrolmentStatusEnroled)
	if err == nil {
		return ErrDuplicateClass
	}
	if err != sql.ErrNoRows {
		return mapTxError(err)
	}

	err = tx.GetContext(ctx, &exists,
		`SELECT 1 FROM enrolments e JOIN classes c ON c.id = e.class_id
         WHERE e.student_id = $1 AND c.course_id = $2 AND e.status = $3 LIMIT 1`,
		enrolment.StudentID, courseID, models.EnrolmentStatusEnroled)
	if err == nil {
		return ErrDuplicateCourse
	}
	if err != sql.ErrNoRows {
		return mapTxError(err)
	}

	var enroled int
	if err := tx.GetContext(ctx, &enroled,
		`SELECT COUNT(*) FROM enrolments WHERE class_id = $1 AND status = $2`,
		enrolment.ClassID, models.EnrolmentStatusEnroled); err != nil {
		return mapTxError(err)
	}
	if enroled >= capacity {
		return ErrClassFull
	}

	if enrolment.ID == "" {
		enrolment.ID = uuid.NewString()
	}
	if enrolment.EnrolmentDate.IsZero() {
		enrolment.EnrolmentDate = time.Now().UTC()
	}
	enrolment.Status = models.EnrolmentStatusEnroled

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO enrolments (id, student_id, class_id, enrolment_date, status)
         VALUES (:id, :student_id, :class_id, :enrolment_date, :status)`, enrolment); err != nil {
		return mapTxError(err)
	}

	history := &models.AddDropHistory{
		ID:         uuid.NewString(),
		StudentID:  enrolment.StudentID,
		ClassID:    enrolment.ClassID,
		Action:     models.HistoryActionAdd,
		ActionDate: enrolment.EnrolmentDate,
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO add_drop_history (id, student_id, class_id, action, action_date)
         VALUES (:id, :student_id, :class_id, :action, :action_date)`, history); err != nil {
		return mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapTxError(err)
	}
	return nil
}

// Discharge deletes the enrolment and appends its Drop audit row in one
// transaction; the pair commits atomically or not at all. sql.ErrNoRows is
// returned when the enrolment does not exist or belongs to another student.
func (r *EnrolmentRepository) Discharge(ctx context.Context, enrolmentID, studentID string) (*models.Enrolment, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin discharge tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var enrolment models.Enrolment
	if err := tx.GetContext(ctx, &enrolment,
		`SELECT id, student_id, class_id, enrolment_date, status FROM enrolments WHERE id = $1 AND student_id = $2`,
		enrolmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, mapTxError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrolments WHERE id = $1`, enrolmentID); err != nil {
		return nil, mapTxError(err)
	}

	history := &models.AddDropHistory{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		ClassID:    enrolment.ClassID,
		Action:     models.HistoryActionDrop,
		ActionDate: time.Now().UTC(),
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO add_drop_history (id, student_id, class_id, action, action_date)
         VALUES (:id, :student_id, :class_id, :action, :action_date)`, history); err != nil {
		return nil, mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapTxError(err)
	}
	return &enrolment, nil
}

// mapTxError translates storage-level race signals (unique violations,
// serialization failures) into the retryable concurrent-modification error.
func mapTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "40001":
			return appErrors.Wrap(err, appErrors.ErrConcurrentModification.Code,
				appErrors.ErrConcurrentModification.Status, appErrors.ErrConcurrentModification.Message)
		}
	}
	return err
}
