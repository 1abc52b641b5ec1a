package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oes-platform/enrolment-api/internal/models"
)

// HistoryRepository reads the append-only add/drop audit trail. Writes only
// happen inside the enrolment transactions.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ListByStudent returns the student's audit trail, newest first.
func (r *HistoryRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AddDropHistoryDetail, error) {
	const query = `SELECT h.id, h.student_id, h.class_id, h.action, h.action_date,
        co.code AS course_code, co.name AS course_name, c.section
        FROM add_drop_history h
        JOIN classes c ON c.id = h.class_id
        JOIN courses co ON co.id = c.course_id
        WHERE h.student_id = $1
        ORDER BY h.action_date DESC`
	var records []models.AddDropHistoryDetail
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list add drop history: %w", err)
	}
	return records, nil
}
