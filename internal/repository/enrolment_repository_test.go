package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

func newEnrolmentRepoMock(t *testing.T) (*EnrolmentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEnrolmentRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestExistsByStudentAndClass(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id = $1 AND class_id = $2 AND status = $3`)).
		WithArgs("s1", "class-1", string(models.EnrolmentStatusEnroled)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByStudentAndClass(context.Background(), "s1", "class-1", models.EnrolmentStatusEnroled)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByStudentAndClassMiss(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id`)).
		WithArgs("s1", "class-1", string(models.EnrolmentStatusEnroled)).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByStudentAndClass(context.Background(), "s1", "class-1", models.EnrolmentStatusEnroled)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByClassAndStatus(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrolments WHERE class_id = $1 AND status = $2`)).
		WithArgs("class-1", string(models.EnrolmentStatusEnroled)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByClassAndStatus(context.Background(), "class-1", models.EnrolmentStatusEnroled)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockedCourseIDs(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT c.course_id FROM enrolments e`)).
		WithArgs("s1", string(models.EnrolmentStatusEnroled), string(models.EnrolmentStatusCompleted)).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow("course-1").AddRow("course-2"))

	courseIDs, err := repo.BlockedCourseIDs(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1", "course-2"}, courseIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDetailedByStudentAndStatus(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "enrolment_date", "status", "course_id", "course_code", "course_name", "section", "schedule"}).
		AddRow("enr-1", "s1", "class-1", now, "Enroled", "course-1", "PRG3204E", "ADVANCED PROGRAMMING", "A", "Wed 19:30-21:30")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM enrolments e`)).
		WithArgs("s1", string(models.EnrolmentStatusEnroled)).
		WillReturnRows(rows)

	enrolments, err := repo.ListDetailedByStudentAndStatus(context.Background(), "s1", models.EnrolmentStatusEnroled)
	require.NoError(t, err)
	require.Len(t, enrolments, 1)
	assert.Equal(t, "PRG3204E", enrolments[0].CourseCode)
	assert.Equal(t, models.EnrolmentStatusEnroled, enrolments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitCommitsEnrolmentAndHistory(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id`)).
		WithArgs("s1", "class-1", string(models.EnrolmentStatusEnroled)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments e JOIN classes c`)).
		WithArgs("s1", "course-1", string(models.EnrolmentStatusEnroled)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrolments WHERE class_id`)).
		WithArgs("class-1", string(models.EnrolmentStatusEnroled)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec(`INSERT INTO enrolments`).
		WithArgs(sqlmock.AnyArg(), "s1", "class-1", sqlmock.AnyArg(), string(models.EnrolmentStatusEnroled)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO add_drop_history`).
		WithArgs(sqlmock.AnyArg(), "s1", "class-1", string(models.HistoryActionAdd), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrolment := &models.Enrolment{StudentID: "s1", ClassID: "class-1"}
	err := repo.Admit(context.Background(), enrolment, "course-1", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, enrolment.ID)
	assert.False(t, enrolment.EnrolmentDate.IsZero())
	assert.Equal(t, models.EnrolmentStatusEnroled, enrolment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitClassFullRollsBack(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments e JOIN classes c`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrolments WHERE class_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrolment{StudentID: "s1", ClassID: "class-1"}, "course-1", 5)
	assert.ErrorIs(t, err, ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitDuplicateClassInTx(t *testing.T) {
	// The in-transaction re-check catches an enrolment committed between
	// evaluation and admission.
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrolment{StudentID: "s1", ClassID: "class-1"}, "course-1", 5)
	assert.ErrorIs(t, err, ErrDuplicateClass)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitUniqueViolationIsConcurrentModification(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments WHERE student_id`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM enrolments e JOIN classes c`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrolments WHERE class_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO enrolments`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrolment{StudentID: "s1", ClassID: "class-1"}, "course-1", 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrentModification.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDischargeCommitsDeleteAndHistory(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM enrolments WHERE id = $1 AND student_id = $2`)).
		WithArgs("enr-1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_id", "enrolment_date", "status"}).
			AddRow("enr-1", "s1", "class-1", now, "Enroled"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM enrolments WHERE id = $1`)).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO add_drop_history`).
		WithArgs(sqlmock.AnyArg(), "s1", "class-1", string(models.HistoryActionDrop), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrolment, err := repo.Discharge(context.Background(), "enr-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "class-1", enrolment.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDischargeNotFound(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM enrolments WHERE id = $1 AND student_id = $2`)).
		WithArgs("enr-1", "someone-else").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	enrolment, err := repo.Discharge(context.Background(), "enr-1", "someone-else")
	assert.Nil(t, enrolment)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDischargeSerializationFailure(t *testing.T) {
	repo, mock := newEnrolmentRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM enrolments WHERE id = $1 AND student_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_id", "enrolment_date", "status"}).
			AddRow("enr-1", "s1", "class-1", now, "Enroled"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM enrolments`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO add_drop_history`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	enrolment, err := repo.Discharge(context.Background(), "enr-1", "s1")
	assert.Nil(t, enrolment)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrentModification.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
