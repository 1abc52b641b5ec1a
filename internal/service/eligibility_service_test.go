package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	"github.com/oes-platform/enrolment-api/internal/repository"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type mockEnrolmentRepo struct {
	enroledClasses   map[string]bool // studentID+classID
	enroledCourses   map[string]bool // studentID+courseID
	completedCourses map[string]bool // studentID+courseID
	classCounts      map[string]int
	enrolments       map[string]models.Enrolment // enrolmentID
	admitErr         error
	admitted         *models.Enrolment
	discharged       []string
}

func (m *mockEnrolmentRepo) ListDetailedByStudentAndStatus(ctx context.Context, studentID string, status models.EnrolmentStatus) ([]models.EnrolmentDetail, error) {
	var list []models.EnrolmentDetail
	for _, e := range m.enrolments {
		if e.StudentID == studentID && e.Status == status {
			list = append(list, models.EnrolmentDetail{Enrolment: e})
		}
	}
	return list, nil
}

func (m *mockEnrolmentRepo) ExistsByStudentAndClass(ctx context.Context, studentID, classID string, status models.EnrolmentStatus) (bool, error) {
	if status != models.EnrolmentStatusEnroled {
		return false, nil
	}
	return m.enroledClasses[studentID+classID], nil
}

func (m *mockEnrolmentRepo) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string, status models.EnrolmentStatus) (bool, error) {
	if status == models.EnrolmentStatusCompleted {
		return m.completedCourses[studentID+courseID], nil
	}
	return m.enroledCourses[studentID+courseID], nil
}

func (m *mockEnrolmentRepo) CountByClassAndStatus(ctx context.Context, classID string, status models.EnrolmentStatus) (int, error) {
	return m.classCounts[classID], nil
}

func (m *mockEnrolmentRepo) Admit(ctx context.Context, enrolment *models.Enrolment, courseID string, capacity int) error {
	if m.admitErr != nil {
		return m.admitErr
	}
	enrolment.ID = "enr-new"
	enrolment.Status = models.EnrolmentStatusEnroled
	m.admitted = enrolment
	return nil
}

func (m *mockEnrolmentRepo) Discharge(ctx context.Context, enrolmentID, studentID string) (*models.Enrolment, error) {
	e, ok := m.enrolments[enrolmentID]
	if !ok || e.StudentID != studentID {
		return nil, sql.ErrNoRows
	}
	delete(m.enrolments, enrolmentID)
	m.discharged = append(m.discharged, enrolmentID)
	return &e, nil
}

type mockClassDetailReader struct {
	classes map[string]*models.ClassDetail
}

func (m *mockClassDetailReader) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func classFixture(id, courseID string, capacity int, prereq *string) *models.ClassDetail {
	return &models.ClassDetail{
		Class: models.Class{
			ID:       id,
			CourseID: courseID,
			Section:  "A",
			Capacity: capacity,
			Schedule: "Wed 19:30-20:30",
		},
		CourseCode:           "CIS3201E",
		CourseName:           "COMPUTER COMMUNICATION & NETWORKS",
		Credits:              6,
		PrerequisiteCourseID: prereq,
	}
}

func newEligibilityFixture(repo *mockEnrolmentRepo, classes *mockClassDetailReader) *EligibilityService {
	return NewEligibilityService(repo, classes, nil, nil, validator.New(), zap.NewNop())
}

func TestEvaluateClassNotFound(t *testing.T) {
	svc := newEligibilityFixture(&mockEnrolmentRepo{}, &mockClassDetailReader{})

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, decision.Outcome)
	assert.Equal(t, models.ReasonClassNotFound, decision.Reason)
}

func TestEvaluateCompletedCourseBlocksEverything(t *testing.T) {
	// A full class with an unmet prerequisite still reports the completed
	// course: the first failing rule wins.
	repo := &mockEnrolmentRepo{
		completedCourses: map[string]bool{"s1course-1": true},
		classCounts:      map[string]int{"class-1": 99},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, strPtr("course-0")),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonCourseAlreadyCompleted, decision.Reason)
}

func TestEvaluateDuplicateClass(t *testing.T) {
	repo := &mockEnrolmentRepo{
		enroledClasses: map[string]bool{"s1class-1": true},
		enroledCourses: map[string]bool{"s1course-1": true},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonAlreadyEnroledInClass, decision.Reason)
}

func TestEvaluateDuplicateCourseOtherSection(t *testing.T) {
	// Enroled in section A of the course, evaluating section B.
	repo := &mockEnrolmentRepo{
		enroledCourses: map[string]bool{"s1course-1": true},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-2": classFixture("class-2", "course-1", 10, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-2"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonAlreadyEnroledInCourse, decision.Reason)
}

func TestEvaluateZeroCapacityRejectsBeforePrerequisite(t *testing.T) {
	// Capacity 0 always rejects, and does so before the (also failing)
	// prerequisite rule.
	repo := &mockEnrolmentRepo{}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 0, strPtr("course-0")),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonClassFull, decision.Reason)
}

func TestEvaluatePrerequisiteNotMet(t *testing.T) {
	repo := &mockEnrolmentRepo{}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, strPtr("course-0")),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonPrerequisiteNotMet, decision.Reason)
}

func TestEvaluatePrerequisiteEnroledDoesNotCount(t *testing.T) {
	// Being enroled in the prerequisite is not completion.
	repo := &mockEnrolmentRepo{
		enroledCourses: map[string]bool{"s1course-0": true},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, strPtr("course-0")),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonPrerequisiteNotMet, decision.Reason)
}

func TestEvaluateAdmitsWithCompletedPrerequisite(t *testing.T) {
	repo := &mockEnrolmentRepo{
		completedCourses: map[string]bool{"s1course-0": true},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, strPtr("course-0")),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, err := svc.Evaluate(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.True(t, decision.Admitted())
	assert.Empty(t, decision.Reason)
}

func TestEnrolCommitsOnAdmission(t *testing.T) {
	repo := &mockEnrolmentRepo{}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, enrolment, err := svc.Enrol(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.True(t, decision.Admitted())
	require.NotNil(t, enrolment)
	assert.Equal(t, "enr-new", enrolment.ID)
	assert.Equal(t, models.EnrolmentStatusEnroled, enrolment.Status)
	require.NotNil(t, repo.admitted)
}

func TestEnrolLostRaceDowngradesToClassFull(t *testing.T) {
	// Evaluation passes but the transactional re-count loses the last seat.
	repo := &mockEnrolmentRepo{admitErr: repository.ErrClassFull}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 1, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, enrolment, err := svc.Enrol(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Nil(t, enrolment)
	assert.Equal(t, models.OutcomeRejected, decision.Outcome)
	assert.Equal(t, models.ReasonClassFull, decision.Reason)
}

func TestEnrolConcurrentModificationSurfaces(t *testing.T) {
	repo := &mockEnrolmentRepo{admitErr: appErrors.ErrConcurrentModification}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	_, _, err := svc.Enrol(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrentModification.Code, appErrors.FromError(err).Code)
}

func TestEnrolRejectionSkipsCommit(t *testing.T) {
	repo := &mockEnrolmentRepo{
		enroledCourses: map[string]bool{"s1course-1": true},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"class-1": classFixture("class-1", "course-1", 10, nil),
	}}
	svc := newEligibilityFixture(repo, classes)

	decision, enrolment, err := svc.Enrol(context.Background(), EvaluateRequest{StudentID: "s1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Nil(t, enrolment)
	assert.Equal(t, models.ReasonAlreadyEnroledInCourse, decision.Reason)
	assert.Nil(t, repo.admitted)
}

func TestDropRemovesOwnedEnrolment(t *testing.T) {
	repo := &mockEnrolmentRepo{
		enrolments: map[string]models.Enrolment{
			"enr-1": {ID: "enr-1", StudentID: "s1", ClassID: "class-1", Status: models.EnrolmentStatusEnroled},
		},
	}
	svc := newEligibilityFixture(repo, &mockClassDetailReader{})

	decision, err := svc.Drop(context.Background(), DropRequest{StudentID: "s1", EnrolmentID: "enr-1"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDropped, decision.Outcome)
	assert.Contains(t, repo.discharged, "enr-1")
}

func TestDropRejectsForeignEnrolment(t *testing.T) {
	repo := &mockEnrolmentRepo{
		enrolments: map[string]models.Enrolment{
			"enr-1": {ID: "enr-1", StudentID: "someone-else", ClassID: "class-1", Status: models.EnrolmentStatusEnroled},
		},
	}
	svc := newEligibilityFixture(repo, &mockClassDetailReader{})

	decision, err := svc.Drop(context.Background(), DropRequest{StudentID: "s1", EnrolmentID: "enr-1"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, decision.Outcome)
	assert.Equal(t, models.ReasonEnrolmentNotFound, decision.Reason)
	assert.Empty(t, repo.discharged)
}

func TestDropMissingEnrolment(t *testing.T) {
	svc := newEligibilityFixture(&mockEnrolmentRepo{}, &mockClassDetailReader{})

	decision, err := svc.Drop(context.Background(), DropRequest{StudentID: "s1", EnrolmentID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonEnrolmentNotFound, decision.Reason)
}
