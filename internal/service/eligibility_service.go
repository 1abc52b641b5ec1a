package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	"github.com/oes-platform/enrolment-api/internal/repository"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type enrolmentRepository interface {
	ListDetailedByStudentAndStatus(ctx context.Context, studentID string, status models.EnrolmentStatus) ([]models.EnrolmentDetail, error)
	ExistsByStudentAndClass(ctx context.Context, studentID, classID string, status models.EnrolmentStatus) (bool, error)
	ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string, status models.EnrolmentStatus) (bool, error)
	CountByClassAndStatus(ctx context.Context, classID string, status models.EnrolmentStatus) (int, error)
	Admit(ctx context.Context, enrolment *models.Enrolment, courseID string, capacity int) error
	Discharge(ctx context.Context, enrolmentID, studentID string) (*models.Enrolment, error)
}

type classDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

type availabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, studentID string) error
}

// EvaluateRequest identifies the student and the target class. Identity is
// always an explicit parameter, never derived from ambient request state.
type EvaluateRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// DropRequest identifies the enrolment to drop and the student claiming it.
type DropRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	EnrolmentID string `json:"enrolment_id" validate:"required"`
}

// evalFacts holds everything the rule chain consults for one evaluation.
// All fields are read fresh per request.
type evalFacts struct {
	class           *models.ClassDetail
	courseCompleted bool
	enroledInClass  bool
	enroledInCourse bool
	enroledCount    int
	prereqCompleted bool
}

// eligibilityRule is one pure predicate in the admission chain. An empty
// reason means the rule passes.
type eligibilityRule struct {
	name  string
	check func(f *evalFacts) models.RejectReason
}

// admissionRules run in order; the first failure determines the single
// reported reason.
var admissionRules = []eligibilityRule{
	{
		name: "course_completed",
		check: func(f *evalFacts) models.RejectReason {
			if f.courseCompleted {
				return models.ReasonCourseAlreadyCompleted
			}
			return ""
		},
	},
	{
		name: "duplicate_class",
		check: func(f *evalFacts) models.RejectReason {
			if f.enroledInClass {
				return models.ReasonAlreadyEnroledInClass
			}
			return ""
		},
	},
	{
		name: "duplicate_course",
		check: func(f *evalFacts) models.RejectReason {
			if f.enroledInCourse {
				return models.ReasonAlreadyEnroledInCourse
			}
			return ""
		},
	},
	{
		name: "capacity",
		check: func(f *evalFacts) models.RejectReason {
			if f.enroledCount >= f.class.Capacity {
				return models.ReasonClassFull
			}
			return ""
		},
	},
	{
		// Only the immediate prerequisite is checked; chains are not
		// resolved transitively.
		name: "prerequisite",
		check: func(f *evalFacts) models.RejectReason {
			if f.class.PrerequisiteCourseID != nil && !f.prereqCompleted {
				return models.ReasonPrerequisiteNotMet
			}
			return ""
		},
	},
}

// EligibilityService decides whether a student may add or drop a class and
// commits admitted actions together with their audit rows.
type EligibilityService struct {
	repo      enrolmentRepository
	classes   classDetailReader
	catalog   availabilityInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEligibilityService constructs EligibilityService. catalog and metrics
// may be nil.
func NewEligibilityService(repo enrolmentRepository, classes classDetailReader, catalog availabilityInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EligibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{repo: repo, classes: classes, catalog: catalog, metrics: metrics, validator: validate, logger: logger}
}

// Evaluate runs the ordered rule chain for (student, class) without side
// effects and returns the decision.
func (s *EligibilityService) Evaluate(ctx context.Context, req EvaluateRequest) (models.Decision, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Decision{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	decision, _, err := s.evaluate(ctx, req)
	if err != nil {
		return models.Decision{}, err
	}
	s.observe(decision)
	return decision, nil
}

func (s *EligibilityService) evaluate(ctx context.Context, req EvaluateRequest) (models.Decision, *evalFacts, error) {
	class, err := s.classes.FindDetailByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Reject(models.ReasonClassNotFound), nil, nil
		}
		return models.Decision{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	facts, err := s.gatherFacts(ctx, req.StudentID, class)
	if err != nil {
		return models.Decision{}, nil, err
	}

	for _, rule := range admissionRules {
		if reason := rule.check(facts); reason != "" {
			s.logger.Debug("admission rejected",
				zap.String("student_id", req.StudentID),
				zap.String("class_id", req.ClassID),
				zap.String("rule", rule.name),
				zap.String("reason", string(reason)))
			return models.Reject(reason), facts, nil
		}
	}
	return models.Admit(), facts, nil
}

func (s *EligibilityService) gatherFacts(ctx context.Context, studentID string, class *models.ClassDetail) (*evalFacts, error) {
	facts := &evalFacts{class: class}

	var err error
	if facts.courseCompleted, err = s.repo.ExistsByStudentAndCourse(ctx, studentID, class.CourseID, models.EnrolmentStatusCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check completed course")
	}
	if facts.enroledInClass, err = s.repo.ExistsByStudentAndClass(ctx, studentID, class.ID, models.EnrolmentStatusEnroled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class enrolment")
	}
	if facts.enroledInCourse, err = s.repo.ExistsByStudentAndCourse(ctx, studentID, class.CourseID, models.EnrolmentStatusEnroled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course enrolment")
	}
	if facts.enroledCount, err = s.repo.CountByClassAndStatus(ctx, class.ID, models.EnrolmentStatusEnroled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolments")
	}
	if class.PrerequisiteCourseID != nil {
		if facts.prereqCompleted, err = s.repo.ExistsByStudentAndCourse(ctx, studentID, *class.PrerequisiteCourseID, models.EnrolmentStatusCompleted); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prerequisite")
		}
	}
	return facts, nil
}

// Enrol evaluates and, on admission, commits the enrolment together with its
// Add audit row. The admission transaction re-checks duplicates and capacity
// so a concurrent admission cannot take the same last seat; a lost race
// either downgrades the decision or surfaces as the retryable
// concurrent-modification error.
func (s *EligibilityService) Enrol(ctx context.Context, req EvaluateRequest) (models.Decision, *models.Enrolment, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Decision{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrolment payload")
	}

	decision, facts, err := s.evaluate(ctx, req)
	if err != nil {
		return models.Decision{}, nil, err
	}
	if !decision.Admitted() {
		s.observe(decision)
		return decision, nil, nil
	}

	enrolment := &models.Enrolment{StudentID: req.StudentID, ClassID: req.ClassID}
	if err := s.repo.Admit(ctx, enrolment, facts.class.CourseID, facts.class.Capacity); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassFull):
			decision = models.Reject(models.ReasonClassFull)
		case errors.Is(err, repository.ErrDuplicateClass):
			decision = models.Reject(models.ReasonAlreadyEnroledInClass)
		case errors.Is(err, repository.ErrDuplicateCourse):
			decision = models.Reject(models.ReasonAlreadyEnroledInCourse)
		default:
			if appErrors.FromError(err).Code == appErrors.ErrConcurrentModification.Code {
				return models.Decision{}, nil, err
			}
			return models.Decision{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrolment")
		}
		s.observe(decision)
		return decision, nil, nil
	}

	s.invalidateAvailability(ctx, req.StudentID)
	s.observe(decision)
	s.logger.Info("student enroled",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ClassID),
		zap.String("enrolment_id", enrolment.ID))
	return decision, enrolment, nil
}

// Drop removes the student's enrolment and appends the Drop audit row. No
// eligibility rules apply; only ownership is verified.
func (s *EligibilityService) Drop(ctx context.Context, req DropRequest) (models.Decision, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Decision{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}

	enrolment, err := s.repo.Discharge(ctx, req.EnrolmentID, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Reject(models.ReasonEnrolmentNotFound), nil
		}
		if appErrors.FromError(err).Code == appErrors.ErrConcurrentModification.Code {
			return models.Decision{}, err
		}
		return models.Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrolment")
	}

	s.invalidateAvailability(ctx, req.StudentID)
	s.logger.Info("student dropped class",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", enrolment.ClassID),
		zap.String("enrolment_id", enrolment.ID))
	return models.Dropped(), nil
}

// ListCurrent returns the student's Enroled rows with class context.
func (s *EligibilityService) ListCurrent(ctx context.Context, studentID string) ([]models.EnrolmentDetail, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	enrolments, err := s.repo.ListDetailedByStudentAndStatus(ctx, studentID, models.EnrolmentStatusEnroled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolments")
	}
	return enrolments, nil
}

func (s *EligibilityService) invalidateAvailability(ctx context.Context, studentID string) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.InvalidateAvailability(ctx, studentID); err != nil {
		s.logger.Warn("availability cache invalidation failed",
			zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *EligibilityService) observe(decision models.Decision) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDecision(string(decision.Outcome), string(decision.Reason))
}
