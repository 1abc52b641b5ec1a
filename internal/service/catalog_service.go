package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

const (
	cacheKeyCourses       = "catalog:courses"
	cacheKeyClasses       = "catalog:classes"
	cacheKeyAvailability  = "catalog:available:%s"
	cacheKeyAvailabilityP = "catalog:available:*"
)

type catalogCourseReader interface {
	List(ctx context.Context) ([]models.CourseDetail, error)
}

type catalogClassReader interface {
	List(ctx context.Context) ([]models.ClassDetail, error)
	ListExcludingCourses(ctx context.Context, blockedCourseIDs []string) ([]models.ClassDetail, error)
}

type blockedCourseReader interface {
	BlockedCourseIDs(ctx context.Context, studentID string) ([]string, error)
}

// CatalogService serves course and class catalogue reads, including the
// per-student available-class view that hides courses the student has
// completed or is already enroled in.
type CatalogService struct {
	courses catalogCourseReader
	classes catalogClassReader
	blocked blockedCourseReader
	cache   *CacheService
	logger  *zap.Logger
}

// NewCatalogService constructs CatalogService. cache may be nil.
func NewCatalogService(courses catalogCourseReader, classes catalogClassReader, blocked blockedCourseReader, cache *CacheService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, classes: classes, blocked: blocked, cache: cache, logger: logger}
}

// ListCourses returns the course catalogue.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.CourseDetail, error) {
	var cached []models.CourseDetail
	if hit, _ := s.cache.Get(ctx, cacheKeyCourses, &cached); hit {
		return cached, nil
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	_ = s.cache.Set(ctx, cacheKeyCourses, courses, 0)
	return courses, nil
}

// ListClasses returns all class sections with course context.
func (s *CatalogService) ListClasses(ctx context.Context) ([]models.ClassDetail, error) {
	var cached []models.ClassDetail
	if hit, _ := s.cache.Get(ctx, cacheKeyClasses, &cached); hit {
		return cached, nil
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	_ = s.cache.Set(ctx, cacheKeyClasses, classes, 0)
	return classes, nil
}

// AvailableClasses lists classes the student could still enrol in: sections
// of courses the student has neither completed nor is currently enroled in.
// Capacity and prerequisites are evaluated at enrol time, not here.
func (s *CatalogService) AvailableClasses(ctx context.Context, studentID string) ([]models.ClassDetail, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	key := fmt.Sprintf(cacheKeyAvailability, studentID)
	var cached []models.ClassDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	blocked, err := s.blocked.BlockedCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve blocked courses")
	}
	classes, err := s.classes.ListExcludingCourses(ctx, blocked)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available classes")
	}
	_ = s.cache.Set(ctx, key, classes, 0)
	return classes, nil
}

// InvalidateAvailability drops the student's cached availability view after
// a successful enrol or drop.
func (s *CatalogService) InvalidateAvailability(ctx context.Context, studentID string) error {
	if studentID == "" {
		return s.cache.Invalidate(ctx, cacheKeyAvailabilityP)
	}
	return s.cache.Invalidate(ctx, fmt.Sprintf(cacheKeyAvailability, studentID))
}
