package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// StudentService exposes student identity lookups.
type StudentService struct {
	repo   studentReader
	logger *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// Get returns the student or a typed not-found error.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
