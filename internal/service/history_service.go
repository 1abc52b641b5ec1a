package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type historyReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.AddDropHistoryDetail, error)
}

// HistoryService exposes the append-only add/drop audit trail.
type HistoryService struct {
	repo   historyReader
	logger *zap.Logger
}

// NewHistoryService constructs HistoryService.
func NewHistoryService(repo historyReader, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, logger: logger}
}

// ListByStudent returns the student's audit trail, newest first.
func (s *HistoryService) ListByStudent(ctx context.Context, studentID string) ([]models.AddDropHistoryDetail, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return records, nil
}
