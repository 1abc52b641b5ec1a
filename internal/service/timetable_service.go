package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oes-platform/enrolment-api/internal/models"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type timetableClassReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.ClassDetail, error)
}

// TimetableService detects overlapping class schedules. The detection itself
// is pure and safe to call concurrently.
type TimetableService struct {
	classes timetableClassReader
	logger  *zap.Logger
}

// NewTimetableService constructs TimetableService.
func NewTimetableService(classes timetableClassReader, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{classes: classes, logger: logger}
}

// meeting is a parsed schedule: a weekday label and a half-open minute range.
type meeting struct {
	day   string
	start int
	end   int
}

// parseSchedule parses "<Day> <HH:MM>-<HH:MM>". A malformed or empty string
// yields ok=false, which conflicts with nothing; this is the documented
// permissive policy, not a validation gate.
func parseSchedule(raw string) (meeting, bool) {
	parts := strings.Split(raw, " ")
	if len(parts) != 2 || parts[0] == "" {
		return meeting{}, false
	}
	times := strings.Split(parts[1], "-")
	if len(times) != 2 {
		return meeting{}, false
	}
	start, ok := parseMinutes(times[0])
	if !ok {
		return meeting{}, false
	}
	end, ok := parseMinutes(times[1])
	if !ok {
		return meeting{}, false
	}
	return meeting{day: parts[0], start: start, end: end}, true
}

func parseMinutes(raw string) (int, bool) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// overlaps reports whether two meetings collide. Days compare as exact
// strings; ranges are half-open, so touching endpoints do not conflict.
func overlaps(a, b meeting) bool {
	if a.day != b.day {
		return false
	}
	return a.start < b.end && b.start < a.end
}

// FindConflicts checks every i<j pair and reports overlaps in input order.
// Empty or singleton input yields an empty result.
func (s *TimetableService) FindConflicts(classes []models.ClassDetail) []models.ConflictPair {
	meetings := make([]meeting, len(classes))
	parsed := make([]bool, len(classes))
	for i, class := range classes {
		meetings[i], parsed[i] = parseSchedule(class.Schedule)
	}

	conflicts := []models.ConflictPair{}
	for i := 0; i < len(classes); i++ {
		if !parsed[i] {
			continue
		}
		for j := i + 1; j < len(classes); j++ {
			if !parsed[j] {
				continue
			}
			if overlaps(meetings[i], meetings[j]) {
				conflicts = append(conflicts, models.ConflictPair{
					IndexA:    i,
					IndexB:    j,
					ClassAID:  classes[i].ID,
					ClassBID:  classes[j].ID,
					ScheduleA: classes[i].Schedule,
					ScheduleB: classes[j].Schedule,
				})
			}
		}
	}
	return conflicts
}

// CheckClasses loads the given classes and reports schedule conflicts among
// them, preserving the order of the requested ids. Unknown ids are skipped.
func (s *TimetableService) CheckClasses(ctx context.Context, classIDs []string) ([]models.ConflictPair, []models.ClassDetail, error) {
	if len(classIDs) == 0 {
		return []models.ConflictPair{}, nil, nil
	}
	loaded, err := s.classes.ListByIDs(ctx, classIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	byID := make(map[string]models.ClassDetail, len(loaded))
	for _, class := range loaded {
		byID[class.ID] = class
	}
	ordered := make([]models.ClassDetail, 0, len(classIDs))
	for _, id := range classIDs {
		if class, ok := byID[id]; ok {
			ordered = append(ordered, class)
		}
	}

	return s.FindConflicts(ordered), ordered, nil
}
