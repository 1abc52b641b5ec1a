package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oes-platform/enrolment-api/internal/service"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
	"github.com/oes-platform/enrolment-api/pkg/response"
)

// TimetableHandler exposes the timetable conflict check.
type TimetableHandler struct {
	timetable *service.TimetableService
}

// NewTimetableHandler constructs TimetableHandler.
func NewTimetableHandler(timetable *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable}
}

// CheckTimetableRequest lists candidate classes for conflict checking.
type CheckTimetableRequest struct {
	ClassIDs []string `json:"class_ids" binding:"required"`
}

// Check godoc
// @Summary Check a set of classes for schedule conflicts
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body CheckTimetableRequest true "Class IDs to check"
// @Success 200 {object} response.Envelope
// @Router /timetable/check [post]
func (h *TimetableHandler) Check(c *gin.Context) {
	var req CheckTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	conflicts, classes, err := h.timetable.CheckClasses(c.Request.Context(), req.ClassIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"conflicts": conflicts, "classes": classes}, nil)
}
