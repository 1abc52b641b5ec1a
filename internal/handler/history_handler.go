package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oes-platform/enrolment-api/internal/service"
	"github.com/oes-platform/enrolment-api/pkg/response"
)

// HistoryHandler exposes the add/drop audit trail.
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ListByStudent godoc
// @Summary List a student's add/drop history
// @Tags History
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *HistoryHandler) ListByStudent(c *gin.Context) {
	records, err := h.history.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
