package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oes-platform/enrolment-api/internal/models"
	"github.com/oes-platform/enrolment-api/internal/service"
	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
	"github.com/oes-platform/enrolment-api/pkg/response"
)

// EnrolmentHandler exposes the add/drop workflow endpoints.
type EnrolmentHandler struct {
	eligibility *service.EligibilityService
}

// NewEnrolmentHandler constructs EnrolmentHandler.
func NewEnrolmentHandler(eligibility *service.EligibilityService) *EnrolmentHandler {
	return &EnrolmentHandler{eligibility: eligibility}
}

// decisionStatus maps rejection reasons onto HTTP statuses; absence means
// the enrolment state conflicts with the request.
func decisionStatus(decision models.Decision) int {
	switch decision.Reason {
	case models.ReasonClassNotFound, models.ReasonEnrolmentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// Evaluate godoc
// @Summary Evaluate enrolment eligibility without committing
// @Tags Enrolments
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /enrolments/evaluate [post]
func (h *EnrolmentHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	decision, err := h.eligibility.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Create godoc
// @Summary Enrol a student into a class
// @Tags Enrolments
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Enrolment payload"
// @Success 201 {object} response.Envelope
// @Router /enrolments [post]
func (h *EnrolmentHandler) Create(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	decision, enrolment, err := h.eligibility.Enrol(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !decision.Admitted() {
		response.JSON(c, decisionStatus(decision), gin.H{"decision": decision}, nil)
		return
	}
	response.Created(c, gin.H{"decision": decision, "enrolment": enrolment})
}

// Delete godoc
// @Summary Drop an enrolment
// @Tags Enrolments
// @Produce json
// @Param id path string true "Enrolment ID"
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /enrolments/{id} [delete]
func (h *EnrolmentHandler) Delete(c *gin.Context) {
	req := service.DropRequest{
		StudentID:   c.Query("studentId"),
		EnrolmentID: c.Param("id"),
	}
	decision, err := h.eligibility.Drop(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if decision.Outcome == models.OutcomeRejected {
		response.JSON(c, decisionStatus(decision), gin.H{"decision": decision}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"decision": decision}, nil)
}

// ListByStudent godoc
// @Summary List a student's current enrolments
// @Tags Enrolments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrolments [get]
func (h *EnrolmentHandler) ListByStudent(c *gin.Context) {
	enrolments, err := h.eligibility.ListCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrolments, nil)
}
