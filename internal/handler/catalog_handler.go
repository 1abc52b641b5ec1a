package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oes-platform/enrolment-api/internal/service"
	"github.com/oes-platform/enrolment-api/pkg/response"
)

// CatalogHandler exposes course and class catalogue reads.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCourses godoc
// @Summary List the course catalogue
// @Tags Catalogue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListClasses godoc
// @Summary List all class sections
// @Tags Catalogue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	classes, err := h.catalog.ListClasses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// AvailableClasses godoc
// @Summary List classes a student may still enrol in
// @Tags Catalogue
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/available-classes [get]
func (h *CatalogHandler) AvailableClasses(c *gin.Context) {
	classes, err := h.catalog.AvailableClasses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}
