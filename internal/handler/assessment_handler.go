package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/service"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/response"
)

// AssessmentHandler exposes the assessment-type catalog.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// List godoc
// @Summary List assessment types
// @Tags Assessments
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /assessment-types [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	filter := models.AssessmentTypeFilter{Category: models.AssessmentCategory(c.Query("category"))}
	types, err := h.assessments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Get godoc
// @Summary Get assessment type
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment type ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-types/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	at, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, at, nil)
}

// Create godoc
// @Summary Create assessment type
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.SaveAssessmentTypeRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessment-types [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.SaveAssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	at, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, at, nil)
}

// Update godoc
// @Summary Update assessment type
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment type ID"
// @Param payload body service.SaveAssessmentTypeRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessment-types/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	var req service.SaveAssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	at, err := h.assessments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, at, nil)
}
