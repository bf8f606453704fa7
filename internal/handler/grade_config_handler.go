package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sala-kh/grade-service/internal/service"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/response"
)

// GradeConfigHandler exposes grading configuration endpoints.
type GradeConfigHandler struct {
	configs *service.GradeConfigService
}

// NewGradeConfigHandler constructs handler.
func NewGradeConfigHandler(configs *service.GradeConfigService) *GradeConfigHandler {
	return &GradeConfigHandler{configs: configs}
}

// Resolve godoc
// @Summary Resolve the effective grading config for a scope
// @Tags Configs
// @Produce json
// @Param classId query string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /grade-configs/resolve [get]
func (h *GradeConfigHandler) Resolve(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2"))
		return
	}
	resolved, err := h.configs.Resolve(c.Request.Context(), callerID(c), c.Query("classId"), c.Query("subjectId"), semester, c.Query("academicYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil)
}

// List godoc
// @Summary List stored grading configs for a scope
// @Tags Configs
// @Produce json
// @Param classId query string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /grade-configs [get]
func (h *GradeConfigHandler) List(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2"))
		return
	}
	configs, err := h.configs.List(c.Request.Context(), c.Query("classId"), c.Query("subjectId"), semester, c.Query("academicYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Save godoc
// @Summary Create or replace a grading config
// @Tags Configs
// @Accept json
// @Produce json
// @Param payload body service.SaveGradeConfigRequest true "Config payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-configs [post]
func (h *GradeConfigHandler) Save(c *gin.Context) {
	var req service.SaveGradeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.configs.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
