package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sala-kh/grade-service/internal/service"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/response"
)

// ScheduleHandler exposes semester schedule endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Resolve godoc
// @Summary Resolve the effective schedule for a semester exam period
// @Tags Schedules
// @Produce json
// @Param academicYear query string true "Academic year"
// @Param semesterExamCode query string true "Semester exam code"
// @Success 200 {object} response.Envelope
// @Router /schedules/resolve [get]
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	academicYear := c.Query("academicYear")
	code := c.Query("semesterExamCode")
	if academicYear == "" || code == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicYear and semesterExamCode are required"))
		return
	}
	resolved, err := h.schedules.Resolve(c.Request.Context(), callerID(c), academicYear, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil)
}

// Save godoc
// @Summary Create or replace a semester schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.SaveScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req service.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
