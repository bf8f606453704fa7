package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/service"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/response"
)

// SummaryHandler exposes student and class report views.
type SummaryHandler struct {
	summaries *service.SummaryService
	exports   *service.ExportService
}

// NewSummaryHandler constructs handler.
func NewSummaryHandler(summaries *service.SummaryService, exports *service.ExportService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, exports: exports}
}

// StudentSummary godoc
// @Summary Student semester summary across subjects
// @Tags Summaries
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/semester-summary [get]
func (h *SummaryHandler) StudentSummary(c *gin.Context) {
	semester, academicYear, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.summaries.StudentSemesterSummary(c.Request.Context(), callerID(c), c.Param("id"), semester, academicYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ClassSummary godoc
// @Summary Class summary for a subject and semester
// @Tags Summaries
// @Produce json
// @Param id path string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/summary [get]
func (h *SummaryHandler) ClassSummary(c *gin.Context) {
	semester, academicYear, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId is required"))
		return
	}
	summary, cached, err := h.summaries.ClassSummary(c.Request.Context(), callerID(c), c.Param("id"), subjectID, semester, academicYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}

// ExportClassSummary godoc
// @Summary Download a class summary report
// @Tags Summaries
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /classes/{id}/summary/export [get]
func (h *SummaryHandler) ExportClassSummary(c *gin.Context) {
	semester, academicYear, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId is required"))
		return
	}

	var data []byte
	var filename, contentType string
	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		data, filename, err = h.exports.ClassSummaryCSV(c.Request.Context(), callerID(c), c.Param("id"), subjectID, semester, academicYear)
		contentType = "text/csv"
	case "pdf":
		data, filename, err = h.exports.ClassSummaryPDF(c.Request.Context(), callerID(c), c.Param("id"), subjectID, semester, academicYear)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func periodFromQuery(c *gin.Context) (int, string, error) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil || (semester != 1 && semester != 2) {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}
	academicYear := c.Query("academicYear")
	if !models.ValidAcademicYear(academicYear) {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "academicYear must be YYYY-YYYY")
	}
	return semester, academicYear, nil
}
