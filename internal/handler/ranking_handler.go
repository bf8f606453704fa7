package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/service"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/response"
)

// RankingHandler exposes class ranking endpoints.
type RankingHandler struct {
	rankings *service.RankingService
}

// NewRankingHandler constructs handler.
func NewRankingHandler(rankings *service.RankingService) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// Rank godoc
// @Summary Rank a class for a subject and semester
// @Tags Rankings
// @Produce json
// @Param id path string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param academicYear query string true "Academic year"
// @Param priorSemester query int false "Prior period semester"
// @Param priorAcademicYear query string false "Prior period academic year"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/ranking [get]
func (h *RankingHandler) Rank(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2"))
		return
	}
	subjectID := c.Query("subjectId")
	academicYear := c.Query("academicYear")
	if subjectID == "" || !models.ValidAcademicYear(academicYear) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId and a YYYY-YYYY academicYear are required"))
		return
	}

	prior, err := priorPeriodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot, cached, err := h.rankings.Rank(c.Request.Context(), callerID(c), c.Param("id"), subjectID, semester, academicYear, prior)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"cached": cached})
}

// priorPeriodFromQuery reads the optional explicit prior-period key. Both
// parts must be supplied together; a half-specified key is rejected rather
// than guessed at.
func priorPeriodFromQuery(c *gin.Context) (*models.PeriodKey, error) {
	rawSemester := c.Query("priorSemester")
	rawYear := c.Query("priorAcademicYear")
	if rawSemester == "" && rawYear == "" {
		return nil, nil
	}
	if rawSemester == "" || rawYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "priorSemester and priorAcademicYear must be supplied together")
	}
	semester, err := strconv.Atoi(rawSemester)
	if err != nil || (semester != 1 && semester != 2) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "priorSemester must be 1 or 2")
	}
	if !models.ValidAcademicYear(rawYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "priorAcademicYear must be YYYY-YYYY")
	}
	return &models.PeriodKey{Semester: semester, AcademicYear: rawYear}, nil
}
