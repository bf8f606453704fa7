package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sala-kh/grade-service/internal/middleware"
	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/service"
	"github.com/sala-kh/grade-service/pkg/response"
)

type classCalculatorMock struct {
	results map[string]*models.CalculationResult
}

func (m *classCalculatorMock) CalculateClass(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, studentIDs []string) (map[string]*models.CalculationResult, error) {
	out := make(map[string]*models.CalculationResult, len(studentIDs))
	for _, id := range studentIDs {
		if r, ok := m.results[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

type rosterMock struct {
	class    *models.Class
	students []models.Student
}

func (m *rosterMock) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if m.class == nil || m.class.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.class, nil
}

func (m *rosterMock) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return m.students, nil
}

type studentRosterMock struct {
	*rosterMock
}

func (m *studentRosterMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func newRankingHandlerFixture() *RankingHandler {
	roster := &rosterMock{
		class: &models.Class{ID: "class-1", Name: "Grade 9A", GradeLevel: 9, AcademicYear: "2025-2026"},
		students: []models.Student{
			{ID: "student-1", ClassID: "class-1", FullName: "Dara", Active: true},
			{ID: "student-2", ClassID: "class-1", FullName: "Sokha", Active: true},
			{ID: "student-3", ClassID: "class-1", FullName: "Vanna", Active: true},
		},
	}
	calc := &classCalculatorMock{results: map[string]*models.CalculationResult{
		"student-1": {StudentID: "student-1", CalculatedScore: 90, LetterGrade: "A", Complete: true, EntryCount: 5},
		"student-2": {StudentID: "student-2", CalculatedScore: 90, LetterGrade: "A", Complete: true, EntryCount: 5},
		"student-3": {StudentID: "student-3", CalculatedScore: 75, LetterGrade: "C", Complete: true, EntryCount: 5},
	}}
	cache := service.NewCacheService(nil, nil, 0, nil, false)
	svc := service.NewRankingService(calc, &studentRosterMock{roster}, roster, cache, 0, nil, nil)
	return NewRankingHandler(svc)
}

func rankingTestContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
	return c, w
}

func TestRankingHandlerRank(t *testing.T) {
	handler := newRankingHandlerFixture()
	c, w := rankingTestContext(t, "/classes/class-1/ranking?subjectId=subject-1&semester=1&academicYear=2025-2026")

	handler.Rank(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.RankingSnapshot `json:"data"`
		Meta map[string]interface{} `json:"meta"`
		Err  *json.RawMessage       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Err)
	assert.Equal(t, false, envelope.Meta["cached"])
	require.Len(t, envelope.Data.Rankings, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{
		envelope.Data.Rankings[0].Rank,
		envelope.Data.Rankings[1].Rank,
		envelope.Data.Rankings[2].Rank,
	})
	assert.Equal(t, 3, envelope.Data.TotalStudents)
}

func TestRankingHandlerRankMissingSemester(t *testing.T) {
	handler := newRankingHandlerFixture()
	c, w := rankingTestContext(t, "/classes/class-1/ranking?subjectId=subject-1&academicYear=2025-2026")

	handler.Rank(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandlerRankBadAcademicYear(t *testing.T) {
	handler := newRankingHandlerFixture()
	c, w := rankingTestContext(t, "/classes/class-1/ranking?subjectId=subject-1&semester=1&academicYear=2025")

	handler.Rank(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandlerRankHalfPriorKeyRejected(t *testing.T) {
	handler := newRankingHandlerFixture()
	c, w := rankingTestContext(t, "/classes/class-1/ranking?subjectId=subject-1&semester=1&academicYear=2025-2026&priorSemester=1")

	handler.Rank(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}
