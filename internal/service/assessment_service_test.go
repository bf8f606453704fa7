package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

func assessmentFixture() *AssessmentService {
	return NewAssessmentService(newMemAssessmentRepo(), nil, zap.NewNop())
}

func TestAssessmentCreateAndDuplicateCode(t *testing.T) {
	svc := assessmentFixture()
	req := SaveAssessmentTypeRequest{
		Name:     "Monthly Exam 1",
		NameKm:   "ប្រឡងប្រចាំខែ ១",
		Code:     "MONTHLY_1",
		Category: models.CategoryMonthlyExam,
		MaxScore: 100,
	}

	at, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, at.ID)

	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAssessmentCreateRejectsLowercaseCode(t *testing.T) {
	svc := assessmentFixture()

	_, err := svc.Create(context.Background(), SaveAssessmentTypeRequest{
		Name:     "Monthly",
		Code:     "monthly_1",
		Category: models.CategoryMonthlyExam,
		MaxScore: 100,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAssessmentUpdateKeepsCode(t *testing.T) {
	svc := assessmentFixture()

	at, err := svc.Create(context.Background(), SaveAssessmentTypeRequest{
		Name:     "Semester Exam",
		Code:     "SEMESTER_1",
		Category: models.CategorySemesterExam,
		MaxScore: 100,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), at.ID, SaveAssessmentTypeRequest{
		Name:     "Semester One Exam",
		Code:     "RENAMED",
		Category: models.CategorySemesterExam,
		MaxScore: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "SEMESTER_1", updated.Code)
	assert.Equal(t, 120.0, updated.MaxScore)
	assert.Equal(t, "Semester One Exam", updated.Name)
}

func TestAssessmentListFiltersByCategory(t *testing.T) {
	svc := assessmentFixture()

	for _, req := range []SaveAssessmentTypeRequest{
		{Name: "M1", Code: "MONTHLY_1", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 1},
		{Name: "M2", Code: "MONTHLY_2", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 2},
		{Name: "S1", Code: "SEMESTER_1", Category: models.CategorySemesterExam, MaxScore: 100, DisplayOrder: 9},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	monthly, err := svc.List(context.Background(), models.AssessmentTypeFilter{Category: models.CategoryMonthlyExam})
	require.NoError(t, err)
	assert.Len(t, monthly, 2)

	all, err := svc.List(context.Background(), models.AssessmentTypeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
