package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCalcService(grades *memGradeRepo, cfg *fixedConfigResolver) *CalculationService {
	return NewCalculationService(grades, cfg, testScale(), nil, zap.NewNop())
}

func TestCalculateWeightedScenario(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(monthlyEntry("stu1", "MONTHLY_1", 1, 70))
	grades.put(monthlyEntry("stu1", "MONTHLY_2", 2, 80))
	grades.put(monthlyEntry("stu1", "MONTHLY_3", 3, 90))
	grades.put(semesterEntry("stu1", 95))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(60, 40, 3)})

	result, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	require.NotNil(t, result.MonthlyAverage)
	assert.Equal(t, 80.00, *result.MonthlyAverage)
	assert.Equal(t, 48.00, result.WeightedMonthly)
	assert.Equal(t, 38.00, result.WeightedSemester)
	assert.Equal(t, 86.00, result.CalculatedScore)
	assert.Equal(t, "B", result.LetterGrade)
	assert.True(t, result.Complete)
}

func TestCalculateMissingMonthly(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(semesterEntry("stu1", 80))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(50, 50, 4)})

	result, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	assert.Nil(t, result.MonthlyAverage)
	assert.Equal(t, 0.00, result.WeightedMonthly)
	assert.Equal(t, 40.00, result.CalculatedScore)
	assert.False(t, result.Complete)
	assert.Contains(t, result.CalculationDetails, "monthly exams: 0 of 4")
}

func TestCalculatePartialMonthlyShrinksDenominator(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(monthlyEntry("stu1", "MONTHLY_1", 1, 60))
	grades.put(monthlyEntry("stu1", "MONTHLY_2", 2, 90))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(50, 50, 4)})

	result, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	require.NotNil(t, result.MonthlyAverage)
	assert.Equal(t, 75.00, *result.MonthlyAverage)
	assert.Equal(t, 37.50, result.WeightedMonthly)
	assert.False(t, result.Complete)
	assert.Contains(t, result.CalculationDetails, "monthly exams: 2 of 4")
	assert.Contains(t, result.CalculationDetails, "semester exam: not entered")
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(monthlyEntry("stu1", "MONTHLY_1", 1, 70))
	grades.put(monthlyEntry("stu1", "MONTHLY_2", 2, 70))
	grades.put(monthlyEntry("stu1", "MONTHLY_3", 3, 71))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(50, 50, 3)})

	result, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	// 211/3 = 70.333... -> 70.33
	assert.Equal(t, 70.33, *result.MonthlyAverage)
}

func TestCalculateIdempotent(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(monthlyEntry("stu1", "MONTHLY_1", 1, 83.33))
	grades.put(monthlyEntry("stu1", "MONTHLY_2", 2, 66.67))
	grades.put(semesterEntry("stu1", 77.77))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(70, 30, 2)})

	first, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateClassIncludesStudentsWithoutEntries(t *testing.T) {
	grades := newMemGradeRepo()
	grades.put(monthlyEntry("stu1", "MONTHLY_1", 1, 90))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(50, 50, 1)})

	results, err := svc.CalculateClass(context.Background(), "t1", "class-1", "subject-1", 1, "2025-2026", []string{"stu1", "stu2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 45.00, results["stu1"].CalculatedScore)
	assert.Equal(t, 0.00, results["stu2"].CalculatedScore)
	assert.Nil(t, results["stu2"].MonthlyAverage)
	assert.False(t, results["stu2"].Complete)
	assert.Zero(t, results["stu2"].EntryCount)
}

func TestCalculatePrefersMatchingSemesterExamCode(t *testing.T) {
	grades := newMemGradeRepo()
	other := semesterEntry("stu1", 50)
	other.AssessmentTypeID = "at-SEMESTER_2"
	other.AssessmentCode = "SEMESTER_2"
	other.ID = "g-other"
	grades.put(other)
	grades.put(semesterEntry("stu1", 90))
	svc := newCalcService(grades, &fixedConfigResolver{cfg: weightedConfig(50, 50, 4)})

	result, err := svc.Calculate(context.Background(), "t1", "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 45.00, result.WeightedSemester)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 85.99, roundHalfUp(85.994))
	assert.Equal(t, 47.00, roundHalfUp(46.998))
	assert.Equal(t, 0.00, roundHalfUp(0))
	assert.Equal(t, 70.33, roundHalfUp(70.333333))
}

func TestWeightsSumTo100(t *testing.T) {
	assert.True(t, weightsSumTo100(60, 40))
	assert.True(t, weightsSumTo100(33.33, 66.67))
	assert.False(t, weightsSumTo100(60, 39.99))
	assert.False(t, weightsSumTo100(50.005, 49.995))
}
