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

func gradeServiceFixture() (*GradeService, *memGradeRepo) {
	grades := newMemGradeRepo()
	assessments := newMemAssessmentRepo(
		models.AssessmentType{ID: "at-m1", Code: "MONTHLY_1", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 1},
		models.AssessmentType{ID: "at-m2", Code: "MONTHLY_2", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 2},
		models.AssessmentType{ID: "at-m3", Code: "MONTHLY_3", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 3},
		models.AssessmentType{ID: "at-m4", Code: "MONTHLY_4", Category: models.CategoryMonthlyExam, MaxScore: 100, DisplayOrder: 4},
		models.AssessmentType{ID: "at-sem", Code: "SEMESTER_1", Category: models.CategorySemesterExam, MaxScore: 100, DisplayOrder: 99},
	)
	subjects := &memSubjects{subjects: map[string]models.Subject{"subject-1": {ID: "subject-1", Name: "Mathematics"}}}
	classes := &memClasses{classes: map[string]models.Class{"class-1": {ID: "class-1", Name: "7A"}}}
	students := &memStudents{students: map[string]models.Student{
		"stu1": {ID: "stu1", ClassID: "class-1", FullName: "Dara", Active: true},
		"stu2": {ID: "stu2", ClassID: "class-1", FullName: "Sokha", Active: true},
	}}
	schedules := NewScheduleService(newMemScheduleRepo(), nil, zap.NewNop())
	svc := NewGradeService(grades, assessments, subjects, classes, students, schedules, disabledCache(), nil, zap.NewNop())
	return svc, grades
}

func createReq(studentID string, score float64) CreateGradeRequest {
	return CreateGradeRequest{
		StudentID:        studentID,
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		AssessmentTypeID: "at-m1",
		Score:            ptrFloat(score),
		Semester:         1,
		AcademicYear:     "2025-2026",
	}
}

func TestGradeCreateAndDuplicate(t *testing.T) {
	svc, _ := gradeServiceFixture()

	entry, err := svc.Create(context.Background(), "t1", createReq("stu1", 88))
	require.NoError(t, err)
	assert.Equal(t, "t1", entry.TeacherID)
	assert.Equal(t, "MONTHLY_1", entry.AssessmentCode)

	_, err = svc.Create(context.Background(), "t2", createReq("stu1", 95))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrDuplicateGrade.Code))

	// first score is untouched by the rejected write
	stored, err := svc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 88.0, stored.Score)
}

func TestGradeCreateRejectsScoreAboveMax(t *testing.T) {
	svc, _ := gradeServiceFixture()

	_, err := svc.Create(context.Background(), "t1", createReq("stu1", 101))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestGradeCreateBulkSkipsExisting(t *testing.T) {
	svc, _ := gradeServiceFixture()

	_, err := svc.Create(context.Background(), "t1", createReq("stu1", 70))
	require.NoError(t, err)

	result, err := svc.CreateBulk(context.Background(), "t1", BulkGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		AssessmentTypeID: "at-m1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		Entries: []BulkGradeItem{
			{StudentID: "stu1", Score: ptrFloat(99)},
			{StudentID: "stu2", Score: ptrFloat(85)},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Written, 1)
	assert.Equal(t, "stu2", result.Written[0].StudentID)
	assert.Equal(t, []string{"stu1"}, result.Skipped)

	// the skipped student's score stays untouched
	existing, err := svc.List(context.Background(), models.GradeFilter{StudentID: "stu1"})
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, 70.0, existing[0].Score)
}

func TestGradeEnterMonthlySkipsNilScores(t *testing.T) {
	svc, grades := gradeServiceFixture()

	result, err := svc.EnterMonthly(context.Background(), "t1", MonthlyGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "SEMESTER_1",
		Students: []MonthlyStudentScores{
			{StudentID: "stu1", Scores: []*float64{ptrFloat(80), nil, ptrFloat(75)}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesWritten)
	assert.Equal(t, 4, result.SlotsAvailable)

	stored, err := grades.FetchForStudent(context.Background(), "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestGradeEnterMonthlyRejectsTooManyScores(t *testing.T) {
	svc, _ := gradeServiceFixture()

	_, err := svc.EnterMonthly(context.Background(), "t1", MonthlyGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "SEMESTER_1",
		Students: []MonthlyStudentScores{
			{StudentID: "stu1", Scores: []*float64{ptrFloat(1), ptrFloat(2), ptrFloat(3), ptrFloat(4), ptrFloat(5)}},
		},
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestGradeEnterSemesterExamUpserts(t *testing.T) {
	svc, _ := gradeServiceFixture()

	req := SemesterExamGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "SEMESTER_1",
		Entries:          []BulkGradeItem{{StudentID: "stu1", Score: ptrFloat(77)}},
	}
	result, err := svc.EnterSemesterExam(context.Background(), "t1", req)
	require.NoError(t, err)
	require.Len(t, result.Written, 1)

	req.Entries[0].Score = ptrFloat(82)
	result, err = svc.EnterSemesterExam(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, 82.0, result.Written[0].Score)
}

func TestGradeEnterSemesterExamRejectsMonthlyCode(t *testing.T) {
	svc, _ := gradeServiceFixture()

	_, err := svc.EnterSemesterExam(context.Background(), "t1", SemesterExamGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "MONTHLY_1",
		Entries:          []BulkGradeItem{{StudentID: "stu1", Score: ptrFloat(50)}},
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestGradeUpdateOwnershipEnforced(t *testing.T) {
	svc, _ := gradeServiceFixture()

	entry, err := svc.Create(context.Background(), "t1", createReq("stu1", 60))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "t2", entry.ID, UpdateGradeRequest{Score: ptrFloat(90)})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorizedAccess.Code))

	updated, err := svc.Update(context.Background(), "t1", entry.ID, UpdateGradeRequest{Score: ptrFloat(90)})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.Score)
}

func TestGradeDeleteOwnershipEnforced(t *testing.T) {
	svc, _ := gradeServiceFixture()

	entry, err := svc.Create(context.Background(), "t1", createReq("stu1", 60))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "t2", entry.ID)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorizedAccess.Code))

	require.NoError(t, svc.Delete(context.Background(), "t1", entry.ID))
	_, err = svc.Get(context.Background(), entry.ID)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrGradeNotFound.Code))
}

func TestGradeCreateUnknownScope(t *testing.T) {
	svc, _ := gradeServiceFixture()

	req := createReq("stu1", 50)
	req.ClassID = "missing"
	_, err := svc.Create(context.Background(), "t1", req)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrClassNotFound.Code))

	req = createReq("stu1", 50)
	req.SubjectID = "missing"
	_, err = svc.Create(context.Background(), "t1", req)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrSubjectNotFound.Code))
}

func TestGradeEnterMonthlyRejectsForeignSlot(t *testing.T) {
	svc, grades := gradeServiceFixture()

	req := MonthlyGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "SEMESTER_1",
		Students: []MonthlyStudentScores{
			{StudentID: "stu1", Scores: []*float64{ptrFloat(80)}},
		},
	}
	_, err := svc.EnterMonthly(context.Background(), "t1", req)
	require.NoError(t, err)

	req.Students[0].Scores = []*float64{ptrFloat(95)}
	_, err = svc.EnterMonthly(context.Background(), "t2", req)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorizedAccess.Code))

	// the original teacher's score is untouched
	stored, err := grades.FetchForStudent(context.Background(), "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 80.0, stored[0].Score)
	assert.Equal(t, "t1", stored[0].TeacherID)
}

func TestGradeEnterSemesterExamRejectsForeignEntry(t *testing.T) {
	svc, grades := gradeServiceFixture()

	req := SemesterExamGradesRequest{
		ClassID:          "class-1",
		SubjectID:        "subject-1",
		Semester:         1,
		AcademicYear:     "2025-2026",
		SemesterExamCode: "SEMESTER_1",
		Entries:          []BulkGradeItem{{StudentID: "stu1", Score: ptrFloat(77)}},
	}
	_, err := svc.EnterSemesterExam(context.Background(), "t1", req)
	require.NoError(t, err)

	req.Entries[0].Score = ptrFloat(82)
	_, err = svc.EnterSemesterExam(context.Background(), "t2", req)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorizedAccess.Code))

	stored, err := grades.FetchForStudent(context.Background(), "stu1", "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 77.0, stored[0].Score)
}
