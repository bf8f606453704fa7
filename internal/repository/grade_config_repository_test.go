package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sala-kh/grade-service/internal/models"
)

func newConfigRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeConfigRepositoryUpsertUpdatesExistingRow(t *testing.T) {
	db, mock, cleanup := newConfigRepoMock(t)
	defer cleanup()

	repo := NewGradeConfigRepository(db)
	teacherID := "teacher-1"
	created := time.Now().Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id IS NOT DISTINCT FROM $5")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("cfg-1", created))
	mock.ExpectCommit()

	config := &models.GradeConfig{
		TeacherID:          &teacherID,
		ClassID:            "class-1",
		SubjectID:          "subject-1",
		Semester:           1,
		AcademicYear:       "2025-2026",
		MonthlyExamCount:   4,
		MonthlyWeight:      60,
		SemesterExamWeight: 40,
	}
	require.NoError(t, repo.Upsert(context.Background(), config))
	require.Equal(t, "cfg-1", config.ID)
	require.WithinDuration(t, created, config.CreatedAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeConfigRepositoryUpsertInsertsWhenMissing(t *testing.T) {
	db, mock, cleanup := newConfigRepoMock(t)
	defer cleanup()

	repo := NewGradeConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id IS NOT DISTINCT FROM $5")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_configs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	config := &models.GradeConfig{
		ClassID:            "class-1",
		SubjectID:          "subject-1",
		Semester:           1,
		AcademicYear:       "2025-2026",
		MonthlyExamCount:   3,
		MonthlyWeight:      50,
		SemesterExamWeight: 50,
	}
	require.NoError(t, repo.Upsert(context.Background(), config))
	require.NotEmpty(t, config.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeConfigRepositoryFindDefaultScansRow(t *testing.T) {
	db, mock, cleanup := newConfigRepoMock(t)
	defer cleanup()

	repo := NewGradeConfigRepository(db)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "class_id", "subject_id", "semester", "academic_year", "monthly_exam_count", "monthly_weight", "semester_exam_weight", "created_at", "updated_at"}).
		AddRow("cfg-1", nil, "class-1", "subject-1", 1, "2025-2026", 4, 70.0, 30.0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id IS NULL AND class_id = $1")).
		WithArgs("class-1", "subject-1", 1, "2025-2026").
		WillReturnRows(rows)

	config, err := repo.FindDefault(context.Background(), "class-1", "subject-1", 1, "2025-2026")
	require.NoError(t, err)
	require.Nil(t, config.TeacherID)
	require.Equal(t, 70.0, config.MonthlyWeight)
	require.NoError(t, mock.ExpectationsWereMet())
}
