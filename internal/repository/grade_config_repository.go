package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sala-kh/grade-service/internal/models"
)

// GradeConfigRepository manages grading configuration persistence.
type GradeConfigRepository struct {
	db *sqlx.DB
}

// NewGradeConfigRepository creates a new repository instance.
func NewGradeConfigRepository(db *sqlx.DB) *GradeConfigRepository {
	return &GradeConfigRepository{db: db}
}

const gradeConfigColumns = `id, teacher_id, class_id, subject_id, semester, academic_year, monthly_exam_count, monthly_weight, semester_exam_weight, created_at, updated_at`

// FindForTeacher returns the teacher-specific config row for the scope.
func (r *GradeConfigRepository) FindForTeacher(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_configs
        WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3 AND semester = $4 AND academic_year = $5`, gradeConfigColumns)
	var config models.GradeConfig
	if err := r.db.GetContext(ctx, &config, query, teacherID, classID, subjectID, semester, academicYear); err != nil {
		return nil, err
	}
	return &config, nil
}

// FindDefault returns the institutional default row (teacher_id IS NULL).
func (r *GradeConfigRepository) FindDefault(ctx context.Context, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_configs
        WHERE teacher_id IS NULL AND class_id = $1 AND subject_id = $2 AND semester = $3 AND academic_year = $4`, gradeConfigColumns)
	var config models.GradeConfig
	if err := r.db.GetContext(ctx, &config, query, classID, subjectID, semester, academicYear); err != nil {
		return nil, err
	}
	return &config, nil
}

// List returns configs for a class/subject scope across teachers.
func (r *GradeConfigRepository) List(ctx context.Context, classID, subjectID string, semester int, academicYear string) ([]models.GradeConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_configs WHERE class_id = $1 AND subject_id = $2 AND semester = $3 AND academic_year = $4
        ORDER BY teacher_id NULLS FIRST`, gradeConfigColumns)
	var configs []models.GradeConfig
	if err := r.db.SelectContext(ctx, &configs, query, classID, subjectID, semester, academicYear); err != nil {
		return nil, fmt.Errorf("list grade configs: %w", err)
	}
	return configs, nil
}

// Upsert writes a config keyed by its natural uniqueness tuple. An existing
// row for the same (teacher, class, subject, semester, year) is overwritten
// in place; configs are never versioned. teacher_id can be NULL, so the
// update uses IS NOT DISTINCT FROM rather than ON CONFLICT.
func (r *GradeConfigRepository) Upsert(ctx context.Context, config *models.GradeConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	config.UpdatedAt = now

	const update = `UPDATE grade_configs
        SET monthly_exam_count = $1, monthly_weight = $2, semester_exam_weight = $3, updated_at = $4
        WHERE teacher_id IS NOT DISTINCT FROM $5 AND class_id = $6 AND subject_id = $7 AND semester = $8 AND academic_year = $9
        RETURNING id, created_at`
	err = tx.QueryRowxContext(ctx, update,
		config.MonthlyExamCount, config.MonthlyWeight, config.SemesterExamWeight, now,
		config.TeacherID, config.ClassID, config.SubjectID, config.Semester, config.AcademicYear,
	).Scan(&config.ID, &config.CreatedAt)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit grade config: %w", err)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update grade config: %w", err)
	}

	config.ID = uuid.NewString()
	config.CreatedAt = now
	const insert = `INSERT INTO grade_configs (id, teacher_id, class_id, subject_id, semester, academic_year, monthly_exam_count, monthly_weight, semester_exam_weight, created_at, updated_at)
        VALUES (:id, :teacher_id, :class_id, :subject_id, :semester, :academic_year, :monthly_exam_count, :monthly_weight, :semester_exam_weight, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, config); err != nil {
		tx.Rollback() //nolint:errcheck
		if isUniqueViolation(err) {
			return ErrDuplicateRow
		}
		return fmt.Errorf("insert grade config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade config: %w", err)
	}
	return nil
}
