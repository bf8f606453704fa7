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

// SemesterScheduleRepository manages semester schedule persistence.
type SemesterScheduleRepository struct {
	db *sqlx.DB
}

// NewSemesterScheduleRepository creates a new repository instance.
func NewSemesterScheduleRepository(db *sqlx.DB) *SemesterScheduleRepository {
	return &SemesterScheduleRepository{db: db}
}

const scheduleColumns = `id, teacher_id, academic_year, semester_exam_code, exam_schedule, monthly_exam_count, created_at, updated_at`

// FindForTeacher returns the teacher-specific schedule for the period.
func (r *SemesterScheduleRepository) FindForTeacher(ctx context.Context, teacherID, academicYear, semesterExamCode string) (*models.SemesterSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM semester_schedules
        WHERE teacher_id = $1 AND academic_year = $2 AND semester_exam_code = $3`, scheduleColumns)
	var schedule models.SemesterSchedule
	if err := r.db.GetContext(ctx, &schedule, query, teacherID, academicYear, semesterExamCode); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindDefault returns the institutional default schedule (teacher_id IS NULL).
func (r *SemesterScheduleRepository) FindDefault(ctx context.Context, academicYear, semesterExamCode string) (*models.SemesterSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM semester_schedules
        WHERE teacher_id IS NULL AND academic_year = $1 AND semester_exam_code = $2`, scheduleColumns)
	var schedule models.SemesterSchedule
	if err := r.db.GetContext(ctx, &schedule, query, academicYear, semesterExamCode); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Upsert writes a schedule keyed by (teacher, academic year, exam code),
// overwriting any existing row in place.
func (r *SemesterScheduleRepository) Upsert(ctx context.Context, schedule *models.SemesterSchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	schedule.UpdatedAt = now

	const update = `UPDATE semester_schedules
        SET exam_schedule = $1, monthly_exam_count = $2, updated_at = $3
        WHERE teacher_id IS NOT DISTINCT FROM $4 AND academic_year = $5 AND semester_exam_code = $6
        RETURNING id, created_at`
	slots, err := schedule.ExamSchedule.Value()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("encode exam schedule: %w", err)
	}
	err = tx.QueryRowxContext(ctx, update,
		slots, schedule.MonthlyExamCount, now,
		schedule.TeacherID, schedule.AcademicYear, schedule.SemesterExamCode,
	).Scan(&schedule.ID, &schedule.CreatedAt)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit semester schedule: %w", err)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update semester schedule: %w", err)
	}

	schedule.ID = uuid.NewString()
	schedule.CreatedAt = now
	const insert = `INSERT INTO semester_schedules (id, teacher_id, academic_year, semester_exam_code, exam_schedule, monthly_exam_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insert,
		schedule.ID, schedule.TeacherID, schedule.AcademicYear, schedule.SemesterExamCode,
		slots, schedule.MonthlyExamCount, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		tx.Rollback() //nolint:errcheck
		if isUniqueViolation(err) {
			return ErrDuplicateRow
		}
		return fmt.Errorf("insert semester schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit semester schedule: %w", err)
	}
	return nil
}
