package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sala-kh/grade-service/internal/models"
)

// GradeRepository handles grade entry persistence. Natural-key uniqueness
// (student x class x subject x assessment x semester x academic year) is a
// database constraint, so concurrent duplicate inserts resolve there.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeSelect = `SELECT g.id, g.teacher_id, g.student_id, g.class_id, g.subject_id, g.assessment_type_id,
        g.score, g.semester, g.academic_year, g.comments, g.created_at, g.updated_at,
        at.code AS assessment_code, at.category AS assessment_category, at.display_order AS assessment_order
        FROM grade_entries g
        JOIN assessment_types at ON at.id = g.assessment_type_id`

// FindByID returns a single grade entry.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	query := gradeSelect + ` WHERE g.id = $1`
	var entry models.GradeEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByNaturalKey returns the entry for the business key, if any.
func (r *GradeRepository) FindByNaturalKey(ctx context.Context, studentID, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (*models.GradeEntry, error) {
	query := gradeSelect + ` WHERE g.student_id = $1 AND g.class_id = $2 AND g.subject_id = $3
        AND g.assessment_type_id = $4 AND g.semester = $5 AND g.academic_year = $6`
	var entry models.GradeEntry
	if err := r.db.GetContext(ctx, &entry, query, studentID, classID, subjectID, assessmentTypeID, semester, academicYear); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns grade entries matching the filter.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	query := gradeSelect + ` WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND g.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND g.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND g.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.Semester != 0 {
		query += fmt.Sprintf(" AND g.semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.AcademicYear != "" {
		query += fmt.Sprintf(" AND g.academic_year = $%d", len(args)+1)
		args = append(args, filter.AcademicYear)
	}
	query += " ORDER BY g.student_id, at.display_order"
	var entries []models.GradeEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list grade entries: %w", err)
	}
	return entries, nil
}

// FetchByScope returns all entries for a class/subject/semester/year keyed by
// student ID, in assessment display order.
func (r *GradeRepository) FetchByScope(ctx context.Context, classID, subjectID string, semester int, academicYear string) (map[string][]models.GradeEntry, error) {
	query := gradeSelect + ` WHERE g.class_id = $1 AND g.subject_id = $2 AND g.semester = $3 AND g.academic_year = $4
        ORDER BY g.student_id, at.display_order`
	rows, err := r.db.QueryxContext(ctx, query, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, fmt.Errorf("fetch grade entries: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.GradeEntry)
	for rows.Next() {
		var entry models.GradeEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("scan grade entry: %w", err)
		}
		result[entry.StudentID] = append(result[entry.StudentID], entry)
	}
	return result, rows.Err()
}

// FetchForStudent returns one student's entries for a subject scope.
func (r *GradeRepository) FetchForStudent(ctx context.Context, studentID, classID, subjectID string, semester int, academicYear string) ([]models.GradeEntry, error) {
	query := gradeSelect + ` WHERE g.student_id = $1 AND g.class_id = $2 AND g.subject_id = $3 AND g.semester = $4 AND g.academic_year = $5
        ORDER BY at.display_order`
	var entries []models.GradeEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, classID, subjectID, semester, academicYear); err != nil {
		return nil, fmt.Errorf("fetch student grades: %w", err)
	}
	return entries, nil
}

// FetchByStudentAllSubjects returns a student's entries across every subject
// in the semester, keyed by subject ID.
func (r *GradeRepository) FetchByStudentAllSubjects(ctx context.Context, studentID, classID string, semester int, academicYear string) (map[string][]models.GradeEntry, error) {
	query := gradeSelect + ` WHERE g.student_id = $1 AND g.class_id = $2 AND g.semester = $3 AND g.academic_year = $4
        ORDER BY g.subject_id, at.display_order`
	rows, err := r.db.QueryxContext(ctx, query, studentID, classID, semester, academicYear)
	if err != nil {
		return nil, fmt.Errorf("fetch student grades: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.GradeEntry)
	for rows.Next() {
		var entry models.GradeEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("scan grade entry: %w", err)
		}
		result[entry.SubjectID] = append(result[entry.SubjectID], entry)
	}
	return result, rows.Err()
}

// ExistingStudentIDs returns the students that already have an entry for the
// given assessment scope.
func (r *GradeRepository) ExistingStudentIDs(ctx context.Context, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (map[string]struct{}, error) {
	const query = `SELECT student_id FROM grade_entries
        WHERE class_id = $1 AND subject_id = $2 AND assessment_type_id = $3 AND semester = $4 AND academic_year = $5`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classID, subjectID, assessmentTypeID, semester, academicYear); err != nil {
		return nil, fmt.Errorf("fetch existing grade keys: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Create inserts a grade entry. A natural-key collision returns
// ErrDuplicateRow; the stored row is left untouched.
func (r *GradeRepository) Create(ctx context.Context, entry *models.GradeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO grade_entries (id, teacher_id, student_id, class_id, subject_id, assessment_type_id, score, semester, academic_year, comments, created_at, updated_at)
        VALUES (:id, :teacher_id, :student_id, :class_id, :subject_id, :assessment_type_id, :score, :semester, :academic_year, :comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRow
		}
		return fmt.Errorf("insert grade entry: %w", err)
	}
	return nil
}

// CreateMany inserts entries in one transaction. Rows losing a unique-key
// race are reported back as skipped rather than failing the batch.
func (r *GradeRepository) CreateMany(ctx context.Context, entries []models.GradeEntry) (written []models.GradeEntry, skipped []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	const query = `INSERT INTO grade_entries (id, teacher_id, student_id, class_id, subject_id, assessment_type_id, score, semester, academic_year, comments, created_at, updated_at)
        VALUES (:id, :teacher_id, :student_id, :class_id, :subject_id, :assessment_type_id, :score, :semester, :academic_year, :comments, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, subject_id, assessment_type_id, semester, academic_year) DO NOTHING`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
		result, execErr := tx.NamedExecContext(ctx, query, entries[i])
		if execErr != nil {
			tx.Rollback() //nolint:errcheck
			return nil, nil, fmt.Errorf("bulk insert grade entry: %w", execErr)
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			tx.Rollback() //nolint:errcheck
			return nil, nil, fmt.Errorf("bulk insert grade entry: %w", raErr)
		}
		if affected == 0 {
			skipped = append(skipped, entries[i].StudentID)
			continue
		}
		written = append(written, entries[i])
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit grade entries: %w", err)
	}
	return written, skipped, nil
}

// Upsert inserts the entry or, when the natural key exists, updates the score
// and comments in place. The original entering teacher stays the owner.
func (r *GradeRepository) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO grade_entries (id, teacher_id, student_id, class_id, subject_id, assessment_type_id, score, semester, academic_year, comments, created_at, updated_at)
        VALUES (:id, :teacher_id, :student_id, :class_id, :subject_id, :assessment_type_id, :score, :semester, :academic_year, :comments, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, subject_id, assessment_type_id, semester, academic_year)
        DO UPDATE SET score = EXCLUDED.score, comments = EXCLUDED.comments, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert grade entry: %w", err)
	}
	return nil
}

// Update modifies the score and comments of an existing entry.
func (r *GradeRepository) Update(ctx context.Context, id string, score float64, comments *string) error {
	const query = `UPDATE grade_entries SET score = $2, comments = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, score, comments, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update grade entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update grade entry: %w", err)
	}
	if affected == 0 {
		return ErrNoRow
	}
	return nil
}

// Delete removes a grade entry.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM grade_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete grade entry: %w", err)
	}
	if affected == 0 {
		return ErrNoRow
	}
	return nil
}
