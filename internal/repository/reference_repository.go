package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sala-kh/grade-service/internal/models"
)

// SubjectRepository reads subject reference data owned by the student service.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a subject reader.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns one subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT id, name, name_km, code FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ClassRepository reads class reference data.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a class reader.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns one class.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, `SELECT id, name, grade_level, academic_year FROM classes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// StudentRepository reads the class roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a student reader.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, `SELECT id, class_id, full_name, full_name_km, active, created_at FROM students WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListActiveByClass returns the currently enrolled students of a class.
func (r *StudentRepository) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT id, class_id, full_name, full_name_km, active, created_at FROM students
        WHERE class_id = $1 AND active = TRUE ORDER BY full_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}
