package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sala-kh/grade-service/internal/models"
)

// AssessmentTypeRepository handles assessment-type reference data.
type AssessmentTypeRepository struct {
	db *sqlx.DB
}

// NewAssessmentTypeRepository creates a new assessment type repository.
func NewAssessmentTypeRepository(db *sqlx.DB) *AssessmentTypeRepository {
	return &AssessmentTypeRepository{db: db}
}

const assessmentTypeColumns = `id, name, name_km, code, category, default_weight, max_score, display_order, created_at, updated_at`

// List returns assessment types ordered for display.
func (r *AssessmentTypeRepository) List(ctx context.Context, filter models.AssessmentTypeFilter) ([]models.AssessmentType, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessment_types WHERE 1=1`, assessmentTypeColumns)
	var args []interface{}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	query += " ORDER BY display_order, code"
	var types []models.AssessmentType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, fmt.Errorf("list assessment types: %w", err)
	}
	return types, nil
}

// FindByID returns one assessment type.
func (r *AssessmentTypeRepository) FindByID(ctx context.Context, id string) (*models.AssessmentType, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessment_types WHERE id = $1`, assessmentTypeColumns)
	var at models.AssessmentType
	if err := r.db.GetContext(ctx, &at, query, id); err != nil {
		return nil, err
	}
	return &at, nil
}

// FindByCode returns the assessment type with the given unique code.
func (r *AssessmentTypeRepository) FindByCode(ctx context.Context, code string) (*models.AssessmentType, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessment_types WHERE code = $1`, assessmentTypeColumns)
	var at models.AssessmentType
	if err := r.db.GetContext(ctx, &at, query, code); err != nil {
		return nil, err
	}
	return &at, nil
}

// Create inserts a new assessment type.
func (r *AssessmentTypeRepository) Create(ctx context.Context, at *models.AssessmentType) error {
	if at.ID == "" {
		at.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	at.CreatedAt = now
	at.UpdatedAt = now
	const query = `INSERT INTO assessment_types (id, name, name_km, code, category, default_weight, max_score, display_order, created_at, updated_at)
        VALUES (:id, :name, :name_km, :code, :category, :default_weight, :max_score, :display_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, at); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRow
		}
		return fmt.Errorf("insert assessment type: %w", err)
	}
	return nil
}

// Update modifies an existing assessment type.
func (r *AssessmentTypeRepository) Update(ctx context.Context, at *models.AssessmentType) error {
	at.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessment_types SET name = :name, name_km = :name_km, category = :category,
        default_weight = :default_weight, max_score = :max_score, display_order = :display_order, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, at)
	if err != nil {
		return fmt.Errorf("update assessment type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment type: %w", err)
	}
	if affected == 0 {
		return ErrNoRow
	}
	return nil
}
