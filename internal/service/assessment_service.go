package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/repository"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type assessmentTypeRepository interface {
	List(ctx context.Context, filter models.AssessmentTypeFilter) ([]models.AssessmentType, error)
	FindByID(ctx context.Context, id string) (*models.AssessmentType, error)
	FindByCode(ctx context.Context, code string) (*models.AssessmentType, error)
	Create(ctx context.Context, at *models.AssessmentType) error
	Update(ctx context.Context, at *models.AssessmentType) error
}

// SaveAssessmentTypeRequest is the admin payload for catalog writes.
type SaveAssessmentTypeRequest struct {
	Name          string                    `json:"name" validate:"required"`
	NameKm        string                    `json:"name_km"`
	Code          string                    `json:"code" validate:"required,uppercase"`
	Category      models.AssessmentCategory `json:"category" validate:"required,oneof=MONTHLY_EXAM SEMESTER_EXAM"`
	DefaultWeight float64                   `json:"default_weight" validate:"min=0,max=100"`
	MaxScore      float64                   `json:"max_score" validate:"required,min=1,max=1000"`
	DisplayOrder  int                       `json:"display_order" validate:"min=0"`
}

// AssessmentService administers the assessment-type catalog. The engine only
// reads it; writes are admin operations.
type AssessmentService struct {
	repo      assessmentTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentTypeRepository, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, validator: validate, logger: logger}
}

// List returns the catalog in display order.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentTypeFilter) ([]models.AssessmentType, error) {
	types, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment types")
	}
	return types, nil
}

// Get returns one assessment type.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.AssessmentType, error) {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	return at, nil
}

// Create inserts a catalog entry; codes are unique.
func (s *AssessmentService) Create(ctx context.Context, req SaveAssessmentTypeRequest) (*models.AssessmentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	at := &models.AssessmentType{
		Name:          req.Name,
		NameKm:        req.NameKm,
		Code:          req.Code,
		Category:      req.Category,
		DefaultWeight: req.DefaultWeight,
		MaxScore:      req.MaxScore,
		DisplayOrder:  req.DisplayOrder,
	}
	if err := s.repo.Create(ctx, at); err != nil {
		if errors.Is(err, repository.ErrDuplicateRow) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assessment type code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment type")
	}
	return at, nil
}

// Update modifies a catalog entry. The code is immutable once created since
// schedules reference it.
func (s *AssessmentService) Update(ctx context.Context, id string, req SaveAssessmentTypeRequest) (*models.AssessmentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	at.Name = req.Name
	at.NameKm = req.NameKm
	at.Category = req.Category
	at.DefaultWeight = req.DefaultWeight
	at.MaxScore = req.MaxScore
	at.DisplayOrder = req.DisplayOrder
	if err := s.repo.Update(ctx, at); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment type")
	}
	return at, nil
}
