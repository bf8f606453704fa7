package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type gradeConfigRepository interface {
	FindForTeacher(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error)
	FindDefault(ctx context.Context, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error)
	List(ctx context.Context, classID, subjectID string, semester int, academicYear string) ([]models.GradeConfig, error)
	Upsert(ctx context.Context, config *models.GradeConfig) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// SaveGradeConfigRequest is the upsert payload for a grading configuration.
// TeacherID empty means the institutional default row.
type SaveGradeConfigRequest struct {
	TeacherID          string  `json:"teacher_id"`
	ClassID            string  `json:"class_id" validate:"required"`
	SubjectID          string  `json:"subject_id" validate:"required"`
	Semester           int     `json:"semester" validate:"required,oneof=1 2"`
	AcademicYear       string  `json:"academic_year" validate:"required,academicyear"`
	MonthlyExamCount   int     `json:"monthly_exam_count" validate:"required,min=1,max=6"`
	MonthlyWeight      float64 `json:"monthly_weight" validate:"min=0,max=100"`
	SemesterExamWeight float64 `json:"semester_exam_weight" validate:"min=0,max=100"`
}

// GradeConfigService resolves and stores grading configurations. Resolution
// falls back from the teacher override to the institutional default and
// finally to a built-in config, so grading is never blocked by a missing row.
type GradeConfigService struct {
	repo      gradeConfigRepository
	subjects  subjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeConfigService constructs the service.
func NewGradeConfigService(repo gradeConfigRepository, subjects subjectReader, validate *validator.Validate, logger *zap.Logger) *GradeConfigService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeConfigService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// Resolve returns the effective config for the scope. teacherID empty skips
// the override tier. Missing rows degrade tier by tier; only an unknown
// subject is an error.
func (s *GradeConfigService) Resolve(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.ResolvedGradeConfig, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSubjectNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if teacherID != "" {
		config, err := s.repo.FindForTeacher(ctx, teacherID, classID, subjectID, semester, academicYear)
		if err == nil {
			return &models.ResolvedGradeConfig{GradeConfig: *config, Source: models.ConfigSourceTeacher}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade config")
		}
	}

	config, err := s.repo.FindDefault(ctx, classID, subjectID, semester, academicYear)
	if err == nil {
		return &models.ResolvedGradeConfig{GradeConfig: *config, Source: models.ConfigSourceDefault}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default grade config")
	}

	builtin := models.BuiltinGradeConfig(classID, subjectID, semester, academicYear)
	return &builtin, nil
}

// Save validates and upserts a config keyed by its natural uniqueness tuple.
func (s *GradeConfigService) Save(ctx context.Context, req SaveGradeConfigRequest) (*models.GradeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade config payload")
	}
	if !weightsSumTo100(req.MonthlyWeight, req.SemesterExamWeight) {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfig, "monthly and semester exam weights must sum to exactly 100.00")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSubjectNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	config := &models.GradeConfig{
		ClassID:            req.ClassID,
		SubjectID:          req.SubjectID,
		Semester:           req.Semester,
		AcademicYear:       req.AcademicYear,
		MonthlyExamCount:   req.MonthlyExamCount,
		MonthlyWeight:      req.MonthlyWeight,
		SemesterExamWeight: req.SemesterExamWeight,
	}
	if req.TeacherID != "" {
		teacherID := req.TeacherID
		config.TeacherID = &teacherID
	}
	if err := s.repo.Upsert(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade config")
	}
	s.logger.Info("grade config saved",
		zap.String("class_id", config.ClassID),
		zap.String("subject_id", config.SubjectID),
		zap.Int("semester", config.Semester),
		zap.String("academic_year", config.AcademicYear),
	)
	return config, nil
}

// List returns the stored configs for a scope, default row first.
func (s *GradeConfigService) List(ctx context.Context, classID, subjectID string, semester int, academicYear string) ([]models.GradeConfig, error) {
	configs, err := s.repo.List(ctx, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade configs")
	}
	return configs, nil
}
