package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type scheduleRepository interface {
	FindForTeacher(ctx context.Context, teacherID, academicYear, semesterExamCode string) (*models.SemesterSchedule, error)
	FindDefault(ctx context.Context, academicYear, semesterExamCode string) (*models.SemesterSchedule, error)
	Upsert(ctx context.Context, schedule *models.SemesterSchedule) error
}

// ScheduleSlotRequest is one monthly slot in a schedule payload.
type ScheduleSlotRequest struct {
	AssessmentCode string `json:"assessment_code" validate:"required"`
	Title          string `json:"title" validate:"required"`
	DisplayOrder   int    `json:"display_order" validate:"min=1"`
}

// SaveScheduleRequest is the upsert payload for a semester schedule.
// TeacherID empty means the institutional default row.
type SaveScheduleRequest struct {
	TeacherID        string                `json:"teacher_id"`
	AcademicYear     string                `json:"academic_year" validate:"required,academicyear"`
	SemesterExamCode string                `json:"semester_exam_code" validate:"required"`
	ExamSchedule     []ScheduleSlotRequest `json:"exam_schedule" validate:"required,min=1,max=6,dive"`
}

// ScheduleService resolves and stores semester schedules with the same
// teacher-override-over-default fallback as grade configs.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// Resolve returns the effective schedule for the period. teacherID empty
// skips the override tier; a fully missing schedule degrades to the built-in
// four-monthly default.
func (s *ScheduleService) Resolve(ctx context.Context, teacherID, academicYear, semesterExamCode string) (*models.ResolvedSchedule, error) {
	if teacherID != "" {
		schedule, err := s.repo.FindForTeacher(ctx, teacherID, academicYear, semesterExamCode)
		if err == nil {
			return &models.ResolvedSchedule{SemesterSchedule: *schedule, Source: models.ConfigSourceTeacher}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
		}
	}

	schedule, err := s.repo.FindDefault(ctx, academicYear, semesterExamCode)
	if err == nil {
		return &models.ResolvedSchedule{SemesterSchedule: *schedule, Source: models.ConfigSourceDefault}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default semester schedule")
	}

	builtin := models.BuiltinSchedule(academicYear, semesterExamCode)
	return &builtin, nil
}

// Save validates and upserts a schedule keyed by (teacher, year, exam code).
func (s *ScheduleService) Save(ctx context.Context, req SaveScheduleRequest) (*models.SemesterSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	seen := make(map[string]struct{}, len(req.ExamSchedule))
	slots := make(models.ExamSlots, 0, len(req.ExamSchedule))
	for _, slot := range req.ExamSchedule {
		if _, ok := seen[slot.AssessmentCode]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate assessment code %s in schedule", slot.AssessmentCode))
		}
		seen[slot.AssessmentCode] = struct{}{}
		slots = append(slots, models.ExamSlot{
			AssessmentCode: slot.AssessmentCode,
			Title:          slot.Title,
			DisplayOrder:   slot.DisplayOrder,
		})
	}

	schedule := &models.SemesterSchedule{
		AcademicYear:     req.AcademicYear,
		SemesterExamCode: req.SemesterExamCode,
		ExamSchedule:     slots,
		MonthlyExamCount: len(slots),
	}
	if req.TeacherID != "" {
		teacherID := req.TeacherID
		schedule.TeacherID = &teacherID
	}
	if err := s.repo.Upsert(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save semester schedule")
	}
	s.logger.Info("semester schedule saved",
		zap.String("academic_year", schedule.AcademicYear),
		zap.String("semester_exam_code", schedule.SemesterExamCode),
		zap.Int("slots", len(slots)),
	)
	return schedule, nil
}
