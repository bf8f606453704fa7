package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/repository"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type gradeRepo interface {
	FindByID(ctx context.Context, id string) (*models.GradeEntry, error)
	FindByNaturalKey(ctx context.Context, studentID, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (*models.GradeEntry, error)
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error)
	ExistingStudentIDs(ctx context.Context, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (map[string]struct{}, error)
	Create(ctx context.Context, entry *models.GradeEntry) error
	CreateMany(ctx context.Context, entries []models.GradeEntry) (written []models.GradeEntry, skipped []string, err error)
	Upsert(ctx context.Context, entry *models.GradeEntry) error
	Update(ctx context.Context, id string, score float64, comments *string) error
	Delete(ctx context.Context, id string) error
}

type assessmentTypeReader interface {
	FindByID(ctx context.Context, id string) (*models.AssessmentType, error)
	FindByCode(ctx context.Context, code string) (*models.AssessmentType, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type scheduleResolver interface {
	Resolve(ctx context.Context, teacherID, academicYear, semesterExamCode string) (*models.ResolvedSchedule, error)
}

// CreateGradeRequest is the single grade entry payload.
type CreateGradeRequest struct {
	StudentID        string   `json:"student_id" validate:"required"`
	ClassID          string   `json:"class_id" validate:"required"`
	SubjectID        string   `json:"subject_id" validate:"required"`
	AssessmentTypeID string   `json:"assessment_type_id" validate:"required"`
	Score            *float64 `json:"score" validate:"required"`
	Semester         int      `json:"semester" validate:"required,oneof=1 2"`
	AcademicYear     string   `json:"academic_year" validate:"required,academicyear"`
	Comments         *string  `json:"comments"`
}

// BulkGradeItem is one student's score within a bulk payload.
type BulkGradeItem struct {
	StudentID string   `json:"student_id" validate:"required"`
	Score     *float64 `json:"score" validate:"required"`
	Comments  *string  `json:"comments"`
}

// BulkGradesRequest writes one assessment's scores for many students.
type BulkGradesRequest struct {
	ClassID          string          `json:"class_id" validate:"required"`
	SubjectID        string          `json:"subject_id" validate:"required"`
	AssessmentTypeID string          `json:"assessment_type_id" validate:"required"`
	Semester         int             `json:"semester" validate:"required,oneof=1 2"`
	AcademicYear     string          `json:"academic_year" validate:"required,academicyear"`
	Entries          []BulkGradeItem `json:"entries" validate:"required,min=1,dive"`
}

// BulkGradesResult reports what a bulk write actually stored. Students whose
// natural key already existed are skipped, not errored; resubmission is an
// expected flow.
type BulkGradesResult struct {
	Written []models.GradeEntry `json:"written"`
	Skipped []string            `json:"skipped,omitempty"`
}

// MonthlyStudentScores carries one student's scores in schedule-slot order.
// A nil slot means "not entered" and is skipped, never treated as zero.
type MonthlyStudentScores struct {
	StudentID string     `json:"student_id" validate:"required"`
	Scores    []*float64 `json:"scores" validate:"required"`
}

// MonthlyGradesRequest writes a whole monthly grade sheet in one call.
type MonthlyGradesRequest struct {
	ClassID          string                 `json:"class_id" validate:"required"`
	SubjectID        string                 `json:"subject_id" validate:"required"`
	Semester         int                    `json:"semester" validate:"required,oneof=1 2"`
	AcademicYear     string                 `json:"academic_year" validate:"required,academicyear"`
	SemesterExamCode string                 `json:"semester_exam_code" validate:"required"`
	Students         []MonthlyStudentScores `json:"students" validate:"required,min=1,dive"`
}

// MonthlyGradesResult summarises a monthly sheet write.
type MonthlyGradesResult struct {
	EntriesWritten int `json:"entries_written"`
	SlotsAvailable int `json:"slots_available"`
}

// SemesterExamGradesRequest writes semester exam scores for many students.
type SemesterExamGradesRequest struct {
	ClassID          string          `json:"class_id" validate:"required"`
	SubjectID        string          `json:"subject_id" validate:"required"`
	Semester         int             `json:"semester" validate:"required,oneof=1 2"`
	AcademicYear     string          `json:"academic_year" validate:"required,academicyear"`
	SemesterExamCode string          `json:"semester_exam_code" validate:"required"`
	Entries          []BulkGradeItem `json:"entries" validate:"required,min=1,dive"`
}

// UpdateGradeRequest modifies an existing entry's score and comments.
type UpdateGradeRequest struct {
	Score    *float64 `json:"score" validate:"required"`
	Comments *string  `json:"comments"`
}

// GradeService is the store for raw grade entries. Every mutation signals the
// affected calculation scope by invalidating its cached ranking and summary
// views; the next read recomputes from current rows.
type GradeService struct {
	grades      gradeRepo
	assessments assessmentTypeReader
	subjects    subjectReader
	classes     classReader
	students    studentReader
	schedules   scheduleResolver
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs the grade store.
func NewGradeService(grades gradeRepo, assessments assessmentTypeReader, subjects subjectReader, classes classReader, students studentReader, schedules scheduleResolver, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		assessments: assessments,
		subjects:    subjects,
		classes:     classes,
		students:    students,
		schedules:   schedules,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Create stores a single grade entry. A second write for the same natural key
// is rejected with DUPLICATE_GRADE and leaves the first score untouched.
func (s *GradeService) Create(ctx context.Context, teacherID string, req CreateGradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := s.checkScope(ctx, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	at, err := s.loadAssessmentType(ctx, req.AssessmentTypeID)
	if err != nil {
		return nil, err
	}
	if err := validateScore(*req.Score, at); err != nil {
		return nil, err
	}

	entry := &models.GradeEntry{
		TeacherID:        teacherID,
		StudentID:        req.StudentID,
		ClassID:          req.ClassID,
		SubjectID:        req.SubjectID,
		AssessmentTypeID: req.AssessmentTypeID,
		Score:            *req.Score,
		Semester:         req.Semester,
		AcademicYear:     req.AcademicYear,
		Comments:         req.Comments,
	}
	if err := s.grades.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateRow) {
			return nil, appErrors.ErrDuplicateGrade
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade entry")
	}
	entry.AssessmentCode = at.Code
	entry.AssessmentCategory = at.Category
	entry.AssessmentOrder = at.DisplayOrder

	s.invalidateScope(ctx, req.ClassID, req.SubjectID, req.Semester, req.AcademicYear)
	return entry, nil
}

// CreateBulk writes one assessment's scores for many students. Keys already
// present are skipped up front; rows losing the insert race are reported the
// same way. Only actually written rows return.
func (s *GradeService) CreateBulk(ctx context.Context, teacherID string, req BulkGradesRequest) (*BulkGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	if err := s.checkScope(ctx, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	at, err := s.loadAssessmentType(ctx, req.AssessmentTypeID)
	if err != nil {
		return nil, err
	}
	existing, err := s.grades.ExistingStudentIDs(ctx, req.ClassID, req.SubjectID, req.AssessmentTypeID, req.Semester, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grade entries")
	}

	var skipped []string
	entries := make([]models.GradeEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		if err := validateScore(*item.Score, at); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s: %s", item.StudentID, appErrors.FromError(err).Message))
		}
		if _, ok := existing[item.StudentID]; ok {
			skipped = append(skipped, item.StudentID)
			continue
		}
		entries = append(entries, models.GradeEntry{
			TeacherID:        teacherID,
			StudentID:        item.StudentID,
			ClassID:          req.ClassID,
			SubjectID:        req.SubjectID,
			AssessmentTypeID: req.AssessmentTypeID,
			Score:            *item.Score,
			Semester:         req.Semester,
			AcademicYear:     req.AcademicYear,
			Comments:         item.Comments,
		})
	}

	var written []models.GradeEntry
	if len(entries) > 0 {
		var raced []string
		written, raced, err = s.grades.CreateMany(ctx, entries)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade entries")
		}
		skipped = append(skipped, raced...)
	}
	for i := range written {
		written[i].AssessmentCode = at.Code
		written[i].AssessmentCategory = at.Category
		written[i].AssessmentOrder = at.DisplayOrder
	}

	if len(written) > 0 {
		s.invalidateScope(ctx, req.ClassID, req.SubjectID, req.Semester, req.AcademicYear)
	}
	return &BulkGradesResult{Written: written, Skipped: skipped}, nil
}

// EnterMonthly writes up to one score per monthly schedule slot for each
// student. Existing slot entries are updated in place, missing ones created.
// A slot already graded by a different teacher is rejected, not overwritten.
func (s *GradeService) EnterMonthly(ctx context.Context, teacherID string, req MonthlyGradesRequest) (*MonthlyGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid monthly payload")
	}
	if err := s.checkScope(ctx, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	schedule, err := s.schedules.Resolve(ctx, teacherID, req.AcademicYear, req.SemesterExamCode)
	if err != nil {
		return nil, err
	}
	slots := schedule.ExamSchedule
	types := make(map[string]*models.AssessmentType, len(slots))
	for _, slot := range slots {
		at, err := s.assessments.FindByCode(ctx, slot.AssessmentCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assessment type %s not found", slot.AssessmentCode))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
		}
		types[slot.AssessmentCode] = at
	}

	wrote := 0
	for _, student := range req.Students {
		if len(student.Scores) > len(slots) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s has %d scores for %d schedule slots", student.StudentID, len(student.Scores), len(slots)))
		}
		for i, score := range student.Scores {
			if score == nil {
				continue
			}
			at := types[slots[i].AssessmentCode]
			if err := validateScore(*score, at); err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s slot %s: %s", student.StudentID, at.Code, appErrors.FromError(err).Message))
			}
			entry := &models.GradeEntry{
				TeacherID:        teacherID,
				StudentID:        student.StudentID,
				ClassID:          req.ClassID,
				SubjectID:        req.SubjectID,
				AssessmentTypeID: at.ID,
				Score:            *score,
				Semester:         req.Semester,
				AcademicYear:     req.AcademicYear,
			}
			if err := s.upsertOwned(ctx, teacherID, entry); err != nil {
				return nil, err
			}
			wrote++
		}
	}

	if wrote > 0 {
		s.invalidateScope(ctx, req.ClassID, req.SubjectID, req.Semester, req.AcademicYear)
	}
	return &MonthlyGradesResult{EntriesWritten: wrote, SlotsAvailable: len(slots)}, nil
}

// EnterSemesterExam upserts semester exam scores for many students. Entries
// graded by a different teacher are rejected, not overwritten.
func (s *GradeService) EnterSemesterExam(ctx context.Context, teacherID string, req SemesterExamGradesRequest) (*BulkGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester exam payload")
	}
	if err := s.checkScope(ctx, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	at, err := s.assessments.FindByCode(ctx, req.SemesterExamCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assessment type %s not found", req.SemesterExamCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	if at.Category != models.CategorySemesterExam {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a semester exam", req.SemesterExamCode))
	}

	written := make([]models.GradeEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		if err := validateScore(*item.Score, at); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s: %s", item.StudentID, appErrors.FromError(err).Message))
		}
		entry := &models.GradeEntry{
			TeacherID:        teacherID,
			StudentID:        item.StudentID,
			ClassID:          req.ClassID,
			SubjectID:        req.SubjectID,
			AssessmentTypeID: at.ID,
			Score:            *item.Score,
			Semester:         req.Semester,
			AcademicYear:     req.AcademicYear,
			Comments:         item.Comments,
		}
		if err := s.upsertOwned(ctx, teacherID, entry); err != nil {
			return nil, err
		}
		entry.AssessmentCode = at.Code
		entry.AssessmentCategory = at.Category
		entry.AssessmentOrder = at.DisplayOrder
		written = append(written, *entry)
	}

	if len(written) > 0 {
		s.invalidateScope(ctx, req.ClassID, req.SubjectID, req.Semester, req.AcademicYear)
	}
	return &BulkGradesResult{Written: written}, nil
}

// Get returns one grade entry.
func (s *GradeService) Get(ctx context.Context, id string) (*models.GradeEntry, error) {
	entry, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrGradeNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entry")
	}
	return entry, nil
}

// List returns grade entries for a filter.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	entries, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	return entries, nil
}

// Update modifies an entry's score and comments. Only the teacher who
// entered the grade may change it.
func (s *GradeService) Update(ctx context.Context, teacherID, id string, req UpdateGradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	entry, err := s.ownedEntry(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	at, err := s.loadAssessmentType(ctx, entry.AssessmentTypeID)
	if err != nil {
		return nil, err
	}
	if err := validateScore(*req.Score, at); err != nil {
		return nil, err
	}
	if err := s.grades.Update(ctx, id, *req.Score, req.Comments); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return nil, appErrors.ErrGradeNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade entry")
	}
	entry.Score = *req.Score
	entry.Comments = req.Comments

	s.invalidateScope(ctx, entry.ClassID, entry.SubjectID, entry.Semester, entry.AcademicYear)
	return entry, nil
}

// Delete removes an entry. Only the teacher who entered the grade may
// delete it.
func (s *GradeService) Delete(ctx context.Context, teacherID, id string) error {
	entry, err := s.ownedEntry(ctx, teacherID, id)
	if err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return appErrors.ErrGradeNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade entry")
	}

	s.invalidateScope(ctx, entry.ClassID, entry.SubjectID, entry.Semester, entry.AcademicYear)
	return nil
}

// upsertOwned writes a sheet entry. When the natural key already holds a
// grade entered by a different teacher the write is rejected; sheet entry
// keeps the single-entry ownership rule and never reassigns a score.
func (s *GradeService) upsertOwned(ctx context.Context, teacherID string, entry *models.GradeEntry) error {
	existing, err := s.grades.FindByNaturalKey(ctx, entry.StudentID, entry.ClassID, entry.SubjectID, entry.AssessmentTypeID, entry.Semester, entry.AcademicYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entry")
	}
	if existing != nil && existing.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrUnauthorizedAccess, fmt.Sprintf("grade for student %s was entered by another teacher", entry.StudentID))
	}
	if err := s.grades.Upsert(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade entry")
	}
	return nil
}

func (s *GradeService) ownedEntry(ctx context.Context, teacherID, id string) (*models.GradeEntry, error) {
	entry, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrGradeNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entry")
	}
	if entry.TeacherID != teacherID {
		return nil, appErrors.ErrUnauthorizedAccess
	}
	return entry, nil
}

func (s *GradeService) checkScope(ctx context.Context, classID, subjectID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrClassNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrSubjectNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return nil
}

func (s *GradeService) loadAssessmentType(ctx context.Context, id string) (*models.AssessmentType, error) {
	at, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment type")
	}
	return at, nil
}

func (s *GradeService) invalidateScope(ctx context.Context, classID, subjectID string, semester int, academicYear string) {
	// The written period is the current scope of its own cached views and a
	// possible prior period of later snapshots; both forms are stale now.
	for _, pattern := range []string{
		ScopeKey(classID, subjectID, semester, academicYear) + ":*",
		priorRankingPattern(classID, subjectID, semester, academicYear),
	} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("scope invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func validateScore(score float64, at *models.AssessmentType) error {
	if score < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "score must not be negative")
	}
	if score > at.MaxScore {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score %.2f exceeds maximum %.2f for %s", score, at.MaxScore, at.Code))
	}
	return nil
}
