package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type configResolver interface {
	Resolve(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.ResolvedGradeConfig, error)
}

type gradeFetcher interface {
	FetchByScope(ctx context.Context, classID, subjectID string, semester int, academicYear string) (map[string][]models.GradeEntry, error)
	FetchForStudent(ctx context.Context, studentID, classID, subjectID string, semester int, academicYear string) ([]models.GradeEntry, error)
	FetchByStudentAllSubjects(ctx context.Context, studentID, classID string, semester int, academicYear string) (map[string][]models.GradeEntry, error)
}

// CalculationService derives weighted semester scores from raw grade entries.
// Results are never persisted; every call recomputes from current rows so a
// corrected grade is reflected immediately.
type CalculationService struct {
	grades  gradeFetcher
	configs configResolver
	scale   models.GradingScale
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCalculationService constructs the calculation engine.
func NewCalculationService(grades gradeFetcher, configs configResolver, scale models.GradingScale, metrics *MetricsService, logger *zap.Logger) *CalculationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculationService{
		grades:  grades,
		configs: configs,
		scale:   scale,
		metrics: metrics,
		logger:  logger,
	}
}

// Calculate computes one student's weighted semester score for a subject.
func (s *CalculationService) Calculate(ctx context.Context, teacherID, studentID, classID, subjectID string, semester int, academicYear string) (*models.CalculationResult, error) {
	start := time.Now()
	cfg, err := s.configs.Resolve(ctx, teacherID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, err
	}
	entries, err := s.grades.FetchForStudent(ctx, studentID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entries")
	}
	result := s.compute(studentID, classID, subjectID, semester, academicYear, entries, cfg)
	if s.metrics != nil {
		s.metrics.ObserveCalculation("student", time.Since(start))
	}
	return result, nil
}

// CalculateForEntries computes a result from already-fetched entries, letting
// callers that load a student's grades across subjects avoid a second read.
func (s *CalculationService) CalculateForEntries(ctx context.Context, teacherID, studentID, classID, subjectID string, semester int, academicYear string, entries []models.GradeEntry) (*models.CalculationResult, error) {
	cfg, err := s.configs.Resolve(ctx, teacherID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, err
	}
	return s.compute(studentID, classID, subjectID, semester, academicYear, entries, cfg), nil
}

// CalculateClass computes every current student's result in one pass over the
// scope's rows. Students with no entries at all still appear, marked
// incomplete with a zero score.
func (s *CalculationService) CalculateClass(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, studentIDs []string) (map[string]*models.CalculationResult, error) {
	start := time.Now()
	cfg, err := s.configs.Resolve(ctx, teacherID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, err
	}
	byStudent, err := s.grades.FetchByScope(ctx, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entries")
	}

	results := make(map[string]*models.CalculationResult, len(studentIDs))
	for _, id := range studentIDs {
		results[id] = s.compute(id, classID, subjectID, semester, academicYear, byStudent[id], cfg)
	}
	if s.metrics != nil {
		s.metrics.ObserveCalculation("class", time.Since(start))
	}
	return results, nil
}

// compute is the pure core of the engine. Missing monthly scores shrink the
// average's denominator (they are absences, not zeroes); only a fully absent
// monthly set yields a nil monthly average with zero contribution.
func (s *CalculationService) compute(studentID, classID, subjectID string, semester int, academicYear string, entries []models.GradeEntry, cfg *models.ResolvedGradeConfig) *models.CalculationResult {
	var monthly []models.GradeEntry
	var semesterExam *models.GradeEntry
	for i := range entries {
		switch entries[i].AssessmentCategory {
		case models.CategoryMonthlyExam:
			monthly = append(monthly, entries[i])
		case models.CategorySemesterExam:
			if semesterExam == nil || preferSemesterEntry(entries[i], *semesterExam, semester) {
				e := entries[i]
				semesterExam = &e
			}
		}
	}
	sort.SliceStable(monthly, func(i, j int) bool {
		return monthly[i].AssessmentOrder < monthly[j].AssessmentOrder
	})

	result := &models.CalculationResult{
		StudentID:    studentID,
		ClassID:      classID,
		SubjectID:    subjectID,
		Semester:     semester,
		AcademicYear: academicYear,
		EntryCount:   len(entries),
		ConfigSource: cfg.Source,
	}

	var notes []string
	if len(monthly) > 0 {
		sum := 0.0
		for _, e := range monthly {
			sum += e.Score
		}
		avg := roundHalfUp(sum / float64(len(monthly)))
		result.MonthlyAverage = &avg
		result.WeightedMonthly = roundHalfUp(avg * cfg.MonthlyWeight / 100)
		if len(monthly) < cfg.MonthlyExamCount {
			notes = append(notes, fmt.Sprintf("monthly exams: %d of %d entered", len(monthly), cfg.MonthlyExamCount))
		}
	} else {
		notes = append(notes, fmt.Sprintf("monthly exams: 0 of %d entered", cfg.MonthlyExamCount))
	}

	if semesterExam != nil {
		result.WeightedSemester = roundHalfUp(semesterExam.Score * cfg.SemesterExamWeight / 100)
	} else {
		notes = append(notes, "semester exam: not entered")
	}

	result.Complete = len(monthly) >= cfg.MonthlyExamCount && semesterExam != nil
	result.CalculatedScore = roundHalfUp(result.WeightedMonthly + result.WeightedSemester)
	result.LetterGrade = s.scale.Letter(result.CalculatedScore)
	result.CalculationDetails = s.details(monthly, semesterExam, cfg, notes)
	return result
}

func (s *CalculationService) details(monthly []models.GradeEntry, semesterExam *models.GradeEntry, cfg *models.ResolvedGradeConfig, notes []string) string {
	parts := make([]string, 0, len(monthly)+3)
	for _, e := range monthly {
		parts = append(parts, fmt.Sprintf("%s=%.2f", e.AssessmentCode, e.Score))
	}
	if semesterExam != nil {
		parts = append(parts, fmt.Sprintf("%s=%.2f", semesterExam.AssessmentCode, semesterExam.Score))
	}
	parts = append(parts, fmt.Sprintf("weights %.2f/%.2f (%s)", cfg.MonthlyWeight, cfg.SemesterExamWeight, cfg.Source))
	parts = append(parts, notes...)
	return strings.Join(parts, "; ")
}

// preferSemesterEntry picks the semester exam entry matching the semester's
// conventional code when more than one SEMESTER_EXAM row exists in scope.
func preferSemesterEntry(candidate, current models.GradeEntry, semester int) bool {
	want := fmt.Sprintf("SEMESTER_%d", semester)
	if candidate.AssessmentCode == want && current.AssessmentCode != want {
		return true
	}
	return false
}
