package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type entryCalculator interface {
	CalculateForEntries(ctx context.Context, teacherID, studentID, classID, subjectID string, semester int, academicYear string, entries []models.GradeEntry) (*models.CalculationResult, error)
}

type ranker interface {
	Rank(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, prior *models.PeriodKey) (*models.RankingSnapshot, bool, error)
}

type studentGradeFetcher interface {
	FetchByStudentAllSubjects(ctx context.Context, studentID, classID string, semester int, academicYear string) (map[string][]models.GradeEntry, error)
}

// SummaryService assembles caller-facing report views. It groups and counts
// over the calculation and ranking engines' outputs and adds no scoring
// logic of its own.
type SummaryService struct {
	grades    studentGradeFetcher
	calc      entryCalculator
	rankings  ranker
	schedules scheduleResolver
	subjects  subjectReader
	classes   classReader
	students  studentReader
	scale     models.GradingScale
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewSummaryService constructs the summary assembler.
func NewSummaryService(grades studentGradeFetcher, calc entryCalculator, rankings ranker, schedules scheduleResolver, subjects subjectReader, classes classReader, students studentReader, scale models.GradingScale, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		grades:    grades,
		calc:      calc,
		rankings:  rankings,
		schedules: schedules,
		subjects:  subjects,
		classes:   classes,
		students:  students,
		scale:     scale,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// StudentSemesterSummary builds a student's full semester report: one
// breakdown per subject with entries, monthly scores laid out in schedule
// slot order, plus the overall average across subjects.
func (s *SummaryService) StudentSemesterSummary(ctx context.Context, teacherID, studentID string, semester int, academicYear string) (*models.StudentSemesterSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	schedule, err := s.schedules.Resolve(ctx, teacherID, academicYear, fmt.Sprintf("SEMESTER_%d", semester))
	if err != nil {
		return nil, err
	}

	bySubject, err := s.grades.FetchByStudentAllSubjects(ctx, studentID, student.ClassID, semester, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entries")
	}

	subjectIDs := make([]string, 0, len(bySubject))
	for id := range bySubject {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Strings(subjectIDs)

	summary := &models.StudentSemesterSummary{
		StudentID:    studentID,
		StudentName:  student.FullName,
		ClassID:      student.ClassID,
		Semester:     semester,
		AcademicYear: academicYear,
		Subjects:     make([]models.SubjectBreakdown, 0, len(subjectIDs)),
	}

	sum := 0.0
	for _, subjectID := range subjectIDs {
		entries := bySubject[subjectID]
		breakdown, err := s.subjectBreakdown(ctx, teacherID, studentID, student.ClassID, subjectID, semester, academicYear, entries, schedule)
		if err != nil {
			return nil, err
		}
		summary.Subjects = append(summary.Subjects, *breakdown)
		sum += breakdown.Result.CalculatedScore
	}

	if len(summary.Subjects) > 0 {
		avg := roundHalfUp(sum / float64(len(summary.Subjects)))
		summary.OverallAverage = &avg
		summary.OverallLetter = s.scale.Letter(avg)
	}
	return summary, nil
}

func (s *SummaryService) subjectBreakdown(ctx context.Context, teacherID, studentID, classID, subjectID string, semester int, academicYear string, entries []models.GradeEntry, schedule *models.ResolvedSchedule) (*models.SubjectBreakdown, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSubjectNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	result, err := s.calc.CalculateForEntries(ctx, teacherID, studentID, classID, subjectID, semester, academicYear, entries)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]float64, len(entries))
	var semesterScore *float64
	for _, e := range entries {
		switch e.AssessmentCategory {
		case models.CategoryMonthlyExam:
			byCode[e.AssessmentCode] = e.Score
		case models.CategorySemesterExam:
			if semesterScore == nil || e.AssessmentCode == schedule.SemesterExamCode {
				score := e.Score
				semesterScore = &score
			}
		}
	}

	monthlyScores := make([]models.MonthlyScore, 0, len(schedule.ExamSchedule))
	for _, slot := range schedule.ExamSchedule {
		ms := models.MonthlyScore{AssessmentCode: slot.AssessmentCode, Title: slot.Title}
		if score, ok := byCode[slot.AssessmentCode]; ok {
			v := score
			ms.Score = &v
		}
		monthlyScores = append(monthlyScores, ms)
	}

	return &models.SubjectBreakdown{
		SubjectID:     subjectID,
		SubjectName:   subject.Name,
		MonthlyScores: monthlyScores,
		SemesterScore: semesterScore,
		Result:        *result,
	}, nil
}

// ClassSummary aggregates one subject's performance across a class. Stats run
// over the full roster ranking, so students with no entries count as zeros.
func (s *SummaryService) ClassSummary(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.ClassSummary, bool, error) {
	key := ScopeKey(classID, subjectID, semester, academicYear) + ":summary"
	var cached models.ClassSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.ErrClassNotFound
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	snapshot, _, err := s.rankings.Rank(ctx, teacherID, classID, subjectID, semester, academicYear, nil)
	if err != nil {
		return nil, false, err
	}

	summary := &models.ClassSummary{
		ClassID:       classID,
		ClassName:     class.Name,
		SubjectID:     subjectID,
		Semester:      semester,
		AcademicYear:  academicYear,
		TotalStudents: snapshot.TotalStudents,
		LetterCounts:  map[string]int{},
		Rankings:      snapshot.Rankings,
	}

	if len(snapshot.Rankings) > 0 {
		sum := 0.0
		high := snapshot.Rankings[0].AverageScore
		low := snapshot.Rankings[len(snapshot.Rankings)-1].AverageScore
		for _, row := range snapshot.Rankings {
			sum += row.AverageScore
			summary.LetterCounts[row.LetterGrade]++
			if s.scale.Passed(row.AverageScore) {
				summary.PassCount++
			}
		}
		avg := roundHalfUp(sum / float64(len(snapshot.Rankings)))
		summary.ClassAverage = &avg
		summary.HighestScore = &high
		summary.LowestScore = &low
		summary.PassRate = roundHalfUp(float64(summary.PassCount) * 100 / float64(len(snapshot.Rankings)))
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}
