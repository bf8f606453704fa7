package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

type classCalculator interface {
	CalculateClass(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, studentIDs []string) (map[string]*models.CalculationResult, error)
}

// RankingService orders a class by calculated score. Snapshots are derived on
// demand and cached per scope; any grade write in the scope invalidates them.
type RankingService struct {
	calc     classCalculator
	students studentReader
	classes  classReader
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewRankingService constructs the ranking engine.
func NewRankingService(calc classCalculator, students studentReader, classes classReader, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{
		calc:     calc,
		students: students,
		classes:  classes,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Rank builds the class ranking for a scope. When prior is non-nil, each row
// also carries the student's average and rank from that period plus the
// movement between the two; students absent from the prior period get nil
// movement fields, never zeroes.
func (s *RankingService) Rank(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, prior *models.PeriodKey) (*models.RankingSnapshot, bool, error) {
	key := s.cacheKey(classID, subjectID, semester, academicYear, prior)
	var cached models.RankingSnapshot
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("ranking cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	snapshot, err := s.build(ctx, teacherID, classID, subjectID, semester, academicYear, prior)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveCalculation("ranking", time.Since(start))
	}

	if err := s.cache.Set(ctx, key, snapshot, s.cacheTTL); err != nil {
		s.logger.Warn("ranking cache write failed", zap.String("key", key), zap.Error(err))
	}
	return snapshot, false, nil
}

func (s *RankingService) build(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string, prior *models.PeriodKey) (*models.RankingSnapshot, error) {
	roster, err := s.roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.RankingSnapshot{
		ClassID:      classID,
		SubjectID:    subjectID,
		Semester:     semester,
		AcademicYear: academicYear,
		PriorPeriod:  prior,
	}
	if len(roster) == 0 {
		snapshot.Rankings = []models.RankingRow{}
		return snapshot, nil
	}

	ids := make([]string, len(roster))
	names := make(map[string]string, len(roster))
	for i, st := range roster {
		ids[i] = st.ID
		names[st.ID] = st.FullName
	}

	current, err := s.calc.CalculateClass(ctx, teacherID, classID, subjectID, semester, academicYear, ids)
	if err != nil {
		return nil, err
	}
	rows := rankRows(current, ids, names)

	if prior != nil {
		prevResults, err := s.calc.CalculateClass(ctx, teacherID, classID, subjectID, prior.Semester, prior.AcademicYear, ids)
		if err != nil {
			return nil, err
		}
		joinPriorPeriod(rows, prevResults, ids)
	}

	snapshot.TotalStudents = len(rows)
	snapshot.Rankings = rows
	return snapshot, nil
}

func (s *RankingService) roster(ctx context.Context, classID string) ([]models.Student, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, appErrors.ErrClassNotFound
	}
	roster, err := s.students.ListActiveByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	return roster, nil
}

// rankRows assigns standard competition ranks: equal scores share the lower
// rank and the next distinct score resumes at position + 1. Listing order
// among tied students falls back to student ID so output is deterministic.
func rankRows(results map[string]*models.CalculationResult, ids []string, names map[string]string) []models.RankingRow {
	rows := make([]models.RankingRow, 0, len(ids))
	for _, id := range ids {
		r := results[id]
		if r == nil {
			continue
		}
		rows = append(rows, models.RankingRow{
			StudentID:    id,
			StudentName:  names[id],
			AverageScore: r.CalculatedScore,
			LetterGrade:  r.LetterGrade,
			Complete:     r.Complete,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AverageScore != rows[j].AverageScore {
			return rows[i].AverageScore > rows[j].AverageScore
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	for i := range rows {
		if i > 0 && rows[i].AverageScore == rows[i-1].AverageScore {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows
}

// joinPriorPeriod attaches each student's prior-period average and rank, and
// the movement between the two. Positive movement means the student climbed.
func joinPriorPeriod(rows []models.RankingRow, prevResults map[string]*models.CalculationResult, ids []string) {
	hadGrades := make(map[string]bool, len(ids))
	for id, r := range prevResults {
		if r != nil && r.EntryCount > 0 {
			hadGrades[id] = true
		}
	}
	prevRows := rankRowsSubset(prevResults, ids, hadGrades)
	prevRank := make(map[string]int, len(prevRows))
	prevScore := make(map[string]float64, len(prevRows))
	for _, row := range prevRows {
		prevRank[row.StudentID] = row.Rank
		prevScore[row.StudentID] = row.AverageScore
	}

	for i := range rows {
		pr, ok := prevRank[rows[i].StudentID]
		if !ok {
			continue
		}
		score := prevScore[rows[i].StudentID]
		rank := pr
		change := rank - rows[i].Rank
		rows[i].PreviousAverage = &score
		rows[i].PreviousRank = &rank
		rows[i].RankChange = &change
	}
}

func rankRowsSubset(results map[string]*models.CalculationResult, ids []string, include map[string]bool) []models.RankingRow {
	subset := make(map[string]*models.CalculationResult, len(results))
	names := make(map[string]string, len(results))
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if include[id] {
			subset[id] = results[id]
			kept = append(kept, id)
		}
	}
	return rankRows(subset, kept, names)
}

func (s *RankingService) cacheKey(classID, subjectID string, semester int, academicYear string, prior *models.PeriodKey) string {
	key := ScopeKey(classID, subjectID, semester, academicYear) + ":ranking"
	if prior != nil {
		key += fmt.Sprintf(":%s:%d", prior.AcademicYear, prior.Semester)
	}
	return key
}
