package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/repository"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
)

func naturalKey(e models.GradeEntry) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s", e.StudentID, e.ClassID, e.SubjectID, e.AssessmentTypeID, e.Semester, e.AcademicYear)
}

// memGradeRepo is an in-memory grade store enforcing natural-key uniqueness.
type memGradeRepo struct {
	entries map[string]models.GradeEntry
	nextID  int
}

func newMemGradeRepo() *memGradeRepo {
	return &memGradeRepo{entries: make(map[string]models.GradeEntry)}
}

func (m *memGradeRepo) put(e models.GradeEntry) models.GradeEntry {
	if e.ID == "" {
		m.nextID++
		e.ID = fmt.Sprintf("g%d", m.nextID)
	}
	m.entries[naturalKey(e)] = e
	return e
}

func (m *memGradeRepo) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memGradeRepo) FindByNaturalKey(ctx context.Context, studentID, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (*models.GradeEntry, error) {
	key := fmt.Sprintf("%s|%s|%s|%s|%d|%s", studentID, classID, subjectID, assessmentTypeID, semester, academicYear)
	if e, ok := m.entries[key]; ok {
		found := e
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memGradeRepo) ExistingStudentIDs(ctx context.Context, classID, subjectID, assessmentTypeID string, semester int, academicYear string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, e := range m.entries {
		if e.ClassID == classID && e.SubjectID == subjectID && e.AssessmentTypeID == assessmentTypeID && e.Semester == semester && e.AcademicYear == academicYear {
			set[e.StudentID] = struct{}{}
		}
	}
	return set, nil
}

func (m *memGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	var out []models.GradeEntry
	for _, e := range m.entries {
		if filter.StudentID != "" && filter.StudentID != e.StudentID {
			continue
		}
		if filter.ClassID != "" && filter.ClassID != e.ClassID {
			continue
		}
		if filter.SubjectID != "" && filter.SubjectID != e.SubjectID {
			continue
		}
		if filter.Semester != 0 && filter.Semester != e.Semester {
			continue
		}
		if filter.AcademicYear != "" && filter.AcademicYear != e.AcademicYear {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memGradeRepo) Create(ctx context.Context, entry *models.GradeEntry) error {
	if _, ok := m.entries[naturalKey(*entry)]; ok {
		return repository.ErrDuplicateRow
	}
	*entry = m.put(*entry)
	return nil
}

func (m *memGradeRepo) CreateMany(ctx context.Context, entries []models.GradeEntry) ([]models.GradeEntry, []string, error) {
	var written []models.GradeEntry
	var skipped []string
	for _, e := range entries {
		if _, ok := m.entries[naturalKey(e)]; ok {
			skipped = append(skipped, e.StudentID)
			continue
		}
		written = append(written, m.put(e))
	}
	return written, skipped, nil
}

func (m *memGradeRepo) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	if existing, ok := m.entries[naturalKey(*entry)]; ok {
		existing.Score = entry.Score
		existing.Comments = entry.Comments
		m.entries[naturalKey(*entry)] = existing
		*entry = existing
		return nil
	}
	*entry = m.put(*entry)
	return nil
}

func (m *memGradeRepo) Update(ctx context.Context, id string, score float64, comments *string) error {
	for key, e := range m.entries {
		if e.ID == id {
			e.Score = score
			e.Comments = comments
			m.entries[key] = e
			return nil
		}
	}
	return repository.ErrNoRow
}

func (m *memGradeRepo) Delete(ctx context.Context, id string) error {
	for key, e := range m.entries {
		if e.ID == id {
			delete(m.entries, key)
			return nil
		}
	}
	return repository.ErrNoRow
}

func (m *memGradeRepo) FetchByScope(ctx context.Context, classID, subjectID string, semester int, academicYear string) (map[string][]models.GradeEntry, error) {
	out := make(map[string][]models.GradeEntry)
	for _, e := range m.entries {
		if e.ClassID == classID && e.SubjectID == subjectID && e.Semester == semester && e.AcademicYear == academicYear {
			out[e.StudentID] = append(out[e.StudentID], e)
		}
	}
	return out, nil
}

func (m *memGradeRepo) FetchForStudent(ctx context.Context, studentID, classID, subjectID string, semester int, academicYear string) ([]models.GradeEntry, error) {
	byStudent, _ := m.FetchByScope(ctx, classID, subjectID, semester, academicYear)
	return byStudent[studentID], nil
}

func (m *memGradeRepo) FetchByStudentAllSubjects(ctx context.Context, studentID, classID string, semester int, academicYear string) (map[string][]models.GradeEntry, error) {
	out := make(map[string][]models.GradeEntry)
	for _, e := range m.entries {
		if e.StudentID == studentID && e.ClassID == classID && e.Semester == semester && e.AcademicYear == academicYear {
			out[e.SubjectID] = append(out[e.SubjectID], e)
		}
	}
	return out, nil
}

type memAssessmentRepo struct {
	types map[string]models.AssessmentType
}

func newMemAssessmentRepo(types ...models.AssessmentType) *memAssessmentRepo {
	m := &memAssessmentRepo{types: make(map[string]models.AssessmentType)}
	for _, at := range types {
		m.types[at.ID] = at
	}
	return m
}

func (m *memAssessmentRepo) List(ctx context.Context, filter models.AssessmentTypeFilter) ([]models.AssessmentType, error) {
	var out []models.AssessmentType
	for _, at := range m.types {
		if filter.Category != "" && filter.Category != at.Category {
			continue
		}
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memAssessmentRepo) FindByID(ctx context.Context, id string) (*models.AssessmentType, error) {
	if at, ok := m.types[id]; ok {
		found := at
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAssessmentRepo) FindByCode(ctx context.Context, code string) (*models.AssessmentType, error) {
	for _, at := range m.types {
		if at.Code == code {
			found := at
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAssessmentRepo) Create(ctx context.Context, at *models.AssessmentType) error {
	for _, existing := range m.types {
		if existing.Code == at.Code {
			return repository.ErrDuplicateRow
		}
	}
	if at.ID == "" {
		at.ID = fmt.Sprintf("at%d", len(m.types)+1)
	}
	m.types[at.ID] = *at
	return nil
}

func (m *memAssessmentRepo) Update(ctx context.Context, at *models.AssessmentType) error {
	if _, ok := m.types[at.ID]; !ok {
		return repository.ErrNoRow
	}
	m.types[at.ID] = *at
	return nil
}

type memSubjects struct {
	subjects map[string]models.Subject
}

func (m *memSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		found := s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type memClasses struct {
	classes map[string]models.Class
}

func (m *memClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		found := c
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type memStudents struct {
	students map[string]models.Student
}

func (m *memStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		found := s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStudents) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		if s.ClassID == classID && s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type memConfigRepo struct {
	teacher map[string]models.GradeConfig
	def     map[string]models.GradeConfig
	saved   []models.GradeConfig
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{teacher: make(map[string]models.GradeConfig), def: make(map[string]models.GradeConfig)}
}

func configScope(classID, subjectID string, semester int, academicYear string) string {
	return fmt.Sprintf("%s|%s|%d|%s", classID, subjectID, semester, academicYear)
}

func (m *memConfigRepo) FindForTeacher(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error) {
	if cfg, ok := m.teacher[teacherID+"|"+configScope(classID, subjectID, semester, academicYear)]; ok {
		found := cfg
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memConfigRepo) FindDefault(ctx context.Context, classID, subjectID string, semester int, academicYear string) (*models.GradeConfig, error) {
	if cfg, ok := m.def[configScope(classID, subjectID, semester, academicYear)]; ok {
		found := cfg
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memConfigRepo) List(ctx context.Context, classID, subjectID string, semester int, academicYear string) ([]models.GradeConfig, error) {
	var out []models.GradeConfig
	scope := configScope(classID, subjectID, semester, academicYear)
	if cfg, ok := m.def[scope]; ok {
		out = append(out, cfg)
	}
	for key, cfg := range m.teacher {
		if strings.HasSuffix(key, scope) {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (m *memConfigRepo) Upsert(ctx context.Context, config *models.GradeConfig) error {
	m.saved = append(m.saved, *config)
	scope := configScope(config.ClassID, config.SubjectID, config.Semester, config.AcademicYear)
	if config.TeacherID != nil {
		m.teacher[*config.TeacherID+"|"+scope] = *config
	} else {
		m.def[scope] = *config
	}
	return nil
}

type memScheduleRepo struct {
	teacher map[string]models.SemesterSchedule
	def     map[string]models.SemesterSchedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{teacher: make(map[string]models.SemesterSchedule), def: make(map[string]models.SemesterSchedule)}
}

func (m *memScheduleRepo) FindForTeacher(ctx context.Context, teacherID, academicYear, semesterExamCode string) (*models.SemesterSchedule, error) {
	if s, ok := m.teacher[teacherID+"|"+academicYear+"|"+semesterExamCode]; ok {
		found := s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memScheduleRepo) FindDefault(ctx context.Context, academicYear, semesterExamCode string) (*models.SemesterSchedule, error) {
	if s, ok := m.def[academicYear+"|"+semesterExamCode]; ok {
		found := s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memScheduleRepo) Upsert(ctx context.Context, schedule *models.SemesterSchedule) error {
	if schedule.TeacherID != nil {
		m.teacher[*schedule.TeacherID+"|"+schedule.AcademicYear+"|"+schedule.SemesterExamCode] = *schedule
	} else {
		m.def[schedule.AcademicYear+"|"+schedule.SemesterExamCode] = *schedule
	}
	return nil
}

// fixedConfigResolver returns the same resolved config for every scope.
type fixedConfigResolver struct {
	cfg models.ResolvedGradeConfig
}

func (m *fixedConfigResolver) Resolve(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.ResolvedGradeConfig, error) {
	cfg := m.cfg
	cfg.ClassID = classID
	cfg.SubjectID = subjectID
	cfg.Semester = semester
	cfg.AcademicYear = academicYear
	return &cfg, nil
}

func testScale() models.GradingScale {
	return models.GradingScale{
		Bands: []models.ScaleBand{
			{Letter: "A", MinScore: 90},
			{Letter: "B", MinScore: 80},
			{Letter: "C", MinScore: 70},
			{Letter: "D", MinScore: 60},
			{Letter: "E", MinScore: 50},
			{Letter: "F", MinScore: 0},
		},
		PassThreshold: 50,
	}
}

// memCacheRepo is an in-memory CacheRepository with redis-style glob
// invalidation, JSON-encoded like the real one.
type memCacheRepo struct {
	data map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{data: make(map[string][]byte)}
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	re := regexp.MustCompile("^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$")
	for key := range m.data {
		if re.MatchString(key) {
			delete(m.data, key)
		}
	}
	return nil
}

func memCache() (*CacheService, *memCacheRepo) {
	repo := newMemCacheRepo()
	return NewCacheService(repo, nil, time.Minute, nil, true), repo
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, nil, false)
}

func weightedConfig(monthly, semester float64, examCount int) models.ResolvedGradeConfig {
	return models.ResolvedGradeConfig{
		GradeConfig: models.GradeConfig{
			MonthlyExamCount:   examCount,
			MonthlyWeight:      monthly,
			SemesterExamWeight: semester,
		},
		Source: models.ConfigSourceDefault,
	}
}

func monthlyEntry(studentID, code string, order int, score float64) models.GradeEntry {
	return models.GradeEntry{
		StudentID:          studentID,
		ClassID:            "class-1",
		SubjectID:          "subject-1",
		AssessmentTypeID:   "at-" + code,
		AssessmentCode:     code,
		AssessmentCategory: models.CategoryMonthlyExam,
		AssessmentOrder:    order,
		Score:              score,
		Semester:           1,
		AcademicYear:       "2025-2026",
	}
}

func semesterEntry(studentID string, score float64) models.GradeEntry {
	return models.GradeEntry{
		StudentID:          studentID,
		ClassID:            "class-1",
		SubjectID:          "subject-1",
		AssessmentTypeID:   "at-SEMESTER_1",
		AssessmentCode:     "SEMESTER_1",
		AssessmentCategory: models.CategorySemesterExam,
		AssessmentOrder:    99,
		Score:              score,
		Semester:           1,
		AcademicYear:       "2025-2026",
	}
}

func ptrFloat(v float64) *float64 {
	return &v
}
