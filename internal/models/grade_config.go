package models

import "time"

// GradeConfig defines the weighted-average parameters for a grading scope.
// A nil TeacherID marks the institutional default row for that scope;
// teacher-specific rows override it during resolution.
type GradeConfig struct {
	ID                 string    `db:"id" json:"id"`
	TeacherID          *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassID            string    `db:"class_id" json:"class_id"`
	SubjectID          string    `db:"subject_id" json:"subject_id"`
	Semester           int       `db:"semester" json:"semester"`
	AcademicYear       string    `db:"academic_year" json:"academic_year"`
	MonthlyExamCount   int       `db:"monthly_exam_count" json:"monthly_exam_count"`
	MonthlyWeight      float64   `db:"monthly_weight" json:"monthly_weight"`
	SemesterExamWeight float64   `db:"semester_exam_weight" json:"semester_exam_weight"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ConfigSource records which resolution tier produced a config.
type ConfigSource string

const (
	ConfigSourceTeacher ConfigSource = "TEACHER"
	ConfigSourceDefault ConfigSource = "DEFAULT"
	ConfigSourceBuiltin ConfigSource = "BUILTIN"
)

// ResolvedGradeConfig is a GradeConfig annotated with its resolution tier.
type ResolvedGradeConfig struct {
	GradeConfig
	Source ConfigSource `json:"source"`
}

// BuiltinGradeConfig is the non-persisted fallback used when neither a
// teacher override nor an institutional default exists. Grading is never
// blocked by missing configuration.
func BuiltinGradeConfig(classID, subjectID string, semester int, academicYear string) ResolvedGradeConfig {
	return ResolvedGradeConfig{
		GradeConfig: GradeConfig{
			ClassID:            classID,
			SubjectID:          subjectID,
			Semester:           semester,
			AcademicYear:       academicYear,
			MonthlyExamCount:   4,
			MonthlyWeight:      50.00,
			SemesterExamWeight: 50.00,
		},
		Source: ConfigSourceBuiltin,
	}
}
