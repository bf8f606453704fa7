package models

import (
	"regexp"
	"time"
)

// GradeEntry is one raw score: student x subject x assessment x semester x
// academic year. Uniqueness on that natural key is enforced by the store.
type GradeEntry struct {
	ID               string    `db:"id" json:"id"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	ClassID          string    `db:"class_id" json:"class_id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	AssessmentTypeID string    `db:"assessment_type_id" json:"assessment_type_id"`
	Score            float64   `db:"score" json:"score"`
	Semester         int       `db:"semester" json:"semester"`
	AcademicYear     string    `db:"academic_year" json:"academic_year"`
	Comments         *string   `db:"comments" json:"comments,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	AssessmentCode     string             `db:"assessment_code" json:"assessment_code"`
	AssessmentCategory AssessmentCategory `db:"assessment_category" json:"assessment_category"`
	AssessmentOrder    int                `db:"assessment_order" json:"assessment_order"`
}

// GradeScope identifies the calculation scope affected by a grade write.
type GradeScope struct {
	ClassID      string `json:"class_id"`
	SubjectID    string `json:"subject_id"`
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academic_year"`
}

// GradeFilter narrows grade entry listings.
type GradeFilter struct {
	StudentID    string
	ClassID      string
	SubjectID    string
	Semester     int
	AcademicYear string
}

var academicYearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// ValidAcademicYear reports whether s is a well-formed "YYYY-YYYY" key.
func ValidAcademicYear(s string) bool {
	return academicYearPattern.MatchString(s)
}
