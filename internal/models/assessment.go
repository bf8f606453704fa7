package models

import "time"

// AssessmentCategory classifies assessment types for the calculation engine.
type AssessmentCategory string

const (
	// CategoryMonthlyExam marks assessments that feed the monthly average.
	CategoryMonthlyExam AssessmentCategory = "MONTHLY_EXAM"
	// CategorySemesterExam marks the end-of-semester exam.
	CategorySemesterExam AssessmentCategory = "SEMESTER_EXAM"
)

// AssessmentType is administered reference data describing one scored event,
// e.g. "Monthly Exam 2" or "Semester Exam". The engine never mutates it.
type AssessmentType struct {
	ID            string             `db:"id" json:"id"`
	Name          string             `db:"name" json:"name"`
	NameKm        string             `db:"name_km" json:"name_km"`
	Code          string             `db:"code" json:"code"`
	Category      AssessmentCategory `db:"category" json:"category"`
	DefaultWeight float64            `db:"default_weight" json:"default_weight"`
	MaxScore      float64            `db:"max_score" json:"max_score"`
	DisplayOrder  int                `db:"display_order" json:"display_order"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// AssessmentTypeFilter narrows catalog listings.
type AssessmentTypeFilter struct {
	Category AssessmentCategory
}
