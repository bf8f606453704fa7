package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExamSlot is one ordered entry in a semester's monthly-exam sequence.
type ExamSlot struct {
	AssessmentCode string `json:"assessment_code"`
	Title          string `json:"title"`
	DisplayOrder   int    `json:"display_order"`
}

// ExamSlots is stored as a JSONB column.
type ExamSlots []ExamSlot

// Value implements driver.Valuer.
func (s ExamSlots) Value() (interface{}, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *ExamSlots) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("unsupported exam slot source %T", src)
	}
}

// SemesterSchedule lists which assessments count as monthly for a semester
// exam period and in what display order. A nil TeacherID marks the
// institutional default; teacher rows override during resolution.
type SemesterSchedule struct {
	ID               string    `db:"id" json:"id"`
	TeacherID        *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	AcademicYear     string    `db:"academic_year" json:"academic_year"`
	SemesterExamCode string    `db:"semester_exam_code" json:"semester_exam_code"`
	ExamSchedule     ExamSlots `db:"exam_schedule" json:"exam_schedule"`
	MonthlyExamCount int       `db:"monthly_exam_count" json:"monthly_exam_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ResolvedSchedule is a SemesterSchedule annotated with its resolution tier.
type ResolvedSchedule struct {
	SemesterSchedule
	Source ConfigSource `json:"source"`
}

// BuiltinSchedule is the non-persisted fallback schedule: four monthly exams
// leading into the semester exam.
func BuiltinSchedule(academicYear, semesterExamCode string) ResolvedSchedule {
	slots := make(ExamSlots, 0, 4)
	for i := 1; i <= 4; i++ {
		slots = append(slots, ExamSlot{
			AssessmentCode: fmt.Sprintf("MONTHLY_%d", i),
			Title:          fmt.Sprintf("Monthly Exam %d", i),
			DisplayOrder:   i,
		})
	}
	return ResolvedSchedule{
		SemesterSchedule: SemesterSchedule{
			AcademicYear:     academicYear,
			SemesterExamCode: semesterExamCode,
			ExamSchedule:     slots,
			MonthlyExamCount: 4,
		},
		Source: ConfigSourceBuiltin,
	}
}
