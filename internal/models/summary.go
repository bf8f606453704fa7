package models

// MonthlyScore pairs a schedule slot with the score entered for it, if any.
type MonthlyScore struct {
	AssessmentCode string   `json:"assessment_code"`
	Title          string   `json:"title"`
	Score          *float64 `json:"score"`
}

// SubjectBreakdown is one subject's detail inside a student summary.
type SubjectBreakdown struct {
	SubjectID     string         `json:"subject_id"`
	SubjectName   string         `json:"subject_name"`
	MonthlyScores []MonthlyScore `json:"monthly_scores"`
	SemesterScore *float64       `json:"semester_score"`
	Result        CalculationResult `json:"result"`
}

// StudentSemesterSummary is the per-student caller-facing report view.
type StudentSemesterSummary struct {
	StudentID      string             `json:"student_id"`
	StudentName    string             `json:"student_name"`
	ClassID        string             `json:"class_id"`
	Semester       int                `json:"semester"`
	AcademicYear   string             `json:"academic_year"`
	Subjects       []SubjectBreakdown `json:"subjects"`
	OverallAverage *float64           `json:"overall_average"`
	OverallLetter  string             `json:"overall_letter,omitempty"`
}

// ClassSummary aggregates a class's performance in one subject.
type ClassSummary struct {
	ClassID       string         `json:"class_id"`
	ClassName     string         `json:"class_name"`
	SubjectID     string         `json:"subject_id"`
	Semester      int            `json:"semester"`
	AcademicYear  string         `json:"academic_year"`
	TotalStudents int            `json:"total_students"`
	ClassAverage  *float64       `json:"class_average"`
	HighestScore  *float64       `json:"highest_score"`
	LowestScore   *float64       `json:"lowest_score"`
	LetterCounts  map[string]int `json:"letter_counts"`
	PassCount     int            `json:"pass_count"`
	PassRate      float64        `json:"pass_rate"`
	Rankings      []RankingRow   `json:"rankings"`
}
