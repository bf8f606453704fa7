package models

// PeriodKey identifies a grading period for prior-period comparisons.
// Callers pass it explicitly; the engine never guesses which period counts
// as "previous".
type PeriodKey struct {
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academic_year"`
}

// RankingRow is one student's position in a class ranking.
type RankingRow struct {
	Rank            int      `json:"rank"`
	StudentID       string   `json:"student_id"`
	StudentName     string   `json:"student_name"`
	AverageScore    float64  `json:"average_score"`
	LetterGrade     string   `json:"letter_grade"`
	Complete        bool     `json:"complete"`
	PreviousAverage *float64 `json:"previous_average"`
	PreviousRank    *int     `json:"previous_rank"`
	RankChange      *int     `json:"rank_change"`
}

// RankingSnapshot is a class-wide ordering derived from currently stored
// grades. Ties share the lower rank and the next distinct score resumes at
// position + 1 (standard competition ranking).
type RankingSnapshot struct {
	ClassID       string       `json:"class_id"`
	SubjectID     string       `json:"subject_id"`
	Semester      int          `json:"semester"`
	AcademicYear  string       `json:"academic_year"`
	PriorPeriod   *PeriodKey   `json:"prior_period,omitempty"`
	TotalStudents int          `json:"total_students"`
	Rankings      []RankingRow `json:"rankings"`
}
