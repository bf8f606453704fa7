package models

// CalculationResult is the derived outcome of the weighted-average engine for
// one student x subject x semester scope. It is never persisted; it is a pure
// function of the stored grade entries and the resolved config.
type CalculationResult struct {
	StudentID          string       `json:"student_id"`
	ClassID            string       `json:"class_id"`
	SubjectID          string       `json:"subject_id"`
	Semester           int          `json:"semester"`
	AcademicYear       string       `json:"academic_year"`
	MonthlyAverage     *float64     `json:"monthly_average"`
	WeightedMonthly    float64      `json:"weighted_monthly"`
	WeightedSemester   float64      `json:"weighted_semester"`
	CalculatedScore    float64      `json:"calculated_score"`
	LetterGrade        string       `json:"letter_grade"`
	Complete           bool         `json:"complete"`
	EntryCount         int          `json:"entry_count"`
	CalculationDetails string       `json:"calculation_details"`
	ConfigSource       ConfigSource `json:"config_source"`
}

// GradingScale maps numeric scores to letter grades. Bands are ordered by
// descending MinScore; the last band starts at 0.
type GradingScale struct {
	Bands         []ScaleBand
	PassThreshold float64
}

// ScaleBand is one letter band of the grading scale.
type ScaleBand struct {
	Letter   string
	MinScore float64
}

// Letter returns the letter grade for the score.
func (s GradingScale) Letter(score float64) string {
	for _, band := range s.Bands {
		if score >= band.MinScore {
			return band.Letter
		}
	}
	if len(s.Bands) == 0 {
		return ""
	}
	return s.Bands[len(s.Bands)-1].Letter
}

// Passed reports whether the score meets the institutional pass threshold.
func (s GradingScale) Passed(score float64) bool {
	return score >= s.PassThreshold
}
