package service

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/sala-kh/grade-service/internal/models"
)

// newValidator builds the request validator with the academicyear rule
// registered for the "YYYY-YYYY" school-year key format.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("academicyear", func(fl validator.FieldLevel) bool {
		return models.ValidAcademicYear(fl.Field().String())
	})
	return v
}

// roundHalfUp rounds a non-negative score to two decimal places, half up.
// All engine arithmetic rounds this way so identical inputs always produce
// bit-identical results.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// weightsSumTo100 checks that two percentage weights sum to exactly 100.00
// at two decimals. Comparison happens in integer cents, not float epsilon.
func weightsSumTo100(monthly, semester float64) bool {
	return int(math.Round(monthly*100))+int(math.Round(semester*100)) == 10000
}
