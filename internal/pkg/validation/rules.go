package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
)

const (
	// YearMin and YearMax bound the academic year a schedule can be generated for
	YearMin = 2000
	YearMax = 2100

	// SemesterTag is the struct tag validating a semester name
	SemesterTag = "semester"
)

// ValidYear reports whether year is a plausible academic year
func ValidYear(year int) bool {
	return year >= YearMin && year <= YearMax
}

// ValidSemester reports whether s names a term, case-insensitive
func ValidSemester(s string) bool {
	_, err := models.ParseTerm(s)
	return err == nil
}

// Term checks a semester/year pair and normalizes it.
// Failures wrap apperrors.ErrInvalidTerm and name the offending field.
func Term(semester string, year int) (models.TermRef, error) {
	term, err := models.ParseTerm(semester)
	if err != nil {
		return models.TermRef{}, termError("semester", err.Error())
	}
	if !ValidYear(year) {
		return models.TermRef{}, termError("year", fmt.Sprintf("year must be between %d and %d", YearMin, YearMax))
	}
	return models.TermRef{Term: term, Year: year}, nil
}

func termError(field, message string) error {
	return apperrors.NewCustomError(apperrors.ErrInvalidTerm, message).
		WithDetails(map[string]interface{}{"field": field})
}

// RegisterRules adds the custom tags to a validator instance
func RegisterRules(v *validator.Validate) error {
	return v.RegisterValidation(SemesterTag, func(fl validator.FieldLevel) bool {
		return ValidSemester(fl.Field().String())
	})
}
