package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
)

func TestValidYear(t *testing.T) {
	assert.True(t, ValidYear(2025))
	assert.True(t, ValidYear(YearMin))
	assert.True(t, ValidYear(YearMax))
	assert.False(t, ValidYear(0))
	assert.False(t, ValidYear(1999))
	assert.False(t, ValidYear(2101))
}

func TestTerm(t *testing.T) {
	ref, err := Term(" spring ", 2026)
	require.NoError(t, err)
	assert.Equal(t, models.TermRef{Term: models.TermSpring, Year: 2026}, ref)

	tests := []struct {
		name     string
		semester string
		year     int
		field    string
	}{
		{"unknown semester", "WINTER", 2026, "semester"},
		{"empty semester", "", 2026, "semester"},
		{"year too small", "FALL", 1999, "year"},
		{"year too large", "FALL", 2101, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Term(tt.semester, tt.year)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidTerm)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

			var custom *apperrors.CustomError
			require.ErrorAs(t, err, &custom)
			assert.Equal(t, tt.field, custom.Details["field"])
		})
	}
}

func TestRegisterRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterRules(v))

	type request struct {
		Semester string `validate:"required,semester"`
	}

	assert.NoError(t, v.Struct(request{Semester: "Fall"}))
	assert.NoError(t, v.Struct(request{Semester: "SUMMER"}))
	assert.Error(t, v.Struct(request{Semester: "Winter"}))
	assert.Error(t, v.Struct(request{}))
}
