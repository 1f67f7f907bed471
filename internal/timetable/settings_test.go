package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func intPtr(v int) *int { return &v }

func validSettings() models.GenerationSettings {
	return models.GenerationSettings{
		WorkingDays:      []int{1, 2, 3, 4, 5},
		DailyPeriods:     7,
		PeriodDuration:   45,
		BreakPeriods:     []int{2},
		LunchBreakPeriod: intPtr(4),
		FirstPeriodStart: "08:00",
		BreakDuration:    10,
		LunchDuration:    30,
	}
}

func TestValidateSettingsAcceptsConsistentTemplate(t *testing.T) {
	result := ValidateSettings(validSettings())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateSettingsCollectsEveryViolation(t *testing.T) {
	settings := models.GenerationSettings{
		WorkingDays:      nil,
		DailyPeriods:     13,
		PeriodDuration:   20,
		BreakPeriods:     []int{14},
		FirstPeriodStart: "05:00",
	}
	result := ValidateSettings(settings)
	require.False(t, result.IsValid)
	assert.Equal(t, []string{
		"working_days must contain at least one day",
		"daily_periods must be between 1 and 12",
		"period_duration must be between 30 and 120 minutes",
		"break period 14 exceeds daily_periods (13)",
		"first_period_start must be between 06:00 and 12:00",
	}, result.Errors)
}

func TestValidateSettingsRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.GenerationSettings)
		want   string
	}{
		{"duplicate days", func(s *models.GenerationSettings) { s.WorkingDays = []int{1, 1, 2} }, "working_days must not contain duplicates"},
		{"day out of range", func(s *models.GenerationSettings) { s.WorkingDays = []int{0, 8} }, "working_days must be between 1 and 7"},
		{"lunch beyond day", func(s *models.GenerationSettings) { s.LunchBreakPeriod = intPtr(9) }, "lunch_break_period 9 exceeds daily_periods (7)"},
		{"lunch overlaps break", func(s *models.GenerationSettings) { s.LunchBreakPeriod = intPtr(2) }, "lunch_break_period 2 is also listed as a break period"},
		{"bad start", func(s *models.GenerationSettings) { s.FirstPeriodStart = "8am" }, `first_period_start "8am" is not a valid HH:MM time`},
		{"day overrun", func(s *models.GenerationSettings) {
			s.DailyPeriods = 12
			s.PeriodDuration = 60
			s.BreakPeriods = nil
			s.LunchBreakPeriod = nil
		}, "school day ends at 20:00, after 18:00"},
		{"negative break", func(s *models.GenerationSettings) { s.BreakDuration = -5 }, "break_duration must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := validSettings()
			tc.mutate(&settings)
			result := ValidateSettings(settings)
			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tc.want)
		})
	}
}

func TestValidateSettingsDefaultsMissingStart(t *testing.T) {
	settings := validSettings()
	settings.FirstPeriodStart = ""
	assert.True(t, ValidateSettings(settings).IsValid)
}
