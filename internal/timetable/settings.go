package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Settings bounds.
const (
	MinDailyPeriods     = 1
	MaxDailyPeriods     = 12
	MinPeriodDuration   = 30
	MaxPeriodDuration   = 120
	EarliestFirstPeriod = "06:00"
	LatestFirstPeriod   = "12:00"
	LatestDayEnd        = "18:00"
)

// ValidateSettings checks a generation template for internal consistency. Every
// failed rule contributes one message; validation never stops at the first error.
func ValidateSettings(settings models.GenerationSettings) models.SettingsValidation {
	errs := make([]string, 0)

	if len(settings.WorkingDays) == 0 {
		errs = append(errs, "working_days must contain at least one day")
	} else {
		seen := make(map[int]bool, len(settings.WorkingDays))
		duplicate, outOfRange := false, false
		for _, day := range settings.WorkingDays {
			if seen[day] {
				duplicate = true
			}
			seen[day] = true
			if day < 1 || day > 7 {
				outOfRange = true
			}
		}
		if duplicate {
			errs = append(errs, "working_days must not contain duplicates")
		}
		if outOfRange {
			errs = append(errs, "working_days must be between 1 and 7")
		}
	}

	if settings.DailyPeriods < MinDailyPeriods || settings.DailyPeriods > MaxDailyPeriods {
		errs = append(errs, fmt.Sprintf("daily_periods must be between %d and %d", MinDailyPeriods, MaxDailyPeriods))
	}
	if settings.PeriodDuration < MinPeriodDuration || settings.PeriodDuration > MaxPeriodDuration {
		errs = append(errs, fmt.Sprintf("period_duration must be between %d and %d minutes", MinPeriodDuration, MaxPeriodDuration))
	}

	for _, period := range settings.BreakPeriods {
		if period < 1 {
			errs = append(errs, fmt.Sprintf("break period %d must be a positive period number", period))
		} else if period > settings.DailyPeriods {
			errs = append(errs, fmt.Sprintf("break period %d exceeds daily_periods (%d)", period, settings.DailyPeriods))
		}
	}
	if lunch := settings.LunchBreakPeriod; lunch != nil {
		if *lunch < 1 {
			errs = append(errs, fmt.Sprintf("lunch_break_period %d must be a positive period number", *lunch))
		} else if *lunch > settings.DailyPeriods {
			errs = append(errs, fmt.Sprintf("lunch_break_period %d exceeds daily_periods (%d)", *lunch, settings.DailyPeriods))
		}
		for _, period := range settings.BreakPeriods {
			if period == *lunch {
				errs = append(errs, fmt.Sprintf("lunch_break_period %d is also listed as a break period", *lunch))
				break
			}
		}
	}

	if settings.BreakDuration < 0 {
		errs = append(errs, "break_duration must not be negative")
	}
	if settings.LunchDuration < 0 {
		errs = append(errs, "lunch_duration must not be negative")
	}

	start, err := parseClock(settings.StartTime())
	if err != nil {
		errs = append(errs, fmt.Sprintf("first_period_start %q is not a valid HH:MM time", settings.FirstPeriodStart))
	} else {
		earliest, _ := parseClock(EarliestFirstPeriod)
		latest, _ := parseClock(LatestFirstPeriod)
		if start < earliest || start > latest {
			errs = append(errs, fmt.Sprintf("first_period_start must be between %s and %s", EarliestFirstPeriod, LatestFirstPeriod))
		}
		end := start + dayLength(settings)
		if limit, _ := parseClock(LatestDayEnd); end > limit {
			errs = append(errs, fmt.Sprintf("school day ends at %s, after %s", formatClock(end), LatestDayEnd))
		}
	}

	return models.SettingsValidation{IsValid: len(errs) == 0, Errors: errs}
}

// dayLength is the total minutes of periods, breaks and lunch in one day.
func dayLength(settings models.GenerationSettings) int {
	total := settings.DailyPeriods*settings.PeriodDuration + len(settings.BreakPeriods)*settings.BreakDuration
	if settings.LunchBreakPeriod != nil {
		total += settings.LunchDuration
	}
	return total
}
