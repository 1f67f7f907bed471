package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// GenerateTimeSlots expands settings into one day's ordered template. Each period is
// followed by its break or, failing that, by the lunch slot when it is the lunch period.
// Break and lunch entries carry the number of the period they follow.
func GenerateTimeSlots(settings models.GenerationSettings) ([]models.TimeSlot, error) {
	if settings.DailyPeriods <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "daily_periods must be greater than zero")
	}
	clock, err := parseClock(settings.StartTime())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid first_period_start %q", settings.FirstPeriodStart))
	}

	breaks := make(map[int]bool, len(settings.BreakPeriods))
	for _, period := range settings.BreakPeriods {
		breaks[period] = true
	}

	capacity := settings.DailyPeriods + len(settings.BreakPeriods)
	if settings.LunchBreakPeriod != nil {
		capacity++
	}
	slots := make([]models.TimeSlot, 0, capacity)
	emit := func(period, duration int, kind models.SlotType) {
		slots = append(slots, models.TimeSlot{
			Order:        len(slots) + 1,
			PeriodNumber: period,
			StartTime:    formatClock(clock),
			EndTime:      formatClock(clock + duration),
			Duration:     duration,
			IsBreak:      kind != models.SlotTypePeriod,
			SlotType:     kind,
		})
		clock += duration
	}

	for period := 1; period <= settings.DailyPeriods; period++ {
		emit(period, settings.PeriodDuration, models.SlotTypePeriod)
		switch {
		case breaks[period]:
			emit(period, settings.BreakDuration, models.SlotTypeBreak)
		case settings.LunchBreakPeriod != nil && *settings.LunchBreakPeriod == period:
			emit(period, settings.LunchDuration, models.SlotTypeLunch)
		}
	}
	return slots, nil
}

// LessonSlots filters a template down to lesson periods keyed by period number.
func LessonSlots(slots []models.TimeSlot) map[int]models.TimeSlot {
	lessons := make(map[int]models.TimeSlot, len(slots))
	for _, slot := range slots {
		if !slot.IsLesson() || slot.PeriodNumber < 1 {
			continue
		}
		if _, exists := lessons[slot.PeriodNumber]; !exists {
			lessons[slot.PeriodNumber] = slot
		}
	}
	return lessons
}
