package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestGenerateTimeSlotsFirstPeriod(t *testing.T) {
	slots, err := GenerateTimeSlots(models.GenerationSettings{
		WorkingDays:      []int{1, 2, 3, 4, 5},
		DailyPeriods:     7,
		PeriodDuration:   45,
		FirstPeriodStart: "08:00",
	})
	require.NoError(t, err)
	require.Len(t, slots, 7)
	assert.Equal(t, 1, slots[0].PeriodNumber)
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "08:45", slots[0].EndTime)
	assert.False(t, slots[0].IsBreak)
	assert.Equal(t, "13:15", slots[6].EndTime)
}

func TestGenerateTimeSlotsWithBreakAndLunch(t *testing.T) {
	slots, err := GenerateTimeSlots(validSettings())
	require.NoError(t, err)
	require.Len(t, slots, 9)

	type row struct {
		period     int
		start, end string
		kind       models.SlotType
	}
	want := []row{
		{1, "08:00", "08:45", models.SlotTypePeriod},
		{2, "08:45", "09:30", models.SlotTypePeriod},
		{2, "09:30", "09:40", models.SlotTypeBreak},
		{3, "09:40", "10:25", models.SlotTypePeriod},
		{4, "10:25", "11:10", models.SlotTypePeriod},
		{4, "11:10", "11:40", models.SlotTypeLunch},
		{5, "11:40", "12:25", models.SlotTypePeriod},
		{6, "12:25", "13:10", models.SlotTypePeriod},
		{7, "13:10", "13:55", models.SlotTypePeriod},
	}
	for i, w := range want {
		assert.Equal(t, w.period, slots[i].PeriodNumber, "slot %d", i)
		assert.Equal(t, w.start, slots[i].StartTime, "slot %d", i)
		assert.Equal(t, w.end, slots[i].EndTime, "slot %d", i)
		assert.Equal(t, w.kind, slots[i].SlotType, "slot %d", i)
		assert.Equal(t, i+1, slots[i].Order)
		if i > 0 {
			assert.Equal(t, slots[i-1].EndTime, slots[i].StartTime)
		}
	}
	assert.Len(t, LessonSlots(slots), 7)
}

func TestGenerateTimeSlotsIsDeterministic(t *testing.T) {
	first, err := GenerateTimeSlots(validSettings())
	require.NoError(t, err)
	second, err := GenerateTimeSlots(validSettings())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateTimeSlotsRejectsInvalidInput(t *testing.T) {
	_, err := GenerateTimeSlots(models.GenerationSettings{DailyPeriods: 0, PeriodDuration: 45})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = GenerateTimeSlots(models.GenerationSettings{DailyPeriods: 3, PeriodDuration: 45, FirstPeriodStart: "25:99"})
	require.Error(t, err)
}
