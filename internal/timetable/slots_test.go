package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlotToken(t *testing.T) {
	cases := []struct {
		token string
		want  Slot
		ok    bool
	}{
		{"1_3", Slot{Day: 1, Period: 3}, true},
		{"monday_1", Slot{Day: 1, Period: 1}, true},
		{"FRI-6", Slot{Day: 5, Period: 6}, true},
		{" wed:2 ", Slot{Day: 3, Period: 2}, true},
		{"4", Slot{Period: 4}, true},
		{"8_1", Slot{}, false},
		{"monday_x", Slot{}, false},
		{"", Slot{}, false},
		{"0", Slot{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseSlotToken(tc.token)
		assert.Equal(t, tc.ok, ok, tc.token)
		assert.Equal(t, tc.want, got, tc.token)
	}
}

func TestSlotSetMatchesAnyDayTokens(t *testing.T) {
	set := newSlotSet([]string{"2_1", "5", "garbage"})
	assert.True(t, set.Contains(Slot{Day: 2, Period: 1}))
	assert.False(t, set.Contains(Slot{Day: 3, Period: 1}))
	assert.True(t, set.Contains(Slot{Day: 4, Period: 5}))
	assert.False(t, set.Empty())
	assert.True(t, newSlotSet(nil).Empty())
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Monday", DayName(1))
	assert.Equal(t, "Sunday", DayName(7))
	assert.Equal(t, "9", DayName(9))
}
