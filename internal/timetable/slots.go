package timetable

import (
	"strconv"
	"strings"
)

var dayTokens = map[string]int{
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
	"sunday": 7, "sun": 7,
}

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English weekday name for a 1-7 day index.
func DayName(day int) string {
	if day < 1 || day >= len(dayNames) {
		return strconv.Itoa(day)
	}
	return dayNames[day]
}

// Slot is a (day, period) coordinate of the weekly grid.
type Slot struct {
	Day    int `json:"day"`
	Period int `json:"period"`
}

// Less orders slots by day then period.
func (s Slot) Less(other Slot) bool {
	if s.Day == other.Day {
		return s.Period < other.Period
	}
	return s.Day < other.Day
}

// ParseSlotToken reads tokens such as "1_3", "monday_3", "MON-3" or "3". A bare
// period number matches every day and is reported with Day 0.
func ParseSlotToken(token string) (Slot, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Slot{}, false
	}
	sep := strings.IndexAny(token, "_-:")
	if sep < 0 {
		period, err := strconv.Atoi(token)
		if err != nil || period < 1 {
			return Slot{}, false
		}
		return Slot{Period: period}, true
	}
	dayPart, periodPart := token[:sep], token[sep+1:]
	day, ok := dayTokens[dayPart]
	if !ok {
		n, err := strconv.Atoi(dayPart)
		if err != nil || n < 1 || n > 7 {
			return Slot{}, false
		}
		day = n
	}
	period, err := strconv.Atoi(periodPart)
	if err != nil || period < 1 {
		return Slot{}, false
	}
	return Slot{Day: day, Period: period}, true
}

// slotSet matches slots against a list of tokens, honouring any-day tokens.
type slotSet struct {
	exact   map[Slot]bool
	anyDay  map[int]bool
	entries int
}

func newSlotSet(tokens []string) slotSet {
	set := slotSet{exact: map[Slot]bool{}, anyDay: map[int]bool{}}
	for _, token := range tokens {
		slot, ok := ParseSlotToken(token)
		if !ok {
			continue
		}
		if slot.Day == 0 {
			set.anyDay[slot.Period] = true
		} else {
			set.exact[slot] = true
		}
		set.entries++
	}
	return set
}

func (s slotSet) Contains(slot Slot) bool {
	return s.exact[slot] || s.anyDay[slot.Period]
}

func (s slotSet) Empty() bool {
	return s.entries == 0
}
