package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Grid is the weekly matrix of lesson coordinates built from working days and
// the lesson entries of a day template.
type Grid struct {
	Days    []int
	Periods []int
	lessons map[int]models.TimeSlot
}

// NewGrid builds a grid from settings and a time-slot template. Periods beyond
// daily_periods and break or lunch entries are ignored.
func NewGrid(settings models.GenerationSettings, slots []models.TimeSlot) *Grid {
	seen := map[int]bool{}
	days := make([]int, 0, len(settings.WorkingDays))
	for _, day := range settings.WorkingDays {
		if day < 1 || day > 7 || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Ints(days)

	lessons := LessonSlots(slots)
	periods := make([]int, 0, len(lessons))
	for period := range lessons {
		if settings.DailyPeriods > 0 && period > settings.DailyPeriods {
			delete(lessons, period)
			continue
		}
		periods = append(periods, period)
	}
	sort.Ints(periods)
	return &Grid{Days: days, Periods: periods, lessons: lessons}
}

// Slots returns every coordinate ordered by day then period.
func (g *Grid) Slots() []Slot {
	out := make([]Slot, 0, len(g.Days)*len(g.Periods))
	for _, day := range g.Days {
		for _, period := range g.Periods {
			out = append(out, Slot{Day: day, Period: period})
		}
	}
	return out
}

// Size is the number of coordinates in the grid.
func (g *Grid) Size() int {
	return len(g.Days) * len(g.Periods)
}

// LastPeriod is the highest lesson period of the day.
func (g *Grid) LastPeriod() int {
	if len(g.Periods) == 0 {
		return 0
	}
	return g.Periods[len(g.Periods)-1]
}

// Lesson returns the template entry of a lesson period.
func (g *Grid) Lesson(period int) (models.TimeSlot, bool) {
	slot, ok := g.lessons[period]
	return slot, ok
}

// AllowedSlots lists the coordinates a load may occupy after removing its unavailable periods.
func (g *Grid) AllowedSlots(load models.TeachingLoad) []Slot {
	blocked := newSlotSet(load.UnavailablePeriods)
	all := g.Slots()
	if blocked.Empty() {
		return all
	}
	allowed := make([]Slot, 0, len(all))
	for _, slot := range all {
		if !blocked.Contains(slot) {
			allowed = append(allowed, slot)
		}
	}
	return allowed
}

type occupant struct {
	id   string
	slot Slot
}

// board tracks sessions and their occupancy by teacher, class and load.
type board struct {
	grid     *Grid
	sessions []models.ScheduleSession
	teacher  map[occupant]int
	class    map[occupant]int
	load     map[occupant]int
	classDay map[occupant]int
	loadDay  map[occupant]int
}

func newBoard(grid *Grid, sessions []models.ScheduleSession) *board {
	b := &board{
		grid:     grid,
		sessions: make([]models.ScheduleSession, 0, len(sessions)),
		teacher:  map[occupant]int{},
		class:    map[occupant]int{},
		load:     map[occupant]int{},
		classDay: map[occupant]int{},
		loadDay:  map[occupant]int{},
	}
	for _, session := range sessions {
		b.add(session)
	}
	return b
}

func sessionSlot(s models.ScheduleSession) Slot {
	return Slot{Day: s.DayOfWeek, Period: s.PeriodNumber}
}

func (b *board) track(s models.ScheduleSession, delta int) {
	slot := sessionSlot(s)
	b.teacher[occupant{s.TeacherID, slot}] += delta
	b.class[occupant{s.ClassID, slot}] += delta
	b.load[occupant{s.TeachingLoadID, slot}] += delta
	b.classDay[occupant{s.ClassID, Slot{Day: slot.Day}}] += delta
	b.loadDay[occupant{s.TeachingLoadID, Slot{Day: slot.Day}}] += delta
}

func (b *board) add(s models.ScheduleSession) {
	b.sessions = append(b.sessions, s)
	b.track(s, 1)
}

// move relocates the session at index i and refreshes its clock times.
func (b *board) move(i int, to Slot) {
	b.track(b.sessions[i], -1)
	b.sessions[i].DayOfWeek = to.Day
	b.sessions[i].PeriodNumber = to.Period
	if lesson, ok := b.grid.Lesson(to.Period); ok {
		b.sessions[i].StartTime = lesson.StartTime
		b.sessions[i].EndTime = lesson.EndTime
		b.sessions[i].DurationMinutes = lesson.Duration
	}
	b.track(b.sessions[i], 1)
}

// free reports whether the teacher, the class and the load are all idle at slot.
func (b *board) free(load models.TeachingLoad, slot Slot) bool {
	return b.teacher[occupant{load.Teacher.ID, slot}] == 0 &&
		b.class[occupant{load.Class.ID, slot}] == 0 &&
		b.load[occupant{load.ID, slot}] == 0
}

// occupancy counts the bookings a new session at slot would collide with.
func (b *board) occupancy(load models.TeachingLoad, slot Slot) int {
	return b.teacher[occupant{load.Teacher.ID, slot}] + b.class[occupant{load.Class.ID, slot}]
}

// runLength is the length of the same-load run slot would belong to.
func (b *board) runLength(loadID string, slot Slot) int {
	run := 1
	for p := slot.Period - 1; p >= 1 && b.load[occupant{loadID, Slot{slot.Day, p}}] > 0; p-- {
		run++
	}
	for p := slot.Period + 1; b.load[occupant{loadID, Slot{slot.Day, p}}] > 0; p++ {
		run++
	}
	return run
}

func (b *board) sessionsCopy() []models.ScheduleSession {
	out := make([]models.ScheduleSession, len(b.sessions))
	copy(out, b.sessions)
	return out
}
