package timetable

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DetectOptions configures conflict detection.
type DetectOptions struct {
	MaxWeeklyHours int
	MaxConsecutive int
}

// DetectConflicts scans sessions for double bookings, unavailable period breaches,
// teacher overload and over-long same-subject runs. Every colliding pair of sessions
// is reported separately.
func DetectConflicts(sessions []models.ScheduleSession, loads []models.TeachingLoad, opts DetectOptions) []models.Conflict {
	conflicts := make([]models.Conflict, 0)
	conflicts = append(conflicts, teacherOverload(loads, opts.MaxWeeklyHours)...)
	conflicts = append(conflicts, doubleBookings(sessions, models.ConflictTeacher, "teacher", func(s models.ScheduleSession) string { return s.TeacherID })...)
	conflicts = append(conflicts, doubleBookings(sessions, models.ConflictClass, "class", func(s models.ScheduleSession) string { return s.ClassID })...)
	conflicts = append(conflicts, doubleBookings(sessions, models.ConflictRoom, "room", func(s models.ScheduleSession) string {
		if s.RoomID == nil {
			return ""
		}
		return *s.RoomID
	})...)
	conflicts = append(conflicts, unavailableBreaches(sessions, loads)...)
	if opts.MaxConsecutive > 0 {
		conflicts = append(conflicts, consecutiveRuns(sessions, opts.MaxConsecutive)...)
	}
	return conflicts
}

func sessionParticipant(s models.ScheduleSession) models.ConflictParticipant {
	p := models.ConflictParticipant{
		SessionID:      s.ID,
		TeachingLoadID: s.TeachingLoadID,
		TeacherID:      s.TeacherID,
		ClassID:        s.ClassID,
	}
	if s.RoomID != nil {
		p.RoomID = *s.RoomID
	}
	return p
}

func teacherOverload(loads []models.TeachingLoad, max int) []models.Conflict {
	if max <= 0 {
		return nil
	}
	hours := map[string]int{}
	members := map[string][]models.TeachingLoad{}
	for _, load := range loads {
		if load.Teacher.ID == "" {
			continue
		}
		hours[load.Teacher.ID] += load.WeeklyHours
		members[load.Teacher.ID] = append(members[load.Teacher.ID], load)
	}
	ids := make([]string, 0, len(hours))
	for id, total := range hours {
		if total > max {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]models.Conflict, 0, len(ids))
	for _, id := range ids {
		participants := make([]models.ConflictParticipant, 0, len(members[id]))
		for _, load := range members[id] {
			participants = append(participants, models.ConflictParticipant{TeachingLoadID: load.ID, TeacherID: id, ClassID: load.Class.ID})
		}
		out = append(out, models.Conflict{
			Type:         models.ConflictTeacher,
			Severity:     models.SeverityCritical,
			Message:      fmt.Sprintf("teacher %s is assigned %d weekly hours, above the maximum of %d", id, hours[id], max),
			Participants: participants,
			Details:      map[string]interface{}{"teacher_id": id, "total_hours": hours[id], "max_hours": max},
		})
	}
	return out
}

func doubleBookings(sessions []models.ScheduleSession, kind models.ConflictType, label string, key func(models.ScheduleSession) string) []models.Conflict {
	groups := map[occupant][]int{}
	for i, s := range sessions {
		id := key(s)
		if id == "" {
			continue
		}
		k := occupant{id, sessionSlot(s)}
		groups[k] = append(groups[k], i)
	}
	keys := make([]occupant, 0)
	for k, idx := range groups {
		if len(idx) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].slot != keys[j].slot {
			return keys[i].slot.Less(keys[j].slot)
		}
		return keys[i].id < keys[j].id
	})

	var out []models.Conflict
	for _, k := range keys {
		idx := groups[k]
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				out = append(out, models.Conflict{
					Type:         kind,
					Severity:     models.SeverityCritical,
					DayOfWeek:    k.slot.Day,
					PeriodNumber: k.slot.Period,
					Message:      fmt.Sprintf("%s %s is double-booked on %s period %d", label, k.id, DayName(k.slot.Day), k.slot.Period),
					Participants: []models.ConflictParticipant{sessionParticipant(sessions[idx[a]]), sessionParticipant(sessions[idx[b]])},
					Details:      map[string]interface{}{label + "_id": k.id},
				})
			}
		}
	}
	return out
}

func unavailableBreaches(sessions []models.ScheduleSession, loads []models.TeachingLoad) []models.Conflict {
	blocked := make(map[string]slotSet, len(loads))
	for _, load := range loads {
		if set := newSlotSet(load.UnavailablePeriods); !set.Empty() {
			blocked[load.ID] = set
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	var out []models.Conflict
	for _, s := range sessions {
		set, ok := blocked[s.TeachingLoadID]
		if !ok || !set.Contains(sessionSlot(s)) {
			continue
		}
		out = append(out, models.Conflict{
			Type:         models.ConflictUnavailablePeriod,
			Severity:     models.SeverityCritical,
			DayOfWeek:    s.DayOfWeek,
			PeriodNumber: s.PeriodNumber,
			Message:      fmt.Sprintf("teaching load %s is scheduled in an unavailable period (%s period %d)", s.TeachingLoadID, DayName(s.DayOfWeek), s.PeriodNumber),
			Participants: []models.ConflictParticipant{sessionParticipant(s)},
		})
	}
	return out
}

// unplaceableLoad reports a load none of whose hours could be placed without
// entering one of its unavailable periods.
func unplaceableLoad(load models.TeachingLoad) models.Conflict {
	return models.Conflict{
		Type:     models.ConflictUnavailablePeriod,
		Severity: models.SeverityCritical,
		Message:  fmt.Sprintf("teaching load %s has no available period; %d weekly hours left unscheduled", load.ID, load.WeeklyHours),
		Participants: []models.ConflictParticipant{{
			TeachingLoadID: load.ID,
			TeacherID:      load.Teacher.ID,
			ClassID:        load.Class.ID,
		}},
		Details: map[string]interface{}{"unscheduled_hours": load.WeeklyHours},
	}
}

func consecutiveRuns(sessions []models.ScheduleSession, max int) []models.Conflict {
	byLoadDay := map[occupant][]models.ScheduleSession{}
	for _, s := range sessions {
		k := occupant{s.TeachingLoadID, Slot{Day: s.DayOfWeek}}
		byLoadDay[k] = append(byLoadDay[k], s)
	}
	keys := make([]occupant, 0, len(byLoadDay))
	for k := range byLoadDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].slot.Day < keys[j].slot.Day
	})

	var out []models.Conflict
	for _, k := range keys {
		list := byLoadDay[k]
		sort.Slice(list, func(i, j int) bool { return list[i].PeriodNumber < list[j].PeriodNumber })
		start := 0
		for i := 1; i <= len(list); i++ {
			if i < len(list) && list[i].PeriodNumber == list[i-1].PeriodNumber+1 {
				continue
			}
			if run := list[start:i]; len(run) > max {
				participants := make([]models.ConflictParticipant, 0, len(run))
				for _, s := range run {
					participants = append(participants, sessionParticipant(s))
				}
				out = append(out, models.Conflict{
					Type:         models.ConflictConsecutiveExceeded,
					Severity:     models.SeverityWarning,
					DayOfWeek:    k.slot.Day,
					PeriodNumber: run[0].PeriodNumber,
					Message:      fmt.Sprintf("teaching load %s runs %d consecutive periods on %s, above the preferred maximum of %d", k.id, len(run), DayName(k.slot.Day), max),
					Participants: participants,
					Details:      map[string]interface{}{"run_length": len(run), "max_allowed": max},
				})
			}
			start = i
		}
	}
	return out
}
