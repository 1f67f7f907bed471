package models

import "time"

// ConflictType names the invariant or preference a conflict breaches.
type ConflictType string

const (
	ConflictTeacher             ConflictType = "teacher_conflict"
	ConflictClass               ConflictType = "class_conflict"
	ConflictRoom                ConflictType = "room_conflict"
	ConflictUnavailablePeriod   ConflictType = "unavailable_period_violation"
	ConflictConsecutiveExceeded ConflictType = "consecutive_hours_exceeded"
)

// ConflictSeverity grades a conflict.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityWarning  ConflictSeverity = "warning"
)

// ConflictParticipant references a session or load involved in a conflict.
type ConflictParticipant struct {
	SessionID      string `json:"session_id,omitempty"`
	TeachingLoadID string `json:"teaching_load_id,omitempty"`
	TeacherID      string `json:"teacher_id,omitempty"`
	ClassID        string `json:"class_id,omitempty"`
	RoomID         string `json:"room_id,omitempty"`
}

// Conflict is a detected violation reported alongside a generated schedule.
type Conflict struct {
	ID           string                 `json:"id"`
	ScheduleID   string                 `json:"schedule_id,omitempty"`
	Type         ConflictType           `json:"type"`
	Severity     ConflictSeverity       `json:"severity"`
	DayOfWeek    int                    `json:"day_of_week,omitempty"`
	PeriodNumber int                    `json:"period_number,omitempty"`
	Message      string                 `json:"message"`
	Participants []ConflictParticipant  `json:"participants"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
}

// IsCritical reports whether the conflict breaches a hard invariant.
func (c Conflict) IsCritical() bool {
	return c.Severity == SeverityCritical
}

// CountCritical returns the number of critical conflicts.
func CountCritical(conflicts []Conflict) int {
	n := 0
	for _, c := range conflicts {
		if c.IsCritical() {
			n++
		}
	}
	return n
}
