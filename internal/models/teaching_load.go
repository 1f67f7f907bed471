package models

import "time"

// TeachingLoadStatus tracks where a load sits in the generation workflow.
type TeachingLoadStatus string

const (
	TeachingLoadStatusPending   TeachingLoadStatus = "pending"
	TeachingLoadStatusReady     TeachingLoadStatus = "ready"
	TeachingLoadStatusScheduled TeachingLoadStatus = "scheduled"
	TeachingLoadStatusConflict  TeachingLoadStatus = "conflict"
	TeachingLoadStatusExcluded  TeachingLoadStatus = "excluded"
)

// TeacherRef identifies the teacher of a teaching load.
type TeacherRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// SubjectRef identifies the subject of a teaching load.
type SubjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ClassRef identifies the class of a teaching load.
type ClassRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	InstitutionID  string `json:"institution_id,omitempty"`
	AcademicYearID string `json:"academic_year_id,omitempty"`
}

// DayDistribution is the number of lessons a load should receive on one weekday.
type DayDistribution struct {
	Day         int  `json:"day"`
	Lessons     int  `json:"lessons"`
	Consecutive bool `json:"consecutive"`
}

// TeachingLoad is one teacher's weekly obligation to teach a subject to a class.
type TeachingLoad struct {
	ID                        string             `json:"id"`
	Teacher                   TeacherRef         `json:"teacher"`
	Subject                   SubjectRef         `json:"subject"`
	Class                     ClassRef           `json:"class"`
	WeeklyHours               int                `json:"weekly_hours"`
	PriorityLevel             int                `json:"priority_level"`
	PreferredConsecutiveHours int                `json:"preferred_consecutive_hours"`
	PreferredTimeSlots        []string           `json:"preferred_time_slots"`
	UnavailablePeriods        []string           `json:"unavailable_periods"`
	IdealDistribution         []DayDistribution  `json:"ideal_distribution"`
	Status                    TeachingLoadStatus `json:"schedule_generation_status,omitempty"`
	LastScheduleID            *string            `json:"last_schedule_id,omitempty"`
	LastScheduledAt           *time.Time         `json:"last_scheduled_at,omitempty"`
}

// BlockSize returns the preferred consecutive block, never below one lesson.
func (l TeachingLoad) BlockSize() int {
	if l.PreferredConsecutiveHours < 1 {
		return 1
	}
	return l.PreferredConsecutiveHours
}

// TeachingLoadStatusCount aggregates loads per generation status.
type TeachingLoadStatusCount struct {
	Status TeachingLoadStatus `db:"status" json:"status"`
	Count  int                `db:"count" json:"count"`
}

// SchedulingIntegrationStatus summarises how far an institution's loads have progressed.
type SchedulingIntegrationStatus struct {
	TotalTeachingLoads       int     `json:"total_teaching_loads"`
	ScheduledLoads           int     `json:"scheduled_loads"`
	PendingLoads             int     `json:"pending_loads"`
	ReadyLoads               int     `json:"ready_loads"`
	ConflictLoads            int     `json:"conflict_loads"`
	ExcludedLoads            int     `json:"excluded_loads"`
	SchedulingCompletionRate float64 `json:"scheduling_completion_rate"`
}
