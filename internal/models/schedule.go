package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus describes the lifecycle of a generated timetable.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusArchived  ScheduleStatus = "archived"
)

// GenerationMethodAutomated marks schedules produced by the engine.
const GenerationMethodAutomated = "automated"

// Schedule is one generated weekly timetable for an institution.
type Schedule struct {
	ID                 string         `db:"id" json:"id"`
	InstitutionID      string         `db:"institution_id" json:"institution_id"`
	AcademicYearID     string         `db:"academic_year_id" json:"academic_year_id"`
	Name               string         `db:"name" json:"name"`
	Status             ScheduleStatus `db:"status" json:"status"`
	GenerationMethod   string         `db:"generation_method" json:"generation_method"`
	WorkingDays        types.JSONText `db:"working_days" json:"working_days"`
	TotalPeriodsPerDay int            `db:"total_periods_per_day" json:"total_periods_per_day"`
	Preferences        types.JSONText `db:"preferences" json:"preferences"`
	Metadata           types.JSONText `db:"metadata" json:"metadata"`
	SessionsCount      int            `db:"sessions_count" json:"sessions_count"`
	CriticalConflicts  int            `db:"critical_conflicts" json:"critical_conflicts"`
	CreatedBy          *string        `db:"created_by" json:"created_by,omitempty"`
	PublishedAt        *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	InstitutionID  string
	AcademicYearID string
	Status         string
	Page           int
	PageSize       int
}

// ScheduleSession is one lesson of a teaching load at a (day, period) coordinate.
type ScheduleSession struct {
	ID              string    `db:"id" json:"id"`
	ScheduleID      string    `db:"schedule_id" json:"schedule_id"`
	TeachingLoadID  string    `db:"teaching_load_id" json:"teaching_load_id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	RoomID          *string   `db:"room_id" json:"room_id,omitempty"`
	DayOfWeek       int       `db:"day_of_week" json:"day_of_week"`
	PeriodNumber    int       `db:"period_number" json:"period_number"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at,omitempty"`
}

// ScheduleSessionDetail enriches a session with display names.
type ScheduleSessionDetail struct {
	ScheduleSession
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	ClassName   string  `db:"class_name" json:"class_name"`
	RoomName    *string `db:"room_name" json:"room_name,omitempty"`
}
