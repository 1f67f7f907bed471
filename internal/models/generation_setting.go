package models

import "time"

// DefaultFirstPeriodStart is used when settings omit a start time.
const DefaultFirstPeriodStart = "08:00"

// SlotType tags an entry of the daily template.
type SlotType string

const (
	SlotTypePeriod SlotType = "period"
	SlotTypeBreak  SlotType = "break"
	SlotTypeLunch  SlotType = "lunch"
)

// GenerationSettings is an institution's timetable template.
type GenerationSettings struct {
	ID               string    `json:"id,omitempty"`
	InstitutionID    string    `json:"institution_id,omitempty"`
	WorkingDays      []int     `json:"working_days"`
	DailyPeriods     int       `json:"daily_periods"`
	PeriodDuration   int       `json:"period_duration"`
	BreakPeriods     []int     `json:"break_periods"`
	LunchBreakPeriod *int      `json:"lunch_break_period,omitempty"`
	FirstPeriodStart string    `json:"first_period_start"`
	BreakDuration    int       `json:"break_duration"`
	LunchDuration    int       `json:"lunch_duration"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// StartTime returns the configured first period start or the default.
func (s GenerationSettings) StartTime() string {
	if s.FirstPeriodStart == "" {
		return DefaultFirstPeriodStart
	}
	return s.FirstPeriodStart
}

// TimeSlot is one entry of a single-day template. Break and lunch entries carry the
// number of the period they follow.
type TimeSlot struct {
	Order        int      `json:"order,omitempty"`
	PeriodNumber int      `json:"period_number"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Duration     int      `json:"duration"`
	IsBreak      bool     `json:"is_break"`
	SlotType     SlotType `json:"slot_type,omitempty"`
}

// IsLesson reports whether the slot can host a lesson.
func (t TimeSlot) IsLesson() bool {
	if t.IsBreak {
		return false
	}
	return t.SlotType == "" || t.SlotType == SlotTypePeriod
}

// SettingsValidation is the outcome of validating generation settings.
type SettingsValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}
