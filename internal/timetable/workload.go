package timetable

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Weekly hour ceilings applied when no limits are configured.
const (
	MaxWeeklyHoursPerTeacher     = 25
	WarningWeeklyHoursPerTeacher = 23
)

// ErrNoTeachingLoads is the message reported for an empty workload.
const ErrNoTeachingLoads = "no teaching loads found"

// WorkloadLimits holds the per-teacher weekly hour thresholds.
type WorkloadLimits struct {
	MaxWeeklyHours     int
	WarningWeeklyHours int
}

// DefaultWorkloadLimits returns the 25/23 hour thresholds.
func DefaultWorkloadLimits() WorkloadLimits {
	return WorkloadLimits{MaxWeeklyHours: MaxWeeklyHoursPerTeacher, WarningWeeklyHours: WarningWeeklyHoursPerTeacher}
}

func (l WorkloadLimits) normalize() WorkloadLimits {
	if l.MaxWeeklyHours <= 0 {
		l.MaxWeeklyHours = MaxWeeklyHoursPerTeacher
	}
	if l.WarningWeeklyHours <= 0 {
		l.WarningWeeklyHours = WarningWeeklyHoursPerTeacher
	}
	if l.WarningWeeklyHours > l.MaxWeeklyHours {
		l.WarningWeeklyHours = l.MaxWeeklyHours
	}
	return l
}

// WorkloadContext names the institution and academic year a workload belongs to.
type WorkloadContext struct {
	InstitutionID  string
	AcademicYearID string
}

// ValidateWorkload checks teaching loads for completeness and weekly hour ceilings.
// Warnings never flip IsValid.
func ValidateWorkload(loads []models.TeachingLoad, wctx WorkloadContext, limits WorkloadLimits) models.WorkloadValidation {
	limits = limits.normalize()
	result := models.WorkloadValidation{
		Errors:       make([]string, 0),
		Warnings:     make([]string, 0),
		TeacherHours: make(map[string]int),
		LoadsCount:   len(loads),
	}
	if len(loads) == 0 {
		result.Errors = append(result.Errors, ErrNoTeachingLoads)
		return result
	}

	teacherNames := make(map[string]string)
	for _, load := range loads {
		result.TotalHours += load.WeeklyHours
		if load.Teacher.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("teaching load %s has no teacher", load.ID))
		} else {
			result.TeacherHours[load.Teacher.ID] += load.WeeklyHours
			if load.Teacher.Name != "" {
				teacherNames[load.Teacher.ID] = load.Teacher.Name
			}
		}
		if load.Subject.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("teaching load %s has no subject", load.ID))
		}
		if load.Class.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("teaching load %s has no class", load.ID))
		}
		if load.WeeklyHours < 1 {
			result.Errors = append(result.Errors, fmt.Sprintf("teaching load %s must have at least 1 weekly hour", load.ID))
		}
	}

	teacherIDs := make([]string, 0, len(result.TeacherHours))
	for id := range result.TeacherHours {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)
	for _, id := range teacherIDs {
		hours := result.TeacherHours[id]
		label := id
		if name, ok := teacherNames[id]; ok {
			label = fmt.Sprintf("%s (%s)", name, id)
		}
		switch {
		case hours > limits.MaxWeeklyHours:
			result.Errors = append(result.Errors, fmt.Sprintf("teacher %s has %d weekly hours, exceeding the maximum of %d by %d", label, hours, limits.MaxWeeklyHours, hours-limits.MaxWeeklyHours))
		case hours >= limits.WarningWeeklyHours:
			result.Warnings = append(result.Warnings, fmt.Sprintf("teacher %s has %d weekly hours, close to the maximum of %d", label, hours, limits.MaxWeeklyHours))
		}
	}

	if wctx.InstitutionID == "" {
		result.Errors = append(result.Errors, "institution is required")
	}
	if wctx.AcademicYearID == "" {
		result.Errors = append(result.Errors, "academic year is required")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
