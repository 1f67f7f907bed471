package timetable

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ComputeStatistics aggregates loads. Per-teacher figures are derived from hour sums
// grouped by teacher.
func ComputeStatistics(loads []models.TeachingLoad) models.WorkloadStatistics {
	stats := models.WorkloadStatistics{TeacherHourDistribution: map[string]int{}}
	if len(loads) == 0 {
		return stats
	}

	subjects := map[string]struct{}{}
	classes := map[string]struct{}{}
	for _, load := range loads {
		stats.TotalWeeklyHours += load.WeeklyHours
		stats.TeacherHourDistribution[load.Teacher.ID] += load.WeeklyHours
		subjects[load.Subject.ID] = struct{}{}
		classes[load.Class.ID] = struct{}{}
	}
	stats.TotalLoads = len(loads)
	stats.UniqueTeachers = len(stats.TeacherHourDistribution)
	stats.UniqueSubjects = len(subjects)
	stats.UniqueClasses = len(classes)

	first := true
	for _, hours := range stats.TeacherHourDistribution {
		if first || hours > stats.MaxHoursPerTeacher {
			stats.MaxHoursPerTeacher = hours
		}
		if first || hours < stats.MinHoursPerTeacher {
			stats.MinHoursPerTeacher = hours
		}
		first = false
	}
	stats.AverageHoursPerTeacher = round2(float64(stats.TotalWeeklyHours) / float64(stats.UniqueTeachers))
	return stats
}
