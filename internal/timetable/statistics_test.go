package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestComputeStatisticsGroupsByTeacher(t *testing.T) {
	stats := ComputeStatistics([]models.TeachingLoad{
		load("l1", "t1", "math", "c1", 10),
		load("l2", "t2", "lang", "c2", 6),
	})
	assert.Equal(t, 2, stats.TotalLoads)
	assert.Equal(t, 16, stats.TotalWeeklyHours)
	assert.Equal(t, 2, stats.UniqueTeachers)
	assert.Equal(t, 2, stats.UniqueSubjects)
	assert.Equal(t, 2, stats.UniqueClasses)
	assert.Equal(t, 8.0, stats.AverageHoursPerTeacher)
	assert.Equal(t, 10, stats.MaxHoursPerTeacher)
	assert.Equal(t, 6, stats.MinHoursPerTeacher)
}

func TestComputeStatisticsSameTeacher(t *testing.T) {
	stats := ComputeStatistics([]models.TeachingLoad{
		load("l1", "t1", "math", "c1", 15),
		load("l2", "t1", "math", "c2", 12),
		load("l3", "t2", "lang", "c1", 4),
	})
	assert.Equal(t, 31, stats.TotalWeeklyHours)
	assert.Equal(t, 2, stats.UniqueTeachers)
	assert.Equal(t, 2, stats.UniqueSubjects)
	assert.Equal(t, 2, stats.UniqueClasses)
	assert.Equal(t, 15.5, stats.AverageHoursPerTeacher)
	assert.Equal(t, 27, stats.MaxHoursPerTeacher)
	assert.Equal(t, 4, stats.MinHoursPerTeacher)
	assert.Equal(t, map[string]int{"t1": 27, "t2": 4}, stats.TeacherHourDistribution)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.Zero(t, stats.TotalLoads)
	assert.Zero(t, stats.AverageHoursPerTeacher)
	assert.NotNil(t, stats.TeacherHourDistribution)
}

func TestComputeStatisticsRoundsAverage(t *testing.T) {
	stats := ComputeStatistics([]models.TeachingLoad{
		load("l1", "t1", "math", "c1", 10),
		load("l2", "t2", "lang", "c1", 5),
		load("l3", "t3", "lang", "c2", 5),
	})
	assert.Equal(t, 6.67, stats.AverageHoursPerTeacher)
}
