package timetable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func load(id, teacherID, subjectID, classID string, hours int) models.TeachingLoad {
	return models.TeachingLoad{
		ID:                        id,
		Teacher:                   models.TeacherRef{ID: teacherID, Name: "Teacher " + teacherID},
		Subject:                   models.SubjectRef{ID: subjectID, Name: "Subject " + subjectID},
		Class:                     models.ClassRef{ID: classID, Name: "Class " + classID},
		WeeklyHours:               hours,
		PriorityLevel:             5,
		PreferredConsecutiveHours: 1,
	}
}

var testContext = WorkloadContext{InstitutionID: "inst-1", AcademicYearID: "year-1"}

func TestValidateWorkloadEmpty(t *testing.T) {
	result := ValidateWorkload(nil, testContext, DefaultWorkloadLimits())
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"no teaching loads found"}, result.Errors)
	assert.Zero(t, result.LoadsCount)
}

func TestValidateWorkloadCeiling(t *testing.T) {
	loads := []models.TeachingLoad{
		load("l1", "t1", "math", "c1", 15),
		load("l2", "t1", "math", "c2", 11),
		load("l3", "t2", "lang", "c1", 15),
		load("l4", "t2", "lang", "c2", 8),
	}
	result := ValidateWorkload(loads, testContext, DefaultWorkloadLimits())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "maximum of 25")
	assert.Contains(t, result.Errors[0], "t1")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "t2")
	assert.Equal(t, 49, result.TotalHours)
	assert.Equal(t, map[string]int{"t1": 26, "t2": 23}, result.TeacherHours)
	assert.Equal(t, 4, result.LoadsCount)
}

func TestValidateWorkloadWarningDoesNotInvalidate(t *testing.T) {
	loads := []models.TeachingLoad{load("l1", "t1", "math", "c1", 15), load("l2", "t1", "phys", "c1", 8)}
	result := ValidateWorkload(loads, testContext, DefaultWorkloadLimits())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Warnings, 1)
}

func TestValidateWorkloadMissingData(t *testing.T) {
	broken := load("l1", "", "", "", 0)
	result := ValidateWorkload([]models.TeachingLoad{broken}, WorkloadContext{}, DefaultWorkloadLimits())
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"teaching load l1 has no teacher",
		"teaching load l1 has no subject",
		"teaching load l1 has no class",
		"teaching load l1 must have at least 1 weekly hour",
		"institution is required",
		"academic year is required",
	}, result.Errors)
}

func TestValidateWorkloadCustomLimits(t *testing.T) {
	loads := []models.TeachingLoad{load("l1", "t1", "math", "c1", 19)}
	limits := WorkloadLimits{MaxWeeklyHours: 18, WarningWeeklyHours: 16}
	result := ValidateWorkload(loads, testContext, limits)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], fmt.Sprintf("maximum of %d", 18))
}
