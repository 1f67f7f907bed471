package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

func writeFixture(t *testing.T, name string, value interface{}) string {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func cliSettings() models.GenerationSettings {
	return models.GenerationSettings{
		WorkingDays:      []int{1, 2, 3},
		DailyPeriods:     4,
		PeriodDuration:   40,
		BreakPeriods:     []int{2},
		BreakDuration:    10,
		FirstPeriodStart: "08:30",
	}
}

func TestRunGenerate(t *testing.T) {
	settings := cliSettings()
	workload := writeFixture(t, "workload.json", models.WorkloadData{
		Institution:    models.InstitutionRef{ID: "inst-1"},
		AcademicYearID: "year-1",
		Settings:       &settings,
		TeachingLoads: []models.TeachingLoad{{
			ID:          "load-1",
			Teacher:     models.TeacherRef{ID: "t-1"},
			Subject:     models.SubjectRef{ID: "s-1"},
			Class:       models.ClassRef{ID: "c-1"},
			WeeklyHours: 3,
		}},
	})
	prefs := writeFixture(t, "prefs.json", models.GenerationPreferences{ConflictResolutionStrategy: models.StrategyBalanced})

	var out bytes.Buffer
	require.NoError(t, runGenerate(&out, timetable.NewEngine(timetable.EngineConfig{}, nil), timetable.DefaultWorkloadLimits(), workload, prefs))

	var result timetable.GenerationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 3, result.SessionsCreated)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, "inst-1", result.Schedule.InstitutionID)
}

func TestRunGenerateEmptyWorkload(t *testing.T) {
	settings := cliSettings()
	workload := writeFixture(t, "workload.json", models.WorkloadData{Settings: &settings})

	err := runGenerate(&bytes.Buffer{}, timetable.NewEngine(timetable.EngineConfig{}, nil), timetable.DefaultWorkloadLimits(), workload, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), timetable.ErrNoTeachingLoads)
}

func TestRunGenerateHonoursConfiguredLimits(t *testing.T) {
	settings := models.GenerationSettings{WorkingDays: []int{1, 2, 3, 4, 5}, DailyPeriods: 6, PeriodDuration: 45, FirstPeriodStart: "07:30"}
	workload := writeFixture(t, "workload.json", models.WorkloadData{
		Institution:    models.InstitutionRef{ID: "inst-1"},
		AcademicYearID: "year-1",
		Settings:       &settings,
		TeachingLoads: []models.TeachingLoad{{
			ID:          "load-1",
			Teacher:     models.TeacherRef{ID: "t-1"},
			Subject:     models.SubjectRef{ID: "s-1"},
			Class:       models.ClassRef{ID: "c-1"},
			WeeklyHours: 27,
		}},
	})
	engine := timetable.NewEngine(timetable.EngineConfig{MaxWeeklyHours: 30}, nil)

	err := runGenerate(&bytes.Buffer{}, engine, timetable.DefaultWorkloadLimits(), workload, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeding the maximum of 25")

	var out bytes.Buffer
	require.NoError(t, runGenerate(&out, engine, timetable.WorkloadLimits{MaxWeeklyHours: 30, WarningWeeklyHours: 28}, workload, ""))
	var result timetable.GenerationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 27, result.SessionsCreated)
	assert.Empty(t, conflictsOf(result.Conflicts, models.ConflictTeacher))
}

func conflictsOf(conflicts []models.Conflict, kind models.ConflictType) []models.Conflict {
	var out []models.Conflict
	for _, c := range conflicts {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestRunTimeSlots(t *testing.T) {
	path := writeFixture(t, "settings.json", cliSettings())

	var out bytes.Buffer
	require.NoError(t, runTimeSlots(&out, path))

	var slots []models.TimeSlot
	require.NoError(t, json.Unmarshal(out.Bytes(), &slots))
	require.Len(t, slots, 5)
	assert.Equal(t, "08:30", slots[0].StartTime)
	assert.True(t, slots[2].IsBreak)
	assert.Equal(t, "10:00", slots[2].EndTime)
}

func TestRunValidateSettings(t *testing.T) {
	valid := writeFixture(t, "valid.json", cliSettings())
	require.NoError(t, runValidateSettings(&bytes.Buffer{}, valid))

	broken := cliSettings()
	broken.DailyPeriods = 0
	invalid := writeFixture(t, "invalid.json", broken)

	var out bytes.Buffer
	require.Error(t, runValidateSettings(&out, invalid))
	assert.Contains(t, out.String(), "daily_periods must be between 1 and 12")

	require.Error(t, runValidateSettings(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.json")))
}
