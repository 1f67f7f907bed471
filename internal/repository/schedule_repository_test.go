package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

var scheduleColumnNames = []string{"id", "institution_id", "academic_year_id", "name", "status", "generation_method", "working_days",
	"total_periods_per_day", "preferences", "metadata", "sessions_count", "critical_conflicts", "created_by", "published_at", "created_at", "updated_at"}

func TestScheduleRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "inst-1", "year-1", "Automated schedule", "draft", "automated", sqlmock.AnyArg(),
			7, sqlmock.AnyArg(), sqlmock.AnyArg(), 40, 0, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{
		InstitutionID:      "inst-1",
		AcademicYearID:     "year-1",
		Name:               "Automated schedule",
		TotalPeriodsPerDay: 7,
		SessionsCount:      40,
	}
	require.NoError(t, repo.Create(context.Background(), nil, schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	assert.JSONEq(t, `{}`, string(schedule.Metadata))
	assert.JSONEq(t, `[]`, string(schedule.WorkingDays))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateInTransaction(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, &models.Schedule{ID: "sched-1", InstitutionID: "inst-1"}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM schedules WHERE id = \\$1").
		WithArgs("sched-1").
		WillReturnRows(sqlmock.NewRows(scheduleColumnNames).
			AddRow("sched-1", "inst-1", "year-1", "Automated", "draft", "automated", `[1,2,3,4,5]`, 7, `{}`, `{"algorithm":"greedy_v1"}`,
				40, 2, "user-1", nil, now, now))

	schedule, err := repo.FindByID(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 2, schedule.CriticalConflicts)
	require.NotNil(t, schedule.CreatedBy)
	assert.Equal(t, "user-1", *schedule.CreatedBy)
	assert.Nil(t, schedule.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM schedules WHERE 1=1 AND institution_id = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT 10 OFFSET 10").
		WithArgs("inst-1", "draft").
		WillReturnRows(sqlmock.NewRows(scheduleColumnNames).
			AddRow("sched-1", "inst-1", "year-1", "Automated", "draft", "automated", `[]`, 7, `{}`, `{}`, 40, 0, nil, nil, now, now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM schedules WHERE 1=1 AND institution_id = \\$1 AND status = \\$2").
		WithArgs("inst-1", "draft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.ScheduleFilter{InstitutionID: "inst-1", Status: "draft", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatusAndDelete(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	publishedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE schedules SET status = \\$1").
		WithArgs("published", publishedAt, sqlmock.AnyArg(), "sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedules SET status = \\$1").
		WithArgs("archived", nil, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schedules WHERE id = \\$1").
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM schedules WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.UpdateStatus(ctx, "sched-1", models.ScheduleStatusPublished, &publishedAt))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", models.ScheduleStatusArchived, nil), sql.ErrNoRows)
	require.NoError(t, repo.Delete(ctx, "sched-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSessionRepositoryInsertAndList(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleSessionRepository(db)

	room := "room-1"
	sessions := []models.ScheduleSession{
		{ScheduleID: "sched-1", TeachingLoadID: "load-1", TeacherID: "t-1", SubjectID: "s-1", ClassID: "c-1",
			RoomID: &room, DayOfWeek: 1, PeriodNumber: 1, StartTime: "08:00", EndTime: "08:45", DurationMinutes: 45},
		{ID: "sess-2", ScheduleID: "sched-1", TeachingLoadID: "load-1", TeacherID: "t-1", SubjectID: "s-1", ClassID: "c-1",
			DayOfWeek: 1, PeriodNumber: 2, StartTime: "08:55", EndTime: "09:40", DurationMinutes: 45},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_sessions").
		WithArgs(sqlmock.AnyArg(), "sched-1", "load-1", "t-1", "s-1", "c-1", "room-1", 1, 1, "08:00", "08:45", 45, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_sessions").
		WithArgs("sess-2", "sched-1", "load-1", "t-1", "s-1", "c-1", nil, 1, 2, "08:55", "09:40", 45, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.InsertBatch(context.Background(), tx, sessions))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, sessions[0].ID)
	assert.False(t, sessions[0].CreatedAt.IsZero())

	now := time.Now()
	cols := []string{"id", "schedule_id", "teaching_load_id", "teacher_id", "subject_id", "class_id", "room_id",
		"day_of_week", "period_number", "start_time", "end_time", "duration_minutes", "created_at",
		"teacher_name", "subject_name", "class_name", "room_name"}
	mock.ExpectQuery("FROM schedule_sessions ss").
		WithArgs("sched-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("sess-1", "sched-1", "load-1", "t-1", "s-1", "c-1", "room-1", 1, 1, "08:00", "08:45", 45, now, "Aysel", "Riyaziyyat", "5A", "101").
			AddRow("sess-2", "sched-1", "load-1", "t-1", "s-1", "c-1", nil, 1, 2, "08:55", "09:40", 45, now, "Aysel", "Riyaziyyat", "5A", nil))

	details, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Aysel", details[0].TeacherName)
	require.NotNil(t, details[0].RoomName)
	assert.Equal(t, "101", *details[0].RoomName)
	assert.Nil(t, details[1].RoomID)
	assert.Nil(t, details[1].RoomName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSessionRepositoryInsertEmpty(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleSessionRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleConflictRepositoryInsertAndList(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewScheduleConflictRepository(db)

	conflicts := []models.Conflict{
		{
			Type:         models.ConflictTeacher,
			Severity:     models.SeverityCritical,
			DayOfWeek:    2,
			PeriodNumber: 3,
			Message:      "teacher Aysel is double-booked on Tuesday period 3",
			Participants: []models.ConflictParticipant{{SessionID: "sess-1"}, {SessionID: "sess-2"}},
			Details:      map[string]interface{}{"teacher_id": "t-1"},
		},
		{
			Type:     models.ConflictTeacher,
			Severity: models.SeverityCritical,
			Message:  "overloaded",
		},
	}
	mock.ExpectExec("INSERT INTO schedule_conflicts").
		WithArgs(sqlmock.AnyArg(), "sched-1", "teacher_conflict", "critical", int64(2), int64(3), sqlmock.AnyArg(),
			[]byte(`[{"session_id":"sess-1"},{"session_id":"sess-2"}]`), []byte(`{"teacher_id":"t-1"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_conflicts").
		WithArgs(sqlmock.AnyArg(), "sched-1", "teacher_conflict", "critical", nil, nil, "overloaded", []byte(`[]`), []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.InsertBatch(context.Background(), nil, "sched-1", conflicts))
	assert.Equal(t, "sched-1", conflicts[0].ScheduleID)
	assert.NotEmpty(t, conflicts[1].ID)

	now := time.Now()
	cols := []string{"id", "schedule_id", "type", "severity", "day_of_week", "period_number", "message", "participants", "details", "created_at"}
	mock.ExpectQuery("FROM schedule_conflicts WHERE schedule_id = \\$1").
		WithArgs("sched-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("conf-1", "sched-1", "teacher_conflict", "critical", 2, 3, "double-booked", `[{"session_id":"sess-1"}]`, `{"teacher_id":"t-1"}`, now).
			AddRow("conf-2", "sched-1", "consecutive_hours_exceeded", "warning", nil, nil, "run", `[]`, `{}`, now))

	listed, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].IsCritical())
	assert.Equal(t, 3, listed[0].PeriodNumber)
	assert.Equal(t, "sess-1", listed[0].Participants[0].SessionID)
	assert.Equal(t, "t-1", listed[0].Details["teacher_id"])
	assert.Zero(t, listed[1].DayOfWeek)
	assert.Empty(t, listed[1].Participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}
