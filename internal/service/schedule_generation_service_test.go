package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newGenerationDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type workloadProviderStub struct {
	data *models.WorkloadData
	err  error
}

func (s *workloadProviderStub) GetWorkloadReadyData(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadData, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.data
	copied.TeachingLoads = append([]models.TeachingLoad(nil), s.data.TeachingLoads...)
	return &copied, nil
}

type scheduleStoreStub struct {
	created   []models.Schedule
	schedules map[string]*models.Schedule
	createErr error
	filter    models.ScheduleFilter
	statusSet models.ScheduleStatus
	deleted   []string
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{schedules: map[string]*models.Schedule{}}
}

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *schedule)
	return nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, ok := s.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *schedule
	return &copied, nil
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	s.filter = filter
	return nil, 0, nil
}

func (s *scheduleStoreStub) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, publishedAt *time.Time) error {
	s.statusSet = status
	return nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type sessionStoreStub struct {
	inserted  []models.ScheduleSession
	insertErr error
	details   []models.ScheduleSessionDetail
}

func (s *sessionStoreStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.ScheduleSession) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, sessions...)
	return nil
}

func (s *sessionStoreStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSessionDetail, error) {
	return s.details, nil
}

type conflictStoreStub struct {
	inserted []models.Conflict
}

func (s *conflictStoreStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, scheduleID string, conflicts []models.Conflict) error {
	s.inserted = append(s.inserted, conflicts...)
	return nil
}

func (s *conflictStoreStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error) {
	return nil, nil
}

type loadSchedulerStub struct {
	ids        []string
	scheduleID string
}

func (s *loadSchedulerStub) MarkScheduled(ctx context.Context, exec sqlx.ExtContext, ids []string, scheduleID string, at time.Time) (int64, error) {
	s.ids = ids
	s.scheduleID = scheduleID
	return int64(len(ids)), nil
}

type generationLockerStub struct {
	held     bool
	err      error
	acquired []string
	released []string
}

func (s *generationLockerStub) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	if s.held {
		return "", false, nil
	}
	s.acquired = append(s.acquired, key)
	return "token-1", true, nil
}

func (s *generationLockerStub) Release(ctx context.Context, key, token string) error {
	s.released = append(s.released, key)
	return nil
}

type generationObserverStub struct {
	outcomes []string
}

func (s *generationObserverStub) ObserveGeneration(outcome string, duration time.Duration, stats models.GenerationStatistics) {
	s.outcomes = append(s.outcomes, outcome)
}

type generationFixture struct {
	workload  *workloadProviderStub
	schedules *scheduleStoreStub
	sessions  *sessionStoreStub
	conflicts *conflictStoreStub
	loads     *loadSchedulerStub
	locker    *generationLockerStub
	observer  *generationObserverStub
	cache     *statisticsCacheStub
	mock      sqlmock.Sqlmock
	service   *ScheduleGenerationService
}

func readyWorkload(t *testing.T) *models.WorkloadData {
	t.Helper()
	settings := schoolSettings()
	slots, err := timetable.GenerateTimeSlots(*settings)
	require.NoError(t, err)
	return &models.WorkloadData{
		Institution:        models.InstitutionRef{ID: "inst-1", Name: "School 1"},
		AcademicYearID:     "year-1",
		Settings:           settings,
		TeachingLoads:      schoolLoads(),
		TimeSlots:          slots,
		ReadyForGeneration: true,
	}
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	db, mock := newGenerationDB(t)
	n := 0
	engine := timetable.NewEngine(timetable.EngineConfig{}, nil,
		timetable.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen-%03d", n)
		}),
		timetable.WithClock(func() time.Time { return time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC) }),
	)
	f := &generationFixture{
		workload:  &workloadProviderStub{data: readyWorkload(t)},
		schedules: newScheduleStoreStub(),
		sessions:  &sessionStoreStub{},
		conflicts: &conflictStoreStub{},
		loads:     &loadSchedulerStub{},
		locker:    &generationLockerStub{},
		observer:  &generationObserverStub{},
		cache:     newStatisticsCacheStub(),
		mock:      mock,
	}
	f.service = NewScheduleGenerationService(f.workload, engine, f.schedules, f.sessions, f.conflicts, f.loads, f.locker, db, f.observer, f.cache, nil, nil, ScheduleGenerationConfig{})
	return f
}

var schoolAdminActor = models.Actor{UserID: "user-1", Role: models.RoleSchoolAdmin, InstitutionID: "inst-1"}

func TestScheduleGenerationServiceGenerate(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{
		AcademicYearID: "year-1",
		Name:           "Autumn timetable",
		Preferences:    models.GenerationPreferences{ConflictResolutionStrategy: models.StrategyBalanced},
	}, schoolAdminActor)
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, 6, resp.SessionsCreated)
	assert.Equal(t, "Autumn timetable", resp.Schedule.Name)
	assert.Equal(t, "inst-1", resp.Schedule.InstitutionID)
	assert.Equal(t, models.ScheduleStatusDraft, resp.Schedule.Status)
	assert.Zero(t, resp.Statistics.CriticalConflicts)

	require.Len(t, f.schedules.created, 1)
	assert.Equal(t, resp.Schedule.ID, f.schedules.created[0].ID)
	assert.Len(t, f.sessions.inserted, 6)
	for _, session := range f.sessions.inserted {
		assert.Equal(t, resp.Schedule.ID, session.ScheduleID)
	}
	assert.ElementsMatch(t, []string{"load-1", "load-2"}, f.loads.ids)
	assert.Equal(t, resp.Schedule.ID, f.loads.scheduleID)

	assert.Equal(t, []string{GenerationLockKey("inst-1")}, f.locker.acquired)
	assert.Equal(t, []string{GenerationLockKey("inst-1")}, f.locker.released)
	assert.Equal(t, []string{GenerationOutcomeSuccess}, f.observer.outcomes)
	assert.Equal(t, []string{StatsCachePattern("inst-1")}, f.cache.invalidated)
}

func TestScheduleGenerationServiceGenerateLocked(t *testing.T) {
	f := newGenerationFixture(t)
	f.locker.held = true

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGenerationLocked.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{GenerationOutcomeLocked}, f.observer.outcomes)
	assert.Empty(t, f.locker.released)
	assert.Empty(t, f.schedules.created)
}

func TestScheduleGenerationServiceGenerateRollsBack(t *testing.T) {
	f := newGenerationFixture(t)
	f.sessions.insertErr = errors.New("insert failed")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{}, schoolAdminActor)
	require.Error(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.loads.ids)
	assert.Equal(t, []string{GenerationOutcomeFailed}, f.observer.outcomes)
	assert.Equal(t, []string{GenerationLockKey("inst-1")}, f.locker.released)
	assert.Empty(t, f.cache.invalidated)
}

func TestScheduleGenerationServiceGenerateInvalidWorkload(t *testing.T) {
	f := newGenerationFixture(t)
	f.workload.data.TeachingLoads = nil

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{}, schoolAdminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidWorkload.Code, appErr.Code)
	assert.Equal(t, timetable.ErrNoTeachingLoads, appErr.Message)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestScheduleGenerationServiceGeneratePreconditions(t *testing.T) {
	f := newGenerationFixture(t)
	f.workload.data.Settings = nil

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	f.workload.data.AcademicYearID = ""
	_, err = f.service.Generate(context.Background(), dto.GenerateScheduleRequest{}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.service.Generate(context.Background(), dto.GenerateScheduleRequest{InstitutionID: "inst-2"}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.service.Generate(context.Background(), dto.GenerateScheduleRequest{
		Preferences: models.GenerationPreferences{ConflictResolutionStrategy: "random"},
	}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGenerationServicePublish(t *testing.T) {
	f := newGenerationFixture(t)
	f.schedules.schedules["sch-1"] = &models.Schedule{ID: "sch-1", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft}
	f.schedules.schedules["sch-2"] = &models.Schedule{ID: "sch-2", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft, CriticalConflicts: 2}
	f.schedules.schedules["sch-3"] = &models.Schedule{ID: "sch-3", InstitutionID: "inst-1", Status: models.ScheduleStatusPublished}

	published, err := f.service.Publish(context.Background(), "sch-1", schoolAdminActor)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.Equal(t, models.ScheduleStatusPublished, f.schedules.statusSet)

	_, err = f.service.Publish(context.Background(), "sch-2", schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "2 unresolved critical conflicts")

	_, err = f.service.Publish(context.Background(), "sch-3", schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleGenerationServiceDelete(t *testing.T) {
	f := newGenerationFixture(t)
	f.schedules.schedules["sch-1"] = &models.Schedule{ID: "sch-1", InstitutionID: "inst-1", Status: models.ScheduleStatusDraft}
	f.schedules.schedules["sch-2"] = &models.Schedule{ID: "sch-2", InstitutionID: "inst-1", Status: models.ScheduleStatusPublished}

	require.NoError(t, f.service.Delete(context.Background(), "sch-1", schoolAdminActor))
	assert.Equal(t, []string{"sch-1"}, f.schedules.deleted)

	err := f.service.Delete(context.Background(), "sch-2", schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	err = f.service.Delete(context.Background(), "missing", schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGenerationServiceAccessControl(t *testing.T) {
	f := newGenerationFixture(t)
	f.schedules.schedules["sch-9"] = &models.Schedule{ID: "sch-9", InstitutionID: "inst-9", Status: models.ScheduleStatusDraft}

	_, err := f.service.Get(context.Background(), "sch-9", schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	schedule, err := f.service.Get(context.Background(), "sch-9", models.Actor{UserID: "root", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, "inst-9", schedule.InstitutionID)

	sessions, err := f.service.Sessions(context.Background(), "sch-9", models.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)

	conflicts, err := f.service.Conflicts(context.Background(), "sch-9", models.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
}

func TestScheduleGenerationServiceList(t *testing.T) {
	f := newGenerationFixture(t)

	resp, err := f.service.List(context.Background(), dto.ScheduleListQuery{Status: "draft"}, schoolAdminActor)
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 20, TotalCount: 0}, resp.Pagination)
	assert.Equal(t, models.ScheduleFilter{InstitutionID: "inst-1", Status: "draft", Page: 1, PageSize: 20}, f.schedules.filter)

	_, err = f.service.List(context.Background(), dto.ScheduleListQuery{Status: "unknown"}, schoolAdminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
