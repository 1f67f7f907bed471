package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type workloadProvider interface {
	GetWorkloadReadyData(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadData, error)
}

type scheduleEngine interface {
	Generate(data models.WorkloadData, prefs models.GenerationPreferences, actor models.Actor) (*timetable.GenerationResult, error)
}

type scheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, publishedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type scheduleSessionStore interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.ScheduleSession) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSessionDetail, error)
}

type scheduleConflictStore interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, scheduleID string, conflicts []models.Conflict) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error)
}

type loadScheduler interface {
	MarkScheduled(ctx context.Context, exec sqlx.ExtContext, ids []string, scheduleID string, at time.Time) (int64, error)
}

type generationLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type generationObserver interface {
	ObserveGeneration(outcome string, duration time.Duration, stats models.GenerationStatistics)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGenerationConfig tunes the generation service.
type ScheduleGenerationConfig struct {
	LockTTL time.Duration
}

// ScheduleGenerationService runs the engine for an institution and persists the result
// atomically. Generations of one institution are serialised by an advisory lock.
type ScheduleGenerationService struct {
	workload  workloadProvider
	engine    scheduleEngine
	schedules scheduleStore
	sessions  scheduleSessionStore
	conflicts scheduleConflictStore
	loads     loadScheduler
	locker    generationLocker
	tx        txProvider
	metrics   generationObserver
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGenerationConfig
}

// NewScheduleGenerationService wires the generation service. metrics and cache may be nil.
func NewScheduleGenerationService(
	workload workloadProvider,
	engine scheduleEngine,
	schedules scheduleStore,
	sessions scheduleSessionStore,
	conflicts scheduleConflictStore,
	loads loadScheduler,
	locker generationLocker,
	tx txProvider,
	metrics generationObserver,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGenerationConfig,
) *ScheduleGenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &ScheduleGenerationService{
		workload:  workload,
		engine:    engine,
		schedules: schedules,
		sessions:  sessions,
		conflicts: conflicts,
		loads:     loads,
		locker:    locker,
		tx:        tx,
		metrics:   metrics,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// GenerationLockKey is the advisory lock key of an institution.
func GenerationLockKey(institutionID string) string {
	return fmt.Sprintf("timetable:lock:%s", institutionID)
}

// Generate builds and stores a schedule for the requested institution's academic year.
// Either the schedule, its sessions and its conflict report are all stored or none is.
func (s *ScheduleGenerationService) Generate(ctx context.Context, req dto.GenerateScheduleRequest, actor models.Actor) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	institutionID, err := ScopeInstitution(req.InstitutionID, actor)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("institution_id", institutionID), zap.String("user_id", actor.UserID))
	started := time.Now()

	lockKey := GenerationLockKey(institutionID)
	token, acquired, err := s.locker.Acquire(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		s.observe(GenerationOutcomeLocked, started, models.GenerationStatistics{})
		return nil, appErrors.Clone(appErrors.ErrGenerationLocked, "a schedule generation is already running for this institution")
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			logger.Warn("failed to release generation lock", zap.Error(err))
		}
	}()

	result, err := s.run(ctx, institutionID, req, actor)
	if err != nil {
		s.observe(GenerationOutcomeFailed, started, models.GenerationStatistics{})
		logger.Warn("schedule generation failed", zap.Error(err))
		return nil, err
	}
	s.observe(GenerationOutcomeSuccess, started, result.Statistics)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, StatsCachePattern(institutionID)); err != nil {
			logger.Warn("failed to invalidate workload statistics", zap.Error(err))
		}
	}

	logger.Info("schedule generated",
		zap.String("schedule_id", result.Schedule.ID),
		zap.Int("sessions", result.SessionsCreated),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("resolved_conflicts", result.ResolvedConflicts),
	)
	return &dto.GenerateScheduleResponse{
		Schedule:          result.Schedule,
		SessionsCreated:   result.SessionsCreated,
		Conflicts:         result.Conflicts,
		ResolvedConflicts: result.ResolvedConflicts,
		GenerationTime:    result.GenerationTime,
		Statistics:        result.Statistics,
	}, nil
}

func (s *ScheduleGenerationService) run(ctx context.Context, institutionID string, req dto.GenerateScheduleRequest, actor models.Actor) (*timetable.GenerationResult, error) {
	data, err := s.workload.GetWorkloadReadyData(ctx, institutionID, req.AcademicYearID)
	if err != nil {
		return nil, err
	}
	if data.AcademicYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, ErrAcademicYearNotFound)
	}
	if data.Settings == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active generation settings")
	}

	result, err := s.engine.Generate(*data, req.Preferences, actor)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		result.Schedule.Name = req.Name
	}
	if err := s.persist(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ScheduleGenerationService) persist(ctx context.Context, result *timetable.GenerationResult) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	schedule := &result.Schedule
	if err = s.schedules.Create(ctx, tx, schedule); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}
	if err = s.sessions.InsertBatch(ctx, tx, result.Sessions); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule sessions")
	}
	if err = s.conflicts.InsertBatch(ctx, tx, schedule.ID, result.Conflicts); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store conflict report")
	}
	if _, err = s.loads.MarkScheduled(ctx, tx, scheduledLoadIDs(result.Sessions), schedule.ID, schedule.CreatedAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark teaching loads scheduled")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
	}
	return nil
}

func (s *ScheduleGenerationService) observe(outcome string, started time.Time, stats models.GenerationStatistics) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveGeneration(outcome, time.Since(started), stats)
}

// Get loads a schedule the actor may see.
func (s *ScheduleGenerationService) Get(ctx context.Context, id string, actor models.Actor) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !canAccessInstitution(actor, schedule.InstitutionID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this schedule")
	}
	return schedule, nil
}

// List returns a page of schedules, newest first.
func (s *ScheduleGenerationService) List(ctx context.Context, query dto.ScheduleListQuery, actor models.Actor) (*dto.ScheduleListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule filter")
	}
	institutionID, err := ScopeInstitution(query.InstitutionID, actor)
	if err != nil {
		return nil, err
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size < 1 {
		size = 20
	}
	items, total, err := s.schedules.List(ctx, models.ScheduleFilter{
		InstitutionID:  institutionID,
		AcademicYearID: query.AcademicYearID,
		Status:         query.Status,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if items == nil {
		items = []models.Schedule{}
	}
	return &dto.ScheduleListResponse{
		Items:      items,
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

// Sessions returns the lessons of a schedule ordered by day and period.
func (s *ScheduleGenerationService) Sessions(ctx context.Context, id string, actor models.Actor) ([]models.ScheduleSessionDetail, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListBySchedule(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule sessions")
	}
	if sessions == nil {
		sessions = []models.ScheduleSessionDetail{}
	}
	return sessions, nil
}

// Conflicts returns the stored conflict report of a schedule.
func (s *ScheduleGenerationService) Conflicts(ctx context.Context, id string, actor models.Actor) ([]models.Conflict, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	conflicts, err := s.conflicts.ListBySchedule(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule conflicts")
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return conflicts, nil
}

// Publish moves a draft schedule to published. Schedules with critical conflicts stay drafts.
func (s *ScheduleGenerationService) Publish(ctx context.Context, id string, actor models.Actor) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("schedule is %s, only drafts can be published", schedule.Status))
	}
	if schedule.CriticalConflicts > 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("schedule has %d unresolved critical conflicts", schedule.CriticalConflicts))
	}
	now := time.Now().UTC()
	if err := s.schedules.UpdateStatus(ctx, id, models.ScheduleStatusPublished, &now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
	}
	schedule.Status = models.ScheduleStatusPublished
	schedule.PublishedAt = &now
	schedule.UpdatedAt = now
	return schedule, nil
}

// Delete removes a draft schedule together with its sessions and conflicts.
func (s *ScheduleGenerationService) Delete(ctx context.Context, id string, actor models.Actor) error {
	schedule, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

func scheduledLoadIDs(sessions []models.ScheduleSession) []string {
	seen := make(map[string]struct{}, len(sessions))
	ids := make([]string, 0)
	for _, session := range sessions {
		if _, ok := seen[session.TeachingLoadID]; ok {
			continue
		}
		seen[session.TeachingLoadID] = struct{}{}
		ids = append(ids, session.TeachingLoadID)
	}
	return ids
}
