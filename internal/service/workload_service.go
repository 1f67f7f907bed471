package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ErrAcademicYearNotFound is reported in the validation of an empty workload.
const ErrAcademicYearNotFound = "academic year not found"

type institutionReader interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	ActiveAcademicYear(ctx context.Context) (*models.AcademicYear, error)
}

type generationSettingReader interface {
	FindActive(ctx context.Context, institutionID string) (*models.GenerationSettings, error)
}

type teachingLoadStore interface {
	ListSchedulable(ctx context.Context, institutionID, academicYearID string) ([]models.TeachingLoad, error)
	MarkReady(ctx context.Context, institutionID string, ids []string) (int64, error)
	ResetStatus(ctx context.Context, institutionID string, ids []string) (int64, error)
	CountByStatus(ctx context.Context, institutionID string) ([]models.TeachingLoadStatusCount, error)
}

type roomLister interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Room, error)
}

type statisticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// WorkloadConfig tunes the workload service.
type WorkloadConfig struct {
	Limits        timetable.WorkloadLimits
	StatsCacheTTL time.Duration
}

// WorkloadService assembles the workload-ready data consumed by the generator and
// manages the generation status of teaching loads.
type WorkloadService struct {
	institutions institutionReader
	settings     generationSettingReader
	loads        teachingLoadStore
	rooms        roomLister
	cache        statisticsCache
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          WorkloadConfig
}

// NewWorkloadService wires the workload service. cache may be nil.
func NewWorkloadService(
	institutions institutionReader,
	settings generationSettingReader,
	loads teachingLoadStore,
	rooms roomLister,
	cache statisticsCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg WorkloadConfig,
) *WorkloadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limits == (timetable.WorkloadLimits{}) {
		cfg.Limits = timetable.DefaultWorkloadLimits()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 5 * time.Minute
	}
	return &WorkloadService{
		institutions: institutions,
		settings:     settings,
		loads:        loads,
		rooms:        rooms,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// GetWorkloadReadyData loads everything the generator needs for an institution's academic
// year. An unknown academic year yields an empty, invalid workload rather than an error.
func (s *WorkloadService) GetWorkloadReadyData(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadData, error) {
	institution, err := s.institution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	ref := models.InstitutionRef{ID: institution.ID, Name: institution.Name, Type: institution.Type}

	year, err := s.academicYear(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	if year == nil {
		return emptyWorkload(ref, ErrAcademicYearNotFound), nil
	}

	settings, err := s.activeSettings(ctx, institution.ID)
	if err != nil {
		return nil, err
	}

	loads, err := s.loads.ListSchedulable(ctx, institution.ID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching loads")
	}

	rooms, err := s.rooms.ListByInstitution(ctx, institution.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	workingDays := timetable.DefaultWorkingDays
	if settings != nil && len(settings.WorkingDays) > 0 {
		workingDays = settings.WorkingDays
	}
	for i := range loads {
		loads[i].IdealDistribution = timetable.IdealDistribution(loads[i], workingDays)
	}

	validation := timetable.ValidateWorkload(loads, timetable.WorkloadContext{InstitutionID: institution.ID, AcademicYearID: year.ID}, s.cfg.Limits)
	slots := []models.TimeSlot{}
	if settings != nil {
		generated, err := timetable.GenerateTimeSlots(*settings)
		if err != nil {
			s.logger.Warn("active generation settings are invalid", zap.String("institution_id", institution.ID), zap.Error(err))
			validation.IsValid = false
			validation.Errors = append(validation.Errors, appErrors.FromError(err).Message)
		} else {
			slots = generated
		}
	}
	stats := timetable.ComputeStatistics(loads)

	return &models.WorkloadData{
		Institution:        ref,
		AcademicYearID:     year.ID,
		Settings:           settings,
		TeachingLoads:      loads,
		TimeSlots:          slots,
		Rooms:              rooms,
		Validation:         &validation,
		Statistics:         &stats,
		ReadyForGeneration: settings != nil && validation.IsValid,
	}, nil
}

// ValidateWorkload returns the validation verdict for an institution's academic year.
func (s *WorkloadService) ValidateWorkload(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadValidation, error) {
	data, err := s.GetWorkloadReadyData(ctx, institutionID, academicYearID)
	if err != nil {
		return nil, err
	}
	return data.Validation, nil
}

// Statistics returns workload statistics, served from cache when possible. The boolean
// reports a cache hit.
func (s *WorkloadService) Statistics(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadStatistics, bool, error) {
	if _, err := s.institution(ctx, institutionID); err != nil {
		return nil, false, err
	}
	year, err := s.academicYear(ctx, academicYearID)
	if err != nil {
		return nil, false, err
	}
	if year == nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, ErrAcademicYearNotFound)
	}

	key := StatsCacheKey(institutionID, year.ID)
	if s.cache != nil {
		var cached models.WorkloadStatistics
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	loads, err := s.loads.ListSchedulable(ctx, institutionID, year.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching loads")
	}
	stats := timetable.ComputeStatistics(loads)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("failed to cache workload statistics", zap.String("key", key), zap.Error(err))
		}
	}
	return &stats, false, nil
}

// TimeSlots returns the daily template derived from the institution's active settings.
func (s *WorkloadService) TimeSlots(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	settings, err := s.activeSettings(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active generation settings")
	}
	return timetable.GenerateTimeSlots(*settings)
}

// ValidateSettings checks a settings payload without persisting it.
func (s *WorkloadService) ValidateSettings(settings models.GenerationSettings) models.SettingsValidation {
	return timetable.ValidateSettings(settings)
}

// MarkReady flags loads as ready for the next generation.
func (s *WorkloadService) MarkReady(ctx context.Context, req dto.TeachingLoadIDsRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching load selection")
	}
	if req.InstitutionID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "institution_id is required")
	}
	updated, err := s.loads.MarkReady(ctx, req.InstitutionID, req.TeachingLoadIDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark teaching loads ready")
	}
	s.invalidateStats(ctx, req.InstitutionID)
	return updated, nil
}

// ResetSchedulingStatus returns loads to pending and clears their schedule link.
func (s *WorkloadService) ResetSchedulingStatus(ctx context.Context, req dto.TeachingLoadIDsRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching load selection")
	}
	if req.InstitutionID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "institution_id is required")
	}
	updated, err := s.loads.ResetStatus(ctx, req.InstitutionID, req.TeachingLoadIDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset teaching loads")
	}
	s.invalidateStats(ctx, req.InstitutionID)
	return updated, nil
}

// IntegrationStatus summarises how many of an institution's loads are scheduled.
func (s *WorkloadService) IntegrationStatus(ctx context.Context, institutionID string) (*models.SchedulingIntegrationStatus, error) {
	counts, err := s.loads.CountByStatus(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teaching loads")
	}
	status := &models.SchedulingIntegrationStatus{}
	for _, c := range counts {
		status.TotalTeachingLoads += c.Count
		switch c.Status {
		case models.TeachingLoadStatusScheduled:
			status.ScheduledLoads += c.Count
		case models.TeachingLoadStatusPending:
			status.PendingLoads += c.Count
		case models.TeachingLoadStatusReady:
			status.ReadyLoads += c.Count
		case models.TeachingLoadStatusConflict:
			status.ConflictLoads += c.Count
		case models.TeachingLoadStatusExcluded:
			status.ExcludedLoads += c.Count
		}
	}
	if status.TotalTeachingLoads > 0 {
		rate := float64(status.ScheduledLoads) / float64(status.TotalTeachingLoads) * 100
		status.SchedulingCompletionRate = math.Round(rate*100) / 100
	}
	return status, nil
}

func (s *WorkloadService) institution(ctx context.Context, id string) (*models.Institution, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution_id is required")
	}
	institution, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return institution, nil
}

// academicYear resolves the requested year or the active one. A missing year is (nil, nil).
func (s *WorkloadService) academicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	var (
		year *models.AcademicYear
		err  error
	)
	if id != "" {
		year, err = s.institutions.FindAcademicYear(ctx, id)
	} else {
		year, err = s.institutions.ActiveAcademicYear(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

func (s *WorkloadService) activeSettings(ctx context.Context, institutionID string) (*models.GenerationSettings, error) {
	settings, err := s.settings.FindActive(ctx, institutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation settings")
	}
	return settings, nil
}

func (s *WorkloadService) invalidateStats(ctx context.Context, institutionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, StatsCachePattern(institutionID)); err != nil {
		s.logger.Warn("failed to invalidate workload statistics", zap.String("institution_id", institutionID), zap.Error(err))
	}
}

func emptyWorkload(institution models.InstitutionRef, reason string) *models.WorkloadData {
	return &models.WorkloadData{
		Institution:   institution,
		TeachingLoads: []models.TeachingLoad{},
		TimeSlots:     []models.TimeSlot{},
		Validation: &models.WorkloadValidation{
			IsValid:      false,
			Errors:       []string{reason},
			Warnings:     []string{},
			TeacherHours: map[string]int{},
		},
		Statistics: &models.WorkloadStatistics{TeacherHourDistribution: map[string]int{}},
	}
}

// ScopeInstitution resolves the institution a request targets. Only super admins and
// admins may act on an institution other than the one on their token.
func ScopeInstitution(requested string, actor models.Actor) (string, error) {
	if requested == "" {
		requested = actor.InstitutionID
	}
	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "institution_id is required")
	}
	if !canAccessInstitution(actor, requested) {
		return "", appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("no access to institution %s", requested))
	}
	return requested, nil
}

func canAccessInstitution(actor models.Actor, institutionID string) bool {
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true
	default:
		return actor.InstitutionID != "" && actor.InstitutionID == institutionID
	}
}
