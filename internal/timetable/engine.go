// Package timetable holds the pure scheduling core: settings and workload validation,
// day templates, ideal distributions and the generation engine.
package timetable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// DefaultCoreSubjects receive the morning bonus when no list is configured.
var DefaultCoreSubjects = []string{"Riyaziyyat", "Azərbaycan dili", "Mathematics"}

// Placement weights.
const (
	weightPreferredSlot     = 1000
	weightPreferredSlotSoft = 300
	weightContiguous        = 100
	weightOversizedBlock    = -30
	weightBelowIdeal        = 50
	weightAtIdeal           = -50
	weightMorningCore       = 20
	weightLateCore          = -10
	weightLatePeriod        = -15
	weightClassDayLoad      = -2
	weightAdjacentLesson    = 5
	weightShortBreak        = -40
	weightOverConsecutive   = -200
	morningPeriods          = 4
	latePeriods             = 2
)

// EngineConfig tunes limits the engine enforces while detecting conflicts.
type EngineConfig struct {
	MaxWeeklyHours int
	CoreSubjects   []string
}

// Engine turns workload-ready data into a weekly schedule. It holds no state
// between calls.
type Engine struct {
	cfg    EngineConfig
	core   map[string]bool
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine constructs an engine.
func NewEngine(cfg EngineConfig, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWeeklyHours <= 0 {
		cfg.MaxWeeklyHours = MaxWeeklyHoursPerTeacher
	}
	if len(cfg.CoreSubjects) == 0 {
		cfg.CoreSubjects = DefaultCoreSubjects
	}
	core := make(map[string]bool, len(cfg.CoreSubjects))
	for _, name := range cfg.CoreSubjects {
		core[strings.ToLower(strings.TrimSpace(name))] = true
	}
	e := &Engine{cfg: cfg, core: core, logger: logger, newID: uuid.NewString, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerationResult is the outcome of one generation run.
type GenerationResult struct {
	Schedule          models.Schedule             `json:"schedule"`
	Sessions          []models.ScheduleSession    `json:"sessions"`
	SessionsCreated   int                         `json:"sessions_created"`
	Conflicts         []models.Conflict           `json:"conflicts"`
	ResolvedConflicts int                         `json:"resolved_conflicts"`
	GenerationTime    float64                     `json:"generation_time"`
	Statistics        models.GenerationStatistics `json:"statistics"`
}

// Generate validates the input, places every load, detects conflicts, optionally
// resolves them and assigns rooms. Invalid input fails before any session exists;
// every other irregularity is reported as a conflict.
func (e *Engine) Generate(data models.WorkloadData, prefs models.GenerationPreferences, actor models.Actor) (*GenerationResult, error) {
	started := e.now()
	grid, err := e.validate(data, prefs)
	if err != nil {
		return nil, err
	}
	settings := *data.Settings
	logger := e.logger.With(zap.String("institution_id", data.Institution.ID), zap.String("academic_year_id", data.AcademicYearID))
	logger.Info("schedule generation started",
		zap.Int("teaching_loads", len(data.TeachingLoads)),
		zap.Int("grid_slots", grid.Size()),
		zap.String("strategy", string(prefs.ConflictResolutionStrategy)),
	)

	scheduleID := e.newID()
	loads := orderLoads(data.TeachingLoads)
	b := newBoard(grid, nil)
	unplaced := make([]models.Conflict, 0)
	required := 0
	for _, load := range loads {
		required += max0(load.WeeklyHours)
		allowed := grid.AllowedSlots(load)
		if len(allowed) == 0 {
			if load.WeeklyHours > 0 {
				unplaced = append(unplaced, unplaceableLoad(load))
			}
			continue
		}
		targets := dayTargets(load, grid.Days)
		preferred := newSlotSet(load.PreferredTimeSlots)
		core := e.isCore(load.Subject)
		for h := 0; h < load.WeeklyHours; h++ {
			slot := e.pick(b, load, allowed, targets, preferred, core, prefs)
			b.add(e.newSession(scheduleID, load, slot, grid))
		}
	}
	logger.Debug("placement finished", zap.Int("sessions", len(b.sessions)), zap.Int("unplaced_loads", len(unplaced)))

	opts := DetectOptions{MaxWeeklyHours: e.cfg.MaxWeeklyHours, MaxConsecutive: prefs.MaxConsecutiveSameSubject}
	sessions := b.sessionsCopy()
	conflicts := DetectConflicts(sessions, loads, opts)
	criticalBefore := models.CountCritical(conflicts)
	logger.Debug("conflicts detected", zap.Int("conflicts", len(conflicts)), zap.Int("critical", criticalBefore))

	resolved := 0
	if prefs.ConflictResolutionStrategy != "" && criticalBefore > 0 {
		resolver, err := NewResolver(prefs.ConflictResolutionStrategy, grid)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.TeachingLoad, len(loads))
		for _, load := range loads {
			byID[load.ID] = load
		}
		sessions = resolver.Resolve(conflicts, sessions, byID)
		conflicts = DetectConflicts(sessions, loads, opts)
		if after := models.CountCritical(conflicts); after < criticalBefore {
			resolved = criticalBefore - after
		}
		logger.Info("conflict resolution finished", zap.Int("resolved", resolved), zap.Int("remaining_critical", models.CountCritical(conflicts)))
	}

	roomsAssigned := 0
	if prefs.RoomOptimization {
		roomsAssigned = AssignRooms(sessions, data.Rooms)
		conflicts = DetectConflicts(sessions, loads, opts)
	}
	conflicts = append(conflicts, unplaced...)

	createdAt := e.now().UTC()
	for i := range conflicts {
		conflicts[i].ID = e.newID()
		conflicts[i].ScheduleID = scheduleID
		conflicts[i].CreatedAt = createdAt
	}
	for i := range sessions {
		sessions[i].CreatedAt = createdAt
	}

	stats := generationStatistics(len(sessions), required, roomsAssigned, conflicts)
	schedule, err := e.buildSchedule(scheduleID, data, settings, grid, prefs, actor, stats, resolved, createdAt)
	if err != nil {
		return nil, err
	}
	elapsed := e.now().Sub(started).Seconds()
	logger.Info("schedule generation finished",
		zap.String("schedule_id", scheduleID),
		zap.Int("sessions", len(sessions)),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("critical_conflicts", stats.CriticalConflicts),
		zap.Float64("generation_time", elapsed),
	)

	return &GenerationResult{
		Schedule:          schedule,
		Sessions:          sessions,
		SessionsCreated:   len(sessions),
		Conflicts:         conflicts,
		ResolvedConflicts: resolved,
		GenerationTime:    elapsed,
		Statistics:        stats,
	}, nil
}

func (e *Engine) validate(data models.WorkloadData, prefs models.GenerationPreferences) (*Grid, error) {
	invalid := func(msg string) error { return appErrors.Clone(appErrors.ErrInvalidWorkload, msg) }
	if len(data.TeachingLoads) == 0 {
		return nil, invalid(ErrNoTeachingLoads)
	}
	if len(data.TimeSlots) == 0 {
		return nil, invalid("no time slots available")
	}
	if data.Settings == nil {
		return nil, invalid("generation settings are required")
	}
	if data.Settings.DailyPeriods <= 0 {
		return nil, invalid("daily_periods must be greater than zero")
	}
	if len(data.Settings.WorkingDays) == 0 {
		return nil, invalid("working_days must not be empty")
	}
	if data.Validation != nil && !data.Validation.IsValid {
		return nil, invalid("workload validation failed: " + strings.Join(data.Validation.Errors, "; "))
	}
	switch prefs.ConflictResolutionStrategy {
	case "", models.StrategyTeacherPriority, models.StrategyClassPriority, models.StrategyBalanced:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown conflict resolution strategy %q", prefs.ConflictResolutionStrategy))
	}
	grid := NewGrid(*data.Settings, data.TimeSlots)
	if len(grid.Days) == 0 {
		return nil, invalid("working_days contain no valid weekday")
	}
	if len(grid.Periods) == 0 {
		return nil, invalid("time slots contain no lesson periods")
	}
	return grid, nil
}

func (e *Engine) isCore(subject models.SubjectRef) bool {
	return e.core[strings.ToLower(strings.TrimSpace(subject.Name))] || e.core[strings.ToLower(strings.TrimSpace(subject.Code))]
}

// orderLoads sorts by priority, then weekly hours, both descending, then id.
func orderLoads(loads []models.TeachingLoad) []models.TeachingLoad {
	out := make([]models.TeachingLoad, len(loads))
	copy(out, loads)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityLevel != out[j].PriorityLevel {
			return out[i].PriorityLevel > out[j].PriorityLevel
		}
		if out[i].WeeklyHours != out[j].WeeklyHours {
			return out[i].WeeklyHours > out[j].WeeklyHours
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func dayTargets(load models.TeachingLoad, days []int) map[int]int {
	dist := load.IdealDistribution
	if len(dist) == 0 {
		dist = IdealDistribution(load, days)
	}
	targets := make(map[int]int, len(dist))
	for _, d := range dist {
		targets[d.Day] += d.Lessons
	}
	return targets
}

// pick returns the best-scoring free slot. When none is free it falls back to the
// least occupied permitted slot, which yields a double booking.
func (e *Engine) pick(b *board, load models.TeachingLoad, allowed []Slot, targets map[int]int, preferred slotSet, core bool, prefs models.GenerationPreferences) Slot {
	var (
		best      Slot
		bestScore int
		found     bool
	)
	for _, slot := range allowed {
		if !b.free(load, slot) {
			continue
		}
		score := e.score(b, load, slot, targets, preferred, core, prefs)
		if !found || score > bestScore {
			best, bestScore, found = slot, score, true
		}
	}
	if found {
		return best
	}

	bestOccupancy := 0
	for _, slot := range allowed {
		occupancy := b.occupancy(load, slot)
		if b.load[occupant{load.ID, slot}] > 0 {
			occupancy += b.grid.Size()
		}
		if !found || occupancy < bestOccupancy {
			best, bestOccupancy, found = slot, occupancy, true
		}
	}
	e.logger.Debug("no free slot, double booking",
		zap.String("teaching_load_id", load.ID),
		zap.Int("day", best.Day),
		zap.Int("period", best.Period),
	)
	return best
}

func (e *Engine) score(b *board, load models.TeachingLoad, slot Slot, targets map[int]int, preferred slotSet, core bool, prefs models.GenerationPreferences) int {
	score := 0
	if preferred.Contains(slot) {
		if prefs.PrioritizeTeacherPreferences {
			score += weightPreferredSlot
		} else {
			score += weightPreferredSlotSoft
		}
	}

	run := b.runLength(load.ID, slot)
	if run > 1 {
		if run <= load.BlockSize() {
			score += weightContiguous
		} else {
			score += weightOversizedBlock
		}
	}
	if prefs.MaxConsecutiveSameSubject > 0 && run > prefs.MaxConsecutiveSameSubject {
		score += weightOverConsecutive
	}

	if b.loadDay[occupant{load.ID, Slot{Day: slot.Day}}] < targets[slot.Day] {
		score += weightBelowIdeal
	} else {
		score += weightAtIdeal
	}

	if prefs.PreferMorningCoreSubjects && core {
		if slot.Period <= morningPeriods {
			score += weightMorningCore
		} else {
			score += weightLateCore
		}
	}
	if prefs.AvoidLatePeriods && slot.Period > b.grid.LastPeriod()-latePeriods {
		score += weightLatePeriod
	}
	if prefs.BalanceDailyLoad {
		score += weightClassDayLoad * b.classDay[occupant{load.Class.ID, Slot{Day: slot.Day}}]
	}
	if prefs.MinimizeGaps {
		if b.class[occupant{load.Class.ID, Slot{slot.Day, slot.Period - 1}}] > 0 ||
			b.class[occupant{load.Class.ID, Slot{slot.Day, slot.Period + 1}}] > 0 {
			score += weightAdjacentLesson
		}
	}
	if gap := prefs.MinBreakBetweenSameSubject; gap > 0 {
		for d := 2; d <= gap+1; d++ {
			if b.load[occupant{load.ID, Slot{slot.Day, slot.Period - d}}] > 0 ||
				b.load[occupant{load.ID, Slot{slot.Day, slot.Period + d}}] > 0 {
				score += weightShortBreak
				break
			}
		}
	}
	return score
}

func (e *Engine) newSession(scheduleID string, load models.TeachingLoad, slot Slot, grid *Grid) models.ScheduleSession {
	session := models.ScheduleSession{
		ID:             e.newID(),
		ScheduleID:     scheduleID,
		TeachingLoadID: load.ID,
		TeacherID:      load.Teacher.ID,
		SubjectID:      load.Subject.ID,
		ClassID:        load.Class.ID,
		DayOfWeek:      slot.Day,
		PeriodNumber:   slot.Period,
	}
	if lesson, ok := grid.Lesson(slot.Period); ok {
		session.StartTime = lesson.StartTime
		session.EndTime = lesson.EndTime
		session.DurationMinutes = lesson.Duration
	}
	return session
}

func (e *Engine) buildSchedule(id string, data models.WorkloadData, settings models.GenerationSettings, grid *Grid, prefs models.GenerationPreferences, actor models.Actor, stats models.GenerationStatistics, resolved int, at time.Time) (models.Schedule, error) {
	days, err := json.Marshal(grid.Days)
	if err != nil {
		return models.Schedule{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode working days")
	}
	prefPayload, err := json.Marshal(prefs)
	if err != nil {
		return models.Schedule{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preferences")
	}
	meta, err := json.Marshal(map[string]interface{}{
		"statistics":         stats,
		"resolved_conflicts": resolved,
		"strategy":           prefs.ConflictResolutionStrategy,
		"algorithm":          "greedy_v1",
		"generated_at":       at,
	})
	if err != nil {
		return models.Schedule{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}
	schedule := models.Schedule{
		ID:                 id,
		InstitutionID:      data.Institution.ID,
		AcademicYearID:     data.AcademicYearID,
		Name:               fmt.Sprintf("Automated schedule %s", at.Format("2006-01-02 15:04")),
		Status:             models.ScheduleStatusDraft,
		GenerationMethod:   models.GenerationMethodAutomated,
		WorkingDays:        types.JSONText(days),
		TotalPeriodsPerDay: settings.DailyPeriods,
		Preferences:        types.JSONText(prefPayload),
		Metadata:           types.JSONText(meta),
		SessionsCount:      stats.TotalSessions,
		CriticalConflicts:  stats.CriticalConflicts,
		CreatedAt:          at,
		UpdatedAt:          at,
	}
	if actor.UserID != "" {
		createdBy := actor.UserID
		schedule.CreatedBy = &createdBy
	}
	return schedule, nil
}

func generationStatistics(sessions, required, rooms int, conflicts []models.Conflict) models.GenerationStatistics {
	stats := models.GenerationStatistics{
		TotalSessions:    sessions,
		RequiredSessions: required,
		ConflictsCount:   len(conflicts),
		RoomsAssigned:    rooms,
	}
	stats.CriticalConflicts = models.CountCritical(conflicts)
	stats.WarningConflicts = stats.ConflictsCount - stats.CriticalConflicts
	if sessions > 0 {
		ratio := float64(len(conflicts)) / float64(sessions)
		success := (1 - ratio) * 100
		if success < 0 {
			success = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		stats.SuccessRate = round2(success)
		stats.EfficiencyScore = round2((1 - ratio) * 100)
	}
	return stats
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
