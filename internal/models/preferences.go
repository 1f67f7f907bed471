package models

// ResolutionStrategy selects how critical conflicts are relocated.
type ResolutionStrategy string

const (
	StrategyTeacherPriority ResolutionStrategy = "teacher_priority"
	StrategyClassPriority   ResolutionStrategy = "class_priority"
	StrategyBalanced        ResolutionStrategy = "balanced"
)

// GenerationPreferences tunes placement scoring and post-processing.
type GenerationPreferences struct {
	PrioritizeTeacherPreferences bool               `json:"prioritize_teacher_preferences"`
	MinimizeGaps                 bool               `json:"minimize_gaps"`
	BalanceDailyLoad             bool               `json:"balance_daily_load"`
	AvoidLatePeriods             bool               `json:"avoid_late_periods"`
	PreferMorningCoreSubjects    bool               `json:"prefer_morning_core_subjects"`
	MaxConsecutiveSameSubject    int                `json:"max_consecutive_same_subject,omitempty" validate:"omitempty,min=1,max=6"`
	MinBreakBetweenSameSubject   int                `json:"min_break_between_same_subject,omitempty" validate:"omitempty,min=0,max=3"`
	RoomOptimization             bool               `json:"room_optimization"`
	ConflictResolutionStrategy   ResolutionStrategy `json:"conflict_resolution_strategy,omitempty" validate:"omitempty,oneof=teacher_priority class_priority balanced"`
}

// WorkloadValidation is the verdict of the workload validator.
type WorkloadValidation struct {
	IsValid      bool           `json:"is_valid"`
	Errors       []string       `json:"errors"`
	Warnings     []string       `json:"warnings"`
	TotalHours   int            `json:"total_hours"`
	TeacherHours map[string]int `json:"teacher_hours"`
	LoadsCount   int            `json:"loads_count"`
}

// WorkloadStatistics aggregates a set of teaching loads.
type WorkloadStatistics struct {
	TotalLoads              int            `json:"total_loads"`
	TotalWeeklyHours        int            `json:"total_weekly_hours"`
	UniqueTeachers          int            `json:"unique_teachers"`
	UniqueSubjects          int            `json:"unique_subjects"`
	UniqueClasses           int            `json:"unique_classes"`
	AverageHoursPerTeacher  float64        `json:"average_hours_per_teacher"`
	MaxHoursPerTeacher      int            `json:"max_hours_per_teacher"`
	MinHoursPerTeacher      int            `json:"min_hours_per_teacher"`
	TeacherHourDistribution map[string]int `json:"teacher_hour_distribution"`
}

// WorkloadData is the input bundle handed to the generation engine.
type WorkloadData struct {
	Institution        InstitutionRef      `json:"institution"`
	AcademicYearID     string              `json:"academic_year_id"`
	Settings           *GenerationSettings `json:"settings"`
	TeachingLoads      []TeachingLoad      `json:"teaching_loads"`
	TimeSlots          []TimeSlot          `json:"time_slots"`
	Rooms              []Room              `json:"rooms,omitempty"`
	Validation         *WorkloadValidation `json:"validation,omitempty"`
	Statistics         *WorkloadStatistics `json:"statistics,omitempty"`
	ReadyForGeneration bool                `json:"ready_for_generation"`
}

// GenerationStatistics summarises the quality of a generation run.
type GenerationStatistics struct {
	TotalSessions     int     `json:"total_sessions"`
	RequiredSessions  int     `json:"required_sessions"`
	ConflictsCount    int     `json:"conflicts_count"`
	CriticalConflicts int     `json:"critical_conflicts"`
	WarningConflicts  int     `json:"warning_conflicts"`
	RoomsAssigned     int     `json:"rooms_assigned"`
	SuccessRate       float64 `json:"success_rate"`
	EfficiencyScore   float64 `json:"efficiency_score"`
}
