package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// WorkloadQuery scopes workload endpoints. Institution defaults to the caller's.
type WorkloadQuery struct {
	InstitutionID  string `form:"institution_id"`
	AcademicYearID string `form:"academic_year_id"`
}

// TeachingLoadIDsRequest selects loads for a status transition.
type TeachingLoadIDsRequest struct {
	InstitutionID   string   `json:"institution_id"`
	TeachingLoadIDs []string `json:"teaching_load_ids" validate:"required,min=1,dive,required"`
}

// TeachingLoadStatusUpdateResponse reports how many loads changed status.
type TeachingLoadStatusUpdateResponse struct {
	Updated int64 `json:"updated"`
}

// GenerateScheduleRequest starts a generation run for an institution's academic year.
type GenerateScheduleRequest struct {
	InstitutionID  string                       `json:"institution_id"`
	AcademicYearID string                       `json:"academic_year_id"`
	Name           string                       `json:"name" validate:"omitempty,max=255"`
	Preferences    models.GenerationPreferences `json:"generation_preferences"`
}

// GenerateScheduleResponse is the outcome of a persisted generation run.
type GenerateScheduleResponse struct {
	Schedule          models.Schedule             `json:"schedule"`
	SessionsCreated   int                         `json:"sessions_created"`
	Conflicts         []models.Conflict           `json:"conflicts"`
	ResolvedConflicts int                         `json:"resolved_conflicts"`
	GenerationTime    float64                     `json:"generation_time"`
	Statistics        models.GenerationStatistics `json:"statistics"`
}

// ScheduleListQuery filters schedule listings.
type ScheduleListQuery struct {
	InstitutionID  string `form:"institution_id"`
	AcademicYearID string `form:"academic_year_id"`
	Status         string `form:"status" validate:"omitempty,oneof=draft published archived"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// ScheduleListResponse wraps a page of schedules.
type ScheduleListResponse struct {
	Items      []models.Schedule `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// ScheduleExportQuery picks the export format.
type ScheduleExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
