package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type workloadService interface {
	GetWorkloadReadyData(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadData, error)
	ValidateWorkload(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadValidation, error)
	Statistics(ctx context.Context, institutionID, academicYearID string) (*models.WorkloadStatistics, bool, error)
	TimeSlots(ctx context.Context, institutionID string) ([]models.TimeSlot, error)
	ValidateSettings(settings models.GenerationSettings) models.SettingsValidation
	MarkReady(ctx context.Context, req dto.TeachingLoadIDsRequest) (int64, error)
	ResetSchedulingStatus(ctx context.Context, req dto.TeachingLoadIDsRequest) (int64, error)
	IntegrationStatus(ctx context.Context, institutionID string) (*models.SchedulingIntegrationStatus, error)
}

// WorkloadHandler exposes the workload data consumed by the generator.
type WorkloadHandler struct {
	service workloadService
}

// NewWorkloadHandler constructs the handler.
func NewWorkloadHandler(svc workloadService) *WorkloadHandler {
	return &WorkloadHandler{service: svc}
}

// Get godoc
// @Summary Workload-ready data for schedule generation
// @Tags Workload
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID, defaults to the caller's"
// @Param academic_year_id query string false "Academic year ID, defaults to the active year"
// @Success 200 {object} response.Envelope
// @Router /workload [get]
func (h *WorkloadHandler) Get(c *gin.Context) {
	query, ok := h.scope(c)
	if !ok {
		return
	}
	data, err := h.service.GetWorkloadReadyData(c.Request.Context(), query.InstitutionID, query.AcademicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// Validation godoc
// @Summary Validate the workload of an academic year
// @Tags Workload
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID"
// @Param academic_year_id query string false "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /workload/validation [get]
func (h *WorkloadHandler) Validation(c *gin.Context) {
	query, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.service.ValidateWorkload(c.Request.Context(), query.InstitutionID, query.AcademicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statistics godoc
// @Summary Workload statistics
// @Tags Workload
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID"
// @Param academic_year_id query string false "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /workload/statistics [get]
func (h *WorkloadHandler) Statistics(c *gin.Context) {
	query, ok := h.scope(c)
	if !ok {
		return
	}
	stats, hit, err := h.service.Statistics(c.Request.Context(), query.InstitutionID, query.AcademicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// TimeSlots godoc
// @Summary Daily time-slot template of the active settings
// @Tags Workload
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /workload/time-slots [get]
func (h *WorkloadHandler) TimeSlots(c *gin.Context) {
	query, ok := h.scope(c)
	if !ok {
		return
	}
	slots, err := h.service.TimeSlots(c.Request.Context(), query.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Status godoc
// @Summary Scheduling progress of an institution's teaching loads
// @Tags Workload
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /workload/status [get]
func (h *WorkloadHandler) Status(c *gin.Context) {
	query, ok := h.scope(c)
	if !ok {
		return
	}
	status, err := h.service.IntegrationStatus(c.Request.Context(), query.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ValidateSettings godoc
// @Summary Validate a generation settings payload
// @Tags Workload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.GenerationSettings true "Generation settings"
// @Success 200 {object} response.Envelope
// @Router /workload/settings/validate [post]
func (h *WorkloadHandler) ValidateSettings(c *gin.Context) {
	var settings models.GenerationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.ValidateSettings(settings), nil)
}

// MarkReady godoc
// @Summary Mark teaching loads ready for generation
// @Tags Workload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TeachingLoadIDsRequest true "Teaching loads"
// @Success 200 {object} response.Envelope
// @Router /workload/loads/ready [post]
func (h *WorkloadHandler) MarkReady(c *gin.Context) {
	h.updateLoads(c, h.service.MarkReady)
}

// Reset godoc
// @Summary Reset the scheduling status of teaching loads
// @Tags Workload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TeachingLoadIDsRequest true "Teaching loads"
// @Success 200 {object} response.Envelope
// @Router /workload/loads/reset [post]
func (h *WorkloadHandler) Reset(c *gin.Context) {
	h.updateLoads(c, h.service.ResetSchedulingStatus)
}

func (h *WorkloadHandler) updateLoads(c *gin.Context, apply func(context.Context, dto.TeachingLoadIDsRequest) (int64, error)) {
	var req dto.TeachingLoadIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching load payload"))
		return
	}
	institutionID, err := service.ScopeInstitution(req.InstitutionID, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	req.InstitutionID = institutionID
	updated, err := apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TeachingLoadStatusUpdateResponse{Updated: updated}, nil)
}

// scope binds the query and pins the institution to one the caller may access.
func (h *WorkloadHandler) scope(c *gin.Context) (dto.WorkloadQuery, bool) {
	var query dto.WorkloadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return query, false
	}
	institutionID, err := service.ScopeInstitution(query.InstitutionID, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return query, false
	}
	query.InstitutionID = institutionID
	return query, true
}
