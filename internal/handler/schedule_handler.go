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

type scheduleService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest, actor models.Actor) (*dto.GenerateScheduleResponse, error)
	Get(ctx context.Context, id string, actor models.Actor) (*models.Schedule, error)
	List(ctx context.Context, query dto.ScheduleListQuery, actor models.Actor) (*dto.ScheduleListResponse, error)
	Sessions(ctx context.Context, id string, actor models.Actor) ([]models.ScheduleSessionDetail, error)
	Conflicts(ctx context.Context, id string, actor models.Actor) ([]models.Conflict, error)
	Publish(ctx context.Context, id string, actor models.Actor) (*models.Schedule, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

type generationJobService interface {
	Submit(ctx context.Context, req dto.GenerateScheduleRequest, actor models.Actor) (*models.GenerationJob, error)
	Status(ctx context.Context, id string, actor models.Actor) (*models.GenerationJob, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, id, format string, actor models.Actor) (*service.ExportFile, error)
}

// ScheduleHandler manages generated schedules.
type ScheduleHandler struct {
	schedules scheduleService
	jobs      generationJobService
	exporter  scheduleExporter
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules scheduleService, jobs generationJobService, exporter scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, jobs: jobs, exporter: exporter}
}

// Generate godoc
// @Summary Generate and store a weekly timetable
// @Description Runs the generation engine for an institution's academic year and persists the schedule, its sessions and its conflict report in one transaction.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateScheduleRequest true "Generation request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload"))
		return
	}
	result, err := h.schedules.Generate(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "generation_time", result.GenerationTime)
	middleware.SetMeta(c, "resolved_conflicts", result.ResolvedConflicts)
	response.JSON(c, http.StatusCreated, result, nil, middleware.ExtractMeta(c))
}

// GenerateAsync godoc
// @Summary Queue a timetable generation
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateScheduleRequest true "Generation request"
// @Success 202 {object} response.Envelope
// @Router /schedules/generate/async [post]
func (h *ScheduleHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload"))
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// JobStatus godoc
// @Summary Status of a queued generation
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/jobs/{id} [get]
func (h *ScheduleHandler) JobStatus(c *gin.Context) {
	job, err := h.jobs.Status(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List generated schedules
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID"
// @Param academic_year_id query string false "Academic year ID"
// @Param status query string false "draft, published or archived"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	result, err := h.schedules.List(c.Request.Context(), query, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}

// Get godoc
// @Summary Get a schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.Get(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Sessions godoc
// @Summary Lessons of a schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/sessions [get]
func (h *ScheduleHandler) Sessions(c *gin.Context) {
	sessions, err := h.schedules.Sessions(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Conflicts godoc
// @Summary Conflict report of a schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts [get]
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.schedules.Conflicts(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "critical_conflicts", models.CountCritical(conflicts))
	response.JSON(c, http.StatusOK, conflicts, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download a schedule as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /schedules/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ScheduleExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), query.Format, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Publish godoc
// @Summary Publish a draft schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedules/{id}/publish [post]
func (h *ScheduleHandler) Publish(c *gin.Context) {
	schedule, err := h.schedules.Publish(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a draft schedule
// @Tags Schedules
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
