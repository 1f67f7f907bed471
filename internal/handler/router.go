package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Workload  *WorkloadHandler
	Schedules *ScheduleHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts probes at the root and the timetable API under prefix. Every API
// route requires a token whose role is one of the scheduling roles.
func RegisterRoutes(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(tokens))
	api.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleSchoolAdmin))

	api.GET("/metrics/summary", h.Metrics.Summary)

	workload := api.Group("/workload")
	workload.GET("", h.Workload.Get)
	workload.GET("/validation", h.Workload.Validation)
	workload.GET("/statistics", h.Workload.Statistics)
	workload.GET("/time-slots", h.Workload.TimeSlots)
	workload.GET("/status", h.Workload.Status)
	workload.POST("/settings/validate", h.Workload.ValidateSettings)
	workload.POST("/loads/ready", h.Workload.MarkReady)
	workload.POST("/loads/reset", h.Workload.Reset)

	schedules := api.Group("/schedules")
	schedules.POST("/generate", h.Schedules.Generate)
	schedules.POST("/generate/async", h.Schedules.GenerateAsync)
	schedules.GET("/jobs/:id", h.Schedules.JobStatus)
	schedules.GET("", h.Schedules.List)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.GET("/:id/sessions", h.Schedules.Sessions)
	schedules.GET("/:id/conflicts", h.Schedules.Conflicts)
	schedules.GET("/:id/export", h.Schedules.Export)
	schedules.POST("/:id/publish", h.Schedules.Publish)
	schedules.DELETE("/:id", h.Schedules.Delete)
}
