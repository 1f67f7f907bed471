package models

import "time"

// GenerationJobStatus captures the async generation lifecycle.
type GenerationJobStatus string

const (
	GenerationJobQueued    GenerationJobStatus = "queued"
	GenerationJobRunning   GenerationJobStatus = "running"
	GenerationJobCompleted GenerationJobStatus = "completed"
	GenerationJobFailed    GenerationJobStatus = "failed"
)

// GenerationJob tracks one asynchronous generation request.
type GenerationJob struct {
	ID            string              `json:"id"`
	InstitutionID string              `json:"institution_id"`
	Status        GenerationJobStatus `json:"status"`
	ScheduleID    *string             `json:"schedule_id,omitempty"`
	Error         string              `json:"error,omitempty"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	FinishedAt    *time.Time          `json:"finished_at,omitempty"`
}
