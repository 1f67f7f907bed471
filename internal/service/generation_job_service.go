package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// GenerationJobType is the queue job type of async generations.
const GenerationJobType = "schedule_generation"

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest, actor models.Actor) (*dto.GenerateScheduleResponse, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type generationPayload struct {
	Request dto.GenerateScheduleRequest
	Actor   models.Actor
}

// GenerationJobService runs schedule generations in the background and tracks their status.
type GenerationJobService struct {
	generator scheduleGenerator
	queue     jobEnqueuer
	store     *jobStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerationJobService constructs the service. The queue is attached later with
// AttachQueue because the queue handler is the service's own Handle method.
func NewGenerationJobService(generator scheduleGenerator, ttl time.Duration, logger *zap.Logger) *GenerationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	svc := &GenerationJobService{generator: generator, logger: logger, now: time.Now}
	svc.store = newJobStore(ttl, func() time.Time { return svc.now() })
	return svc
}

// AttachQueue sets the queue Submit enqueues onto.
func (s *GenerationJobService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Submit records a queued job and enqueues it.
func (s *GenerationJobService) Submit(ctx context.Context, req dto.GenerateScheduleRequest, actor models.Actor) (*models.GenerationJob, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "asynchronous generation is disabled")
	}
	institutionID, err := ScopeInstitution(req.InstitutionID, actor)
	if err != nil {
		return nil, err
	}
	req.InstitutionID = institutionID

	now := s.now().UTC()
	job := models.GenerationJob{
		ID:            uuid.NewString(),
		InstitutionID: institutionID,
		Status:        models.GenerationJobQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.store.Save(job)
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: GenerationJobType, Payload: generationPayload{Request: req, Actor: actor}}); err != nil {
		s.store.Delete(job.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation")
	}
	s.logger.Info("generation job queued", zap.String("job_id", job.ID), zap.String("institution_id", institutionID))
	return &job, nil
}

// Status returns a job the actor may see.
func (s *GenerationJobService) Status(_ context.Context, id string, actor models.Actor) (*models.GenerationJob, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	if !canAccessInstitution(actor, job.InstitutionID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this generation job")
	}
	return &job, nil
}

// Handle is the queue handler. A returned error lets the queue retry the job.
func (s *GenerationJobService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationPayload)
	if !ok {
		s.finish(job.ID, job.Attempt, nil, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}
	s.store.Update(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationJobRunning
		j.Attempts = job.Attempt + 1
	})

	resp, err := s.generator.Generate(ctx, payload.Request, payload.Actor)
	if err != nil {
		if retryable(err) {
			s.store.Update(job.ID, func(j *models.GenerationJob) {
				j.Status = models.GenerationJobQueued
				j.Error = appErrors.FromError(err).Message
			})
			return err
		}
		s.finish(job.ID, job.Attempt, nil, err)
		return nil
	}
	s.finish(job.ID, job.Attempt, &resp.Schedule.ID, nil)
	return nil
}

// HandleFailure marks a job failed once the queue has given up on it.
func (s *GenerationJobService) HandleFailure(job jobs.Job, err error) {
	s.finish(job.ID, job.Attempt-1, nil, err)
}

func (s *GenerationJobService) finish(id string, attempt int, scheduleID *string, err error) {
	finished := s.now().UTC()
	s.store.Update(id, func(j *models.GenerationJob) {
		j.Attempts = attempt + 1
		j.FinishedAt = &finished
		if err != nil {
			j.Status = models.GenerationJobFailed
			j.Error = appErrors.FromError(err).Message
			return
		}
		j.Status = models.GenerationJobCompleted
		j.ScheduleID = scheduleID
		j.Error = ""
	})
	if err != nil {
		s.logger.Warn("generation job failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	s.logger.Info("generation job completed", zap.String("job_id", id), zap.Stringp("schedule_id", scheduleID))
}

// retryable reports whether a failure is transient. Invalid input and lock contention
// are final; only internal failures are retried.
func retryable(err error) bool {
	return appErrors.FromError(err).Code == appErrors.ErrInternal.Code
}

type jobStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.GenerationJob
}

func newJobStore(ttl time.Duration, now func() time.Time) *jobStore {
	return &jobStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]models.GenerationJob),
	}
}

func (s *jobStore) Save(job models.GenerationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.items[job.ID] = job
}

func (s *jobStore) Get(id string) (models.GenerationJob, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationJob{}, false
	}
	if s.expired(job) {
		s.Delete(id)
		return models.GenerationJob{}, false
	}
	return job, true
}

func (s *jobStore) Update(id string, mutate func(*models.GenerationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return
	}
	mutate(&job)
	job.UpdatedAt = s.now().UTC()
	s.items[id] = job
}

func (s *jobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// expired reports whether a finished job has outlived the TTL. Unfinished jobs never expire.
func (s *jobStore) expired(job models.GenerationJob) bool {
	return job.FinishedAt != nil && s.now().Sub(*job.FinishedAt) > s.ttl
}

func (s *jobStore) evictLocked() {
	for id, job := range s.items {
		if s.expired(job) {
			delete(s.items, id)
		}
	}
}
