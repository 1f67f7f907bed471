package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ScheduleSessionRepository stores the lessons of generated schedules.
type ScheduleSessionRepository struct {
	db *sqlx.DB
}

// NewScheduleSessionRepository builds the repository.
func NewScheduleSessionRepository(db *sqlx.DB) *ScheduleSessionRepository {
	return &ScheduleSessionRepository{db: db}
}

func (r *ScheduleSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores every session of a schedule.
func (r *ScheduleSessionRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.ScheduleSession) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_sessions (id, schedule_id, teaching_load_id, teacher_id, subject_id, class_id, room_id,
day_of_week, period_number, start_time, end_time, duration_minutes, created_at)
VALUES (:id, :schedule_id, :teaching_load_id, :teacher_id, :subject_id, :class_id, :room_id,
:day_of_week, :period_number, :start_time, :end_time, :duration_minutes, :created_at)`

	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, session); err != nil {
			return fmt.Errorf("insert schedule session: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns sessions with display names ordered by day and period.
func (r *ScheduleSessionRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSessionDetail, error) {
	const query = `SELECT ss.id, ss.schedule_id, ss.teaching_load_id, ss.teacher_id, ss.subject_id, ss.class_id, ss.room_id,
ss.day_of_week, ss.period_number, ss.start_time, ss.end_time, ss.duration_minutes, ss.created_at,
COALESCE(t.name, '') AS teacher_name, COALESCE(s.name, '') AS subject_name, COALESCE(c.name, '') AS class_name, r.name AS room_name
FROM schedule_sessions ss
LEFT JOIN teachers t ON t.id = ss.teacher_id
LEFT JOIN subjects s ON s.id = ss.subject_id
LEFT JOIN classes c ON c.id = ss.class_id
LEFT JOIN rooms r ON r.id = ss.room_id
WHERE ss.schedule_id = $1
ORDER BY ss.day_of_week ASC, ss.period_number ASC, c.name ASC, ss.id ASC`
	var sessions []models.ScheduleSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule sessions: %w", err)
	}
	return sessions, nil
}
