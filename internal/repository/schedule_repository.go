package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const scheduleColumns = `id, institution_id, academic_year_id, name, status, generation_method, working_days,
total_periods_per_day, preferences, metadata, sessions_count, critical_conflicts, created_by, published_at, created_at, updated_at`

// ScheduleRepository provides persistence for generated schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	if schedule.GenerationMethod == "" {
		schedule.GenerationMethod = models.GenerationMethodAutomated
	}
	if len(schedule.WorkingDays) == 0 {
		schedule.WorkingDays = types.JSONText(`[]`)
	}
	if len(schedule.Preferences) == 0 {
		schedule.Preferences = types.JSONText(`{}`)
	}
	if len(schedule.Metadata) == 0 {
		schedule.Metadata = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, institution_id, academic_year_id, name, status, generation_method, working_days,
total_periods_per_day, preferences, metadata, sessions_count, critical_conflicts, created_by, published_at, created_at, updated_at)
VALUES (:id, :institution_id, :academic_year_id, :name, :status, :generation_method, :working_days,
:total_periods_per_day, :preferences, :metadata, :sessions_count, :critical_conflicts, :created_by, :published_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns schedules with optional filtering and pagination, newest first.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// UpdateStatus moves a schedule to a new lifecycle status.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, publishedAt *time.Time) error {
	const query = `UPDATE schedules SET status = $1, published_at = COALESCE($2, published_at), updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, publishedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a schedule; sessions and conflicts cascade.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
