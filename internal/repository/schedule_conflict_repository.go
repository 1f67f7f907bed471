package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type conflictRow struct {
	ID           string         `db:"id"`
	ScheduleID   string         `db:"schedule_id"`
	Type         string         `db:"type"`
	Severity     string         `db:"severity"`
	DayOfWeek    sql.NullInt64  `db:"day_of_week"`
	PeriodNumber sql.NullInt64  `db:"period_number"`
	Message      string         `db:"message"`
	Participants types.JSONText `db:"participants"`
	Details      types.JSONText `db:"details"`
	CreatedAt    time.Time      `db:"created_at"`
}

func newConflictRow(scheduleID string, conflict models.Conflict) (conflictRow, error) {
	row := conflictRow{
		ID:         conflict.ID,
		ScheduleID: scheduleID,
		Type:       string(conflict.Type),
		Severity:   string(conflict.Severity),
		Message:    conflict.Message,
		CreatedAt:  conflict.CreatedAt,
	}
	if conflict.DayOfWeek > 0 {
		row.DayOfWeek = sql.NullInt64{Int64: int64(conflict.DayOfWeek), Valid: true}
	}
	if conflict.PeriodNumber > 0 {
		row.PeriodNumber = sql.NullInt64{Int64: int64(conflict.PeriodNumber), Valid: true}
	}
	var err error
	if row.Participants, err = marshalJSONColumn(conflict.Participants, `[]`); err != nil {
		return row, fmt.Errorf("encode conflict participants: %w", err)
	}
	if row.Details, err = marshalJSONColumn(conflict.Details, `{}`); err != nil {
		return row, fmt.Errorf("encode conflict details: %w", err)
	}
	return row, nil
}

func (row conflictRow) toModel() (models.Conflict, error) {
	conflict := models.Conflict{
		ID:           row.ID,
		ScheduleID:   row.ScheduleID,
		Type:         models.ConflictType(row.Type),
		Severity:     models.ConflictSeverity(row.Severity),
		DayOfWeek:    int(row.DayOfWeek.Int64),
		PeriodNumber: int(row.PeriodNumber.Int64),
		Message:      row.Message,
		CreatedAt:    row.CreatedAt,
	}
	if err := unmarshalJSONColumn(row.Participants, &conflict.Participants); err != nil {
		return conflict, fmt.Errorf("decode conflict participants: %w", err)
	}
	if err := unmarshalJSONColumn(row.Details, &conflict.Details); err != nil {
		return conflict, fmt.Errorf("decode conflict details: %w", err)
	}
	return conflict, nil
}

// ScheduleConflictRepository stores the conflict report of a schedule.
type ScheduleConflictRepository struct {
	db *sqlx.DB
}

// NewScheduleConflictRepository builds the repository.
func NewScheduleConflictRepository(db *sqlx.DB) *ScheduleConflictRepository {
	return &ScheduleConflictRepository{db: db}
}

func (r *ScheduleConflictRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores the conflicts detected for a schedule.
func (r *ScheduleConflictRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, scheduleID string, conflicts []models.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_conflicts (id, schedule_id, type, severity, day_of_week, period_number, message, participants, details, created_at)
VALUES (:id, :schedule_id, :type, :severity, :day_of_week, :period_number, :message, :participants, :details, :created_at)`

	for i := range conflicts {
		if conflicts[i].ID == "" {
			conflicts[i].ID = uuid.NewString()
		}
		if conflicts[i].CreatedAt.IsZero() {
			conflicts[i].CreatedAt = now
		}
		conflicts[i].ScheduleID = scheduleID
		row, err := newConflictRow(scheduleID, conflicts[i])
		if err != nil {
			return err
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("insert schedule conflict: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns the conflicts of a schedule, critical first.
func (r *ScheduleConflictRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error) {
	const query = `SELECT id, schedule_id, type, severity, day_of_week, period_number, message, participants, details, created_at
FROM schedule_conflicts WHERE schedule_id = $1
ORDER BY CASE severity WHEN 'critical' THEN 0 ELSE 1 END, day_of_week NULLS FIRST, period_number NULLS FIRST, id`
	var rows []conflictRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule conflicts: %w", err)
	}
	conflicts := make([]models.Conflict, 0, len(rows))
	for _, row := range rows {
		conflict, err := row.toModel()
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts, nil
}
