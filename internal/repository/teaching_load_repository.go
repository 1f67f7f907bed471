package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// schedulableStatuses are the load states picked up by generation.
var schedulableStatuses = []string{
	string(models.TeachingLoadStatusPending),
	string(models.TeachingLoadStatusReady),
	string(models.TeachingLoadStatusScheduled),
}

type teachingLoadRow struct {
	ID                        string         `db:"id"`
	TeacherID                 string         `db:"teacher_id"`
	TeacherName               string         `db:"teacher_name"`
	TeacherEmail              string         `db:"teacher_email"`
	SubjectID                 string         `db:"subject_id"`
	SubjectName               string         `db:"subject_name"`
	SubjectCode               string         `db:"subject_code"`
	ClassID                   string         `db:"class_id"`
	ClassName                 string         `db:"class_name"`
	InstitutionID             string         `db:"institution_id"`
	AcademicYearID            string         `db:"academic_year_id"`
	WeeklyHours               int            `db:"weekly_hours"`
	PriorityLevel             int            `db:"priority_level"`
	PreferredConsecutiveHours int            `db:"preferred_consecutive_hours"`
	PreferredTimeSlots        types.JSONText `db:"preferred_time_slots"`
	UnavailablePeriods        types.JSONText `db:"unavailable_periods"`
	Status                    string         `db:"schedule_generation_status"`
	LastScheduleID            sql.NullString `db:"last_schedule_id"`
	LastScheduledAt           sql.NullTime   `db:"last_scheduled_at"`
}

func (row teachingLoadRow) toModel() (models.TeachingLoad, error) {
	load := models.TeachingLoad{
		ID:                        row.ID,
		Teacher:                   models.TeacherRef{ID: row.TeacherID, Name: row.TeacherName, Email: row.TeacherEmail},
		Subject:                   models.SubjectRef{ID: row.SubjectID, Name: row.SubjectName, Code: row.SubjectCode},
		Class:                     models.ClassRef{ID: row.ClassID, Name: row.ClassName, InstitutionID: row.InstitutionID, AcademicYearID: row.AcademicYearID},
		WeeklyHours:               row.WeeklyHours,
		PriorityLevel:             row.PriorityLevel,
		PreferredConsecutiveHours: row.PreferredConsecutiveHours,
		Status:                    models.TeachingLoadStatus(row.Status),
	}
	if err := unmarshalJSONColumn(row.PreferredTimeSlots, &load.PreferredTimeSlots); err != nil {
		return load, fmt.Errorf("decode preferred_time_slots for %s: %w", row.ID, err)
	}
	if err := unmarshalJSONColumn(row.UnavailablePeriods, &load.UnavailablePeriods); err != nil {
		return load, fmt.Errorf("decode unavailable_periods for %s: %w", row.ID, err)
	}
	if row.LastScheduleID.Valid {
		id := row.LastScheduleID.String
		load.LastScheduleID = &id
	}
	if row.LastScheduledAt.Valid {
		at := row.LastScheduledAt.Time
		load.LastScheduledAt = &at
	}
	return load, nil
}

// TeachingLoadRepository reads teaching loads and tracks their generation status.
type TeachingLoadRepository struct {
	db *sqlx.DB
}

// NewTeachingLoadRepository constructs the repository.
func NewTeachingLoadRepository(db *sqlx.DB) *TeachingLoadRepository {
	return &TeachingLoadRepository{db: db}
}

func (r *TeachingLoadRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListSchedulable returns the pending, ready and scheduled loads of an institution's
// academic year with teacher, subject and class names.
func (r *TeachingLoadRepository) ListSchedulable(ctx context.Context, institutionID, academicYearID string) ([]models.TeachingLoad, error) {
	const query = `SELECT tl.id, tl.teacher_id, t.name AS teacher_name, t.email AS teacher_email,
tl.subject_id, s.name AS subject_name, s.code AS subject_code,
tl.class_id, c.name AS class_name, c.institution_id, tl.academic_year_id,
tl.weekly_hours, tl.priority_level, tl.preferred_consecutive_hours,
tl.preferred_time_slots, tl.unavailable_periods, tl.schedule_generation_status,
tl.last_schedule_id, tl.last_scheduled_at
FROM teaching_loads tl
JOIN teachers t ON t.id = tl.teacher_id
JOIN subjects s ON s.id = tl.subject_id
JOIN classes c ON c.id = tl.class_id
WHERE c.institution_id = $1 AND tl.academic_year_id = $2 AND tl.schedule_generation_status = ANY($3)
ORDER BY tl.id ASC`
	var rows []teachingLoadRow
	if err := r.db.SelectContext(ctx, &rows, query, institutionID, academicYearID, pq.Array(schedulableStatuses)); err != nil {
		return nil, fmt.Errorf("list teaching loads: %w", err)
	}
	loads := make([]models.TeachingLoad, 0, len(rows))
	for _, row := range rows {
		load, err := row.toModel()
		if err != nil {
			return nil, err
		}
		loads = append(loads, load)
	}
	return loads, nil
}

// MarkReady flags the given loads of an institution as ready for generation.
func (r *TeachingLoadRepository) MarkReady(ctx context.Context, institutionID string, ids []string) (int64, error) {
	const query = `UPDATE teaching_loads SET schedule_generation_status = $1, updated_at = $2
WHERE institution_id = $3 AND id = ANY($4)`
	return r.update(ctx, r.db, "mark teaching loads ready", query,
		models.TeachingLoadStatusReady, time.Now().UTC(), institutionID, pq.Array(ids))
}

// MarkScheduled records the schedule that now covers the given loads.
func (r *TeachingLoadRepository) MarkScheduled(ctx context.Context, exec sqlx.ExtContext, ids []string, scheduleID string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE teaching_loads SET schedule_generation_status = $1, last_schedule_id = $2, last_scheduled_at = $3, updated_at = $3
WHERE id = ANY($4)`
	return r.update(ctx, r.exec(exec), "mark teaching loads scheduled", query,
		models.TeachingLoadStatusScheduled, scheduleID, at.UTC(), pq.Array(ids))
}

// ResetStatus returns the given loads to pending and clears their schedule link.
func (r *TeachingLoadRepository) ResetStatus(ctx context.Context, institutionID string, ids []string) (int64, error) {
	const query = `UPDATE teaching_loads SET schedule_generation_status = $1, last_schedule_id = NULL, last_scheduled_at = NULL, updated_at = $2
WHERE institution_id = $3 AND id = ANY($4)`
	return r.update(ctx, r.db, "reset teaching loads", query,
		models.TeachingLoadStatusPending, time.Now().UTC(), institutionID, pq.Array(ids))
}

// CountByStatus aggregates an institution's loads per generation status.
func (r *TeachingLoadRepository) CountByStatus(ctx context.Context, institutionID string) ([]models.TeachingLoadStatusCount, error) {
	const query = `SELECT schedule_generation_status AS status, COUNT(*) AS count
FROM teaching_loads WHERE institution_id = $1 GROUP BY schedule_generation_status ORDER BY schedule_generation_status`
	var counts []models.TeachingLoadStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, institutionID); err != nil {
		return nil, fmt.Errorf("count teaching loads by status: %w", err)
	}
	return counts, nil
}

func (r *TeachingLoadRepository) update(ctx context.Context, exec sqlx.ExtContext, op, query string, args ...interface{}) (int64, error) {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return affected, nil
}
