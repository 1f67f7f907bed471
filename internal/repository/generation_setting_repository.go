package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type generationSettingRow struct {
	ID               string         `db:"id"`
	InstitutionID    string         `db:"institution_id"`
	WorkingDays      types.JSONText `db:"working_days"`
	DailyPeriods     int            `db:"daily_periods"`
	PeriodDuration   int            `db:"period_duration"`
	BreakPeriods     types.JSONText `db:"break_periods"`
	LunchBreakPeriod sql.NullInt64  `db:"lunch_break_period"`
	FirstPeriodStart string         `db:"first_period_start"`
	BreakDuration    int            `db:"break_duration"`
	LunchDuration    int            `db:"lunch_duration"`
	IsActive         bool           `db:"is_active"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (row generationSettingRow) toModel() (*models.GenerationSettings, error) {
	settings := &models.GenerationSettings{
		ID:               row.ID,
		InstitutionID:    row.InstitutionID,
		DailyPeriods:     row.DailyPeriods,
		PeriodDuration:   row.PeriodDuration,
		FirstPeriodStart: row.FirstPeriodStart,
		BreakDuration:    row.BreakDuration,
		LunchDuration:    row.LunchDuration,
		IsActive:         row.IsActive,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := unmarshalJSONColumn(row.WorkingDays, &settings.WorkingDays); err != nil {
		return nil, fmt.Errorf("decode working_days: %w", err)
	}
	if err := unmarshalJSONColumn(row.BreakPeriods, &settings.BreakPeriods); err != nil {
		return nil, fmt.Errorf("decode break_periods: %w", err)
	}
	if row.LunchBreakPeriod.Valid {
		lunch := int(row.LunchBreakPeriod.Int64)
		settings.LunchBreakPeriod = &lunch
	}
	return settings, nil
}

// GenerationSettingRepository reads institution timetable templates.
type GenerationSettingRepository struct {
	db *sqlx.DB
}

// NewGenerationSettingRepository constructs the repository.
func NewGenerationSettingRepository(db *sqlx.DB) *GenerationSettingRepository {
	return &GenerationSettingRepository{db: db}
}

// FindActive returns the newest active settings of an institution.
func (r *GenerationSettingRepository) FindActive(ctx context.Context, institutionID string) (*models.GenerationSettings, error) {
	const query = `SELECT id, institution_id, working_days, daily_periods, period_duration, break_periods, lunch_break_period,
first_period_start, break_duration, lunch_duration, is_active, created_at, updated_at
FROM generation_settings WHERE institution_id = $1 AND is_active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var row generationSettingRow
	if err := r.db.GetContext(ctx, &row, query, institutionID); err != nil {
		return nil, err
	}
	return row.toModel()
}

func unmarshalJSONColumn(raw types.JSONText, dest interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func marshalJSONColumn(value interface{}, fallback string) (types.JSONText, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if string(payload) == "null" {
		return types.JSONText(fallback), nil
	}
	return types.JSONText(payload), nil
}
