package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RoomRepository lists the rooms an institution can assign.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListByInstitution returns rooms ordered by name.
func (r *RoomRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.Room, error) {
	const query = `SELECT id, institution_id, name, capacity FROM rooms WHERE institution_id = $1 ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, institutionID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
