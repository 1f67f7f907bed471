package models

import "time"

// Institution is a school owning settings, loads and schedules.
type Institution struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InstitutionRef is the lightweight institution payload passed to the generator.
type InstitutionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// AcademicYear describes a school year.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

// Room is a physical room available for lessons.
type Room struct {
	ID            string `db:"id" json:"id"`
	InstitutionID string `db:"institution_id" json:"institution_id"`
	Name          string `db:"name" json:"name"`
	Capacity      int    `db:"capacity" json:"capacity"`
}
