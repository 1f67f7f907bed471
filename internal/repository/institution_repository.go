package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// InstitutionRepository reads institutions and academic years.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID loads an institution.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, type, created_at, updated_at FROM institutions WHERE id = $1`
	var institution models.Institution
	if err := r.db.GetContext(ctx, &institution, query, id); err != nil {
		return nil, err
	}
	return &institution, nil
}

// FindAcademicYear loads an academic year by id.
func (r *InstitutionRepository) FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, name, start_date, end_date, is_active FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// ActiveAcademicYear returns the most recent active academic year.
func (r *InstitutionRepository) ActiveAcademicYear(ctx context.Context) (*models.AcademicYear, error) {
	const query = `SELECT id, name, start_date, end_date, is_active FROM academic_years WHERE is_active = TRUE ORDER BY start_date DESC LIMIT 1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}
