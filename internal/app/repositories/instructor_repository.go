package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

// InstructorRepository handles instructor database operations
type InstructorRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewInstructorRepository creates a new InstructorRepository
func NewInstructorRepository(db *pgxpool.Pool) *InstructorRepository {
	return &InstructorRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListAll retrieves every instructor ordered by id
func (r *InstructorRepository) ListAll(ctx context.Context) ([]*models.Instructor, error) {
	sql, args, err := r.sb.Select("id", "name", "title").
		From("instructors").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list instructors query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying instructors")
		return nil, fmt.Errorf("error querying instructors: %w", err)
	}
	defer rows.Close()

	instructors := []*models.Instructor{}
	for rows.Next() {
		in := &models.Instructor{}
		if err := rows.Scan(&in.ID, &in.Name, &in.Title); err != nil {
			return nil, fmt.Errorf("error scanning instructor row: %w", err)
		}
		instructors = append(instructors, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instructor rows: %w", err)
	}
	return instructors, nil
}

// ListUnavailability retrieves the weekly windows instructors cannot teach in a term
func (r *InstructorRepository) ListUnavailability(ctx context.Context, term models.Term, year int) ([]*models.InstructorUnavailability, error) {
	sql, args, err := r.sb.Select("id", "instructor_id", "term", "year", "day", "start_minute", "duration_minutes", "reason").
		From("instructor_unavailability").
		Where(squirrel.Eq{"term": string(term), "year": year}).
		OrderBy("instructor_id ASC", "day ASC", "start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list unavailability query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying instructor unavailability")
		return nil, fmt.Errorf("error querying instructor unavailability: %w", err)
	}
	defer rows.Close()

	windows := []*models.InstructorUnavailability{}
	for rows.Next() {
		w := &models.InstructorUnavailability{}
		var termValue string
		if err := rows.Scan(&w.ID, &w.InstructorID, &termValue, &w.Year, &w.Day, &w.StartMinute, &w.DurationMinutes, &w.Reason); err != nil {
			return nil, fmt.Errorf("error scanning unavailability row: %w", err)
		}
		w.Term = models.Term(termValue)
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailability rows: %w", err)
	}
	return windows, nil
}

// Count counts instructors
func (r *InstructorRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM instructors").Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting instructors: %w", err)
	}
	return total, nil
}
