package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/pkg/dberrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

// Classroom error types
var (
	// ErrClassroomAlreadyExists is returned when a classroom with the same name exists.
	ErrClassroomAlreadyExists = errors.New("classroom with this name already exists")
)

const classroomNameConstraint = "classrooms_name_key"

// ClassroomRepository handles classroom and booking database operations
type ClassroomRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewClassroomRepository creates a new ClassroomRepository
func NewClassroomRepository(db *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a classroom and sets its ID
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	sql, args, err := r.sb.Insert("classrooms").
		Columns("name", "building", "capacity", "is_lab").
		Values(classroom.Name, classroom.Building, classroom.Capacity, classroom.IsLab).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create classroom query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&classroom.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, classroomNameConstraint) {
			return ErrClassroomAlreadyExists
		}
		logger.Error().Err(err).Str("name", classroom.Name).Msg("Error creating classroom")
		return fmt.Errorf("error creating classroom: %w", err)
	}
	return nil
}

// ListAll retrieves every classroom ordered by id
func (r *ClassroomRepository) ListAll(ctx context.Context) ([]*models.Classroom, error) {
	sql, args, err := r.sb.Select("id", "name", "building", "capacity", "is_lab").
		From("classrooms").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list classrooms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying classrooms")
		return nil, fmt.Errorf("error querying classrooms: %w", err)
	}
	defer rows.Close()

	classrooms := []*models.Classroom{}
	for rows.Next() {
		c := &models.Classroom{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Building, &c.Capacity, &c.IsLab); err != nil {
			return nil, fmt.Errorf("error scanning classroom row: %w", err)
		}
		classrooms = append(classrooms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classroom rows: %w", err)
	}
	return classrooms, nil
}

// ListBookings retrieves the external classroom reservations of a term
func (r *ClassroomRepository) ListBookings(ctx context.Context, term models.Term, year int) ([]*models.ClassroomBooking, error) {
	sql, args, err := r.sb.Select("id", "classroom_id", "term", "year", "day", "start_minute", "duration_minutes", "purpose").
		From("classroom_bookings").
		Where(squirrel.Eq{"term": string(term), "year": year}).
		OrderBy("classroom_id ASC", "day ASC", "start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list bookings query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying classroom bookings")
		return nil, fmt.Errorf("error querying classroom bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.ClassroomBooking{}
	for rows.Next() {
		b := &models.ClassroomBooking{}
		var termValue string
		if err := rows.Scan(&b.ID, &b.ClassroomID, &termValue, &b.Year, &b.Day, &b.StartMinute, &b.DurationMinutes, &b.Purpose); err != nil {
			return nil, fmt.Errorf("error scanning classroom booking row: %w", err)
		}
		b.Term = models.Term(termValue)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classroom booking rows: %w", err)
	}
	return bookings, nil
}

// Count counts classrooms
func (r *ClassroomRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM classrooms").Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting classrooms: %w", err)
	}
	return total, nil
}
