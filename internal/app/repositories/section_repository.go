package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

// SectionRepository reads course sections
type SectionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSectionRepository creates a new SectionRepository
func NewSectionRepository(db *pgxpool.Pool) *SectionRepository {
	return &SectionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListByTerm retrieves every section offered in a term together with its course, ordered by id
func (r *SectionRepository) ListByTerm(ctx context.Context, term models.Term, year int) ([]*models.Section, error) {
	sql, args, err := r.sb.Select(
		"s.id", "s.course_id", "s.label", "s.term", "s.year",
		"s.meetings_per_week", "s.duration_minutes", "s.expected_headcount",
		"s.requires_lab", "s.instructor_id",
		"c.code", "c.name", "c.credits",
	).
		From("sections s").
		Join("courses c ON s.course_id = c.id").
		Where(squirrel.Eq{"s.term": string(term), "s.year": year}).
		OrderBy("s.id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list sections SQL")
		return nil, fmt.Errorf("failed to build list sections query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("term", string(term)).Int("year", year).Msg("Error querying sections")
		return nil, fmt.Errorf("error querying sections: %w", err)
	}
	defer rows.Close()

	sections := []*models.Section{}
	for rows.Next() {
		s := &models.Section{Course: &models.Course{}}
		var termValue string
		if err := rows.Scan(
			&s.ID, &s.CourseID, &s.Label, &termValue, &s.Year,
			&s.MeetingsPerWeek, &s.DurationMinutes, &s.ExpectedHeadcount,
			&s.RequiresLab, &s.InstructorID,
			&s.Course.Code, &s.Course.Name, &s.Course.Credits,
		); err != nil {
			return nil, fmt.Errorf("error scanning section row: %w", err)
		}
		s.Term = models.Term(termValue)
		s.Course.ID = s.CourseID
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section rows: %w", err)
	}

	return sections, nil
}

// CountByTerm counts the sections of a term
func (r *SectionRepository) CountByTerm(ctx context.Context, term models.Term, year int) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("sections").
		Where(squirrel.Eq{"term": string(term), "year": year}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count sections query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting sections: %w", err)
	}
	return total, nil
}

// Count counts every section regardless of term
func (r *SectionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sections").Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting sections: %w", err)
	}
	return total, nil
}
