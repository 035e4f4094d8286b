package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/db"
	"github.com/yigit/unisphere-scheduler/internal/pkg/dberrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

var assignmentColumns = []string{
	"term", "year", "section_id", "course_code", "section_label",
	"classroom_id", "instructor_id", "days", "start_minute", "duration_minutes",
	"time_slot", "run_id",
}

// ScheduleRepository owns the schedule of record. Writes replace a whole term atomically.
type ScheduleRepository struct {
	db db.Conn
	sb squirrel.StatementBuilderType
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(conn db.Conn) *ScheduleRepository {
	return &ScheduleRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ReplaceTerm deletes the term's assignments and inserts the new ones in one transaction.
// It returns the new schedule version.
func (r *ScheduleRepository) ReplaceTerm(ctx context.Context, ref models.TermRef, runID uuid.UUID, assignments []*models.ScheduleAssignment) (int64, error) {
	var version int64
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockTerm(ctx, tx, ref); err != nil {
			return err
		}
		if _, err := r.deleteTerm(ctx, tx, ref); err != nil {
			return err
		}

		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"schedule_assignments"},
			assignmentColumns,
			pgx.CopyFromSlice(len(assignments), func(i int) ([]any, error) {
				a := assignments[i]
				return []any{
					string(ref.Term), ref.Year, a.SectionID, a.CourseCode, a.SectionLabel,
					a.ClassroomID, a.InstructorID, a.Days, a.StartMinute, a.DurationMinutes,
					a.TimeSlot, pgtype.UUID{Bytes: runID, Valid: true},
				}, nil
			}),
		)
		if err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", ErrStaleSnapshot, dberrors.ConstraintName(err))
			}
			return fmt.Errorf("error copying schedule assignments: %w", err)
		}
		if copied != int64(len(assignments)) {
			return fmt.Errorf("copied %d of %d schedule assignments", copied, len(assignments))
		}

		version, err = r.bumpVersion(ctx, tx, ref, pgtype.UUID{Bytes: runID, Valid: true}, len(assignments))
		return err
	})
	if err != nil {
		logger.Error().Err(err).Str("term", ref.String()).Str("runID", runID.String()).Msg("Error replacing term schedule")
		return 0, err
	}
	return version, nil
}

// ClearTerm removes every assignment of the term. Clearing an empty term succeeds.
func (r *ScheduleRepository) ClearTerm(ctx context.Context, ref models.TermRef) (removed int64, version int64, err error) {
	err = db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockTerm(ctx, tx, ref); err != nil {
			return err
		}
		n, err := r.deleteTerm(ctx, tx, ref)
		if err != nil {
			return err
		}
		removed = n
		version, err = r.bumpVersion(ctx, tx, ref, pgtype.UUID{}, 0)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Str("term", ref.String()).Msg("Error clearing term schedule")
		return 0, 0, err
	}
	return removed, version, nil
}

// lockTerm serializes writers of the same term across database sessions
func lockTerm(ctx context.Context, tx pgx.Tx, ref models.TermRef) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", ref.LockKey()); err != nil {
		return fmt.Errorf("error locking term %s: %w", ref, err)
	}
	return nil
}

func (r *ScheduleRepository) deleteTerm(ctx context.Context, tx pgx.Tx, ref models.TermRef) (int64, error) {
	sql, args, err := r.sb.Delete("schedule_assignments").
		Where(squirrel.Eq{"term": string(ref.Term), "year": ref.Year}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete assignments query: %w", err)
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting schedule assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ScheduleRepository) bumpVersion(ctx context.Context, tx pgx.Tx, ref models.TermRef, runID pgtype.UUID, count int) (int64, error) {
	sql, args, err := r.sb.Insert("schedule_terms").
		Columns("term", "year", "version", "run_id", "assignment_count", "updated_at").
		Values(string(ref.Term), ref.Year, 1, runID, count, squirrel.Expr("NOW()")).
		Suffix(`ON CONFLICT (term, year) DO UPDATE SET
			version = schedule_terms.version + 1,
			run_id = EXCLUDED.run_id,
			assignment_count = EXCLUDED.assignment_count,
			updated_at = NOW()
		RETURNING version`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build schedule version query: %w", err)
	}

	var version int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("error updating schedule version: %w", err)
	}
	return version, nil
}

// GetTerm retrieves the version row of a term. Terms never committed or cleared return ErrNotFound.
func (r *ScheduleRepository) GetTerm(ctx context.Context, ref models.TermRef) (*models.ScheduleTerm, error) {
	sql, args, err := r.sb.Select("term", "year", "version", "run_id", "assignment_count", "updated_at").
		From("schedule_terms").
		Where(squirrel.Eq{"term": string(ref.Term), "year": ref.Year}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get schedule term query: %w", err)
	}

	st := &models.ScheduleTerm{}
	var termValue string
	var runID pgtype.UUID
	err = r.db.QueryRow(ctx, sql, args...).Scan(&termValue, &st.Year, &st.Version, &runID, &st.AssignmentCount, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting schedule term: %w", err)
	}
	st.Term = models.Term(termValue)
	if runID.Valid {
		id := uuid.UUID(runID.Bytes)
		st.RunID = &id
	}
	return st, nil
}

// CountByTerm counts the persisted assignments of a term
func (r *ScheduleRepository) CountByTerm(ctx context.Context, ref models.TermRef) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("schedule_assignments").
		Where(squirrel.Eq{"term": string(ref.Term), "year": ref.Year}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count assignments query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting schedule assignments: %w", err)
	}
	return total, nil
}

// ListByTerm retrieves one page of the term's assignments ordered by section id, plus the total count
func (r *ScheduleRepository) ListByTerm(ctx context.Context, ref models.TermRef, offset uint64, limit int) ([]*models.ScheduleAssignment, int64, error) {
	total, err := r.CountByTerm(ctx, ref)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.ScheduleAssignment{}, 0, nil
	}

	sql, args, err := r.sb.Select(
		"id", "term", "year", "section_id", "course_code", "section_label",
		"classroom_id", "instructor_id", "days", "start_minute", "duration_minutes",
		"time_slot", "run_id", "created_at",
	).
		From("schedule_assignments").
		Where(squirrel.Eq{"term": string(ref.Term), "year": ref.Year}).
		OrderBy("section_id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list assignments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("term", ref.String()).Msg("Error querying schedule assignments")
		return nil, 0, fmt.Errorf("error querying schedule assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*models.ScheduleAssignment{}
	for rows.Next() {
		a := &models.ScheduleAssignment{}
		var termValue string
		var runID pgtype.UUID
		if err := rows.Scan(
			&a.ID, &termValue, &a.Year, &a.SectionID, &a.CourseCode, &a.SectionLabel,
			&a.ClassroomID, &a.InstructorID, &a.Days, &a.StartMinute, &a.DurationMinutes,
			&a.TimeSlot, &runID, &a.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("error scanning schedule assignment row: %w", err)
		}
		a.Term = models.Term(termValue)
		a.RunID = uuid.UUID(runID.Bytes)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating schedule assignment rows: %w", err)
	}
	return assignments, total, nil
}
