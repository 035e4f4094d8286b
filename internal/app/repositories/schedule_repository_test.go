package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
)

var fall2026 = models.TermRef{Term: models.TermFall, Year: 2026}

func newMockScheduleRepository(t *testing.T) (*ScheduleRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewScheduleRepository(mock), mock
}

func sampleAssignments() []*models.ScheduleAssignment {
	instructor := int64(501)
	return []*models.ScheduleAssignment{
		{SectionID: 1, CourseCode: "CS101", SectionLabel: "CS101-01", ClassroomID: 3, InstructorID: &instructor,
			Days: []int16{0, 2}, StartMinute: 540, DurationMinutes: 90, TimeSlot: "MON/WED 09:00-10:30"},
		{SectionID: 2, CourseCode: "CS102", SectionLabel: "CS102-01", ClassroomID: 4,
			Days: []int16{1}, StartMinute: 600, DurationMinutes: 60, TimeSlot: "TUE 10:00-11:00"},
	}
}

func expectTermLockAndDelete(mock pgxmock.PgxPoolIface, removed int64) {
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(fall2026.LockKey()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("DELETE FROM schedule_assignments").
		WithArgs("FALL", 2026).
		WillReturnResult(pgxmock.NewResult("DELETE", removed))
}

func TestReplaceTerm_Commits(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	expectTermLockAndDelete(mock, 5)
	mock.ExpectCopyFrom(pgx.Identifier{"schedule_assignments"}, assignmentColumns).WillReturnResult(2)
	mock.ExpectQuery("INSERT INTO schedule_terms").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(4)))
	mock.ExpectCommit()

	version, err := repo.ReplaceTerm(context.Background(), fall2026, uuid.New(), sampleAssignments())

	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTerm_CopyFailureRollsBack(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	expectTermLockAndDelete(mock, 5)
	mock.ExpectCopyFrom(pgx.Identifier{"schedule_assignments"}, assignmentColumns).
		WillReturnError(errors.New("connection reset"))
	// No version bump and no commit: the delete above is undone with the rest.
	mock.ExpectRollback()

	_, err := repo.ReplaceTerm(context.Background(), fall2026, uuid.New(), sampleAssignments())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error copying schedule assignments")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTerm_DeletedSectionIsStaleSnapshot(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	expectTermLockAndDelete(mock, 0)
	mock.ExpectCopyFrom(pgx.Identifier{"schedule_assignments"}, assignmentColumns).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "schedule_assignments_section_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.ReplaceTerm(context.Background(), fall2026, uuid.New(), sampleAssignments())

	assert.ErrorIs(t, err, ErrStaleSnapshot)
	assert.Contains(t, err.Error(), "schedule_assignments_section_id_fkey")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTerm_ShortCopyRollsBack(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	expectTermLockAndDelete(mock, 1)
	mock.ExpectCopyFrom(pgx.Identifier{"schedule_assignments"}, assignmentColumns).WillReturnResult(1)
	mock.ExpectRollback()

	_, err := repo.ReplaceTerm(context.Background(), fall2026, uuid.New(), sampleAssignments())

	assert.EqualError(t, err, "copied 1 of 2 schedule assignments")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTerm_LockFailureRollsBack(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(fall2026.LockKey()).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err := repo.ReplaceTerm(context.Background(), fall2026, uuid.New(), sampleAssignments())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearTerm_BumpsVersion(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	expectTermLockAndDelete(mock, 4)
	mock.ExpectQuery("INSERT INTO schedule_terms").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(7)))
	mock.ExpectCommit()

	removed, version, err := repo.ClearTerm(context.Background(), fall2026)

	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.Equal(t, int64(7), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTerm_NotFound(t *testing.T) {
	repo, mock := newMockScheduleRepository(t)
	mock.ExpectQuery("FROM schedule_terms").
		WithArgs("FALL", 2026).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetTerm(context.Background(), fall2026)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
