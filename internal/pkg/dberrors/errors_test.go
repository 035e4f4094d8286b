package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintChecks(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "classrooms_name_key"})
	fk := &pgconn.PgError{Code: CodeForeignKeyViolation, ConstraintName: "schedule_assignments_section_id_fkey"}
	plain := errors.New("connection reset")

	assert.True(t, IsDuplicateConstraintError(dup, "classrooms_name_key"))
	assert.False(t, IsDuplicateConstraintError(dup, "other_key"))
	assert.False(t, IsDuplicateConstraintError(fk, "schedule_assignments_section_id_fkey"))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(dup))
	assert.False(t, IsForeignKeyViolation(plain))

	assert.Equal(t, "schedule_assignments_section_id_fkey", ConstraintName(fk))
	assert.Empty(t, ConstraintName(plain))
}
