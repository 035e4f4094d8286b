package repositories

import "errors"

// Shared repository errors
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleSnapshot means a section or classroom read at the start of a run was deleted before its commit.
	ErrStaleSnapshot = errors.New("scheduling data changed during the run")
)
