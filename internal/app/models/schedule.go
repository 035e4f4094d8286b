package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleAssignment is a persisted placement of one section. All weekly meetings share
// the classroom, start time and duration; only the days differ.
type ScheduleAssignment struct {
	ID              int64     `json:"id" db:"id"`
	Term            Term      `json:"term" db:"term"`
	Year            int       `json:"year" db:"year"`
	SectionID       int64     `json:"sectionId" db:"section_id"`
	CourseCode      string    `json:"courseCode" db:"course_code"`
	SectionLabel    string    `json:"sectionLabel" db:"section_label"`
	ClassroomID     int64     `json:"classroomId" db:"classroom_id"`
	InstructorID    *int64    `json:"instructorId,omitempty" db:"instructor_id"`
	Days            []int16   `json:"days" db:"days"`
	StartMinute     int       `json:"startMinute" db:"start_minute"`
	DurationMinutes int       `json:"durationMinutes" db:"duration_minutes"`
	TimeSlot        string    `json:"timeSlot" db:"time_slot"`
	RunID           uuid.UUID `json:"runId" db:"run_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// ScheduleTerm is the version row of a term's schedule of record. Every commit and clear bumps Version.
type ScheduleTerm struct {
	Term            Term       `json:"term" db:"term"`
	Year            int        `json:"year" db:"year"`
	Version         int64      `json:"version" db:"version"`
	RunID           *uuid.UUID `json:"runId,omitempty" db:"run_id"`
	AssignmentCount int        `json:"assignmentCount" db:"assignment_count"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}
