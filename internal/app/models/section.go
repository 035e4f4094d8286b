package models

// Section is one offering of a course for a term, waiting for a classroom and weekly meeting times.
type Section struct {
	ID                int64  `json:"id" db:"id"`
	CourseID          int64  `json:"courseId" db:"course_id"`
	Label             string `json:"label" db:"label" example:"CS101-01"`
	Term              Term   `json:"term" db:"term"`
	Year              int    `json:"year" db:"year"`
	MeetingsPerWeek   int    `json:"meetingsPerWeek" db:"meetings_per_week"`
	DurationMinutes   int    `json:"durationMinutes" db:"duration_minutes"`
	ExpectedHeadcount int    `json:"expectedHeadcount" db:"expected_headcount"`
	RequiresLab       bool   `json:"requiresLab" db:"requires_lab"`
	InstructorID      *int64 `json:"instructorId,omitempty" db:"instructor_id"` // Nullable

	// Relations (populated when needed)
	Course *Course `json:"course,omitempty"`
}
