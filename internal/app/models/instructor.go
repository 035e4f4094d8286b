package models

// Instructor defines the instructor model based on the 'instructors' table
type Instructor struct {
	ID    int64  `json:"id" db:"id" example:"1"`
	Name  string `json:"name" db:"name" example:"Ada Lovelace"`
	Title string `json:"title" db:"title" example:"Associate Professor"`
}

// InstructorUnavailability is a weekly window in which an instructor cannot teach during a term.
type InstructorUnavailability struct {
	ID              int64  `json:"id" db:"id"`
	InstructorID    int64  `json:"instructorId" db:"instructor_id"`
	Term            Term   `json:"term" db:"term"`
	Year            int    `json:"year" db:"year"`
	Day             int16  `json:"day" db:"day"`                  // 0 = Monday
	StartMinute     int    `json:"startMinute" db:"start_minute"` // minutes after midnight
	DurationMinutes int    `json:"durationMinutes" db:"duration_minutes"`
	Reason          string `json:"reason,omitempty" db:"reason"`
}
