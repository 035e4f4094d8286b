package models

// Classroom is a bookable room owned by facilities management.
type Classroom struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name" example:"ENG-101"`
	Building string `json:"building" db:"building"`
	Capacity int    `json:"capacity" db:"capacity"`
	IsLab    bool   `json:"isLab" db:"is_lab"`
}

// ClassroomBooking is a fixed external reservation of a classroom for every week of a term.
type ClassroomBooking struct {
	ID              int64  `json:"id" db:"id"`
	ClassroomID     int64  `json:"classroomId" db:"classroom_id"`
	Term            Term   `json:"term" db:"term"`
	Year            int    `json:"year" db:"year"`
	Day             int16  `json:"day" db:"day"`
	StartMinute     int    `json:"startMinute" db:"start_minute"`
	DurationMinutes int    `json:"durationMinutes" db:"duration_minutes"`
	Purpose         string `json:"purpose,omitempty" db:"purpose"`
}
