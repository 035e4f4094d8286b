package dto

import (
	"github.com/google/uuid"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/scheduler"
)

// GenerateScheduleRequest triggers one scheduling run for a term
type GenerateScheduleRequest struct {
	Semester    string `json:"semester" validate:"required,semester" example:"FALL"`
	Year        int    `json:"year" validate:"required,gte=2000,lte=2100" example:"2025"`
	PreviewOnly bool   `json:"preview_only" example:"true"`
}

// ClearScheduleRequest removes the schedule of record of a term
type ClearScheduleRequest struct {
	Semester string `json:"semester" validate:"required,semester" example:"FALL"`
	Year     int    `json:"year" validate:"required,gte=2000,lte=2100" example:"2025"`
}

// RunStatistics are collected for every run
type RunStatistics struct {
	ScheduledSections   int   `json:"scheduled_sections" example:"42"`
	UnscheduledSections int   `json:"unscheduled_sections" example:"3"`
	BacktrackCount      int   `json:"backtrack_count" example:"7"`
	DurationMs          int64 `json:"duration_ms" example:"183"`
}

// MeetingResponse is one weekly meeting of an assignment
type MeetingResponse struct {
	Day   string `json:"day" example:"MON"`
	Start string `json:"start" example:"09:00"`
	End   string `json:"end" example:"10:30"`
}

// AssignmentResponse places one section
type AssignmentResponse struct {
	SectionID    int64             `json:"section_id" example:"12"`
	CourseCode   string            `json:"course_code" example:"CS101"`
	SectionLabel string            `json:"section_label,omitempty" example:"CS101-01"`
	ClassroomID  int64             `json:"classroom_id" example:"3"`
	InstructorID *int64            `json:"instructor_id,omitempty" example:"8"`
	TimeSlot     string            `json:"time_slot" example:"MON/WED 09:00-10:30"`
	Meetings     []MeetingResponse `json:"meetings"`
}

// UnassignedResponse explains why a section was left out
type UnassignedResponse struct {
	SectionID int64  `json:"section_id" example:"19"`
	Section   string `json:"section" example:"PHYS201-02"`
	Reason    string `json:"reason" example:"classroom_conflict"`
	Detail    string `json:"detail,omitempty"`
}

// RunResult is the outcome of a generation request
type RunResult struct {
	Success     bool                 `json:"success" example:"true"`
	RunID       uuid.UUID            `json:"run_id"`
	Semester    models.Term          `json:"semester" example:"FALL"`
	Year        int                  `json:"year" example:"2025"`
	PreviewOnly bool                 `json:"preview_only"`
	State       string               `json:"state" example:"partially_succeeded"`
	Version     int64                `json:"version,omitempty" example:"4"`
	Statistics  RunStatistics        `json:"statistics"`
	Assignments []AssignmentResponse `json:"assignments"`
	Unassigned  []UnassignedResponse `json:"unassigned"`
}

// ClearScheduleResponse reports a clear operation
type ClearScheduleResponse struct {
	Semester models.Term `json:"semester" example:"FALL"`
	Year     int         `json:"year" example:"2025"`
	Removed  int64       `json:"removed" example:"10"`
	Version  int64       `json:"version" example:"5"`
}

// ScheduleInfoResponse feeds the dashboard cards
type ScheduleInfoResponse struct {
	TotalSections        int64  `json:"totalSections" example:"120"`
	TotalClassrooms      int64  `json:"totalClassrooms" example:"14"`
	TotalInstructors     int64  `json:"totalInstructors" example:"37"`
	TimeSlots            int    `json:"timeSlots" example:"130"`
	ScheduledAssignments *int64 `json:"scheduledAssignments,omitempty" example:"97"`
	ScheduleVersion      *int64 `json:"scheduleVersion,omitempty" example:"3"`
}

// NewMeetingResponses renders engine slots
func NewMeetingResponses(slots []scheduler.TimeSlot) []MeetingResponse {
	out := make([]MeetingResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, MeetingResponse{
			Day:   s.Day.String(),
			Start: scheduler.FormatClock(s.Start),
			End:   scheduler.FormatClock(s.End()),
		})
	}
	return out
}

// NewRunResult converts an engine result. Assignments and unassigned sections are ordered by section id.
func NewRunResult(r *scheduler.Result) RunResult {
	out := RunResult{
		Success: r.Success(),
		State:   r.State.String(),
		Statistics: RunStatistics{
			ScheduledSections:   r.Statistics.ScheduledCount,
			UnscheduledSections: r.Statistics.UnscheduledCount,
			BacktrackCount:      r.Statistics.BacktrackCount,
			DurationMs:          r.Statistics.Duration.Milliseconds(),
		},
		Assignments: make([]AssignmentResponse, 0, len(r.Assignments)),
		Unassigned:  make([]UnassignedResponse, 0, len(r.Unassigned)),
	}
	for _, a := range r.SortedAssignments() {
		out.Assignments = append(out.Assignments, AssignmentResponse{
			SectionID:    a.SectionID,
			CourseCode:   a.CourseCode,
			SectionLabel: a.SectionLabel,
			ClassroomID:  a.ClassroomID,
			InstructorID: a.InstructorID,
			TimeSlot:     a.TimeSlotLabel(),
			Meetings:     NewMeetingResponses(a.Meetings),
		})
	}
	for _, u := range r.Unassigned {
		out.Unassigned = append(out.Unassigned, UnassignedResponse{
			SectionID: u.SectionID,
			Section:   u.Section,
			Reason:    string(u.Reason),
			Detail:    u.Detail,
		})
	}
	return out
}

// ScheduledSectionResponse is one row of a persisted term schedule
type ScheduledSectionResponse struct {
	SectionID    int64             `json:"sectionId" example:"12"`
	CourseCode   string            `json:"courseCode" example:"CS101"`
	SectionLabel string            `json:"sectionLabel" example:"CS101-01"`
	ClassroomID  int64             `json:"classroomId" example:"3"`
	InstructorID *int64            `json:"instructorId,omitempty" example:"8"`
	TimeSlot     string            `json:"timeSlot" example:"MON/WED 09:00-10:30"`
	Meetings     []MeetingResponse `json:"meetings"`
	RunID        uuid.UUID         `json:"runId"`
}

// NewScheduledSectionResponse converts a stored assignment
func NewScheduledSectionResponse(a *models.ScheduleAssignment) ScheduledSectionResponse {
	slots := make([]scheduler.TimeSlot, 0, len(a.Days))
	for _, d := range a.Days {
		slots = append(slots, scheduler.TimeSlot{Day: scheduler.Weekday(d), Start: a.StartMinute, Duration: a.DurationMinutes})
	}
	return ScheduledSectionResponse{
		SectionID:    a.SectionID,
		CourseCode:   a.CourseCode,
		SectionLabel: a.SectionLabel,
		ClassroomID:  a.ClassroomID,
		InstructorID: a.InstructorID,
		TimeSlot:     a.TimeSlot,
		Meetings:     NewMeetingResponses(slots),
		RunID:        a.RunID,
	}
}
