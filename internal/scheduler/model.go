package scheduler

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrInvalidProblem marks malformed engine input. It is reported before any search starts.
	ErrInvalidProblem = errors.New("invalid scheduling problem")
	// ErrCanceled is returned when the caller cancels a run. No partial result is produced.
	ErrCanceled = errors.New("scheduling run canceled")
)

// Section is one offering of a course that needs a classroom and weekly meeting times.
type Section struct {
	ID                int64
	CourseID          int64
	CourseCode        string
	Label             string
	MeetingsPerWeek   int
	DurationMinutes   int
	ExpectedHeadcount int
	RequiresLab       bool
	InstructorID      *int64
}

// Name is the label shown to users for an unassigned section.
func (s Section) Name() string {
	if s.Label != "" {
		return s.Label
	}
	if s.CourseCode != "" {
		return fmt.Sprintf("%s (section %d)", s.CourseCode, s.ID)
	}
	return fmt.Sprintf("section %d", s.ID)
}

// Classroom is a bookable room. Bookings are fixed external reservations for the term.
type Classroom struct {
	ID       int64
	Name     string
	Capacity int
	IsLab    bool
	Bookings []TimeSlot
}

// Instructor teaches SectionIDs and cannot teach during Unavailable windows.
type Instructor struct {
	ID          int64
	Name        string
	SectionIDs  []int64
	Unavailable []TimeSlot
}

// Problem is the immutable snapshot a single run works on.
type Problem struct {
	Grid        Grid
	Sections    []Section
	Classrooms  []Classroom
	Instructors []Instructor
}

// Validate rejects snapshots the engine cannot reason about.
func (p Problem) Validate() error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}

	sections := make(map[int64]bool, len(p.Sections))
	for _, s := range p.Sections {
		if sections[s.ID] {
			return fmt.Errorf("%w: duplicate section id %d", ErrInvalidProblem, s.ID)
		}
		sections[s.ID] = true
		if s.MeetingsPerWeek <= 0 {
			return fmt.Errorf("%w: section %d needs at least one meeting per week", ErrInvalidProblem, s.ID)
		}
		if s.DurationMinutes <= 0 {
			return fmt.Errorf("%w: section %d has no meeting duration", ErrInvalidProblem, s.ID)
		}
		if s.ExpectedHeadcount < 0 {
			return fmt.Errorf("%w: section %d has a negative headcount", ErrInvalidProblem, s.ID)
		}
	}

	rooms := make(map[int64]bool, len(p.Classrooms))
	for _, c := range p.Classrooms {
		if rooms[c.ID] {
			return fmt.Errorf("%w: duplicate classroom id %d", ErrInvalidProblem, c.ID)
		}
		rooms[c.ID] = true
		if c.Capacity < 0 {
			return fmt.Errorf("%w: classroom %d has a negative capacity", ErrInvalidProblem, c.ID)
		}
	}

	instructors := make(map[int64]bool, len(p.Instructors))
	owner := make(map[int64]int64)
	for _, in := range p.Instructors {
		if instructors[in.ID] {
			return fmt.Errorf("%w: duplicate instructor id %d", ErrInvalidProblem, in.ID)
		}
		instructors[in.ID] = true
		for _, sid := range in.SectionIDs {
			if prev, ok := owner[sid]; ok && prev != in.ID {
				return fmt.Errorf("%w: section %d is claimed by instructors %d and %d", ErrInvalidProblem, sid, prev, in.ID)
			}
			owner[sid] = in.ID
		}
	}
	for _, s := range p.Sections {
		if s.InstructorID == nil {
			continue
		}
		if prev, ok := owner[s.ID]; ok && prev != *s.InstructorID {
			return fmt.Errorf("%w: section %d is assigned to instructor %d but listed under %d", ErrInvalidProblem, s.ID, *s.InstructorID, prev)
		}
	}
	return nil
}

// instructorIndex resolves the teaching instructor of every section. Sections without one are absent.
func (p Problem) instructorIndex() map[int64]int64 {
	out := make(map[int64]int64, len(p.Sections))
	for _, in := range p.Instructors {
		for _, sid := range in.SectionIDs {
			out[sid] = in.ID
		}
	}
	for _, s := range p.Sections {
		if s.InstructorID != nil {
			out[s.ID] = *s.InstructorID
		}
	}
	return out
}

// Assignment places one section: every weekly meeting in the same classroom.
type Assignment struct {
	SectionID    int64
	CourseCode   string
	SectionLabel string
	ClassroomID  int64
	InstructorID *int64
	Meetings     []TimeSlot
}

// TimeSlotLabel renders the meeting pattern, e.g. "MON/WED 09:00-10:30".
func (a Assignment) TimeSlotLabel() string {
	return patternLabel(a.Meetings)
}

func patternLabel(meetings []TimeSlot) string {
	if len(meetings) == 0 {
		return ""
	}
	days := make([]string, 0, len(meetings))
	for _, m := range meetings {
		days = append(days, m.Day.String())
	}
	first := meetings[0]
	return fmt.Sprintf("%s %s-%s", strings.Join(days, "/"), FormatClock(first.Start), FormatClock(first.End()))
}

// Reason explains why a section was left out of the schedule.
type Reason string

const (
	ReasonClassroomConflict  Reason = "classroom_conflict"
	ReasonInstructorConflict Reason = "instructor_conflict"
	ReasonNoCandidates       Reason = "no compatible classroom/time combination"
	ReasonTimedOut           Reason = "timed out"
)

// Unassigned is a section the run could not place.
type Unassigned struct {
	SectionID int64
	Section   string
	Reason    Reason
	Detail    string
}

// State is the search lifecycle.
type State int

const (
	StateReady State = iota
	StateSearching
	StateSucceeded
	StatePartiallySucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateSearching:
		return "searching"
	case StateSucceeded:
		return "succeeded"
	case StatePartiallySucceeded:
		return "partially_succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Statistics are collected for every run.
type Statistics struct {
	ScheduledCount   int
	UnscheduledCount int
	BacktrackCount   int
	Duration         time.Duration
}

// Result is the outcome of one run. Every input section is in exactly one of Assignments or Unassigned.
type Result struct {
	State       State
	Assignments map[int64]Assignment
	Unassigned  []Unassigned
	Statistics  Statistics
}

// Success is false only when the engine had nothing it could place.
func (r *Result) Success() bool {
	return r.State == StateSucceeded || r.State == StatePartiallySucceeded
}

// SortedAssignments returns assignments ordered by section id.
func (r *Result) SortedAssignments() []Assignment {
	out := make([]Assignment, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Assignment) int { return cmp.Compare(a.SectionID, b.SectionID) })
	return out
}
