package scheduler

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// RawWindow is a clock-time window as written in snapshot files, e.g. {"day": "MON", "start": "09:00", "end": "10:30"}.
type RawWindow struct {
	Day   string `mapstructure:"day"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type RawGrid struct {
	Days        []string `mapstructure:"days"`
	Start       string   `mapstructure:"start"`
	End         string   `mapstructure:"end"`
	Granularity int      `mapstructure:"granularity_minutes"`
}

type RawSection struct {
	ID                int64  `mapstructure:"id"`
	CourseID          int64  `mapstructure:"course_id"`
	CourseCode        string `mapstructure:"course_code"`
	Label             string `mapstructure:"label"`
	MeetingsPerWeek   int    `mapstructure:"meetings_per_week"`
	DurationMinutes   int    `mapstructure:"duration_minutes"`
	ExpectedHeadcount int    `mapstructure:"expected_headcount"`
	RequiresLab       bool   `mapstructure:"requires_lab"`
	InstructorID      *int64 `mapstructure:"instructor_id"`
}

type RawClassroom struct {
	ID       int64       `mapstructure:"id"`
	Name     string      `mapstructure:"name"`
	Capacity int         `mapstructure:"capacity"`
	IsLab    bool        `mapstructure:"is_lab"`
	Bookings []RawWindow `mapstructure:"bookings"`
}

type RawInstructor struct {
	ID          int64       `mapstructure:"id"`
	Name        string      `mapstructure:"name"`
	SectionIDs  []int64     `mapstructure:"section_ids"`
	Unavailable []RawWindow `mapstructure:"unavailable"`
}

// RawProblem is the on-disk snapshot format read by the offline runner.
type RawProblem struct {
	Grid        *RawGrid        `mapstructure:"grid"`
	Sections    []RawSection    `mapstructure:"sections"`
	Classrooms  []RawClassroom  `mapstructure:"classrooms"`
	Instructors []RawInstructor `mapstructure:"instructors"`
}

// InputFromJSON reads a snapshot file.
func InputFromJSON(file string) (Problem, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Problem{}, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseInput(data)
}

// ParseInput decodes a JSON snapshot. A missing grid falls back to DefaultGrid.
func ParseInput(data []byte) (Problem, error) {
	var inputJSON map[string]any
	if err := json.Unmarshal(data, &inputJSON); err != nil {
		return Problem{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}

	var raw RawProblem
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &raw,
		ErrorUnused: true,
	})
	if err != nil {
		return Problem{}, err
	}
	if err := decoder.Decode(inputJSON); err != nil {
		return Problem{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	return ProcessRawInput(raw)
}

// ProcessRawInput converts clock strings and day names into engine values.
func ProcessRawInput(raw RawProblem) (Problem, error) {
	p := Problem{Grid: DefaultGrid()}

	if raw.Grid != nil {
		g, err := raw.Grid.ToGrid()
		if err != nil {
			return Problem{}, err
		}
		p.Grid = g
	}

	p.Sections = lo.Map(raw.Sections, func(s RawSection, _ int) Section {
		return Section(s)
	})

	for _, rc := range raw.Classrooms {
		bookings, err := toSlots(rc.Bookings)
		if err != nil {
			return Problem{}, fmt.Errorf("classroom %d: %w", rc.ID, err)
		}
		p.Classrooms = append(p.Classrooms, Classroom{
			ID:       rc.ID,
			Name:     rc.Name,
			Capacity: rc.Capacity,
			IsLab:    rc.IsLab,
			Bookings: bookings,
		})
	}

	for _, ri := range raw.Instructors {
		windows, err := toSlots(ri.Unavailable)
		if err != nil {
			return Problem{}, fmt.Errorf("instructor %d: %w", ri.ID, err)
		}
		p.Instructors = append(p.Instructors, Instructor{
			ID:          ri.ID,
			Name:        ri.Name,
			SectionIDs:  ri.SectionIDs,
			Unavailable: windows,
		})
	}

	return p, nil
}

// ToGrid overlays the configured fields on DefaultGrid.
func (g RawGrid) ToGrid() (Grid, error) {
	out := DefaultGrid()
	if len(g.Days) > 0 {
		days := make([]Weekday, 0, len(g.Days))
		for _, name := range g.Days {
			d, err := ParseWeekday(name)
			if err != nil {
				return Grid{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
			}
			days = append(days, d)
		}
		out.Days = days
	}
	if g.Start != "" {
		start, err := ParseClock(g.Start)
		if err != nil {
			return Grid{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
		}
		out.Start = start
	}
	if g.End != "" {
		end, err := ParseClock(g.End)
		if err != nil {
			return Grid{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
		}
		out.End = end
	}
	if g.Granularity != 0 {
		out.Granularity = g.Granularity
	}
	return out, nil
}

// ParseWindow converts a day name and a clock range into a slot.
func ParseWindow(day, start, end string) (TimeSlot, error) {
	d, err := ParseWeekday(day)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	from, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	to, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	if to <= from {
		return TimeSlot{}, fmt.Errorf("%w: window %s %s-%s ends before it starts", ErrInvalidProblem, day, start, end)
	}
	return TimeSlot{Day: d, Start: from, Duration: to - from}, nil
}

func toSlots(windows []RawWindow) ([]TimeSlot, error) {
	out := make([]TimeSlot, 0, len(windows))
	for _, w := range windows {
		slot, err := ParseWindow(w.Day, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, nil
}
