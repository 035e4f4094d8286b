package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is a day of the teaching week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// String returns the three letter upper case day name.
func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// ParseWeekday accepts three letter names ("MON") or full names ("monday"), case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if len(name) >= 3 {
		for i, n := range weekdayNames {
			if strings.HasPrefix(name, n) {
				return Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeSlot is a single weekly meeting window. Slots are values and are compared by equality.
type TimeSlot struct {
	Day      Weekday `json:"day"`
	Start    int     `json:"start"`    // minutes after midnight
	Duration int     `json:"duration"` // minutes
}

// End returns the first minute after the slot.
func (t TimeSlot) End() int {
	return t.Start + t.Duration
}

// Overlaps reports whether both slots share at least one minute on the same day.
func (t TimeSlot) Overlaps(o TimeSlot) bool {
	return t.Day == o.Day && t.Start < o.End() && o.Start < t.End()
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.Day, FormatClock(t.Start), FormatClock(t.End()))
}

// Grid is the fixed weekly calendar the engine places meetings on.
// Meetings start on Granularity boundaries between Start and End on each of Days.
type Grid struct {
	Days        []Weekday
	Start       int
	End         int
	Granularity int
}

// DefaultGrid is the weekday 08:00-21:00 half-hour grid rendered by the portal calendar.
func DefaultGrid() Grid {
	return Grid{
		Days:        []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday},
		Start:       8 * 60,
		End:         21 * 60,
		Granularity: 30,
	}
}

// Validate checks the grid is usable.
func (g Grid) Validate() error {
	if len(g.Days) == 0 {
		return fmt.Errorf("%w: grid has no days", ErrInvalidProblem)
	}
	seen := make(map[Weekday]bool, len(g.Days))
	for i, d := range g.Days {
		if d < Monday || d > Sunday {
			return fmt.Errorf("%w: grid day %d out of range", ErrInvalidProblem, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: grid day %s listed twice", ErrInvalidProblem, d)
		}
		if i > 0 && d < g.Days[i-1] {
			return fmt.Errorf("%w: grid days must be in week order", ErrInvalidProblem)
		}
		seen[d] = true
	}
	if g.Granularity <= 0 {
		return fmt.Errorf("%w: grid granularity must be positive", ErrInvalidProblem)
	}
	if g.Start < 0 || g.End > 24*60 || g.End <= g.Start {
		return fmt.Errorf("%w: grid hours %s-%s are invalid", ErrInvalidProblem, FormatClock(g.Start), FormatClock(g.End))
	}
	if (g.End-g.Start)%g.Granularity != 0 {
		return fmt.Errorf("%w: grid length is not a multiple of the granularity", ErrInvalidProblem)
	}
	return nil
}

// UnitsPerDay is the number of granularity units in one grid day.
func (g Grid) UnitsPerDay() int {
	return (g.End - g.Start) / g.Granularity
}

// Size is the number of discrete time slots (units) in the weekly grid.
func (g Grid) Size() int {
	return len(g.Days) * g.UnitsPerDay()
}

func (g Grid) dayIndex(d Weekday) int {
	for i, day := range g.Days {
		if day == d {
			return i
		}
	}
	return -1
}

// Starts lists the aligned start minutes at which a meeting of the given duration fits in a day.
func (g Grid) Starts(duration int) []int {
	if duration <= 0 {
		return nil
	}
	starts := make([]int, 0, g.UnitsPerDay())
	for start := g.Start; start+duration <= g.End; start += g.Granularity {
		starts = append(starts, start)
	}
	return starts
}

// units returns the occupancy indexes covered by a grid-aligned slot.
// A meeting occupies every unit it touches, so a 50 minute class blocks a full hour on a 30 minute grid.
func (g Grid) units(slot TimeSlot) ([]int, bool) {
	day := g.dayIndex(slot.Day)
	if day < 0 || slot.Start < g.Start || slot.End() > g.End || slot.Duration <= 0 {
		return nil, false
	}
	first := (slot.Start - g.Start) / g.Granularity
	last := (slot.End() - g.Start + g.Granularity - 1) / g.Granularity
	base := day * g.UnitsPerDay()
	out := make([]int, 0, last-first)
	for u := first; u < last; u++ {
		out = append(out, base+u)
	}
	return out, true
}
