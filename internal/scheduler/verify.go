package scheduler

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrInvariantViolated is returned by Verify.
var ErrInvariantViolated = errors.New("schedule invariant violated")

type placedMeeting struct {
	sectionID int64
	slot      TimeSlot
}

// Verify checks a result against the snapshot it was computed from: every section is reported
// exactly once, rooms are big enough and of the right type, and no classroom or instructor is
// double-booked.
func Verify(p Problem, r *Result) error {
	sections := lo.KeyBy(p.Sections, func(s Section) int64 { return s.ID })
	rooms := lo.KeyBy(p.Classrooms, func(c Classroom) int64 { return c.ID })

	seen := make(map[int64]bool, len(p.Sections))
	for id := range r.Assignments {
		if _, ok := sections[id]; !ok {
			return fmt.Errorf("%w: assignment for unknown section %d", ErrInvariantViolated, id)
		}
		seen[id] = true
	}
	for _, u := range r.Unassigned {
		if _, ok := sections[u.SectionID]; !ok {
			return fmt.Errorf("%w: unassigned entry for unknown section %d", ErrInvariantViolated, u.SectionID)
		}
		if seen[u.SectionID] {
			return fmt.Errorf("%w: section %d reported twice", ErrInvariantViolated, u.SectionID)
		}
		seen[u.SectionID] = true
	}
	if len(seen) != len(p.Sections) {
		return fmt.Errorf("%w: %d of %d sections reported", ErrInvariantViolated, len(seen), len(p.Sections))
	}

	byRoom := make(map[int64][]placedMeeting)
	byInstructor := make(map[int64][]placedMeeting)
	for id, a := range r.Assignments {
		section := sections[id]
		room, ok := rooms[a.ClassroomID]
		if !ok {
			return fmt.Errorf("%w: section %d placed in unknown classroom %d", ErrInvariantViolated, id, a.ClassroomID)
		}
		if room.Capacity < section.ExpectedHeadcount {
			return fmt.Errorf("%w: section %d (%d students) does not fit classroom %d (%d seats)",
				ErrInvariantViolated, id, section.ExpectedHeadcount, room.ID, room.Capacity)
		}
		if section.RequiresLab && !room.IsLab {
			return fmt.Errorf("%w: lab section %d placed in non-lab classroom %d", ErrInvariantViolated, id, room.ID)
		}
		if len(a.Meetings) != section.MeetingsPerWeek {
			return fmt.Errorf("%w: section %d has %d meetings, needs %d", ErrInvariantViolated, id, len(a.Meetings), section.MeetingsPerWeek)
		}
		days := lo.Uniq(lo.Map(a.Meetings, func(m TimeSlot, _ int) Weekday { return m.Day }))
		if len(days) != len(a.Meetings) {
			return fmt.Errorf("%w: section %d meets twice on one day", ErrInvariantViolated, id)
		}
		for _, m := range a.Meetings {
			if m.Duration != section.DurationMinutes {
				return fmt.Errorf("%w: section %d meeting %s has the wrong length", ErrInvariantViolated, id, m)
			}
			byRoom[a.ClassroomID] = append(byRoom[a.ClassroomID], placedMeeting{id, m})
			if a.InstructorID != nil {
				byInstructor[*a.InstructorID] = append(byInstructor[*a.InstructorID], placedMeeting{id, m})
			}
		}
		if overlapsAny(a.Meetings, room.Bookings) {
			return fmt.Errorf("%w: section %d overlaps an external booking of classroom %d", ErrInvariantViolated, id, room.ID)
		}
	}

	for _, in := range p.Instructors {
		for _, m := range byInstructor[in.ID] {
			if overlapsAny([]TimeSlot{m.slot}, in.Unavailable) {
				return fmt.Errorf("%w: section %d is taught while instructor %d is unavailable", ErrInvariantViolated, m.sectionID, in.ID)
			}
		}
	}

	if a, b, ok := firstOverlap(byRoom); ok {
		return fmt.Errorf("%w: sections %d and %d share a classroom at %s", ErrInvariantViolated, a.sectionID, b.sectionID, a.slot)
	}
	if a, b, ok := firstOverlap(byInstructor); ok {
		return fmt.Errorf("%w: sections %d and %d share an instructor at %s", ErrInvariantViolated, a.sectionID, b.sectionID, a.slot)
	}
	return nil
}

func firstOverlap(groups map[int64][]placedMeeting) (placedMeeting, placedMeeting, bool) {
	for _, meetings := range groups {
		for i := 0; i < len(meetings); i++ {
			for j := i + 1; j < len(meetings); j++ {
				if meetings[i].slot.Overlaps(meetings[j].slot) {
					return meetings[i], meetings[j], true
				}
			}
		}
	}
	return placedMeeting{}, placedMeeting{}, false
}
