package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidateAt(t *testing.T, g Grid, room *Classroom, slots ...TimeSlot) *Candidate {
	t.Helper()
	pt := &Pattern{Meetings: slots}
	for _, s := range slots {
		units, ok := g.units(s)
		if !ok {
			t.Fatalf("slot %s is off the grid", s)
		}
		pt.units = append(pt.units, units...)
	}
	return &Candidate{Pattern: pt, Classroom: room}
}

func TestOccupancy_CheckReserveRelease(t *testing.T) {
	g := DefaultGrid()
	occ := NewOccupancy(g)
	roomA := &Classroom{ID: 1, Capacity: 30}
	roomB := &Classroom{ID: 2, Capacity: 30}
	instructor := ptr(9)

	first := candidateAt(t, g, roomA, TimeSlot{Day: Monday, Start: 9 * 60, Duration: 90})
	ok, tag := occ.Check(first, instructor)
	assert.True(t, ok)
	assert.Equal(t, NoConflict, tag)
	occ.Reserve(first, instructor)

	sameRoom := candidateAt(t, g, roomA, TimeSlot{Day: Monday, Start: 10 * 60, Duration: 60})
	ok, tag = occ.Check(sameRoom, nil)
	assert.False(t, ok)
	assert.Equal(t, ClassroomConflict, tag)

	sameInstructor := candidateAt(t, g, roomB, TimeSlot{Day: Monday, Start: 10 * 60, Duration: 60})
	ok, tag = occ.Check(sameInstructor, instructor)
	assert.False(t, ok)
	assert.Equal(t, InstructorConflict, tag)

	// Blocked on both resources reports the classroom.
	ok, tag = occ.Check(sameRoom, instructor)
	assert.False(t, ok)
	assert.Equal(t, ClassroomConflict, tag)

	later := candidateAt(t, g, roomA, TimeSlot{Day: Monday, Start: 10*60 + 30, Duration: 60})
	ok, _ = occ.Check(later, instructor)
	assert.True(t, ok)

	occ.Release(first, instructor)
	ok, tag = occ.Check(sameRoom, instructor)
	assert.True(t, ok)
	assert.Equal(t, NoConflict, tag)
}

func TestOccupancy_MultiMeetingPattern(t *testing.T) {
	g := DefaultGrid()
	occ := NewOccupancy(g)
	room := &Classroom{ID: 1}

	occ.Reserve(candidateAt(t, g, room,
		TimeSlot{Day: Monday, Start: 9 * 60, Duration: 60},
		TimeSlot{Day: Wednesday, Start: 9 * 60, Duration: 60},
	), nil)

	ok, _ := occ.Check(candidateAt(t, g, room, TimeSlot{Day: Wednesday, Start: 9*60 + 30, Duration: 60}), nil)
	assert.False(t, ok)
	ok, _ = occ.Check(candidateAt(t, g, room, TimeSlot{Day: Tuesday, Start: 9 * 60, Duration: 60}), nil)
	assert.True(t, ok)
}
