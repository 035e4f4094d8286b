package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    Weekday
		wantErr bool
	}{
		{in: "MON", want: Monday},
		{in: "wed", want: Wednesday},
		{in: "Friday", want: Friday},
		{in: " sun ", want: Sunday},
		{in: "MO", wantErr: true},
		{in: "holiday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)
	assert.Equal(t, "09:30", FormatClock(minutes))

	minutes, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 1440, minutes)

	for _, bad := range []string{"9", "24:30", "12:60", "aa:bb", ""} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeSlot_Overlaps(t *testing.T) {
	a := TimeSlot{Day: Monday, Start: 9 * 60, Duration: 90}

	assert.True(t, a.Overlaps(TimeSlot{Day: Monday, Start: 10 * 60, Duration: 60}))
	assert.False(t, a.Overlaps(TimeSlot{Day: Monday, Start: 10*60 + 30, Duration: 60}), "touching slots do not overlap")
	assert.False(t, a.Overlaps(TimeSlot{Day: Tuesday, Start: 9 * 60, Duration: 90}))
	assert.Equal(t, "MON 09:00-10:30", a.String())
}

func TestGrid_Validate(t *testing.T) {
	assert.NoError(t, DefaultGrid().Validate())

	bad := []Grid{
		{Days: nil, Start: 480, End: 1260, Granularity: 30},
		{Days: []Weekday{Monday, Monday}, Start: 480, End: 1260, Granularity: 30},
		{Days: []Weekday{Friday, Monday}, Start: 480, End: 1260, Granularity: 30},
		{Days: []Weekday{Monday}, Start: 480, End: 1260, Granularity: 0},
		{Days: []Weekday{Monday}, Start: 600, End: 480, Granularity: 30},
		{Days: []Weekday{Monday}, Start: 480, End: 500, Granularity: 30},
	}
	for i, g := range bad {
		assert.ErrorIs(t, g.Validate(), ErrInvalidProblem, "grid %d", i)
	}
}

func TestGrid_SizeAndStarts(t *testing.T) {
	g := DefaultGrid()

	assert.Equal(t, 26, g.UnitsPerDay())
	assert.Equal(t, 130, g.Size())

	starts := g.Starts(90)
	assert.Equal(t, 8*60, starts[0])
	assert.Equal(t, 19*60+30, starts[len(starts)-1])
	assert.Nil(t, g.Starts(0))
}

func TestGrid_UnitsRoundUp(t *testing.T) {
	g := DefaultGrid()

	units, ok := g.units(TimeSlot{Day: Tuesday, Start: 9 * 60, Duration: 50})
	require.True(t, ok)
	// Tuesday starts at unit 26; 09:00 is two units in, and 50 minutes touches two half hours.
	assert.Equal(t, []int{28, 29}, units)

	_, ok = g.units(TimeSlot{Day: Saturday, Start: 9 * 60, Duration: 60})
	assert.False(t, ok)
	_, ok = g.units(TimeSlot{Day: Monday, Start: 20*60 + 30, Duration: 60})
	assert.False(t, ok)
}
