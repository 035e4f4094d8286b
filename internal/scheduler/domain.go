package scheduler

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Pattern is a weekly meeting pattern: one meeting per listed day, all at the same start time.
type Pattern struct {
	Meetings []TimeSlot
	order    int
	units    []int
}

// Candidate is a legal-in-isolation (pattern, classroom) pair for one section.
type Candidate struct {
	Pattern   *Pattern
	Classroom *Classroom
	Waste     int // unused seats
}

// Domain is the ordered candidate space of one section. Candidates are produced on demand
// from the shared patterns and the eligible classrooms, so a large term never holds every
// (pattern, classroom) pair in memory.
type Domain struct {
	tiers    []roomTier
	patterns []*Pattern
	booked   map[int64]bitset // pattern orders overlapping a fixed booking, per classroom
	size     int
}

// roomTier groups eligible classrooms with the same wasted capacity, by ascending id.
type roomTier struct {
	waste int
	rooms []*Classroom
}

// Cursor is a scan position in a Domain. The zero value points at the best candidate.
type Cursor struct {
	tier, pattern, room int
}

// Len reports the number of candidates.
func (d *Domain) Len() int { return d.size }

// Next returns the first candidate at or after cur and moves cur past it.
// Order is least waste, then earliest pattern, then lowest classroom id.
func (d *Domain) Next(cur *Cursor) (Candidate, bool) {
	for cur.tier < len(d.tiers) {
		tier := d.tiers[cur.tier]
		for cur.pattern < len(d.patterns) {
			pt := d.patterns[cur.pattern]
			for cur.room < len(tier.rooms) {
				room := tier.rooms[cur.room]
				cur.room++
				if d.isBooked(room, pt) {
					continue
				}
				return Candidate{Pattern: pt, Classroom: room, Waste: tier.waste}, true
			}
			cur.room = 0
			cur.pattern++
		}
		cur.pattern = 0
		cur.tier++
	}
	return Candidate{}, false
}

// All materializes the domain in order.
func (d *Domain) All() []Candidate {
	out := make([]Candidate, 0, d.size)
	var cur Cursor
	for c, ok := d.Next(&cur); ok; c, ok = d.Next(&cur) {
		out = append(out, c)
	}
	return out
}

func (d *Domain) isBooked(room *Classroom, pt *Pattern) bool {
	b, ok := d.booked[room.ID]
	return ok && b.has(pt.order)
}

// Domains holds the statically filtered candidate space of every section.
type Domains struct {
	Sections map[int64]*Domain
	// Empty lists, by ascending id, sections with no candidate at all.
	Empty []int64
}

type patternKey struct {
	meetings, duration int
}

// patternSet is shared by every section with the same meeting count and duration.
type patternSet struct {
	patterns []*Pattern
	booked   map[int64]bitset
}

func newPatternSet(grid Grid, key patternKey, rooms []Classroom) *patternSet {
	set := &patternSet{
		patterns: buildPatterns(grid, key.meetings, key.duration),
		booked:   make(map[int64]bitset),
	}
	for i := range rooms {
		room := &rooms[i]
		if len(room.Bookings) == 0 {
			continue
		}
		var b bitset
		for _, pt := range set.patterns {
			if !overlapsAny(pt.Meetings, room.Bookings) {
				continue
			}
			if b == nil {
				b = newBitset(len(set.patterns))
			}
			b.set(pt.order)
		}
		if b != nil {
			set.booked[room.ID] = b
		}
	}
	return set
}

// BuildDomains applies the static filters (capacity, room type, instructor unavailability,
// external classroom bookings) and orders each candidate space so that the least wasted
// capacity comes first, then the earliest meeting pattern, then the lowest classroom id.
func BuildDomains(p Problem) Domains {
	instructorOf := p.instructorIndex()
	unavailable := make(map[int64][]TimeSlot, len(p.Instructors))
	for _, in := range p.Instructors {
		unavailable[in.ID] = in.Unavailable
	}

	sets := make(map[patternKey]*patternSet)
	domains := Domains{Sections: make(map[int64]*Domain, len(p.Sections))}

	for _, section := range p.Sections {
		key := patternKey{section.MeetingsPerWeek, section.DurationMinutes}
		set, ok := sets[key]
		if !ok {
			set = newPatternSet(p.Grid, key, p.Classrooms)
			sets[key] = set
		}

		usable := set.patterns
		if id, ok := instructorOf[section.ID]; ok && len(unavailable[id]) > 0 {
			windows := unavailable[id]
			usable = lo.Filter(usable, func(pt *Pattern, _ int) bool {
				return !overlapsAny(pt.Meetings, windows)
			})
		}

		d := &Domain{
			tiers:    eligibleTiers(p.Classrooms, section.ExpectedHeadcount, section.RequiresLab),
			patterns: usable,
			booked:   set.booked,
		}
		for _, tier := range d.tiers {
			for _, room := range tier.rooms {
				d.size += len(usable)
				if b, ok := d.booked[room.ID]; ok {
					d.size -= lo.CountBy(usable, func(pt *Pattern) bool { return b.has(pt.order) })
				}
			}
		}

		if d.size == 0 {
			domains.Empty = append(domains.Empty, section.ID)
			continue
		}
		domains.Sections[section.ID] = d
	}

	slices.Sort(domains.Empty)
	return domains
}

// eligibleTiers keeps the classrooms with enough seats and the required room type,
// grouped by wasted capacity.
func eligibleTiers(classrooms []Classroom, headcount int, requiresLab bool) []roomTier {
	var rooms []*Classroom
	for i := range classrooms {
		room := &classrooms[i]
		if room.Capacity >= headcount && room.IsLab == requiresLab {
			rooms = append(rooms, room)
		}
	}
	slices.SortFunc(rooms, func(a, b *Classroom) int {
		if c := cmp.Compare(a.Capacity, b.Capacity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var tiers []roomTier
	for _, room := range rooms {
		waste := room.Capacity - headcount
		if n := len(tiers); n > 0 && tiers[n-1].waste == waste {
			tiers[n-1].rooms = append(tiers[n-1].rooms, room)
			continue
		}
		tiers = append(tiers, roomTier{waste: waste, rooms: []*Classroom{room}})
	}
	return tiers
}

// buildPatterns enumerates every pattern of n meetings on distinct grid days, earliest first.
func buildPatterns(grid Grid, n, duration int) []*Pattern {
	starts := grid.Starts(duration)
	if n <= 0 || n > len(grid.Days) || len(starts) == 0 {
		return nil
	}

	var out []*Pattern
	for _, days := range combinations(grid.Days, n) {
		for _, start := range starts {
			meetings := make([]TimeSlot, 0, n)
			units := make([]int, 0, n*((duration+grid.Granularity-1)/grid.Granularity))
			for _, day := range days {
				slot := TimeSlot{Day: day, Start: start, Duration: duration}
				covered, ok := grid.units(slot)
				if !ok {
					meetings = nil
					break
				}
				meetings = append(meetings, slot)
				units = append(units, covered...)
			}
			if meetings == nil {
				continue
			}
			out = append(out, &Pattern{Meetings: meetings, units: units})
		}
	}

	slices.SortFunc(out, func(a, b *Pattern) int {
		for i := range a.Meetings {
			if c := cmp.Compare(a.Meetings[i].Day, b.Meetings[i].Day); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Meetings[i].Start, b.Meetings[i].Start); c != 0 {
				return c
			}
		}
		return 0
	})
	for i, pt := range out {
		pt.order = i
	}
	return out
}

// combinations returns the k-element subsets of days in lexicographic order.
func combinations(days []Weekday, k int) [][]Weekday {
	var out [][]Weekday
	current := make([]Weekday, 0, k)
	var walk func(from int)
	walk = func(from int) {
		if len(current) == k {
			out = append(out, slices.Clone(current))
			return
		}
		for i := from; i <= len(days)-(k-len(current)); i++ {
			current = append(current, days[i])
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)
	return out
}

func overlapsAny(meetings, windows []TimeSlot) bool {
	return lo.SomeBy(meetings, func(m TimeSlot) bool {
		return lo.SomeBy(windows, func(w TimeSlot) bool { return m.Overlaps(w) })
	})
}
