package scheduler

// ConflictTag is the machine readable reason a candidate was rejected.
type ConflictTag string

const (
	NoConflict         ConflictTag = ""
	ClassroomConflict  ConflictTag = "classroom_conflict"
	InstructorConflict ConflictTag = "instructor_conflict"
)

type bitset []uint64

func newBitset(size int) bitset {
	return make(bitset, (size+63)/64)
}

func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }
func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) clear(i int)    { b[i/64] &^= 1 << (uint(i) % 64) }

func (b bitset) any(units []int) bool {
	for _, u := range units {
		if b.has(u) {
			return true
		}
	}
	return false
}

// Occupancy indexes the grid units held by each classroom and instructor during a run.
// It only reflects assignments made by the run itself; static bookings are handled by the domain builder.
type Occupancy struct {
	size        int
	classrooms  map[int64]bitset
	instructors map[int64]bitset
}

// NewOccupancy creates empty indexes for a grid.
func NewOccupancy(grid Grid) *Occupancy {
	return &Occupancy{
		size:        grid.Size(),
		classrooms:  make(map[int64]bitset),
		instructors: make(map[int64]bitset),
	}
}

func (o *Occupancy) row(index map[int64]bitset, id int64) bitset {
	b, ok := index[id]
	if !ok {
		b = newBitset(o.size)
		index[id] = b
	}
	return b
}

// Check decides whether a candidate can be added to the assignments recorded so far.
// The classroom is checked first, so a candidate blocked on both resources reports ClassroomConflict.
func (o *Occupancy) Check(c *Candidate, instructorID *int64) (bool, ConflictTag) {
	if b, ok := o.classrooms[c.Classroom.ID]; ok && b.any(c.Pattern.units) {
		return false, ClassroomConflict
	}
	if instructorID != nil {
		if b, ok := o.instructors[*instructorID]; ok && b.any(c.Pattern.units) {
			return false, InstructorConflict
		}
	}
	return true, NoConflict
}

// Reserve records a candidate. Callers must have checked it first.
func (o *Occupancy) Reserve(c *Candidate, instructorID *int64) {
	room := o.row(o.classrooms, c.Classroom.ID)
	for _, u := range c.Pattern.units {
		room.set(u)
	}
	if instructorID != nil {
		in := o.row(o.instructors, *instructorID)
		for _, u := range c.Pattern.units {
			in.set(u)
		}
	}
}

// Release undoes Reserve.
func (o *Occupancy) Release(c *Candidate, instructorID *int64) {
	room := o.row(o.classrooms, c.Classroom.ID)
	for _, u := range c.Pattern.units {
		room.clear(u)
	}
	if instructorID != nil {
		in := o.row(o.instructors, *instructorID)
		for _, u := range c.Pattern.units {
			in.clear(u)
		}
	}
}
