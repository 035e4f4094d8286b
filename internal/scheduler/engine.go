package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultMaxBacktracks is the number of unwinds a section may trigger before it is given up.
const DefaultMaxBacktracks = 3

// Options tune a search run.
type Options struct {
	// MaxBacktracks bounds the unwinds charged to one section. Negative means zero.
	MaxBacktracks int
	// Timeout is the hard wall-clock cap of the search. Zero disables it.
	Timeout time.Duration
}

// Engine runs the bounded backtracking search. It holds no state between runs and is safe for concurrent use.
type Engine struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates an engine.
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	if opts.MaxBacktracks < 0 {
		opts.MaxBacktracks = 0
	}
	return &Engine{opts: opts, logger: logger, now: time.Now}
}

// variable is the per-section search state.
type variable struct {
	section    *Section
	instructor *int64
	domain     *Domain
	cursor     Cursor // next candidate to try
	held       Candidate
	placed     bool
	retries    int
	failed     bool
	conflicts  map[ConflictTag]int
}

// varState is the part of a variable an unwind may have to put back.
type varState struct {
	cursor    Cursor
	held      Candidate
	placed    bool
	failed    bool
	conflicts map[ConflictTag]int
}

type search struct {
	vars       []*variable
	occupancy  *Occupancy
	backtracks int
	timedOutAt int // index of the first section the deadline cut off, -1 when none
}

// Solve runs one search over the snapshot. It returns ErrInvalidProblem for malformed input and
// ErrCanceled when ctx is canceled; reaching the timeout is not an error and yields a partial result.
//
// With backtracking enabled the plain greedy placement is computed first and kept when the
// bounded search ends up placing fewer sections, so unwinding never costs a placement.
func (e *Engine) Solve(ctx context.Context, p Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := &Result{State: StateReady, Assignments: make(map[int64]Assignment)}

	started := e.now()
	result.State = StateSearching
	var deadline time.Time
	if e.opts.Timeout > 0 {
		deadline = started.Add(e.opts.Timeout)
	}

	domains := BuildDomains(p)
	byID := make(map[int64]*Section, len(p.Sections))
	for i := range p.Sections {
		byID[p.Sections[i].ID] = &p.Sections[i]
	}
	for _, id := range domains.Empty {
		result.Unassigned = append(result.Unassigned, Unassigned{
			SectionID: id,
			Section:   byID[id].Name(),
			Reason:    ReasonNoCandidates,
			Detail:    "no classroom with enough seats and the right room type is free at a time the instructor can teach",
		})
	}

	best, err := e.run(ctx, p, domains, 0, deadline)
	if err != nil {
		return nil, err
	}
	backtracks := 0
	if e.opts.MaxBacktracks > 0 {
		bounded, err := e.run(ctx, p, domains, e.opts.MaxBacktracks, deadline)
		if err != nil {
			return nil, err
		}
		backtracks = bounded.backtracks
		if bounded.placedCount() >= best.placedCount() {
			best = bounded
		} else {
			e.logger.Debug().
				Int("greedy", best.placedCount()).
				Int("bounded", bounded.placedCount()).
				Msg("Kept greedy placement")
		}
	}

	// Everything from timedOutAt on is unplaced and was never given up.
	for idx, v := range best.vars {
		switch {
		case v.placed:
			result.Assignments[v.section.ID] = Assignment{
				SectionID:    v.section.ID,
				CourseCode:   v.section.CourseCode,
				SectionLabel: v.section.Label,
				ClassroomID:  v.held.Classroom.ID,
				InstructorID: v.instructor,
				Meetings:     slices.Clone(v.held.Pattern.Meetings),
			}
		case v.failed:
			result.Unassigned = append(result.Unassigned, v.unassigned())
		case best.timedOutAt >= 0 && idx >= best.timedOutAt:
			result.Unassigned = append(result.Unassigned, Unassigned{
				SectionID: v.section.ID,
				Section:   v.section.Name(),
				Reason:    ReasonTimedOut,
				Detail:    "the run reached its time limit before this section was placed",
			})
		}
	}
	slices.SortFunc(result.Unassigned, func(a, b Unassigned) int { return cmp.Compare(a.SectionID, b.SectionID) })

	switch {
	case len(p.Sections) > 0 && len(best.vars) == 0:
		result.State = StateExhausted
	case len(result.Unassigned) == 0:
		result.State = StateSucceeded
	default:
		result.State = StatePartiallySucceeded
	}

	result.Statistics = Statistics{
		ScheduledCount:   len(result.Assignments),
		UnscheduledCount: len(result.Unassigned),
		BacktrackCount:   backtracks,
		Duration:         e.now().Sub(started),
	}

	e.logger.Debug().
		Str("state", result.State.String()).
		Int("scheduled", result.Statistics.ScheduledCount).
		Int("unscheduled", result.Statistics.UnscheduledCount).
		Int("backtracks", result.Statistics.BacktrackCount).
		Dur("duration", result.Statistics.Duration).
		Msg("Search finished")

	return result, nil
}

// newSearch orders the sections that have candidates, most constrained first.
func newSearch(p Problem, domains Domains) *search {
	instructorOf := p.instructorIndex()
	s := &search{occupancy: NewOccupancy(p.Grid), timedOutAt: -1}
	for i := range p.Sections {
		section := &p.Sections[i]
		domain, ok := domains.Sections[section.ID]
		if !ok {
			continue
		}
		v := &variable{section: section, domain: domain, conflicts: make(map[ConflictTag]int)}
		if id, ok := instructorOf[section.ID]; ok {
			v.instructor = &id
		}
		s.vars = append(s.vars, v)
	}
	// Ties by id keep runs reproducible.
	slices.SortStableFunc(s.vars, func(a, b *variable) int {
		if c := cmp.Compare(a.domain.Len(), b.domain.Len()); c != 0 {
			return c
		}
		return cmp.Compare(a.section.ID, b.section.ID)
	})
	return s
}

// run places the sections in order, allowing each up to limit unwinds.
func (e *Engine) run(ctx context.Context, p Problem, domains Domains, limit int, deadline time.Time) (*search, error) {
	s := newSearch(p, domains)
	for i, v := range s.vars {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
			}
			s.timedOutAt = i
			break
		}
		if !deadline.IsZero() && !e.now().Before(deadline) {
			s.timedOutAt = i
			break
		}

		if s.place(v) {
			continue
		}
		if limit > 0 {
			if j, ok := s.unwind(i, limit); ok {
				e.logger.Debug().
					Int64("sectionId", v.section.ID).
					Int64("unwoundSectionId", s.vars[j].section.ID).
					Int("retry", v.retries).
					Msg("Backtracked to previous section")
				continue
			}
		}
		v.failed = true
	}
	return s, nil
}

// place takes the first legal candidate at or after the variable's cursor.
func (s *search) place(v *variable) bool {
	for {
		c, ok := v.domain.Next(&v.cursor)
		if !ok {
			return false
		}
		if legal, tag := s.occupancy.Check(&c, v.instructor); !legal {
			v.conflicts[tag]++
			continue
		}
		s.occupancy.Reserve(&c, v.instructor)
		v.held, v.placed, v.failed = c, true, false
		return true
	}
}

// unwind moves the nearest placed predecessor of vars[i] to its next legal candidate and
// replays every section after it. A trial is kept only when vars[i] gets placed and no
// section loses its placement; otherwise the placements from before the trial are restored.
// Each trial that actually moves the predecessor is one backtrack charged to vars[i].
func (s *search) unwind(i, limit int) (int, bool) {
	v := s.vars[i]
	j := s.previousPlaced(i)
	if j < 0 || v.retries >= limit {
		return j, false
	}

	window := s.vars[j : i+1]
	saved := make([]varState, len(window))
	for k, w := range window {
		saved[k] = w.state()
	}
	pred := window[0]
	scan := pred.cursor

	for v.retries < limit {
		s.release(window)
		pred.cursor = scan
		if !s.place(pred) {
			s.restore(window, saved)
			return j, false
		}
		scan = pred.cursor
		v.retries++
		s.backtracks++

		if s.replay(window[1:], saved[1:]) {
			return j, true
		}
		s.release(window)
		s.restore(window, saved)
	}
	return j, false
}

// replay places the sections after the unwound one from their best candidate. It fails as soon
// as a section that held a placement, or the last section, cannot be placed.
func (s *search) replay(rest []*variable, saved []varState) bool {
	for k, w := range rest {
		w.cursor = Cursor{}
		clear(w.conflicts)
		if s.place(w) {
			continue
		}
		if saved[k].placed || k == len(rest)-1 {
			return false
		}
		w.failed = true
	}
	return true
}

func (s *search) release(window []*variable) {
	for _, w := range window {
		if w.placed {
			s.occupancy.Release(&w.held, w.instructor)
			w.placed = false
		}
	}
}

// restore expects the window to be released.
func (s *search) restore(window []*variable, saved []varState) {
	for k, w := range window {
		st := saved[k]
		w.cursor, w.held, w.placed, w.failed = st.cursor, st.held, st.placed, st.failed
		w.conflicts = maps.Clone(st.conflicts)
		if w.placed {
			s.occupancy.Reserve(&w.held, w.instructor)
		}
	}
}

func (s *search) previousPlaced(i int) int {
	for j := i - 1; j >= 0; j-- {
		if s.vars[j].placed {
			return j
		}
	}
	return -1
}

func (s *search) placedCount() int {
	return lo.CountBy(s.vars, func(v *variable) bool { return v.placed })
}

func (v *variable) state() varState {
	return varState{
		cursor:    v.cursor,
		held:      v.held,
		placed:    v.placed,
		failed:    v.failed,
		conflicts: maps.Clone(v.conflicts),
	}
}

func (v *variable) unassigned() Unassigned {
	reason := ReasonClassroomConflict
	if v.conflicts[InstructorConflict] > v.conflicts[ClassroomConflict] {
		reason = ReasonInstructorConflict
	}
	var detail string
	switch reason {
	case ReasonInstructorConflict:
		detail = fmt.Sprintf("the instructor already teaches at every remaining time (%d of %d candidates blocked)",
			v.conflicts[InstructorConflict], v.domain.Len())
	default:
		detail = fmt.Sprintf("every suitable classroom is taken at the remaining times (%d of %d candidates blocked)",
			v.conflicts[ClassroomConflict], v.domain.Len())
	}
	return Unassigned{
		SectionID: v.section.ID,
		Section:   v.section.Name(),
		Reason:    reason,
		Detail:    detail,
	}
}
