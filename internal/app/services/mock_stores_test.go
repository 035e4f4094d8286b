package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/app/repositories"
	"github.com/yigit/unisphere-scheduler/internal/pkg/lock"
)

// ── sections ──

type mockSectionStore struct {
	sections []*models.Section
	onList   func(ctx context.Context)
	// stall makes ListByTerm wait for the context, like a query stuck on a lock
	stall bool
}

func (m *mockSectionStore) ListByTerm(ctx context.Context, term models.Term, year int) ([]*models.Section, error) {
	if m.onList != nil {
		m.onList(ctx)
	}
	if m.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	var out []*models.Section
	for _, s := range m.sections {
		if s.Term == term && s.Year == year {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSectionStore) CountByTerm(ctx context.Context, term models.Term, year int) (int64, error) {
	list, _ := m.ListByTerm(ctx, term, year)
	return int64(len(list)), nil
}

func (m *mockSectionStore) Count(context.Context) (int64, error) {
	return int64(len(m.sections)), nil
}

// ── classrooms ──

type mockClassroomStore struct {
	classrooms []*models.Classroom
	bookings   []*models.ClassroomBooking
}

func (m *mockClassroomStore) ListAll(context.Context) ([]*models.Classroom, error) {
	return m.classrooms, nil
}

func (m *mockClassroomStore) ListBookings(_ context.Context, term models.Term, year int) ([]*models.ClassroomBooking, error) {
	var out []*models.ClassroomBooking
	for _, b := range m.bookings {
		if b.Term == term && b.Year == year {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockClassroomStore) Count(context.Context) (int64, error) {
	return int64(len(m.classrooms)), nil
}

// ── instructors ──

type mockInstructorStore struct {
	instructors []*models.Instructor
	windows     []*models.InstructorUnavailability
}

func (m *mockInstructorStore) ListAll(context.Context) ([]*models.Instructor, error) {
	return m.instructors, nil
}

func (m *mockInstructorStore) ListUnavailability(_ context.Context, term models.Term, year int) ([]*models.InstructorUnavailability, error) {
	var out []*models.InstructorUnavailability
	for _, w := range m.windows {
		if w.Term == term && w.Year == year {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockInstructorStore) Count(context.Context) (int64, error) {
	return int64(len(m.instructors)), nil
}

// ── schedule of record ──

var errInjected = errors.New("injected commit failure")

type mockScheduleStore struct {
	mu          sync.Mutex
	assignments map[models.TermRef][]*models.ScheduleAssignment
	versions    map[models.TermRef]int64
	failReplace bool
	replaces    int
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{
		assignments: make(map[models.TermRef][]*models.ScheduleAssignment),
		versions:    make(map[models.TermRef]int64),
	}
}

// ReplaceTerm stages the new rows and only swaps them in when nothing failed, like a rolled back transaction.
func (m *mockScheduleStore) ReplaceTerm(_ context.Context, ref models.TermRef, _ uuid.UUID, rows []*models.ScheduleAssignment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++

	staged := make([]*models.ScheduleAssignment, 0, len(rows))
	for i, r := range rows {
		if m.failReplace && i == len(rows)/2 {
			return 0, errInjected
		}
		staged = append(staged, r)
	}
	m.assignments[ref] = staged
	m.versions[ref]++
	return m.versions[ref], nil
}

func (m *mockScheduleStore) ClearTerm(_ context.Context, ref models.TermRef) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.assignments[ref]))
	delete(m.assignments, ref)
	m.versions[ref]++
	return removed, m.versions[ref], nil
}

func (m *mockScheduleStore) GetTerm(_ context.Context, ref models.TermRef) (*models.ScheduleTerm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[ref]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.ScheduleTerm{Term: ref.Term, Year: ref.Year, Version: v, AssignmentCount: len(m.assignments[ref])}, nil
}

func (m *mockScheduleStore) CountByTerm(_ context.Context, ref models.TermRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.assignments[ref])), nil
}

func (m *mockScheduleStore) ListByTerm(_ context.Context, ref models.TermRef, offset uint64, limit int) ([]*models.ScheduleAssignment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.assignments[ref]
	start := min(int(offset), len(all))
	end := min(start+limit, len(all))
	return slices.Clone(all[start:end]), int64(len(all)), nil
}

// ── locks ──

// expiringLocker hands out leases that lapse before the run can renew them.
type expiringLocker struct{}

func (expiringLocker) Acquire(_ context.Context, key string, _ time.Duration) (lock.Lease, error) {
	return expiredLease{key: key}, nil
}

type expiredLease struct{ key string }

func (l expiredLease) Key() string                               { return l.key }
func (expiredLease) Extend(context.Context, time.Duration) error { return lock.ErrLockLost }
func (expiredLease) Release(context.Context) error               { return nil }
