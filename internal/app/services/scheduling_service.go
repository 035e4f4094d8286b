package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/app/repositories"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/helpers"
	"github.com/yigit/unisphere-scheduler/internal/pkg/lock"
	"github.com/yigit/unisphere-scheduler/internal/pkg/metrics"
	"github.com/yigit/unisphere-scheduler/internal/pkg/validation"
	"github.com/yigit/unisphere-scheduler/internal/scheduler"
)

// SectionStore reads the sections offered in a term
type SectionStore interface {
	ListByTerm(ctx context.Context, term models.Term, year int) ([]*models.Section, error)
	CountByTerm(ctx context.Context, term models.Term, year int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ClassroomStore reads classrooms and their external bookings
type ClassroomStore interface {
	ListAll(ctx context.Context) ([]*models.Classroom, error)
	ListBookings(ctx context.Context, term models.Term, year int) ([]*models.ClassroomBooking, error)
	Count(ctx context.Context) (int64, error)
}

// InstructorStore reads instructors and their unavailability windows
type InstructorStore interface {
	ListAll(ctx context.Context) ([]*models.Instructor, error)
	ListUnavailability(ctx context.Context, term models.Term, year int) ([]*models.InstructorUnavailability, error)
	Count(ctx context.Context) (int64, error)
}

// ScheduleStore persists the schedule of record. ReplaceTerm and ClearTerm are atomic.
type ScheduleStore interface {
	ReplaceTerm(ctx context.Context, ref models.TermRef, runID uuid.UUID, assignments []*models.ScheduleAssignment) (int64, error)
	ClearTerm(ctx context.Context, ref models.TermRef) (removed int64, version int64, err error)
	GetTerm(ctx context.Context, ref models.TermRef) (*models.ScheduleTerm, error)
	CountByTerm(ctx context.Context, ref models.TermRef) (int64, error)
	ListByTerm(ctx context.Context, ref models.TermRef, offset uint64, limit int) ([]*models.ScheduleAssignment, int64, error)
}

// SchedulingService defines the scheduling run operations
type SchedulingService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.RunResult, error)
	ClearSchedule(ctx context.Context, req dto.ClearScheduleRequest) (*dto.ClearScheduleResponse, error)
	GetInfo(ctx context.Context, semester string, year int) (*dto.ScheduleInfoResponse, error)
	GetSchedule(ctx context.Context, semester string, year, page, size int) (*dto.PaginatedResponse, error)
}

// SchedulingConfig tunes runs
type SchedulingConfig struct {
	Grid          scheduler.Grid
	MaxBacktracks int
	Timeout       time.Duration
	LockTTL       time.Duration
}

// SchedulingStores groups the data access the coordinator needs
type SchedulingStores struct {
	Sections    SectionStore
	Classrooms  ClassroomStore
	Instructors InstructorStore
	Schedules   ScheduleStore
}

// schedulingServiceImpl coordinates one run per request: load snapshot, search, optionally commit
type schedulingServiceImpl struct {
	stores  SchedulingStores
	engine  *scheduler.Engine
	locker  lock.Locker
	metrics *metrics.Metrics
	cfg     SchedulingConfig
	logger  zerolog.Logger
}

// NewSchedulingService creates a new scheduling service instance
func NewSchedulingService(stores SchedulingStores, locker lock.Locker, m *metrics.Metrics, cfg SchedulingConfig, logger zerolog.Logger) SchedulingService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = lock.DefaultTTL
	}
	if m == nil {
		m = metrics.New()
	}
	return &schedulingServiceImpl{
		stores:  stores,
		engine:  scheduler.NewEngine(scheduler.Options{MaxBacktracks: cfg.MaxBacktracks, Timeout: cfg.Timeout}, logger),
		locker:  locker,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
	}
}

// Generate runs the engine once for the term. Commit runs hold the term lock from snapshot load to commit.
// Loading and searching share one deadline of cfg.Timeout; the commit runs on the caller's context.
func (s *schedulingServiceImpl) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.RunResult, error) {
	ref, err := validation.Term(req.Semester, req.Year)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	mode := metrics.ModeCommit
	if req.PreviewOnly {
		mode = metrics.ModePreview
	}
	log := s.logger.With().Str("runID", runID.String()).Str("term", ref.String()).Str("mode", mode).Logger()

	var lease lock.Lease
	if !req.PreviewOnly {
		lease, err = s.acquire(ctx, ref)
		if err != nil {
			log.Warn().Err(err).Msg("Schedule run refused")
			return nil, err
		}
		defer s.release(lease)
	}

	log.Info().Msg("Schedule run started")

	// Every run that got past the lock is counted, whatever its outcome.
	started := time.Now()
	observed := metrics.Run{Mode: mode, State: metrics.StateFailed}
	defer func() {
		if observed.Duration == 0 {
			observed.Duration = time.Since(started)
		}
		s.metrics.ObserveRun(observed)
	}()

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	problem, err := s.loadProblem(runCtx, ref)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			observed.State = metrics.StateCanceled
			return nil, fmt.Errorf("%w: %v", apperrors.ErrRunCanceled, ctx.Err())
		case runCtx.Err() != nil:
			observed.State = metrics.StateTimedOut
			log.Warn().Err(err).Dur("timeout", s.cfg.Timeout).Msg("Scheduling snapshot load hit the run time limit")
			return nil, fmt.Errorf("%w: %v", apperrors.ErrRunTimedOut, err)
		}
		log.Error().Err(err).Msg("Failed to load scheduling snapshot")
		return nil, fmt.Errorf("failed to load scheduling snapshot: %w", err)
	}

	result, err := s.engine.Solve(runCtx, problem)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrCanceled):
			observed.State = metrics.StateCanceled
			log.Info().Msg("Schedule run canceled")
			return nil, fmt.Errorf("%w: %v", apperrors.ErrRunCanceled, err)
		case errors.Is(err, scheduler.ErrInvalidProblem):
			log.Warn().Err(err).Msg("Scheduling snapshot rejected")
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
		default:
			return nil, err
		}
	}

	out := dto.NewRunResult(result)
	out.RunID = runID
	out.Semester = ref.Term
	out.Year = ref.Year
	out.PreviewOnly = req.PreviewOnly

	if !req.PreviewOnly {
		version, err := s.commit(ctx, lease, ref, runID, problem, result)
		if err != nil {
			if ctx.Err() != nil {
				observed.State = metrics.StateCanceled
				log.Info().Msg("Schedule run canceled before commit")
				return nil, fmt.Errorf("%w: %v", apperrors.ErrRunCanceled, ctx.Err())
			}
			log.Error().Err(err).Msg("Schedule commit failed")
			return nil, fmt.Errorf("%w: %w", apperrors.ErrScheduleCommitFailed, err)
		}
		out.Version = version
	}

	observed = metrics.Run{
		Mode:       mode,
		State:      out.State,
		Backtracks: result.Statistics.BacktrackCount,
		Duration:   result.Statistics.Duration,
		Unassigned: lo.CountValuesBy(result.Unassigned, func(u scheduler.Unassigned) string { return string(u.Reason) }),
	}
	log.Info().
		Str("state", out.State).
		Int("scheduled", out.Statistics.ScheduledSections).
		Int("unscheduled", out.Statistics.UnscheduledSections).
		Int("backtracks", out.Statistics.BacktrackCount).
		Int64("durationMs", out.Statistics.DurationMs).
		Int64("version", out.Version).
		Msg("Schedule run finished")

	return &out, nil
}

// commit verifies the result, renews the term lease for the write and replaces the term's
// schedule in one transaction
func (s *schedulingServiceImpl) commit(ctx context.Context, lease lock.Lease, ref models.TermRef, runID uuid.UUID, problem scheduler.Problem, result *scheduler.Result) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := scheduler.Verify(problem, result); err != nil {
		return 0, err
	}
	if err := lease.Extend(ctx, s.cfg.LockTTL); err != nil {
		return 0, fmt.Errorf("term lock expired before commit: %w", err)
	}

	rows := lo.Map(result.SortedAssignments(), func(a scheduler.Assignment, _ int) *models.ScheduleAssignment {
		first := a.Meetings[0]
		return &models.ScheduleAssignment{
			Term:            ref.Term,
			Year:            ref.Year,
			SectionID:       a.SectionID,
			CourseCode:      a.CourseCode,
			SectionLabel:    a.SectionLabel,
			ClassroomID:     a.ClassroomID,
			InstructorID:    a.InstructorID,
			Days:            lo.Map(a.Meetings, func(m scheduler.TimeSlot, _ int) int16 { return int16(m.Day) }),
			StartMinute:     first.Start,
			DurationMinutes: first.Duration,
			TimeSlot:        a.TimeSlotLabel(),
			RunID:           runID,
		}
	})
	return s.stores.Schedules.ReplaceTerm(ctx, ref, runID, rows)
}

// ClearSchedule removes the term's assignments. Clearing an empty term succeeds.
func (s *schedulingServiceImpl) ClearSchedule(ctx context.Context, req dto.ClearScheduleRequest) (*dto.ClearScheduleResponse, error) {
	ref, err := validation.Term(req.Semester, req.Year)
	if err != nil {
		return nil, err
	}

	lease, err := s.acquire(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer s.release(lease)

	removed, version, err := s.stores.Schedules.ClearTerm(ctx, ref)
	if err != nil {
		s.logger.Error().Err(err).Str("term", ref.String()).Msg("Failed to clear schedule")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrScheduleCommitFailed, err)
	}

	s.logger.Info().Str("term", ref.String()).Int64("removed", removed).Int64("version", version).Msg("Schedule cleared")
	return &dto.ClearScheduleResponse{Semester: ref.Term, Year: ref.Year, Removed: removed, Version: version}, nil
}

// GetInfo returns the dashboard counts. With a term, sections are counted for that term only
// and the persisted schedule is summarized too.
func (s *schedulingServiceImpl) GetInfo(ctx context.Context, semester string, year int) (*dto.ScheduleInfoResponse, error) {
	info := &dto.ScheduleInfoResponse{TimeSlots: s.cfg.Grid.Size()}

	var err error
	if info.TotalClassrooms, err = s.stores.Classrooms.Count(ctx); err != nil {
		return nil, err
	}
	if info.TotalInstructors, err = s.stores.Instructors.Count(ctx); err != nil {
		return nil, err
	}

	if semester == "" && year == 0 {
		if info.TotalSections, err = s.stores.Sections.Count(ctx); err != nil {
			return nil, err
		}
		return info, nil
	}

	ref, err := validation.Term(semester, year)
	if err != nil {
		return nil, err
	}
	if info.TotalSections, err = s.stores.Sections.CountByTerm(ctx, ref.Term, ref.Year); err != nil {
		return nil, err
	}
	count, err := s.stores.Schedules.CountByTerm(ctx, ref)
	if err != nil {
		return nil, err
	}
	info.ScheduledAssignments = &count

	st, err := s.stores.Schedules.GetTerm(ctx, ref)
	switch {
	case err == nil:
		info.ScheduleVersion = &st.Version
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return nil, err
	}
	return info, nil
}

// GetSchedule lists one page of the persisted schedule of a term
func (s *schedulingServiceImpl) GetSchedule(ctx context.Context, semester string, year, page, size int) (*dto.PaginatedResponse, error) {
	ref, err := validation.Term(semester, year)
	if err != nil {
		return nil, err
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	rows, total, err := s.stores.Schedules.ListByTerm(ctx, ref, offset, limit)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedResponse{
		Items: lo.Map(rows, func(a *models.ScheduleAssignment, _ int) dto.ScheduledSectionResponse {
			return dto.NewScheduledSectionResponse(a)
		}),
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

func (s *schedulingServiceImpl) acquire(ctx context.Context, ref models.TermRef) (lock.Lease, error) {
	lease, err := s.locker.Acquire(ctx, ref.LockKey(), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			s.metrics.ObserveLockContention()
			return nil, fmt.Errorf("%w: %s", apperrors.ErrScheduleRunInProgress, ref)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrRunCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("failed to lock term %s: %w", ref, err)
	}
	return lease, nil
}

func (s *schedulingServiceImpl) release(lease lock.Lease) {
	if err := lease.Release(context.Background()); err != nil {
		s.logger.Warn().Err(err).Str("key", lease.Key()).Msg("Failed to release term lock")
	}
}

// loadProblem reads the term snapshot and converts it to engine input
func (s *schedulingServiceImpl) loadProblem(ctx context.Context, ref models.TermRef) (scheduler.Problem, error) {
	sections, err := s.stores.Sections.ListByTerm(ctx, ref.Term, ref.Year)
	if err != nil {
		return scheduler.Problem{}, err
	}
	classrooms, err := s.stores.Classrooms.ListAll(ctx)
	if err != nil {
		return scheduler.Problem{}, err
	}
	bookings, err := s.stores.Classrooms.ListBookings(ctx, ref.Term, ref.Year)
	if err != nil {
		return scheduler.Problem{}, err
	}
	instructors, err := s.stores.Instructors.ListAll(ctx)
	if err != nil {
		return scheduler.Problem{}, err
	}
	windows, err := s.stores.Instructors.ListUnavailability(ctx, ref.Term, ref.Year)
	if err != nil {
		return scheduler.Problem{}, err
	}

	return BuildProblem(s.cfg.Grid, sections, classrooms, bookings, instructors, windows), nil
}

// BuildProblem assembles engine input from persisted records
func BuildProblem(
	grid scheduler.Grid,
	sections []*models.Section,
	classrooms []*models.Classroom,
	bookings []*models.ClassroomBooking,
	instructors []*models.Instructor,
	windows []*models.InstructorUnavailability,
) scheduler.Problem {
	bookingsByRoom := lo.GroupBy(bookings, func(b *models.ClassroomBooking) int64 { return b.ClassroomID })
	windowsByInstructor := lo.GroupBy(windows, func(w *models.InstructorUnavailability) int64 { return w.InstructorID })
	sectionsByInstructor := make(map[int64][]int64)

	p := scheduler.Problem{Grid: grid}
	for _, s := range sections {
		code := ""
		if s.Course != nil {
			code = s.Course.Code
		}
		p.Sections = append(p.Sections, scheduler.Section{
			ID:                s.ID,
			CourseID:          s.CourseID,
			CourseCode:        code,
			Label:             s.Label,
			MeetingsPerWeek:   s.MeetingsPerWeek,
			DurationMinutes:   s.DurationMinutes,
			ExpectedHeadcount: s.ExpectedHeadcount,
			RequiresLab:       s.RequiresLab,
			InstructorID:      s.InstructorID,
		})
		if s.InstructorID != nil {
			sectionsByInstructor[*s.InstructorID] = append(sectionsByInstructor[*s.InstructorID], s.ID)
		}
	}

	for _, c := range classrooms {
		p.Classrooms = append(p.Classrooms, scheduler.Classroom{
			ID:       c.ID,
			Name:     c.Name,
			Capacity: c.Capacity,
			IsLab:    c.IsLab,
			Bookings: lo.Map(bookingsByRoom[c.ID], func(b *models.ClassroomBooking, _ int) scheduler.TimeSlot {
				return scheduler.TimeSlot{Day: scheduler.Weekday(b.Day), Start: b.StartMinute, Duration: b.DurationMinutes}
			}),
		})
	}

	for _, in := range instructors {
		p.Instructors = append(p.Instructors, scheduler.Instructor{
			ID:         in.ID,
			Name:       in.Name,
			SectionIDs: sectionsByInstructor[in.ID],
			Unavailable: lo.Map(windowsByInstructor[in.ID], func(w *models.InstructorUnavailability, _ int) scheduler.TimeSlot {
				return scheduler.TimeSlot{Day: scheduler.Weekday(w.Day), Start: w.StartMinute, Duration: w.DurationMinutes}
			}),
		})
	}
	return p
}
