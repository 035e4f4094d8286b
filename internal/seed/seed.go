package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/unisphere-scheduler/internal/app/models"
	appRepos "github.com/yigit/unisphere-scheduler/internal/app/repositories"
)

// ClassroomWriter is the part of the classroom repository seeding needs
type ClassroomWriter interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, classroom *appModels.Classroom) error
}

// DefaultClassrooms gives a fresh install enough rooms to try a run against
func DefaultClassrooms() []appModels.Classroom {
	return []appModels.Classroom{
		{Name: "ENG-101", Building: "Engineering", Capacity: 120},
		{Name: "ENG-102", Building: "Engineering", Capacity: 60},
		{Name: "ENG-201", Building: "Engineering", Capacity: 40},
		{Name: "ENG-LAB1", Building: "Engineering", Capacity: 30, IsLab: true},
		{Name: "SCI-101", Building: "Science", Capacity: 80},
		{Name: "SCI-LAB1", Building: "Science", Capacity: 24, IsLab: true},
	}
}

// CreateDefaultData inserts the default classrooms when the pool has none.
// Existing rooms are left alone; a duplicate name is not an error.
func CreateDefaultData(ctx context.Context, classrooms ClassroomWriter, lgr zerolog.Logger) error {
	count, err := classrooms.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count classrooms: %w", err)
	}
	if count > 0 {
		lgr.Debug().Int64("classrooms", count).Msg("Classrooms already present, skipping seed")
		return nil
	}

	lgr.Info().Msg("Creating default classrooms...")
	var finalErr error // collect errors without stopping the process
	created := 0
	for _, room := range DefaultClassrooms() {
		err := classrooms.Create(ctx, &room)
		switch {
		case err == nil:
			created++
		case errors.Is(err, appRepos.ErrClassroomAlreadyExists):
		default:
			lgr.Error().Err(err).Str("classroom", room.Name).Msg("Error creating classroom")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("created", created).Msg("Default classrooms ready")
	return finalErr
}
