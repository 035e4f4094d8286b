package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appModels "github.com/yigit/unisphere-scheduler/internal/app/models"
	appRepos "github.com/yigit/unisphere-scheduler/internal/app/repositories"
)

type fakeClassrooms struct {
	rooms   []appModels.Classroom
	failOn  string
	countFn func() (int64, error)
}

func (f *fakeClassrooms) Count(context.Context) (int64, error) {
	if f.countFn != nil {
		return f.countFn()
	}
	return int64(len(f.rooms)), nil
}

func (f *fakeClassrooms) Create(_ context.Context, c *appModels.Classroom) error {
	if c.Name == f.failOn {
		return errors.New("insert failed")
	}
	for _, r := range f.rooms {
		if r.Name == c.Name {
			return appRepos.ErrClassroomAlreadyExists
		}
	}
	f.rooms = append(f.rooms, *c)
	return nil
}

func TestCreateDefaultDataSeedsEmptyPool(t *testing.T) {
	repo := &fakeClassrooms{}
	require.NoError(t, CreateDefaultData(context.Background(), repo, zerolog.Nop()))
	assert.Len(t, repo.rooms, len(DefaultClassrooms()))

	labs := 0
	for _, r := range repo.rooms {
		if r.IsLab {
			labs++
		}
	}
	assert.Equal(t, 2, labs)
}

func TestCreateDefaultDataSkipsPopulatedPool(t *testing.T) {
	repo := &fakeClassrooms{rooms: []appModels.Classroom{{Name: "HALL-A", Capacity: 300}}}
	require.NoError(t, CreateDefaultData(context.Background(), repo, zerolog.Nop()))
	assert.Len(t, repo.rooms, 1)
}

func TestCreateDefaultDataCollectsErrors(t *testing.T) {
	repo := &fakeClassrooms{failOn: "SCI-101"}
	err := CreateDefaultData(context.Background(), repo, zerolog.Nop())
	require.Error(t, err)
	assert.Len(t, repo.rooms, len(DefaultClassrooms())-1)

	repo = &fakeClassrooms{countFn: func() (int64, error) { return 0, errors.New("db down") }}
	assert.Error(t, CreateDefaultData(context.Background(), repo, zerolog.Nop()))
}
