package repositories

import (
	"github.com/yigit/unisphere-scheduler/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	SectionRepository    *SectionRepository
	ClassroomRepository  *ClassroomRepository
	InstructorRepository *InstructorRepository
	ScheduleRepository   *ScheduleRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		SectionRepository:    NewSectionRepository(database.Pool),
		ClassroomRepository:  NewClassroomRepository(database.Pool),
		InstructorRepository: NewInstructorRepository(database.Pool),
		ScheduleRepository:   NewScheduleRepository(database.Pool),
	}
}
