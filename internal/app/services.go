// Package app wires repositories and services together for the server and
// the command line tool.
package app

import (
	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/config"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Sprints   *services.SprintService
	Tasks     *services.TaskService
	Worklogs  *services.WorklogService
	Calendars *services.CalendarService
}

// NewServices builds every service on db. aiService may be nil, in which
// case task suggestions answer as not configured.
func NewServices(db *gorm.DB, cfg *config.Config, aiService *services.AIService) *Services {
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	sprintRepo := repository.NewSprintRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	sprints := services.NewSprintService(
		sprintRepo,
		productRepo,
		repository.NewSnapshotRepository(db),
		userRepo,
		calendar.Defaults{
			HoursPerDay: cfg.WorkDay(),
			HorizonDays: cfg.ScheduleHorizonDays,
		},
		cfg.ReleaseBufferDays,
	)

	return &Services{
		Auth:      services.NewAuthService(userRepo, cfg.WorkDay()),
		Products:  services.NewProductService(productRepo),
		Sprints:   sprints,
		Tasks:     services.NewTaskService(taskRepo, sprintRepo, productRepo, sprints, aiService),
		Worklogs:  services.NewWorklogService(repository.NewWorklogRepository(db), taskRepo, sprints),
		Calendars: services.NewCalendarService(repository.NewCalendarRepository(db), sprintRepo, sprints, cfg.WorkDay()),
	}
}
