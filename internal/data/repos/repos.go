package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/data/repos/projects"
	"github.com/yungbote/taskboard-backend/internal/data/repos/tasks"
	"github.com/yungbote/taskboard-backend/internal/data/repos/users"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type ProjectRepo = projects.ProjectRepo
type TaskRepo = tasks.TaskRepo
type UserRepo = users.UserRepo

type ProjectFilter = projects.Filter
type TaskFilter = tasks.Filter
type UserFilter = users.Filter

// Repos bundles every repository over one database handle.
type Repos struct {
	Project ProjectRepo
	Task    TaskRepo
	User    UserRepo
}

func New(db *gorm.DB, log *logger.Logger, clock aggregates.Clock) Repos {
	taskRepo := tasks.NewTaskRepo(db, log, clock)
	return Repos{
		Project: projects.NewProjectRepo(db, log, clock, taskRepo),
		Task:    taskRepo,
		User:    users.NewUserRepo(db, log, clock),
	}
}
