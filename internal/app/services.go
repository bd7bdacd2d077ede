package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/cache"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	Project services.ProjectService
	Task    services.TaskService
	User    services.UserService
	Report  services.ReportService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients, metrics *observability.Metrics, clock aggregates.Clock) Services {
	log.Info("Wiring services...")
	deps := services.Deps{
		DB:      db,
		Log:     log,
		Repos:   reposet,
		Cache:   cache.NewLoader(clients.Cache, log, metrics),
		Events:  clients.Publisher,
		Metrics: metrics,
		Clock:   clock,
	}
	projects := services.NewProjectService(deps)
	return Services{
		Auth:    services.NewAuthService(deps, cfg.Auth.SecretKey, cfg.AccessTokenTTL()),
		Project: projects,
		Task:    services.NewTaskService(deps),
		User:    services.NewUserService(deps),
		Report:  services.NewReportService(deps, projects),
	}
}

// NewServices wires the services over db without redis, metrics or HTTP, for one-shot tooling.
func NewServices(db *gorm.DB, log *logger.Logger, cfg Config) Services {
	return wireServices(db, log, cfg, wireRepos(db, log, nil), Clients{}, nil, nil)
}
