package app

import (
	"context"

	"gorm.io/gorm"

	httpserver "github.com/yungbote/taskboard-backend/internal/http"
	httpH "github.com/yungbote/taskboard-backend/internal/http/handlers"
	httpMW "github.com/yungbote/taskboard-backend/internal/http/middleware"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/realtime"
)

func readinessChecks(db *gorm.DB, clients Clients) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func wireServer(log *logger.Logger, cfg Config, db *gorm.DB, svc Services, clients Clients, metrics *observability.Metrics, hub *realtime.Hub) *httpserver.Server {
	log.Info("Wiring handlers...")
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		TracingEnabled:  cfg.Otel.Enabled,
		ServiceName:     cfg.Otel.ServiceName,
		APIPrefix:       cfg.APIV1Str,
		CORSOrigins:     cfg.CORSOrigins,
		AuthRequired:    cfg.Auth.Required,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, svc.Auth),
		AuthHandler:     httpH.NewAuthHandler(svc.Auth),
		ProjectHandler:  httpH.NewProjectHandler(svc.Project, svc.Report),
		TaskHandler:     httpH.NewTaskHandler(svc.Task),
		UserHandler:     httpH.NewUserHandler(svc.User),
		HealthHandler:   httpH.NewHealthHandler(readinessChecks(db, clients)),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub, svc.Project),
	})
}
