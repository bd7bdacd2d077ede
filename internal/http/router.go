package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/taskboard-backend/internal/http/handlers"
	httpMW "github.com/yungbote/taskboard-backend/internal/http/middleware"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	ServiceName    string
	APIPrefix      string
	CORSOrigins    []string
	// AuthRequired rejects anonymous requests outside the public routes.
	AuthRequired bool

	AuthMiddleware  *httpMW.AuthMiddleware
	AuthHandler     *httpH.AuthHandler
	ProjectHandler  *httpH.ProjectHandler
	TaskHandler     *httpH.TaskHandler
	UserHandler     *httpH.UserHandler
	HealthHandler   *httpH.HealthHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	httpH.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.TraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/ready", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", func(c *gin.Context) { cfg.Metrics.WriteHTTP(c.Writer, c.Request) })
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	{
		// Public
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.UserHandler != nil {
			api.POST("/users", cfg.UserHandler.Create)
		}
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		if cfg.AuthRequired {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		} else {
			protected.Use(cfg.AuthMiddleware.OptionalAuth())
		}
	}
	{
		// Projects
		if h := cfg.ProjectHandler; h != nil {
			protected.POST("/projects", h.Create)
			protected.GET("/projects", h.List)
			protected.GET("/projects/:id", h.Get)
			protected.PATCH("/projects/:id", h.Update)
			protected.DELETE("/projects/:id", h.Delete)
			protected.POST("/projects/:id/members", h.AddMember)
			protected.DELETE("/projects/:id/members/:user_id", h.RemoveMember)
			protected.POST("/projects/:id/owner", h.TransferOwnership)
			protected.GET("/projects/:id/health", h.Health)
			protected.GET("/projects/:id/velocity", h.Velocity)
			protected.GET("/projects/:id/burndown", h.Burndown)
			protected.GET("/projects/:id/completion-check", h.CompletionCheck)
			protected.GET("/projects/:id/suggestions", h.Suggestions)
			protected.GET("/projects/:id/bottlenecks", h.Bottlenecks)
			protected.GET("/projects/:id/team-summary", h.TeamSummary)
			protected.GET("/projects/:id/workload", h.Workload)
			protected.GET("/projects/:id/overview", h.Overview)
		}

		// Tasks
		if h := cfg.TaskHandler; h != nil {
			protected.POST("/tasks", h.Create)
			protected.GET("/tasks", h.List)
			protected.GET("/tasks/:id", h.Get)
			protected.PATCH("/tasks/:id", h.Update)
			protected.DELETE("/tasks/:id", h.Delete)
			protected.POST("/tasks/:id/tags", h.AddTag)
			protected.DELETE("/tasks/:id/tags/:tag", h.RemoveTag)
			protected.GET("/tasks/:id/risk", h.Risk)
			protected.GET("/tasks/:id/complexity", h.Complexity)
			protected.GET("/tasks/:id/similar", h.Similar)
			protected.GET("/tasks/:id/dependents", h.Dependents)
			protected.GET("/tasks/:id/suggestions", h.Suggestions)
		}

		// Users
		if h := cfg.UserHandler; h != nil {
			protected.GET("/users", h.List)
			protected.GET("/users/me", h.GetMe)
			protected.GET("/users/:id", h.Get)
			protected.PATCH("/users/:id", h.Update)
			protected.DELETE("/users/:id", h.Delete)
			protected.GET("/users/:id/productivity", h.Productivity)
			protected.GET("/users/:id/workload", h.Workload)
			protected.GET("/users/:id/suggestions", h.Suggestions)
			protected.GET("/users/:id/timeline", h.Timeline)
		}

		// Realtime
		if h := cfg.RealtimeHandler; h != nil {
			protected.GET("/projects/:id/events", h.ProjectStream)
			protected.GET("/users/me/events", h.UserStream)
		}
	}

	return r
}
