package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/taskboard-backend/internal/domain/analytics"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// ProjectOverview gathers every project report in one response.
type ProjectOverview struct {
	ProjectID   string                    `json:"project_id"`
	Health      analytics.HealthScore     `json:"health"`
	Velocity    analytics.Velocity        `json:"velocity"`
	Burndown    []analytics.BurndownPoint `json:"burndown"`
	Completion  CompletionCheck           `json:"completion"`
	Team        analytics.TeamSummary     `json:"team"`
	Bottlenecks []analytics.Bottleneck    `json:"bottlenecks"`
	Suggestions []string                  `json:"suggestions"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

type ReportService interface {
	ProjectOverview(ctx context.Context, projectID string, velocityDays int) (ProjectOverview, error)
}

type reportService struct {
	log      *logger.Logger
	projects ProjectService
	clock    func() time.Time
}

func NewReportService(deps Deps, projects ProjectService) ReportService {
	deps = deps.withDefaults()
	return &reportService{
		log:      deps.Log.With("service", "ReportService"),
		projects: projects,
		clock:    deps.Clock.Now,
	}
}

// ProjectOverview computes the project reports concurrently; the first failure cancels the rest.
func (s *reportService) ProjectOverview(ctx context.Context, projectID string, velocityDays int) (ProjectOverview, error) {
	if _, _, err := s.projects.Get(ctx, projectID); err != nil {
		return ProjectOverview{}, err
	}
	out := ProjectOverview{ProjectID: projectID, GeneratedAt: s.clock()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Health, err = s.projects.Health(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		out.Velocity, err = s.projects.Velocity(gctx, projectID, velocityDays)
		return err
	})
	g.Go(func() (err error) {
		out.Burndown, err = s.projects.Burndown(gctx, projectID, 0)
		return err
	})
	g.Go(func() (err error) {
		out.Completion, err = s.projects.CompletionCheck(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		out.Team, err = s.projects.TeamSummary(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		out.Bottlenecks, err = s.projects.Bottlenecks(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		out.Suggestions, err = s.projects.Suggestions(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("project overview failed", "project_id", projectID, "error", err)
		return ProjectOverview{}, err
	}
	return out, nil
}
