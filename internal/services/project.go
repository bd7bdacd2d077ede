package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/taskboard-backend/internal/cache"
	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/analytics"
	"github.com/yungbote/taskboard-backend/internal/domain/project"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type CreateProjectInput struct {
	Name        string
	Description string
	// OwnerID is used when the request carries no authenticated actor.
	OwnerID string
}

// UpdateProjectInput holds a partial update; nil fields are left alone.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
	// Version, when non-zero, must match the stored version.
	Version int
}

type ProjectListInput struct {
	OwnerID  string
	MemberID string
	Status   string
	Page     query.Page
}

// CompletionCheck answers whether a project may be completed now.
type CompletionCheck struct {
	CanComplete bool   `json:"can_complete"`
	Reason      string `json:"reason"`
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, int, error)
	Update(ctx context.Context, id string, in UpdateProjectInput) (*project.Project, int, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in ProjectListInput) (Page[*project.Project], error)
	AddMember(ctx context.Context, id, userID string) (*project.Project, error)
	RemoveMember(ctx context.Context, id, userID string) (*project.Project, error)
	TransferOwnership(ctx context.Context, id, userID string) (*project.Project, int, error)

	Health(ctx context.Context, id string) (analytics.HealthScore, error)
	Velocity(ctx context.Context, id string, days int) (analytics.Velocity, error)
	Burndown(ctx context.Context, id string, days int) ([]analytics.BurndownPoint, error)
	CompletionCheck(ctx context.Context, id string) (CompletionCheck, error)
	Suggestions(ctx context.Context, id string) ([]string, error)
	Bottlenecks(ctx context.Context, id string) ([]analytics.Bottleneck, error)
	TeamSummary(ctx context.Context, id string) (analytics.TeamSummary, error)
	Workload(ctx context.Context, id string) (map[string]analytics.Workload, error)
}

type projectService struct {
	deps   Deps
	log    *logger.Logger
	repos  repos.Repos
	writer *dataagg.Writer
	cache  *cache.Loader
	events events.Publisher
	perms  analytics.Permissions
}

func NewProjectService(deps Deps) ProjectService {
	deps = deps.withDefaults()
	return &projectService{
		deps:   deps,
		log:    deps.Log.With("service", "ProjectService"),
		repos:  deps.Repos,
		writer: deps.writer(),
		cache:  deps.Cache,
		events: deps.Events,
		perms:  deps.Permissions,
	}
}

func (s *projectService) now() time.Time { return s.deps.Clock.Now() }

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*project.Project, error) {
	const op = "ProjectService.Create"
	owner := actor(ctx)
	if owner.IsZero() {
		var err error
		if owner, err = parseOptionalUserID(in.OwnerID); err != nil {
			return nil, err
		}
	}
	if owner.IsZero() {
		return nil, aggregates.ValidationError(op, "owner id is required")
	}
	if !s.perms.CanCreateProject(owner) {
		return nil, forbidden(op, "not allowed to create projects")
	}
	p, err := project.New(project.NewParams{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		OwnerID:     owner,
	}, project.WithClock(s.deps.Clock))
	if err != nil {
		return nil, err
	}
	if err := p.AddMember(owner); err != nil {
		return nil, err
	}

	var box outbox
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		u, version, err := s.repos.User.GetByID(dbc, owner)
		if err != nil {
			return err
		}
		if err := s.repos.Project.Create(dbc, p); err != nil {
			return err
		}
		if err := u.AddProject(p.ID()); err != nil {
			return err
		}
		if _, err := s.repos.User.Save(dbc, u, version); err != nil {
			return err
		}
		box.add(dbc.Ctx, events.ProjectCreated, p.ID().String(), map[string]any{
			"name":     p.Name(),
			"owner_id": owner.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.events)
	s.log.Info("project created", "project_id", p.ID().String(), "owner_id", owner.String())
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*project.Project, int, error) {
	pid, err := vo.ParseProjectID(id)
	if err != nil {
		return nil, 0, err
	}
	return s.repos.Project.GetByID(dbctx.New(ctx), pid)
}

func (s *projectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*project.Project, int, error) {
	const op = "ProjectService.Update"
	pid, err := vo.ParseProjectID(id)
	if err != nil {
		return nil, 0, err
	}
	var target vo.ProjectStatus
	if in.Status != nil {
		if target, err = vo.ParseProjectStatus(*in.Status); err != nil {
			return nil, 0, err
		}
	}

	var (
		box     outbox
		updated *project.Project
		version int
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		p, current, err := s.repos.Project.GetByID(dbc, pid)
		if err != nil {
			return err
		}
		if err := dataagg.RequireVersionMatch(current, in.Version); err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanModifyProject(p, who) {
			return forbidden(op, "not allowed to modify this project")
		}
		changes := map[string]any{}
		if in.Name != nil {
			if err := p.UpdateName(strings.TrimSpace(*in.Name)); err != nil {
				return err
			}
			changes["name"] = p.Name()
		}
		if in.Description != nil {
			if err := p.UpdateDescription(*in.Description); err != nil {
				return err
			}
			changes["description"] = p.Description()
		}
		if in.Status != nil && target != p.Status() {
			from := p.Status()
			if err := p.TransitionTo(target); err != nil {
				return err
			}
			changes["status"] = map[string]any{"from": from.String(), "to": target.String()}
		}
		if len(changes) == 0 {
			updated, version = p, current
			return nil
		}
		if version, err = s.repos.Project.Save(dbc, p, current); err != nil {
			return err
		}
		updated = p
		box.add(dbc.Ctx, events.ProjectUpdated, p.ID().String(), changes)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	return updated, version, nil
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	const op = "ProjectService.Delete"
	pid, err := vo.ParseProjectID(id)
	if err != nil {
		return err
	}
	var box outbox
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		p, _, err := s.repos.Project.GetByID(dbc, pid)
		if err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanDeleteProject(p, who) {
			return forbidden(op, "only the project owner can delete a project")
		}
		for _, uid := range p.Members() {
			u, version, err := s.repos.User.GetByID(dbc, uid)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if !u.ParticipatesIn(pid) {
				continue
			}
			u.RemoveProject(pid)
			if _, err := s.repos.User.Save(dbc, u, version); err != nil {
				return err
			}
		}
		if err := s.repos.Project.Delete(dbc, pid); err != nil {
			return err
		}
		box.add(dbc.Ctx, events.ProjectDeleted, pid.String(), map[string]any{"tasks": len(p.Tasks())})
		return nil
	})
	if err != nil {
		return err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	s.log.Info("project deleted", "project_id", pid.String())
	return nil
}

func (s *projectService) List(ctx context.Context, in ProjectListInput) (Page[*project.Project], error) {
	var f repos.ProjectFilter
	var err error
	if f.OwnerID, err = parseOptionalUserID(in.OwnerID); err != nil {
		return Page[*project.Project]{}, err
	}
	if f.MemberID, err = parseOptionalUserID(in.MemberID); err != nil {
		return Page[*project.Project]{}, err
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		if f.Status, err = vo.ParseProjectStatus(raw); err != nil {
			return Page[*project.Project]{}, err
		}
	}
	page := in.Page.Normalize()
	items, total, err := s.repos.Project.List(dbctx.New(ctx), f, page)
	if err != nil {
		return Page[*project.Project]{}, err
	}
	return newPage(items, total, page), nil
}

func (s *projectService) AddMember(ctx context.Context, id, userID string) (*project.Project, error) {
	return s.changeMembership(ctx, "ProjectService.AddMember", id, userID, true)
}

func (s *projectService) RemoveMember(ctx context.Context, id, userID string) (*project.Project, error) {
	return s.changeMembership(ctx, "ProjectService.RemoveMember", id, userID, false)
}

func (s *projectService) changeMembership(ctx context.Context, op, id, userID string, add bool) (*project.Project, error) {
	pid, err := vo.ParseProjectID(id)
	if err != nil {
		return nil, err
	}
	uid, err := vo.ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	var (
		box     outbox
		updated *project.Project
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		p, version, err := s.repos.Project.GetByID(dbc, pid)
		if err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanModifyProject(p, who) {
			admin, err := s.canManageUsers(dbc, who)
			if err != nil {
				return err
			}
			if !admin {
				return forbidden(op, "not allowed to change project members")
			}
		}
		u, userVersion, err := s.repos.User.GetByID(dbc, uid)
		if err != nil {
			return err
		}
		eventType := events.ProjectMemberAdded
		if add {
			if err := p.AddMember(uid); err != nil {
				return err
			}
			if !u.ParticipatesIn(pid) {
				if err := u.AddProject(pid); err != nil {
					return err
				}
			}
		} else {
			if err := p.RemoveMember(uid); err != nil {
				return err
			}
			u.RemoveProject(pid)
			eventType = events.ProjectMemberRemoved
		}
		if _, err := s.repos.Project.Save(dbc, p, version); err != nil {
			return err
		}
		if _, err := s.repos.User.Save(dbc, u, userVersion); err != nil {
			return err
		}
		updated = p
		box.add(dbc.Ctx, eventType, pid.String(), map[string]any{"user_id": uid.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	return updated, nil
}

func (s *projectService) TransferOwnership(ctx context.Context, id, userID string) (*project.Project, int, error) {
	const op = "ProjectService.TransferOwnership"
	pid, err := vo.ParseProjectID(id)
	if err != nil {
		return nil, 0, err
	}
	uid, err := vo.ParseUserID(userID)
	if err != nil {
		return nil, 0, err
	}
	var (
		box     outbox
		updated *project.Project
		version int
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		p, current, err := s.repos.Project.GetByID(dbc, pid)
		if err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() {
			u, _, err := s.repos.User.GetByID(dbc, who)
			if err != nil && !isNotFound(err) {
				return err
			}
			if u == nil || (!analytics.CanTransferOwnership(u, p) && !analytics.ValidateUserPermission(u, analytics.ActionManageUsers)) {
				return forbidden(op, "only the project owner can transfer ownership")
			}
		}
		if _, _, err := s.repos.User.GetByID(dbc, uid); err != nil {
			return err
		}
		from := p.OwnerID()
		if err := p.TransferOwnership(uid); err != nil {
			return err
		}
		if version, err = s.repos.Project.Save(dbc, p, current); err != nil {
			return err
		}
		updated = p
		box.add(dbc.Ctx, events.ProjectOwnerChanged, pid.String(), map[string]any{
			"from": from.String(),
			"to":   uid.String(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	s.log.Info("project ownership transferred", "project_id", pid.String(), "owner_id", uid.String())
	return updated, version, nil
}

// canManageUsers reports whether the acting user holds the user-management role, which
// lets them change membership of projects they are not part of.
func (s *projectService) canManageUsers(dbc dbctx.Context, who vo.UserID) (bool, error) {
	u, _, err := s.repos.User.GetByID(dbc, who)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return analytics.ValidateUserPermission(u, analytics.ActionManageUsers), nil
}

func (s *projectService) load(ctx context.Context, id string) (*project.Project, error) {
	p, _, err := s.Get(ctx, id)
	return p, err
}

func (s *projectService) Health(ctx context.Context, id string) (analytics.HealthScore, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return analytics.HealthScore{}, err
	}
	return analytics.ProjectHealth(p, s.now()), nil
}

func (s *projectService) Velocity(ctx context.Context, id string, days int) (analytics.Velocity, error) {
	days = positiveOr(days, 7)
	p, err := s.load(ctx, id)
	if err != nil {
		return analytics.Velocity{}, err
	}
	return analytics.ProjectVelocity(p, days, s.now()), nil
}

func (s *projectService) Burndown(ctx context.Context, id string, days int) ([]analytics.BurndownPoint, error) {
	days = positiveOr(days, 30)
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	key := reportKey(p, "burndown:"+strconv.Itoa(days), now)
	return cache.Load(ctx, s.cache, "project", key, func(context.Context) ([]analytics.BurndownPoint, error) {
		return analytics.ProjectBurndown(p, days, now), nil
	})
}

func (s *projectService) CompletionCheck(ctx context.Context, id string) (CompletionCheck, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return CompletionCheck{}, err
	}
	ok, reason := analytics.CanCompleteProject(p, s.now())
	return CompletionCheck{CanComplete: ok, Reason: reason}, nil
}

func (s *projectService) Suggestions(ctx context.Context, id string) ([]string, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return cache.Load(ctx, s.cache, "project", reportKey(p, "suggestions", now), func(context.Context) ([]string, error) {
		return analytics.ProjectSuggestions(p, now), nil
	})
}

func (s *projectService) Bottlenecks(ctx context.Context, id string) ([]analytics.Bottleneck, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.Bottlenecks(p.Tasks(), s.now()), nil
}

func (s *projectService) TeamSummary(ctx context.Context, id string) (analytics.TeamSummary, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return analytics.TeamSummary{}, err
	}
	now := s.now()
	return cache.Load(ctx, s.cache, "project", reportKey(p, "team", now), func(ctx context.Context) (analytics.TeamSummary, error) {
		members, err := s.repos.User.GetByIDs(dbctx.New(ctx), p.Members())
		if err != nil {
			return analytics.TeamSummary{}, err
		}
		if len(members) != len(p.Members()) {
			s.log.Warn("project members missing from user store", "project_id", p.ID().String(),
				"members", len(p.Members()), "found", len(members))
		}
		return analytics.TeamPerformance(members, p.Tasks(), now), nil
	})
}

// Workload summarizes each member's assigned tasks in this project, keyed by user id.
func (s *projectService) Workload(ctx context.Context, id string) (map[string]analytics.Workload, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := map[string]analytics.Workload{
		p.OwnerID().String(): analytics.WorkloadDistribution(p.Tasks(), p.OwnerID(), now),
	}
	for _, uid := range p.Members() {
		out[uid.String()] = analytics.WorkloadDistribution(p.Tasks(), uid, now)
	}
	return out, nil
}

// reportKey scopes a cached report to the minute it was computed in. Writes invalidate
// the project prefix; the minute stamp keeps clock-dependent figures from outliving it.
func reportKey(p *project.Project, name string, now time.Time) string {
	return p.ID().String() + ":" + name + ":" + strconv.FormatInt(now.Truncate(time.Minute).Unix(), 10)
}

// isNotFound reports whether err is a not_found failure.
func isNotFound(err error) bool {
	return err != nil && aggregates.IsCode(err, aggregates.CodeNotFound)
}
