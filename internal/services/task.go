package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/taskboard-backend/internal/cache"
	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/analytics"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type CreateTaskInput struct {
	ProjectID   string
	Title       string
	Description string
	Priority    string
	AssigneeID  string
	// ReporterID is used when the request carries no authenticated actor.
	ReporterID string
	ParentID   string
	DueDate    *time.Time
	Tags       []string
}

// UpdateTaskInput holds a partial update; nil fields are left alone. An empty
// AssigneeID unassigns; ClearDueDate removes the due date.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *string
	Status       *string
	AssigneeID   *string
	DueDate      *time.Time
	ClearDueDate bool
	Version      int
}

type TaskListInput struct {
	ProjectID  string
	AssigneeID string
	ReporterID string
	Status     string
	Priority   string
	Tags       []string
	Overdue    *bool
	Page       query.Page
}

type TaskComplexity struct {
	TaskID               string  `json:"task_id"`
	Complexity           int     `json:"complexity"`
	EstimatedEffortHours float64 `json:"estimated_effort_hours"`
}

type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, int, error)
	Update(ctx context.Context, id string, in UpdateTaskInput) (*task.Task, int, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in TaskListInput) (Page[*task.Task], error)
	AddTag(ctx context.Context, id, tag string) (*task.Task, error)
	RemoveTag(ctx context.Context, id, tag string) (*task.Task, error)

	Risk(ctx context.Context, id string) (analytics.RiskAssessment, error)
	Complexity(ctx context.Context, id string) (TaskComplexity, error)
	Similar(ctx context.Context, id string) ([]*task.Task, error)
	Dependents(ctx context.Context, id string) ([]*task.Task, error)
	Suggestions(ctx context.Context, id string) ([]string, error)
}

type taskService struct {
	deps   Deps
	log    *logger.Logger
	repos  repos.Repos
	writer *dataagg.Writer
	cache  *cache.Loader
	events events.Publisher
	perms  analytics.Permissions
}

func NewTaskService(deps Deps) TaskService {
	deps = deps.withDefaults()
	return &taskService{
		deps:   deps,
		log:    deps.Log.With("service", "TaskService"),
		repos:  deps.Repos,
		writer: deps.writer(),
		cache:  deps.Cache,
		events: deps.Events,
		perms:  deps.Permissions,
	}
}

func (s *taskService) now() time.Time { return s.deps.Clock.Now() }

func (s *taskService) Create(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	const op = "TaskService.Create"
	pid, err := vo.ParseProjectID(in.ProjectID)
	if err != nil {
		return nil, err
	}
	reporter := actor(ctx)
	if reporter.IsZero() {
		if reporter, err = parseOptionalUserID(in.ReporterID); err != nil {
			return nil, err
		}
	}
	assignee, err := parseOptionalUserID(in.AssigneeID)
	if err != nil {
		return nil, err
	}
	var parent vo.TaskID
	if raw := strings.TrimSpace(in.ParentID); raw != "" {
		if parent, err = vo.ParseTaskID(raw); err != nil {
			return nil, err
		}
	}
	var priority vo.Priority
	if raw := strings.TrimSpace(in.Priority); raw != "" {
		if priority, err = vo.ParsePriority(raw); err != nil {
			return nil, err
		}
	}
	t, err := task.New(task.NewParams{
		ProjectID:   pid,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    priority,
		AssigneeID:  assignee,
		ReporterID:  reporter,
		DueDate:     in.DueDate,
		ParentID:    parent,
		Tags:        in.Tags,
	}, task.WithClock(s.deps.Clock))
	if err != nil {
		return nil, err
	}

	var box outbox
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		p, projectVersion, err := s.repos.Project.GetByID(dbc, pid)
		if err != nil {
			return err
		}
		if err := p.AddTask(t); err != nil {
			return err
		}
		if !assignee.IsZero() {
			if _, _, err := s.repos.User.GetByID(dbc, assignee); err != nil {
				return err
			}
		}
		if !parent.IsZero() {
			pt, parentVersion, err := s.repos.Task.GetByID(dbc, parent)
			if err != nil {
				return err
			}
			if pt.ProjectID() != pid {
				return aggregates.ValidationError(op, "parent task %s belongs to another project", parent)
			}
			if err := pt.AddSubtask(t.ID()); err != nil {
				return err
			}
			if _, err := s.repos.Task.Save(dbc, pt, parentVersion); err != nil {
				return err
			}
		}
		if err := s.repos.Task.Create(dbc, t); err != nil {
			return err
		}
		if _, err := s.repos.Project.Save(dbc, p, projectVersion); err != nil {
			return err
		}
		box.add(dbc.Ctx, events.TaskCreated, t.ID().String(), map[string]any{
			"project_id": pid.String(),
			"title":      t.Title(),
			"priority":   t.Priority().String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	s.log.Debug("task created", "task_id", t.ID().String(), "project_id", pid.String())
	return t, nil
}

func (s *taskService) Get(ctx context.Context, id string) (*task.Task, int, error) {
	tid, err := vo.ParseTaskID(id)
	if err != nil {
		return nil, 0, err
	}
	return s.repos.Task.GetByID(dbctx.New(ctx), tid)
}

func (s *taskService) Update(ctx context.Context, id string, in UpdateTaskInput) (*task.Task, int, error) {
	const op = "TaskService.Update"
	tid, err := vo.ParseTaskID(id)
	if err != nil {
		return nil, 0, err
	}
	var (
		status   vo.TaskStatus
		priority vo.Priority
		assignee vo.UserID
	)
	if in.Status != nil {
		if status, err = vo.ParseTaskStatus(*in.Status); err != nil {
			return nil, 0, err
		}
	}
	if in.Priority != nil {
		if priority, err = vo.ParsePriority(*in.Priority); err != nil {
			return nil, 0, err
		}
	}
	if in.AssigneeID != nil {
		if assignee, err = parseOptionalUserID(*in.AssigneeID); err != nil {
			return nil, 0, err
		}
	}

	var (
		box     outbox
		updated *task.Task
		version int
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		t, current, err := s.repos.Task.GetByID(dbc, tid)
		if err != nil {
			return err
		}
		if err := dataagg.RequireVersionMatch(current, in.Version); err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanModifyTask(t, who) {
			return forbidden(op, "not allowed to modify this task")
		}
		changes := map[string]any{}
		if in.Title != nil {
			if err := t.UpdateTitle(strings.TrimSpace(*in.Title)); err != nil {
				return err
			}
			changes["title"] = t.Title()
		}
		if in.Description != nil {
			if err := t.UpdateDescription(*in.Description); err != nil {
				return err
			}
			changes["description"] = t.Description()
		}
		if in.Priority != nil {
			if err := t.UpdatePriority(priority); err != nil {
				return err
			}
			changes["priority"] = priority.String()
		}
		if in.AssigneeID != nil {
			if assignee.IsZero() {
				t.Unassign()
			} else {
				if _, _, err := s.repos.User.GetByID(dbc, assignee); err != nil {
					return err
				}
				t.AssignTo(assignee)
			}
			changes["assignee_id"] = assignee.String()
		}
		switch {
		case in.ClearDueDate:
			if err := t.SetDueDate(nil); err != nil {
				return err
			}
			changes["due_date"] = nil
		case in.DueDate != nil:
			if err := t.SetDueDate(in.DueDate); err != nil {
				return err
			}
			changes["due_date"] = in.DueDate.UTC().Format(time.RFC3339)
		}
		if len(changes) > 0 {
			changes["project_id"] = t.ProjectID().String()
			box.add(dbc.Ctx, events.TaskUpdated, tid.String(), changes)
		}
		if in.Status != nil && status != t.Status() {
			from := t.Status()
			if ok, reason := analytics.CanTransitionStatus(t, status); !ok {
				return aggregates.InvalidTransitionError(op, "%s", reason)
			}
			if err := t.ChangeStatus(status); err != nil {
				return err
			}
			box.add(dbc.Ctx, events.TaskStatusChanged, tid.String(), map[string]any{
				"project_id": t.ProjectID().String(),
				"from":       from.String(),
				"to":         status.String(),
			})
		}
		if len(box.events) == 0 {
			updated, version = t, current
			return nil
		}
		if version, err = s.repos.Task.Save(dbc, t, current); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(updated.ProjectID()))
	return updated, version, nil
}

// Delete detaches the task from its parent. Tasks that still have subtasks are kept.
func (s *taskService) Delete(ctx context.Context, id string) error {
	const op = "TaskService.Delete"
	tid, err := vo.ParseTaskID(id)
	if err != nil {
		return err
	}
	var (
		box outbox
		pid vo.ProjectID
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		t, _, err := s.repos.Task.GetByID(dbc, tid)
		if err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanDeleteTask(t, who) {
			return forbidden(op, "only the reporter can delete a task")
		}
		if len(t.Subtasks()) > 0 {
			return aggregates.InvalidStateError(op, "task %s still has %d subtasks", tid, len(t.Subtasks()))
		}
		if t.IsSubtask() {
			parent, parentVersion, err := s.repos.Task.GetByID(dbc, t.ParentID())
			switch {
			case isNotFound(err):
			case err != nil:
				return err
			default:
				parent.RemoveSubtask(tid)
				if _, err := s.repos.Task.Save(dbc, parent, parentVersion); err != nil {
					return err
				}
			}
		}
		if err := s.repos.Task.Delete(dbc, tid); err != nil {
			return err
		}
		pid = t.ProjectID()
		box.add(dbc.Ctx, events.TaskDeleted, tid.String(), map[string]any{"project_id": pid.String()})
		return nil
	})
	if err != nil {
		return err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(pid))
	return nil
}

func (s *taskService) List(ctx context.Context, in TaskListInput) (Page[*task.Task], error) {
	f := repos.TaskFilter{Overdue: in.Overdue, Now: s.now()}
	var err error
	if raw := strings.TrimSpace(in.ProjectID); raw != "" {
		if f.ProjectID, err = vo.ParseProjectID(raw); err != nil {
			return Page[*task.Task]{}, err
		}
	}
	if f.AssigneeID, err = parseOptionalUserID(in.AssigneeID); err != nil {
		return Page[*task.Task]{}, err
	}
	if f.ReporterID, err = parseOptionalUserID(in.ReporterID); err != nil {
		return Page[*task.Task]{}, err
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		if f.Status, err = vo.ParseTaskStatus(raw); err != nil {
			return Page[*task.Task]{}, err
		}
	}
	if raw := strings.TrimSpace(in.Priority); raw != "" {
		if f.Priority, err = vo.ParsePriority(raw); err != nil {
			return Page[*task.Task]{}, err
		}
	}
	for _, tag := range in.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	page := in.Page.Normalize()
	items, total, err := s.repos.Task.List(dbctx.New(ctx), f, page)
	if err != nil {
		return Page[*task.Task]{}, err
	}
	return newPage(items, total, page), nil
}

func (s *taskService) AddTag(ctx context.Context, id, tag string) (*task.Task, error) {
	return s.mutate(ctx, "TaskService.AddTag", id, func(t *task.Task) error { return t.AddTag(tag) })
}

func (s *taskService) RemoveTag(ctx context.Context, id, tag string) (*task.Task, error) {
	return s.mutate(ctx, "TaskService.RemoveTag", id, func(t *task.Task) error {
		t.RemoveTag(tag)
		return nil
	})
}

func (s *taskService) mutate(ctx context.Context, op, id string, fn func(*task.Task) error) (*task.Task, error) {
	tid, err := vo.ParseTaskID(id)
	if err != nil {
		return nil, err
	}
	var (
		box     outbox
		updated *task.Task
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		t, version, err := s.repos.Task.GetByID(dbc, tid)
		if err != nil {
			return err
		}
		if who := actor(ctx); !who.IsZero() && !s.perms.CanModifyTask(t, who) {
			return forbidden(op, "not allowed to modify this task")
		}
		if err := fn(t); err != nil {
			return err
		}
		if _, err := s.repos.Task.Save(dbc, t, version); err != nil {
			return err
		}
		updated = t
		box.add(dbc.Ctx, events.TaskUpdated, tid.String(), map[string]any{
			"project_id": t.ProjectID().String(),
			"tags":       t.Tags(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.events)
	s.cache.Invalidate(ctx, projectCacheKey(updated.ProjectID()))
	return updated, nil
}

func (s *taskService) load(ctx context.Context, id string) (*task.Task, error) {
	t, _, err := s.Get(ctx, id)
	return t, err
}

func (s *taskService) Risk(ctx context.Context, id string) (analytics.RiskAssessment, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return analytics.RiskAssessment{}, err
	}
	return analytics.Risk(t, s.now()), nil
}

func (s *taskService) Complexity(ctx context.Context, id string) (TaskComplexity, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return TaskComplexity{}, err
	}
	now := s.now()
	return TaskComplexity{
		TaskID:               t.ID().String(),
		Complexity:           analytics.Complexity(t, now),
		EstimatedEffortHours: analytics.EffortHours(t, now),
	}, nil
}

func (s *taskService) Similar(ctx context.Context, id string) ([]*task.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repos.Task.ListByProject(dbctx.New(ctx), t.ProjectID())
	if err != nil {
		return nil, err
	}
	return analytics.SimilarTasks(t, siblings), nil
}

// Dependents lists the project's tasks whose description mentions this task's title.
func (s *taskService) Dependents(ctx context.Context, id string) ([]*task.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repos.Task.ListByProject(dbctx.New(ctx), t.ProjectID())
	if err != nil {
		return nil, err
	}
	return analytics.DependentTasks(t, siblings), nil
}

func (s *taskService) Suggestions(ctx context.Context, id string) ([]string, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.TaskSuggestions(t, s.now()), nil
}
