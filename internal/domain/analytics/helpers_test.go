package analytics

import (
	"testing"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type taskSpec struct {
	title       string
	description string
	status      vo.TaskStatus
	priority    vo.Priority
	assignee    vo.UserID
	reporter    vo.UserID
	created     time.Time
	due         *time.Time
	completed   *time.Time
	subtasks    int
	tags        []string
}

func mkTask(t *testing.T, pid vo.ProjectID, s taskSpec) *task.Task {
	t.Helper()
	if s.title == "" {
		s.title = "task"
	}
	if s.status == "" {
		s.status = vo.TaskTodo
	}
	if s.priority == "" {
		s.priority = vo.PriorityMedium
	}
	if s.reporter.IsZero() {
		s.reporter = vo.NewUserID()
	}
	if s.created.IsZero() {
		s.created = now.Add(-48 * time.Hour)
	}
	if s.status == vo.TaskDone && s.completed == nil {
		c := now.Add(-time.Hour)
		s.completed = &c
	}
	subs := make([]vo.TaskID, 0, s.subtasks)
	for i := 0; i < s.subtasks; i++ {
		subs = append(subs, vo.NewTaskID())
	}
	tk, err := task.Restore(task.Snapshot{
		ID:          vo.NewTaskID(),
		ProjectID:   pid,
		Title:       s.title,
		Description: s.description,
		Status:      s.status,
		Priority:    s.priority,
		AssigneeID:  s.assignee,
		ReporterID:  s.reporter,
		CreatedAt:   s.created,
		UpdatedAt:   s.created,
		DueDate:     s.due,
		CompletedAt: s.completed,
		Subtasks:    subs,
		Tags:        s.tags,
	})
	if err != nil {
		t.Fatalf("task.Restore: %v", err)
	}
	return tk
}

func mkProject(t *testing.T, specs ...taskSpec) *project.Project {
	t.Helper()
	pid := vo.NewProjectID()
	tasks := make([]*task.Task, 0, len(specs))
	for _, s := range specs {
		tasks = append(tasks, mkTask(t, pid, s))
	}
	p, err := project.Restore(project.Snapshot{
		ID:          pid,
		Name:        "Launch",
		Description: "Ship v1",
		OwnerID:     vo.NewUserID(),
		Status:      vo.ProjectActive,
		CreatedAt:   now.Add(-30 * 24 * time.Hour),
		UpdatedAt:   now,
	}, tasks)
	if err != nil {
		t.Fatalf("project.Restore: %v", err)
	}
	return p
}

func mkUser(t *testing.T, username string) *user.User {
	t.Helper()
	u, err := user.New(user.NewParams{
		Email:          username + "@example.com",
		Username:       username,
		FullName:       username,
		HashedPassword: "hash",
	})
	if err != nil {
		t.Fatalf("user.New: %v", err)
	}
	return u
}

func at(d time.Duration) *time.Time {
	v := now.Add(d)
	return &v
}

func repeat(n int, s taskSpec) []taskSpec {
	out := make([]taskSpec, n)
	for i := range out {
		out[i] = s
	}
	return out
}
