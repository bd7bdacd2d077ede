package testutil

import (
	"testing"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

// Now is the fixed instant fixtures are stamped with.
var Now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func Clock() aggregates.Clock { return aggregates.FixedClock(Now) }

func NewUser(tb testing.TB, username string) *user.User {
	tb.Helper()
	u, err := user.New(user.NewParams{
		Email:          username + "@example.com",
		Username:       username,
		FullName:       "User " + username,
		HashedPassword: "hashed",
	}, user.WithClock(Clock()))
	if err != nil {
		tb.Fatalf("new user: %v", err)
	}
	return u
}

func NewProject(tb testing.TB, name string, owner vo.UserID) *project.Project {
	tb.Helper()
	p, err := project.New(project.NewParams{Name: name, Description: "about " + name, OwnerID: owner}, project.WithClock(Clock()))
	if err != nil {
		tb.Fatalf("new project: %v", err)
	}
	return p
}

func NewTask(tb testing.TB, projectID vo.ProjectID, title string, reporter vo.UserID, tags ...string) *task.Task {
	tb.Helper()
	t, err := task.New(task.NewParams{
		ProjectID:  projectID,
		Title:      title,
		ReporterID: reporter,
		Tags:       tags,
	}, task.WithClock(Clock()))
	if err != nil {
		tb.Fatalf("new task: %v", err)
	}
	return t
}
