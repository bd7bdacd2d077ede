package analytics

import (
	"testing"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

func TestUserProductivity(t *testing.T) {
	u := mkUser(t, "alice")
	pid := vo.NewProjectID()
	tasks := []*task.Task{
		mkTask(t, pid, taskSpec{
			assignee:  u.ID(),
			status:    vo.TaskDone,
			created:   now.Add(-10 * 24 * time.Hour),
			completed: at(-2 * 24 * time.Hour),
			due:       at(-24 * time.Hour),
		}),
		mkTask(t, pid, taskSpec{
			assignee:  u.ID(),
			status:    vo.TaskDone,
			created:   now.Add(-5 * 24 * time.Hour),
			completed: at(-time.Hour),
			due:       at(-2 * 24 * time.Hour),
		}),
		mkTask(t, pid, taskSpec{assignee: u.ID()}),
		mkTask(t, pid, taskSpec{assignee: u.ID(), status: vo.TaskInProgress}),
		mkTask(t, pid, taskSpec{status: vo.TaskDone}),
	}
	got := UserProductivity(u, tasks)
	want := Productivity{TotalTasks: 4, CompletedTasks: 2, CompletionRate: 50, AverageCompletionTime: 6, OnTimeRate: 50}
	if got != want {
		t.Fatalf("productivity = %+v, want %+v", got, want)
	}
	if empty := UserProductivity(mkUser(t, "bob"), tasks); empty != (Productivity{}) {
		t.Fatalf("no tasks should give zeros, got %+v", empty)
	}
}

func TestUserWorkload(t *testing.T) {
	u := mkUser(t, "alice")
	pid := vo.NewProjectID()
	soon := mkTask(t, pid, taskSpec{title: "soon", assignee: u.ID(), due: at(36 * time.Hour)})
	later := mkTask(t, pid, taskSpec{title: "later", assignee: u.ID(), due: at(50 * time.Hour)})
	tasks := []*task.Task{
		later,
		soon,
		mkTask(t, pid, taskSpec{assignee: u.ID(), due: at(10 * 24 * time.Hour)}),
		mkTask(t, pid, taskSpec{assignee: u.ID(), due: at(-time.Hour), status: vo.TaskBlocked}),
		mkTask(t, pid, taskSpec{assignee: u.ID(), status: vo.TaskDone}),
		mkTask(t, pid, taskSpec{}),
	}
	got := UserWorkload(u, tasks, 7, now)
	if got.CurrentLoad != 4 || got.OverdueTasks != 1 {
		t.Fatalf("workload = %+v", got)
	}
	if len(got.UpcomingDeadlines) != 2 {
		t.Fatalf("deadlines = %+v", got.UpcomingDeadlines)
	}
	if got.UpcomingDeadlines[0].Title != "soon" || got.UpcomingDeadlines[0].DaysRemaining != 1 ||
		got.UpcomingDeadlines[1].Title != "later" || got.UpcomingDeadlines[1].DaysRemaining != 2 {
		t.Fatalf("deadline order = %+v", got.UpcomingDeadlines)
	}
	if got.EstimatedHours <= 0 {
		t.Fatalf("estimated hours = %v", got.EstimatedHours)
	}
	if empty := UserWorkload(mkUser(t, "bob"), tasks, 7, now); empty.CurrentLoad != 0 || empty.UpcomingDeadlines == nil {
		t.Fatalf("empty workload = %+v", empty)
	}
}

func TestUserSuggestions(t *testing.T) {
	u := mkUser(t, "alice")
	if got := UserSuggestions(u, nil, now); len(got) != 0 {
		t.Fatalf("no tasks should give no suggestions, got %v", got)
	}
	pid := vo.NewProjectID()
	tasks := make([]*task.Task, 0, 11)
	for i := 0; i < 11; i++ {
		tasks = append(tasks, mkTask(t, pid, taskSpec{assignee: u.ID()}))
	}
	// overloaded, low completion, no due dates
	if got := UserSuggestions(u, tasks, now); len(got) != 3 {
		t.Fatalf("suggestions = %v", got)
	}
	stale := []*task.Task{
		mkTask(t, pid, taskSpec{assignee: u.ID(), created: now.Add(-10 * 24 * time.Hour), due: at(-time.Hour)}),
		mkTask(t, pid, taskSpec{assignee: u.ID(), status: vo.TaskDone}),
	}
	// overdue and untouched; completion rate is exactly 0.5
	if got := UserSuggestions(u, stale, now); len(got) != 2 {
		t.Fatalf("suggestions = %v", got)
	}
}

func TestTeamPerformance(t *testing.T) {
	alice, bob := mkUser(t, "alice"), mkUser(t, "bob")
	pid := vo.NewProjectID()
	tasks := []*task.Task{
		mkTask(t, pid, taskSpec{assignee: alice.ID(), status: vo.TaskDone}),
		mkTask(t, pid, taskSpec{assignee: alice.ID()}),
		mkTask(t, pid, taskSpec{assignee: bob.ID(), due: at(-time.Hour)}),
		mkTask(t, pid, taskSpec{status: vo.TaskDone}),
	}
	got := TeamPerformance([]*user.User{alice, bob}, tasks, now)
	if got.TotalMembers != 2 || got.TotalTasks != 4 || got.CompletedTasks != 2 || got.OverdueTasks != 1 {
		t.Fatalf("summary = %+v", got)
	}
	if got.OverallCompletionRate != 50 || got.AverageProductivity != 25 {
		t.Fatalf("rates = %v / %v", got.OverallCompletionRate, got.AverageProductivity)
	}
	if got.WorkloadDistribution["alice"] != 1 || got.WorkloadDistribution["bob"] != 1 {
		t.Fatalf("distribution = %v", got.WorkloadDistribution)
	}
	if empty := TeamPerformance(nil, tasks, now); empty.TotalMembers != 0 || empty.TotalTasks != 0 {
		t.Fatalf("empty team = %+v", empty)
	}
}

func TestActivityTimeline(t *testing.T) {
	u := mkUser(t, "alice")
	pid := vo.NewProjectID()
	tasks := []*task.Task{
		mkTask(t, pid, taskSpec{reporter: u.ID()}),
		mkTask(t, pid, taskSpec{assignee: u.ID(), status: vo.TaskDone}),
		mkTask(t, pid, taskSpec{reporter: u.ID(), created: now.Add(-40 * 24 * time.Hour)}),
		mkTask(t, pid, taskSpec{}),
	}
	got := ActivityTimeline(u, tasks, 7, now)
	if len(got) != 5 {
		t.Fatalf("timeline = %+v", got)
	}
	if got[0].Type != "task_completed" {
		t.Fatalf("newest entry = %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.After(got[i-1].Date) {
			t.Fatalf("timeline not sorted newest first at %d", i)
		}
	}
}

func TestAccountRules(t *testing.T) {
	u := mkUser(t, "alice")
	if !CanDeleteAccount(u) {
		t.Fatalf("fresh user should be deletable")
	}
	if err := u.AddProject(vo.NewProjectID()); err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if CanDeleteAccount(u) {
		t.Fatalf("participating user should not be deletable")
	}

	p, err := project.New(project.NewParams{Name: "Launch", Description: "Ship v1", OwnerID: u.ID()})
	if err != nil {
		t.Fatalf("project.New: %v", err)
	}
	if !CanTransferOwnership(u, p) || CanTransferOwnership(mkUser(t, "bob"), p) {
		t.Fatalf("only the owner may transfer ownership")
	}
}

func TestValidateUserPermission(t *testing.T) {
	regular := mkUser(t, "alice")
	admin := mkUser(t, "root")
	admin.GrantSuperuser()

	tests := []struct {
		action  string
		regular bool
	}{
		{ActionCreateProject, false},
		{ActionEditProject, true},
		{ActionDeleteProject, false},
		{ActionCreateTask, true},
		{ActionEditTask, false},
		{ActionDeleteTask, false},
		{ActionManageUsers, false},
		{"launch_rockets", false},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if got := ValidateUserPermission(regular, tt.action); got != tt.regular {
				t.Fatalf("regular %s = %v, want %v", tt.action, got, tt.regular)
			}
			if !ValidateUserPermission(admin, tt.action) {
				t.Fatalf("superuser should pass %s", tt.action)
			}
		})
	}
}

func TestDefaultPermissions(t *testing.T) {
	owner, member, stranger := vo.NewUserID(), vo.NewUserID(), vo.NewUserID()
	p, err := project.New(project.NewParams{Name: "Launch", Description: "Ship v1", OwnerID: owner})
	if err != nil {
		t.Fatalf("project.New: %v", err)
	}
	if err := p.AddMember(member); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	var perms Permissions = DefaultPermissions{}
	if !perms.CanModifyProject(p, member) || perms.CanModifyProject(p, stranger) {
		t.Fatalf("modify project rules")
	}
	if !perms.CanDeleteProject(p, owner) || perms.CanDeleteProject(p, member) {
		t.Fatalf("delete project rules")
	}
	tk := mkTask(t, p.ID(), taskSpec{reporter: owner, assignee: member})
	if !perms.CanModifyTask(tk, member) || perms.CanModifyTask(tk, stranger) {
		t.Fatalf("modify task rules")
	}
	if !perms.CanDeleteTask(tk, owner) || perms.CanDeleteTask(tk, member) {
		t.Fatalf("delete task rules")
	}
}
