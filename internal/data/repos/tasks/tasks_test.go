package tasks

import (
	"context"
	"testing"
	"time"

	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/data/repos/testutil"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
)

func TestTaskRepoRoundTripAndCAS(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewTaskRepo(db, testutil.Logger(t), testutil.Clock())

	projectID := vo.NewProjectID()
	reporter := vo.NewUserID()
	tk := testutil.NewTask(t, projectID, "Write docs", reporter, "docs", "backend")
	due := testutil.Now.Add(72 * time.Hour)
	if err := tk.SetDueDate(&due); err != nil {
		t.Fatalf("SetDueDate: %v", err)
	}
	if err := repo.Create(dbc, tk); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, version, err := repo.GetByID(dbc, tk.ID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if version != 1 {
		t.Fatalf("version: want=1 got=%d", version)
	}
	if got.Title() != "Write docs" || got.ProjectID() != projectID || got.ReporterID() != reporter {
		t.Fatalf("unexpected task: %+v", got.Snapshot())
	}
	if tags := got.Tags(); len(tags) != 2 || tags[0] != "docs" || tags[1] != "backend" {
		t.Fatalf("tags: %v", tags)
	}
	if got.DueDate() == nil || !got.DueDate().Equal(due) {
		t.Fatalf("due date: %v", got.DueDate())
	}
	if got.IsAssigned() {
		t.Fatalf("expected unassigned task")
	}

	assignee := vo.NewUserID()
	got.AssignTo(assignee)
	if err := got.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	next, err := repo.Save(dbc, got, version)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if next != 2 {
		t.Fatalf("next version: want=2 got=%d", next)
	}
	if _, err := repo.Save(dbc, got, version); !aggregates.IsCode(err, aggregates.CodeConflict) {
		t.Fatalf("stale save: want conflict, got %v", err)
	}

	reloaded, _, err := repo.GetByID(dbc, tk.ID())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status() != vo.TaskInProgress || reloaded.AssigneeID() != assignee {
		t.Fatalf("reloaded: status=%s assignee=%s", reloaded.Status(), reloaded.AssigneeID())
	}
}

func TestTaskRepoNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewTaskRepo(db, testutil.Logger(t), testutil.Clock())

	if _, _, err := repo.GetByID(dbc, vo.NewTaskID()); !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("GetByID: want not_found, got %v", err)
	}
	if err := repo.Delete(dbc, vo.NewTaskID()); !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("Delete: want not_found, got %v", err)
	}
}

func TestTaskRepoListFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewTaskRepo(db, testutil.Logger(t), testutil.Clock())

	projectA, projectB := vo.NewProjectID(), vo.NewProjectID()
	reporter, alice := vo.NewUserID(), vo.NewUserID()

	a1 := testutil.NewTask(t, projectA, "api", reporter, "backend", "api")
	a1.AssignTo(alice)
	a2 := testutil.NewTask(t, projectA, "ui", reporter, "frontend")
	if err := a2.UpdatePriority(vo.PriorityUrgent); err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	b1 := testutil.NewTask(t, projectB, "db", reporter, "backend")
	for _, tk := range []*task.Task{a1, a2, b1} {
		if err := repo.Create(dbc, tk); err != nil {
			t.Fatalf("Create %s: %v", tk.Title(), err)
		}
	}
	// b1 becomes overdue by writing a past due date straight into the row.
	past := testutil.Now.Add(-24 * time.Hour)
	if err := tx.Table("tasks").Where("id = ?", b1.ID().UUID()).Update("due_date", past).Error; err != nil {
		t.Fatalf("seed due date: %v", err)
	}

	yes, no := true, false
	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{}, 3},
		{"project", Filter{ProjectID: projectA}, 2},
		{"assignee", Filter{AssigneeID: alice}, 1},
		{"priority", Filter{Priority: vo.PriorityUrgent}, 1},
		{"status", Filter{Status: vo.TaskTodo}, 3},
		{"one tag", Filter{Tags: []string{"backend"}}, 2},
		{"all tags", Filter{Tags: []string{"backend", "api"}}, 1},
		{"overdue", Filter{Overdue: &yes, Now: testutil.Now}, 1},
		{"not overdue", Filter{Overdue: &no, Now: testutil.Now}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := repo.List(dbc, tt.f, query.Page{})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if int(total) != tt.want || len(list) != tt.want {
				t.Fatalf("want=%d got total=%d len=%d", tt.want, total, len(list))
			}
		})
	}

	page, total, err := repo.List(dbc, Filter{}, query.Page{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("page 2: total=%d len=%d", total, len(page))
	}

	byProject, err := repo.ListByProjects(dbc, []vo.ProjectID{projectA, projectB})
	if err != nil {
		t.Fatalf("ListByProjects: %v", err)
	}
	if len(byProject[projectA]) != 2 || len(byProject[projectB]) != 1 {
		t.Fatalf("grouping: a=%d b=%d", len(byProject[projectA]), len(byProject[projectB]))
	}
	mine, err := repo.ListByAssignee(dbc, alice)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByAssignee: err=%v len=%d", err, len(mine))
	}
	involved, err := repo.ListInvolving(dbc, reporter)
	if err != nil || len(involved) != 3 {
		t.Fatalf("ListInvolving reporter: err=%v len=%d", err, len(involved))
	}
	if involved, _ = repo.ListInvolving(dbc, alice); len(involved) != 1 {
		t.Fatalf("ListInvolving assignee: len=%d", len(involved))
	}
	n, err := repo.DeleteByProject(dbc, projectA)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByProject: err=%v n=%d", err, n)
	}
}

func TestTaskRepoInsideWriter(t *testing.T) {
	db := testutil.DB(t)
	if db.Dialector.Name() != "sqlite" {
		t.Skip("writer test commits; runs against the private sqlite database only")
	}
	repo := NewTaskRepo(db, testutil.Logger(t), testutil.Clock())
	w := dataagg.NewWriter(dataagg.BaseDeps{DB: db})
	tk := testutil.NewTask(t, vo.NewProjectID(), "tx", vo.NewUserID())

	err := w.Write(context.Background(), "task.create", func(dbc dbctx.Context) error {
		return repo.Create(dbc, tk)
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, _, err := repo.GetByID(dbctx.New(context.Background()), tk.ID()); err != nil {
		t.Fatalf("committed task not visible: %v", err)
	}
}
