package projects

import (
	"context"
	"testing"

	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/data/repos/tasks"
	"github.com/yungbote/taskboard-backend/internal/data/repos/testutil"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
)

func newRepos(t *testing.T) (ProjectRepo, tasks.TaskRepo, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	taskRepo := tasks.NewTaskRepo(db, testutil.Logger(t), testutil.Clock())
	repo := NewProjectRepo(db, testutil.Logger(t), testutil.Clock(), taskRepo)
	return repo, taskRepo, dbctx.Context{Ctx: context.Background(), Tx: tx}
}

func TestProjectRepoLoadsTasksAndMembers(t *testing.T) {
	repo, taskRepo, dbc := newRepos(t)

	owner, member := vo.NewUserID(), vo.NewUserID()
	p := testutil.NewProject(t, "Apollo", owner)
	if err := p.AddMember(owner); err != nil {
		t.Fatalf("AddMember owner: %v", err)
	}
	if err := p.AddMember(member); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, title := range []string{"one", "two"} {
		if err := taskRepo.Create(dbc, testutil.NewTask(t, p.ID(), title, owner)); err != nil {
			t.Fatalf("task Create: %v", err)
		}
	}

	got, version, err := repo.GetByID(dbc, p.ID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if version != 1 || got.Name() != "Apollo" || got.Status() != vo.ProjectPlanning {
		t.Fatalf("unexpected project: version=%d %+v", version, got.Snapshot())
	}
	if len(got.Tasks()) != 2 {
		t.Fatalf("tasks: want=2 got=%d", len(got.Tasks()))
	}
	if !got.IsMember(member) || len(got.Members()) != 2 {
		t.Fatalf("members: %v", got.Members())
	}
	if ok, err := repo.Exists(dbc, p.ID()); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
}

func TestProjectRepoSaveUsesVersion(t *testing.T) {
	repo, _, dbc := newRepos(t)
	p := testutil.NewProject(t, "Gemini", vo.NewUserID())
	if err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	v, err := repo.Save(dbc, p, 1)
	if err != nil || v != 2 {
		t.Fatalf("Save: v=%d err=%v", v, err)
	}
	if _, err := repo.Save(dbc, p, 1); !aggregates.IsCode(err, aggregates.CodeConflict) {
		t.Fatalf("stale save: want conflict, got %v", err)
	}
	got, version, err := repo.GetByID(dbc, p.ID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if version != 2 || got.Status() != vo.ProjectActive {
		t.Fatalf("after save: version=%d status=%s", version, got.Status())
	}
}

func TestProjectRepoListAndDelete(t *testing.T) {
	repo, taskRepo, dbc := newRepos(t)
	alice, bob := vo.NewUserID(), vo.NewUserID()

	p1 := testutil.NewProject(t, "One", alice)
	_ = p1.AddMember(alice)
	_ = p1.AddMember(bob)
	p2 := testutil.NewProject(t, "Two", bob)
	_ = p2.AddMember(bob)
	if err := p2.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := repo.Create(dbc, p1); err != nil {
		t.Fatalf("Create p1: %v", err)
	}
	if err := repo.Create(dbc, p2); err != nil {
		t.Fatalf("Create p2: %v", err)
	}
	if err := taskRepo.Create(dbc, testutil.NewTask(t, p1.ID(), "t", alice)); err != nil {
		t.Fatalf("task Create: %v", err)
	}

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{}, 2},
		{"owner", Filter{OwnerID: alice}, 1},
		{"member bob", Filter{MemberID: bob}, 2},
		{"member alice", Filter{MemberID: alice}, 1},
		{"status", Filter{Status: vo.ProjectActive}, 1},
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

	mine, err := repo.ListByMember(dbc, alice)
	if err != nil || len(mine) != 1 || len(mine[0].Tasks()) != 1 {
		t.Fatalf("ListByMember: err=%v list=%d", err, len(mine))
	}

	if err := repo.Delete(dbc, p1.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := repo.GetByID(dbc, p1.ID()); !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("deleted project: want not_found, got %v", err)
	}
	left, err := taskRepo.ListByProject(dbc, p1.ID())
	if err != nil || len(left) != 0 {
		t.Fatalf("tasks of deleted project: err=%v len=%d", err, len(left))
	}
}
