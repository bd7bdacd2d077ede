package services

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/cache"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/data/repos/testutil"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
)

type fixture struct {
	deps     Deps
	recorder *events.Recorder
	cache    *memCache
	projects ProjectService
	tasks    TaskService
	users    UserService
	auth     AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rec := &events.Recorder{}
	mc := &memCache{data: map[string][]byte{}}
	deps := Deps{
		DB:     db,
		Log:    log,
		Repos:  repos.New(db, log, testutil.Clock()),
		Cache:  cache.NewLoader(mc, log, nil),
		Events: rec,
		Clock:  testutil.Clock(),
	}
	return &fixture{
		deps:     deps,
		recorder: rec,
		cache:    mc,
		projects: NewProjectService(deps),
		tasks:    NewTaskService(deps),
		users:    NewUserService(deps),
		auth:     NewAuthService(deps, "test-secret", time.Hour),
	}
}

// memCache is an in-process cache.Cache so tests can observe what gets cached.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) keysContaining(part string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.Contains(k, part) {
			out = append(out, k)
		}
	}
	return out
}

func (f *fixture) user(t *testing.T) *user.User {
	t.Helper()
	name := "u" + uuid.NewString()[:8]
	u, err := f.users.Create(context.Background(), CreateUserInput{
		Email:    name + "@example.com",
		Username: name,
		FullName: "Test " + name,
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) project(t *testing.T, owner vo.UserID) string {
	t.Helper()
	p, err := f.projects.Create(context.Background(), CreateProjectInput{
		Name:        "Apollo",
		Description: "Crewed lunar landing programme.",
		OwnerID:     owner.String(),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p.ID().String()
}

func asUser(id vo.UserID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id.UUID()})
}

func wantCode(t *testing.T, err error, code aggregates.ErrorCode) {
	t.Helper()
	if !aggregates.IsCode(err, code) {
		t.Fatalf("want %s error, got %v", code, err)
	}
}

func TestProjectCreateAddsOwnerAsMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t)

	p, err := f.projects.Create(asUser(owner.ID()), CreateProjectInput{Name: "  Apollo  ", Description: "moon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name() != "Apollo" || p.Status() != vo.ProjectPlanning {
		t.Fatalf("unexpected project: name=%q status=%s", p.Name(), p.Status())
	}
	if !p.IsMember(owner.ID()) {
		t.Fatalf("owner is not a member")
	}
	stored, version, err := f.users.Get(ctx, owner.ID().String())
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if !stored.ParticipatesIn(p.ID()) || version != 2 {
		t.Fatalf("owner not linked: projects=%v version=%d", stored.ProjectIDs(), version)
	}
	if !slices.Contains(f.recorder.Types(), events.ProjectCreated) {
		t.Fatalf("missing %s in %v", events.ProjectCreated, f.recorder.Types())
	}
}

func TestProjectCreateRejectsBadOwner(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		owner string
		code  aggregates.ErrorCode
	}{
		{"missing", "", aggregates.CodeValidation},
		{"malformed", "not-a-uuid", aggregates.CodeValidation},
		{"unknown", uuid.NewString(), aggregates.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.projects.Create(context.Background(), CreateProjectInput{Name: "x", Description: "d", OwnerID: tt.owner})
			wantCode(t, err, tt.code)
		})
	}
}

func TestProjectUpdateStatusAndVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t)
	id := f.project(t, owner.ID())

	active := "active"
	p, version, err := f.projects.Update(ctx, id, UpdateProjectInput{Status: &active, Version: 1})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if p.Status() != vo.ProjectActive || version != 2 {
		t.Fatalf("status=%s version=%d", p.Status(), version)
	}

	name := "Artemis"
	_, _, err = f.projects.Update(ctx, id, UpdateProjectInput{Name: &name, Version: 1})
	wantCode(t, err, aggregates.CodeConflict)

	planning := "planning"
	_, _, err = f.projects.Update(ctx, id, UpdateProjectInput{Status: &planning})
	wantCode(t, err, aggregates.CodeInvalidState)

	bogus := "archived"
	_, _, err = f.projects.Update(ctx, id, UpdateProjectInput{Status: &bogus})
	wantCode(t, err, aggregates.CodeValidation)
}

func TestProjectMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, dev := f.user(t), f.user(t)
	id := f.project(t, owner.ID())

	p, err := f.projects.AddMember(ctx, id, dev.ID().String())
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if len(p.Members()) != 2 {
		t.Fatalf("members=%v", p.Members())
	}
	_, err = f.projects.AddMember(ctx, id, dev.ID().String())
	wantCode(t, err, aggregates.CodeDuplicate)

	for _, form := range []string{
		owner.ID().String(),
		strings.ToUpper(owner.ID().String()),
		" " + owner.ID().String() + " ",
		"urn:uuid:" + owner.ID().String(),
	} {
		_, err = f.projects.RemoveMember(ctx, id, form)
		wantCode(t, err, aggregates.CodeValidation)
	}
	stranger := f.user(t)
	_, err = f.projects.RemoveMember(ctx, id, strings.ToUpper(stranger.ID().String()))
	wantCode(t, err, aggregates.CodeNotFound)

	if _, err := f.projects.RemoveMember(ctx, id, dev.ID().String()); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	stored, _, err := f.users.Get(ctx, dev.ID().String())
	if err != nil {
		t.Fatalf("get dev: %v", err)
	}
	if len(stored.ProjectIDs()) != 0 {
		t.Fatalf("dev still linked to %v", stored.ProjectIDs())
	}

	page, err := f.projects.List(ctx, ProjectListInput{MemberID: owner.ID().String()})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Page != 1 || page.PerPage != 20 {
		t.Fatalf("page=%+v", page)
	}
}

func TestProjectCompleteWithOpenTasks(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t)
	ctx := asUser(owner.ID())
	id := f.project(t, owner.ID())
	for _, title := range []string{"telemetry", "abort modes"} {
		if _, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	completed := "completed"
	_, _, err := f.projects.Update(ctx, id, UpdateProjectInput{Status: &completed})
	wantCode(t, err, aggregates.CodeInvalidState)
	if !strings.Contains(err.Error(), "2 incomplete tasks remain") {
		t.Fatalf("error should carry the open count: %v", err)
	}
	p, _, err := f.projects.Get(ctx, id)
	if err != nil || p.Status() != vo.ProjectPlanning {
		t.Fatalf("project changed: status=%s err=%v", p.Status(), err)
	}
}

func TestProjectMembershipPermissions(t *testing.T) {
	f := newFixture(t)
	owner, outsider, dev := f.user(t), f.user(t), f.user(t)
	admin, err := f.users.Create(context.Background(), CreateUserInput{
		Email:     "admin@example.com",
		Username:  "admin",
		FullName:  "Admin",
		Password:  "correct horse",
		Superuser: true,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	id := f.project(t, owner.ID())

	_, err = f.projects.AddMember(asUser(outsider.ID()), id, dev.ID().String())
	wantCode(t, err, aggregates.CodeForbidden)

	p, err := f.projects.AddMember(asUser(admin.ID()), id, dev.ID().String())
	if err != nil {
		t.Fatalf("admin AddMember: %v", err)
	}
	if !p.IsMember(dev.ID()) || p.IsMember(admin.ID()) {
		t.Fatalf("members=%v", p.Members())
	}
	if _, err := f.projects.RemoveMember(asUser(admin.ID()), id, dev.ID().String()); err != nil {
		t.Fatalf("admin RemoveMember: %v", err)
	}
}

func TestProjectTransferOwnership(t *testing.T) {
	f := newFixture(t)
	owner, dev, outsider := f.user(t), f.user(t), f.user(t)
	id := f.project(t, owner.ID())
	if _, err := f.projects.AddMember(asUser(owner.ID()), id, dev.ID().String()); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	_, _, err := f.projects.TransferOwnership(asUser(dev.ID()), id, dev.ID().String())
	wantCode(t, err, aggregates.CodeForbidden)
	_, _, err = f.projects.TransferOwnership(asUser(owner.ID()), id, outsider.ID().String())
	wantCode(t, err, aggregates.CodeNotFound)
	_, _, err = f.projects.TransferOwnership(asUser(owner.ID()), id, uuid.NewString())
	wantCode(t, err, aggregates.CodeNotFound)

	p, version, err := f.projects.TransferOwnership(asUser(owner.ID()), id, strings.ToUpper(dev.ID().String()))
	if err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	if p.OwnerID() != dev.ID() || !p.IsMember(owner.ID()) || version != 3 {
		t.Fatalf("owner=%s members=%v version=%d", p.OwnerID(), p.Members(), version)
	}
	if !slices.Contains(f.recorder.Types(), events.ProjectOwnerChanged) {
		t.Fatalf("missing %s in %v", events.ProjectOwnerChanged, f.recorder.Types())
	}

	err = f.projects.Delete(asUser(owner.ID()), id)
	wantCode(t, err, aggregates.CodeForbidden)
	if _, err := f.projects.RemoveMember(asUser(dev.ID()), id, owner.ID().String()); err != nil {
		t.Fatalf("new owner removes previous owner: %v", err)
	}
}

func TestProjectDeleteOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner, other := f.user(t), f.user(t)
	id := f.project(t, owner.ID())
	if _, err := f.tasks.Create(asUser(owner.ID()), CreateTaskInput{ProjectID: id, Title: "wire"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	err := f.projects.Delete(asUser(other.ID()), id)
	wantCode(t, err, aggregates.CodeForbidden)

	if err := f.projects.Delete(asUser(owner.ID()), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, _, err = f.projects.Get(context.Background(), id)
	wantCode(t, err, aggregates.CodeNotFound)

	list, err := f.tasks.List(context.Background(), TaskListInput{ProjectID: id})
	if err != nil || list.Total != 0 {
		t.Fatalf("tasks left: total=%d err=%v", list.Total, err)
	}
	stored, _, err := f.users.Get(context.Background(), owner.ID().String())
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if len(stored.ProjectIDs()) != 0 {
		t.Fatalf("owner still linked to %v", stored.ProjectIDs())
	}
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t)
	id := f.project(t, owner.ID())

	due := testutil.Now.Add(72 * time.Hour)
	created, err := f.tasks.Create(asUser(owner.ID()), CreateTaskInput{
		ProjectID:  id,
		Title:      "Ship login",
		Priority:   "high",
		AssigneeID: owner.ID().String(),
		DueDate:    &due,
		Tags:       []string{"Backend", "auth"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ReporterID() != owner.ID() || created.Status() != vo.TaskTodo {
		t.Fatalf("reporter=%s status=%s", created.ReporterID(), created.Status())
	}
	tid := created.ID().String()

	done := "done"
	_, _, err = f.tasks.Update(ctx, tid, UpdateTaskInput{Status: &done})
	wantCode(t, err, aggregates.CodeInvalidTransition)
	if !strings.Contains(err.Error(), "cannot move from todo to done") {
		t.Fatalf("error should name both statuses: %v", err)
	}

	for _, next := range []string{"in_progress", "in_review", "done"} {
		status := next
		if _, _, err := f.tasks.Update(ctx, tid, UpdateTaskInput{Status: &status}); err != nil {
			t.Fatalf("move to %s: %v", next, err)
		}
	}
	got, version, err := f.tasks.Get(ctx, tid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsCompleted() || got.CompletedAt() == nil || version != 4 {
		t.Fatalf("status=%s completed_at=%v version=%d", got.Status(), got.CompletedAt(), version)
	}

	var changes int
	for _, ev := range f.recorder.Events() {
		if ev.Type == events.TaskStatusChanged && ev.Aggregate == tid {
			changes++
		}
	}
	if changes != 3 {
		t.Fatalf("status_changed events = %d, want 3", changes)
	}

	past := testutil.Now.Add(-time.Hour)
	_, _, err = f.tasks.Update(ctx, tid, UpdateTaskInput{DueDate: &past})
	wantCode(t, err, aggregates.CodeValidation)
}

func TestTaskCreateRequiresOpenProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t)
	id := f.project(t, owner.ID())

	cancelled := "cancelled"
	if _, _, err := f.projects.Update(ctx, id, UpdateProjectInput{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "late", ReporterID: owner.ID().String()})
	wantCode(t, err, aggregates.CodeInvalidState)

	_, err = f.tasks.Create(ctx, CreateTaskInput{ProjectID: uuid.NewString(), Title: "lost", ReporterID: owner.ID().String()})
	wantCode(t, err, aggregates.CodeNotFound)
}

func TestTaskSubtasksAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.user(t).ID())
	owner := actor(ctx)
	id := f.project(t, owner)

	parent, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "epic"})
	if err != nil {
		t.Fatalf("parent: %v", err)
	}
	child, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "story", ParentID: parent.ID().String()})
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	stored, _, err := f.tasks.Get(ctx, parent.ID().String())
	if err != nil || !stored.HasSubtask(child.ID()) {
		t.Fatalf("parent subtasks=%v err=%v", stored.Subtasks(), err)
	}

	err = f.tasks.Delete(ctx, parent.ID().String())
	wantCode(t, err, aggregates.CodeInvalidState)

	tagged, err := f.tasks.AddTag(ctx, child.ID().String(), " UI ")
	if err != nil || !tagged.HasTag("ui") {
		t.Fatalf("AddTag: tags=%v err=%v", tagged.Tags(), err)
	}
	_, err = f.tasks.AddTag(ctx, child.ID().String(), "ui")
	wantCode(t, err, aggregates.CodeDuplicate)

	page, err := f.tasks.List(ctx, TaskListInput{ProjectID: id, Tags: []string{"UI"}})
	if err != nil || page.Total != 1 {
		t.Fatalf("tag filter: total=%d err=%v", page.Total, err)
	}

	if err := f.tasks.Delete(ctx, child.ID().String()); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	stored, _, _ = f.tasks.Get(ctx, parent.ID().String())
	if len(stored.Subtasks()) != 0 {
		t.Fatalf("parent still lists %v", stored.Subtasks())
	}
}

func TestTaskListPaging(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.user(t).ID())
	id := f.project(t, actor(ctx))
	for _, title := range []string{"a", "b", "c"} {
		if _, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	page, err := f.tasks.List(ctx, TaskListInput{ProjectID: id, Page: query.Page{Page: 2, PerPage: 2}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 || page.Pages != 2 {
		t.Fatalf("page=%+v", page)
	}
	_, err = f.tasks.List(ctx, TaskListInput{Priority: "critical"})
	wantCode(t, err, aggregates.CodeValidation)
}

func TestUserRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t)

	_, err := f.users.Create(ctx, CreateUserInput{
		Email: u.Email(), Username: "someone-else", FullName: "Dup", Password: "long enough",
	})
	wantCode(t, err, aggregates.CodeDuplicate)

	_, err = f.users.Create(ctx, CreateUserInput{
		Email: "short@example.com", Username: "short", FullName: "Short", Password: "abc",
	})
	wantCode(t, err, aggregates.CodeValidation)

	id := f.project(t, u.ID())
	err = f.users.Delete(ctx, u.ID().String())
	wantCode(t, err, aggregates.CodeInvalidState)

	if err := f.projects.Delete(ctx, id); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if err := f.users.Delete(ctx, u.ID().String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestUserUpdateSelfOnly(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	name := "Renamed"
	_, _, err := f.users.Update(asUser(b.ID()), a.ID().String(), UpdateUserInput{FullName: &name})
	wantCode(t, err, aggregates.CodeForbidden)

	got, version, err := f.users.Update(asUser(a.ID()), a.ID().String(), UpdateUserInput{FullName: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.FullName() != name || version != 2 {
		t.Fatalf("full_name=%q version=%d", got.FullName(), version)
	}
	taken := b.Username()
	_, _, err = f.users.Update(asUser(a.ID()), a.ID().String(), UpdateUserInput{Username: &taken})
	wantCode(t, err, aggregates.CodeDuplicate)
}

func TestUserAnalytics(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	ctx := asUser(u.ID())
	id := f.project(t, u.ID())
	created, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "review", AssigneeID: u.ID().String()})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	prod, err := f.users.Productivity(ctx, u.ID().String(), 30)
	if err != nil || prod.TotalTasks != 1 {
		t.Fatalf("Productivity: %+v err=%v", prod, err)
	}
	load, err := f.users.Workload(ctx, u.ID().String(), 0)
	if err != nil || load.CurrentLoad != 1 {
		t.Fatalf("Workload: %+v err=%v", load, err)
	}
	timeline, err := f.users.Timeline(ctx, u.ID().String(), 0)
	if err != nil || len(timeline) == 0 || timeline[0].TaskID != created.ID().String() {
		t.Fatalf("Timeline: %+v err=%v", timeline, err)
	}
	if _, err := f.users.Suggestions(ctx, u.ID().String()); err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
}

func TestProjectReports(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	ctx := asUser(u.ID())
	id := f.project(t, u.ID())
	for _, title := range []string{"one", "two"} {
		if _, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: title, AssigneeID: u.ID().String()}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	health, err := f.projects.Health(ctx, id)
	if err != nil || health.Details == nil || health.Details.TotalTasks != 2 {
		t.Fatalf("Health: %+v err=%v", health, err)
	}
	check, err := f.projects.CompletionCheck(ctx, id)
	if err != nil || check.CanComplete {
		t.Fatalf("CompletionCheck: %+v err=%v", check, err)
	}
	team, err := f.projects.TeamSummary(ctx, id)
	if err != nil || team.TotalMembers != 1 || team.TotalTasks != 2 {
		t.Fatalf("TeamSummary: %+v err=%v", team, err)
	}

	reports := NewReportService(f.deps, f.projects)
	overview, err := reports.ProjectOverview(ctx, id, 7)
	if err != nil {
		t.Fatalf("ProjectOverview: %v", err)
	}
	if overview.Velocity.PeriodDays != 7 || overview.Health.Details.TotalTasks != 2 {
		t.Fatalf("overview=%+v", overview)
	}
	_, err = reports.ProjectOverview(ctx, uuid.NewString(), 7)
	wantCode(t, err, aggregates.CodeNotFound)
}

func TestProjectWorkloadAndDependents(t *testing.T) {
	f := newFixture(t)
	owner, dev := f.user(t), f.user(t)
	ctx := asUser(owner.ID())
	id := f.project(t, owner.ID())
	if _, err := f.projects.AddMember(ctx, id, dev.ID().String()); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	schema, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "Schema migration", AssigneeID: dev.ID().String()})
	if err != nil {
		t.Fatalf("create schema: %v", err)
	}
	backfill, err := f.tasks.Create(ctx, CreateTaskInput{
		ProjectID:   id,
		Title:       "Backfill",
		Description: "Runs once the schema migration is live.",
		Priority:    "high",
		AssigneeID:  dev.ID().String(),
	})
	if err != nil {
		t.Fatalf("create backfill: %v", err)
	}

	load, err := f.projects.Workload(ctx, id)
	if err != nil {
		t.Fatalf("Workload: %v", err)
	}
	got := load[dev.ID().String()]
	if got.TotalTasks != 2 || got.PriorityDistribution["high"] != 1 || got.StatusDistribution["todo"] != 2 {
		t.Fatalf("dev workload=%+v", got)
	}
	if mine, ok := load[owner.ID().String()]; !ok || mine.TotalTasks != 0 {
		t.Fatalf("owner workload=%+v present=%v", mine, ok)
	}

	deps, err := f.tasks.Dependents(ctx, schema.ID().String())
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(deps) != 1 || deps[0].ID() != backfill.ID() {
		t.Fatalf("dependents=%v", deps)
	}
	if deps, _ := f.tasks.Dependents(ctx, backfill.ID().String()); len(deps) != 0 {
		t.Fatalf("backfill has no dependents, got %d", len(deps))
	}
}

func TestReportCaching(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	ctx := asUser(u.ID())
	id := f.project(t, u.ID())
	if _, err := f.tasks.Create(ctx, CreateTaskInput{ProjectID: id, Title: "dock", AssigneeID: u.ID().String()}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := f.projects.Health(ctx, id); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if _, err := f.projects.Velocity(ctx, id, 7); err != nil {
		t.Fatalf("Velocity: %v", err)
	}
	if keys := f.cache.keysContaining(id); len(keys) != 0 {
		t.Fatalf("clock-dependent reports should not be cached: %v", keys)
	}

	team, err := f.projects.TeamSummary(ctx, id)
	if err != nil || team.WorkloadDistribution[u.Username()] != 1 {
		t.Fatalf("TeamSummary: %+v err=%v", team, err)
	}
	if keys := f.cache.keysContaining(":team:"); len(keys) != 1 {
		t.Fatalf("team summary cache keys=%v", keys)
	}

	renamed := "renamed-" + u.Username()
	if _, _, err := f.users.Update(ctx, u.ID().String(), UpdateUserInput{Username: &renamed}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if keys := f.cache.keysContaining(":team:"); len(keys) != 0 {
		t.Fatalf("rename left cached summaries: %v", keys)
	}
	team, err = f.projects.TeamSummary(ctx, id)
	if err != nil {
		t.Fatalf("TeamSummary after rename: %v", err)
	}
	if team.WorkloadDistribution[renamed] != 1 || len(team.WorkloadDistribution) != 1 {
		t.Fatalf("workload after rename=%v", team.WorkloadDistribution)
	}
}

func TestAuthLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t)

	tok, err := f.auth.Login(ctx, u.Email(), "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" || tok.ExpiresIn != 3600 {
		t.Fatalf("token=%+v", tok)
	}
	rd, err := f.auth.ParseToken(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if rd.UserID != u.ID().UUID() || rd.IsSuperuser {
		t.Fatalf("request data=%+v", rd)
	}
	stored, _, _ := f.users.Get(ctx, u.ID().String())
	if stored.LastLogin() == nil {
		t.Fatalf("last login not recorded")
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", u.Email(), "wrong horse"},
		{"unknown email", "nobody@example.com", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tt.email, tt.password)
			wantCode(t, err, aggregates.CodeUnauthorized)
		})
	}

	_, err = f.auth.ParseToken(ctx, tok.AccessToken+"x")
	wantCode(t, err, aggregates.CodeUnauthorized)

	other := NewAuthService(f.deps, "other-secret", time.Hour)
	_, err = other.ParseToken(ctx, tok.AccessToken)
	wantCode(t, err, aggregates.CodeUnauthorized)
}
