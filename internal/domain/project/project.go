package project

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/numeric"
)

const (
	MaxNameLen        = 100
	MaxDescriptionLen = 2000
)

// Project is the aggregate root owning its tasks and membership set.
// The owner is always treated as a member and can never be removed.
type Project struct {
	id          vo.ProjectID
	name        string
	description string
	ownerID     vo.UserID
	status      vo.ProjectStatus
	createdAt   time.Time
	updatedAt   time.Time
	tasks       []*task.Task
	members     []vo.UserID

	clock aggregates.Clock
}

type Option func(*Project)

func WithClock(c aggregates.Clock) Option {
	return func(p *Project) { p.clock = c }
}

type NewParams struct {
	ID          vo.ProjectID // generated when zero
	Name        string
	Description string
	OwnerID     vo.UserID
}

// Progress summarizes task completion; Percentage is rounded to 2 decimals.
type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

func New(p NewParams, opts ...Option) (*Project, error) {
	const op = "project.New"
	if err := validateName(op, p.Name); err != nil {
		return nil, err
	}
	if err := validateDescription(op, p.Description); err != nil {
		return nil, err
	}
	if p.OwnerID.IsZero() {
		return nil, aggregates.ValidationError(op, "owner id is required")
	}
	pr := &Project{}
	for _, opt := range opts {
		opt(pr)
	}
	id := p.ID
	if id.IsZero() {
		id = vo.NewProjectID()
	}
	now := pr.clock.Now()
	pr.id = id
	pr.name = p.Name
	pr.description = p.Description
	pr.ownerID = p.OwnerID
	pr.status = vo.ProjectPlanning
	pr.createdAt = now
	pr.updatedAt = now
	return pr, nil
}

func (p *Project) ID() vo.ProjectID         { return p.id }
func (p *Project) Name() string             { return p.name }
func (p *Project) Description() string      { return p.description }
func (p *Project) OwnerID() vo.UserID       { return p.ownerID }
func (p *Project) Status() vo.ProjectStatus { return p.status }
func (p *Project) CreatedAt() time.Time     { return p.createdAt }
func (p *Project) UpdatedAt() time.Time     { return p.updatedAt }
func (p *Project) Members() []vo.UserID     { return slices.Clone(p.members) }
func (p *Project) Now() time.Time           { return p.clock.Now() }

// Tasks returns the contained tasks. The slice is a copy; the tasks are shared.
func (p *Project) Tasks() []*task.Task { return slices.Clone(p.tasks) }

func (p *Project) Task(id vo.TaskID) (*task.Task, bool) {
	for _, t := range p.tasks {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

func (p *Project) UpdateName(name string) error {
	if err := validateName("project.UpdateName", name); err != nil {
		return err
	}
	p.name = name
	p.touch()
	return nil
}

func (p *Project) UpdateDescription(description string) error {
	if err := validateDescription("project.UpdateDescription", description); err != nil {
		return err
	}
	p.description = description
	p.touch()
	return nil
}

func (p *Project) Activate() error {
	switch p.status {
	case vo.ProjectCancelled:
		return aggregates.InvalidStateError("project.Activate", "cancelled project cannot be reactivated")
	case vo.ProjectCompleted:
		return aggregates.InvalidStateError("project.Activate", "completed project cannot be reactivated")
	}
	p.status = vo.ProjectActive
	p.touch()
	return nil
}

func (p *Project) PutOnHold() error {
	if p.status != vo.ProjectActive && p.status != vo.ProjectPlanning {
		return aggregates.InvalidStateError("project.PutOnHold", "only active or planning projects can be put on hold (status %s)", p.status)
	}
	p.status = vo.ProjectOnHold
	p.touch()
	return nil
}

// Complete requires every contained task to be done.
func (p *Project) Complete() error {
	if p.status == vo.ProjectCancelled {
		return aggregates.InvalidStateError("project.Complete", "cancelled project cannot be completed")
	}
	if open := len(p.ActiveTasks()); open > 0 {
		return aggregates.InvalidStateError("project.Complete", "%d incomplete tasks remain", open)
	}
	p.status = vo.ProjectCompleted
	p.touch()
	return nil
}

func (p *Project) Cancel() error {
	if p.status == vo.ProjectCompleted {
		return aggregates.InvalidStateError("project.Cancel", "completed project cannot be cancelled")
	}
	p.status = vo.ProjectCancelled
	p.touch()
	return nil
}

// TransitionTo dispatches to the mutator guarding the target status.
func (p *Project) TransitionTo(target vo.ProjectStatus) error {
	switch target {
	case vo.ProjectActive:
		return p.Activate()
	case vo.ProjectOnHold:
		return p.PutOnHold()
	case vo.ProjectCompleted:
		return p.Complete()
	case vo.ProjectCancelled:
		return p.Cancel()
	case vo.ProjectPlanning:
		if p.status == vo.ProjectPlanning {
			return nil
		}
		return aggregates.InvalidStateError("project.TransitionTo", "cannot return to planning from %s", p.status)
	default:
		return aggregates.ValidationError("project.TransitionTo", "invalid project status %q", target)
	}
}

func (p *Project) AddTask(t *task.Task) error {
	const op = "project.AddTask"
	if t == nil {
		return aggregates.ValidationError(op, "task is required")
	}
	if !p.status.AcceptsTasks() {
		return aggregates.InvalidStateError(op, "%s project cannot accept tasks", p.status)
	}
	if t.ProjectID() != p.id {
		return aggregates.ValidationError(op, "task %s belongs to project %s", t.ID(), t.ProjectID())
	}
	if _, ok := p.Task(t.ID()); ok {
		return aggregates.DuplicateError(op, "task %s already in project", t.ID())
	}
	p.tasks = append(p.tasks, t)
	p.touch()
	return nil
}

func (p *Project) RemoveTask(id vo.TaskID) {
	p.tasks = slices.DeleteFunc(p.tasks, func(t *task.Task) bool { return t.ID() == id })
	p.touch()
}

func (p *Project) AddMember(userID vo.UserID) error {
	if userID.IsZero() {
		return aggregates.ValidationError("project.AddMember", "user id is required")
	}
	if slices.Contains(p.members, userID) {
		return aggregates.DuplicateError("project.AddMember", "user %s is already a member", userID)
	}
	p.members = append(p.members, userID)
	p.touch()
	return nil
}

// RemoveMember rejects the owner before checking membership.
func (p *Project) RemoveMember(userID vo.UserID) error {
	if userID == p.ownerID {
		return aggregates.ValidationError("project.RemoveMember", "project owner cannot be removed")
	}
	i := slices.Index(p.members, userID)
	if i < 0 {
		return aggregates.NotFoundError("project.RemoveMember", "user %s is not a member", userID)
	}
	p.members = slices.Delete(p.members, i, i+1)
	p.touch()
	return nil
}

// TransferOwnership hands the project to an existing member. The previous owner stays on
// as a member.
func (p *Project) TransferOwnership(newOwner vo.UserID) error {
	const op = "project.TransferOwnership"
	if newOwner.IsZero() {
		return aggregates.ValidationError(op, "new owner id is required")
	}
	if newOwner == p.ownerID {
		return aggregates.InvalidStateError(op, "user %s already owns the project", newOwner)
	}
	if !slices.Contains(p.members, newOwner) {
		return aggregates.NotFoundError(op, "user %s is not a member", newOwner)
	}
	if !slices.Contains(p.members, p.ownerID) {
		p.members = append(p.members, p.ownerID)
	}
	p.ownerID = newOwner
	p.touch()
	return nil
}

func (p *Project) IsMember(userID vo.UserID) bool {
	return userID == p.ownerID || slices.Contains(p.members, userID)
}

func (p *Project) IsOwner(userID vo.UserID) bool { return userID == p.ownerID }

func (p *Project) CanEdit(userID vo.UserID) bool { return p.IsOwner(userID) || p.IsMember(userID) }

func (p *Project) IsActive() bool    { return p.status == vo.ProjectActive }
func (p *Project) IsCompleted() bool { return p.status == vo.ProjectCompleted }

// ActiveTasks returns tasks that are not done. Cancelled tasks count as not done.
func (p *Project) ActiveTasks() []*task.Task {
	out := make([]*task.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		if !t.IsCompleted() {
			out = append(out, t)
		}
	}
	return out
}

func (p *Project) CompletedTasks() []*task.Task {
	out := make([]*task.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		if t.IsCompleted() {
			out = append(out, t)
		}
	}
	return out
}

func (p *Project) TaskProgress() Progress {
	total := len(p.tasks)
	if total == 0 {
		return Progress{}
	}
	done := len(p.CompletedTasks())
	return Progress{
		Total:      total,
		Completed:  done,
		Percentage: numeric.Round(float64(done)/float64(total)*100, 2),
	}
}

func (p *Project) touch() { p.updatedAt = p.clock.Now() }

func validateName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return aggregates.ValidationError(op, "name must not be blank")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return aggregates.ValidationError(op, "name exceeds %d characters", MaxNameLen)
	}
	return nil
}

// validateDescription only rejects the empty string; whitespace is kept as given.
func validateDescription(op, description string) error {
	if description == "" {
		return aggregates.ValidationError(op, "description is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return aggregates.ValidationError(op, "description exceeds %d characters", MaxDescriptionLen)
	}
	return nil
}
