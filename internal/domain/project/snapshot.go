package project

import (
	"slices"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

// Snapshot is the plain record form of a Project without its tasks.
type Snapshot struct {
	ID          vo.ProjectID
	Name        string
	Description string
	OwnerID     vo.UserID
	Status      vo.ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Members     []vo.UserID
}

func (p *Project) Snapshot() Snapshot {
	return Snapshot{
		ID:          p.id,
		Name:        p.name,
		Description: p.description,
		OwnerID:     p.ownerID,
		Status:      p.status,
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
		Members:     slices.Clone(p.members),
	}
}

// Restore rebuilds a stored project with its tasks. Tasks from another project or
// repeated ids are rejected; the terminal-status guard of AddTask does not apply here.
func Restore(s Snapshot, tasks []*task.Task, opts ...Option) (*Project, error) {
	const op = "project.Restore"
	if s.ID.IsZero() || s.OwnerID.IsZero() {
		return nil, aggregates.ValidationError(op, "id and owner id are required")
	}
	if err := validateName(op, s.Name); err != nil {
		return nil, err
	}
	if err := validateDescription(op, s.Description); err != nil {
		return nil, err
	}
	if !s.Status.IsValid() {
		return nil, aggregates.ValidationError(op, "invalid project status %q", s.Status)
	}
	p := &Project{
		id:          s.ID,
		name:        s.Name,
		description: s.Description,
		ownerID:     s.OwnerID,
		status:      s.Status,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, m := range s.Members {
		if slices.Contains(p.members, m) {
			continue
		}
		p.members = append(p.members, m)
	}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if t.ProjectID() != p.id {
			return nil, aggregates.ValidationError(op, "task %s belongs to project %s", t.ID(), t.ProjectID())
		}
		if _, ok := p.Task(t.ID()); ok {
			return nil, aggregates.DuplicateError(op, "task %s listed twice", t.ID())
		}
		p.tasks = append(p.tasks, t)
	}
	return p, nil
}
