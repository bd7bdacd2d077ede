package task

import (
	"slices"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

// Snapshot is the plain record form of a Task, used by persistence and projections.
type Snapshot struct {
	ID          vo.TaskID
	ProjectID   vo.ProjectID
	Title       string
	Description string
	Status      vo.TaskStatus
	Priority    vo.Priority
	AssigneeID  vo.UserID
	ReporterID  vo.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DueDate     *time.Time
	CompletedAt *time.Time
	ParentID    vo.TaskID
	Subtasks    []vo.TaskID
	Tags        []string
}

func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.id,
		ProjectID:   t.projectID,
		Title:       t.title,
		Description: t.description,
		Status:      t.status,
		Priority:    t.priority,
		AssigneeID:  t.assigneeID,
		ReporterID:  t.reporterID,
		CreatedAt:   t.createdAt,
		UpdatedAt:   t.updatedAt,
		DueDate:     copyTime(t.dueDate),
		CompletedAt: copyTime(t.completedAt),
		ParentID:    t.parentID,
		Subtasks:    slices.Clone(t.subtasks),
		Tags:        slices.Clone(t.tags),
	}
}

// Restore rebuilds a stored task. Structural invariants are re-checked; time-relative
// rules such as "due date not in the past" are not, since they held when the task was written.
func Restore(s Snapshot, opts ...Option) (*Task, error) {
	const op = "task.Restore"
	if s.ID.IsZero() || s.ProjectID.IsZero() || s.ReporterID.IsZero() {
		return nil, aggregates.ValidationError(op, "id, project id and reporter id are required")
	}
	if err := validateTitle(op, s.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(op, s.Description); err != nil {
		return nil, err
	}
	if !s.Status.IsValid() {
		return nil, aggregates.ValidationError(op, "invalid task status %q", s.Status)
	}
	if !s.Priority.IsValid() {
		return nil, aggregates.ValidationError(op, "invalid priority %q", s.Priority)
	}
	if (s.Status == vo.TaskDone) != (s.CompletedAt != nil) {
		return nil, aggregates.ValidationError(op, "completed_at must be set exactly when status is done")
	}
	tags, err := normalizeTags(op, s.Tags)
	if err != nil {
		return nil, err
	}
	subtasks := make([]vo.TaskID, 0, len(s.Subtasks))
	for _, id := range s.Subtasks {
		if slices.Contains(subtasks, id) {
			return nil, aggregates.DuplicateError(op, "subtask %s listed twice", id)
		}
		subtasks = append(subtasks, id)
	}

	t := &Task{
		id:          s.ID,
		projectID:   s.ProjectID,
		title:       s.Title,
		description: s.Description,
		status:      s.Status,
		priority:    s.Priority,
		assigneeID:  s.AssigneeID,
		reporterID:  s.ReporterID,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
		dueDate:     copyTime(s.DueDate),
		completedAt: copyTime(s.CompletedAt),
		parentID:    s.ParentID,
		subtasks:    subtasks,
		tags:        tags,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}
