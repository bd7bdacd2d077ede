package task

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
)

// Task is a unit of work inside a project. Fields are only reachable through methods;
// every successful mutator advances UpdatedAt, a failing one leaves the task untouched.
type Task struct {
	id          vo.TaskID
	projectID   vo.ProjectID
	title       string
	description string
	status      vo.TaskStatus
	priority    vo.Priority
	assigneeID  vo.UserID
	reporterID  vo.UserID
	createdAt   time.Time
	updatedAt   time.Time
	dueDate     *time.Time
	completedAt *time.Time
	parentID    vo.TaskID
	subtasks    []vo.TaskID
	tags        []string

	clock aggregates.Clock
}

type Option func(*Task)

// WithClock overrides the time source used for timestamps and due-date checks.
func WithClock(c aggregates.Clock) Option {
	return func(t *Task) { t.clock = c }
}

type NewParams struct {
	ID          vo.TaskID // generated when zero
	ProjectID   vo.ProjectID
	Title       string
	Description string
	Priority    vo.Priority // medium when empty
	AssigneeID  vo.UserID
	ReporterID  vo.UserID
	DueDate     *time.Time
	ParentID    vo.TaskID
	Tags        []string
}

// New validates p and returns a task in status todo.
func New(p NewParams, opts ...Option) (*Task, error) {
	const op = "task.New"
	t := &Task{}
	for _, opt := range opts {
		opt(t)
	}
	if p.ProjectID.IsZero() {
		return nil, aggregates.ValidationError(op, "project id is required")
	}
	if p.ReporterID.IsZero() {
		return nil, aggregates.ValidationError(op, "reporter id is required")
	}
	if err := validateTitle(op, p.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(op, p.Description); err != nil {
		return nil, err
	}
	priority := p.Priority
	if priority == "" {
		priority = vo.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, aggregates.ValidationError(op, "invalid priority %q", priority)
	}
	now := t.clock.Now()
	if p.DueDate != nil && p.DueDate.Before(now) {
		return nil, aggregates.ValidationError(op, "due date cannot be in the past")
	}
	tags, err := normalizeTags(op, p.Tags)
	if err != nil {
		return nil, err
	}

	id := p.ID
	if id.IsZero() {
		id = vo.NewTaskID()
	}
	t.id = id
	t.projectID = p.ProjectID
	t.title = p.Title
	t.description = p.Description
	t.status = vo.TaskTodo
	t.priority = priority
	t.assigneeID = p.AssigneeID
	t.reporterID = p.ReporterID
	t.createdAt = now
	t.updatedAt = now
	t.dueDate = copyTime(p.DueDate)
	t.parentID = p.ParentID
	t.tags = tags
	return t, nil
}

func (t *Task) ID() vo.TaskID                { return t.id }
func (t *Task) ProjectID() vo.ProjectID      { return t.projectID }
func (t *Task) Title() string                { return t.title }
func (t *Task) Description() string          { return t.description }
func (t *Task) Status() vo.TaskStatus        { return t.status }
func (t *Task) Priority() vo.Priority        { return t.priority }
func (t *Task) AssigneeID() vo.UserID        { return t.assigneeID }
func (t *Task) ReporterID() vo.UserID        { return t.reporterID }
func (t *Task) CreatedAt() time.Time         { return t.createdAt }
func (t *Task) UpdatedAt() time.Time         { return t.updatedAt }
func (t *Task) DueDate() *time.Time          { return copyTime(t.dueDate) }
func (t *Task) CompletedAt() *time.Time      { return copyTime(t.completedAt) }
func (t *Task) ParentID() vo.TaskID          { return t.parentID }
func (t *Task) Subtasks() []vo.TaskID        { return slices.Clone(t.subtasks) }
func (t *Task) Tags() []string               { return slices.Clone(t.tags) }
func (t *Task) IsAssigned() bool             { return !t.assigneeID.IsZero() }
func (t *Task) IsSubtask() bool              { return !t.parentID.IsZero() }
func (t *Task) Now() time.Time               { return t.clock.Now() }
func (t *Task) HasTag(tag string) bool       { return slices.Contains(t.tags, normalizeTag(tag)) }
func (t *Task) HasSubtask(id vo.TaskID) bool { return slices.Contains(t.subtasks, id) }

func (t *Task) UpdateTitle(title string) error {
	if err := validateTitle("task.UpdateTitle", title); err != nil {
		return err
	}
	t.title = title
	t.touch()
	return nil
}

func (t *Task) UpdateDescription(description string) error {
	if err := validateDescription("task.UpdateDescription", description); err != nil {
		return err
	}
	t.description = description
	t.touch()
	return nil
}

func (t *Task) UpdatePriority(p vo.Priority) error {
	if !p.IsValid() {
		return aggregates.ValidationError("task.UpdatePriority", "invalid priority %q", p)
	}
	t.priority = p
	t.touch()
	return nil
}

func (t *Task) AssignTo(userID vo.UserID) {
	t.assigneeID = userID
	t.touch()
}

func (t *Task) Unassign() {
	t.assigneeID = vo.UserID{}
	t.touch()
}

// ChangeStatus moves the task along the status table. Entering done stamps CompletedAt,
// entering any other status clears it.
func (t *Task) ChangeStatus(next vo.TaskStatus) error {
	if !next.IsValid() {
		return aggregates.ValidationError("task.ChangeStatus", "invalid task status %q", next)
	}
	if !t.status.CanTransitionTo(next) {
		return aggregates.InvalidTransitionError("task.ChangeStatus", "cannot move task from %s to %s", t.status, next)
	}
	prev := t.status
	now := t.clock.Now()
	t.status = next
	t.updatedAt = now
	switch {
	case next == vo.TaskDone && prev != vo.TaskDone:
		t.completedAt = &now
	case next != vo.TaskDone:
		t.completedAt = nil
	}
	return nil
}

func (t *Task) Start() error           { return t.ChangeStatus(vo.TaskInProgress) }
func (t *Task) SubmitForReview() error { return t.ChangeStatus(vo.TaskInReview) }
func (t *Task) MarkAsDone() error      { return t.ChangeStatus(vo.TaskDone) }
func (t *Task) MarkAsBlocked() error   { return t.ChangeStatus(vo.TaskBlocked) }
func (t *Task) Cancel() error          { return t.ChangeStatus(vo.TaskCancelled) }

// SetDueDate rejects dates before now; nil clears the due date.
func (t *Task) SetDueDate(due *time.Time) error {
	now := t.clock.Now()
	if due != nil && due.Before(now) {
		return aggregates.ValidationError("task.SetDueDate", "due date cannot be in the past")
	}
	t.dueDate = copyTime(due)
	t.updatedAt = now
	return nil
}

func (t *Task) AddSubtask(id vo.TaskID) error {
	if id.IsZero() {
		return aggregates.ValidationError("task.AddSubtask", "subtask id is required")
	}
	if id == t.id {
		return aggregates.ValidationError("task.AddSubtask", "task cannot be its own subtask")
	}
	if slices.Contains(t.subtasks, id) {
		return aggregates.DuplicateError("task.AddSubtask", "subtask %s already present", id)
	}
	t.subtasks = append(t.subtasks, id)
	t.touch()
	return nil
}

// RemoveSubtask is a no-op when id is absent.
func (t *Task) RemoveSubtask(id vo.TaskID) {
	i := slices.Index(t.subtasks, id)
	if i < 0 {
		return
	}
	t.subtasks = slices.Delete(t.subtasks, i, i+1)
	t.touch()
}

// AddTag stores tag trimmed and lower-cased.
func (t *Task) AddTag(tag string) error {
	norm := normalizeTag(tag)
	if norm == "" {
		return aggregates.ValidationError("task.AddTag", "tag must not be empty")
	}
	if slices.Contains(t.tags, norm) {
		return aggregates.DuplicateError("task.AddTag", "tag %q already present", norm)
	}
	t.tags = append(t.tags, norm)
	t.touch()
	return nil
}

func (t *Task) RemoveTag(tag string) {
	i := slices.Index(t.tags, normalizeTag(tag))
	if i < 0 {
		return
	}
	t.tags = slices.Delete(t.tags, i, i+1)
	t.touch()
}

func (t *Task) IsCompleted() bool    { return t.status == vo.TaskDone }
func (t *Task) IsActive() bool       { return t.status.IsActive() }
func (t *Task) IsHighPriority() bool { return t.priority.IsHigh() }

func (t *Task) IsOverdue() bool { return t.IsOverdueAt(t.clock.Now()) }

// IsOverdueAt reports whether the due date lies strictly before now and the task is not done.
func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.dueDate == nil || t.IsCompleted() {
		return false
	}
	return now.After(*t.dueDate)
}

func (t *Task) AgeInDays() int { return t.AgeInDaysAt(t.clock.Now()) }

// AgeInDaysAt counts whole days since creation, flooring like a calendar-day difference.
func (t *Task) AgeInDaysAt(now time.Time) int {
	return WholeDays(now.Sub(t.createdAt))
}

// CanBeEditedBy is true for the reporter and the assignee.
func (t *Task) CanBeEditedBy(userID vo.UserID) bool {
	if userID.IsZero() {
		return false
	}
	return t.reporterID == userID || t.assigneeID == userID
}

func (t *Task) touch() { t.updatedAt = t.clock.Now() }

// WholeDays floors d to days, so -1h is -1 and 23h is 0.
func WholeDays(d time.Duration) int {
	const day = 24 * time.Hour
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

func validateTitle(op, title string) error {
	if strings.TrimSpace(title) == "" {
		return aggregates.ValidationError(op, "title must not be blank")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return aggregates.ValidationError(op, "title exceeds %d characters", MaxTitleLen)
	}
	return nil
}

func validateDescription(op, description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return aggregates.ValidationError(op, "description exceeds %d characters", MaxDescriptionLen)
	}
	return nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func normalizeTags(op string, in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		tag := normalizeTag(raw)
		if tag == "" {
			return nil, aggregates.ValidationError(op, "tag must not be empty")
		}
		if slices.Contains(out, tag) {
			return nil, aggregates.DuplicateError(op, "tag %q already present", tag)
		}
		out = append(out, tag)
	}
	return out, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
