package valueobjects

import (
	"slices"
	"strings"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
	TaskCancelled  TaskStatus = "cancelled"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskTodo:       {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskInReview, TaskBlocked, TaskCancelled},
	TaskInReview:   {TaskDone, TaskInProgress},
	TaskBlocked:    {TaskInProgress, TaskCancelled},
	TaskDone:       {},
	TaskCancelled:  {},
}

func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskTodo, TaskInProgress, TaskInReview, TaskDone, TaskBlocked, TaskCancelled}
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", aggregates.ValidationError("task_status", "invalid task status %q", s)
	}
	return st, nil
}

func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// IsActive is true for every non-terminal status.
func (s TaskStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskDone || s == TaskCancelled
}

func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	return slices.Contains(taskTransitions[s], next)
}

// AllowedTransitions returns a copy of the outgoing edges of s.
func (s TaskStatus) AllowedTransitions() []TaskStatus {
	return slices.Clone(taskTransitions[s])
}

func (s TaskStatus) String() string { return string(s) }
