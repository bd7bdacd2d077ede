package valueobjects

import (
	"strings"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled}
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", aggregates.ValidationError("project_status", "invalid project status %q", s)
	}
	return st, nil
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	default:
		return false
	}
}

// AcceptsTasks is false once the project reached a terminal status.
func (s ProjectStatus) AcceptsTasks() bool {
	return s != ProjectCompleted && s != ProjectCancelled
}

func (s ProjectStatus) String() string { return string(s) }
