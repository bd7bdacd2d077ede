package analytics

import (
	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

// Permissions is where authorization policy plugs in. DefaultPermissions carries the
// placeholder rules below; nothing more should be inferred from them.
type Permissions interface {
	CanCreateProject(userID vo.UserID) bool
	CanModifyProject(p *project.Project, userID vo.UserID) bool
	CanDeleteProject(p *project.Project, userID vo.UserID) bool
	CanModifyTask(t *task.Task, userID vo.UserID) bool
	CanDeleteTask(t *task.Task, userID vo.UserID) bool
}

type DefaultPermissions struct{}

var _ Permissions = DefaultPermissions{}

func (DefaultPermissions) CanCreateProject(vo.UserID) bool { return true }

func (DefaultPermissions) CanModifyProject(p *project.Project, userID vo.UserID) bool {
	return p.CanEdit(userID)
}

func (DefaultPermissions) CanDeleteProject(p *project.Project, userID vo.UserID) bool {
	return p.IsOwner(userID)
}

func (DefaultPermissions) CanModifyTask(t *task.Task, userID vo.UserID) bool {
	return t.CanBeEditedBy(userID)
}

func (DefaultPermissions) CanDeleteTask(t *task.Task, userID vo.UserID) bool {
	return t.ReporterID() == userID
}

// Actions understood by ValidateUserPermission.
const (
	ActionCreateProject = "create_project"
	ActionEditProject   = "edit_project"
	ActionDeleteProject = "delete_project"
	ActionCreateTask    = "create_task"
	ActionEditTask      = "edit_task"
	ActionDeleteTask    = "delete_task"
	ActionManageUsers   = "manage_users"
)

// ValidateUserPermission is a role-table placeholder without resource context. Superusers
// pass everything; for anyone else only the member-scoped actions pass, and the
// owner/assignee/reporter roles defer to User.HasPermission.
func ValidateUserPermission(u *user.User, action string) bool {
	if u.IsSuperuser() {
		return true
	}
	switch action {
	case ActionEditProject, ActionCreateTask:
		return true
	case ActionDeleteProject:
		return u.HasPermission("project_owner")
	case ActionEditTask:
		return u.HasPermission("task_assignee")
	case ActionDeleteTask:
		return u.HasPermission("task_reporter")
	default:
		return false
	}
}
