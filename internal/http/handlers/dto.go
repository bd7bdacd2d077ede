package handlers

import (
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type TaskResponse struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"project_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	AssigneeID     *string  `json:"assignee_id"`
	ReporterID     string   `json:"reporter_id"`
	ParentTaskID   *string  `json:"parent_task_id"`
	Subtasks       []string `json:"subtasks"`
	Tags           []string `json:"tags"`
	DueDate        *string  `json:"due_date"`
	CompletedAt    *string  `json:"completed_at"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	IsCompleted    bool     `json:"is_completed"`
	IsOverdue      bool     `json:"is_overdue"`
	IsHighPriority bool     `json:"is_high_priority"`
	AgeInDays      int      `json:"age_in_days"`
	Version        int      `json:"version,omitempty"`
}

type ProjectResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	OwnerID      string           `json:"owner_id"`
	Status       string           `json:"status"`
	Members      []string         `json:"members"`
	TaskProgress project.Progress `json:"task_progress"`
	IsActive     bool             `json:"is_active"`
	IsCompleted  bool             `json:"is_completed"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
	Version      int              `json:"version,omitempty"`
}

type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	DisplayName string   `json:"display_name"`
	Initials    string   `json:"initials"`
	IsActive    bool     `json:"is_active"`
	IsSuperuser bool     `json:"is_superuser"`
	Bio         *string  `json:"bio"`
	AvatarURL   *string  `json:"avatar_url"`
	ProjectIDs  []string `json:"project_ids"`
	LastLogin   *string  `json:"last_login"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Version     int      `json:"version,omitempty"`
}

type PageResponse[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timestamp(*t)
	return &s
}

func optionalID(id interface {
	IsZero() bool
	String() string
}) *string {
	if id.IsZero() {
		return nil
	}
	s := id.String()
	return &s
}

func TaskView(t *task.Task, version int) TaskResponse {
	subtasks := make([]string, 0, len(t.Subtasks()))
	for _, id := range t.Subtasks() {
		subtasks = append(subtasks, id.String())
	}
	tags := t.Tags()
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:             t.ID().String(),
		ProjectID:      t.ProjectID().String(),
		Title:          t.Title(),
		Description:    t.Description(),
		Status:         t.Status().String(),
		Priority:       t.Priority().String(),
		AssigneeID:     optionalID(t.AssigneeID()),
		ReporterID:     t.ReporterID().String(),
		ParentTaskID:   optionalID(t.ParentID()),
		Subtasks:       subtasks,
		Tags:           tags,
		DueDate:        optionalTimestamp(t.DueDate()),
		CompletedAt:    optionalTimestamp(t.CompletedAt()),
		CreatedAt:      timestamp(t.CreatedAt()),
		UpdatedAt:      timestamp(t.UpdatedAt()),
		IsCompleted:    t.IsCompleted(),
		IsOverdue:      t.IsOverdue(),
		IsHighPriority: t.IsHighPriority(),
		AgeInDays:      t.AgeInDays(),
		Version:        version,
	}
}

func ProjectView(p *project.Project, version int) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID().String(),
		Name:         p.Name(),
		Description:  p.Description(),
		OwnerID:      p.OwnerID().String(),
		Status:       p.Status().String(),
		Members:      userIDStrings(p.Members()),
		TaskProgress: p.TaskProgress(),
		IsActive:     p.IsActive(),
		IsCompleted:  p.IsCompleted(),
		CreatedAt:    timestamp(p.CreatedAt()),
		UpdatedAt:    timestamp(p.UpdatedAt()),
		Version:      version,
	}
}

func UserView(u *user.User, version int) UserResponse {
	projectIDs := make([]string, 0, len(u.ProjectIDs()))
	for _, id := range u.ProjectIDs() {
		projectIDs = append(projectIDs, id.String())
	}
	return UserResponse{
		ID:          u.ID().String(),
		Email:       u.Email(),
		Username:    u.Username(),
		FullName:    u.FullName(),
		DisplayName: u.DisplayName(),
		Initials:    u.Initials(),
		IsActive:    u.IsActive(),
		IsSuperuser: u.IsSuperuser(),
		Bio:         u.Bio(),
		AvatarURL:   u.AvatarURL(),
		ProjectIDs:  projectIDs,
		LastLogin:   optionalTimestamp(u.LastLogin()),
		CreatedAt:   timestamp(u.CreatedAt()),
		UpdatedAt:   timestamp(u.UpdatedAt()),
		Version:     version,
	}
}

func userIDStrings(ids []vo.UserID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func mapPage[S, T any](p services.Page[S], view func(S) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, view(it))
	}
	return PageResponse[T]{Items: items, Total: p.Total, Page: p.Page, PerPage: p.PerPage, Pages: p.Pages}
}

func taskViews(tasks []*task.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView(t, 0))
	}
	return out
}
