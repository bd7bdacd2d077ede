package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

type TaskRow struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID                   `gorm:"type:uuid;not null;index" json:"project_id"`
	Title       string                      `gorm:"size:200;not null" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Status      string                      `gorm:"size:32;not null;index" json:"status"`
	Priority    string                      `gorm:"size:16;not null;index" json:"priority"`
	AssigneeID  *uuid.UUID                  `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	ReporterID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ParentID    *uuid.UUID                  `gorm:"type:uuid" json:"parent_id,omitempty"`
	DueDate     *time.Time                  `json:"due_date,omitempty"`
	CompletedAt *time.Time                  `json:"completed_at,omitempty"`
	Subtasks    datatypes.JSONSlice[string] `gorm:"not null" json:"subtasks"`
	Tags        datatypes.JSONSlice[string] `gorm:"not null" json:"tags"`
	Version     int                         `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time                   `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (TaskRow) TableName() string { return "tasks" }

func TaskToRow(t *task.Task) TaskRow {
	s := t.Snapshot()
	subtasks := make([]string, 0, len(s.Subtasks))
	for _, id := range s.Subtasks {
		subtasks = append(subtasks, id.String())
	}
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskRow{
		ID:          s.ID.UUID(),
		ProjectID:   s.ProjectID.UUID(),
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status.String(),
		Priority:    s.Priority.String(),
		AssigneeID:  optionalUUID(s.AssigneeID.IsZero(), s.AssigneeID.UUID()),
		ReporterID:  s.ReporterID.UUID(),
		ParentID:    optionalUUID(s.ParentID.IsZero(), s.ParentID.UUID()),
		DueDate:     utcPtr(s.DueDate),
		CompletedAt: utcPtr(s.CompletedAt),
		Subtasks:    datatypes.NewJSONSlice(subtasks),
		Tags:        datatypes.NewJSONSlice(tags),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func TaskFromRow(row TaskRow, clock aggregates.Clock) (*task.Task, error) {
	subtasks := make([]vo.TaskID, 0, len(row.Subtasks))
	for _, raw := range row.Subtasks {
		id, err := vo.ParseTaskID(raw)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, id)
	}
	s := task.Snapshot{
		ID:          vo.TaskIDFromUUID(row.ID),
		ProjectID:   vo.ProjectIDFromUUID(row.ProjectID),
		Title:       row.Title,
		Description: row.Description,
		Status:      vo.TaskStatus(row.Status),
		Priority:    vo.Priority(row.Priority),
		ReporterID:  vo.UserIDFromUUID(row.ReporterID),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
		DueDate:     utcPtr(row.DueDate),
		CompletedAt: utcPtr(row.CompletedAt),
		Subtasks:    subtasks,
		Tags:        []string(row.Tags),
	}
	if row.AssigneeID != nil {
		s.AssigneeID = vo.UserIDFromUUID(*row.AssigneeID)
	}
	if row.ParentID != nil {
		s.ParentID = vo.TaskIDFromUUID(*row.ParentID)
	}
	return task.Restore(s, task.WithClock(clock))
}

func optionalUUID(zero bool, id uuid.UUID) *uuid.UUID {
	if zero {
		return nil
	}
	return &id
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
