package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

type ProjectRow struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                      `gorm:"size:100;not null" json:"name"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	OwnerID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Status      string                      `gorm:"size:32;not null;index" json:"status"`
	Members     datatypes.JSONSlice[string] `gorm:"not null" json:"members"`
	Version     int                         `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time                   `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (ProjectRow) TableName() string { return "projects" }

func ProjectToRow(p *project.Project) ProjectRow {
	s := p.Snapshot()
	return ProjectRow{
		ID:          s.ID.UUID(),
		Name:        s.Name,
		Description: s.Description,
		OwnerID:     s.OwnerID.UUID(),
		Status:      s.Status.String(),
		Members:     userIDStrings(s.Members),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ProjectFromRow rebuilds the aggregate; tasks must already belong to the project.
func ProjectFromRow(row ProjectRow, tasks []*task.Task, clock aggregates.Clock) (*project.Project, error) {
	members := make([]vo.UserID, 0, len(row.Members))
	for _, raw := range row.Members {
		id, err := vo.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return project.Restore(project.Snapshot{
		ID:          vo.ProjectIDFromUUID(row.ID),
		Name:        row.Name,
		Description: row.Description,
		OwnerID:     vo.UserIDFromUUID(row.OwnerID),
		Status:      vo.ProjectStatus(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
		Members:     members,
	}, tasks, project.WithClock(clock))
}

func userIDStrings(ids []vo.UserID) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return datatypes.NewJSONSlice(out)
}
