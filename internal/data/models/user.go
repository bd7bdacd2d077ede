package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

type UserRow struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string                      `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username       string                      `gorm:"size:50;not null;uniqueIndex" json:"username"`
	FullName       string                      `gorm:"size:100;not null" json:"full_name"`
	HashedPassword string                      `gorm:"not null" json:"-"`
	IsActive       bool                        `gorm:"not null;default:true;index" json:"is_active"`
	IsSuperuser    bool                        `gorm:"not null;default:false" json:"is_superuser"`
	AvatarURL      *string                     `json:"avatar_url,omitempty"`
	Bio            *string                     `gorm:"size:500" json:"bio,omitempty"`
	LastLogin      *time.Time                  `json:"last_login,omitempty"`
	ProjectIDs     datatypes.JSONSlice[string] `gorm:"not null" json:"project_ids"`
	Version        int                         `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time                   `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (UserRow) TableName() string { return "users" }

func UserToRow(u *user.User) UserRow {
	s := u.Snapshot()
	projectIDs := make([]string, 0, len(s.ProjectIDs))
	for _, id := range s.ProjectIDs {
		projectIDs = append(projectIDs, id.String())
	}
	return UserRow{
		ID:             s.ID.UUID(),
		Email:          s.Email,
		Username:       s.Username,
		FullName:       s.FullName,
		HashedPassword: s.HashedPassword,
		IsActive:       s.IsActive,
		IsSuperuser:    s.IsSuperuser,
		AvatarURL:      s.AvatarURL,
		Bio:            s.Bio,
		LastLogin:      utcPtr(s.LastLogin),
		ProjectIDs:     datatypes.NewJSONSlice(projectIDs),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func UserFromRow(row UserRow, clock aggregates.Clock) (*user.User, error) {
	projectIDs := make([]vo.ProjectID, 0, len(row.ProjectIDs))
	for _, raw := range row.ProjectIDs {
		id, err := vo.ParseProjectID(raw)
		if err != nil {
			return nil, err
		}
		projectIDs = append(projectIDs, id)
	}
	return user.Restore(user.Snapshot{
		ID:             vo.UserIDFromUUID(row.ID),
		Email:          row.Email,
		Username:       row.Username,
		FullName:       row.FullName,
		HashedPassword: row.HashedPassword,
		IsActive:       row.IsActive,
		IsSuperuser:    row.IsSuperuser,
		AvatarURL:      row.AvatarURL,
		Bio:            row.Bio,
		LastLogin:      utcPtr(row.LastLogin),
		ProjectIDs:     projectIDs,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}, user.WithClock(clock))
}

// All lists every row type, in migration order.
func All() []any {
	return []any{&UserRow{}, &ProjectRow{}, &TaskRow{}}
}
