package user

import (
	"slices"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

type Snapshot struct {
	ID             vo.UserID
	Email          string
	Username       string
	FullName       string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLogin      *time.Time
	AvatarURL      *string
	Bio            *string
	ProjectIDs     []vo.ProjectID
}

func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:             u.id,
		Email:          u.email,
		Username:       u.username,
		FullName:       u.fullName,
		HashedPassword: u.hashedPassword,
		IsActive:       u.isActive,
		IsSuperuser:    u.isSuperuser,
		CreatedAt:      u.createdAt,
		UpdatedAt:      u.updatedAt,
		LastLogin:      copyTime(u.lastLogin),
		AvatarURL:      copyString(u.avatarURL),
		Bio:            copyString(u.bio),
		ProjectIDs:     slices.Clone(u.projectIDs),
	}
}

func Restore(s Snapshot, opts ...Option) (*User, error) {
	const op = "user.Restore"
	if s.ID.IsZero() {
		return nil, aggregates.ValidationError(op, "id is required")
	}
	if err := validateEmail(op, s.Email); err != nil {
		return nil, err
	}
	if err := validateUsername(op, s.Username); err != nil {
		return nil, err
	}
	if err := validateFullName(op, s.FullName); err != nil {
		return nil, err
	}
	if err := validateBio(op, s.Bio); err != nil {
		return nil, err
	}
	u := &User{
		id:             s.ID,
		email:          s.Email,
		username:       s.Username,
		fullName:       s.FullName,
		hashedPassword: s.HashedPassword,
		isActive:       s.IsActive,
		isSuperuser:    s.IsSuperuser,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
		lastLogin:      copyTime(s.LastLogin),
		avatarURL:      copyString(s.AvatarURL),
		bio:            copyString(s.Bio),
	}
	for _, pid := range s.ProjectIDs {
		if !slices.Contains(u.projectIDs, pid) {
			u.projectIDs = append(u.projectIDs, pid)
		}
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}
