package user

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
)

const (
	MaxEmailLen    = 255
	MaxUsernameLen = 50
	MaxFullNameLen = 100
	MaxBioLen      = 500
)

// User is an account. HashedPassword is opaque to the domain.
type User struct {
	id             vo.UserID
	email          string
	username       string
	fullName       string
	hashedPassword string
	isActive       bool
	isSuperuser    bool
	createdAt      time.Time
	updatedAt      time.Time
	lastLogin      *time.Time
	avatarURL      *string
	bio            *string
	projectIDs     []vo.ProjectID

	clock aggregates.Clock
}

type Option func(*User)

func WithClock(c aggregates.Clock) Option {
	return func(u *User) { u.clock = c }
}

type NewParams struct {
	ID             vo.UserID
	Email          string
	Username       string
	FullName       string
	HashedPassword string
	Bio            *string
	AvatarURL      *string
}

func New(p NewParams, opts ...Option) (*User, error) {
	const op = "user.New"
	if err := validateEmail(op, p.Email); err != nil {
		return nil, err
	}
	if err := validateUsername(op, p.Username); err != nil {
		return nil, err
	}
	if err := validateFullName(op, p.FullName); err != nil {
		return nil, err
	}
	if p.HashedPassword == "" {
		return nil, aggregates.ValidationError(op, "password hash is required")
	}
	if err := validateBio(op, p.Bio); err != nil {
		return nil, err
	}
	u := &User{}
	for _, opt := range opts {
		opt(u)
	}
	id := p.ID
	if id.IsZero() {
		id = vo.NewUserID()
	}
	now := u.clock.Now()
	u.id = id
	u.email = p.Email
	u.username = p.Username
	u.fullName = p.FullName
	u.hashedPassword = p.HashedPassword
	u.isActive = true
	u.createdAt = now
	u.updatedAt = now
	u.bio = copyString(p.Bio)
	u.avatarURL = copyString(p.AvatarURL)
	return u, nil
}

func (u *User) ID() vo.UserID              { return u.id }
func (u *User) Email() string              { return u.email }
func (u *User) Username() string           { return u.username }
func (u *User) FullName() string           { return u.fullName }
func (u *User) HashedPassword() string     { return u.hashedPassword }
func (u *User) IsActive() bool             { return u.isActive }
func (u *User) IsSuperuser() bool          { return u.isSuperuser }
func (u *User) CreatedAt() time.Time       { return u.createdAt }
func (u *User) UpdatedAt() time.Time       { return u.updatedAt }
func (u *User) LastLogin() *time.Time      { return copyTime(u.lastLogin) }
func (u *User) AvatarURL() *string         { return copyString(u.avatarURL) }
func (u *User) Bio() *string               { return copyString(u.bio) }
func (u *User) ProjectIDs() []vo.ProjectID { return slices.Clone(u.projectIDs) }

func (u *User) UpdateEmail(email string) error {
	if err := validateEmail("user.UpdateEmail", email); err != nil {
		return err
	}
	u.email = email
	u.touch()
	return nil
}

func (u *User) UpdateUsername(username string) error {
	if err := validateUsername("user.UpdateUsername", username); err != nil {
		return err
	}
	u.username = username
	u.touch()
	return nil
}

func (u *User) UpdateFullName(fullName string) error {
	if err := validateFullName("user.UpdateFullName", fullName); err != nil {
		return err
	}
	u.fullName = fullName
	u.touch()
	return nil
}

func (u *User) UpdatePassword(hashed string) error {
	if hashed == "" {
		return aggregates.ValidationError("user.UpdatePassword", "password hash is required")
	}
	u.hashedPassword = hashed
	u.touch()
	return nil
}

func (u *User) UpdateAvatar(url *string) {
	u.avatarURL = copyString(url)
	u.touch()
}

func (u *User) UpdateBio(bio *string) error {
	if err := validateBio("user.UpdateBio", bio); err != nil {
		return err
	}
	u.bio = copyString(bio)
	u.touch()
	return nil
}

func (u *User) Activate()        { u.isActive = true; u.touch() }
func (u *User) Deactivate()      { u.isActive = false; u.touch() }
func (u *User) GrantSuperuser()  { u.isSuperuser = true; u.touch() }
func (u *User) RevokeSuperuser() { u.isSuperuser = false; u.touch() }

// UpdateLastLogin stamps the login time without touching UpdatedAt.
func (u *User) UpdateLastLogin() {
	now := u.clock.Now()
	u.lastLogin = &now
}

func (u *User) AddProject(id vo.ProjectID) error {
	if id.IsZero() {
		return aggregates.ValidationError("user.AddProject", "project id is required")
	}
	if slices.Contains(u.projectIDs, id) {
		return aggregates.DuplicateError("user.AddProject", "user already participates in project %s", id)
	}
	u.projectIDs = append(u.projectIDs, id)
	u.touch()
	return nil
}

func (u *User) RemoveProject(id vo.ProjectID) {
	i := slices.Index(u.projectIDs, id)
	if i < 0 {
		return
	}
	u.projectIDs = slices.Delete(u.projectIDs, i, i+1)
	u.touch()
}

func (u *User) ParticipatesIn(id vo.ProjectID) bool { return slices.Contains(u.projectIDs, id) }

func (u *User) CanAccessProject(id vo.ProjectID) bool {
	return u.isSuperuser || u.ParticipatesIn(id)
}

// HasPermission grants everything to superusers and nothing else yet.
func (u *User) HasPermission(string) bool { return u.isSuperuser }

func (u *User) DisplayName() string {
	if u.fullName != "" {
		return u.fullName
	}
	return u.username
}

// Initials is the first letter of the first two words, or the first two letters of a
// single-word name, upper-cased.
func (u *User) Initials() string {
	parts := strings.Fields(u.DisplayName())
	switch len(parts) {
	case 0:
		return "U"
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	default:
		a, _ := utf8.DecodeRuneInString(parts[0])
		b, _ := utf8.DecodeRuneInString(parts[1])
		return string([]rune{unicode.ToUpper(a), unicode.ToUpper(b)})
	}
}

func (u *User) touch() { u.updatedAt = u.clock.Now() }

func validateEmail(op, email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return aggregates.ValidationError(op, "invalid email")
	}
	if utf8.RuneCountInString(email) > MaxEmailLen {
		return aggregates.ValidationError(op, "email exceeds %d characters", MaxEmailLen)
	}
	return nil
}

func validateUsername(op, username string) error {
	if strings.TrimSpace(username) == "" {
		return aggregates.ValidationError(op, "username must not be blank")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return aggregates.ValidationError(op, "username exceeds %d characters", MaxUsernameLen)
	}
	return nil
}

func validateFullName(op, fullName string) error {
	if strings.TrimSpace(fullName) == "" {
		return aggregates.ValidationError(op, "full name must not be blank")
	}
	if utf8.RuneCountInString(fullName) > MaxFullNameLen {
		return aggregates.ValidationError(op, "full name exceeds %d characters", MaxFullNameLen)
	}
	return nil
}

func validateBio(op string, bio *string) error {
	if bio != nil && utf8.RuneCountInString(*bio) > MaxBioLen {
		return aggregates.ValidationError(op, "bio exceeds %d characters", MaxBioLen)
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
