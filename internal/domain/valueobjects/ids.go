package valueobjects

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

// ProjectID, TaskID and UserID hold the canonical lower-case uuid form, so two
// spellings of the same uuid compare equal. Zero values are "unset".
type (
	ProjectID struct{ value string }
	TaskID    struct{ value string }
	UserID    struct{ value string }
)

func NewProjectID() ProjectID { return ProjectID{value: uuid.NewString()} }
func NewTaskID() TaskID       { return TaskID{value: uuid.NewString()} }
func NewUserID() UserID       { return UserID{value: uuid.NewString()} }

func ParseProjectID(s string) (ProjectID, error) {
	v, err := parseID("project_id", s)
	return ProjectID{value: v}, err
}

func ParseTaskID(s string) (TaskID, error) {
	v, err := parseID("task_id", s)
	return TaskID{value: v}, err
}

func ParseUserID(s string) (UserID, error) {
	v, err := parseID("user_id", s)
	return UserID{value: v}, err
}

func (id ProjectID) String() string { return id.value }
func (id TaskID) String() string    { return id.value }
func (id UserID) String() string    { return id.value }

func (id ProjectID) IsZero() bool { return id.value == "" }
func (id TaskID) IsZero() bool    { return id.value == "" }
func (id UserID) IsZero() bool    { return id.value == "" }

// UUID returns the parsed form for storage. The zero ID maps to uuid.Nil.
func (id ProjectID) UUID() uuid.UUID { return mustUUID(id.value) }
func (id TaskID) UUID() uuid.UUID    { return mustUUID(id.value) }
func (id UserID) UUID() uuid.UUID    { return mustUUID(id.value) }

// ProjectIDFromUUID and friends rehydrate identifiers read from storage.
func ProjectIDFromUUID(u uuid.UUID) ProjectID { return ProjectID{value: fromUUID(u)} }
func TaskIDFromUUID(u uuid.UUID) TaskID       { return TaskID{value: fromUUID(u)} }
func UserIDFromUUID(u uuid.UUID) UserID       { return UserID{value: fromUUID(u)} }

func parseID(kind, s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", aggregates.ValidationError(kind, "must not be empty")
	}
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", aggregates.NewError(aggregates.CodeValidation, kind, "invalid uuid "+s, err)
	}
	return u.String(), nil
}

func mustUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return u
}

func fromUUID(u uuid.UUID) string {
	if u == uuid.Nil {
		return ""
	}
	return u.String()
}
