package aggregates

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
)

// CASGuard performs version-checked updates for optimistic locking.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// UpdateByVersion applies updates only when the row still has expectedVersion,
// bumping version by one. It reports whether a row was written.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	db := dbc.Conn(g.db)
	if db == nil {
		return false, errors.New("cas: missing db")
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, errors.New("cas: table and id are required")
	}
	if expectedVersion < 1 {
		return false, errors.New("cas: expected version must be >= 1")
	}
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = expectedVersion + 1
	res := db.Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess turns a failed compare-and-set into a conflict.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(message)
}

// RequireVersionMatch checks a caller-supplied version; zero means "not supplied".
func RequireVersionMatch(current, expected int) error {
	if expected == 0 || current == expected {
		return nil
	}
	return ConflictError("version mismatch")
}
