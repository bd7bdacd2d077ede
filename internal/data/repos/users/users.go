package users

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/models"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type Filter struct {
	IsActive *bool
}

type UserRepo interface {
	Create(dbc dbctx.Context, u *user.User) error
	GetByID(dbc dbctx.Context, id vo.UserID) (*user.User, int, error)
	GetByEmail(dbc dbctx.Context, email string) (*user.User, int, error)
	GetByUsername(dbc dbctx.Context, username string) (*user.User, int, error)
	GetByIDs(dbc dbctx.Context, ids []vo.UserID) ([]*user.User, error)
	Save(dbc dbctx.Context, u *user.User, expectedVersion int) (int, error)
	Delete(dbc dbctx.Context, id vo.UserID) error
	List(dbc dbctx.Context, f Filter, page query.Page) ([]*user.User, int64, error)
}

type userRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	clock aggregates.Clock
	cas   dataagg.CASGuard
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger, clock aggregates.Clock) UserRepo {
	return &userRepo{
		db:    db,
		log:   baseLog.With("repo", "UserRepo"),
		clock: clock,
		cas:   dataagg.NewCASGuard(db),
	}
}

// Create maps unique email/username violations to a duplicate error.
func (r *userRepo) Create(dbc dbctx.Context, u *user.User) error {
	row := models.UserToRow(u)
	row.Version = 1
	if err := dbc.Conn(r.db).Create(&row).Error; err != nil {
		return dataagg.MapError("user.Create", err)
	}
	return nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id vo.UserID) (*user.User, int, error) {
	return r.first(dbc, "user.Get", "id = ?", id.UUID())
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*user.User, int, error) {
	return r.first(dbc, "user.GetByEmail", "email = ?", strings.TrimSpace(email))
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*user.User, int, error) {
	return r.first(dbc, "user.GetByUsername", "username = ?", strings.TrimSpace(username))
}

func (r *userRepo) first(dbc dbctx.Context, op string, cond string, arg any) (*user.User, int, error) {
	var row models.UserRow
	err := dbc.Conn(r.db).Where(cond, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, aggregates.NotFoundError(op, "user not found")
	}
	if err != nil {
		return nil, 0, dataagg.MapError(op, err)
	}
	u, err := models.UserFromRow(row, r.clock)
	if err != nil {
		return nil, 0, err
	}
	return u, row.Version, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []vo.UserID) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.UUID())
	}
	var rows []models.UserRow
	if err := dbc.Conn(r.db).Where("id IN ?", raw).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, dataagg.MapError("user.GetByIDs", err)
	}
	return r.toDomain(rows)
}

func (r *userRepo) Save(dbc dbctx.Context, u *user.User, expectedVersion int) (int, error) {
	row := models.UserToRow(u)
	ok, err := r.cas.UpdateByVersion(dbc, row.TableName(), row.ID, expectedVersion, map[string]any{
		"email":           row.Email,
		"username":        row.Username,
		"full_name":       row.FullName,
		"hashed_password": row.HashedPassword,
		"is_active":       row.IsActive,
		"is_superuser":    row.IsSuperuser,
		"avatar_url":      row.AvatarURL,
		"bio":             row.Bio,
		"last_login":      row.LastLogin,
		"project_ids":     row.ProjectIDs,
		"updated_at":      row.UpdatedAt,
	})
	if err != nil {
		return 0, dataagg.MapError("user.Save", err)
	}
	if err := dataagg.RequireCASSuccess(ok, "user "+u.ID().String()+" was modified concurrently"); err != nil {
		r.log.Warn("user save lost a version race", "user_id", u.ID().String(), "version", expectedVersion)
		return 0, dataagg.MapError("user.Save", err)
	}
	return expectedVersion + 1, nil
}

func (r *userRepo) Delete(dbc dbctx.Context, id vo.UserID) error {
	res := dbc.Conn(r.db).Where("id = ?", id.UUID()).Delete(&models.UserRow{})
	if res.Error != nil {
		return dataagg.MapError("user.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return aggregates.NotFoundError("user.Delete", "user %s not found", id)
	}
	return nil
}

func (r *userRepo) List(dbc dbctx.Context, f Filter, page query.Page) ([]*user.User, int64, error) {
	q := dbc.Conn(r.db).Model(&models.UserRow{})
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dataagg.MapError("user.List", err)
	}
	page = page.Normalize()
	var rows []models.UserRow
	err := q.Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, dataagg.MapError("user.List", err)
	}
	list, err := r.toDomain(rows)
	return list, total, err
}

func (r *userRepo) toDomain(rows []models.UserRow) ([]*user.User, error) {
	out := make([]*user.User, 0, len(rows))
	for _, row := range rows {
		u, err := models.UserFromRow(row, r.clock)
		if err != nil {
			r.log.Error("stored user failed to restore", "user_id", row.ID.String(), "error", err)
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
