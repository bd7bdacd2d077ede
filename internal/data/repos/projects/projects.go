package projects

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/models"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/data/repos/tasks"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/project"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type Filter struct {
	OwnerID  vo.UserID
	MemberID vo.UserID
	Status   vo.ProjectStatus
}

// ProjectRepo stores the project row; tasks are written through TaskRepo and
// loaded back into the aggregate on read.
type ProjectRepo interface {
	Create(dbc dbctx.Context, p *project.Project) error
	GetByID(dbc dbctx.Context, id vo.ProjectID) (*project.Project, int, error)
	Exists(dbc dbctx.Context, id vo.ProjectID) (bool, error)
	Save(dbc dbctx.Context, p *project.Project, expectedVersion int) (int, error)
	Delete(dbc dbctx.Context, id vo.ProjectID) error
	List(dbc dbctx.Context, f Filter, page query.Page) ([]*project.Project, int64, error)
	ListByMember(dbc dbctx.Context, userID vo.UserID) ([]*project.Project, error)
}

type projectRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	clock aggregates.Clock
	tasks tasks.TaskRepo
	cas   dataagg.CASGuard
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger, clock aggregates.Clock, taskRepo tasks.TaskRepo) ProjectRepo {
	return &projectRepo{
		db:    db,
		log:   baseLog.With("repo", "ProjectRepo"),
		clock: clock,
		tasks: taskRepo,
		cas:   dataagg.NewCASGuard(db),
	}
}

// Create inserts the project row and any tasks it already holds.
func (r *projectRepo) Create(dbc dbctx.Context, p *project.Project) error {
	row := models.ProjectToRow(p)
	row.Version = 1
	if err := dbc.Conn(r.db).Create(&row).Error; err != nil {
		return dataagg.MapError("project.Create", err)
	}
	for _, t := range p.Tasks() {
		if err := r.tasks.Create(dbc, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id vo.ProjectID) (*project.Project, int, error) {
	var row models.ProjectRow
	err := dbc.Conn(r.db).Where("id = ?", id.UUID()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, aggregates.NotFoundError("project.Get", "project %s not found", id)
	}
	if err != nil {
		return nil, 0, dataagg.MapError("project.Get", err)
	}
	list, err := r.tasks.ListByProject(dbc, id)
	if err != nil {
		return nil, 0, err
	}
	p, err := models.ProjectFromRow(row, list, r.clock)
	if err != nil {
		return nil, 0, err
	}
	return p, row.Version, nil
}

func (r *projectRepo) Exists(dbc dbctx.Context, id vo.ProjectID) (bool, error) {
	var n int64
	if err := dbc.Conn(r.db).Model(&models.ProjectRow{}).Where("id = ?", id.UUID()).Count(&n).Error; err != nil {
		return false, dataagg.MapError("project.Exists", err)
	}
	return n > 0, nil
}

func (r *projectRepo) Save(dbc dbctx.Context, p *project.Project, expectedVersion int) (int, error) {
	row := models.ProjectToRow(p)
	ok, err := r.cas.UpdateByVersion(dbc, row.TableName(), row.ID, expectedVersion, map[string]any{
		"name":        row.Name,
		"description": row.Description,
		"owner_id":    row.OwnerID,
		"status":      row.Status,
		"members":     row.Members,
		"updated_at":  row.UpdatedAt,
	})
	if err != nil {
		return 0, dataagg.MapError("project.Save", err)
	}
	if err := dataagg.RequireCASSuccess(ok, "project "+p.ID().String()+" was modified concurrently"); err != nil {
		r.log.Warn("project save lost a version race", "project_id", p.ID().String(), "version", expectedVersion)
		return 0, dataagg.MapError("project.Save", err)
	}
	return expectedVersion + 1, nil
}

// Delete removes the project and its tasks.
func (r *projectRepo) Delete(dbc dbctx.Context, id vo.ProjectID) error {
	if _, err := r.tasks.DeleteByProject(dbc, id); err != nil {
		return err
	}
	res := dbc.Conn(r.db).Where("id = ?", id.UUID()).Delete(&models.ProjectRow{})
	if res.Error != nil {
		return dataagg.MapError("project.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return aggregates.NotFoundError("project.Delete", "project %s not found", id)
	}
	return nil
}

func (r *projectRepo) List(dbc dbctx.Context, f Filter, page query.Page) ([]*project.Project, int64, error) {
	q := dbc.Conn(r.db).Model(&models.ProjectRow{})
	if !f.OwnerID.IsZero() {
		q = q.Where("owner_id = ?", f.OwnerID.UUID())
	}
	if !f.MemberID.IsZero() {
		q = q.Where(datatypes.JSONArrayQuery("members").Contains(f.MemberID.String()))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status.String())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dataagg.MapError("project.List", err)
	}
	page = page.Normalize()
	var rows []models.ProjectRow
	err := q.Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, dataagg.MapError("project.List", err)
	}
	list, err := r.withTasks(dbc, rows)
	return list, total, err
}

func (r *projectRepo) ListByMember(dbc dbctx.Context, userID vo.UserID) ([]*project.Project, error) {
	var rows []models.ProjectRow
	err := dbc.Conn(r.db).
		Where(datatypes.JSONArrayQuery("members").Contains(userID.String())).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dataagg.MapError("project.ListByMember", err)
	}
	return r.withTasks(dbc, rows)
}

func (r *projectRepo) withTasks(dbc dbctx.Context, rows []models.ProjectRow) ([]*project.Project, error) {
	ids := make([]vo.ProjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, vo.ProjectIDFromUUID(row.ID))
	}
	byProject, err := r.tasks.ListByProjects(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*project.Project, 0, len(rows))
	for i, row := range rows {
		p, err := models.ProjectFromRow(row, byProject[ids[i]], r.clock)
		if err != nil {
			r.log.Error("stored project failed to restore", "project_id", row.ID.String(), "error", err)
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
