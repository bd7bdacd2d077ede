package tasks

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/models"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// Filter narrows List. Zero fields are ignored; Tags requires every listed tag.
type Filter struct {
	ProjectID  vo.ProjectID
	AssigneeID vo.UserID
	ReporterID vo.UserID
	Status     vo.TaskStatus
	Priority   vo.Priority
	Tags       []string
	Overdue    *bool
	// Now is the reference time for Overdue.
	Now time.Time
}

type TaskRepo interface {
	Create(dbc dbctx.Context, t *task.Task) error
	GetByID(dbc dbctx.Context, id vo.TaskID) (*task.Task, int, error)
	Save(dbc dbctx.Context, t *task.Task, expectedVersion int) (int, error)
	Delete(dbc dbctx.Context, id vo.TaskID) error
	DeleteByProject(dbc dbctx.Context, projectID vo.ProjectID) (int64, error)
	ListByProject(dbc dbctx.Context, projectID vo.ProjectID) ([]*task.Task, error)
	ListByProjects(dbc dbctx.Context, projectIDs []vo.ProjectID) (map[vo.ProjectID][]*task.Task, error)
	ListByAssignee(dbc dbctx.Context, userID vo.UserID) ([]*task.Task, error)
	ListInvolving(dbc dbctx.Context, userID vo.UserID) ([]*task.Task, error)
	List(dbc dbctx.Context, f Filter, page query.Page) ([]*task.Task, int64, error)
}

type taskRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	clock aggregates.Clock
	cas   dataagg.CASGuard
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger, clock aggregates.Clock) TaskRepo {
	return &taskRepo{
		db:    db,
		log:   baseLog.With("repo", "TaskRepo"),
		clock: clock,
		cas:   dataagg.NewCASGuard(db),
	}
}

func (r *taskRepo) Create(dbc dbctx.Context, t *task.Task) error {
	row := models.TaskToRow(t)
	row.Version = 1
	if err := dbc.Conn(r.db).Create(&row).Error; err != nil {
		return dataagg.MapError("task.Create", err)
	}
	return nil
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id vo.TaskID) (*task.Task, int, error) {
	var row models.TaskRow
	err := dbc.Conn(r.db).Where("id = ?", id.UUID()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, aggregates.NotFoundError("task.Get", "task %s not found", id)
	}
	if err != nil {
		return nil, 0, dataagg.MapError("task.Get", err)
	}
	t, err := models.TaskFromRow(row, r.clock)
	if err != nil {
		return nil, 0, err
	}
	return t, row.Version, nil
}

// Save writes t when the stored version still equals expectedVersion and
// returns the new version.
func (r *taskRepo) Save(dbc dbctx.Context, t *task.Task, expectedVersion int) (int, error) {
	row := models.TaskToRow(t)
	ok, err := r.cas.UpdateByVersion(dbc, row.TableName(), row.ID, expectedVersion, map[string]any{
		"title":        row.Title,
		"description":  row.Description,
		"status":       row.Status,
		"priority":     row.Priority,
		"assignee_id":  row.AssigneeID,
		"reporter_id":  row.ReporterID,
		"parent_id":    row.ParentID,
		"due_date":     row.DueDate,
		"completed_at": row.CompletedAt,
		"subtasks":     row.Subtasks,
		"tags":         row.Tags,
		"updated_at":   row.UpdatedAt,
	})
	if err != nil {
		return 0, dataagg.MapError("task.Save", err)
	}
	if err := dataagg.RequireCASSuccess(ok, "task "+t.ID().String()+" was modified concurrently"); err != nil {
		r.log.Warn("task save lost a version race", "task_id", t.ID().String(), "version", expectedVersion)
		return 0, dataagg.MapError("task.Save", err)
	}
	return expectedVersion + 1, nil
}

func (r *taskRepo) Delete(dbc dbctx.Context, id vo.TaskID) error {
	res := dbc.Conn(r.db).Where("id = ?", id.UUID()).Delete(&models.TaskRow{})
	if res.Error != nil {
		return dataagg.MapError("task.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return aggregates.NotFoundError("task.Delete", "task %s not found", id)
	}
	return nil
}

func (r *taskRepo) DeleteByProject(dbc dbctx.Context, projectID vo.ProjectID) (int64, error) {
	res := dbc.Conn(r.db).Where("project_id = ?", projectID.UUID()).Delete(&models.TaskRow{})
	if res.Error != nil {
		return 0, dataagg.MapError("task.DeleteByProject", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *taskRepo) ListByProject(dbc dbctx.Context, projectID vo.ProjectID) ([]*task.Task, error) {
	var rows []models.TaskRow
	err := dbc.Conn(r.db).
		Where("project_id = ?", projectID.UUID()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dataagg.MapError("task.ListByProject", err)
	}
	return r.toDomain(rows)
}

func (r *taskRepo) ListByProjects(dbc dbctx.Context, projectIDs []vo.ProjectID) (map[vo.ProjectID][]*task.Task, error) {
	out := make(map[vo.ProjectID][]*task.Task, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(projectIDs))
	for _, id := range projectIDs {
		ids = append(ids, id.UUID())
	}
	var rows []models.TaskRow
	err := dbc.Conn(r.db).
		Where("project_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dataagg.MapError("task.ListByProjects", err)
	}
	list, err := r.toDomain(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		out[t.ProjectID()] = append(out[t.ProjectID()], t)
	}
	return out, nil
}

func (r *taskRepo) ListByAssignee(dbc dbctx.Context, userID vo.UserID) ([]*task.Task, error) {
	var rows []models.TaskRow
	err := dbc.Conn(r.db).
		Where("assignee_id = ?", userID.UUID()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dataagg.MapError("task.ListByAssignee", err)
	}
	return r.toDomain(rows)
}

// ListInvolving returns tasks userID is assigned to or reported.
func (r *taskRepo) ListInvolving(dbc dbctx.Context, userID vo.UserID) ([]*task.Task, error) {
	var rows []models.TaskRow
	err := dbc.Conn(r.db).
		Where("assignee_id = ? OR reporter_id = ?", userID.UUID(), userID.UUID()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dataagg.MapError("task.ListInvolving", err)
	}
	return r.toDomain(rows)
}

func (r *taskRepo) List(dbc dbctx.Context, f Filter, page query.Page) ([]*task.Task, int64, error) {
	q := dbc.Conn(r.db).Model(&models.TaskRow{})
	if !f.ProjectID.IsZero() {
		q = q.Where("project_id = ?", f.ProjectID.UUID())
	}
	if !f.AssigneeID.IsZero() {
		q = q.Where("assignee_id = ?", f.AssigneeID.UUID())
	}
	if !f.ReporterID.IsZero() {
		q = q.Where("reporter_id = ?", f.ReporterID.UUID())
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status.String())
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority.String())
	}
	for _, tag := range f.Tags {
		q = q.Where(datatypes.JSONArrayQuery("tags").Contains(tag))
	}
	if f.Overdue != nil {
		now := f.Now
		if now.IsZero() {
			now = r.clock.Now()
		}
		overdue := "due_date IS NOT NULL AND due_date < ? AND status <> ?"
		if *f.Overdue {
			q = q.Where(overdue, now, vo.TaskDone.String())
		} else {
			q = q.Not(overdue, now, vo.TaskDone.String())
		}
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dataagg.MapError("task.List", err)
	}
	page = page.Normalize()
	var rows []models.TaskRow
	err := q.Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, dataagg.MapError("task.List", err)
	}
	list, err := r.toDomain(rows)
	return list, total, err
}

func (r *taskRepo) toDomain(rows []models.TaskRow) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		t, err := models.TaskFromRow(row, r.clock)
		if err != nil {
			r.log.Error("stored task failed to restore", "task_id", row.ID.String(), "error", err)
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
