package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/http/response"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func taskView(t *task.Task) TaskResponse { return TaskView(t, 0) }

func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		ProjectID    string     `json:"project_id" binding:"required"`
		Title        string     `json:"title" binding:"required,notblank,max=200"`
		Description  string     `json:"description" binding:"max=2000"`
		Priority     string     `json:"priority" binding:"omitempty,priority"`
		AssigneeID   string     `json:"assignee_id"`
		ReporterID   string     `json:"reporter_id"`
		ParentTaskID string     `json:"parent_task_id"`
		DueDate      *time.Time `json:"due_date"`
		Tags         []string   `json:"tags" binding:"omitempty,dive,notblank,max=50"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		ReporterID:  req.ReporterID,
		ParentID:    req.ParentTaskID,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, 1)
	response.RespondCreated(c, TaskView(t, 1))
}

func (h *TaskHandler) Get(c *gin.Context) {
	t, version, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, version)
	response.RespondOK(c, TaskView(t, version))
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req struct {
		Title       *string             `json:"title" binding:"omitempty,notblank,max=200"`
		Description *string             `json:"description" binding:"omitempty,max=2000"`
		Priority    *string             `json:"priority" binding:"omitempty,priority"`
		Status      *string             `json:"status" binding:"omitempty,task_status"`
		AssigneeID  Optional[string]    `json:"assignee_id"`
		DueDate     Optional[time.Time] `json:"due_date"`
		Version     int                 `json:"version" binding:"omitempty,min=1"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	in := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Version:     version,
	}
	if req.AssigneeID.Set {
		assignee := ""
		if req.AssigneeID.Value != nil {
			assignee = *req.AssigneeID.Value
		}
		in.AssigneeID = &assignee
	}
	if req.DueDate.Set {
		in.DueDate = req.DueDate.Value
		in.ClearDueDate = req.DueDate.Value == nil
	}
	t, newVersion, err := h.tasks.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, newVersion)
	response.RespondOK(c, TaskView(t, newVersion))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (h *TaskHandler) List(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	overdue, ok := boolQuery(c, "overdue")
	if !ok {
		return
	}
	res, err := h.tasks.List(c.Request.Context(), services.TaskListInput{
		ProjectID:  c.Query("project_id"),
		AssigneeID: c.Query("assignee_id"),
		ReporterID: c.Query("reporter_id"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Tags:       listQuery(c, "tags"),
		Overdue:    overdue,
		Page:       page,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, mapPage(res, taskView))
}

func (h *TaskHandler) AddTag(c *gin.Context) {
	var req struct {
		Tag string `json:"tag" binding:"required,notblank,max=50"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.tasks.AddTag(c.Request.Context(), c.Param("id"), req.Tag)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, taskView(t))
}

func (h *TaskHandler) RemoveTag(c *gin.Context) {
	t, err := h.tasks.RemoveTag(c.Request.Context(), c.Param("id"), c.Param("tag"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, taskView(t))
}

func (h *TaskHandler) Risk(c *gin.Context) {
	res, err := h.tasks.Risk(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *TaskHandler) Complexity(c *gin.Context) {
	res, err := h.tasks.Complexity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *TaskHandler) Similar(c *gin.Context) {
	res, err := h.tasks.Similar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": taskViews(res)})
}

func (h *TaskHandler) Dependents(c *gin.Context) {
	res, err := h.tasks.Dependents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": taskViews(res)})
}

func (h *TaskHandler) Suggestions(c *gin.Context) {
	res, err := h.tasks.Suggestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": res})
}
